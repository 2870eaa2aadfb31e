package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"github.com/harsh16kumar/jobpilot/internal/logger"
	"github.com/harsh16kumar/jobpilot/internal/profile"
	"github.com/harsh16kumar/jobpilot/internal/ranking"
	"github.com/harsh16kumar/jobpilot/internal/secrets"
	"github.com/harsh16kumar/jobpilot/internal/sources"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptReportBySource = "Report by source"
	PromptJobsToFile     = "Dump jobs to file"
	PromptExit           = "Exit"

	// searchTitleCount bounds how many inferred titles are used as search
	// keywords per fetch cycle.
	searchTitleCount = 3
)

var errExit = errors.New("exit requested")

var runPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportBySource, PromptJobsToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, rank and cache job recommendations for the stored resume",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("refresh", "r", false, "ignore a fresh cache and refetch from all sources")
	runCmd.Flags().BoolP("no-prompt", "y", false, "print the ranked jobs and exit without the interactive menu")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobpilot", zap.String("version", version))

	cache := jobs.NewCache(config.jobsCachePath(), logger)
	maxAge := time.Duration(config.Cache.MaxAgeHours) * time.Hour

	var ranked []*jobs.Posting
	if cmd.Flag("refresh").Value.String() == "false" {
		ranked = cache.Load(maxAge)
	}

	if len(ranked) > 0 {
		logger.Info("serving jobs from cache",
			zap.Int("count", len(ranked)),
			zap.Duration("max_age", maxAge),
		)
	} else {
		ranked, err = fetchAndRank(ctx, config, logger)
		if err != nil {
			logger.Fatal("building recommendations", zap.Error(err))
		}

		if len(ranked) == 0 {
			logger.Info("exiting", zap.String("reason", "no jobs found across all sources"))
			return
		}

		if err := cache.Save(ranked); err != nil {
			logger.Warn("saving job cache failed", zap.Error(err))
		}
	}

	printJobs(ranked)

	if cmd.Flag("no-prompt").Value.String() == "true" {
		return
	}

	for {
		_, action, err := runPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, ranked, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func fetchAndRank(ctx context.Context, config *Config, logger *zap.Logger) ([]*jobs.Posting, error) {
	store := profile.NewStore(config.candidateDataPath())
	data, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading candidate data: %w", err)
	}

	prof := profile.Extract(data)
	logger.Info("extracted candidate profile",
		zap.Int("skills", len(prof.Skills)),
		zap.Strings("job_titles", prof.JobTitles),
		zap.Int("experience_years", prof.ExperienceYears),
	)

	aggregator := sources.NewAggregator(buildSources(config, logger), logger)
	postings := aggregator.Fetch(ctx, prof.TopTitles(searchTitleCount))

	unique := jobs.Dedupe(postings)
	logger.Info("deduplicated postings",
		zap.Int("initial", len(postings)),
		zap.Int("dropped", len(postings)-len(unique)),
		zap.Int("left", len(unique)),
	)

	scorer := ranking.NewScorer(ranking.Weights{
		Exact: config.Ranking.ExactWeight,
		Fuzzy: config.Ranking.FuzzyWeight,
		Title: config.Ranking.TitleWeight,
	})
	ranked := scorer.Rank(unique, prof)

	if limit := config.Cache.MaxResults; limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

func buildSources(config *Config, logger *zap.Logger) []sources.Source {
	jsearchKey, jsearchLimit := "", 0
	if config.Sources != nil && config.Sources.JSearch != nil {
		jsearchLimit = config.Sources.JSearch.Limit
		jsearchKey = loadOptionalSecret("rapidapi key", config.Sources.JSearch.APIKey, config.Sources.JSearch.APIKeyFile, logger)
	}
	// Env-bound keys land outside the unmarshalled struct when the config
	// file has no sources section.
	if jsearchKey == "" {
		jsearchKey = viper.GetString("sources.jsearch.api-key")
	}

	adzunaID, adzunaKey := viper.GetString("sources.adzuna.app-id"), ""
	if config.Sources != nil && config.Sources.Adzuna != nil {
		if config.Sources.Adzuna.AppID != "" {
			adzunaID = config.Sources.Adzuna.AppID
		}
		adzunaKey = loadOptionalSecret("adzuna api key", config.Sources.Adzuna.APIKey, config.Sources.Adzuna.APIKeyFile, logger)
	}
	if adzunaKey == "" {
		adzunaKey = viper.GetString("sources.adzuna.api-key")
	}

	return []sources.Source{
		sources.NewJSearch(jsearchKey, jsearchLimit, logger),
		sources.NewRemoteOK(logger),
		sources.NewAdzuna(adzunaID, adzunaKey, logger),
	}
}

func loadOptionalSecret(name, value, file string, logger *zap.Logger) string {
	secret, err := secrets.LoadOptional(secrets.Source{Name: name, Value: value, File: file})
	if err != nil {
		logger.Warn("loading secret failed", zap.String("secret", name), zap.Error(err))
		return ""
	}
	return secret
}

func handleAction(action string, ranked []*jobs.Posting, logger *zap.Logger) error {
	switch action {
	case PromptReportBySource:
		pretty, _ := json.MarshalIndent(jobs.ReportBySource(ranked), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", len(ranked)))
		return nil
	case PromptJobsToFile:
		filename, err := jobs.DumpToTmpFile(ranked)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printJobs(ranked []*jobs.Posting) {
	for i, p := range ranked {
		fmt.Printf("%2d. [%3d] %s - %s (%s, via %s)\n",
			i+1, p.RelevanceScore, p.Title, p.Company, p.Location, p.Source)
	}
}
