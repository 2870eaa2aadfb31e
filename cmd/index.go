package cmd

import (
	"context"
	"log"

	"github.com/harsh16kumar/jobpilot/internal/logger"
	"github.com/harsh16kumar/jobpilot/internal/profile"
	"github.com/harsh16kumar/jobpilot/internal/retrieval"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the resume and project embedding indices",
	Run: func(_ *cobra.Command, _ []string) {
		index()
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func index() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	data, err := profile.NewStore(config.candidateDataPath()).Load()
	if err != nil {
		logger.Fatal("loading candidate data", zap.Error(err))
	}
	if len(data) == 0 {
		logger.Fatal("exiting", zap.String("reason", "no candidate data to index"))
	}

	store, err := retrieval.Open(config.vectorStorePath())
	if err != nil {
		logger.Fatal("opening vector store", zap.Error(err))
	}
	defer store.Close()

	embedder := retrieval.NewHTTPEmbedder(config.embeddingsURL(), config.embeddingsModel())
	indexer := retrieval.NewIndexer(embedder, store, logger)

	if err := indexer.BuildResumeIndex(ctx, data); err != nil {
		logger.Fatal("building resume index", zap.Error(err))
	}

	if err := indexer.BuildProjectIndex(ctx, projectMaps(data)); err != nil {
		logger.Fatal("building project index", zap.Error(err))
	}

	logger.Info("indices rebuilt")
}

// projectMaps pulls the projects section out of the raw candidate data,
// tolerating a missing or malformed section.
func projectMaps(data map[string]any) []map[string]any {
	raw, ok := data["projects"].([]any)
	if !ok {
		return nil
	}

	projects := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if p, ok := item.(map[string]any); ok {
			projects = append(projects, p)
		}
	}

	return projects
}
