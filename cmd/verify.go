package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harsh16kumar/jobpilot/internal/ai"
	"github.com/harsh16kumar/jobpilot/internal/ai/gemini"
	"github.com/harsh16kumar/jobpilot/internal/logger"
	"github.com/harsh16kumar/jobpilot/internal/profile"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify declared qualifications against the stored resume",
	Long: "verify asks the model to judge whether the declared CGPA and skill are " +
		"supported by the resume contents and stores the verdict next to the resume.",
	Run: func(cmd *cobra.Command, _ []string) {
		verify(cmd)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("cgpa", "", "declared CGPA to verify, e.g. 8.2")
	verifyCmd.Flags().String("skill", "", "declared skill to verify, e.g. python")
}

func verify(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	claims := ai.Claims{
		CGPA:  strings.TrimSpace(cmd.Flag("cgpa").Value.String()),
		Skill: strings.TrimSpace(cmd.Flag("skill").Value.String()),
	}
	if claims.CGPA == "" && claims.Skill == "" {
		logger.Fatal("exiting", zap.String("reason", "at least one of --cgpa or --skill is required"))
	}

	store := profile.NewStore(config.candidateDataPath())
	resume, err := store.Load()
	if err != nil {
		logger.Fatal("loading candidate data", zap.Error(err))
	}
	if len(resume) == 0 {
		logger.Fatal("exiting", zap.String("reason", "no candidate data to verify against"))
	}

	generator, err := buildGenerator(config)
	if err != nil {
		logger.Fatal("building gemini client", zap.Error(err))
	}

	threshold := viper.GetInt("ai.verify-threshold")
	if config.AI != nil && config.AI.VerifyThreshold > 0 {
		threshold = config.AI.VerifyThreshold
	}

	verifier := gemini.NewVerifier(generator, threshold, 0, logger)
	assessment, err := verifier.Verify(ctx, resume, claims)
	if err != nil {
		logger.Fatal("verifying qualifications", zap.Error(err))
	}

	fmt.Printf("Decision: %s (score %d)\n%s\n", assessment.Decision, assessment.Score, assessment.Reason)

	resume["qualification_result"] = map[string]any{
		"decision":   assessment.Decision,
		"score":      assessment.Score,
		"reason":     assessment.Reason,
		"checked_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.Save(resume); err != nil {
		logger.Warn("saving verification result failed", zap.Error(err))
	}
}
