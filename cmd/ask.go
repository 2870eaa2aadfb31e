package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/harsh16kumar/jobpilot/internal/logger"
	"github.com/harsh16kumar/jobpilot/internal/rag"
	"github.com/harsh16kumar/jobpilot/internal/retrieval"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the stored resume and projects",
	Long: "ask routes the question to the resume and/or project index, answers from " +
		"the retrieved context and self-grades the answer, retrying once on a failing grade.",
	Args: cobra.ArbitraryArgs,
	Run: func(_ *cobra.Command, args []string) {
		ask(args)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func ask(args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		prompt := promptui.Prompt{Label: "Question"}
		query, err = prompt.Run()
		if err != nil {
			logger.Fatal("reading question", zap.Error(err))
		}
		query = strings.TrimSpace(query)
	}
	if query == "" {
		logger.Fatal("exiting", zap.String("reason", "empty question"))
	}

	generator, err := buildGenerator(config)
	if err != nil {
		logger.Fatal("building gemini client", zap.Error(err))
	}

	store, err := retrieval.Open(config.vectorStorePath())
	if err != nil {
		logger.Fatal("opening vector store", zap.Error(err))
	}
	defer store.Close()

	embedder := retrieval.NewHTTPEmbedder(config.embeddingsURL(), config.embeddingsModel())
	retriever := retrieval.NewRetriever(embedder, store)

	pipeline := rag.New(generator, retriever, logger)
	answer, err := pipeline.Run(ctx, query)
	if err != nil {
		logger.Fatal("answering question", zap.Error(err))
	}

	printAnswer(answer)
}

func printAnswer(answer *rag.Answer) {
	fmt.Printf("Source: %s\n\n%s\n", answer.Source, answer.Text)
	if answer.Corrected {
		fmt.Printf("\n(answer was revised after grader feedback: %s)\n", answer.Feedback)
	}
}
