package cmd

import (
	"errors"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobpilot"
)

type Config struct {
	DataDir    string            `mapstructure:"data-dir"`
	Cache      *CacheConfig      `mapstructure:"cache"`
	Ranking    *RankingConfig    `mapstructure:"ranking"`
	Sources    *SourcesConfig    `mapstructure:"sources"`
	AI         *AIConfig         `mapstructure:"ai"`
	Embeddings *EmbeddingsConfig `mapstructure:"embeddings"`
}

type CacheConfig struct {
	MaxAgeHours int `mapstructure:"max-age-hours"`
	MaxResults  int `mapstructure:"max-results"`
}

type RankingConfig struct {
	ExactWeight int `mapstructure:"exact-weight"`
	FuzzyWeight int `mapstructure:"fuzzy-weight"`
	TitleWeight int `mapstructure:"title-weight"`
}

type SourcesConfig struct {
	JSearch *JSearchConfig `mapstructure:"jsearch"`
	Adzuna  *AdzunaConfig  `mapstructure:"adzuna"`
}

type JSearchConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Limit      int    `mapstructure:"limit"`
}

type AdzunaConfig struct {
	AppID      string `mapstructure:"app-id"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type AIConfig struct {
	VerifyThreshold int           `mapstructure:"verify-threshold"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	Model       string   `mapstructure:"model"`
	Temperature float64  `mapstructure:"temperature"`
	APIKeys     []string `mapstructure:"api-keys"`
	APIKeyFiles []string `mapstructure:"api-key-files"`
}

type EmbeddingsConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobpilot recommends ranked job postings for a resume and answers questions about it",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"sources.jsearch.api-key": "RAPIDAPI_KEY",
		"sources.adzuna.app-id":   "ADZUNA_APP_ID",
		"sources.adzuna.api-key":  "ADZUNA_API_KEY",
		"ai.gemini.api-key":       "GEMINI_API_KEY",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobpilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("data-dir", "data")
	viper.SetDefault("cache.max-age-hours", 24)
	viper.SetDefault("cache.max-results", 15)
	viper.SetDefault("ranking.exact-weight", 10)
	viper.SetDefault("ranking.fuzzy-weight", 5)
	viper.SetDefault("ranking.title-weight", 15)
	viper.SetDefault("ai.verify-threshold", 60)
	viper.SetDefault("ai.gemini.temperature", 0.7)
	viper.SetDefault("embeddings.url", "http://localhost:11434")
	viper.SetDefault("embeddings.model", "all-minilm")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional; defaults and env bindings cover a bare
	// setup. A present but unparseable file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func (c *Config) candidateDataPath() string {
	return filepath.Join(c.DataDir, "user_data.json")
}

func (c *Config) jobsCachePath() string {
	return filepath.Join(c.DataDir, "recommended_jobs.json")
}

func (c *Config) vectorStorePath() string {
	return filepath.Join(c.DataDir, "embeddings.db")
}

func (c *Config) embeddingsURL() string {
	if c.Embeddings != nil && c.Embeddings.URL != "" {
		return c.Embeddings.URL
	}
	return viper.GetString("embeddings.url")
}

func (c *Config) embeddingsModel() string {
	if c.Embeddings != nil && c.Embeddings.Model != "" {
		return c.Embeddings.Model
	}
	return viper.GetString("embeddings.model")
}
