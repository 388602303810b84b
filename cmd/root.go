package cmd

import (
	"log"

	"jobscout/internal/filter"
	"jobscout/internal/rank"
	"jobscout/internal/repository/redis"
	"jobscout/internal/source"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobscout"
)

type Config struct {
	Search      *source.SearchSpec `mapstructure:"search"`
	Filters     filter.Spec        `mapstructure:"filters"`
	Ranking     *RankingConfig     `mapstructure:"ranking"`
	Embedding   *EmbeddingConfig   `mapstructure:"embedding"`
	Store       *StoreConfig       `mapstructure:"store"`
	ProfileFile string             `mapstructure:"profile-file"`
	TopN        int                `mapstructure:"top-n"`
	MaxProjects int                `mapstructure:"max-projects"`
}

type RankingConfig struct {
	Weights *rank.Weights `mapstructure:"weights"`
}

type EmbeddingConfig struct {
	Provider string        `mapstructure:"provider"`
	OpenAI   *OpenAIConfig `mapstructure:"openai"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

type StoreConfig struct {
	Driver string        `mapstructure:"driver"` // memory (default) or redis
	Redis  *redis.Config `mapstructure:"redis"`
}

type SourceCredentials struct {
	AdzunaAppID      string `mapstructure:"adzuna-app-id"`
	AdzunaAppKeyFile string `mapstructure:"adzuna-app-key-file"`
	AdzunaCountry    string `mapstructure:"adzuna-country"`
	HHTokenFile      string `mapstructure:"hh-token-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobscout aggregates job postings from multiple boards and ranks them against your profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Local convenience: pick up API keys from a .env file when present.
	_ = godotenv.Load()

	if err := viper.BindEnv("credentials.adzuna-app-id", "ADZUNA_APP_ID"); err != nil {
		log.Fatalf("binding ADZUNA_APP_ID environment variable: %v", err)
	}
	if err := viper.BindEnv("credentials.adzuna-app-key-file", "ADZUNA_APP_KEY_FILE"); err != nil {
		log.Fatalf("binding ADZUNA_APP_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("credentials.hh-token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("embedding.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("embedding.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
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

func getCredentials() (*SourceCredentials, error) {
	var creds *SourceCredentials
	if err := viper.UnmarshalKey("credentials", &creds); err != nil {
		return nil, err
	}
	if creds == nil {
		creds = &SourceCredentials{}
	}

	// UnmarshalKey only sees a credentials block present in the config
	// file; the env-bound keys must be overlaid explicitly. GetString
	// already resolves env over config, so a set variable wins.
	if v := viper.GetString("credentials.adzuna-app-id"); v != "" {
		creds.AdzunaAppID = v
	}
	if v := viper.GetString("credentials.adzuna-app-key-file"); v != "" {
		creds.AdzunaAppKeyFile = v
	}
	if v := viper.GetString("credentials.hh-token-file"); v != "" {
		creds.HHTokenFile = v
	}
	return creds, nil
}
