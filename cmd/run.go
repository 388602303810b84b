package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jobscout/internal/embedding"
	"jobscout/internal/embedding/gemini"
	"jobscout/internal/embedding/openai"
	"jobscout/internal/index"
	"jobscout/internal/job"
	"jobscout/internal/logger"
	"jobscout/internal/pipeline"
	"jobscout/internal/rank"
	"jobscout/internal/repository"
	"jobscout/internal/repository/memory"
	"jobscout/internal/repository/redis"
	"jobscout/internal/secrets"
	"jobscout/internal/source"
	"jobscout/internal/source/adzuna"
	"jobscout/internal/source/headhunter"
	"jobscout/internal/source/remotive"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptReport   = "Report by company"
	PromptProjects = "Select projects for a posting"
	PromptDump     = "Dump postings to file"
	PromptExit     = "Exit"
	PromptBack     = "back"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Next action?",
	Items: []string{PromptReport, PromptProjects, PromptDump, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Aggregate, filter and rank postings for the configured profile",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("no-prompt", "y", false, "print the ranked postings and exit without the action prompt")
	runCmd.Flags().Duration("timeout", 30*time.Second, "overall deadline for the source aggregation")

	viper.BindPFlag("timeout", runCmd.Flags().Lookup("timeout"))
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

	logger.Info("starting jobscout", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil || config.Search == nil {
		logger.Fatal("search configuration is required")
	}
	if config.ProfileFile == "" {
		logger.Fatal("profile-file is required to rank postings against a profile")
	}

	profile, projects, err := job.LoadProfileFile(config.ProfileFile)
	if err != nil {
		logger.Fatal("loading profile file", zap.Error(err))
	}

	repo, err := buildStore(ctx, config, profile, projects)
	if err != nil {
		logger.Fatal("building the store", zap.Error(err))
	}

	embedder, err := buildEmbedder(ctx, config.Embedding, logger)
	if err != nil {
		logger.Fatal("building the embedding provider", zap.Error(err))
	}

	weights := rank.DefaultWeights()
	if config.Ranking != nil && config.Ranking.Weights != nil {
		weights = *config.Ranking.Weights
	}
	if err := weights.Validate(); err != nil {
		logger.Fatal("validating ranking weights", zap.Error(err))
	}

	connectors, err := buildConnectors(logger)
	if err != nil {
		logger.Fatal("building source connectors", zap.Error(err))
	}

	aggregator := source.NewAggregator(connectors, viper.GetDuration("timeout"), logger)
	idx := index.New(embedder)
	pipe := pipeline.New(repo, idx, aggregator, weights, logger)

	logger.Info("starting the search",
		zap.Strings("keywords", config.Search.Keywords),
		zap.Strings("sources", config.Search.Sources),
	)

	ranked, diags, err := pipe.AggregateAndRank(ctx, pipeline.Request{
		ProfileID: profile.ID,
		Search:    config.Search,
		Filter:    config.Filters,
		TopN:      config.TopN,
	})
	if err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	logDiagnostics(logger, diags)

	if len(ranked) == 0 {
		logger.Info("exiting", zap.String("reason", diags.EmptyReason))
		return
	}

	printRanked(ranked)

	if noPrompt := cmd.Flag("no-prompt"); noPrompt != nil && noPrompt.Value.String() == "true" {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, pipe, config, profile, ranked, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, pipe *pipeline.Pipeline, config *Config, profile *job.Profile, ranked []rank.RankedPosting, logger *zap.Logger) error {
	postings := rankedCollection(ranked)

	switch action {
	case PromptReport:
		pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings_count", postings.Len()))
		return nil
	case PromptDump:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumped results to file", zap.String("filename", filename))
		return nil
	case PromptProjects:
		return selectProjectsPrompt(ctx, pipe, config, profile, ranked, logger)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func selectProjectsPrompt(ctx context.Context, pipe *pipeline.Pipeline, config *Config, profile *job.Profile, ranked []rank.RankedPosting, logger *zap.Logger) error {
	items := make([]string, 0, len(ranked)+1)
	for _, rp := range ranked {
		items = append(items, fmt.Sprintf("%d. %s / %s / %.1f",
			rp.Score.Rank, rp.Posting.Title, rp.Posting.Company, rp.Score.Composite,
		))
	}

	postingPrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: append(items, PromptBack),
	}

	idx, selected, err := postingPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	maxProjects := config.MaxProjects
	if maxProjects <= 0 {
		maxProjects = 3
	}

	selection, err := pipe.SelectProjects(ctx, profile.ID, ranked[idx].Posting.Key, maxProjects)
	if err != nil {
		return fmt.Errorf("select projects: %w", err)
	}

	if len(selection.Projects) == 0 {
		logger.Info("no relevant projects for this posting")
		return nil
	}

	pretty, _ := json.MarshalIndent(selection, "", "  ")
	logger.Info(string(pretty), zap.Int("projects_count", len(selection.Projects)))
	return nil
}

func printRanked(ranked []rank.RankedPosting) {
	for _, rp := range ranked {
		fmt.Printf("%3d. [%5.1f] %s — %s (%s, %s)\n",
			rp.Score.Rank,
			rp.Score.Composite,
			rp.Posting.Title,
			rp.Posting.Company,
			rp.Posting.Location,
			rp.Posting.Source,
		)
		if desc := logger.TruncateForLog(rp.Posting.Description, 120); desc != "" {
			fmt.Printf("       %s\n", desc)
		}
	}
}

func rankedCollection(ranked []rank.RankedPosting) *job.Postings {
	items := make([]*job.Posting, 0, len(ranked))
	for _, rp := range ranked {
		items = append(items, rp.Posting)
	}
	return &job.Postings{Items: items}
}

func logDiagnostics(logger *zap.Logger, diags *pipeline.Diagnostics) {
	for _, status := range diags.SourceStatuses {
		if status.Failed() {
			logger.Warn("source failed",
				zap.String("source", status.Source),
				zap.String("failure", status.Failure),
			)
			continue
		}
		logger.Info("source succeeded",
			zap.String("source", status.Source),
			zap.Int("postings", status.Postings),
		)
	}

	logger.Info("request diagnostics",
		zap.Int("sources_failed", diags.SourcesFailed),
		zap.Int("dropped_incomplete", diags.DroppedIncomplete),
		zap.Int("duplicates", diags.Duplicates),
		zap.Int("embedding_failures", diags.EmbeddingFailures),
		zap.Int("postings_without_embedding", diags.PostingsWithoutEmbedding),
		zap.Bool("profile_embedding_missing", diags.ProfileEmbeddingMissing),
	)
}

func buildStore(ctx context.Context, config *Config, profile *job.Profile, projects []*job.Project) (repository.Repository, error) {
	driver := "memory"
	if config.Store != nil && config.Store.Driver != "" {
		driver = strings.ToLower(config.Store.Driver)
	}

	switch driver {
	case "memory":
		store := memory.New()
		store.PutProfile(profile, projects)
		return store, nil
	case "redis":
		if config.Store == nil || config.Store.Redis == nil {
			return nil, errors.New("redis store configuration is required when store.driver is redis")
		}
		store, err := redis.New(ctx, *config.Store.Redis)
		if err != nil {
			return nil, err
		}
		if err := store.PutProfile(ctx, profile, projects); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

func buildEmbedder(ctx context.Context, config *EmbeddingConfig, log *zap.Logger) (embedding.Embedder, error) {
	if config == nil {
		return nil, errors.New("embedding configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	switch provider {
	case "", "openai":
		if config.OpenAI == nil {
			return nil, errors.New("openai configuration is required when embedding provider is openai")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: config.OpenAI.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set embedding.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}
		return openai.NewEmbedder(&openai.Config{
			APIKey:     apiKey,
			BaseURL:    config.OpenAI.BaseURL,
			Model:      config.OpenAI.Model,
			Dimensions: config.OpenAI.Dimensions,
			Logger:     logger.WithCommonFields(log, "openai", config.OpenAI.Model),
		}), nil
	case "gemini":
		if config.Gemini == nil {
			return nil, errors.New("gemini configuration is required when embedding provider is gemini")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: config.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set embedding.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		return gemini.NewEmbedder(ctx, apiKey, config.Gemini.Model, config.Gemini.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}

func buildConnectors(logger *zap.Logger) ([]source.Connector, error) {
	creds, err := getCredentials()
	if err != nil {
		return nil, err
	}

	connectors := []source.Connector{remotive.New(logger)}

	if creds.AdzunaAppID != "" {
		appKey, err := secrets.Load(secrets.Source{
			Name: "adzuna app key",
			File: creds.AdzunaAppKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set credentials.adzuna-app-key-file or ADZUNA_APP_KEY_FILE)", err)
		}
		connectors = append(connectors, adzuna.New(creds.AdzunaAppID, appKey, creds.AdzunaCountry, logger))
	}

	// HeadHunter search works anonymously; the token only lifts limits.
	hhToken := ""
	if creds.HHTokenFile != "" {
		hhToken, err = secrets.Load(secrets.Source{
			Name: "headhunter token",
			File: creds.HHTokenFile,
		})
		if err != nil {
			return nil, err
		}
	}
	connectors = append(connectors, headhunter.New(hhToken, logger))

	return connectors, nil
}
