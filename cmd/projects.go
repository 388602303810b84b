package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"jobscout/internal/job"
	"jobscout/internal/logger"
	"jobscout/internal/repository"
	"jobscout/internal/selector"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var projectsCmd = &cobra.Command{
	Use:   "projects <posting-key>",
	Short: "Select the most relevant profile projects for a stored posting",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		selectProjects(args[0])
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func selectProjects(postingKey string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.ProfileFile == "" {
		logger.Fatal("profile-file is required to select projects")
	}

	profile, projects, err := job.LoadProfileFile(config.ProfileFile)
	if err != nil {
		logger.Fatal("loading profile file", zap.Error(err))
	}

	repo, err := buildStore(ctx, config, profile, projects)
	if err != nil {
		logger.Fatal("building the store", zap.Error(err))
	}

	posting, err := repo.GetPosting(ctx, postingKey)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Fatal("posting not found; run a search first or use the redis store to keep postings between runs",
			zap.String("posting_key", postingKey),
		)
	}
	if err != nil {
		logger.Fatal("getting the posting", zap.Error(err))
	}

	maxProjects := config.MaxProjects
	if maxProjects <= 0 {
		maxProjects = 3
	}

	selection := selector.Select(profile.ID, projects, posting, maxProjects)
	if len(selection.Projects) == 0 {
		logger.Info("no relevant projects for this posting", zap.String("posting_key", postingKey))
		return
	}

	pretty, _ := json.MarshalIndent(selection, "", "  ")
	fmt.Println(string(pretty))
}
