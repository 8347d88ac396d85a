package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"myPriceLab/business/bandit"
	psqlRepo "myPriceLab/internal/repository/postgres"
	"myPriceLab/pkg/config"
	"myPriceLab/pkg/database"
	"myPriceLab/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// commands annotated offline run without configuration or a database
const annotationOffline = "offline"

var (
	logLevel string

	cfg     *config.Config
	service *bandit.BanditService
)

var rootCmd = &cobra.Command{
	Use:           "pricelab",
	Short:         "Operate price experiments from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg != nil {
			return nil
		}
		cmd.SetContext(bandit.WithTraceID(cmd.Context(), uuid.NewString()))

		if cmd.Annotations[annotationOffline] == "true" {
			logger.Init(os.Getenv("APP_ENV"))
			if logLevel != "" {
				logger.SetLevel(logLevel)
			}
			return nil
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logger.Init(cfg.App.Environment)
		if logLevel != "" {
			logger.SetLevel(logLevel)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(rebalanceCmd)
	rootCmd.AddCommand(shouldStopCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(simulateCmd)
}

// getService connects to the database on first use. simulate never calls it.
func getService() (*bandit.BanditService, error) {
	if service != nil {
		return service, nil
	}
	if cfg == nil {
		panic("configuration not loaded; PersistentPreRunE not executed")
	}

	db, err := database.InitPostgres(cfg)
	if err != nil {
		return nil, err
	}

	repo := psqlRepo.NewExperimentRepository(db)
	service = bandit.NewBanditService(repo, repo, nil, bandit.Config{
		MinTrafficWeight:    cfg.Bandit.MinTrafficWeight,
		MetricsWindowDays:   cfg.Bandit.MetricsWindowDays,
		MinSampleSize:       cfg.Bandit.MinSampleSize,
		ConfidenceThreshold: cfg.Bandit.ConfidenceThreshold,
		RebalanceWorkers:    cfg.Bandit.RebalanceWorkers,
		Seed:                cfg.Bandit.Seed,
	})
	return service, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
