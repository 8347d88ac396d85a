package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	experimentID  string
	userID        string
	gameID        string
	minSampleSize int
	metricsDays   int
	debugDraws    int
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the arm a user would be served",
	RunE: func(cmd *cobra.Command, args []string) error {
		if experimentID == "" {
			return errors.New("--experiment is required")
		}

		svc, err := getService()
		if err != nil {
			return err
		}

		selection, err := svc.SelectVariantForUser(cmd.Context(), experimentID, userID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), selection)
	},
}

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Recompute traffic weights for one experiment or every running one",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := getService()
		if err != nil {
			return err
		}

		if experimentID != "" {
			updates, err := svc.UpdateTrafficWeights(cmd.Context(), experimentID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updates)
		}

		results, err := svc.UpdateAllRunningExperiments(cmd.Context(), gameID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

var shouldStopCmd = &cobra.Command{
	Use:   "should-stop",
	Short: "Check whether an experiment reached significance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if experimentID == "" {
			return errors.New("--experiment is required")
		}

		svc, err := getService()
		if err != nil {
			return err
		}

		stop, err := svc.ShouldStopExperiment(cmd.Context(), experimentID, minSampleSize)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"experiment_id": experimentID,
			"should_stop":   stop,
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show per-arm conversion metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if experimentID == "" {
			return errors.New("--experiment is required")
		}

		svc, err := getService()
		if err != nil {
			return err
		}

		out, err := svc.GetExperimentMetrics(cmd.Context(), experimentID, metricsDays)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show posterior parameters and win probabilities per arm",
	RunE: func(cmd *cobra.Command, args []string) error {
		if experimentID == "" {
			return errors.New("--experiment is required")
		}

		svc, err := getService()
		if err != nil {
			return err
		}

		out, err := svc.DebugExperiment(cmd.Context(), experimentID, debugDraws)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	selectCmd.Flags().StringVar(&experimentID, "experiment", "", "Experiment id")
	selectCmd.Flags().StringVar(&userID, "user", "", "User id; empty selects without a sticky assignment")

	rebalanceCmd.Flags().StringVar(&experimentID, "experiment", "", "Experiment id; empty rebalances every running experiment")
	rebalanceCmd.Flags().StringVar(&gameID, "game-id", "", "Limit a full pass to one game")

	shouldStopCmd.Flags().StringVar(&experimentID, "experiment", "", "Experiment id")
	shouldStopCmd.Flags().IntVar(&minSampleSize, "min-sample-size", 0, "Average trials per arm required; 0 uses BANDIT_MIN_SAMPLE_SIZE")

	metricsCmd.Flags().StringVar(&experimentID, "experiment", "", "Experiment id")
	metricsCmd.Flags().IntVar(&metricsDays, "days", 0, "Trailing window in days; 0 uses BANDIT_METRICS_WINDOW_DAYS")

	debugCmd.Flags().StringVar(&experimentID, "experiment", "", "Experiment id")
	debugCmd.Flags().IntVar(&debugDraws, "draws", 0, "Monte Carlo draws for prob_best; 0 uses 2000")
}
