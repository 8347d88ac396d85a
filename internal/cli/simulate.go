package cli

import (
	"myPriceLab/business/bandit"

	"github.com/spf13/cobra"
)

var simOpts bandit.SimulationOptions

var simulateCmd = &cobra.Command{
	Use:         "simulate",
	Annotations: map[string]string{annotationOffline: "true"},
	Short:       "Run Thompson allocation offline against known conversion rates",
	Long: `Replays selection round by round against fixed conversion rates and reports
where traffic ended up. The first rate is the control arm. No database is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := bandit.Simulate(simOpts)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	f := simulateCmd.Flags()
	f.Float64SliceVar(&simOpts.Rates, "rates", []float64{0.05, 0.08}, "True conversion rate per arm, control first")
	f.IntVar(&simOpts.Rounds, "rounds", 10000, "Number of selections")
	f.IntVar(&simOpts.RebalanceEvery, "rebalance-every", 1000, "Recompute weights every N rounds; 0 only at the end")
	f.Float64Var(&simOpts.MinTrafficWeight, "min-weight", 5, "Traffic floor per arm in percent")
	f.IntVar(&simOpts.MinSampleSize, "min-sample-size", 100, "Average trials per arm before the stop rule applies")
	f.Float64Var(&simOpts.Confidence, "confidence", 0.95, "Stop rule confidence level")
	f.Int64Var(&simOpts.Seed, "seed", 42, "Seed; 0 for a random run")
}
