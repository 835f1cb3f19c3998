package cli

import (
	"time"

	"github.com/spf13/cobra"

	"ecg-monitor/internal/app"
)

var (
	simulateHR       float64
	simulateDuration time.Duration
	simulateNoise    float64
	simulateLeadOff  bool
	simulateNotify   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Feed a synthetic ECG through the pipeline and report the estimate",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			RateBPM:  simulateHR,
			Duration: simulateDuration,
			Noise:    simulateNoise,
			LeadOff:  simulateLeadOff,
			Notify:   simulateNotify,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateHR, "hr", 72, "Target heart rate in BPM")
	simulateCmd.Flags().DurationVar(&simulateDuration, "duration", 10*time.Second, "Virtual signal duration")
	simulateCmd.Flags().Float64Var(&simulateNoise, "noise", 0.02, "Noise amplitude (0.0-0.05)")
	simulateCmd.Flags().BoolVar(&simulateLeadOff, "lead-off", false, "Inject a lead-off episode midway")
	simulateCmd.Flags().BoolVar(&simulateNotify, "notify", false, "Dispatch real alerts on threshold crossings")
}
