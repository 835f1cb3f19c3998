package cli

import (
	"time"

	"github.com/spf13/cobra"

	"ecg-monitor/internal/app"
)

var (
	captureDuration  time.Duration
	captureCSVPath   string
	capturePNGPath   string
	captureFiltered  bool
	captureMaxPoints int
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a live waveform window to CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.CaptureOptions{
			Duration:  captureDuration,
			CSVPath:   captureCSVPath,
			PNGPath:   capturePNGPath,
			Filtered:  captureFiltered,
			MaxPoints: captureMaxPoints,
		}
		return getApp().Capture(cmd.Context(), opts)
	},
}

func init() {
	captureCmd.Flags().DurationVar(&captureDuration, "duration", 10*time.Second, "How long to capture")
	captureCmd.Flags().StringVar(&captureCSVPath, "csv", "", "Path to write CSV data")
	captureCmd.Flags().StringVar(&capturePNGPath, "png", "", "Path to write PNG chart")
	captureCmd.Flags().BoolVar(&captureFiltered, "filtered", false, "Include the baseline-filtered signal")
	captureCmd.Flags().IntVar(&captureMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
