package cli

import (
	"github.com/spf13/cobra"

	"ecg-monitor/internal/app"
)

var alertsLimit int

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent alert episodes from the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Alerts(cmd.Context(), app.AlertsOptions{Limit: alertsLimit})
	},
}

func init() {
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "Maximum number of alerts to list")
}
