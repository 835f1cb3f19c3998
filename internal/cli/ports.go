package cli

import (
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and mark the detected sampler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Ports()
	},
}
