package cmd

import (
	"fmt"

	"github.com/bnema/wltoplevel/internal/bus"
	"github.com/bnema/wltoplevel/internal/config"
	"github.com/spf13/cobra"
)

var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Print the D-Bus service name for the current display",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		fmt.Fprintln(cmd.OutOrStdout(), bus.ServiceName(cfg.DBus.Prefix, cfg.DisplayName()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nameCmd)
}
