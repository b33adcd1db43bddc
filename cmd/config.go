package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wltoplevel configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Config file: %s\n\n", config.GetConfigPath())

		fmt.Fprintln(out, "[dbus]")
		fmt.Fprintf(out, "  prefix: %s\n", cfg.DBus.Prefix)
		fmt.Fprintf(out, "  object_path: %s\n", cfg.DBus.ObjectPath)
		fmt.Fprintf(out, "  connect_attempts: %d\n", cfg.DBus.ConnectAttempts)
		fmt.Fprintf(out, "  retry_delay: %s\n", cfg.DBus.RetryDelay)

		fmt.Fprintln(out, "\n[wayland]")
		fmt.Fprintf(out, "  display: %s\n", cfg.DisplayName())
		fmt.Fprintf(out, "  connect_attempts: %d\n", cfg.Wayland.ConnectAttempts)
		fmt.Fprintf(out, "  retry_delay: %s\n", cfg.Wayland.RetryDelay)
		fmt.Fprintf(out, "  batch_until_done: %v\n", cfg.Wayland.BatchUntilDone)

		fmt.Fprintln(out, "\n[logging]")
		fmt.Fprintf(out, "  log_level: %s\n", cfg.Logging.LogLevel)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := config.GetConfigPath()

		if _, err := os.Stat(path); err == nil && !force {
			logger.Infof("Config file already exists: %s (use --force to overwrite)", path)
			return nil
		}
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
