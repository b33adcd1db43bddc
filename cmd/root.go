package cmd

import (
	"fmt"

	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "wltoplevel",
		Short: "wltoplevel - Wayland window list over D-Bus",
		Long: `wltoplevel tracks the toplevel windows of a wlroots compositor through
the wlr-foreign-toplevel-management protocol and exports them as a D-Bus
service, so taskbars can list, query and control windows without speaking
Wayland.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/wltoplevel/wltoplevel.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("display", "", "Wayland display (default is $WAYLAND_DISPLAY)")

	if err := viper.BindPFlag("logging.log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		logger.Errorf("Failed to bind log-level flag: %v", err)
	}
	if err := viper.BindPFlag("wayland.display", rootCmd.PersistentFlags().Lookup("display")); err != nil {
		logger.Errorf("Failed to bind display flag: %v", err)
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if level := config.Get().Logging.LogLevel; level != "" {
		if err := logger.SetLevel(level); err != nil {
			return err
		}
	}
	return nil
}
