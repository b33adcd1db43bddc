package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/bnema/wltoplevel/internal/server"
	"github.com/bnema/wltoplevel/internal/wlclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the window list service",
	Long: `Connect to the Wayland compositor and the session bus, then export the
window list until interrupted or until either connection is lost.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("batch", false, "Hold window signals until the compositor's done event")
	if err := viper.BindPFlag("wayland.batch_until_done", serveCmd.Flags().Lookup("batch")); err != nil {
		logger.Errorf("Failed to bind batch flag: %v", err)
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Watch(func(c *config.Config) {
		if c.Logging.LogLevel == "" {
			return
		}
		if err := logger.SetLevel(c.Logging.LogLevel); err != nil {
			logger.Warnf("Ignoring log level from reloaded config: %v", err)
			return
		}
		logger.Infof("Log level set to %s", c.Logging.LogLevel)
	}) {
		logger.Debugf("Watching %s for changes", config.GetConfigPath())
	}

	srv := server.New(cfg)
	display := cfg.DisplayName()
	if display == "" {
		display = wlclient.DefaultDisplay
	}
	logger.Infof("Starting %s for display %s", srv.ServiceName(), display)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("service stopped: %w", err)
	}
	logger.Info("Service stopped")
	return nil
}
