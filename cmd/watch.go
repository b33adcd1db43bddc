package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/wltoplevel/internal/client"
	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/bnema/wltoplevel/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print window signals as they are emitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := client.Connect(ctx, config.Get())
		if err != nil {
			return err
		}
		defer c.Close()

		version, err := c.ProtocolVersion()
		if err != nil {
			return fmt.Errorf("service %s not reachable: %w", c.Name(), err)
		}

		signals, err := c.Subscribe(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatHeader("WATCHING", fmt.Sprintf("%s (protocol %d)", c.Name(), version)))

		for s := range signals {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSignal(time.Now(), s))
		}
		logger.Debug("Signal stream closed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
