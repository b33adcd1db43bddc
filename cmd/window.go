package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bnema/wltoplevel/internal/client"
	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/ui"
	"github.com/spf13/cobra"
)

// windowAction is a per-window command calling one service method.
type windowAction struct {
	use   string
	short string
	past  string
	call  func(c *client.Client, ctx context.Context, id uint32) error
}

var windowActions = []windowAction{
	{"activate", "Focus a window", "Activated", (*client.Client).Activate},
	{"close", "Ask a window to close", "Closed", (*client.Client).CloseWindow},
	{"maximize", "Toggle maximized on a window", "Toggled maximized on", (*client.Client).ToggleMaximized},
	{"minimize", "Toggle minimized on a window", "Toggled minimized on", (*client.Client).ToggleMinimized},
	{"fullscreen", "Toggle fullscreen on a window", "Toggled fullscreen on", (*client.Client).ToggleFullscreen},
}

func init() {
	for _, a := range windowActions {
		rootCmd.AddCommand(newWindowCmd(a))
	}
}

func newWindowCmd(a windowAction) *cobra.Command {
	return &cobra.Command{
		Use:   a.use + " <id>",
		Short: a.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWindowID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := client.Connect(ctx, config.Get())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := a.call(c, ctx, id); err != nil {
				return fmt.Errorf("%s window %d: %w", a.use, id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, fmt.Sprintf("%s window %d", a.past, id)))
			return nil
		},
	}
}

func parseWindowID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: must be a non-negative integer", s)
	}
	return uint32(id), nil
}
