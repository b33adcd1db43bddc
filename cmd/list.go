package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/wltoplevel/internal/client"
	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the windows known to the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := client.Connect(ctx, config.Get())
		if err != nil {
			return err
		}
		defer c.Close()

		windows, err := c.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}

		var output strings.Builder
		output.WriteString(ui.FormatHeader("WINDOWS", c.Name()))
		output.WriteString("\n")
		output.WriteString(ui.WindowTable(windows))
		output.WriteString("\n")
		output.WriteString(ui.FormatCount(len(windows)))

		fmt.Fprintln(cmd.OutOrStdout(), output.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
