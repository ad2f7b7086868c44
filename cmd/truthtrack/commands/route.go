package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"truthtrack-assistant/internal/resolver"
)

var routeCmd = &cobra.Command{
	Use:   "route <text>",
	Short: "Show the offline answer for a command",
	Long: `Show which feature the built-in keyword table picks for a command and
the answer it gives. No network calls are made.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		fb := resolver.NewFallback()
		if r, ok := fb.Match(text); ok {
			fmt.Fprintln(out, labelStyle.Render("Feature: ")+r.Feature)
		} else {
			fmt.Fprintln(out, helpStyle.Render("No feature matched."))
		}
		fmt.Fprintln(out, responseStyle.Render(fb.Answer(text).ResponseText))
		return nil
	},
}
