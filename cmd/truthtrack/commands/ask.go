package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askMute bool

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Ask one question and speak the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), globalConfig, logger, askMute)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.AskDirectly(strings.Join(args, " ")); err != nil {
			return err
		}
		a.ctrl.Wait()
		a.player.Wait()

		fmt.Fprintln(cmd.OutOrStdout(), renderState(a.ctrl.State()))
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askMute, "mute", false, "print the answer without speaking it")
}
