package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"truthtrack-assistant/internal/assistant"
	"truthtrack-assistant/internal/state"
)

const replHelp = `Enter: start/stop listening   ask <text>   suggest <n>   replay   copy
hush: stop speaking   reset   state   help   quit`

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive voice session",
	Long: `Start an interactive session.

Press Enter to start listening and Enter again to stop. The assistant also
stops by itself after a pause in speech. Type a command instead of pressing
Enter to ask by text, replay or copy the last answer.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var runMute bool

func init() {
	runCmd.Flags().BoolVar(&runMute, "mute", false, "do not speak responses")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, globalConfig, logger, runMute)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderBanner())

	a.ctrl.Watch((&printer{out: out}).Print)

	return repl(ctx, cmd.InOrStdin(), out, a.ctrl)
}

// repl reads commands until quit, EOF or ctx is done.
func repl(ctx context.Context, in io.Reader, out io.Writer, ctrl *assistant.Controller) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			name, arg := parseLine(line)
			if name == "quit" {
				return nil
			}
			if err := dispatch(ctrl, out, name, arg); err != nil {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
			}
		}
	}
}

// parseLine splits a REPL line into a lower-cased command and its argument.
// An empty line is the listen toggle.
func parseLine(line string) (name, arg string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "toggle", ""
	}
	name, arg, _ = strings.Cut(line, " ")
	name = strings.ToLower(name)
	switch name {
	case "q", "exit":
		name = "quit"
	case "?":
		name = "help"
	}
	return name, strings.TrimSpace(arg)
}

func dispatch(ctrl *assistant.Controller, out io.Writer, name, arg string) error {
	switch name {
	case "toggle":
		if ctrl.State().Phase == state.PhaseListening {
			ctrl.Stop()
			return nil
		}
		return ctrl.Start()
	case "ask":
		return ctrl.AskDirectly(arg)
	case "suggest":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("suggest takes a number from 1 to %d", len(assistant.Suggestions))
		}
		return ctrl.AskSuggestion(n - 1)
	case "replay":
		return ctrl.Replay()
	case "copy":
		if err := ctrl.Copy(); err != nil {
			return err
		}
		fmt.Fprintln(out, helpStyle.Render("Copied to clipboard."))
		return nil
	case "hush":
		ctrl.StopSpeaking()
		return nil
	case "reset":
		return ctrl.Reset()
	case "state":
		fmt.Fprintln(out, renderState(ctrl.State()))
		return nil
	case "help":
		fmt.Fprintln(out, renderBanner())
		return nil
	}
	return errors.New("unknown command " + strconv.Quote(name) + ", type help")
}
