package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"truthtrack-assistant/internal/config"
	"truthtrack-assistant/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string

	globalConfig *config.Config
	logger       *slog.Logger
	logCloser    io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "truthtrack",
	Short: "TruthTrack voice assistant",
	Long: `TruthTrack - a voice assistant for the TruthTrack misinformation toolkit.

Speak or type a question about TruthTrack's features and get a short spoken
answer. Answers come from a language model when one is configured and from a
built-in keyword table otherwise.

Examples:
  # Interactive session; press Enter to start and stop listening
  truthtrack run

  # Ask a single question without audio output
  truthtrack ask --mute "how do I check a viral photo"

  # See which feature the offline table picks
  truthtrack route "is this news article fake"
`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(routeCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	globalConfig, logger, logCloser = cfg, log, closer
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}
