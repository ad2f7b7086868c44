// Package main provides the TruthTrack voice assistant CLI.
//
// Usage:
//
//	truthtrack [flags] <command> [args]
//
// Commands:
//
//	run    - interactive session: press Enter to talk, type commands
//	ask    - resolve one command and speak the answer
//	route  - show which feature the offline keyword table picks
//
// Configuration:
//
//	Settings come from an optional YAML file (--config), a .env file in the
//	working directory and the environment (OPENAI_API_KEY, GEMINI_API_KEY).
package main

import (
	"fmt"
	"os"

	"truthtrack-assistant/cmd/truthtrack/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
