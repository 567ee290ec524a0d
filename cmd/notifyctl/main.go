// notifyctl is a CLI for running and exercising the notification
// decision pipeline: classify a stream of newline-delimited JSON
// events, validate a rules document, or serve the HTTP intake API.
//
// Usage:
//
//	notifyctl classify events.ndjson
//	notifyctl rules validate rules.json
//	notifyctl serve --bind 127.0.0.1:8088
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "notifyctl",
		Short: "Run and exercise the notification decision pipeline",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.config/notifyctl/config.toml)")

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
