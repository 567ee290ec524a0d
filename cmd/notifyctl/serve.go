package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nixlim/notify-pipeline/internal/decisionlog"
	"github.com/nixlim/notify-pipeline/internal/httpapi"
)

func serveCmd() *cobra.Command {
	var bind string
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the event intake HTTP API",
		Long:  "Starts an HTTP server exposing POST /v1/events, GET /healthz, and GET /metrics, backed by a fully wired decision engine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.HTTP.Bind = bind
			}

			logger, err := decisionlog.NewProduction()
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			eng := buildEngine(cfg, logger, loadRulesOrWarn(rulesPath, logger))

			server := httpapi.New(eng)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", cfg.HTTP.Bind)
			return http.ListenAndServe(cfg.HTTP.Bind, server)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "address to listen on (overrides config)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a rules JSON document to load at startup")
	return cmd
}
