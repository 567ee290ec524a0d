package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nixlim/notify-pipeline/internal/decisionlog"
)

type classifyLine struct {
	EventID         string  `json:"event_id"`
	Decision        string  `json:"decision"`
	ScheduledTime   *string `json:"scheduled_time,omitempty"`
	ExplanationCode string  `json:"explanation_code"`
	Reason          string  `json:"reason,omitempty"`
	MatchedRuleID   string  `json:"matched_rule_id,omitempty"`
}

func classifyCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "classify [events.ndjson]",
		Short: "Run a stream of events through one decision engine and print one outcome per line",
		Long:  "Reads newline-delimited JSON events from a file (or stdin when no file is given) and feeds them through a single Decision Engine instance in order, so later events observe earlier ones' history updates. Prints one output record per line.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening events file: %w", err)
				}
				defer f.Close()
				in = f
			} else {
				in = os.Stdin
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, err := decisionlog.NewProduction()
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			eng := buildEngine(cfg, logger, loadRulesOrWarn(rulesPath, logger))

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				var raw map[string]any
				if err := json.Unmarshal([]byte(line), &raw); err != nil {
					return fmt.Errorf("parsing event JSON: %w", err)
				}

				rec := eng.ProcessEvent(raw)
				var scheduledTime *string
				if rec.ScheduledTime != nil {
					formatted := rec.ScheduledTime.Format("2006-01-02T15:04:05Z07:00")
					scheduledTime = &formatted
				}
				encoded, err := json.Marshal(classifyLine{
					EventID:         rec.InputEvent.EventID,
					Decision:        string(rec.Decision),
					ScheduledTime:   scheduledTime,
					ExplanationCode: string(rec.ExplanationCode),
					Reason:          rec.Reason,
					MatchedRuleID:   rec.MatchedRuleID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(encoded))
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a rules JSON document to load before classifying")
	return cmd
}
