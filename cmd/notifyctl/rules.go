package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nixlim/notify-pipeline/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule documents",
	}
	cmd.AddCommand(rulesValidateCmd())
	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules.json>",
		Short: "Load a rules document and report errors, or list the loaded rules in evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading rules: %w", err)
			}

			loaded, err := rules.Load(data)
			if err != nil {
				return fmt.Errorf("invalid rules document: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rule(s) loaded, in evaluation order:\n", len(loaded))
			for _, r := range loaded {
				fmt.Fprintf(out, "  [%d] %s: %s\n", r.Priority, r.ID, r.Description)
			}
			return nil
		},
	}
}
