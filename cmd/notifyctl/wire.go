package main

import (
	"fmt"
	"os"

	"github.com/nixlim/notify-pipeline/internal/classifier"
	"github.com/nixlim/notify-pipeline/internal/clock"
	"github.com/nixlim/notify-pipeline/internal/config"
	"github.com/nixlim/notify-pipeline/internal/decisionlog"
	"github.com/nixlim/notify-pipeline/internal/engine"
	"github.com/nixlim/notify-pipeline/internal/history"
	"github.com/nixlim/notify-pipeline/internal/metrics"
	"github.com/nixlim/notify-pipeline/internal/notifyevent"
	"github.com/nixlim/notify-pipeline/internal/rules"
)

// loadConfig reads the config file at configPath, or the default
// location when configPath is empty, printing any non-fatal warnings.
func loadConfig() (config.Config, error) {
	var result *config.LoadResult
	var err error
	if configPath != "" {
		result, err = config.LoadFrom(configPath)
	} else {
		result, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return result.Config, nil
}

// fallbackMapsFrom converts the TOML-friendly string maps in
// FallbackConfig into the typed maps the classifier consults.
func fallbackMapsFrom(fc config.FallbackConfig) classifier.FallbackMaps {
	byHint := make(map[notifyevent.PriorityHint]notifyevent.Decision, len(fc.ByPriorityHint))
	for k, v := range fc.ByPriorityHint {
		byHint[notifyevent.PriorityHint(k)] = notifyevent.Decision(v)
	}
	byType := make(map[notifyevent.EventType]notifyevent.Decision, len(fc.ByEventType))
	for k, v := range fc.ByEventType {
		byType[notifyevent.EventType(k)] = notifyevent.Decision(v)
	}
	return classifier.FallbackMaps{ByPriorityHint: byHint, ByEventType: byType}
}

// buildEngine wires a fully configured Engine from cfg and an initial
// ruleset (nil if none loaded).
func buildEngine(cfg config.Config, logger *decisionlog.Logger, initialRules []rules.Rule) *engine.Engine {
	store := history.NewMemoryStore(cfg.History.BufferSize, clock.Real{})
	ruleEngine := rules.NewEngine(store, initialRules)
	cl := classifier.New(fallbackMapsFrom(cfg.Fallback))

	return engine.New(cfg, store, ruleEngine, cl, logger, clock.Real{})
}

// loadRulesOrWarn loads a rules document from path. A load failure is
// non-fatal: it's logged as a warning and recorded in metrics, and the
// engine proceeds with an empty ruleset (spec.md §7: "Rule load errors
// ... log a warning and proceed with an empty ruleset; the pipeline
// remains functional"). An empty path is not an error: it simply means
// no rules were requested.
func loadRulesOrWarn(path string, logger *decisionlog.Logger) []rules.Rule {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.RuleLoadFailure(err)
		metrics.RecordRuleLoadFailure()
		return nil
	}
	loaded, err := rules.Load(data)
	if err != nil {
		logger.RuleLoadFailure(err)
		metrics.RecordRuleLoadFailure()
		return nil
	}
	return loaded
}
