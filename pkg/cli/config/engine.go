package config

import (
	"os"

	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/goldenoak/threadline/pkg/engine"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Engine holds CLI flags for the aggregation engine
type Engine struct {
	caseWindowHours int
	intentRulesPath string
}

// Flags returns CLI flags for engine configuration
func (e *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "case-window-hours",
			Usage:       "Case window in hours; same-intent interactions within the window share a case (clamped to 1-336)",
			Value:       engine.DefaultCaseWindowHours,
			Sources:     cli.EnvVars("THREADLINE_CASE_WINDOW_HOURS"),
			Destination: &e.caseWindowHours,
		},
		&cli.StringFlag{
			Name:        "intent-rules",
			Usage:       "Path to a TOML file overriding the built-in intent keyword rules",
			Sources:     cli.EnvVars("THREADLINE_INTENT_RULES"),
			Destination: &e.intentRulesPath,
		},
	}
}

// CaseWindowHours returns the configured window, clamped
func (e *Engine) CaseWindowHours() int {
	return engine.ClampWindowHours(e.caseWindowHours)
}

// Configure returns the engine options for the configured flags
func (e *Engine) Configure() ([]engine.Option, error) {
	opts := []engine.Option{
		engine.WithCaseWindowHours(e.caseWindowHours),
	}

	if e.intentRulesPath != "" {
		rules, err := LoadIntentRules(e.intentRulesPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load intent rules", goerr.V("path", e.intentRulesPath))
		}
		opts = append(opts, engine.WithRules(rules))
	}

	return opts, nil
}

// IntentRule represents one intent keyword rule in the TOML configuration
type IntentRule struct {
	Intent   string   `toml:"intent"`
	Title    string   `toml:"title"`
	Keywords []string `toml:"keywords"`
}

// IntentRulesConfig represents the intent rules configuration file
type IntentRulesConfig struct {
	Rules []IntentRule `toml:"rule"`
}

// Validate checks if the IntentRulesConfig is valid
func (c *IntentRulesConfig) Validate() error {
	if len(c.Rules) == 0 {
		return goerr.New("at least one rule is required")
	}

	seen := make(map[string]bool)
	for _, rule := range c.Rules {
		key := types.IntentKey(rule.Intent)
		if !key.IsValid() {
			return goerr.New("invalid intent key", goerr.V("intent", rule.Intent))
		}
		if seen[rule.Intent] {
			return goerr.New("duplicate intent rule", goerr.V("intent", rule.Intent))
		}
		seen[rule.Intent] = true

		if len(rule.Keywords) == 0 {
			return goerr.New("rule keywords are required", goerr.V("intent", rule.Intent))
		}
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				return goerr.New("rule keywords must be non-empty", goerr.V("intent", rule.Intent))
			}
		}
	}
	return nil
}

// LoadIntentRules loads an ordered intent rule list from a TOML file
func LoadIntentRules(path string) ([]engine.Rule, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read intent rules file", goerr.V("path", path))
	}

	var config IntentRulesConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML intent rules", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "intent rules validation failed", goerr.V("path", path))
	}

	rules := make([]engine.Rule, len(config.Rules))
	for i, rule := range config.Rules {
		rules[i] = engine.Rule{
			Key:      types.IntentKey(rule.Intent),
			Title:    rule.Title,
			Keywords: rule.Keywords,
		}
	}
	return rules, nil
}
