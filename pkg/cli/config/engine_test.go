package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/goldenoak/threadline/pkg/cli/config"
	"github.com/goldenoak/threadline/pkg/domain/types"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadIntentRules(t *testing.T) {
	path := writeRulesFile(t, `
[[rule]]
intent = "appraisal"
title = "Jewelry Appraisal"
keywords = ["apprais", "worth", "karat"]

[[rule]]
intent = "support"
keywords = ["help"]
`)

	rules, err := config.LoadIntentRules(path)
	gt.NoError(t, err).Required()

	gt.Array(t, rules).Length(2).Required()
	gt.Value(t, rules[0].Key).Equal(types.IntentAppraisal)
	gt.Value(t, rules[0].Title).Equal("Jewelry Appraisal")
	gt.Value(t, rules[0].Keywords).Equal([]string{"apprais", "worth", "karat"})
	gt.Value(t, rules[1].Key).Equal(types.IntentSupport)
	gt.Value(t, rules[1].Title).Equal("")
}

func TestLoadIntentRulesErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name:    "empty rule list",
			content: ``,
		},
		{
			name: "unknown intent key",
			content: `
[[rule]]
intent = "bargaining"
keywords = ["haggle"]
`,
		},
		{
			name: "duplicate intent",
			content: `
[[rule]]
intent = "hours"
keywords = ["open"]

[[rule]]
intent = "hours"
keywords = ["closed"]
`,
		},
		{
			name: "missing keywords",
			content: `
[[rule]]
intent = "hours"
keywords = []
`,
		},
		{
			name: "empty keyword",
			content: `
[[rule]]
intent = "hours"
keywords = ["open", ""]
`,
		},
		{
			name:    "not TOML at all",
			content: `{"intent": "hours"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRulesFile(t, tc.content)

			_, err := config.LoadIntentRules(path)
			gt.Error(t, err)
		})
	}
}

func TestLoadIntentRulesMissingFile(t *testing.T) {
	_, err := config.LoadIntentRules(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err)
}
