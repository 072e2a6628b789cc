package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRulesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRulesFromYAML(t *testing.T) {
	path := writeRulesFile(t, "rules.yaml", `
- ruleId: rule-1
  appId: app-1
  trigger:
    handleAll: false
    schemas:
      - schemaId: schema-article
        condition: "event.type == 'Published'"
- ruleId: rule-2
  appId: app-1
  trigger:
    handleAll: true
`)

	rules, err := LoadRulesFromFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "rule-1", rules[0].ID)
	require.Len(t, rules[0].Trigger.Schemas, 1)
	assert.Equal(t, "schema-article", rules[0].Trigger.Schemas[0].SchemaID)
	assert.Equal(t, "event.type == 'Published'", rules[0].Trigger.Schemas[0].Condition)
	assert.True(t, rules[1].Trigger.HandleAll)
}

func TestLoadRulesFromJSON(t *testing.T) {
	path := writeRulesFile(t, "rules.json", `[
		{"ruleId": "rule-1", "appId": "app-1", "trigger": {"handleAll": true}}
	]`)

	rules, err := LoadRulesFromFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Trigger.HandleAll)
}

func TestLoadRulesUnknownExtension(t *testing.T) {
	path := writeRulesFile(t, "rules.conf", `[{"ruleId": "rule-1", "appId": "app-1"}]`)

	rules, err := LoadRulesFromFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRulesFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRulesMalformed(t *testing.T) {
	path := writeRulesFile(t, "rules.yaml", `{not yaml: [`)
	_, err := LoadRulesFromFile(path)
	assert.Error(t, err)
}
