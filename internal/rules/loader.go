package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadRulesFromFile reads rule configurations from a JSON or YAML file.
func LoadRulesFromFile(filename string) ([]*Rule, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []*Rule
	ext := filepath.Ext(filename)

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("failed to parse JSON rules: %w", err)
		}
	default:
		// Try JSON first, then YAML.
		if err := json.Unmarshal(data, &rules); err != nil {
			if err := yaml.Unmarshal(data, &rules); err != nil {
				return nil, fmt.Errorf("failed to parse rules (unknown format): %w", err)
			}
		}
	}

	return rules, nil
}
