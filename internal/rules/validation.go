package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var validNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ConditionCompiler checks a condition expression without evaluating it.
// Used at rule save time so malformed expressions never reach the matching
// path.
type ConditionCompiler interface {
	Compile(expression string) error
}

// ValidateRule checks a rule configuration. A nil compiler skips condition
// checking.
func ValidateRule(r *Rule, compiler ConditionCompiler) error {
	if r.ID == "" {
		return errors.New("rule id is required")
	}
	if !validNameRegex.MatchString(r.ID) {
		return fmt.Errorf("invalid rule id: %s", r.ID)
	}

	if r.AppID == "" {
		return errors.New("app id is required")
	}
	if len(r.AppID) > 128 {
		return fmt.Errorf("app id too long: %s", r.AppID)
	}

	for i, schema := range r.Trigger.Schemas {
		if schema.SchemaID == "" {
			return fmt.Errorf("trigger schema %d: schema id is required", i)
		}
		if strings.TrimSpace(schema.Condition) == "" {
			continue
		}
		if compiler != nil {
			if err := compiler.Compile(schema.Condition); err != nil {
				return fmt.Errorf("trigger schema %s: invalid condition: %w", schema.SchemaID, err)
			}
		}
	}

	return nil
}
