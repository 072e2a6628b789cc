// Package rules implements the rule trigger subsystem: trigger
// configurations, the content event enrichment engine and the matching
// logic that decides which rules an event fires.
package rules

// SchemaTrigger subscribes a rule to one schema, optionally guarded by a
// condition expression evaluated against the enriched event.
type SchemaTrigger struct {
	SchemaID  string `json:"schemaId" yaml:"schemaId"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// ContentChangedTrigger describes what a rule subscribes to: either every
// content event or a set of schemas. Values are immutable once attached to
// a rule; a changed trigger is a new value. The zero value (HandleAll false,
// no schemas) is valid and matches nothing.
type ContentChangedTrigger struct {
	HandleAll bool            `json:"handleAll" yaml:"handleAll"`
	Schemas   []SchemaTrigger `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// SchemaIDs returns the distinct schema ids the trigger subscribes to, in
// configuration order. Nil when the trigger handles all events.
func (t ContentChangedTrigger) SchemaIDs() []string {
	if t.HandleAll || len(t.Schemas) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(t.Schemas))
	ids := make([]string, 0, len(t.Schemas))
	for _, s := range t.Schemas {
		if _, ok := seen[s.SchemaID]; ok {
			continue
		}
		seen[s.SchemaID] = struct{}{}
		ids = append(ids, s.SchemaID)
	}
	return ids
}

// Rule pairs a trigger configuration with the app it belongs to. The
// delivery action attached to a rule is owned by the dispatch layer and
// resolved from the rule id.
type Rule struct {
	ID      string                `json:"ruleId" yaml:"ruleId"`
	AppID   string                `json:"appId" yaml:"appId"`
	Trigger ContentChangedTrigger `json:"trigger" yaml:"trigger"`
}
