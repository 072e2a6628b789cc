package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaIDs(t *testing.T) {
	tests := []struct {
		name    string
		trigger ContentChangedTrigger
		want    []string
	}{
		{
			name:    "handle all yields nil",
			trigger: ContentChangedTrigger{HandleAll: true, Schemas: []SchemaTrigger{{SchemaID: "s1"}}},
			want:    nil,
		},
		{
			name:    "empty yields nil",
			trigger: ContentChangedTrigger{},
			want:    nil,
		},
		{
			name: "duplicates removed, order kept",
			trigger: ContentChangedTrigger{Schemas: []SchemaTrigger{
				{SchemaID: "s2"},
				{SchemaID: "s1"},
				{SchemaID: "s2", Condition: "event.version > 1"},
			}},
			want: []string{"s2", "s1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trigger.SchemaIDs())
		})
	}
}
