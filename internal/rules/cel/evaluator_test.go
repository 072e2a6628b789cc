package cel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventVars(event map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"event": event}
}

func TestEvaluate(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name       string
		expression string
		vars       map[string]interface{}
		wantMatch  bool
		wantErr    bool
	}{
		{
			name:       "simple match",
			expression: "event.data.age > 18",
			vars:       eventVars(map[string]interface{}{"data": map[string]interface{}{"age": 20}}),
			wantMatch:  true,
		},
		{
			name:       "simple no match",
			expression: "event.data.age > 18",
			vars:       eventVars(map[string]interface{}{"data": map[string]interface{}{"age": 16}}),
			wantMatch:  false,
		},
		{
			name:       "type discriminator",
			expression: "event.type == 'Published'",
			vars:       eventVars(map[string]interface{}{"type": "Published"}),
			wantMatch:  true,
		},
		{
			name:       "string functions",
			expression: "event.data.title.startsWith('Breaking')",
			vars:       eventVars(map[string]interface{}{"data": map[string]interface{}{"title": "Breaking news"}}),
			wantMatch:  true,
		},
		{
			name:       "missing field",
			expression: "event.data.missing > 1",
			vars:       eventVars(map[string]interface{}{"data": map[string]interface{}{}}),
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: "event.type",
			vars:       eventVars(map[string]interface{}{"type": "Created"}),
			wantErr:    true,
		},
		{
			name:       "syntax error",
			expression: "event.data. >",
			vars:       eventVars(map[string]interface{}{}),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := evaluator.Evaluate(tt.vars, tt.expression)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, match)
		})
	}
}

func TestCompile(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	assert.NoError(t, evaluator.Compile("event.type == 'Created'"))
	assert.Error(t, evaluator.Compile("event.type =="))
}

func TestProgramCacheReuse(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	vars := eventVars(map[string]interface{}{"type": "Created"})

	_, err = evaluator.Evaluate(vars, "event.type == 'Created'")
	require.NoError(t, err)
	require.Len(t, evaluator.prgCache, 1)

	_, err = evaluator.Evaluate(vars, "event.type == 'Created'")
	require.NoError(t, err)
	assert.Len(t, evaluator.prgCache, 1)
}

func TestProgramCacheEviction(t *testing.T) {
	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	for i := 0; i <= MaxCacheSize; i++ {
		require.NoError(t, evaluator.Compile(fmt.Sprintf("event.version == %d", i)))
	}

	assert.Len(t, evaluator.prgCache, MaxCacheSize)
	_, oldestStillCached := evaluator.prgCache["event.version == 0"]
	assert.False(t, oldestStillCached, "oldest entry should be evicted first")
}
