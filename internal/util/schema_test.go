package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectSchema(t *testing.T) {
	schema := ObjectSchema(map[string]Property{
		"content":  {Type: "string", Description: "what to remember"},
		"priority": {Type: "string", Enum: []string{"low", "medium", "high"}},
	}, "content")

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"content"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 2)
}

func TestValidateParameters(t *testing.T) {
	schema := ObjectSchema(map[string]Property{
		"content": {Type: "string"},
		"count":   {Type: "integer"},
		"score":   {Type: "number"},
		"done":    {Type: "boolean"},
	}, "content")

	t.Run("valid", func(t *testing.T) {
		err := ValidateParameters(map[string]any{
			"content": "hello",
			"count":   float64(3), // JSON numbers decode as float64
			"score":   0.5,
			"done":    true,
		}, schema)
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"count": float64(1)}, schema)
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "content", ve.Field)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"content": 42}, schema)
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "content", ve.Field)
	})

	t.Run("fractional integer rejected", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"content": "x", "count": 1.5}, schema)
		assert.Error(t, err)
	})

	t.Run("extra fields allowed", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"content": "x", "unknown": "y"}, schema)
		assert.NoError(t, err)
	})

	t.Run("json decoded required list", func(t *testing.T) {
		decoded := map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []any{"name"},
		}
		err := ValidateParameters(map[string]any{}, decoded)
		assert.Error(t, err)
	})
}

func TestJaccardSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, JaccardSimilarity("deploy the service", "Deploy THE service"))
	assert.Equal(t, 0.0, JaccardSimilarity("alpha beta", "gamma delta"))
	assert.Equal(t, 0.0, JaccardSimilarity("", "anything"))

	// {database, migration} vs {database, backup}: 1 shared of 3 total.
	sim := JaccardSimilarity("database migration", "database backup")
	assert.InDelta(t, 1.0/3.0, sim, 1e-9)
}
