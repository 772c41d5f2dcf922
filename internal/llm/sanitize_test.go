package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"brand":"Acme"}`, `{"brand":"Acme"}`},
		{"fenced json", "```json\n[{\"brand\":\"Acme\"}]\n```", `[{"brand":"Acme"}]`},
		{"plain fence", "```\n{\"brand\":\"Acme\"}\n```", `{"brand":"Acme"}`},
		{"leading chatter", `Here is the result: [{"brand":"Acme"}]`, `[{"brand":"Acme"}]`},
		{"no json at all", "sorry, I cannot help", "sorry, I cannot help"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimToJSON(tt.in))
		})
	}
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	arraySchema := BuildRecordArrayJSONSchema()

	t.Run("valid array passes", func(t *testing.T) {
		doc := `[{"brand":"Acme","name":"Robusto","quantity":"2x","purchase_price":8.5}]`
		require.NoError(t, ValidateJSONAgainstSchema(arraySchema, []byte(doc)))
	})

	t.Run("object rejected where array expected", func(t *testing.T) {
		doc := `{"brand":"Acme","name":"Robusto"}`
		assert.Error(t, ValidateJSONAgainstSchema(arraySchema, []byte(doc)))
	})

	t.Run("missing required field rejected", func(t *testing.T) {
		doc := `[{"brand":"Acme"}]`
		assert.Error(t, ValidateJSONAgainstSchema(arraySchema, []byte(doc)))
	})

	t.Run("empty array rejected", func(t *testing.T) {
		assert.Error(t, ValidateJSONAgainstSchema(arraySchema, []byte(`[]`)))
	})

	t.Run("malformed document rejected", func(t *testing.T) {
		assert.Error(t, ValidateJSONAgainstSchema(BuildRecordJSONSchema(), []byte(`{"brand":`)))
	})
}
