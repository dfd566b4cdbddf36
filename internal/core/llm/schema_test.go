package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaProbe struct {
	Title string   `json:"title" jsonschema:"required"`
	Tags  []string `json:"tags"`
	Inner struct {
		Score float64 `json:"score"`
		Note  string  `json:"note"`
	} `json:"inner"`
}

func TestGenerateSchema_Strict(t *testing.T) {
	schema, err := GenerateSchema[schemaProbe]()
	require.NoError(t, err)

	assert.Equal(t, "object", schema[typeKey])
	assert.Equal(t, false, schema[additionalPropertiesKey])
	assert.Equal(t, []string{"inner", "tags", "title"}, schema[requiredKey])
	assert.NotContains(t, schema, schemaMetaKey)

	props, ok := schema[propertiesKey].(map[string]interface{})
	require.True(t, ok)

	inner, ok := props["inner"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, inner[additionalPropertiesKey])
	assert.Equal(t, []string{"note", "score"}, inner[requiredKey])
}

func TestMustSchema(t *testing.T) {
	s := MustSchema[schemaProbe]("probe")

	assert.Equal(t, "probe", s.Name)
	assert.NotEmpty(t, s.Definition)
}
