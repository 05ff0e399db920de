package mapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddevteam/smart-form-filler/api/schemas"
)

func TestParseJSONResponse_BareObject(t *testing.T) {
	result, err := ParseJSONResponse[schemas.MappingResult](
		`{"fieldMappings":[{"fieldId":"email","suggestedValue":"a@b.com"}],"confidence":0.9}`)

	require.NoError(t, err)
	require.Len(t, result.FieldMappings, 1)
	assert.Equal(t, "email", result.FieldMappings[0].FieldID)
	assert.Equal(t, "a@b.com", result.FieldMappings[0].SuggestedValue)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestParseJSONResponse_MarkdownFence(t *testing.T) {
	response := "```json\n" +
		`{"recommendedForm":"signup","confidence":0.8,"relevantForms":[{"formId":"signup","score":0.8}]}` +
		"\n```"

	result, err := ParseJSONResponse[schemas.RelevanceResult](response)

	require.NoError(t, err)
	assert.Equal(t, "signup", result.RecommendedForm)
	require.Len(t, result.RelevantForms, 1)
	assert.InDelta(t, 0.8, result.RelevantForms[0].Score, 1e-9)
}

func TestParseJSONResponse_FenceWithoutLanguageTag(t *testing.T) {
	response := "```\n{\"confidence\":0.5,\"fieldMappings\":[]}\n```"

	result, err := ParseJSONResponse[schemas.MappingResult](response)

	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
}

func TestParseJSONResponse_SurroundingProse(t *testing.T) {
	response := `Sure! Here is the mapping you asked for:

{"fieldMappings":[{"fieldId":"name","suggestedValue":"Ada"}],"confidence":0.7}

Let me know if you need anything else.`

	result, err := ParseJSONResponse[schemas.MappingResult](response)

	require.NoError(t, err)
	require.Len(t, result.FieldMappings, 1)
	assert.Equal(t, "Ada", result.FieldMappings[0].SuggestedValue)
}

func TestParseJSONResponse_NestedBracesInProse(t *testing.T) {
	// The outermost brace pair must win even when values contain braces.
	response := `The result {"confidence":0.4,"fieldMappings":[{"fieldId":"a","suggestedValue":"x"}]} as requested.`

	result, err := ParseJSONResponse[schemas.MappingResult](response)

	require.NoError(t, err)
	require.Len(t, result.FieldMappings, 1)
}

func TestParseJSONResponse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"Empty", ""},
		{"Prose Only", "I could not find any forms to map."},
		{"Truncated Object", `{"fieldMappings":[{"fieldId":"a"`},
		{"Not JSON In Fence", "```json\nnot actually json\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSONResponse[schemas.MappingResult](tt.response)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to unmarshal collaborator JSON response")
		})
	}
}

func TestParseJSONResponse_LongPayloadErrorIsTruncated(t *testing.T) {
	long := "{" + strings.Repeat("a", 1000)
	_, err := ParseJSONResponse[schemas.MappingResult](long)
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 500)
}
