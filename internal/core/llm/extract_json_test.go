package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/diary-replier/internal/core/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "pure_object",
			input: `{"key":"value"}`,
			want:  `{"key":"value"}`,
		},
		{
			name:  "object_with_preamble",
			input: `Here: {"key":"value"} done.`,
			want:  `{"key":"value"}`,
		},
		{
			name:  "markdown_wrapped_object",
			input: "```json\n{\"reply_short\":\"안녕\"}\n```",
			want:  `{"reply_short":"안녕"}`,
		},
		{
			name:  "nested_braces_in_strings",
			input: `{"text":"{not a brace}","n":1}`,
			want:  `{"text":"{not a brace}","n":1}`,
		},
		{
			name:  "no_json",
			input: "just some text",
			want:  "just some text",
		},
		{
			name:  "invalid_json_braces",
			input: `text { not json } more`,
			want:  "text { not json } more",
		},
		{
			name:  "empty_object",
			input: `Result: {}`,
			want:  `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type pair struct {
		Short  string `json:"reply_short"`
		Normal string `json:"reply_normal"`
	}

	got, err := DecodeJSON[pair]("sure!\n{\"reply_short\":\"짧게\",\"reply_normal\":\"길게\"}")
	require.NoError(t, err)
	assert.Equal(t, pair{Short: "짧게", Normal: "길게"}, got)

	_, err = DecodeJSON[pair]("그냥 답장입니다")
	assert.ErrorIs(t, err, errors.ErrParseFailure)

	_, err = DecodeJSON[pair]("   ")
	assert.ErrorIs(t, err, errors.ErrParseFailure)
}
