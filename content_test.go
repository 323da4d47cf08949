package memoryruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextExtractsAcrossVariants(t *testing.T) {
	assert.Equal(t, "hello", Text(&TextContent{Text: "hello"}))
	assert.Equal(t, "", Text(&StructuredContent{Fields: map[string]any{"k": "v"}}))
	assert.Equal(t, "inline", Text(&StructuredContent{Fields: map[string]any{"text": "inline"}}))
	assert.Equal(t, "", Text(nil))

	mixed := &MixedContent{Parts: []Content{&TextContent{Text: "a"}, &TextContent{Text: "b"}}}
	assert.Equal(t, "a\nb", Text(mixed))
}

func TestMarshalUnmarshalContentRoundTrip(t *testing.T) {
	cases := []Content{
		&TextContent{Text: "hi"},
		&StructuredContent{Fields: map[string]any{"callId": "c1"}},
		&MixedContent{Parts: []Content{&TextContent{Text: "a"}, &StructuredContent{Fields: map[string]any{"x": float64(1)}}}},
	}
	for _, c := range cases {
		data, err := MarshalContent(c)
		require.NoError(t, err)

		got, err := UnmarshalContent(data)
		require.NoError(t, err)
		assert.IsType(t, c, got)
	}
}

func TestUnmarshalContentRejectsUnknownTag(t *testing.T) {
	_, err := UnmarshalContent([]byte(`{"type":"BOGUS"}`))
	assert.Error(t, err)
}

func TestContentCopyIsDeep(t *testing.T) {
	original := &StructuredContent{Fields: map[string]any{"k": "v"}}
	cp := original.Copy().(*StructuredContent)
	cp.Fields["k"] = "mutated"
	assert.Equal(t, "v", original.Fields["k"])
}
