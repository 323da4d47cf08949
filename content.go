package memoryruntime

import (
	"encoding/json"
	"fmt"
)

// Content is the tagged union carried by a Chunk: TextContent, StructuredContent,
// or MixedContent. Each variant reports its discriminator through Type(),
// which is also its "type" JSON tag.
type Content interface {
	// Type returns the discriminator used when serializing this content.
	Type() string

	// Copy returns a deep copy of this content value.
	Copy() Content
}

// ContentType values, used both as the Content.Type() discriminator and as
// the JSON "type" tag for (de)serialization.
const (
	ContentTypeText       = "TEXT"
	ContentTypeStructured = "STRUCTURED"
	ContentTypeMixed      = "MIXED"
)

// TextContent is plain text content.
type TextContent struct {
	Text string `json:"text"`
}

func (c *TextContent) Type() string { return ContentTypeText }

func (c *TextContent) Copy() Content {
	return &TextContent{Text: c.Text}
}

// StructuredContent holds an arbitrary field bag, used for content that
// doesn't reduce to plain text (tool arguments, tool results, structured
// delegation payloads).
type StructuredContent struct {
	Fields map[string]any `json:"fields"`
}

func (c *StructuredContent) Type() string { return ContentTypeStructured }

func (c *StructuredContent) Copy() Content {
	fields := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		fields[k] = v
	}
	return &StructuredContent{Fields: fields}
}

// MixedContent is an ordered sequence of TEXT and/or STRUCTURED parts.
type MixedContent struct {
	Parts []Content `json:"parts"`
}

func (c *MixedContent) Type() string { return ContentTypeMixed }

func (c *MixedContent) Copy() Content {
	parts := make([]Content, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = p.Copy()
	}
	return &MixedContent{Parts: parts}
}

// Text extracts a best-effort plain-text view of any Content variant.
// Used by the compactor when building a summarization prompt and by
// CompactionManager when locating task-goal / progress-summary text.
func Text(c Content) string {
	if c == nil {
		return ""
	}
	switch v := c.(type) {
	case *TextContent:
		return v.Text
	case *StructuredContent:
		if s, ok := v.Fields["text"].(string); ok {
			return s
		}
		return ""
	case *MixedContent:
		var out string
		for i, p := range v.Parts {
			if i > 0 {
				out += "\n"
			}
			out += Text(p)
		}
		return out
	default:
		return ""
	}
}

type contentEnvelope struct {
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
	Parts  []json.RawMessage `json:"parts,omitempty"`
}

// MarshalContent serializes a Content value with its type discriminator,
// so the snapshot file format can round-trip the variant without a
// separate tag field.
func MarshalContent(c Content) ([]byte, error) {
	switch v := c.(type) {
	case *TextContent:
		return json.Marshal(contentEnvelope{Type: ContentTypeText, Text: v.Text})
	case *StructuredContent:
		return json.Marshal(contentEnvelope{Type: ContentTypeStructured, Fields: v.Fields})
	case *MixedContent:
		parts := make([]json.RawMessage, len(v.Parts))
		for i, p := range v.Parts {
			raw, err := MarshalContent(p)
			if err != nil {
				return nil, err
			}
			parts[i] = raw
		}
		return json.Marshal(contentEnvelope{Type: ContentTypeMixed, Parts: parts})
	default:
		return nil, fmt.Errorf("memoryruntime: unknown content type %T", c)
	}
}

// UnmarshalContent parses a tagged Content value produced by MarshalContent.
func UnmarshalContent(data []byte) (Content, error) {
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case ContentTypeText:
		return &TextContent{Text: env.Text}, nil
	case ContentTypeStructured:
		return &StructuredContent{Fields: env.Fields}, nil
	case ContentTypeMixed:
		parts := make([]Content, len(env.Parts))
		for i, raw := range env.Parts {
			p, err := UnmarshalContent(raw)
			if err != nil {
				return nil, err
			}
			parts[i] = p
		}
		return &MixedContent{Parts: parts}, nil
	default:
		return nil, fmt.Errorf("memoryruntime: unknown content type tag %q", env.Type)
	}
}
