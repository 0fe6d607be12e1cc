package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is an entry's content: an opaque structured JSON value. The core
// never interprets it beyond flattening to plain text for search display and
// export rendering. The zero value encodes as JSON null.
type Document struct {
	raw json.RawMessage
}

// NewDocument parses strict JSON into a Document. Used at API boundaries
// where the caller supplies content; invalid input is an error here, unlike
// reads from storage (see DecodeDocument).
func NewDocument(data []byte) (Document, error) {
	if !json.Valid(data) {
		return Document{}, fmt.Errorf("invalid document JSON")
	}
	return Document{raw: bytes.Clone(data)}, nil
}

// MustDocument is like NewDocument but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDocument(s string) Document {
	doc, err := NewDocument([]byte(s))
	if err != nil {
		panic(err)
	}
	return doc
}

// DecodeDocument parses stored content TEXT leniently: malformed JSON yields
// the zero Document rather than an error, so a corrupt row never blocks
// access to the rest of the entry.
func DecodeDocument(stored string) Document {
	if stored == "" || !json.Valid([]byte(stored)) {
		return Document{}
	}
	return Document{raw: []byte(stored)}
}

// TextDocument wraps plain text in the minimal rich-text document shape:
// one paragraph node per line. Used when absorbing pasted replies.
func TextDocument(text string) Document {
	type node struct {
		Type    string `json:"type"`
		Text    string `json:"text,omitempty"`
		Content []node `json:"content,omitempty"`
	}

	var paragraphs []node
	for _, line := range strings.Split(text, "\n") {
		p := node{Type: "paragraph"}
		if line != "" {
			p.Content = []node{{Type: "text", Text: line}}
		}
		paragraphs = append(paragraphs, p)
	}

	raw, err := json.Marshal(node{Type: "doc", Content: paragraphs})
	if err != nil {
		// node contains only strings and slices; Marshal cannot fail
		panic(err)
	}
	return Document{raw: raw}
}

// IsZero reports whether the document is the zero (null) value.
func (d Document) IsZero() bool {
	return len(d.raw) == 0
}

// Encode returns the storage TEXT form of the document. The zero value
// encodes as "null". Round-trips verbatim through DecodeDocument.
func (d Document) Encode() string {
	if d.IsZero() {
		return "null"
	}
	return string(d.raw)
}

// Equal reports whether two documents have byte-equal compact encodings.
// Whitespace-insensitive; key order still matters.
func (d Document) Equal(other Document) bool {
	return bytes.Equal(d.compact(), other.compact())
}

func (d Document) compact() []byte {
	if d.IsZero() {
		return []byte("null")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, d.raw); err != nil {
		return d.raw
	}
	return buf.Bytes()
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.raw = nil
		return nil
	}
	d.raw = bytes.Clone(data)
	return nil
}

// docNode is the conventional rich-text node shape. Fields beyond these
// (attrs, marks) carry no text and are ignored.
type docNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []docNode `json:"content"`
}

// PlainText flattens the document's node tree into plain text, one line per
// paragraph-level node. Unknown or non-object shapes degrade to empty.
func (d Document) PlainText() string {
	if d.IsZero() {
		return ""
	}
	var root docNode
	if err := json.Unmarshal(d.raw, &root); err != nil {
		return ""
	}
	return strings.Join(root.lines(), "\n")
}

// lines returns one string per paragraph-level descendant.
func (n docNode) lines() []string {
	switch n.Type {
	case "text":
		if n.Text == "" {
			return nil
		}
		return []string{n.Text}
	case "paragraph", "heading", "codeBlock":
		return []string{n.inlineText()}
	default:
		// doc, lists, listItem, blockquote, unknown containers
		var out []string
		for _, child := range n.Content {
			out = append(out, child.lines()...)
		}
		return out
	}
}

// inlineText concatenates all text leaves under the node.
func (n docNode) inlineText() string {
	var b strings.Builder
	b.WriteString(n.Text)
	for _, child := range n.Content {
		b.WriteString(child.inlineText())
	}
	return b.String()
}
