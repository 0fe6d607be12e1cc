package journal

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainSnapshot is the domain prefix for snapshot checksums.
// Version suffix enables future algorithm migration.
const DomainSnapshot = "inkwell/snapshot/v1"

// SnapshotChecksum computes the content checksum recorded on every
// EntryVersion: SHA256(domain + 0x00 + canonical(doc)), hex-encoded.
//
// The canonical encoding makes the checksum independent of stored
// whitespace and key order:
//   - object keys sorted by UTF-16 code units
//   - strings (keys and values) NFC normalized
//   - no HTML escaping (< > & literal)
//   - numbers kept in their original lexical form
//   - compact separators
//
// The zero Document canonicalizes as "null". A document whose raw form no
// longer parses is treated the same way, consistent with the lenient read
// policy.
func SnapshotChecksum(doc Document) string {
	canonical, err := canonicalDocument(doc)
	if err != nil {
		canonical = []byte("null")
	}
	return hashWithDomain(DomainSnapshot, canonical)
}

// hashWithDomain computes SHA-256 with domain separation.
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalDocument(doc Document) ([]byte, error) {
	if doc.IsZero() {
		return []byte("null"), nil
	}

	// UseNumber preserves the lexical form of numbers; plain Unmarshal
	// would round-trip through float64.
	dec := json.NewDecoder(bytes.NewReader(doc.raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	var buf bytes.Buffer
	if err := appendCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(string(val))
	case string:
		appendCanonicalString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeysUTF16(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := appendCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type in document: %T", v)
	}
	return nil
}

// appendCanonicalString writes a JSON string with NFC normalization and no
// HTML escaping. Only control characters, backslash, and quote are escaped;
// everything else (including < > & U+2028 U+2029) is literal.
func appendCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// sortedKeysUTF16 returns keys in UTF-16 code unit order. Go's sort.Strings
// compares UTF-8 bytes, which orders supplementary-plane characters
// differently.
func sortedKeysUTF16(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
