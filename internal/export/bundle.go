package export

import (
	"fmt"
	"strings"

	"github.com/koipond/inkwell/internal/bridge"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/journal"
)

// closingInstruction precedes the marker so a reply carries the key back.
const closingInstruction = "Include the marker line below, unchanged, at the end of your reply."

// Bundle is everything a rendered export contains. Entries must already be
// in sequence order and Spotlights in offset order; Render preserves the
// order it is given.
type Bundle struct {
	StreamTitle string
	Directive   directive.Directive
	Entries     []journal.Entry
	Spotlights  map[string][]journal.Spotlight
	Key         string
}

// Render produces the bundle text handed to the clipboard or stdout.
// Deterministic: equal bundles render byte-identical output.
//
// Layout: a header naming the stream and directive, the directive
// instruction, each entry as "[n] (role)" over its plain text with
// spotlight excerpts indented beneath, the closing instruction, and the
// bridge marker as the final line. n is the entry's stream sequence
// number, not its position in the staged subset.
func Render(b Bundle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s (%s)\n\n", b.StreamTitle, b.Directive.Name)

	sb.WriteString(strings.TrimRight(b.Directive.Instruction, "\n"))
	sb.WriteString("\n\n")

	for _, entry := range b.Entries {
		fmt.Fprintf(&sb, "[%d] (%s)\n", entry.SequenceID, entry.Role)
		if text := entry.Content.PlainText(); text != "" {
			sb.WriteString(strings.TrimRight(text, "\n"))
			sb.WriteByte('\n')
		}
		for _, spot := range b.Spotlights[entry.ID] {
			fmt.Fprintf(&sb, "    > %s\n", spot.HighlightedText)
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(closingInstruction)
	sb.WriteString("\n\n")
	sb.WriteString(bridge.Marker(b.Key))
	sb.WriteByte('\n')

	return sb.String()
}
