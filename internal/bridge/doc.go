// Package bridge implements the bridge-key correlation codec.
//
// A bridge key is a short generated token embedded in an HTML-comment-shaped
// marker inside an export bundle. An external AI chat echoes the marker back
// verbatim, and extraction of the key from the pasted reply correlates that
// reply with the pending block that requested it.
//
// The marker grammar is a wire-level contract with the paste source: it must
// survive rich-text editors that HTML-escape angle brackets, so both the
// literal brackets and their &lt;/&gt; entity forms are recognized.
package bridge
