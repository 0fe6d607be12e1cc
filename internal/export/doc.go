// Package export renders staged entries into a bundle for an external
// assistant. A bundle pairs the stream's staged content with a directive
// instruction and ends with a bridge marker; the reply is matched back to
// its export by the marker's key.
package export
