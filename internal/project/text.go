package project

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/mdbkit/internal/format"
)

// EventText decodes the text carried by a message event. UTF-flagged blobs
// are UTF-8; anything else is a zero-terminated string in the legacy codepage,
// possibly followed by other data after the terminator.
func EventText(e format.Event, legacy encoding.Encoding) string {
	if e.UTF() {
		return Sanitize(format.DecodeUTF8(e.Blob))
	}
	raw := e.Blob
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return Sanitize(format.DecodeLegacy(raw, legacy))
}

// Sanitize replaces control characters 0x01-0x1F, other than tab, line feed
// and carriage return, with a space. Each replaced rune is a single byte in
// UTF-8, so length and positions are preserved.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x01 && r <= 0x1F && r != '\t' && r != '\n' && r != '\r' {
			return ' '
		}
		return r
	}, s)
}
