package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/mdbkit/internal/buf"
)

// Header captures the database header. The chain pointers it holds may be
// stale after in-place deletions; only UserOffset is relied upon, to find the
// self contact.
type Header struct {
	Signature          [HeaderSignatureSize]byte
	Version            uint32
	FileEndOffset      uint32
	SlackSpace         uint32
	ContactCount       uint32
	FirstContactOffset uint32
	UserOffset         uint32
	FirstModuleOffset  uint32
}

// DecodeHeader validates and extracts the header at the start of b. Unlike
// the record decoders, a failure here means b is not a database at all.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %w (have %d, need %d)", ErrTruncated, len(b), HeaderSize)
	}
	if !bytes.Equal(b[:HeaderSignatureSize], HeaderSignature) {
		return Header{}, fmt.Errorf("header: %w", ErrSignatureMismatch)
	}

	var h Header
	c := buf.NewCursor(b, 0)
	copy(h.Signature[:], c.Bytes(HeaderSignatureSize))
	h.Version = c.DWord()
	h.FileEndOffset = c.DWord()
	h.SlackSpace = c.DWord()
	h.ContactCount = c.DWord()
	h.FirstContactOffset = c.DWord()
	h.UserOffset = c.DWord()
	h.FirstModuleOffset = c.DWord()
	return h, nil
}
