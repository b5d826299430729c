// Package buf contains the little-endian cursor and bounds helpers used by the
// record decoders.
package buf

import "encoding/binary"

// Cursor walks an immutable byte buffer, decoding little-endian fields and
// advancing past them.
//
// The cursor does not check bounds on its own. Callers compare Remaining()
// against the number of bytes a read will consume before calling it; reading
// past the end panics like any other out-of-range slice access.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor returns a cursor positioned at off within data.
func NewCursor(data []byte, off int) *Cursor {
	return &Cursor{data: data, off: off}
}

// Offset returns the current position within the buffer.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of bytes between the cursor and the buffer end.
func (c *Cursor) Remaining() int {
	if c.off >= len(c.data) {
		return 0
	}
	return len(c.data) - c.off
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) { c.off += n }

// Byte reads one byte.
func (c *Cursor) Byte() uint8 {
	v := c.data[c.off]
	c.off++
	return v
}

// Word reads a little-endian uint16.
func (c *Cursor) Word() uint16 {
	v := binary.LittleEndian.Uint16(c.data[c.off : c.off+2])
	c.off += 2
	return v
}

// DWord reads a little-endian uint32.
func (c *Cursor) DWord() uint32 {
	v := binary.LittleEndian.Uint32(c.data[c.off : c.off+4])
	c.off += 4
	return v
}

// Bytes returns the next n bytes as a sub-slice of the buffer (no copy).
func (c *Cursor) Bytes(n int) []byte {
	v := c.data[c.off : c.off+n : c.off+n]
	c.off += n
	return v
}

// LengthPrefixed reads a uint16 length followed by that many bytes.
func (c *Cursor) LengthPrefixed() []byte {
	n := int(c.Word())
	return c.Bytes(n)
}

// PeekDWord reads the uint32 at off without moving any cursor. ok is false when
// fewer than four bytes are available.
func PeekDWord(b []byte, off int) (uint32, bool) {
	s, ok := Slice(b, off, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(s), true
}
