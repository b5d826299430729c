// Package dbtest builds synthetic Miranda databases for tests. Records are
// appended in call order and their offsets returned so tests can wire links
// by hand, including broken ones.
package dbtest

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/joshuapare/mdbkit/internal/format"
)

// Builder accumulates a database image.
type Builder struct {
	buf          []byte
	user         uint32
	firstContact uint32
	lastContact  uint32
	firstModule  uint32
	lastModule   uint32
	contacts     uint32
}

// New returns a builder holding an empty header.
func New() *Builder {
	return &Builder{buf: make([]byte, format.HeaderSize)}
}

// Offset returns where the next record will be written.
func (b *Builder) Offset() uint32 { return uint32(len(b.buf)) }

// Pad appends n filler bytes.
func (b *Builder) Pad(n int) {
	b.buf = append(b.buf, make([]byte, n)...)
}

// Raw appends arbitrary bytes and returns their offset.
func (b *Builder) Raw(p []byte) uint32 {
	off := b.Offset()
	b.buf = append(b.buf, p...)
	return off
}

func (b *Builder) u32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }
func (b *Builder) u16(v uint16) { b.buf = binary.LittleEndian.AppendUint16(b.buf, v) }

// Patch32 overwrites the DWORD at off.
func (b *Builder) Patch32(off, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[off:], v)
}

// Module appends a module-name record and links it into the header's module chain.
func (b *Builder) Module(name string) uint32 {
	off := b.Offset()
	b.u32(format.ModuleNameSignature)
	b.u32(0)
	b.buf = append(b.buf, byte(len(name)))
	b.buf = append(b.buf, name...)
	if b.lastModule != 0 {
		b.Patch32(b.lastModule+4, off)
	} else {
		b.firstModule = off
	}
	b.lastModule = off
	return off
}

// Settings appends a settings record for module whose blob holds entries
// followed by the terminating empty key.
func (b *Builder) Settings(next, module uint32, entries ...Entry) uint32 {
	return b.SettingsBlob(next, module, Blob(entries...))
}

// SettingsBlob appends a settings record with a verbatim blob.
func (b *Builder) SettingsBlob(next, module uint32, blob []byte) uint32 {
	off := b.Offset()
	b.u32(format.ContactSettingsSignature)
	b.u32(next)
	b.u32(module)
	b.u32(uint32(len(blob)))
	b.buf = append(b.buf, blob...)
	return off
}

// Contact appends a contact record and links it into the header's contact
// chain. c.Offset and c.NextOffset are ignored.
func (b *Builder) Contact(c format.Contact) uint32 {
	off := b.Offset()
	b.u32(format.ContactSignature)
	b.u32(0)
	b.u32(c.FirstSettingsOffset)
	b.u32(c.EventCount)
	b.u32(c.FirstEventOffset)
	b.u32(c.LastEventOffset)
	b.u32(c.FirstUnreadOffset)
	b.u32(c.FirstUnreadTimestamp)
	if b.lastContact != 0 {
		b.Patch32(b.lastContact+4, off)
	} else {
		b.firstContact = off
	}
	b.lastContact = off
	b.contacts++
	return off
}

// Event appends an event record. e.Offset is ignored; the blob length is
// taken from e.Blob.
func (b *Builder) Event(e format.Event) uint32 {
	off := b.Offset()
	b.u32(format.EventSignature)
	b.u32(e.PrevOffset)
	b.u32(e.NextOffset)
	b.u32(e.ModuleOffset)
	b.u32(e.Timestamp)
	b.u32(e.Flags)
	b.u16(e.Type)
	b.u32(uint32(len(e.Blob)))
	b.buf = append(b.buf, e.Blob...)
	return off
}

// LinkEvents sets prev/next pointers so the given events form one chain.
func (b *Builder) LinkEvents(offs ...uint32) {
	for i, off := range offs {
		var prev, next uint32
		if i > 0 {
			prev = offs[i-1]
		}
		if i+1 < len(offs) {
			next = offs[i+1]
		}
		b.Patch32(off+4, prev)
		b.Patch32(off+8, next)
	}
}

// SetContactEvents points contact at the first and last of offs.
func (b *Builder) SetContactEvents(contact uint32, offs ...uint32) {
	if len(offs) == 0 {
		return
	}
	b.Patch32(contact+12, uint32(len(offs)))
	b.Patch32(contact+16, offs[0])
	b.Patch32(contact+20, offs[len(offs)-1])
}

// SetUser marks contact as the database owner.
func (b *Builder) SetUser(contact uint32) { b.user = contact }

// Bytes finalizes the header and returns the image.
func (b *Builder) Bytes() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	copy(out, format.HeaderSignature)
	h := out[format.HeaderSignatureSize:]
	binary.LittleEndian.PutUint32(h[0:], format.HeaderVersion)
	binary.LittleEndian.PutUint32(h[4:], uint32(len(out)))
	binary.LittleEndian.PutUint32(h[8:], 0)
	binary.LittleEndian.PutUint32(h[12:], b.contacts)
	binary.LittleEndian.PutUint32(h[16:], b.firstContact)
	binary.LittleEndian.PutUint32(h[20:], b.user)
	binary.LittleEndian.PutUint32(h[24:], b.firstModule)
	return out
}

// Entry is one encoded key/value pair of a settings blob.
type Entry []byte

// Blob concatenates entries and appends the empty-key terminator.
func Blob(entries ...Entry) []byte {
	var out []byte
	for _, e := range entries {
		out = append(out, e...)
	}
	return append(out, 0)
}

func entry(key string, t format.VariantType, payload []byte) Entry {
	e := Entry{byte(len(key))}
	e = append(e, key...)
	e = append(e, byte(t))
	return append(e, payload...)
}

func prefixed(count int, payload []byte) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(count))
	return append(out, payload...)
}

// Byte encodes a BYTE setting.
func Byte(key string, v uint8) Entry { return entry(key, format.VariantByte, []byte{v}) }

// Word encodes a WORD setting.
func Word(key string, v uint16) Entry {
	return entry(key, format.VariantWord, binary.LittleEndian.AppendUint16(nil, v))
}

// DWord encodes a DWORD setting.
func DWord(key string, v uint32) Entry {
	return entry(key, format.VariantDWord, binary.LittleEndian.AppendUint32(nil, v))
}

// ASCIIZ encodes a legacy codepage string setting from raw bytes.
func ASCIIZ(key string, raw []byte) Entry {
	return entry(key, format.VariantASCIIZ, prefixed(len(raw), raw))
}

// UTF8 encodes a UTF-8 string setting.
func UTF8(key, s string) Entry {
	return entry(key, format.VariantUTF8, prefixed(len(s), []byte(s)))
}

// WChar encodes a UTF-16 string setting.
func WChar(key, s string) Entry {
	units := utf16.Encode([]rune(s))
	var raw []byte
	for _, u := range units {
		raw = binary.LittleEndian.AppendUint16(raw, u)
	}
	return entry(key, format.VariantWChar, prefixed(len(units), raw))
}

// BlobValue encodes an opaque blob setting.
func BlobValue(key string, raw []byte) Entry {
	return entry(key, format.VariantBlob, prefixed(len(raw), raw))
}

// Deleted encodes a deleted setting.
func Deleted(key string) Entry { return entry(key, format.VariantDeleted, nil) }
