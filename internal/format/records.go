package format

import (
	"fmt"

	"github.com/joshuapare/mdbkit/internal/buf"
)

// Contact is a decoded contact record. Its identity is its own offset.
type Contact struct {
	Offset               uint32
	NextOffset           uint32
	FirstSettingsOffset  uint32
	EventCount           uint32
	FirstEventOffset     uint32
	LastEventOffset      uint32
	FirstUnreadOffset    uint32
	FirstUnreadTimestamp uint32
}

// Event is a decoded event record. Events of one contact form a doubly linked
// chain through PrevOffset/NextOffset.
type Event struct {
	Offset       uint32
	PrevOffset   uint32
	NextOffset   uint32
	ModuleOffset uint32
	Timestamp    uint32
	Flags        uint32
	Type         uint16
	Blob         []byte
}

// Sent reports whether the event was sent by the database owner.
func (e Event) Sent() bool { return e.Flags&EventFlagSent != 0 }

// UTF reports whether the blob holds UTF-8 text.
func (e Event) UTF() bool { return e.Flags&EventFlagUTF != 0 }

// IsMessage reports whether the event carries conversation text.
func (e Event) IsMessage() bool {
	return e.Type == EventTypeMessage || e.Type == EventTypeURL
}

// ModuleName is a decoded module-name record. Name identifies the protocol
// that owns settings and events pointing at this record.
type ModuleName struct {
	Offset     uint32
	NextOffset uint32
	Name       string
}

// ContactSettings is one settings blob for a single module of a contact.
type ContactSettings struct {
	Offset       uint32
	NextOffset   uint32
	ModuleOffset uint32
	Blob         []byte
}

// recordStart checks that the fixed part of a record fits at off and returns a
// cursor positioned past the signature.
func recordStart(b []byte, off int, fixed int, kind string) (*buf.Cursor, error) {
	if !buf.Has(b, off, fixed) {
		return nil, fmt.Errorf("%s at 0x%x: %w (need %d bytes)", kind, off, ErrTruncated, fixed)
	}
	c := buf.NewCursor(b, off)
	c.Skip(SignatureSize)
	return c, nil
}

// DecodeContact decodes the contact record starting at off. The caller is
// responsible for having matched ContactSignature at off.
func DecodeContact(b []byte, off int) (Contact, error) {
	c, err := recordStart(b, off, ContactSize, "contact")
	if err != nil {
		return Contact{}, err
	}
	return Contact{
		Offset:               uint32(off),
		NextOffset:           c.DWord(),
		FirstSettingsOffset:  c.DWord(),
		EventCount:           c.DWord(),
		FirstEventOffset:     c.DWord(),
		LastEventOffset:      c.DWord(),
		FirstUnreadOffset:    c.DWord(),
		FirstUnreadTimestamp: c.DWord(),
	}, nil
}

// DecodeEvent decodes the event record starting at off. The blob is a view
// into b.
func DecodeEvent(b []byte, off int) (Event, error) {
	c, err := recordStart(b, off, EventFixedSize, "event")
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		Offset:       uint32(off),
		PrevOffset:   c.DWord(),
		NextOffset:   c.DWord(),
		ModuleOffset: c.DWord(),
		Timestamp:    c.DWord(),
		Flags:        c.DWord(),
		Type:         c.Word(),
	}
	cb := c.DWord()
	if !buf.Fits(b, c.Offset(), cb) {
		return Event{}, fmt.Errorf("event at 0x%x: blob of %d bytes: %w", off, cb, ErrMalformed)
	}
	ev.Blob = c.Bytes(int(cb))
	return ev, nil
}

// DecodeModuleName decodes the module-name record starting at off.
func DecodeModuleName(b []byte, off int) (ModuleName, error) {
	c, err := recordStart(b, off, ModuleNameFixedSize, "module name")
	if err != nil {
		return ModuleName{}, err
	}
	m := ModuleName{
		Offset:     uint32(off),
		NextOffset: c.DWord(),
	}
	n := c.Byte()
	if !buf.Fits(b, c.Offset(), uint32(n)) {
		return ModuleName{}, fmt.Errorf("module name at 0x%x: name of %d bytes: %w", off, n, ErrMalformed)
	}
	m.Name = string(c.Bytes(int(n)))
	return m, nil
}

// DecodeContactSettings decodes the settings record starting at off. The blob
// is a view into b.
func DecodeContactSettings(b []byte, off int) (ContactSettings, error) {
	c, err := recordStart(b, off, ContactSettingsFixedSize, "contact settings")
	if err != nil {
		return ContactSettings{}, err
	}
	s := ContactSettings{
		Offset:       uint32(off),
		NextOffset:   c.DWord(),
		ModuleOffset: c.DWord(),
	}
	cb := c.DWord()
	if !buf.Fits(b, c.Offset(), cb) {
		return ContactSettings{}, fmt.Errorf("contact settings at 0x%x: blob of %d bytes: %w", off, cb, ErrMalformed)
	}
	s.Blob = c.Bytes(int(cb))
	return s, nil
}
