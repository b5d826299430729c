// Package store holds the records recovered from a database, keyed by the
// byte offset each record was found at. Offsets stored in records are looked
// up here instead of being dereferenced, so a dangling or zero link is just a
// missing key.
package store

import (
	"maps"
	"slices"

	"github.com/joshuapare/mdbkit/internal/format"
)

// Store maps record offsets to decoded records, one map per record kind.
type Store struct {
	Contacts map[uint32]format.Contact
	Events   map[uint32]format.Event
	Modules  map[uint32]format.ModuleName
	Settings map[uint32]format.ContactSettings
}

// New returns an empty store.
func New() *Store {
	return &Store{
		Contacts: make(map[uint32]format.Contact),
		Events:   make(map[uint32]format.Event),
		Modules:  make(map[uint32]format.ModuleName),
		Settings: make(map[uint32]format.ContactSettings),
	}
}

// PutContact stores c under its own offset, replacing any previous record.
func (s *Store) PutContact(c format.Contact) { s.Contacts[c.Offset] = c }

// PutEvent stores e under its own offset, replacing any previous record.
func (s *Store) PutEvent(e format.Event) { s.Events[e.Offset] = e }

// PutModule stores m under its own offset, replacing any previous record.
func (s *Store) PutModule(m format.ModuleName) { s.Modules[m.Offset] = m }

// PutSettings stores cs under its own offset, replacing any previous record.
func (s *Store) PutSettings(cs format.ContactSettings) { s.Settings[cs.Offset] = cs }

// Contact looks up the contact at off. Offset zero is never a record.
func (s *Store) Contact(off uint32) (format.Contact, bool) {
	if off == 0 {
		return format.Contact{}, false
	}
	c, ok := s.Contacts[off]
	return c, ok
}

// Event looks up the event at off.
func (s *Store) Event(off uint32) (format.Event, bool) {
	if off == 0 {
		return format.Event{}, false
	}
	e, ok := s.Events[off]
	return e, ok
}

// Module looks up the module name at off.
func (s *Store) Module(off uint32) (format.ModuleName, bool) {
	if off == 0 {
		return format.ModuleName{}, false
	}
	m, ok := s.Modules[off]
	return m, ok
}

// ModuleName returns the name of the module at off, or "" when unresolved.
func (s *Store) ModuleName(off uint32) string {
	m, _ := s.Module(off)
	return m.Name
}

// SettingsAt looks up the settings record at off.
func (s *Store) SettingsAt(off uint32) (format.ContactSettings, bool) {
	if off == 0 {
		return format.ContactSettings{}, false
	}
	cs, ok := s.Settings[off]
	return cs, ok
}

// ContactIDs returns contact offsets in ascending order.
func (s *Store) ContactIDs() []uint32 { return slices.Sorted(maps.Keys(s.Contacts)) }

// EventIDs returns event offsets in ascending order.
func (s *Store) EventIDs() []uint32 { return slices.Sorted(maps.Keys(s.Events)) }

// Counts summarizes how many records of each kind the store holds.
type Counts struct {
	Contacts int `json:"contacts"`
	Events   int `json:"events"`
	Modules  int `json:"modules"`
	Settings int `json:"settings"`
}

// Counts returns the number of records per kind.
func (s *Store) Counts() Counts {
	return Counts{
		Contacts: len(s.Contacts),
		Events:   len(s.Events),
		Modules:  len(s.Modules),
		Settings: len(s.Settings),
	}
}
