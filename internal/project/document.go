// Package project assembles the output document from recovered records:
// account identities of the database owner, contacts with their per-protocol
// identities, and message events with decoded text.
package project

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/settings"
	"github.com/joshuapare/mdbkit/internal/store"
)

// Document is the recovered database. Key names are consumed by existing
// tooling and must stay stable.
type Document struct {
	Accounts Accounts  `json:"accounts"`
	Contacts []Contact `json:"contacts"`
	Events   []Event   `json:"events"`
}

// Accounts holds the owner's offset under "id" and one Identity per protocol,
// keyed by lower-cased module name.
type Accounts map[string]any

// Identity holds the projected settings of one protocol.
type Identity map[string]any

// Contact is one recovered contact, the owner included.
type Contact struct {
	ID                   uint32              `json:"id"`
	Settings             map[string]Identity `json:"settings"`
	FirstEvent           uint32              `json:"first_event"`
	LastEvent            uint32              `json:"last_event"`
	FirstUnreadEvent     uint32              `json:"first_unread_event"`
	FirstUnreadTimestamp uint32              `json:"first_unread_timestamp"`
	EventCount           uint32              `json:"event_count"`
}

// Event is a message event. Prev and Next are event ids (offsets) and may
// name events that were not recovered.
type Event struct {
	ID        uint32 `json:"id"`
	Incoming  bool   `json:"incoming"`
	Prev      uint32 `json:"prev"`
	Next      uint32 `json:"next"`
	Module    string `json:"module"`
	Timestamp uint32 `json:"timestamp"`
	Text      string `json:"text"`
}

// Projector builds a Document from a populated store.
type Projector struct {
	Store *store.Store
	// Legacy decodes non-UTF text. nil selects format.DefaultCodepage.
	Legacy encoding.Encoding

	settings *settings.Decoder
}

// New returns a projector over st.
func New(st *store.Store, legacy encoding.Encoding) *Projector {
	return &Projector{
		Store:    st,
		Legacy:   legacy,
		settings: &settings.Decoder{Store: st, Legacy: legacy},
	}
}

// Build projects the store. userOffset is the header's pointer to the owner
// contact.
func (p *Projector) Build(userOffset uint32) *Document {
	doc := &Document{
		Accounts: Accounts{},
		Contacts: []Contact{},
		Events:   []Event{},
	}

	if self, ok := p.Store.Contact(userOffset); ok {
		doc.Accounts = p.accounts(self)
	}
	for _, id := range p.Store.ContactIDs() {
		c := p.Store.Contacts[id]
		doc.Contacts = append(doc.Contacts, p.contact(c))
	}
	for _, id := range p.Store.EventIDs() {
		e := p.Store.Events[id]
		if !e.IsMessage() {
			continue
		}
		doc.Events = append(doc.Events, p.event(e))
	}
	return doc
}

func (p *Projector) accounts(self format.Contact) Accounts {
	acc := Accounts{"id": self.Offset}
	for _, pv := range p.protocols(self) {
		id := valueOf(pv.vals, pv.proto.IDKey)
		if id == nil {
			continue
		}
		acc[pv.key] = Identity{pv.proto.IDKey: id}
	}
	return acc
}

func (p *Projector) contact(c format.Contact) Contact {
	out := Contact{
		ID:                   c.Offset,
		Settings:             map[string]Identity{},
		FirstEvent:           c.FirstEventOffset,
		LastEvent:            c.LastEventOffset,
		FirstUnreadEvent:     c.FirstUnreadOffset,
		FirstUnreadTimestamp: c.FirstUnreadTimestamp,
		EventCount:           c.EventCount,
	}
	for _, pv := range p.protocols(c) {
		id := Identity{
			pv.proto.IDKey:   valueOf(pv.vals, pv.proto.IDKey),
			pv.proto.NickKey: valueOf(pv.vals, pv.proto.NickKey),
		}
		for _, k := range pv.proto.Extra {
			if v, ok := pv.vals[k]; ok {
				id[k] = v.Interface()
			}
		}
		out.Settings[pv.key] = id
	}
	return out
}

// protocolValues is the merged settings of every module of a contact that
// maps to one output key.
type protocolValues struct {
	key   string
	proto Protocol
	vals  settings.Values
}

// protocols resolves the identity-bearing modules of c. Module names that
// differ only in case share an output key; their settings are merged in
// sorted name order, later keys winning.
func (p *Projector) protocols(c format.Contact) []protocolValues {
	protos := p.settings.ForContact(c)
	merged := make(map[string]*protocolValues)
	var order []string
	for _, module := range sortedModules(protos) {
		proto, ok := LookupProtocol(module)
		if !ok {
			continue
		}
		key := strings.ToLower(module)
		pv := merged[key]
		if pv == nil {
			pv = &protocolValues{key: key, proto: proto, vals: settings.Values{}}
			merged[key] = pv
			order = append(order, key)
		}
		maps.Copy(pv.vals, protos[module])
	}
	out := make([]protocolValues, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

func (p *Projector) event(e format.Event) Event {
	return Event{
		ID:        e.Offset,
		Incoming:  !e.Sent(),
		Prev:      e.PrevOffset,
		Next:      e.NextOffset,
		Module:    p.Store.ModuleName(e.ModuleOffset),
		Timestamp: e.Timestamp,
		Text:      EventText(e, p.Legacy),
	}
}

// valueOf returns the native value for key, or nil when it is not set.
func valueOf(vals settings.Values, key string) any {
	v, ok := vals[key]
	if !ok {
		return nil
	}
	return v.Interface()
}

func sortedModules(p settings.Protocols) []string {
	return slices.Sorted(maps.Keys(p))
}
