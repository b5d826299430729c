package scan

import (
	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/store"
)

// ChainReport compares what the header's linked lists reach with what the
// scan recovered. It is diagnostic only; recovery never depends on it.
type ChainReport struct {
	DeclaredContacts  uint32 `json:"declared_contacts"`
	ChainContacts     int    `json:"chain_contacts"`
	RecoveredContacts int    `json:"recovered_contacts"`
	ChainModules      int    `json:"chain_modules"`
	RecoveredModules  int    `json:"recovered_modules"`
	UserResolved      bool   `json:"user_resolved"`
	// ContactChainBreak is the first contact link that did not resolve, or 0
	// when the chain ended on a zero link.
	ContactChainBreak uint32 `json:"contact_chain_break,omitempty"`
	ModuleChainBreak  uint32 `json:"module_chain_break,omitempty"`
}

// Intact reports whether the header chains reach every recovered record.
func (r ChainReport) Intact() bool {
	return r.ContactChainBreak == 0 && r.ModuleChainBreak == 0 &&
		r.ChainContacts == r.RecoveredContacts && r.ChainModules == r.RecoveredModules
}

// CheckChains follows the header's contact and module-name chains through st.
func CheckChains(h format.Header, st *store.Store) ChainReport {
	r := ChainReport{
		DeclaredContacts:  h.ContactCount,
		RecoveredContacts: len(st.Contacts),
		RecoveredModules:  len(st.Modules),
	}
	_, r.UserResolved = st.Contact(h.UserOffset)

	r.ChainContacts, r.ContactChainBreak = walk(h.FirstContactOffset, func(off uint32) (uint32, bool) {
		c, ok := st.Contact(off)
		return c.NextOffset, ok
	})
	r.ChainModules, r.ModuleChainBreak = walk(h.FirstModuleOffset, func(off uint32) (uint32, bool) {
		m, ok := st.Module(off)
		return m.NextOffset, ok
	})
	return r
}

// walk follows next from start until a zero link, an unresolved link or a
// revisited offset, and returns the number of members reached and the
// offending link when the chain did not end on zero.
func walk(start uint32, next func(uint32) (uint32, bool)) (int, uint32) {
	seen := make(map[uint32]struct{})
	n := 0
	for off := start; off != 0; {
		if _, dup := seen[off]; dup {
			return n, off
		}
		seen[off] = struct{}{}
		nxt, ok := next(off)
		if !ok {
			return n, off
		}
		n++
		off = nxt
	}
	return n, 0
}
