// Package scan rebuilds the record set of a database by brute force.
//
// Chain pointers in the header and in contacts can be stale, zeroed or point
// into slack space left behind by in-place deletions, so they are not trusted
// for discovery. Instead every byte offset is checked for one of the four
// record magics and a decode is attempted there. A record that fails its
// bounds checks is dropped without affecting the rest of the scan.
//
// A magic that happens to appear inside another record's payload produces a
// decode attempt as well. If its fields pass the bounds checks the resulting
// "ghost" record is kept; the format gives no way to tell it apart from a
// genuine one without speculative validation.
package scan

import (
	"math"

	"github.com/joshuapare/mdbkit/internal/buf"
	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/logger"
	"github.com/joshuapare/mdbkit/internal/store"
)

var maxOffset uint64 = math.MaxUint32

// Stats counts magic matches that failed to decode, per record kind.
type Stats struct {
	Failures store.Counts `json:"failures"`
}

// Scan inspects every offset of b and returns the records that decoded.
func Scan(b []byte) (*store.Store, Stats) {
	st := store.New()
	var stats Stats

	last := len(b) - format.SignatureSize
	if last > 0 && uint64(last) > maxOffset {
		// Offsets are DWORDs; nothing beyond 4 GiB can be referenced.
		last = int(maxOffset)
	}
	for p := 0; p <= last; p++ {
		magic, _ := buf.PeekDWord(b, p)
		switch magic {
		case format.ContactSignature:
			c, err := format.DecodeContact(b, p)
			if err != nil {
				stats.Failures.Contacts++
				logger.Debug("discarding contact", "offset", p, "error", err)
				continue
			}
			st.PutContact(c)
		case format.EventSignature:
			e, err := format.DecodeEvent(b, p)
			if err != nil {
				stats.Failures.Events++
				logger.Debug("discarding event", "offset", p, "error", err)
				continue
			}
			st.PutEvent(e)
		case format.ModuleNameSignature:
			m, err := format.DecodeModuleName(b, p)
			if err != nil {
				stats.Failures.Modules++
				logger.Debug("discarding module name", "offset", p, "error", err)
				continue
			}
			st.PutModule(m)
		case format.ContactSettingsSignature:
			cs, err := format.DecodeContactSettings(b, p)
			if err != nil {
				stats.Failures.Settings++
				logger.Debug("discarding contact settings", "offset", p, "error", err)
				continue
			}
			st.PutSettings(cs)
		}
	}
	return st, stats
}
