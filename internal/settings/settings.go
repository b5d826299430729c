// Package settings resolves a contact's settings chain and decodes the
// key/value blobs it holds into per-module maps.
package settings

import (
	"strings"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/mdbkit/internal/buf"
	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/logger"
	"github.com/joshuapare/mdbkit/internal/store"
)

// Values maps lower-cased setting keys to their decoded values.
type Values map[string]format.Value

// Protocols maps module names, as stored, to the settings of that module.
type Protocols map[string]Values

// Decoder walks settings chains through a store.
type Decoder struct {
	Store *store.Store
	// Legacy decodes ASCIIZ values. nil selects format.DefaultCodepage.
	Legacy encoding.Encoding
}

// ForContact collects all settings reachable from c.FirstSettingsOffset.
//
// The walk stops at a zero link, a link the store cannot resolve or an offset
// already visited. A settings record whose module name cannot be resolved is
// skipped but the walk continues past it. When several records share a module,
// later values overwrite earlier ones key by key.
func (d *Decoder) ForContact(c format.Contact) Protocols {
	out := make(Protocols)
	seen := make(map[uint32]struct{})
	for off := c.FirstSettingsOffset; off != 0; {
		if _, dup := seen[off]; dup {
			logger.Debug("settings chain loops", "contact", c.Offset, "offset", off)
			break
		}
		seen[off] = struct{}{}

		cs, ok := d.Store.SettingsAt(off)
		if !ok {
			logger.Debug("settings chain broken", "contact", c.Offset, "offset", off)
			break
		}
		off = cs.NextOffset

		mod, ok := d.Store.Module(cs.ModuleOffset)
		if !ok {
			logger.Debug("settings module unresolved", "contact", c.Offset,
				"settings", cs.Offset, "module", cs.ModuleOffset)
			continue
		}
		vals := out[mod.Name]
		if vals == nil {
			vals = make(Values)
			out[mod.Name] = vals
		}
		if err := ParseBlob(cs.Blob, d.Legacy, vals); err != nil {
			logger.Debug("settings blob truncated", "contact", c.Offset,
				"settings", cs.Offset, "error", err)
		}
	}
	return out
}

// ParseBlob decodes a settings blob into dst. Each entry is a BYTE key length,
// the key bytes and one variant; an empty key ends the blob. Null values are
// not stored. Entries decoded before a truncated key or value are kept and the
// error is returned.
func ParseBlob(blob []byte, legacy encoding.Encoding, dst Values) error {
	c := buf.NewCursor(blob, 0)
	for {
		if c.Remaining() < 1 {
			return nil
		}
		n := int(c.Byte())
		if n == 0 {
			return nil
		}
		if n > c.Remaining() {
			return format.ErrMalformed
		}
		key := c.Bytes(n)
		v, err := format.DecodeVariant(c, legacy)
		if err != nil {
			return err
		}
		if v.IsNull() {
			continue
		}
		dst[lowerLatin1(key)] = v
	}
}

// lowerLatin1 lower-cases a key whose bytes are Latin-1 code points.
func lowerLatin1(key []byte) string {
	r := make([]rune, len(key))
	for i, b := range key {
		r[i] = rune(b)
	}
	return strings.ToLower(string(r))
}
