package format

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/mdbkit/internal/buf"
)

// DefaultCodepage decodes legacy ASCIIZ strings when no codepage is injected.
var DefaultCodepage encoding.Encoding = charmap.Windows1252

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Value is a decoded settings value. The zero Value is null.
type Value struct {
	Type VariantType
	// Num holds BYTE, WORD and DWORD payloads.
	Num uint32
	// Str holds ASCIIZ, UTF8 and WCHAR payloads, already converted to UTF-8.
	Str string
	// Raw holds BLOB payloads. It is a copy, not a view into the database.
	Raw []byte
}

// IsNull reports whether the value is absent (deleted or unknown tag).
func (v Value) IsNull() bool { return v.Type == VariantDeleted }

// Interface returns the value as its native Go type: uint8, uint16, uint32,
// string or []byte. Null values return nil.
func (v Value) Interface() any {
	if v.IsNull() {
		return nil
	}
	switch v.Type {
	case VariantByte:
		return uint8(v.Num)
	case VariantWord:
		return uint16(v.Num)
	case VariantDWord:
		return v.Num
	case VariantASCIIZ, VariantUTF8, VariantWChar:
		return v.Str
	case VariantBlob:
		return v.Raw
	default:
		return nil
	}
}

func (v Value) String() string {
	switch x := v.Interface().(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return fmt.Sprintf("%x", x)
	default:
		return fmt.Sprintf("%d", x)
	}
}

// DecodeVariant reads one type tag and its payload from c. Deleted and unknown
// tags return a null value and consume only the tag. legacy decodes ASCIIZ
// payloads; nil selects DefaultCodepage.
//
// ErrMalformed is returned when the payload would run past the end of the
// cursor's buffer; the cursor position is then unspecified.
func DecodeVariant(c *buf.Cursor, legacy encoding.Encoding) (Value, error) {
	if c.Remaining() < 1 {
		return Value{}, fmt.Errorf("variant tag: %w", ErrTruncated)
	}
	t := VariantType(c.Byte())
	switch t {
	case VariantByte:
		if c.Remaining() < 1 {
			return Value{}, fmt.Errorf("variant byte: %w", ErrTruncated)
		}
		return Value{Type: t, Num: uint32(c.Byte())}, nil
	case VariantWord:
		if c.Remaining() < 2 {
			return Value{}, fmt.Errorf("variant word: %w", ErrTruncated)
		}
		return Value{Type: t, Num: uint32(c.Word())}, nil
	case VariantDWord:
		if c.Remaining() < 4 {
			return Value{}, fmt.Errorf("variant dword: %w", ErrTruncated)
		}
		return Value{Type: t, Num: c.DWord()}, nil
	case VariantASCIIZ:
		raw, err := lengthPrefixed(c, 1, t)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Str: DecodeLegacy(raw, legacy)}, nil
	case VariantUTF8:
		raw, err := lengthPrefixed(c, 1, t)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Str: DecodeUTF8(raw)}, nil
	case VariantWChar:
		raw, err := lengthPrefixed(c, 2, t)
		if err != nil {
			return Value{}, err
		}
		s, err := utf16LE.NewDecoder().Bytes(raw)
		if err != nil {
			return Value{}, fmt.Errorf("variant wchar: %w", err)
		}
		return Value{Type: t, Str: string(s)}, nil
	case VariantBlob:
		raw, err := lengthPrefixed(c, 1, t)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Raw: bytes.Clone(raw)}, nil
	default:
		// VariantDeleted and tags this decoder does not know.
		return Value{}, nil
	}
}

// lengthPrefixed reads a WORD count of unit-sized elements and returns the
// payload bytes.
func lengthPrefixed(c *buf.Cursor, unit int, t VariantType) ([]byte, error) {
	if c.Remaining() < 2 {
		return nil, fmt.Errorf("variant %s length: %w", t, ErrTruncated)
	}
	n := int(c.Word()) * unit
	if n > c.Remaining() {
		return nil, fmt.Errorf("variant %s payload of %d bytes: %w", t, n, ErrMalformed)
	}
	return c.Bytes(n), nil
}

// DecodeLegacy converts codepage bytes to UTF-8. Bytes the codepage cannot map
// become U+FFFD.
func DecodeLegacy(raw []byte, legacy encoding.Encoding) string {
	if legacy == nil {
		legacy = DefaultCodepage
	}
	out, err := legacy.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return string(out)
}

// DecodeUTF8 converts raw UTF-8 bytes to a string, replacing invalid
// sequences with U+FFFD.
func DecodeUTF8(raw []byte) string {
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
