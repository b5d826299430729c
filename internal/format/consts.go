// Package format houses low-level decoders for the Miranda IM profile
// database. The database is a flat little-endian buffer: a fixed header
// followed by records that reference each other by absolute byte offset.
// Decoders here are pure functions over the whole buffer; they never follow
// links themselves, that is left to the store and the settings walker.
package format

// HeaderSignature is the 16-byte magic at the start of every database:
// "Miranda ICQ DB" followed by a zero byte and a 0x1A marker.
var HeaderSignature = []byte{
	'M', 'i', 'r', 'a', 'n', 'd', 'a', ' ', 'I', 'C', 'Q', ' ', 'D', 'B', 0x00, 0x1A,
}

// Record magics. Each record starts with one of these as a little-endian DWORD.
const (
	ContactSignature         uint32 = 0x43DECADE
	ModuleNameSignature      uint32 = 0x4DDECADE
	ContactSettingsSignature uint32 = 0x53DECADE
	EventSignature           uint32 = 0x45DECADE
)

// HeaderVersion is the version written by Miranda 0.x profiles. It is
// informational only; decoding does not depend on it.
const HeaderVersion uint32 = 0x00000700

const (
	// SignatureSize is the size of a record magic.
	SignatureSize = 4

	// HeaderSignatureSize is the size of the database signature.
	HeaderSignatureSize = 16

	// HeaderSize is the full header: signature plus seven DWORD fields.
	//
	//	Offset  Size  Field
	//	0x00    16    Signature
	//	0x10    4     Version
	//	0x14    4     ofsFileEnd
	//	0x18    4     slackSpace
	//	0x1C    4     contactCount
	//	0x20    4     ofsFirstContact
	//	0x24    4     ofsUser
	//	0x28    4     ofsFirstModuleName
	HeaderSize = HeaderSignatureSize + 7*4

	// ContactSize is the fixed size of a contact record.
	//
	//	Offset  Size  Field
	//	0x00    4     Signature
	//	0x04    4     ofsNext
	//	0x08    4     ofsFirstSettings
	//	0x0C    4     eventCount
	//	0x10    4     ofsFirstEvent
	//	0x14    4     ofsLastEvent
	//	0x18    4     ofsFirstUnreadEvent
	//	0x1C    4     timestampFirstUnread
	ContactSize = 8 * 4

	// EventFixedSize is the event prefix preceding the blob.
	//
	//	Offset  Size  Field
	//	0x00    4     Signature
	//	0x04    4     ofsPrev
	//	0x08    4     ofsNext
	//	0x0C    4     ofsModuleName
	//	0x10    4     timestamp
	//	0x14    4     flags
	//	0x18    2     eventType
	//	0x1A    4     cbBlob
	//	0x1E    n     blob
	EventFixedSize = 6*4 + 2 + 4

	// ModuleNameFixedSize is the module-name prefix preceding the name.
	//
	//	Offset  Size  Field
	//	0x00    4     Signature
	//	0x04    4     ofsNext
	//	0x08    1     cbName
	//	0x09    n     name (not terminated)
	ModuleNameFixedSize = 2*4 + 1

	// ContactSettingsFixedSize is the settings prefix preceding the blob.
	//
	//	Offset  Size  Field
	//	0x00    4     Signature
	//	0x04    4     ofsNext
	//	0x08    4     ofsModuleName
	//	0x0C    4     cbBlob
	//	0x10    n     blob
	ContactSettingsFixedSize = 4 * 4
)

// Event flag bits.
const (
	EventFlagFirst uint32 = 0x01
	EventFlagSent  uint32 = 0x02
	EventFlagRead  uint32 = 0x04
	EventFlagRTL   uint32 = 0x08
	EventFlagUTF   uint32 = 0x10
)

// Event type codes that carry conversation text.
const (
	EventTypeMessage uint16 = 0
	// EventTypeURL is the legacy URL event; old profiles store plain message
	// text in it, so it is projected the same way as a message.
	EventTypeURL uint16 = 1
)

// VariantType is the one-byte tag in front of every settings value.
type VariantType uint8

// Variant tags as stored in settings blobs.
const (
	VariantDeleted VariantType = 0
	VariantByte    VariantType = 1
	VariantWord    VariantType = 2
	VariantDWord   VariantType = 4
	VariantWChar   VariantType = 252
	VariantUTF8    VariantType = 253
	VariantBlob    VariantType = 254
	VariantASCIIZ  VariantType = 255
)

func (t VariantType) String() string {
	switch t {
	case VariantDeleted:
		return "deleted"
	case VariantByte:
		return "byte"
	case VariantWord:
		return "word"
	case VariantDWord:
		return "dword"
	case VariantWChar:
		return "wchar"
	case VariantUTF8:
		return "utf8"
	case VariantBlob:
		return "blob"
	case VariantASCIIZ:
		return "asciiz"
	default:
		return "unknown"
	}
}
