package project

import "strings"

// Protocol names the settings that identify a user of one legacy protocol.
type Protocol struct {
	// Prefix is matched against the upper-cased module name, so accounts
	// such as "JABBER_2" resolve to the JABBER entry.
	Prefix string
	// IDKey holds the user-facing identity (UIN, JID, e-mail...).
	IDKey string
	// NickKey holds the display name.
	NickKey string
	// Extra keys projected for ordinary contacts when present.
	Extra []string
}

// Protocols is the fixed set of protocols whose identity can be projected.
var Protocols = []Protocol{
	{Prefix: "JABBER", IDKey: "jid", NickKey: "nick"},
	{Prefix: "ICQ", IDKey: "uin", NickKey: "nick", Extra: []string{"firstname", "lastname"}},
	{Prefix: "MSN", IDKey: "e-mail", NickKey: "nick"},
	{Prefix: "AIM", IDKey: "sn", NickKey: "nick"},
	{Prefix: "GG", IDKey: "uin", NickKey: "nick"},
	{Prefix: "IRC", IDKey: "nick", NickKey: "nick"},
	{Prefix: "YAHOO", IDKey: "yahoo_id", NickKey: "nick"},
}

// LookupProtocol returns the table entry for a module name.
func LookupProtocol(module string) (Protocol, bool) {
	upper := strings.ToUpper(module)
	for _, p := range Protocols {
		if strings.HasPrefix(upper, p.Prefix) {
			return p, true
		}
	}
	return Protocol{}, false
}
