package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/scan"
	"github.com/joshuapare/mdbkit/internal/testutil/dbtest"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A\x01B\tC\nD\rE", "A B\tC\nD\rE"},
		{"\x1f\x0b\x0c", "   "},
		{"\x00kept", "\x00kept"},
		{"привет\x07", "привет "},
		{"", ""},
	}
	for _, tt := range tests {
		got := Sanitize(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, len(tt.in), len(got))
	}
}

func TestEventText(t *testing.T) {
	legacy := format.Event{Blob: []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2, 0x00, 'x', 'y'}}
	require.Equal(t, "Привет", EventText(legacy, charmap.Windows1251))

	utf := format.Event{Flags: format.EventFlagUTF, Blob: []byte("line\x02two")}
	require.Equal(t, "line two", EventText(utf, nil))

	ebcdic := format.Event{Blob: []byte{0x48, 0x49, 0x00}}
	require.Equal(t, "çñ", EventText(ebcdic, charmap.CodePage037))

	noTerm := format.Event{Blob: []byte("plain\x01")}
	require.Equal(t, "plain ", EventText(noTerm, nil))
}

func TestLookupProtocol(t *testing.T) {
	tests := []struct {
		module string
		idKey  string
		ok     bool
	}{
		{"ICQ", "uin", true},
		{"JABBER_work", "jid", true},
		{"jabber", "jid", true},
		{"MSN", "e-mail", true},
		{"AIM", "sn", true},
		{"GG", "uin", true},
		{"IRC", "nick", true},
		{"YAHOO", "yahoo_id", true},
		{"CList", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		p, ok := LookupProtocol(tt.module)
		assert.Equal(t, tt.ok, ok, tt.module)
		assert.Equal(t, tt.idKey, p.IDKey, tt.module)
	}
}

type fixture struct {
	data                []byte
	self, friend, plain uint32
	msgIn, msgOut, file uint32
}

func buildFixture(t *testing.T) fixture {
	t.Helper()
	b := dbtest.New()
	icq := b.Module("ICQ")
	jabber := b.Module("JABBER")
	clist := b.Module("CList")

	selfJ := b.Settings(0, jabber, dbtest.UTF8("jid", "me@example.org"), dbtest.UTF8("Password", "x"))
	selfI := b.Settings(selfJ, icq, dbtest.DWord("UIN", 123456), dbtest.UTF8("Nick", "me"))
	self := b.Contact(format.Contact{FirstSettingsOffset: selfI})

	frC := b.Settings(0, clist, dbtest.UTF8("MyHandle", "Bob"))
	frI := b.Settings(frC, icq,
		dbtest.DWord("UIN", 654321),
		dbtest.ASCIIZ("Nick", []byte("bobby")),
		dbtest.UTF8("FirstName", "Bob"),
	)

	in := b.Event(format.Event{ModuleOffset: icq, Timestamp: 100, Blob: []byte("hi\x00")})
	out := b.Event(format.Event{ModuleOffset: icq, Timestamp: 200, Flags: format.EventFlagSent | format.EventFlagUTF, Blob: []byte("héllo")})
	file := b.Event(format.Event{ModuleOffset: icq, Timestamp: 300, Type: 1002, Blob: []byte("f.txt\x00")})
	b.LinkEvents(in, out, file)

	friend := b.Contact(format.Contact{FirstSettingsOffset: frI, FirstUnreadTimestamp: 150})
	b.SetContactEvents(friend, in, out, file)
	plain := b.Contact(format.Contact{})
	b.SetUser(self)

	return fixture{data: b.Bytes(), self: self, friend: friend, plain: plain, msgIn: in, msgOut: out, file: file}
}

func TestBuildDocument(t *testing.T) {
	fx := buildFixture(t)
	st, _ := scan.Scan(fx.data)
	doc := New(st, nil).Build(fx.self)

	require.Equal(t, Accounts{
		"id":     fx.self,
		"icq":    Identity{"uin": uint32(123456)},
		"jabber": Identity{"jid": "me@example.org"},
	}, doc.Accounts)

	require.Len(t, doc.Contacts, 3)
	owner := doc.Contacts[0]
	require.Equal(t, fx.self, owner.ID)
	require.Equal(t, map[string]Identity{
		"icq":    {"uin": uint32(123456), "nick": "me"},
		"jabber": {"jid": "me@example.org", "nick": nil},
	}, owner.Settings)

	friend := doc.Contacts[1]
	require.Equal(t, fx.friend, friend.ID)
	require.Equal(t, map[string]Identity{
		"icq": {"uin": uint32(654321), "nick": "bobby", "firstname": "Bob"},
	}, friend.Settings)
	require.Equal(t, fx.msgIn, friend.FirstEvent)
	require.Equal(t, fx.file, friend.LastEvent)
	require.Equal(t, uint32(3), friend.EventCount)
	require.Equal(t, uint32(150), friend.FirstUnreadTimestamp)

	plain := doc.Contacts[2]
	require.Equal(t, fx.plain, plain.ID)
	require.Empty(t, plain.Settings)

	require.Equal(t, []Event{
		{ID: fx.msgIn, Incoming: true, Next: fx.msgOut, Module: "ICQ", Timestamp: 100, Text: "hi"},
		{ID: fx.msgOut, Incoming: false, Prev: fx.msgIn, Next: fx.file, Module: "ICQ", Timestamp: 200, Text: "héllo"},
	}, doc.Events)
}

func TestBuildNickAlwaysPresent(t *testing.T) {
	b := dbtest.New()
	jabber := b.Module("JABBER")
	s := b.Settings(0, jabber, dbtest.UTF8("jid", "bob@example.org"))
	c := b.Contact(format.Contact{FirstSettingsOffset: s})
	st, _ := scan.Scan(b.Bytes())

	doc := New(st, nil).Build(0)
	require.Len(t, doc.Contacts, 1)
	require.Equal(t, c, doc.Contacts[0].ID)
	require.Equal(t, Identity{"jid": "bob@example.org", "nick": nil}, doc.Contacts[0].Settings["jabber"])

	raw, err := json.Marshal(doc.Contacts[0].Settings)
	require.NoError(t, err)
	require.JSONEq(t, `{"jabber":{"jid":"bob@example.org","nick":null}}`, string(raw))
}

func TestBuildWithoutSelf(t *testing.T) {
	b := dbtest.New()
	b.Contact(format.Contact{})
	b.SetUser(0xABCD)
	st, _ := scan.Scan(b.Bytes())

	doc := New(st, nil).Build(0xABCD)
	require.Empty(t, doc.Accounts)
	require.Len(t, doc.Contacts, 1)
	require.NotNil(t, doc.Events)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"accounts":{}`)
	require.Contains(t, string(raw), `"events":[]`)
}

func TestBuildUnresolvedEventModule(t *testing.T) {
	b := dbtest.New()
	b.Event(format.Event{ModuleOffset: 0x7777, Type: format.EventTypeURL, Blob: []byte("u")})
	st, _ := scan.Scan(b.Bytes())

	doc := New(st, nil).Build(0)
	require.Len(t, doc.Events, 1)
	require.Equal(t, "", doc.Events[0].Module)
	require.Equal(t, "u", doc.Events[0].Text)
	require.True(t, doc.Events[0].Incoming)
}

func TestBuildAccountsSkipMissingIdentity(t *testing.T) {
	b := dbtest.New()
	icq := b.Module("ICQ")
	jabber := b.Module("JABBER")
	sj := b.Settings(0, jabber, dbtest.UTF8("jid", "me@example.org"))
	si := b.Settings(sj, icq, dbtest.UTF8("Nick", "me"))
	self := b.Contact(format.Contact{FirstSettingsOffset: si})
	b.SetUser(self)
	st, _ := scan.Scan(b.Bytes())

	doc := New(st, nil).Build(self)
	require.Equal(t, Accounts{
		"id":     self,
		"jabber": Identity{"jid": "me@example.org"},
	}, doc.Accounts)

	// The owner's contact entry still carries the protocol.
	require.Len(t, doc.Contacts, 1)
	require.Equal(t, Identity{"uin": nil, "nick": "me"}, doc.Contacts[0].Settings["icq"])
}

func TestBuildMergesModulesDifferingInCase(t *testing.T) {
	b := dbtest.New()
	upper := b.Module("ICQ")
	lower := b.Module("icq")
	sl := b.Settings(0, lower, dbtest.UTF8("Nick", "bob"))
	su := b.Settings(sl, upper, dbtest.DWord("UIN", 42))
	c := b.Contact(format.Contact{FirstSettingsOffset: su})
	b.SetUser(c)
	st, _ := scan.Scan(b.Bytes())

	doc := New(st, nil).Build(c)
	require.Equal(t, Identity{"uin": uint32(42)}, doc.Accounts["icq"])
	require.Len(t, doc.Contacts, 1)
	require.Equal(t, map[string]Identity{
		"icq": {"uin": uint32(42), "nick": "bob"},
	}, doc.Contacts[0].Settings)
}
