package scan

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/testutil/dbtest"
)

func sampleDB(t *testing.T) ([]byte, map[string]uint32) {
	t.Helper()
	b := dbtest.New()
	icq := b.Module("ICQ")
	jabber := b.Module("JABBER")
	s2 := b.Settings(0, jabber, dbtest.UTF8("jid", "me@example.org"))
	s1 := b.Settings(s2, icq, dbtest.DWord("uin", 123456))
	self := b.Contact(format.Contact{FirstSettingsOffset: s1})
	e1 := b.Event(format.Event{ModuleOffset: icq, Timestamp: 10, Blob: []byte("hi\x00")})
	e2 := b.Event(format.Event{ModuleOffset: icq, Timestamp: 20, Flags: format.EventFlagUTF, Blob: []byte("yo")})
	b.LinkEvents(e1, e2)
	other := b.Contact(format.Contact{})
	b.SetContactEvents(other, e1, e2)
	b.SetUser(self)
	return b.Bytes(), map[string]uint32{
		"icq": icq, "jabber": jabber, "s1": s1, "s2": s2,
		"self": self, "other": other, "e1": e1, "e2": e2,
	}
}

func TestScanFindsAllRecords(t *testing.T) {
	data, offs := sampleDB(t)
	st, stats := Scan(data)

	require.Equal(t, 2, len(st.Contacts))
	require.Equal(t, 2, len(st.Events))
	require.Equal(t, 2, len(st.Modules))
	require.Equal(t, 2, len(st.Settings))
	require.Zero(t, stats.Failures)

	require.Equal(t, "ICQ", st.ModuleName(offs["icq"]))
	require.Equal(t, "JABBER", st.ModuleName(offs["jabber"]))
	c, ok := st.Contact(offs["other"])
	require.True(t, ok)
	require.Equal(t, offs["e1"], c.FirstEventOffset)
	require.Equal(t, offs["e2"], c.LastEventOffset)
	require.Equal(t, uint32(2), c.EventCount)

	e, ok := st.Event(offs["e2"])
	require.True(t, ok)
	require.Equal(t, offs["e1"], e.PrevOffset)
	require.Equal(t, []byte("yo"), e.Blob)
}

// Every record found by the scan must be identical to decoding the same
// offset directly.
func TestScanMatchesDirectDecode(t *testing.T) {
	data, _ := sampleDB(t)
	st, _ := Scan(data)

	for off, c := range st.Contacts {
		direct, err := format.DecodeContact(data, int(off))
		require.NoError(t, err)
		require.Equal(t, direct, c)
	}
	for off, e := range st.Events {
		direct, err := format.DecodeEvent(data, int(off))
		require.NoError(t, err)
		require.Equal(t, direct, e)
	}
	for off, m := range st.Modules {
		direct, err := format.DecodeModuleName(data, int(off))
		require.NoError(t, err)
		require.Equal(t, direct, m)
	}
	for off, s := range st.Settings {
		direct, err := format.DecodeContactSettings(data, int(off))
		require.NoError(t, err)
		require.Equal(t, direct, s)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	data, _ := sampleDB(t)
	a, _ := Scan(data)
	b, _ := Scan(data)
	require.Equal(t, a, b)
}

func TestScanDropsOnlyCorruptEvent(t *testing.T) {
	data, offs := sampleDB(t)
	// cbBlob sits 26 bytes into an event.
	binary.LittleEndian.PutUint32(data[offs["e1"]+26:], uint32(len(data)))

	st, stats := Scan(data)
	_, ok := st.Event(offs["e1"])
	require.False(t, ok, "corrupt event must be dropped")
	_, ok = st.Event(offs["e2"])
	require.True(t, ok, "sibling event must survive")
	require.Equal(t, 1, stats.Failures.Events)
	require.Equal(t, 2, len(st.Contacts))
	require.Equal(t, 2, len(st.Modules))
	require.Equal(t, 2, len(st.Settings))
}

func TestScanDropsCorruptSettingsAndModule(t *testing.T) {
	data, offs := sampleDB(t)
	binary.LittleEndian.PutUint32(data[offs["s2"]+12:], 0xFFFFFFF0)
	data[offs["jabber"]+8] = 0xFF

	st, stats := Scan(data)
	_, ok := st.SettingsAt(offs["s2"])
	require.False(t, ok)
	_, ok = st.SettingsAt(offs["s1"])
	require.True(t, ok)
	_, ok = st.Module(offs["jabber"])
	require.False(t, ok)
	require.Equal(t, 1, stats.Failures.Settings)
	require.Equal(t, 1, stats.Failures.Modules)
}

func TestScanTruncatedTail(t *testing.T) {
	data, offs := sampleDB(t)
	// Cut the last contact short: its magic is still present but the fixed
	// part no longer fits.
	cut := data[:offs["other"]+10]
	st, stats := Scan(cut)
	_, ok := st.Contact(offs["other"])
	require.False(t, ok)
	_, ok = st.Contact(offs["self"])
	require.True(t, ok)
	require.Equal(t, 1, stats.Failures.Contacts)
}

func TestScanTinyBuffers(t *testing.T) {
	for n := 0; n < 8; n++ {
		st, _ := Scan(make([]byte, n))
		require.Zero(t, st.Counts())
	}
	magicOnly := binary.LittleEndian.AppendUint32(nil, format.EventSignature)
	st, stats := Scan(magicOnly)
	require.Zero(t, st.Counts())
	require.Equal(t, 1, stats.Failures.Events)
}

func TestScanRecoversRecordsOutsideChains(t *testing.T) {
	b := dbtest.New()
	self := b.Contact(format.Contact{})
	b.SetUser(self)
	data := b.Bytes()
	// A contact the header chain knows nothing about, e.g. left in slack space.
	orphan := binary.LittleEndian.AppendUint32(nil, format.ContactSignature)
	orphan = append(orphan, make([]byte, format.ContactSize-4)...)
	orphanOff := uint32(len(data))
	data = append(data, orphan...)

	st, _ := Scan(data)
	_, ok := st.Contact(orphanOff)
	require.True(t, ok)

	h, err := format.DecodeHeader(data)
	require.NoError(t, err)
	report := CheckChains(h, st)
	require.Equal(t, 1, report.ChainContacts)
	require.Equal(t, 2, report.RecoveredContacts)
	require.False(t, report.Intact())
}

func TestCheckChainsIntact(t *testing.T) {
	data, _ := sampleDB(t)
	st, _ := Scan(data)
	h, err := format.DecodeHeader(data)
	require.NoError(t, err)

	report := CheckChains(h, st)
	require.True(t, report.UserResolved)
	require.Equal(t, uint32(2), report.DeclaredContacts)
	require.Equal(t, 2, report.ChainContacts)
	require.Equal(t, 2, report.ChainModules)
	require.True(t, report.Intact())
}

func TestCheckChainsBreakAndCycle(t *testing.T) {
	data, offs := sampleDB(t)
	// Point the second module's next link at a dangling offset and the
	// second contact's next link back at the first contact.
	binary.LittleEndian.PutUint32(data[offs["jabber"]+4:], 0xBEEF)
	binary.LittleEndian.PutUint32(data[offs["other"]+4:], offs["self"])

	st, _ := Scan(data)
	h, err := format.DecodeHeader(data)
	require.NoError(t, err)

	report := CheckChains(h, st)
	require.Equal(t, uint32(0xBEEF), report.ModuleChainBreak)
	require.Equal(t, 2, report.ChainModules)
	require.Equal(t, offs["self"], report.ContactChainBreak)
	require.Equal(t, 2, report.ChainContacts)
}
