package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/testutil/dbtest"
)

// writeTestDB writes a small database with an ICQ owner, one friend and
// one message, and returns its path.
func writeTestDB(t *testing.T) string {
	t.Helper()
	b := dbtest.New()
	icq := b.Module("ICQ")
	selfSettings := b.Settings(0, icq, dbtest.DWord("uin", 123456))
	self := b.Contact(format.Contact{FirstSettingsOffset: selfSettings})
	friendSettings := b.Settings(0, icq, dbtest.DWord("uin", 42), dbtest.UTF8("Nick", "Bob"))
	ev := b.Event(format.Event{ModuleOffset: icq, Timestamp: 1000, Blob: []byte("hello\x00")})
	friend := b.Contact(format.Contact{FirstSettingsOffset: friendSettings})
	b.SetContactEvents(friend, ev)
	b.SetUser(self)

	path := filepath.Join(t.TempDir(), "profile.dat")
	if err := os.WriteFile(path, b.Bytes(), 0o600); err != nil {
		t.Fatalf("write test database: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
	return result
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
