// Package miranda recovers contacts, account identities and message history
// from Miranda IM profile databases, including damaged ones.
//
// # Recovery model
//
// The database is scanned byte by byte for record signatures rather than by
// following its linked lists, so records remain reachable when the header or
// contact chains are stale. Records whose declared lengths do not fit in the
// file are dropped individually. Only a missing or foreign header is fatal.
//
// # Usage
//
//	res, err := miranda.RecoverFile("profile.dat", "profile.json", miranda.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Counts.Contacts, "contacts recovered")
package miranda

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/joshuapare/mdbkit/internal/format"
	"github.com/joshuapare/mdbkit/internal/logger"
	"github.com/joshuapare/mdbkit/internal/mmfile"
	"github.com/joshuapare/mdbkit/internal/project"
	"github.com/joshuapare/mdbkit/internal/scan"
	"github.com/joshuapare/mdbkit/internal/store"
	"github.com/joshuapare/mdbkit/internal/writer"
)

// Document types re-exported from the projector.
type (
	Document = project.Document
	Accounts = project.Accounts
	Identity = project.Identity
	Contact  = project.Contact
	Event    = project.Event
)

// RecordCounts holds per-kind record counts.
type RecordCounts = store.Counts

// ChainReport compares the header's linked lists with the scan result.
type ChainReport = scan.ChainReport

var (
	// ErrTooSmall indicates the input cannot even hold a database header.
	ErrTooSmall = errors.New("miranda: input smaller than database header")
	// ErrNotDatabase indicates the header signature is not a Miranda database.
	ErrNotDatabase = errors.New("miranda: not a Miranda database")
)

// Format selects the output encoding.
type Format string

// FormatJSON is the structured JSON document, and the only format.
const FormatJSON Format = "json"

// ParseFormat validates a format name. The empty string selects FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: %s)", s, FormatJSON)
	}
}

// Codepage resolves an IANA charset name such as "windows-1251" to a decoder
// for legacy ASCIIZ strings.
func Codepage(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("codepage %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("codepage %q: not supported", name)
	}
	return enc, nil
}

// Options configures recovery and output.
type Options struct {
	// Codepage decodes legacy 8-bit strings. nil selects Windows-1252.
	Codepage encoding.Encoding
	// Format of the encoded output. The zero value selects FormatJSON.
	Format Format
	// Compact disables indentation of the JSON output.
	Compact bool
}

// Result describes one recovery run.
type Result struct {
	Document *Document     `json:"-"`
	Header   format.Header `json:"-"`

	Counts   RecordCounts `json:"counts"`
	Failures RecordCounts `json:"failures"`
	Chains   ChainReport  `json:"chains"`

	// InputSize is the size of the file as stored; DecodedSize differs from
	// it when the input was compressed.
	InputSize   int64  `json:"input_size"`
	Compressed  bool   `json:"compressed"`
	DecodedSize int    `json:"decoded_size"`
	OutputSize  int    `json:"output_size"`
	Digest      string `json:"blake3"`
}

// Recover decodes a whole database image held in memory.
func Recover(data []byte, opts Options) (*Result, error) {
	h, err := format.DecodeHeader(data)
	switch {
	case errors.Is(err, format.ErrTruncated):
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooSmall, len(data))
	case errors.Is(err, format.ErrSignatureMismatch):
		return nil, ErrNotDatabase
	case err != nil:
		return nil, err
	}

	st, stats := scan.Scan(data)
	counts := st.Counts()
	logger.Info("scan complete",
		"contacts", counts.Contacts,
		"events", counts.Events,
		"modules", counts.Modules,
		"settings", counts.Settings)
	if f := stats.Failures; f != (RecordCounts{}) {
		logger.Info("discarded malformed records",
			"contacts", f.Contacts,
			"events", f.Events,
			"modules", f.Modules,
			"settings", f.Settings)
	}

	chains := scan.CheckChains(h, st)
	if !chains.Intact() {
		logger.Warn("header chains do not cover recovered records",
			"declared_contacts", chains.DeclaredContacts,
			"chain_contacts", chains.ChainContacts,
			"recovered_contacts", chains.RecoveredContacts,
			"chain_modules", chains.ChainModules,
			"recovered_modules", chains.RecoveredModules)
	}
	if !chains.UserResolved {
		logger.Warn("owner contact not recovered", "offset", h.UserOffset)
	}

	doc := project.New(st, opts.Codepage).Build(h.UserOffset)
	sum := blake3.Sum256(data)
	return &Result{
		Document:    doc,
		Header:      h,
		Counts:      counts,
		Failures:    stats.Failures,
		Chains:      chains,
		DecodedSize: len(data),
		Digest:      hex.EncodeToString(sum[:]),
	}, nil
}

// Encode serializes doc in the format selected by opts.
func Encode(doc *Document, opts Options) ([]byte, error) {
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if !opts.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out.Bytes(), nil
}

// Sink receives the encoded document.
type Sink interface {
	WriteDocument(buf []byte) error
}

// Export recovers data and hands the encoded document to sink. Nothing is
// written when recovery or encoding fails.
func Export(data []byte, sink Sink, opts Options) (*Result, error) {
	res, err := Recover(data, opts)
	if err != nil {
		return nil, err
	}
	out, err := Encode(res.Document, opts)
	if err != nil {
		return nil, err
	}
	if err := sink.WriteDocument(out); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	res.OutputSize = len(out)
	return res, nil
}

// Inspect recovers the database at inPath without writing anything.
func Inspect(inPath string, opts Options) (*Result, error) {
	im, err := mmfile.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer im.Close()

	res, err := Recover(im.Data, opts)
	if err != nil {
		return nil, err
	}
	res.InputSize, res.Compressed = im.Size, im.Compressed
	return res, nil
}

// RecoverFile recovers the database at inPath (plain or xz-compressed) and
// writes the document to outPath atomically.
func RecoverFile(inPath, outPath string, opts Options) (*Result, error) {
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	im, err := mmfile.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer im.Close()

	res, err := Export(im.Data, &writer.FileWriter{Path: outPath}, opts)
	if err != nil {
		return nil, err
	}
	res.InputSize, res.Compressed = im.Size, im.Compressed
	return res, nil
}
