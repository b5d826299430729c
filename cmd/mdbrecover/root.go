package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/mdbkit/internal/logger"
	"github.com/joshuapare/mdbkit/pkg/miranda"
)

type rootOptions struct {
	input    string
	output   string
	format   string
	codepage string
	verbose  bool
	debug    bool
	quiet    bool
	compact  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "mdbrecover -i <profile.dat> -o <output.json>",
		Short: "Recover a Miranda IM database into JSON",
		Long: `mdbrecover reads a Miranda IM profile database, recovers every contact,
account identity and message it can find, and writes them as a JSON document.

Records are located by scanning for their signatures, so damaged databases
with broken links still yield whatever survived. xz-compressed profiles are
decompressed transparently.

Example:
  mdbrecover -i miranda.dat -o miranda.json
  mdbrecover -i miranda.dat.xz -o miranda.json -v --codepage windows-1251`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Flags parsed fine; from here on errors are not usage problems.
			cmd.SilenceUsage = true
			return runRecover(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Input Miranda database")
	f.StringVarP(&opts.output, "output", "o", "", "Output JSON file")
	f.StringVarP(&opts.format, "format", "f", string(miranda.FormatJSON), "Output format (json)")
	f.StringVar(&opts.codepage, "codepage", "windows-1252", "Codepage of legacy 8-bit strings (IANA name)")
	f.BoolVar(&opts.compact, "compact", false, "Write JSON without indentation")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log every discarded record")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all output except errors")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		printError(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func initLogging(stderr io.Writer, opts *rootOptions) {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{
		Enabled: (opts.verbose || opts.debug) && !opts.quiet,
		Writer:  stderr,
		Level:   level,
	})
}

func resolveOptions(opts *rootOptions) (miranda.Options, error) {
	format, err := miranda.ParseFormat(opts.format)
	if err != nil {
		return miranda.Options{}, err
	}
	enc, err := miranda.Codepage(opts.codepage)
	if err != nil {
		return miranda.Options{}, err
	}
	return miranda.Options{Codepage: enc, Format: format, Compact: opts.compact}, nil
}

func runRecover(stdout, stderr io.Writer, opts *rootOptions) error {
	initLogging(stderr, opts)
	mo, err := resolveOptions(opts)
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintf(stdout, "== Summary ==\n")
		fmt.Fprintf(stdout, "  Miranda database: %s\n", opts.input)
		fmt.Fprintf(stdout, "  Output json file: %s\n", opts.output)
		fmt.Fprintf(stdout, "  Verbose         : %t\n", opts.verbose)
	}

	res, err := miranda.RecoverFile(opts.input, opts.output, mo)
	if err != nil {
		return err
	}

	if opts.verbose && !opts.quiet {
		printResult(stdout, res)
	}
	return nil
}

func printResult(w io.Writer, res *miranda.Result) {
	fmt.Fprintf(w, "\nRecovered records:\n")
	fmt.Fprintf(w, "  Contacts : %d\n", res.Counts.Contacts)
	fmt.Fprintf(w, "  Events   : %d\n", res.Counts.Events)
	fmt.Fprintf(w, "  Modules  : %d\n", res.Counts.Modules)
	fmt.Fprintf(w, "  Settings : %d\n", res.Counts.Settings)
	if f := res.Failures; f != (miranda.RecordCounts{}) {
		fmt.Fprintf(w, "Discarded malformed records:\n")
		fmt.Fprintf(w, "  Contacts : %d\n", f.Contacts)
		fmt.Fprintf(w, "  Events   : %d\n", f.Events)
		fmt.Fprintf(w, "  Modules  : %d\n", f.Modules)
		fmt.Fprintf(w, "  Settings : %d\n", f.Settings)
	}
	input := humanize.IBytes(uint64(res.InputSize))
	if res.Compressed {
		input += " xz"
	}
	fmt.Fprintf(w, "Input : %s (%s decoded)\n", input, humanize.IBytes(uint64(res.DecodedSize)))
	fmt.Fprintf(w, "Output: %s\n", humanize.IBytes(uint64(res.OutputSize)))
	fmt.Fprintf(w, "BLAKE3: %s\n", res.Digest)
}

// printError prints an error message
func printError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "Error: "+format, args...)
}
