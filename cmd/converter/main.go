// Command converter reads transactions in one format and writes them in
// another. Converted output goes to stdout unless --output is given;
// diagnostics go to stderr.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ypbank/txcodec/internal/codec"
	_ "github.com/ypbank/txcodec/internal/codec/binfmt"
	_ "github.com/ypbank/txcodec/internal/codec/csvfmt"
	_ "github.com/ypbank/txcodec/internal/codec/mt940"
	_ "github.com/ypbank/txcodec/internal/codec/textfmt"
	errs "github.com/ypbank/txcodec/internal/domain/error"
	"github.com/ypbank/txcodec/internal/domain/port/core"
	"github.com/ypbank/txcodec/internal/infrastructure/adapter/logger"
	"github.com/ypbank/txcodec/internal/infrastructure/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		input          = pflag.StringP("input", "i", "", "input file")
		inputFormat    = pflag.String("input-format", "", "input format (csv, txt, bin, mt940)")
		outputFormat   = pflag.String("output-format", "", "output format (csv, txt, bin, mt940)")
		output         = pflag.StringP("output", "o", "", "output file (default: stdout)")
		verbose        = pflag.BoolP("verbose", "v", false, "enable verbose logging")
		skipValidation = pflag.Bool("skip-validation", false, "warn instead of enforcing strict mode (validation still applies)")
	)
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}

	log := logger.NewZapLogger(cfg.Environment == config.Production)
	defer func() { _ = log.Flush() }()
	log.SetLevel(logLevel(cfg.Logger.Level))
	if *verbose {
		log.SetLevel(core.LogLevelDebug)
	}

	if *input == "" || *inputFormat == "" || *outputFormat == "" {
		fmt.Fprintln(os.Stderr, "Error: --input, --input-format, and --output-format are required")
		pflag.Usage()
		return 1
	}

	inCodec, err := codec.ForName(*inputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	outCodec, err := codec.ForName(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := os.Stat(*input); err != nil {
		fmt.Fprintf(os.Stderr, "Error: input file '%s' not found\n", *input)
		listExamples(cfg.Converter.ExamplesDir)
		return 1
	}

	// Binary output on a terminal is never useful; refuse without a file.
	if *output == "" && outCodec.Name() == "bin" {
		fmt.Fprintln(os.Stderr, "Error: binary output requires --output <file>")
		return 1
	}

	if *skipValidation {
		log.Warn("business-rule validation is disabled", nil)
	}

	log.Debug("starting conversion", map[string]any{
		"input":        *input,
		"inputFormat":  inCodec.Name(),
		"outputFormat": outCodec.Name(),
		"output":       orStdout(*output),
	})

	in, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open '%s': %v\n", *input, err)
		return 1
	}
	defer func() { _ = in.Close() }()

	records, err := inCodec.Parse(bufio.NewReader(in))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to parse '%s' as %s: %v\n", *input, inCodec.Name(), err)
		return 1
	}

	log.Debug("parsed input", map[string]any{"records": len(records)})
	if len(records) > 0 {
		first := records[0]
		log.Debug("first record", map[string]any{
			"txId":   first.TxID,
			"type":   first.Type,
			"amount": first.Amount,
			"status": first.Status,
		})
		if len(records) > 1 {
			last := records[len(records)-1]
			log.Debug("last record", map[string]any{
				"txId":   last.TxID,
				"type":   last.Type,
				"amount": last.Amount,
			})
		}
	}

	var sink *os.File
	if *output == "" {
		sink = os.Stdout
	} else {
		sink, err = os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create '%s': %v\n", *output, err)
			return 1
		}
		defer func() { _ = sink.Close() }()
	}

	w := bufio.NewWriter(sink)
	if err := outCodec.Write(records, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n",
			fmt.Errorf("%w: writing %s output: %v", errs.ErrConversion, outCodec.Name(), err))
		return 1
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to flush output: %v\n", err)
		return 1
	}

	log.Debug("conversion finished", map[string]any{"records": len(records)})
	return 0
}

// listExamples prints the example files with their detected formats, so
// a mistyped input path still leaves the user with something to run.
func listExamples(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Available example files in '%s/':\n", dir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		label := "Unknown"
		if c := codec.ForExtension(entry.Name()); c != nil {
			label = c.Name()
		}
		fmt.Fprintf(os.Stderr, "  - %s (%s)\n", filepath.Join(dir, entry.Name()), label)
	}
	fmt.Fprintln(os.Stderr, "\nExample usage:")
	fmt.Fprintf(os.Stderr, "  converter --input %s/records_example.csv --input-format csv --output-format txt\n", dir)
}

func orStdout(path string) string {
	if path == "" {
		return "<stdout>"
	}
	return path
}

func logLevel(name string) core.LogLevel {
	switch name {
	case "debug":
		return core.LogLevelDebug
	case "warn":
		return core.LogLevelWarn
	case "error":
		return core.LogLevelError
	default:
		return core.LogLevelInfo
	}
}
