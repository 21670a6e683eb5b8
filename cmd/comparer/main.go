// Command comparer parses two transaction files, possibly in different
// formats, and reports field-by-field differences. Exit codes: 0 when
// the transaction lists are identical, 1 on I/O or parse errors, 2 when
// the lists differ.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ypbank/txcodec/internal/codec"
	_ "github.com/ypbank/txcodec/internal/codec/binfmt"
	_ "github.com/ypbank/txcodec/internal/codec/csvfmt"
	_ "github.com/ypbank/txcodec/internal/codec/mt940"
	_ "github.com/ypbank/txcodec/internal/codec/textfmt"
	"github.com/ypbank/txcodec/internal/compare"
	"github.com/ypbank/txcodec/internal/domain/entity"
	"github.com/ypbank/txcodec/internal/domain/port/core"
	"github.com/ypbank/txcodec/internal/infrastructure/adapter/logger"
	"github.com/ypbank/txcodec/internal/infrastructure/config"
)

const (
	exitIdentical = 0
	exitError     = 1
	exitDiffer    = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		file1             = pflag.String("file1", "", "first file")
		format1           = pflag.String("format1", "", "format of the first file (csv, txt, bin, mt940)")
		file2             = pflag.String("file2", "", "second file")
		format2           = pflag.String("format2", "", "format of the second file (csv, txt, bin, mt940)")
		ignoreStatus      = pflag.Bool("ignore-status", false, "ignore STATUS differences")
		ignoreDescription = pflag.Bool("ignore-description", false, "ignore DESCRIPTION differences")
		verbose           = pflag.BoolP("verbose", "v", false, "enable verbose logging")
	)
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return exitError
	}

	log := logger.NewZapLogger(cfg.Environment == config.Production)
	defer func() { _ = log.Flush() }()
	if *verbose {
		log.SetLevel(core.LogLevelDebug)
	}

	if *file1 == "" || *format1 == "" || *file2 == "" || *format2 == "" {
		fmt.Fprintln(os.Stderr, "Error: --file1, --format1, --file2, and --format2 are required")
		pflag.Usage()
		return exitError
	}

	opts := compare.Options{
		IgnoreStatus:      *ignoreStatus,
		IgnoreDescription: *ignoreDescription,
		MaxReported:       cfg.Compare.MaxReportedMismatches,
	}
	if opts.MaxReported <= 0 {
		opts.MaxReported = compare.DefaultMaxReported
	}

	log.Debug("comparing files", map[string]any{
		"file1":             *file1,
		"format1":           *format1,
		"file2":             *file2,
		"format2":           *format2,
		"ignoreStatus":      opts.IgnoreStatus,
		"ignoreDescription": opts.IgnoreDescription,
	})

	list1, err := readTransactions(*file1, *format1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	list2, err := readTransactions(*file2, *format2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	log.Debug("parsed both files", map[string]any{
		"records1": len(list1),
		"records2": len(list2),
	})

	report := compare.Compare(list1, list2, opts)
	render(report, *file1, *file2, opts, *verbose)

	if report.Identical {
		return exitIdentical
	}
	return exitDiffer
}

func readTransactions(path, format string) ([]entity.Transaction, error) {
	c, err := codec.ForName(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := c.Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s' as %s: %w", path, c.Name(), err)
	}
	return records, nil
}

func render(report compare.Report, file1, file2 string, opts compare.Options, verbose bool) {
	if report.CountMismatch {
		fmt.Println("Files contain different numbers of transactions:")
		fmt.Printf("  '%s': %d transactions\n", file1, report.Count1)
		fmt.Printf("  '%s': %d transactions\n", file2, report.Count2)
		return
	}

	if report.Identical {
		if report.Count1 == 0 {
			fmt.Println("Both files are empty.")
			return
		}
		fmt.Printf("Transactions in '%s' and '%s' are identical.\n", file1, file2)
		if verbose {
			fmt.Printf("All %d transactions match.\n", report.IdenticalCount)
		}
		return
	}

	fmt.Printf("Found %d mismatches out of %d transactions:\n", len(report.Mismatches), report.Count1)

	shown := report.Mismatches
	if len(shown) > opts.MaxReported {
		shown = shown[:opts.MaxReported]
	}
	for _, m := range shown {
		fmt.Printf("\nMismatch in transaction #%d (ID: %d):\n", m.Index+1, m.TxID)
		for _, d := range m.Fields {
			if d.Field == "DESCRIPTION" {
				fmt.Printf("  %s: '%s' != '%s'\n", d.Field, d.Got, d.Want)
				continue
			}
			fmt.Printf("  %s: %s != %s\n", d.Field, d.Got, d.Want)
		}
	}
	if hidden := len(report.Mismatches) - len(shown); hidden > 0 {
		fmt.Printf("\n... and %d more mismatches.\n", hidden)
	}

	if verbose {
		fmt.Println("\nStatistics:")
		fmt.Printf("  Identical transactions: %d\n", report.IdenticalCount)
		fmt.Printf("  Mismatching transactions: %d\n", len(report.Mismatches))
		fmt.Printf("  Total transactions: %d\n", report.Count1)
	}
}
