// Package compare implements field-by-field comparison of transaction
// lists parsed from different formats.
package compare

import (
	"fmt"

	"github.com/ypbank/txcodec/internal/domain/entity"
)

// Options controls which fields participate in the comparison and how
// many differing records a rendered report shows in full.
type Options struct {
	IgnoreStatus      bool
	IgnoreDescription bool
	MaxReported       int
}

// DefaultMaxReported limits how many mismatching records are printed in
// detail before the report collapses into a count.
const DefaultMaxReported = 10

// FieldDiff is one differing field between two records.
type FieldDiff struct {
	Field string
	Got   string
	Want  string
}

// RecordDiff collects the field differences of the record at Index.
type RecordDiff struct {
	Index  int
	TxID   uint64
	Fields []FieldDiff
}

// Report is the outcome of comparing two transaction lists.
type Report struct {
	Identical      bool
	CountMismatch  bool
	Count1, Count2 int
	IdenticalCount int
	Mismatches     []RecordDiff
}

// Equal reports whether two transactions match under the given options.
func Equal(a, b *entity.Transaction, opts Options) bool {
	return len(Diff(a, b, opts)) == 0
}

// Diff returns the differing fields of two transactions under the given
// options, in canonical field order.
func Diff(a, b *entity.Transaction, opts Options) []FieldDiff {
	var diffs []FieldDiff

	if a.TxID != b.TxID {
		diffs = append(diffs, FieldDiff{"TX_ID", fmt.Sprint(a.TxID), fmt.Sprint(b.TxID)})
	}
	if a.Type != b.Type {
		diffs = append(diffs, FieldDiff{"TX_TYPE", string(a.Type), string(b.Type)})
	}
	if a.FromUserID != b.FromUserID {
		diffs = append(diffs, FieldDiff{"FROM_USER_ID", fmt.Sprint(a.FromUserID), fmt.Sprint(b.FromUserID)})
	}
	if a.ToUserID != b.ToUserID {
		diffs = append(diffs, FieldDiff{"TO_USER_ID", fmt.Sprint(a.ToUserID), fmt.Sprint(b.ToUserID)})
	}
	if a.Amount != b.Amount {
		diffs = append(diffs, FieldDiff{"AMOUNT", fmt.Sprint(a.Amount), fmt.Sprint(b.Amount)})
	}
	if a.Timestamp != b.Timestamp {
		diffs = append(diffs, FieldDiff{"TIMESTAMP", fmt.Sprint(a.Timestamp), fmt.Sprint(b.Timestamp)})
	}
	if !opts.IgnoreStatus && a.Status != b.Status {
		diffs = append(diffs, FieldDiff{"STATUS", string(a.Status), string(b.Status)})
	}
	if !opts.IgnoreDescription && a.Description != b.Description {
		diffs = append(diffs, FieldDiff{"DESCRIPTION", a.Description, b.Description})
	}

	return diffs
}

// Compare walks both lists position by position. Lists of different
// lengths short-circuit into a count-mismatch report without per-record
// details.
func Compare(list1, list2 []entity.Transaction, opts Options) Report {
	report := Report{
		Count1: len(list1),
		Count2: len(list2),
	}

	if len(list1) != len(list2) {
		report.CountMismatch = true
		return report
	}

	for i := range list1 {
		diffs := Diff(&list1[i], &list2[i], opts)
		if len(diffs) == 0 {
			report.IdenticalCount++
			continue
		}
		report.Mismatches = append(report.Mismatches, RecordDiff{
			Index:  i,
			TxID:   list1[i].TxID,
			Fields: diffs,
		})
	}

	report.Identical = len(report.Mismatches) == 0
	return report
}
