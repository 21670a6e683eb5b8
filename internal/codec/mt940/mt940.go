// Package mt940 implements the SWIFT MT940 statement codec. Parsing is
// the primary direction: a line-oriented accumulator collects `:61:`
// transaction details and `:86:` narrative fields into records. Writing
// is a simplified diagnostic export and does not round-trip.
package mt940

import (
	"fmt"
	"hash/fnv"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	gotime "time"

	"github.com/ypbank/txcodec/internal/codec"
	"github.com/ypbank/txcodec/internal/domain/entity"
	errs "github.com/ypbank/txcodec/internal/domain/error"
	"github.com/ypbank/txcodec/internal/domain/port/core"
	timeadapter "github.com/ypbank/txcodec/internal/infrastructure/adapter/time"
)

// txIDBound keeps synthetic transaction IDs below one billion.
const txIDBound = 1_000_000_000

var fieldRe = regexp.MustCompile(`^:(\d{2}[A-Z]?):(.+)`)

func init() {
	codec.Register(New(timeadapter.NewRealTimeProvider()))
}

// MT940Codec parses SWIFT MT940 statements into transactions. The clock
// supplies the timestamp fallback for records without a usable date.
type MT940Codec struct {
	clock core.TimeProvider
}

// New creates an MT940 codec using the given time provider.
func New(clock core.TimeProvider) *MT940Codec {
	return &MT940Codec{clock: clock}
}

// Name returns the format name used on the command line
func (*MT940Codec) Name() string { return "mt940" }

// Extensions returns the file extensions this codec handles
func (*MT940Codec) Extensions() []string { return []string{".mt940"} }

// Parse walks the statement line by line, accumulating tagged fields. A
// `:61:` line flushes any pending record before starting a new one; the
// final pending record is flushed at end of input. A pending record
// without an amount-bearing field is dropped rather than reported.
func (c *MT940Codec) Parse(r io.Reader) ([]entity.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	records := []entity.Transaction{}
	acc := map[string]string{}
	pending := false
	line := 0

	flush := func() {
		if tx, err := c.buildTransaction(acc, line); err == nil {
			records = append(records, tx)
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n") {
		line++
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		caps := fieldRe.FindStringSubmatch(trimmed)
		if caps == nil {
			continue
		}
		tag, value := caps[1], caps[2]

		switch tag {
		case "20":
			// A new statement reference does not itself start a
			// transaction.
			acc["Reference"] = value
			pending = false
		case "61":
			if pending && len(acc) > 0 {
				flush()
				acc = map[string]string{"Reference": ""}
			}
			pending = true

			details, err := parse61(value, line)
			if err != nil {
				return nil, err
			}
			for k, v := range details {
				acc[k] = v
			}
		case "86":
			for k, v := range parse86(value) {
				acc[k] = v
			}
		default:
			// 25, 28C, 60F/60M, 62F/62M and anything else carry
			// statement bookkeeping, not transactions.
		}
	}

	if pending && len(acc) > 0 {
		flush()
	}

	return records, nil
}

// parse61 extracts the transaction details from a `:61:` value:
// DDMMYY date, D/C marker, raw amount, transaction code, and the
// customer reference after `//`. A missing D/C marker is fatal.
func parse61(value string, line int) (map[string]string, error) {
	fields := map[string]string{}
	value = strings.TrimSpace(value)

	if len(value) < 10 {
		return nil, errs.NewParseError(line, ":61:", value, "field too short", nil)
	}

	if isDigits(value[:6]) {
		fields["Date"] = value[:6]
	}

	// The D/C marker sits after the value date (and optional entry
	// date), so the scan starts at position 6.
	dcPos := -1
	for i := 6; i < len(value); i++ {
		if value[i] == 'D' || value[i] == 'C' {
			dcPos = i
			break
		}
	}
	if dcPos < 0 {
		return nil, errs.NewParseError(line, ":61:", value, "no D/C marker found", nil)
	}
	fields["DC"] = string(value[dcPos])

	amountEnd := dcPos + 1
	for amountEnd < len(value) {
		ch := value[amountEnd]
		if !(ch >= '0' && ch <= '9' || ch == ',' || ch == '.') {
			break
		}
		amountEnd++
	}
	if amountEnd > dcPos+1 {
		fields["AmountRaw"] = value[dcPos+1 : amountEnd]
	}

	rest := value[amountEnd:]
	if idx := strings.Index(rest, "//"); idx >= 0 {
		if code := strings.TrimSpace(rest[:idx]); code != "" {
			fields["TransactionCode"] = code
		}
		if ref := strings.TrimSpace(rest[idx+2:]); ref != "" {
			fields["CustomerReference"] = ref
		}
	} else if code := strings.TrimSpace(rest); code != "" {
		fields["TransactionCode"] = code
	}

	return fields, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// narrativeKeys maps `:86:` field names to accumulator keys. Credit and
// debit variants of the same concept share a key.
var narrativeKeys = map[string]string{
	"EREF": "EREF",
	"CRNM": "CounterpartyName",
	"CNRM": "CounterpartyName",
	"CACT": "AccountNumber",
	"DACT": "AccountNumber",
	"CBIC": "BIC",
	"DBIC": "BIC",
	"REMI": "Description",
	"OPRP": "Purpose",
	"OAMT": "OriginalAmount",
	"DCID": "DebtorId",
}

// parse86 splits a `/FIELD/VALUE/FIELD/VALUE...` narrative into the
// accumulator keys. Unknown field names are kept under Other_<name>; a
// trailing unpaired token lands under Unparsed.
func parse86(value string) map[string]string {
	fields := map[string]string{}
	name := ""

	for _, token := range strings.Split(value, "/") {
		if token == "" {
			continue
		}
		if name == "" {
			name = token
			continue
		}

		if key, ok := narrativeKeys[name]; ok {
			fields[key] = token
		} else {
			fields["Other_"+name] = token
		}
		name = ""
	}

	if name != "" {
		fields["Unparsed"] = name
	}

	return fields
}

// buildTransaction converts the accumulated fields into a Transaction.
// Records with no amount-bearing field or an impossible calendar date
// fail, and the caller drops them.
func (c *MT940Codec) buildTransaction(fields map[string]string, line int) (entity.Transaction, error) {
	var none entity.Transaction

	if _, ok := fields["AmountRaw"]; !ok {
		if _, ok := fields["OriginalAmount"]; !ok {
			return none, errs.NewParseError(line, "AMOUNT", "", "transaction must have an amount field", nil)
		}
	}

	txType, from, to := classify(fields)
	amount, err := parseAmount(fields, line)
	if err != nil {
		return none, err
	}
	timestamp, err := c.parseTimestamp(fields, line)
	if err != nil {
		return none, err
	}

	return entity.Transaction{
		TxID:       generateTxID(fields),
		Type:       txType,
		FromUserID: from,
		ToUserID:   to,
		Amount:     amount,
		Timestamp:  timestamp,
		// MT940 statements only carry booked entries.
		Status:      entity.StatusSuccess,
		Description: buildDescription(fields),
	}, nil
}

// generateTxID derives a deterministic synthetic ID from the end-to-end
// reference, falling back to the customer reference, falling back to
// the whole field map in sorted key order.
func generateTxID(fields map[string]string) uint64 {
	if eref, ok := fields["EREF"]; ok {
		return hashID(eref)
	}
	if ref, ok := fields["CustomerReference"]; ok {
		return hashID(ref)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte(';')
	}
	return hashID(b.String())
}

func hashID(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64() % txIDBound
}

// classify infers the transaction type and placeholder participant IDs
// from the D/C marker and the counterparty BIC. Debits to known
// interbank BICs are transfers; other debits with a BIC are cash
// withdrawals; credits are deposits.
func classify(fields map[string]string) (entity.TransactionType, uint64, uint64) {
	switch fields["DC"] {
	case "D":
		if bic, ok := fields["BIC"]; ok {
			if strings.Contains(bic, "CITI") || strings.HasPrefix(bic, "DB") {
				return entity.TypeTransfer, 1000, 2000
			}
			return entity.TypeWithdrawal, 1000, 0
		}
		return entity.TypeTransfer, 1000, 2000
	case "C":
		return entity.TypeDeposit, 0, 1000
	default:
		return entity.TypeTransfer, 1000, 2000
	}
}

// parseAmount converts the raw amount (European decimal comma allowed)
// to integer minor units, negated for debits.
func parseAmount(fields map[string]string, line int) (int64, error) {
	raw, ok := fields["AmountRaw"]
	if !ok {
		raw, ok = fields["OriginalAmount"]
		if !ok {
			return 0, errs.NewParseError(line, "AMOUNT", "", "no amount field found", nil)
		}
	}

	amount, err := entity.ParseMinorUnits(raw)
	if err != nil {
		return 0, errs.NewParseError(line, "AMOUNT", raw, "invalid amount format", err)
	}

	if fields["DC"] == "D" {
		amount = -amount
	}
	return amount, nil
}

// parseTimestamp turns the DDMMYY statement date into milliseconds at
// noon UTC. Two-digit years at or above 50 pivot into the 1900s. An
// all-digit date that names an impossible calendar day is an error; an
// absent or malformed date falls back to the current time.
func (c *MT940Codec) parseTimestamp(fields map[string]string, line int) (uint64, error) {
	dateStr, ok := fields["Date"]
	if !ok || len(dateStr) != 6 {
		return uint64(c.clock.Now().UnixMilli()), nil
	}

	day, _ := strconv.Atoi(dateStr[0:2])
	month, _ := strconv.Atoi(dateStr[2:4])
	yearShort, _ := strconv.Atoi(dateStr[4:6])

	year := 2000 + yearShort
	if yearShort >= 50 {
		year = 1900 + yearShort
	}

	// time.Date silently normalizes out-of-range components, so an
	// impossible date has to be caught by comparing back.
	t := gotime.Date(year, gotime.Month(month), day, 12, 0, 0, 0, gotime.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return 0, errs.NewParseError(line, "Date", dateStr,
			fmt.Sprintf("invalid date (day=%d, month=%d, year=%d)", day, month, year), nil)
	}

	return uint64(t.UnixMilli()), nil
}

// buildDescription joins the narrative fields in a fixed order.
func buildDescription(fields map[string]string) string {
	var parts []string

	if remi, ok := fields["Description"]; ok {
		parts = append(parts, remi)
	}
	if purpose, ok := fields["Purpose"]; ok {
		parts = append(parts, "Purpose: "+purpose)
	}
	if counterparty, ok := fields["CounterpartyName"]; ok {
		parts = append(parts, "Counterparty: "+counterparty)
	}
	if eref, ok := fields["EREF"]; ok {
		parts = append(parts, "Ref: "+eref)
	}
	if code, ok := fields["TransactionCode"]; ok && code != "" {
		parts = append(parts, "Code: "+code)
	}

	if len(parts) == 0 {
		return "MT940 Transaction"
	}
	return strings.Join(parts, " | ")
}

// Write emits a simplified, lossy MT940 export for diagnostics. The
// output carries the expected tags but is not guaranteed to parse back
// into identical records.
func (c *MT940Codec) Write(records []entity.Transaction, w io.Writer) error {
	var b strings.Builder
	b.WriteString("MT940 Format Export (Simplified)\n")
	b.WriteString("=================================\n")

	for i := range records {
		tx := &records[i]
		fmt.Fprintf(&b, "\nTransaction %d:\n", i+1)
		fmt.Fprintf(&b, ":20:REF%010d\n", tx.TxID)

		dc := "C"
		amount := tx.Amount
		if amount < 0 {
			dc = "D"
			amount = -amount
		}

		date := gotime.UnixMilli(int64(tx.Timestamp)).UTC().Format("020106")
		fmt.Fprintf(&b, ":61:%s%s%s%sNTRF\n", date, date, dc, entity.FormatMinorUnits(amount))
		fmt.Fprintf(&b, ":86:/REMI/%s\n", tx.Description)

		switch tx.Type {
		case entity.TypeDeposit:
			fmt.Fprintf(&b, "/CRNM/Deposit from User %d\n", tx.FromUserID)
			fmt.Fprintf(&b, "/CACT/%010d\n", tx.ToUserID)
		case entity.TypeWithdrawal:
			fmt.Fprintf(&b, "/DACT/%010d\n", tx.FromUserID)
			b.WriteString("/DBIC/WITHDRAWAL\n")
		case entity.TypeTransfer:
			fmt.Fprintf(&b, "/CRNM/Transfer from User %d\n", tx.FromUserID)
			fmt.Fprintf(&b, "/CACT/%010d\n", tx.ToUserID)
		}

		fmt.Fprintf(&b, "/EREF/TX%010d\n", tx.TxID)
	}

	b.WriteString("\n-}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
