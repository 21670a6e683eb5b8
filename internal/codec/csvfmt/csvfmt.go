// Package csvfmt implements the quoted CSV transaction format. The
// tokenizer is a purpose-built quoted-field scanner rather than
// encoding/csv: the format skips blank lines between rows, requires an
// exact header, and always quotes the description column on write.
package csvfmt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ypbank/txcodec/internal/codec"
	"github.com/ypbank/txcodec/internal/domain/entity"
	errs "github.com/ypbank/txcodec/internal/domain/error"
)

// Header is the mandatory first line of every CSV transaction file.
const Header = "TX_ID,TX_TYPE,FROM_USER_ID,TO_USER_ID,AMOUNT,TIMESTAMP,STATUS,DESCRIPTION"

var headerColumns = strings.Split(Header, ",")

func init() {
	codec.Register(CsvCodec{})
}

// CsvCodec reads and writes the header-validated CSV representation.
type CsvCodec struct{}

// Name returns the format name used on the command line
func (CsvCodec) Name() string { return "csv" }

// Extensions returns the file extensions this codec handles
func (CsvCodec) Extensions() []string { return []string{".csv"} }

// Parse reads the whole input, validates the header, and decodes every
// data row. Blank lines between rows are skipped. Quoted fields may
// span physical lines, so descriptions with embedded newlines survive
// a write/parse round trip.
func (CsvCodec) Parse(r io.Reader) ([]entity.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	lines := splitLines(string(content))
	if len(lines) == 0 {
		return []entity.Transaction{}, nil
	}

	rows, err := scanRows(lines)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entity.Transaction{}, nil
	}

	if err := validateHeader(rows[0].fields); err != nil {
		return nil, err
	}

	records := make([]entity.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		tx, err := parseRecord(row.fields, row.line)
		if err != nil {
			return nil, err
		}
		records = append(records, tx)
	}

	return records, nil
}

// Write emits the header followed by one row per record. DESCRIPTION is
// always wrapped in double quotes with embedded quotes doubled; every
// other column is written unquoted.
func (CsvCodec) Write(records []entity.Transaction, w io.Writer) error {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')

	for i := range records {
		tx := &records[i]
		fmt.Fprintf(&b, "%d,%s,%d,%d,%d,%d,%s,%s\n",
			tx.TxID,
			tx.Type,
			tx.FromUserID,
			tx.ToUserID,
			tx.Amount,
			tx.Timestamp,
			tx.Status,
			escapeDescription(tx.Description),
		)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

type row struct {
	fields []string
	line   int // 1-based physical line the row starts on
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// scanRows assembles logical rows from physical lines. A newline inside
// an open quote is part of the field, so a row continues onto the next
// physical line until its quotes balance.
func scanRows(lines []string) ([]row, error) {
	var rows []row

	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}

		start := i
		logical := lines[i]
		fields, open := tokenize(logical)
		for open && i+1 < len(lines) {
			i++
			logical += "\n" + lines[i]
			fields, open = tokenize(logical)
		}
		if open {
			return nil, &errs.ParseError{
				Line:   start + 1,
				Reason: "unclosed double quote",
			}
		}

		rows = append(rows, row{fields: fields, line: start + 1})
	}

	return rows, nil
}

// tokenize splits one logical row into fields. Inside quotes a doubled
// quote is a literal quote and commas and newlines are literal. The
// second result reports whether a quote is still open at the end.
func tokenize(line string) ([]string, bool) {
	var fields []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch ch := runes[i]; ch {
		case '"':
			if inQuotes {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				inQuotes = true
			}
		case ',':
			if inQuotes {
				field.WriteRune(',')
			} else {
				fields = append(fields, field.String())
				field.Reset()
			}
		default:
			field.WriteRune(ch)
		}
	}
	fields = append(fields, field.String())

	return fields, inQuotes
}

func validateHeader(fields []string) error {
	if len(fields) != len(headerColumns) {
		return &errs.ParseError{
			Line:   1,
			Reason: fmt.Sprintf("expected %d columns, got %d", len(headerColumns), len(fields)),
		}
	}
	for i, want := range headerColumns {
		if fields[i] != want {
			return &errs.ParseError{
				Line:   1,
				Reason: fmt.Sprintf("column %d: expected '%s', got '%s'", i+1, want, fields[i]),
			}
		}
	}
	return nil
}

func parseRecord(fields []string, line int) (entity.Transaction, error) {
	var none entity.Transaction

	if len(fields) != 8 {
		return none, &errs.ParseError{
			Line:   line,
			Reason: fmt.Sprintf("expected 8 fields, got %d", len(fields)),
		}
	}

	txID, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return none, errs.NewParseError(line, "TX_ID", fields[0], "invalid unsigned integer", err)
	}

	txType, ok := entity.ParseTransactionType(fields[1])
	if !ok {
		return none, errs.NewParseError(line, "TX_TYPE", fields[1],
			"must be DEPOSIT, TRANSFER, or WITHDRAWAL", nil)
	}

	fromUserID, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return none, errs.NewParseError(line, "FROM_USER_ID", fields[2], "invalid unsigned integer", err)
	}

	toUserID, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return none, errs.NewParseError(line, "TO_USER_ID", fields[3], "invalid unsigned integer", err)
	}

	amount, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return none, errs.NewParseError(line, "AMOUNT", fields[4], "invalid integer", err)
	}

	timestamp, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return none, errs.NewParseError(line, "TIMESTAMP", fields[5], "invalid unsigned integer", err)
	}

	status, ok := entity.ParseTransactionStatus(fields[6])
	if !ok {
		return none, errs.NewParseError(line, "STATUS", fields[6],
			"must be SUCCESS, FAILURE, or PENDING", nil)
	}

	tx := entity.Transaction{
		TxID:        txID,
		Type:        txType,
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Amount:      amount,
		Timestamp:   timestamp,
		Status:      status,
		Description: unescapeDescription(fields[7]),
	}

	// The serialized amount carries no sign; direction comes from TX_TYPE.
	if amount <= 0 {
		return none, errs.NewParseError(line, "AMOUNT", fields[4],
			fmt.Sprintf("AMOUNT must be positive in CSV format, got %d", amount), nil)
	}

	if err := tx.ValidateParticipants(); err != nil {
		var verr *errs.ValidationError
		if errors.As(err, &verr) {
			verr.Line = line
		}
		return none, err
	}

	return tx, nil
}

// escapeDescription doubles embedded quotes and always wraps the value
// in quotes, even when no special characters are present.
func escapeDescription(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// unescapeDescription reverses escapeDescription. The tokenizer already
// removed the structural quotes and undoubled escapes, so by the time a
// field reaches here only unquoted legacy values need trimming.
func unescapeDescription(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return strings.ReplaceAll(trimmed[1:len(trimmed)-1], `""`, `"`)
	}
	return trimmed
}
