// Package textfmt implements the human-editable KEY: VALUE transaction
// format. Records are blank-line separated groups of fields, lines
// starting with # are comments, and descriptions are double-quoted.
package textfmt

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

var requiredFields = []string{
	"TX_ID", "TX_TYPE", "FROM_USER_ID", "TO_USER_ID",
	"AMOUNT", "TIMESTAMP", "STATUS", "DESCRIPTION",
}

func init() {
	codec.Register(TextCodec{})
}

// TextCodec reads and writes the KEY: VALUE representation.
type TextCodec struct{}

// Name returns the format name used on the command line
func (TextCodec) Name() string { return "txt" }

// Extensions returns the file extensions this codec handles
func (TextCodec) Extensions() []string { return []string{".txt"} }

// Parse accumulates KEY: VALUE lines into records and flushes a record
// on each blank line and at end of input. A key may appear only once
// per record.
func (TextCodec) Parse(r io.Reader) ([]entity.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var records []entity.Transaction
	current := make(map[string]string)
	line := 0

	for _, raw := range strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n") {
		line++

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			if len(current) > 0 {
				tx, err := parseRecord(current, line)
				if err != nil {
					return nil, err
				}
				records = append(records, tx)
				current = make(map[string]string)
			}
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, err := parseKeyValue(trimmed, line)
		if err != nil {
			return nil, err
		}
		if _, dup := current[key]; dup {
			return nil, &errs.ParseError{
				Line:   line,
				Field:  key,
				Reason: fmt.Sprintf("duplicate field '%s'", key),
			}
		}
		current[key] = value
	}

	if len(current) > 0 {
		tx, err := parseRecord(current, line)
		if err != nil {
			return nil, err
		}
		records = append(records, tx)
	}

	if records == nil {
		records = []entity.Transaction{}
	}
	return records, nil
}

// Write emits one record per blank-line separated block, preceded by a
// `# Record N (TYPE)` comment. Descriptions are always double-quoted
// with embedded quotes escaped as \".
func (TextCodec) Write(records []entity.Transaction, w io.Writer) error {
	var b strings.Builder

	for i := range records {
		tx := &records[i]
		if i > 0 {
			b.WriteByte('\n')
		}

		fmt.Fprintf(&b, "# Record %d (%s)\n", i+1, tx.Type)
		fmt.Fprintf(&b, "TX_ID: %d\n", tx.TxID)
		fmt.Fprintf(&b, "TX_TYPE: %s\n", tx.Type)
		fmt.Fprintf(&b, "FROM_USER_ID: %d\n", tx.FromUserID)
		fmt.Fprintf(&b, "TO_USER_ID: %d\n", tx.ToUserID)
		fmt.Fprintf(&b, "AMOUNT: %d\n", tx.Amount)
		fmt.Fprintf(&b, "TIMESTAMP: %d\n", tx.Timestamp)
		fmt.Fprintf(&b, "STATUS: %s\n", tx.Status)
		fmt.Fprintf(&b, "DESCRIPTION: \"%s\"\n", escapeDescription(tx.Description))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// parseKeyValue splits a line on its first colon. Both halves are
// trimmed; an empty key is an error.
func parseKeyValue(line string, lineNum int) (string, string, error) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", &errs.ParseError{
			Line:   lineNum,
			Value:  line,
			Reason: fmt.Sprintf("expected 'KEY: VALUE' format, got '%s'", line),
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", &errs.ParseError{Line: lineNum, Reason: "empty key"}
	}

	return key, strings.TrimSpace(value), nil
}

func parseRecord(fields map[string]string, line int) (entity.Transaction, error) {
	var none entity.Transaction

	for _, field := range requiredFields {
		if _, ok := fields[field]; !ok {
			return none, &errs.ParseError{
				Line:   line,
				Field:  field,
				Reason: fmt.Sprintf("missing required field: %s", field),
			}
		}
	}

	txID, err := parseUintField(fields, "TX_ID", line)
	if err != nil {
		return none, err
	}

	txType, ok := entity.ParseTransactionType(strings.ToUpper(fields["TX_TYPE"]))
	if !ok {
		return none, errs.NewParseError(line, "TX_TYPE", fields["TX_TYPE"],
			"must be DEPOSIT, TRANSFER, or WITHDRAWAL", nil)
	}

	fromUserID, err := parseUintField(fields, "FROM_USER_ID", line)
	if err != nil {
		return none, err
	}

	toUserID, err := parseUintField(fields, "TO_USER_ID", line)
	if err != nil {
		return none, err
	}

	amount, err := parseAmount(fields["AMOUNT"], line)
	if err != nil {
		return none, err
	}

	timestamp, err := parseUintField(fields, "TIMESTAMP", line)
	if err != nil {
		return none, err
	}

	status, ok := entity.ParseTransactionStatus(strings.ToUpper(fields["STATUS"]))
	if !ok {
		return none, errs.NewParseError(line, "STATUS", fields["STATUS"],
			"must be SUCCESS, FAILURE, or PENDING", nil)
	}

	description, err := parseDescription(fields["DESCRIPTION"], line)
	if err != nil {
		return none, err
	}

	tx := entity.Transaction{
		TxID:        txID,
		Type:        txType,
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Amount:      amount,
		Timestamp:   timestamp,
		Status:      status,
		Description: description,
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

func parseUintField(fields map[string]string, name string, line int) (uint64, error) {
	value := fields[name]
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errs.NewParseError(line, name, value, "invalid unsigned integer", err)
	}
	return n, nil
}

// parseAmount tolerates a trailing # comment on the value, a quirk only
// the AMOUNT field gets. The serialized amount must be strictly
// positive; direction comes from TX_TYPE.
func parseAmount(value string, line int) (int64, error) {
	clean, _, _ := strings.Cut(value, "#")
	clean = strings.TrimSpace(clean)

	amount, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, errs.NewParseError(line, "AMOUNT", clean, "invalid integer", err)
	}
	if amount <= 0 {
		return 0, errs.NewParseError(line, "AMOUNT", clean,
			fmt.Sprintf("AMOUNT must be positive, got %d", amount), nil)
	}
	return amount, nil
}

// parseDescription requires the value to be wrapped in double quotes
// and reverses the \" escaping. Other backslash sequences pass through
// untouched.
func parseDescription(value string, line int) (string, error) {
	trimmed := strings.TrimSpace(value)

	if !strings.HasPrefix(trimmed, `"`) || !strings.HasSuffix(trimmed, `"`) {
		return "", errs.NewParseError(line, "DESCRIPTION", value,
			"DESCRIPTION must be in double quotes", nil)
	}
	if len(trimmed) < 2 {
		return "", errs.NewParseError(line, "DESCRIPTION", value,
			"DESCRIPTION too short, must be at least 2 characters for quotes", nil)
	}

	return unescapeDescription(trimmed[1 : len(trimmed)-1]), nil
}

func escapeDescription(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescapeDescription(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}
