package csvfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ypbank/txcodec/internal/domain/entity"
	errs "github.com/ypbank/txcodec/internal/domain/error"
)

const validCSV = `TX_ID,TX_TYPE,FROM_USER_ID,TO_USER_ID,AMOUNT,TIMESTAMP,STATUS,DESCRIPTION
1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,"Initial account funding"
1002,TRANSFER,501,502,15000,1672534800000,FAILURE,"Payment for services"
1003,WITHDRAWAL,502,0,1000,1672538400000,PENDING,"ATM withdrawal"`

func TestParseValidCSV(t *testing.T) {
	records, err := CsvCodec{}.Parse(strings.NewReader(validCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, entity.Transaction{
		TxID:        1001,
		Type:        entity.TypeDeposit,
		FromUserID:  0,
		ToUserID:    501,
		Amount:      50000,
		Timestamp:   1672531200000,
		Status:      entity.StatusSuccess,
		Description: "Initial account funding",
	}, records[0])

	assert.Equal(t, int64(15000), records[1].Amount)
	assert.Equal(t, entity.StatusFailure, records[1].Status)
	assert.Equal(t, entity.TypeWithdrawal, records[2].Type)
}

func TestParseCommasInDescription(t *testing.T) {
	csv := Header + "\n" +
		`1001,TRANSFER,501,502,15000,1672534800000,SUCCESS,"Payment for services, invoice #123"`

	records, err := CsvCodec{}.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Payment for services, invoice #123", records[0].Description)
}

func TestParseEscapedQuotes(t *testing.T) {
	csv := Header + "\n" +
		`1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,"Test with ""quotes"" inside"`

	records, err := CsvCodec{}.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `Test with "quotes" inside`, records[0].Description)
}

func TestParseWrongHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "renamed columns",
			header: "ID,TYPE,FROM,TO,AMOUNT,TIME,STATUS,DESC",
			want:   "column 1",
		},
		{
			name:   "missing column",
			header: "TX_ID,TX_TYPE,FROM_USER_ID,TO_USER_ID,AMOUNT,TIMESTAMP,STATUS",
			want:   "expected 8 columns, got 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := tt.header + "\n1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,\"Test\""
			_, err := CsvCodec{}.Parse(strings.NewReader(csv))
			require.Error(t, err)
			assert.True(t, errs.IsParseError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseUnclosedQuote(t *testing.T) {
	csv := Header + "\n" +
		`1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,"Unclosed quote`

	_, err := CsvCodec{}.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed double quote")
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseBlankLinesBetweenRows(t *testing.T) {
	csv := Header + "\n" +
		"1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,\"First\"\n" +
		"\n\n" +
		"1002,TRANSFER,501,502,15000,1672534800000,FAILURE,\"Second\"\n\n"

	records, err := CsvCodec{}.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(1001), records[0].TxID)
	assert.Equal(t, uint64(1002), records[1].TxID)
}

func TestParseFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad tx_id", `abc,DEPOSIT,0,501,50000,1672531200000,SUCCESS,"x"`, "TX_ID"},
		{"bad tx_type", `1001,REFUND,0,501,50000,1672531200000,SUCCESS,"x"`, "DEPOSIT, TRANSFER, or WITHDRAWAL"},
		{"lowercase tx_type", `1001,deposit,0,501,50000,1672531200000,SUCCESS,"x"`, "TX_TYPE"},
		{"bad status", `1001,DEPOSIT,0,501,50000,1672531200000,DONE,"x"`, "SUCCESS, FAILURE, or PENDING"},
		{"bad amount", `1001,DEPOSIT,0,501,12.5,1672531200000,SUCCESS,"x"`, "AMOUNT"},
		{"bad timestamp", `1001,DEPOSIT,0,501,50000,-5,SUCCESS,"x"`, "TIMESTAMP"},
		{"too few fields", `1001,DEPOSIT,0,501`, "expected 8 fields, got 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CsvCodec{}.Parse(strings.NewReader(Header + "\n" + tt.row))
			require.Error(t, err)
			assert.True(t, errs.IsParseError(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestParseNonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"-1000", "0"} {
		t.Run(amount, func(t *testing.T) {
			csv := Header + "\n" +
				"1001,WITHDRAWAL,501,0," + amount + `,1672538400000,PENDING,"Test"`
			_, err := CsvCodec{}.Parse(strings.NewReader(csv))
			require.Error(t, err)
			assert.True(t, errs.IsParseError(err))
			assert.Contains(t, err.Error(), "positive")
		})
	}
}

func TestParseBusinessRules(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"deposit with sender", `1001,DEPOSIT,123,501,50000,1672531200000,SUCCESS,"x"`},
		{"withdrawal with receiver", `1001,WITHDRAWAL,501,123,1000,1672531200000,SUCCESS,"x"`},
		{"transfer without sender", `1001,TRANSFER,0,502,1000,1672531200000,SUCCESS,"x"`},
		{"transfer without receiver", `1001,TRANSFER,501,0,1000,1672531200000,SUCCESS,"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CsvCodec{}.Parse(strings.NewReader(Header + "\n" + tt.row))
			require.Error(t, err)
			assert.True(t, errs.IsValidationError(err))
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestWriteAlwaysQuotesDescription(t *testing.T) {
	tx := entity.Transaction{
		TxID:        1001,
		Type:        entity.TypeDeposit,
		ToUserID:    501,
		Amount:      50000,
		Timestamp:   1672531200000,
		Status:      entity.StatusSuccess,
		Description: "Simple description",
	}

	var buf bytes.Buffer
	require.NoError(t, CsvCodec{}.Write([]entity.Transaction{tx}, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.True(t, strings.HasSuffix(lines[1], `,"Simple description"`))
}

func TestRoundTrip(t *testing.T) {
	records := []entity.Transaction{
		{
			TxID:        1001,
			Type:        entity.TypeDeposit,
			FromUserID:  0,
			ToUserID:    501,
			Amount:      50000,
			Timestamp:   1672531200000,
			Status:      entity.StatusSuccess,
			Description: `Test deposit with "quotes" and, commas`,
		},
		{
			TxID:        1002,
			Type:        entity.TypeWithdrawal,
			FromUserID:  502,
			ToUserID:    0,
			Amount:      2000,
			Timestamp:   1672538400000,
			Status:      entity.StatusPending,
			Description: "ATM withdrawal",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, CsvCodec{}.Write(records, &buf))

	parsed, err := CsvCodec{}.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, parsed)
}

func TestRoundTripQuoteCommaNewline(t *testing.T) {
	tx := entity.Transaction{
		TxID:        7,
		Type:        entity.TypeTransfer,
		FromUserID:  1,
		ToUserID:    2,
		Amount:      100,
		Timestamp:   1672531200000,
		Status:      entity.StatusSuccess,
		Description: "He said \"hi\", twice\nand left",
	}

	var buf bytes.Buffer
	require.NoError(t, CsvCodec{}.Write([]entity.Transaction{tx}, &buf))

	parsed, err := CsvCodec{}.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, tx.Description, parsed[0].Description)
}

func TestParseLargeNumbers(t *testing.T) {
	csv := Header + "\n" +
		"1000000000000000,DEPOSIT,0,9223372036854775807,100,1633036860000,FAILURE,\"Record number 1\"\n" +
		"1000000000000002,WITHDRAWAL,599094029349995112,0,300,1633036980000,SUCCESS,\"Record number 3\""

	records, err := CsvCodec{}.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(9223372036854775807), records[0].ToUserID)
	assert.Equal(t, uint64(599094029349995112), records[1].FromUserID)
}

func TestParseEmptyInput(t *testing.T) {
	records, err := CsvCodec{}.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEscapeDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Simple", `"Simple"`},
		{"With,comma", `"With,comma"`},
		{`With"quote`, `"With""quote"`},
		{"With\nnewline", "\"With\nnewline\""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeDescription(tt.in))
	}
}
