package binfmt

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ypbank/txcodec/internal/domain/entity"
	errs "github.com/ypbank/txcodec/internal/domain/error"
)

func sampleTransaction() entity.Transaction {
	return entity.Transaction{
		TxID:        123456,
		Type:        entity.TypeTransfer,
		FromUserID:  100,
		ToUserID:    200,
		Amount:      5000,
		Timestamp:   1672531200000,
		Status:      entity.StatusSuccess,
		Description: "Test transaction",
	}
}

// rawRecord builds a wire-format record by hand so tests can corrupt
// individual fields.
func rawRecord(typeByte, statusByte byte, recordSize, descLen uint32, desc []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x59, 0x50, 0x42, 0x4E})
	_ = binary.Write(&buf, binary.BigEndian, recordSize)
	_ = binary.Write(&buf, binary.BigEndian, uint64(1001))
	buf.WriteByte(typeByte)
	_ = binary.Write(&buf, binary.BigEndian, uint64(0))
	_ = binary.Write(&buf, binary.BigEndian, uint64(501))
	_ = binary.Write(&buf, binary.BigEndian, int64(50000))
	_ = binary.Write(&buf, binary.BigEndian, uint64(1672531200000))
	buf.WriteByte(statusByte)
	_ = binary.Write(&buf, binary.BigEndian, descLen)
	buf.Write(desc)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	records := []entity.Transaction{
		sampleTransaction(),
		{
			TxID:        1002,
			Type:        entity.TypeDeposit,
			FromUserID:  0,
			ToUserID:    501,
			Amount:      -15000,
			Timestamp:   1672534800000,
			Status:      entity.StatusFailure,
			Description: "Second",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, BinaryCodec{}.Write(records, &buf))

	parsed, err := BinaryCodec{}.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, parsed)
}

func TestRoundTripEmptyDescription(t *testing.T) {
	tx := sampleTransaction()
	tx.Description = ""

	var buf bytes.Buffer
	require.NoError(t, BinaryCodec{}.Write([]entity.Transaction{tx}, &buf))

	parsed, err := BinaryCodec{}.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "", parsed[0].Description)
}

func TestRecordSizeHeader(t *testing.T) {
	tx := sampleTransaction()

	var buf bytes.Buffer
	require.NoError(t, BinaryCodec{}.Write([]entity.Transaction{tx}, &buf))

	raw := buf.Bytes()
	recordSize := binary.BigEndian.Uint32(raw[4:8])
	assert.Equal(t, uint32(46+len(tx.Description)), recordSize)
}

func TestParseEmptyStream(t *testing.T) {
	parsed, err := BinaryCodec{}.Parse(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseInvalidMagic(t *testing.T) {
	data := rawRecord(0, 0, 46, 0, nil)
	copy(data, []byte{0x00, 0x01, 0x02, 0x03})

	_, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, errs.IsParseError(err))
	assert.Contains(t, err.Error(), "magic")
}

func TestParseInvalidTxType(t *testing.T) {
	data := rawRecord(99, 0, 46, 0, nil)

	_, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, errs.IsParseError(err))
	assert.Contains(t, err.Error(), "TX_TYPE")
}

func TestParseInvalidStatus(t *testing.T) {
	data := rawRecord(0, 7, 46, 0, nil)

	_, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATUS")
}

func TestParseRecordSizeMismatch(t *testing.T) {
	desc := []byte("hello")
	data := rawRecord(0, 0, 46, uint32(len(desc)), desc) // header should say 51

	_, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
	assert.Contains(t, err.Error(), "46")
	assert.Contains(t, err.Error(), "51")
}

func TestParseTruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BinaryCodec{}.Write([]entity.Transaction{sampleTransaction()}, &buf))

	truncated := buf.Bytes()[:buf.Len()-4]
	_, err := BinaryCodec{}.Parse(bytes.NewReader(truncated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end of stream")
}

func TestParseInvalidUTF8Description(t *testing.T) {
	desc := []byte{0xFF, 0xFE, 0xFD}
	data := rawRecord(0, 0, 46+3, 3, desc)

	_, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
}

func TestParseDescriptionNormalization(t *testing.T) {
	desc := []byte(`  "quoted text"  `)
	data := rawRecord(0, 0, uint32(46+len(desc)), uint32(len(desc)), desc)

	parsed, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "quoted text", parsed[0].Description)
}

func TestWriteDescriptionTooLong(t *testing.T) {
	tx := sampleTransaction()
	tx.Description = strings.Repeat("x", MaxDescriptionLen+100)

	var buf bytes.Buffer
	err := BinaryCodec{}.Write([]entity.Transaction{tx}, &buf)
	require.Error(t, err)
	assert.True(t, errs.IsParseError(err))
	assert.Contains(t, err.Error(), "too long")
}

func TestParseDescriptionTooLong(t *testing.T) {
	descLen := uint32(MaxDescriptionLen + 100)
	data := rawRecord(0, 0, 46+descLen, descLen, nil)

	_, err := BinaryCodec{}.Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, errs.IsParseError(err))
	assert.Contains(t, err.Error(), "too long")
}

func TestWriteLargeValidDescription(t *testing.T) {
	tx := sampleTransaction()
	tx.Description = strings.Repeat("x", MaxDescriptionLen-100)

	var buf bytes.Buffer
	require.NoError(t, BinaryCodec{}.Write([]entity.Transaction{tx}, &buf))

	parsed, err := BinaryCodec{}.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, tx.Description, parsed[0].Description)
}

func TestNoBusinessRuleValidation(t *testing.T) {
	// Byte-faithful transport: a deposit with a non-zero sender and a
	// negative amount still round-trips.
	tx := entity.Transaction{
		TxID:       1,
		Type:       entity.TypeDeposit,
		FromUserID: 999,
		ToUserID:   501,
		Amount:     -42,
		Timestamp:  1,
		Status:     entity.StatusPending,
	}

	var buf bytes.Buffer
	require.NoError(t, BinaryCodec{}.Write([]entity.Transaction{tx}, &buf))

	parsed, err := BinaryCodec{}.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, tx, parsed[0])
}
