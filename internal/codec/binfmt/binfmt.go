// Package binfmt implements the fixed-layout binary transaction format:
// a YPBN magic number, a big-endian record-size header, fixed numeric
// fields, and a length-prefixed UTF-8 description. The codec is a
// byte-faithful transport: it does not apply the business-rule
// validation the textual codecs perform.
package binfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ypbank/txcodec/internal/codec"
	"github.com/ypbank/txcodec/internal/domain/entity"
	errs "github.com/ypbank/txcodec/internal/domain/error"
)

// MaxDescriptionLen caps the description payload at 1 MiB, enforced
// identically on the read and write paths.
const MaxDescriptionLen = 1 << 20

// fixedSize is the per-record byte count after the magic number,
// excluding the description payload: record_size is not included;
// tx_id(8) + tx_type(1) + from(8) + to(8) + amount(8) + timestamp(8) +
// status(1) + desc_len(4).
const fixedSize = 46

// headerSize covers record_size plus the fixed fields.
const headerSize = 4 + fixedSize

var magic = [4]byte{0x59, 0x50, 0x42, 0x4E} // "YPBN"

func init() {
	codec.Register(BinaryCodec{})
}

// BinaryCodec reads and writes the self-delimited binary record stream.
type BinaryCodec struct{}

// Name returns the format name used on the command line
func (BinaryCodec) Name() string { return "bin" }

// Extensions returns the file extensions this codec handles
func (BinaryCodec) Extensions() []string { return []string{".bin"} }

// Parse reads records until a clean end-of-stream at a record boundary.
// Any truncation or malformed content mid-record is fatal.
func (BinaryCodec) Parse(r io.Reader) ([]entity.Transaction, error) {
	var records []entity.Transaction

	for {
		tx, err := readRecord(r, len(records)+1)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, tx)
	}
}

// Write serializes the records. Descriptions over MaxDescriptionLen are
// rejected, never truncated.
func (BinaryCodec) Write(records []entity.Transaction, w io.Writer) error {
	for i := range records {
		if err := writeRecord(&records[i], i+1, w); err != nil {
			return err
		}
	}
	return nil
}

// readRecord decodes one record. It returns io.EOF only when the stream
// ends exactly at a record boundary.
func readRecord(r io.Reader, rec int) (entity.Transaction, error) {
	var none entity.Transaction

	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		if err == io.EOF {
			return none, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return none, &errs.ParseError{Record: rec, Reason: "unexpected end of stream reading magic number"}
		}
		return none, fmt.Errorf("record %d: read magic: %w", rec, err)
	}
	if m != magic {
		return none, &errs.ParseError{
			Record: rec,
			Reason: fmt.Sprintf("invalid magic number % X, expected % X", m[:], magic[:]),
		}
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return none, &errs.ParseError{Record: rec, Reason: "unexpected end of stream reading record header"}
		}
		return none, fmt.Errorf("record %d: read header: %w", rec, err)
	}

	recordSize := binary.BigEndian.Uint32(header[0:4])
	txID := binary.BigEndian.Uint64(header[4:12])

	typeByte := header[12]
	txType, ok := entity.TypeFromWireCode(typeByte)
	if !ok {
		return none, &errs.ParseError{
			Record: rec,
			Field:  "TX_TYPE",
			Reason: fmt.Sprintf("invalid TX_TYPE byte %d", typeByte),
		}
	}

	fromUserID := binary.BigEndian.Uint64(header[13:21])
	toUserID := binary.BigEndian.Uint64(header[21:29])
	amount := int64(binary.BigEndian.Uint64(header[29:37]))
	timestamp := binary.BigEndian.Uint64(header[37:45])

	statusByte := header[45]
	status, ok := entity.StatusFromWireCode(statusByte)
	if !ok {
		return none, &errs.ParseError{
			Record: rec,
			Field:  "STATUS",
			Reason: fmt.Sprintf("invalid STATUS byte %d", statusByte),
		}
	}

	descLen := binary.BigEndian.Uint32(header[46:50])

	expected := uint64(fixedSize) + uint64(descLen)
	if expected > math.MaxUint32 {
		return none, &errs.ParseError{Record: rec, Reason: "record size overflow when calculating total size"}
	}
	if uint64(recordSize) != expected {
		return none, &errs.ParseError{
			Record: rec,
			Reason: fmt.Sprintf("record size mismatch: header says %d, expected %d", recordSize, expected),
		}
	}
	if descLen > MaxDescriptionLen {
		return none, &errs.ParseError{
			Record: rec,
			Field:  "DESCRIPTION",
			Reason: fmt.Sprintf("description too long: %d bytes, maximum is %d", descLen, MaxDescriptionLen),
		}
	}

	desc := make([]byte, descLen)
	if descLen > 0 {
		if _, err := io.ReadFull(r, desc); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return none, &errs.ParseError{Record: rec, Reason: "unexpected end of stream reading description"}
			}
			return none, fmt.Errorf("record %d: read description: %w", rec, err)
		}
	}
	if !utf8.Valid(desc) {
		return none, &errs.ParseError{
			Record: rec,
			Field:  "DESCRIPTION",
			Reason: "invalid UTF-8 in description",
		}
	}

	return entity.Transaction{
		TxID:        txID,
		Type:        txType,
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Amount:      amount,
		Timestamp:   timestamp,
		Status:      status,
		Description: normalizeDescription(string(desc)),
	}, nil
}

// normalizeDescription trims surrounding whitespace and strips exactly
// one layer of surrounding double quotes. The writer never adds quotes,
// so quoted descriptions only appear in files produced elsewhere.
func normalizeDescription(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return trimmed[1 : len(trimmed)-1]
	}
	return trimmed
}

// writeRecord encodes one record into the wire layout.
func writeRecord(tx *entity.Transaction, rec int, w io.Writer) error {
	desc := []byte(tx.Description)
	if len(desc) > MaxDescriptionLen {
		return &errs.ParseError{
			Record: rec,
			Field:  "DESCRIPTION",
			Reason: fmt.Sprintf("description too long: %d bytes, maximum is %d", len(desc), MaxDescriptionLen),
		}
	}

	recordSize := uint64(fixedSize) + uint64(len(desc))
	if recordSize > math.MaxUint32 {
		return &errs.ParseError{Record: rec, Reason: "record size overflow when calculating total size"}
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(magic)+headerSize+len(desc)))
	buf.Write(magic[:])

	var scratch [8]byte
	binary.BigEndian.PutUint32(scratch[:4], uint32(recordSize))
	buf.Write(scratch[:4])
	binary.BigEndian.PutUint64(scratch[:], tx.TxID)
	buf.Write(scratch[:])
	buf.WriteByte(tx.Type.WireCode())
	binary.BigEndian.PutUint64(scratch[:], tx.FromUserID)
	buf.Write(scratch[:])
	binary.BigEndian.PutUint64(scratch[:], tx.ToUserID)
	buf.Write(scratch[:])
	binary.BigEndian.PutUint64(scratch[:], uint64(tx.Amount))
	buf.Write(scratch[:])
	binary.BigEndian.PutUint64(scratch[:], tx.Timestamp)
	buf.Write(scratch[:])
	buf.WriteByte(tx.Status.WireCode())
	binary.BigEndian.PutUint32(scratch[:4], uint32(len(desc)))
	buf.Write(scratch[:4])
	buf.Write(desc)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("record %d: write: %w", rec, err)
	}
	return nil
}
