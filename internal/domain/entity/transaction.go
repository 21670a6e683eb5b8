package entity

import (
	"fmt"

	errs "github.com/ypbank/txcodec/internal/domain/error"
)

// TransactionType classifies the direction of money movement
type TransactionType string

// Transaction types
const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeTransfer   TransactionType = "TRANSFER"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// TransactionStatus defines possible status values for a transaction
type TransactionStatus string

// Transaction statuses
const (
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailure TransactionStatus = "FAILURE"
	StatusPending TransactionStatus = "PENDING"
)

// Transaction is the canonical in-memory record shared by all codecs.
// Amount is in minor currency units (cents) and may be negative when the
// record was read from a signed source; Timestamp is milliseconds since
// the Unix epoch. Values are treated as immutable once constructed.
type Transaction struct {
	TxID        uint64            // Unique identifier, not deduplicated across a file
	Type        TransactionType   // Direction of money movement
	FromUserID  uint64            // Sender (0 for deposits)
	ToUserID    uint64            // Receiver (0 for withdrawals)
	Amount      int64             // Minor currency units
	Timestamp   uint64            // Milliseconds since Unix epoch
	Status      TransactionStatus // Outcome of the transaction
	Description string            // Free-form UTF-8 text
}

// IsValid reports whether the type is one of the allowed values
func (t TransactionType) IsValid() bool {
	return t == TypeDeposit || t == TypeTransfer || t == TypeWithdrawal
}

// IsValid reports whether the status is one of the allowed values
func (s TransactionStatus) IsValid() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusPending
}

// WireCode returns the single-byte encoding used by the binary format
func (t TransactionType) WireCode() byte {
	switch t {
	case TypeDeposit:
		return 0
	case TypeTransfer:
		return 1
	default:
		return 2
	}
}

// WireCode returns the single-byte encoding used by the binary format
func (s TransactionStatus) WireCode() byte {
	switch s {
	case StatusSuccess:
		return 0
	case StatusFailure:
		return 1
	default:
		return 2
	}
}

// TypeFromWireCode maps a binary type byte back to its enum value
func TypeFromWireCode(b byte) (TransactionType, bool) {
	switch b {
	case 0:
		return TypeDeposit, true
	case 1:
		return TypeTransfer, true
	case 2:
		return TypeWithdrawal, true
	}
	return "", false
}

// StatusFromWireCode maps a binary status byte back to its enum value
func StatusFromWireCode(b byte) (TransactionStatus, bool) {
	switch b {
	case 0:
		return StatusSuccess, true
	case 1:
		return StatusFailure, true
	case 2:
		return StatusPending, true
	}
	return "", false
}

// ParseTransactionType parses an exact uppercase token into a type
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(s)
	if t.IsValid() {
		return t, true
	}
	return "", false
}

// ParseTransactionStatus parses an exact uppercase token into a status
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	st := TransactionStatus(s)
	if st.IsValid() {
		return st, true
	}
	return "", false
}

// ValidateParticipants enforces the per-type participant rules:
// deposits have no sender, withdrawals have no receiver, and transfers
// name both ends. The textual codecs call this on read; the binary
// codec is a byte-faithful transport and deliberately does not.
func (t *Transaction) ValidateParticipants() error {
	switch t.Type {
	case TypeDeposit:
		if t.FromUserID != 0 {
			return &errs.ValidationError{
				Field:  "FROM_USER_ID",
				Reason: fmt.Sprintf("DEPOSIT must have FROM_USER_ID = 0, got %d", t.FromUserID),
			}
		}
	case TypeWithdrawal:
		if t.ToUserID != 0 {
			return &errs.ValidationError{
				Field:  "TO_USER_ID",
				Reason: fmt.Sprintf("WITHDRAWAL must have TO_USER_ID = 0, got %d", t.ToUserID),
			}
		}
	case TypeTransfer:
		if t.FromUserID == 0 {
			return &errs.ValidationError{
				Field:  "FROM_USER_ID",
				Reason: "TRANSFER cannot have FROM_USER_ID = 0",
			}
		}
		if t.ToUserID == 0 {
			return &errs.ValidationError{
				Field:  "TO_USER_ID",
				Reason: "TRANSFER cannot have TO_USER_ID = 0",
			}
		}
	}
	return nil
}
