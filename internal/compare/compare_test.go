package compare

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ypbank/txcodec/internal/domain/entity"
)

func testTransaction(id uint64) entity.Transaction {
	return entity.Transaction{
		TxID:        id,
		Type:        entity.TypeDeposit,
		FromUserID:  0,
		ToUserID:    501,
		Amount:      50000,
		Timestamp:   1672531200000,
		Status:      entity.StatusSuccess,
		Description: fmt.Sprintf("Test transaction %d", id),
	}
}

func TestEqualBasic(t *testing.T) {
	a := testTransaction(1001)
	b := testTransaction(1001)

	assert.True(t, Equal(&a, &b, Options{}))
}

func TestEqualIgnoreDescription(t *testing.T) {
	a := testTransaction(1001)
	b := testTransaction(1001)
	a.Description = "Description 1"
	b.Description = "Description 2"

	assert.False(t, Equal(&a, &b, Options{}))
	assert.True(t, Equal(&a, &b, Options{IgnoreDescription: true}))
}

func TestEqualIgnoreStatus(t *testing.T) {
	a := testTransaction(1001)
	b := testTransaction(1001)
	a.Status = entity.StatusSuccess
	b.Status = entity.StatusFailure

	assert.False(t, Equal(&a, &b, Options{}))
	assert.True(t, Equal(&a, &b, Options{IgnoreStatus: true}))
}

func TestNotEqualDifferentID(t *testing.T) {
	a := testTransaction(1001)
	b := testTransaction(1002)

	assert.False(t, Equal(&a, &b, Options{IgnoreStatus: true, IgnoreDescription: true}))
}

func TestDiffNamesBothValues(t *testing.T) {
	a := testTransaction(1001)
	b := testTransaction(1001)
	b.Amount = 60000
	b.Description = "Different"

	diffs := Diff(&a, &b, Options{})
	require.Len(t, diffs, 2)

	assert.Equal(t, FieldDiff{Field: "AMOUNT", Got: "50000", Want: "60000"}, diffs[0])
	assert.Equal(t, "DESCRIPTION", diffs[1].Field)
	assert.Equal(t, "Test transaction 1001", diffs[1].Got)
	assert.Equal(t, "Different", diffs[1].Want)
}

func TestDiffAllFields(t *testing.T) {
	a := testTransaction(1001)
	b := entity.Transaction{
		TxID:        2002,
		Type:        entity.TypeTransfer,
		FromUserID:  7,
		ToUserID:    8,
		Amount:      1,
		Timestamp:   2,
		Status:      entity.StatusPending,
		Description: "other",
	}

	diffs := Diff(&a, &b, Options{})
	require.Len(t, diffs, 8)
	assert.Equal(t, "TX_ID", diffs[0].Field)
	assert.Equal(t, "DESCRIPTION", diffs[7].Field)
}

func TestCompareIdentical(t *testing.T) {
	list := []entity.Transaction{testTransaction(1001), testTransaction(1002)}

	report := Compare(list, list, Options{})
	assert.True(t, report.Identical)
	assert.False(t, report.CountMismatch)
	assert.Equal(t, 2, report.IdenticalCount)
	assert.Empty(t, report.Mismatches)
}

func TestCompareEmptyLists(t *testing.T) {
	report := Compare(nil, nil, Options{})
	assert.True(t, report.Identical)
	assert.Equal(t, 0, report.Count1)
	assert.Equal(t, 0, report.Count2)
}

func TestCompareCountMismatch(t *testing.T) {
	list1 := []entity.Transaction{testTransaction(1001), testTransaction(1002)}
	list2 := []entity.Transaction{testTransaction(1001)}

	report := Compare(list1, list2, Options{})
	assert.False(t, report.Identical)
	assert.True(t, report.CountMismatch)
	assert.Equal(t, 2, report.Count1)
	assert.Equal(t, 1, report.Count2)
	assert.Empty(t, report.Mismatches)
}

func TestCompareMismatches(t *testing.T) {
	list1 := []entity.Transaction{testTransaction(1001), testTransaction(1002), testTransaction(1003)}
	list2 := []entity.Transaction{testTransaction(1001), testTransaction(1002), testTransaction(1003)}
	list2[1].Amount = 99999

	report := Compare(list1, list2, Options{})
	assert.False(t, report.Identical)
	assert.Equal(t, 2, report.IdenticalCount)
	require.Len(t, report.Mismatches, 1)

	m := report.Mismatches[0]
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, uint64(1002), m.TxID)
	require.Len(t, m.Fields, 1)
	assert.Equal(t, "AMOUNT", m.Fields[0].Field)
}
