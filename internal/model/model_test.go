package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionSigned(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionCredit, "10.5"},
		{DirectionDebit, "-10.5"},
	}
	for _, tt := range tests {
		txn := Transaction{Amount: decimal.RequireFromString("10.50"), Direction: tt.dir}
		assert.Equal(t, tt.want, txn.Signed().String(), "Signed() for %s", tt.dir)
	}
}

func TestFutureEntryProjects(t *testing.T) {
	tests := []struct {
		status   EntryStatus
		projects bool
		closed   bool
	}{
		{"", true, false},
		{StatusPending, true, false},
		{StatusSettled, false, true},
		{StatusCancelled, false, true},
	}
	for _, tt := range tests {
		f := FutureEntry{Status: tt.status}
		assert.Equal(t, tt.projects, f.Projects(), "Projects() for %q", tt.status)
		assert.Equal(t, tt.closed, f.Closed(), "Closed() for %q", tt.status)
	}
}

func TestFutureEntrySigned(t *testing.T) {
	pay := FutureEntry{Amount: decimal.NewFromInt(30), Type: EntryPayable}
	rec := FutureEntry{Amount: decimal.NewFromInt(30), Type: EntryReceivable}
	assert.Equal(t, "-30", pay.Signed().String())
	assert.Equal(t, "30", rec.Signed().String())
}

func TestClassificationIsZero(t *testing.T) {
	assert.True(t, Classification{}.IsZero())
	assert.True(t, Classification{TypeName: "orphan name"}.IsZero())
	assert.False(t, Classification{CommitmentID: "c1"}.IsZero())
}

func TestValidEnums(t *testing.T) {
	assert.True(t, DirectionCredit.Valid())
	assert.False(t, Direction("sideways").Valid())
	assert.True(t, EntryReceivable.Valid())
	assert.False(t, EntryType("").Valid())
}
