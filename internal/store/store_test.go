package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/model"
)

func TestChunk(t *testing.T) {
	ids := make([]int, 250)
	for i := range ids {
		ids[i] = i
	}

	chunks := Chunk(ids, 100)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
	assert.Equal(t, 100, chunks[1][0])

	assert.Nil(t, Chunk([]string{}, 100))
	assert.Len(t, Chunk([]string{"a", "b"}, 0), 1)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"12.34", "12.34", true},
		{" -5 ", "-5", true},
		{"", "0", false},
		{"abc", "0", false},
		{"1,50", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.input)
		assert.Equal(t, tt.ok, ok, "ParseAmount(%q)", tt.input)
		assert.Equal(t, tt.want, got.String(), "ParseAmount(%q)", tt.input)
	}
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2025-03-09")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseDate("2025-03-09T15:04:05-03:00")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseDate("09/03/2025")
	assert.False(t, ok)
	assert.True(t, d.IsZero())

	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "2025-03-09", FormatDate(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		amount  string
		dir     model.Direction
		wantAmt string
		wantDir model.Direction
	}{
		{"-10", "", "10", model.DirectionDebit},
		{"10", "", "10", model.DirectionCredit},
		{"-10", model.DirectionCredit, "10", model.DirectionCredit},
		{"10", model.DirectionDebit, "10", model.DirectionDebit},
	}
	for _, tt := range tests {
		amt, dir := NormalizeAmount(decimal.RequireFromString(tt.amount), tt.dir)
		assert.Equal(t, tt.wantAmt, amt.String())
		assert.Equal(t, tt.wantDir, dir)
	}
}

func TestTransactionsInChunks(t *testing.T) {
	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("bank-%03d", i)
	}

	var sizes []int
	fetch := func(_ context.Context, f TransactionFilter) ([]model.Transaction, error) {
		sizes = append(sizes, len(f.BankIDs))
		assert.Equal(t, "c-1", f.CompanyID)
		// one row per batch, dated so batches come back out of order
		day := 10 - len(sizes)
		return []model.Transaction{{ID: f.BankIDs[0], BankID: f.BankIDs[0], Date: time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)}}, nil
	}

	txns, err := TransactionsInChunks(context.Background(), TransactionFilter{CompanyID: "c-1", BankIDs: ids}, 100, fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 50}, sizes)
	require.Len(t, txns, 3)
	assert.Equal(t, "bank-200", txns[0].ID)
	assert.Equal(t, "bank-100", txns[1].ID)
	assert.Equal(t, "bank-000", txns[2].ID)

	sizes = nil
	_, err = TransactionsInChunks(context.Background(), TransactionFilter{CompanyID: "c-1"}, 100, func(ctx context.Context, f TransactionFilter) ([]model.Transaction, error) {
		sizes = append(sizes, len(f.BankIDs))
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, sizes)

	boom := errors.New("boom")
	_, err = TransactionsInChunks(context.Background(), TransactionFilter{CompanyID: "c-1", BankIDs: ids}, 100, func(context.Context, TransactionFilter) ([]model.Transaction, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}
