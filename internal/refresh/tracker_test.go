package refresh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginCancelsPreviousFetch(t *testing.T) {
	tr := NewTracker()
	scope := Scope{CompanyID: "c1", View: "cashflow"}

	first, tok1, done1 := tr.Begin(context.Background(), scope)
	defer done1()
	second, tok2, done2 := tr.Begin(context.Background(), scope)
	defer done2()

	require.Error(t, first.Err())
	assert.ErrorIs(t, context.Cause(first), ErrSuperseded)
	assert.NoError(t, second.Err())

	assert.False(t, tr.Valid(tok1))
	assert.True(t, tr.Valid(tok2))
}

func TestBeginKeepsOtherViews(t *testing.T) {
	tr := NewTracker()

	a, _, doneA := tr.Begin(context.Background(), Scope{CompanyID: "c1", View: "cashflow"})
	defer doneA()
	_, _, doneB := tr.Begin(context.Background(), Scope{CompanyID: "c1", View: "dre"})
	defer doneB()

	assert.NoError(t, a.Err())
}

func TestInvalidate(t *testing.T) {
	tr := NewTracker()
	scope := Scope{CompanyID: "c1", View: "dre"}

	ctx, tok, done := tr.Begin(context.Background(), scope)
	defer done()
	other, otherTok, doneOther := tr.Begin(context.Background(), Scope{CompanyID: "c2", View: "dre"})
	defer doneOther()

	assert.Equal(t, uint64(1), tr.Invalidate("c1"))
	assert.Equal(t, uint64(1), tr.Version("c1"))
	assert.Zero(t, tr.Version("c2"))

	assert.True(t, errors.Is(context.Cause(ctx), ErrInvalidated))
	assert.False(t, tr.Valid(tok))

	assert.NoError(t, other.Err())
	assert.True(t, tr.Valid(otherTok))
}

func TestDoneReleasesContext(t *testing.T) {
	tr := NewTracker()
	scope := Scope{CompanyID: "c1"}

	ctx, tok, done := tr.Begin(context.Background(), scope)
	done()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	// a finished fetch stays valid until something changes
	assert.True(t, tr.Valid(tok))

	tr.Invalidate("c1")
	assert.False(t, tr.Valid(tok))

	_, tok2, done2 := tr.Begin(context.Background(), scope)
	defer done2()
	assert.Equal(t, uint64(1), tok2.Version)
}

func TestParentCancellation(t *testing.T) {
	tr := NewTracker()
	parent, cancel := context.WithCancel(context.Background())

	ctx, _, done := tr.Begin(parent, Scope{CompanyID: "c1"})
	defer done()
	cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "c1", Scope{CompanyID: "c1"}.String())
	assert.Equal(t, "c1/dre", Scope{CompanyID: "c1", View: "dre"}.String())
}
