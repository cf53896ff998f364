package futures

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// ValidationError describes one problem with a future entry.
type ValidationError struct {
	Field       string
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Description)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Field, e.EntryID, e.Description)
}

// ValidationErrors is every problem found in one entry.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, ve := range v {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// CommitmentChecker looks up hierarchy nodes referenced by a classification.
type CommitmentChecker interface {
	Type(id string) (model.CommitmentType, bool)
	Group(id string) (model.CommitmentGroup, bool)
	Commitment(id string) (model.Commitment, bool)
}

var hundred = decimal.NewFromInt(100)

// Validate checks an entry's editable fields. h may be nil, which skips the
// classification checks.
func Validate(e model.FutureEntry, h CommitmentChecker) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, EntryID: e.ID, Description: fmt.Sprintf(format, args...)})
	}

	if !e.Amount.IsPositive() {
		add("amount", "must be positive, got %s", e.Amount)
	} else if !e.Amount.Mul(hundred).Equal(e.Amount.Mul(hundred).Floor()) {
		add("amount", "%s has more than 2 decimal places", e.Amount)
	}

	if e.DueDate.IsZero() {
		add("due_date", "is required")
	}

	if !e.Type.Valid() {
		add("type", "must be %s or %s, got %q", model.EntryPayable, model.EntryReceivable, e.Type)
	}

	if strings.TrimSpace(e.Description) == "" {
		add("description", "is required")
	}

	if h != nil {
		c := e.Classification
		if c.TypeID != "" {
			if _, ok := h.Type(c.TypeID); !ok {
				add("classification", "unknown commitment type %q", c.TypeID)
			}
		}
		if c.GroupID != "" {
			if _, ok := h.Group(c.GroupID); !ok {
				add("classification", "unknown commitment group %q", c.GroupID)
			}
		}
		if c.CommitmentID != "" {
			if _, ok := h.Commitment(c.CommitmentID); !ok {
				add("classification", "unknown commitment %q", c.CommitmentID)
			}
		}
	}

	return errs
}
