package store

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// DateLayout is how dates travel to and from the backend.
const DateLayout = "2006-01-02"

// ParseAmount reads a numeric column. Malformed or empty values become zero
// and ok is false.
func ParseAmount(s string) (amount decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDate reads a date column, accepting plain dates and RFC 3339
// timestamps. Malformed or empty values become the zero time.
func ParseDate(s string) (date time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// FormatDate writes a date column. The zero time is written empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// NormalizeAmount turns a possibly signed amount into a magnitude and
// direction. An explicit direction wins over the sign.
func NormalizeAmount(amount decimal.Decimal, dir model.Direction) (decimal.Decimal, model.Direction) {
	if !dir.Valid() {
		dir = model.DirectionCredit
		if amount.IsNegative() {
			dir = model.DirectionDebit
		}
	}
	return amount.Abs(), dir
}
