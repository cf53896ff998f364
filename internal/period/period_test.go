package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthString(t *testing.T) {
	tests := []struct {
		year, month int
		want        string
	}{
		{2025, 1, "2025-01"},
		{2025, 12, "2025-12"},
		{999, 3, "0999-03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewMonth(tt.year, tt.month).String())
	}
}

func TestMonthDays(t *testing.T) {
	tests := []struct {
		month Month
		want  int
	}{
		{NewMonth(2025, 1), 31},
		{NewMonth(2025, 2), 28},
		{NewMonth(2024, 2), 29},
		{NewMonth(2025, 4), 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.month.Days(), "Days() for %s", tt.month)
	}
}

func TestMonthNext(t *testing.T) {
	assert.Equal(t, NewMonth(2025, 2), NewMonth(2025, 1).Next())
	assert.Equal(t, NewMonth(2026, 1), NewMonth(2025, 12).Next())
}

func TestMonthContains(t *testing.T) {
	m := NewMonth(2025, 3)
	assert.True(t, m.Contains(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Time{}))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-07")
	require.NoError(t, err)
	assert.Equal(t, 2025, m.Year)
	assert.Equal(t, time.July, m.Month)

	for _, bad := range []string{"", "2025", "2025-13", "2025-00", "abcd-01", "2025-xx"} {
		_, err := ParseMonth(bad)
		assert.Error(t, err, "ParseMonth(%q)", bad)
	}
}

func TestParseMonthsSortsAndDedupes(t *testing.T) {
	months, err := ParseMonths([]string{"2025-03", "2024-12", "2025-03", "2025-01"})
	require.NoError(t, err)
	assert.Equal(t, []Month{NewMonth(2024, 12), NewMonth(2025, 1), NewMonth(2025, 3)}, months)
}

func TestYearMonths(t *testing.T) {
	months := YearMonths(2025)
	require.Len(t, months, 12)
	assert.Equal(t, "2025-01", months[0].String())
	assert.Equal(t, "2025-12", months[11].String())
}

func TestParseDayRange(t *testing.T) {
	tests := []struct {
		input string
		want  DayRange
		err   bool
	}{
		{"", FullMonth, false},
		{"10-20", DayRange{10, 20}, false},
		{" 1-31 ", DayRange{1, 31}, false},
		{"20-10", DayRange{}, true},
		{"0-5", DayRange{}, true},
		{"5-32", DayRange{}, true},
		{"5", DayRange{}, true},
		{"a-b", DayRange{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDayRange(tt.input)
		if tt.err {
			assert.Error(t, err, "ParseDayRange(%q)", tt.input)
			continue
		}
		require.NoError(t, err, "ParseDayRange(%q)", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestDayRangeClamp(t *testing.T) {
	start, end := DayRange{10, 31}.Clamp(28)
	assert.Equal(t, 10, start)
	assert.Equal(t, 28, end)

	start, end = DayRange{}.Clamp(30)
	assert.Equal(t, 1, start)
	assert.Equal(t, 30, end)
}

func TestDayRangeContains(t *testing.T) {
	r := DayRange{10, 20}
	assert.False(t, r.Contains(9))
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(21))
	assert.True(t, DayRange{}.Contains(1))
}
