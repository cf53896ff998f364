package period

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Month is a calendar year-month key like "2025-01".
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth returns the Month for year and month (1-12).
func NewMonth(year, month int) Month {
	return Month{Year: year, Month: time.Month(month)}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as "2025-01".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.First().AddDate(0, 1, -1).Day()
}

// First returns midnight UTC on the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Day returns midnight UTC on the given day of the month.
func (m Month) Day(day int) time.Time {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Contains reports whether t falls inside the month. The zero time never does.
func (m Month) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return t.Year() == m.Year && t.Month() == m.Month
}

// ParseMonth parses "2025-01" into a Month.
func ParseMonth(s string) (Month, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("invalid year in month %q: %w", s, err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month in %q: %d out of range", s, month)
	}

	return NewMonth(year, month), nil
}

// ParseMonths parses a list of month keys, dropping duplicates and sorting them.
func ParseMonths(keys []string) ([]Month, error) {
	seen := make(map[Month]bool, len(keys))
	var months []Month
	for _, k := range keys {
		m, err := ParseMonth(k)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	Sort(months)
	return months, nil
}

// Sort orders months chronologically.
func Sort(months []Month) {
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
}

// YearMonths returns January through December of year.
func YearMonths(year int) []Month {
	months := make([]Month, 12)
	for i := range months {
		months[i] = NewMonth(year, i+1)
	}
	return months
}

// DayRange is an inclusive day-of-month range. The zero value means the whole month.
type DayRange struct {
	Start int
	End   int
}

// FullMonth covers every day of any month.
var FullMonth = DayRange{Start: 1, End: 31}

// ParseDayRange parses "10-20". An empty string is the whole month.
func ParseDayRange(s string) (DayRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FullMonth, nil
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return DayRange{}, fmt.Errorf("invalid day range %q: want START-END", s)
	}

	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return DayRange{}, fmt.Errorf("invalid start day in %q: %w", s, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return DayRange{}, fmt.Errorf("invalid end day in %q: %w", s, err)
	}

	r := DayRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DayRange{}, err
	}
	return r, nil
}

// Validate checks 1 <= start <= end <= 31.
func (r DayRange) Validate() error {
	if r.Start < 1 || r.End > 31 || r.Start > r.End {
		return fmt.Errorf("invalid day range %d-%d", r.Start, r.End)
	}
	return nil
}

// Clamp returns the range bounded to a month with the given number of days.
func (r DayRange) Clamp(days int) (start, end int) {
	if r == (DayRange{}) {
		return 1, days
	}
	start, end = max(r.Start, 1), min(r.End, days)
	return start, end
}

// Contains reports whether day is inside the range.
func (r DayRange) Contains(day int) bool {
	if r == (DayRange{}) {
		return true
	}
	return day >= r.Start && day <= r.End
}

// String formats the range as "10-20".
func (r DayRange) String() string {
	if r == (DayRange{}) {
		return FullMonth.String()
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
