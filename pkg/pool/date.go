package pool

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultCenturyPivot resolves two-digit years: values below the pivot are
// in the 2000s, values at or above it in the 1900s. 69 matches POSIX
// strptime %y, so "05/24/38" is 2038 and "12/31/69" is 1969.
const DefaultCenturyPivot = 69

const isoLayout = "2006-01-02"

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the Date of t in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses MM/DD/YYYY, MM/DD/YY or YYYY-MM-DD using
// DefaultCenturyPivot for two-digit years.
func ParseDate(s string) (Date, error) {
	return ParseDateWithPivot(s, DefaultCenturyPivot)
}

// ParseDateWithPivot is ParseDate with an explicit century pivot in [0,100].
func ParseDateWithPivot(s string, pivot int) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}

	if strings.Contains(s, "-") {
		t, err := time.Parse(isoLayout, s)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
		return NewDate(t), nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: expected MM/DD/YY or MM/DD/YYYY", s)
	}

	month, err := number(parts[0], 1, 2)
	if err != nil {
		return Date{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	day, err := number(parts[1], 1, 2)
	if err != nil {
		return Date{}, fmt.Errorf("invalid day in %q: %w", s, err)
	}

	var year int
	switch len(parts[2]) {
	case 2:
		yy, err := number(parts[2], 2, 2)
		if err != nil {
			return Date{}, fmt.Errorf("invalid year in %q: %w", s, err)
		}
		year = expandYear(yy, pivot)
	case 4:
		year, err = number(parts[2], 4, 4)
		if err != nil {
			return Date{}, fmt.Errorf("invalid year in %q: %w", s, err)
		}
	default:
		return Date{}, fmt.Errorf("invalid year in %q: expected 2 or 4 digits", s)
	}

	d := Date{Year: year, Month: time.Month(month), Day: day}
	if month < 1 || month > 12 || NewDate(d.Time()) != d {
		return Date{}, fmt.Errorf("invalid date %q: no such calendar day", s)
	}
	return d, nil
}

func expandYear(yy, pivot int) int {
	if yy < pivot {
		return 2000 + yy
	}
	return 1900 + yy
}

func number(s string, minDigits, maxDigits int) (int, error) {
	if len(s) < minDigits || len(s) > maxDigits {
		return 0, fmt.Errorf("%q has wrong length", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a number", s)
		}
	}
	return strconv.Atoi(s)
}
