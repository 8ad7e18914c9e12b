package diary

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateKeyLayout is the fixed, locale-independent layout of day keys, e.g. "Mar 5, 2025".
// Keys are written and parsed with this layout only.
const DateKeyLayout = "Jan 2, 2006"

// ErrInvalidDateKey indicates a day key that does not match DateKeyLayout.
var ErrInvalidDateKey = errors.New("diary: invalid date key")

// DateKey is a validated, canonical day key.
type DateKey string

// NewDateKey parses raw input and returns its canonical form.
func NewDateKey(rawInput string) (DateKey, error) {
	day, err := ParseDateKey(rawInput)
	if err != nil {
		return "", err
	}
	return DateKeyFor(day), nil
}

// DateKeyFor formats the calendar day of t.
func DateKeyFor(t time.Time) DateKey {
	return DateKey(t.Format(DateKeyLayout))
}

// ParseDateKey parses a key into midnight UTC of its calendar day.
func ParseDateKey(rawInput string) (time.Time, error) {
	day, err := time.Parse(DateKeyLayout, strings.TrimSpace(rawInput))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, rawInput)
	}
	return day.UTC(), nil
}

// String returns the underlying key.
func (key DateKey) String() string {
	return string(key)
}

// Time returns midnight UTC of the key's calendar day.
func (key DateKey) Time() (time.Time, error) {
	return ParseDateKey(string(key))
}

// History maps day keys to the logs recorded for them.
type History map[string]*DailyLog
