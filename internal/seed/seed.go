// Package seed derives the weekly plinko seed (YYYYWW) and classifies
// seeds relative to the current week.
package seed

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalid reports a seed string that is not a 4-digit year followed by
// a numeric ISO week in [1,53].
var ErrInvalid = errors.New("invalid seed")

// Seed identifies one calendar week: the calendar year paired with the
// ISO-8601 week number. The prediction files are authored against this
// convention (calendar year, not ISO year), so the last days of December
// can carry week 1 of the following ISO cycle under the old year.
type Seed struct {
	Year int
	Week int
}

// Current returns the seed for the week containing now.
func Current(now time.Time) Seed {
	_, week := now.ISOWeek()
	return Seed{Year: now.Year(), Week: week}
}

// Parse parses a YYYYWW seed string.
func Parse(s string) (Seed, error) {
	if len(s) < 5 || len(s) > 6 {
		return Seed{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Seed{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	week, err := strconv.Atoi(s[4:])
	if err != nil {
		return Seed{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if week < 1 || week > 53 {
		return Seed{}, fmt.Errorf("%w: week %d out of range", ErrInvalid, week)
	}
	return Seed{Year: year, Week: week}, nil
}

// String renders the seed as YYYYWW with a zero-padded week.
func (s Seed) String() string {
	return fmt.Sprintf("%04d%02d", s.Year, s.Week)
}

// Value is the comparable year*100+week form.
func (s Seed) Value() int { return s.Year*100 + s.Week }

// Date returns the Monday the seed's week starts on: the first Monday on
// or after January 1 of the seed year, advanced by week-1 whole weeks.
// When January 1 is itself a Monday, week 1 starts on January 1 exactly.
func (s Seed) Date() time.Time {
	d := time.Date(s.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, (s.Week-1)*7)
}

// Status classifies a seed's week relative to now.
type Status int

const (
	StatusCurrent Status = iota
	StatusPast
	StatusFuture
	StatusUnknown
)

func (st Status) String() string {
	switch st {
	case StatusCurrent:
		return "current"
	case StatusPast:
		return "past"
	case StatusFuture:
		return "future"
	default:
		return "unknown"
	}
}

// Status compares the seed's week against the week containing now.
func (s Seed) Status(now time.Time) Status {
	cur := Current(now)
	switch {
	case s.Value() == cur.Value():
		return StatusCurrent
	case s.Value() < cur.Value():
		return StatusPast
	default:
		return StatusFuture
	}
}

// Classify parses raw and classifies it against now. An unparseable seed
// classifies as StatusUnknown so display logic can degrade (hide the game)
// instead of failing the whole run.
func Classify(raw string, now time.Time) Status {
	s, err := Parse(raw)
	if err != nil {
		return StatusUnknown
	}
	return s.Status(now)
}
