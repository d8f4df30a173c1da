package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Half-open time interval for statement bucketing
// =============================================================================

// Period is the half-open interval [Start, End). A record with timestamp
// exactly at End belongs to the NEXT period, never to both. This is what
// makes adjacent-period statements additive: every record falls into
// exactly one bucket.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Validate returns ErrInvalidPeriod when End is not after Start.
func (p Period) Validate() error {
	if !p.End.After(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Next returns the adjacent period of the same length starting at End.
func (p Period) Next() Period {
	return Period{Start: p.End, End: p.End.Add(p.End.Sub(p.Start))}
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start.UTC().Format(time.RFC3339), p.End.UTC().Format(time.RFC3339))
}

// MonthlyPeriod returns the calendar month as a half-open period:
// [first of month, first of next month). December rolls into January of
// the following year.
func MonthlyPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// SinceEpoch returns the period covering everything through asOf, used for
// cumulative balance-sheet figures.
func SinceEpoch(asOf time.Time) Period {
	return Period{Start: time.Unix(0, 0).UTC(), End: asOf}
}
