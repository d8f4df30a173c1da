package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mow/finance-engine/ledger"
)

func TestPeriod_Contains_HalfOpen(t *testing.T) {
	// A record at exactly End belongs to the next period, never to both.

	p := ledger.MonthlyPeriod(2025, time.January)

	assert.True(t, p.Contains(p.Start), "start is inclusive")
	assert.False(t, p.Contains(p.End), "end is exclusive")
	assert.True(t, p.Contains(p.End.Add(-time.Nanosecond)))
	assert.False(t, p.Contains(p.Start.Add(-time.Nanosecond)))

	next := ledger.MonthlyPeriod(2025, time.February)
	assert.True(t, next.Contains(p.End), "boundary record falls into the next bucket")
}

func TestMonthlyPeriod_DecemberRollsIntoJanuary(t *testing.T) {
	p := ledger.MonthlyPeriod(2025, time.December)

	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), p.End)
}

func TestMonthlyPeriod_MonthLengths(t *testing.T) {
	feb := ledger.MonthlyPeriod(2024, time.February) // leap year
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), feb.End)

	feb25 := ledger.MonthlyPeriod(2025, time.February)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), feb25.End)
}

func TestPeriod_Validate(t *testing.T) {
	ok := ledger.MonthlyPeriod(2025, time.June)
	assert.NoError(t, ok.Validate())

	empty := ledger.Period{Start: ok.Start, End: ok.Start}
	assert.ErrorIs(t, empty.Validate(), ledger.ErrInvalidPeriod)

	inverted := ledger.Period{Start: ok.End, End: ok.Start}
	assert.ErrorIs(t, inverted.Validate(), ledger.ErrInvalidPeriod)
}

func TestPeriod_Next_IsAdjacentAndSameLength(t *testing.T) {
	p := ledger.Period{
		Start: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC),
	}
	n := p.Next()
	assert.Equal(t, p.End, n.Start)
	assert.Equal(t, p.End.Sub(p.Start), n.End.Sub(n.Start))
}
