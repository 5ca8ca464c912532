package dateutil

import "testing"

import "github.com/stretchr/testify/assert"

func TestWeekdayMondayZero(t *testing.T) {
	mon := MustParse("2025-01-06")
	assert.Equal(t, 0, mon.Weekday())
	sun := MustParse("2025-01-05")
	assert.Equal(t, 6, sun.Weekday())
}

func TestIsWeekend(t *testing.T) {
	sat := MustParse("2025-01-04")
	sun := MustParse("2025-01-05")
	mon := MustParse("2025-01-06")
	assert.True(t, sat.IsWeekend())
	assert.True(t, sun.IsWeekend())
	assert.False(t, mon.IsWeekend())
}

func TestSubAndAddDays(t *testing.T) {
	a := MustParse("2025-01-01")
	b := a.AddDays(14)
	assert.Equal(t, 14, b.Sub(a))
	assert.Equal(t, -14, a.Sub(b))
}

func TestRangeInclusive(t *testing.T) {
	start := MustParse("2025-01-01")
	end := MustParse("2025-01-07")
	days := Range(start, end)
	assert.Len(t, days, 7)
	assert.True(t, days[0].Equal(start))
	assert.True(t, days[len(days)-1].Equal(end))
}

func TestRangeEmptyWhenReversed(t *testing.T) {
	start := MustParse("2025-01-07")
	end := MustParse("2025-01-01")
	assert.Empty(t, Range(start, end))
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse("not-a-date")
	assert.Error(t, err)
}
