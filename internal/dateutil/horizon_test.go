package dateutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHorizonPostsOnFallsThrough(t *testing.T) {
	h := NewHorizon(
		MustParse("2025-01-01"), MustParse("2025-01-31"),
		3,
		[]ShiftOverride{{From: MustParse("2025-01-10"), To: MustParse("2025-01-12"), Posts: 5}},
		nil,
	)
	require.NoError(t, h.Validate())
	assert.Equal(t, 3, h.PostsOn(MustParse("2025-01-01")))
	assert.Equal(t, 5, h.PostsOn(MustParse("2025-01-11")))
	assert.Equal(t, 3, h.PostsOn(MustParse("2025-01-13")))
}

func TestHorizonOverlappingOverridesIsConfigError(t *testing.T) {
	h := NewHorizon(
		MustParse("2025-01-01"), MustParse("2025-01-31"),
		3,
		[]ShiftOverride{
			{From: MustParse("2025-01-10"), To: MustParse("2025-01-15"), Posts: 5},
			{From: MustParse("2025-01-12"), To: MustParse("2025-01-20"), Posts: 2},
		},
		nil,
	)
	err := h.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already claimed")
}

func TestHolidayDoesNotOverridePostsButCountsForWeekendCap(t *testing.T) {
	holiday := MustParse("2025-01-15") // a Wednesday
	h := NewHorizon(
		MustParse("2025-01-01"), MustParse("2025-01-31"),
		4,
		[]ShiftOverride{{From: holiday, To: holiday, Posts: 2}},
		[]Date{holiday},
	)
	require.NoError(t, h.Validate())
	assert.Equal(t, 2, h.PostsOn(holiday))
	assert.True(t, h.IsWeekendOrHoliday(holiday))
	assert.False(t, holiday.IsWeekend())
}
