package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("UTC"))
	assert.True(t, IsValid("Asia/Dubai"))
	assert.True(t, IsValid("America/New_York"))
	assert.False(t, IsValid("Invalid/Timezone"))
	assert.False(t, IsValid(""))
}

func TestDateInBucketsAcrossZones(t *testing.T) {
	// 23:30 UTC on May 10 is already May 11 in Dubai but still May 10 in New York.
	instant := time.Date(2025, 5, 10, 23, 30, 0, 0, time.UTC)

	dubai, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC), DateIn(instant, dubai))
	assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), DateIn(instant, newYork))
	assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), DateIn(instant, time.UTC))
}

func TestNormalizeDropsTimeOfDay(t *testing.T) {
	in := time.Date(2025, 5, 10, 17, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), Normalize(in))
}

func TestLocalDateFallsBackToUTC(t *testing.T) {
	now := time.Now().UTC()
	got := LocalDate("Invalid/Timezone")
	assert.Equal(t, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), got)
}

func TestNextMidnight(t *testing.T) {
	dubai, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)

	from := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) // 16:00 in Dubai
	next := NextMidnight("Asia/Dubai", from)
	assert.Equal(t, time.Date(2025, 5, 11, 0, 0, 0, 0, dubai), next)
	assert.True(t, next.After(from))
}

func TestLocalTimeString(t *testing.T) {
	at := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-05-10 08:00:00 EDT", LocalTimeString("America/New_York", at))
}
