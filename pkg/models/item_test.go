package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

func reviewedItem(t *testing.T, stability float64, last time.Time) Item {
	t.Helper()
	it, err := NewItem(7, 42)
	require.NoError(t, err)
	it.Stability = &stability
	it.LastReviewedAt = &last
	it.State = StateReview
	return it
}

func TestNewItem_RequiresIdentity(t *testing.T) {
	_, err := NewItem(0, 1)
	require.True(t, errors.Is(err, ErrMalformedItem))

	_, err = NewItem(1, 0)
	require.True(t, errors.Is(err, ErrMalformedItem))

	it, err := NewItem(1, 2)
	require.NoError(t, err)
	assert.True(t, it.IsNew())
	assert.Nil(t, it.Stability)
	assert.Nil(t, it.LastReviewedAt)
}

func TestElapsedDays_NeverReviewed(t *testing.T) {
	it, _ := NewItem(1, 2)
	for _, now := range []time.Time{day(-30), day(0), day(365)} {
		out, days := it.ComputeElapsedDays(now)
		assert.Equal(t, 0, days)
		assert.Equal(t, it, out)
	}
}

func TestElapsedDays_WholeDays(t *testing.T) {
	it := reviewedItem(t, 5, day(10))

	out, days := it.ComputeElapsedDays(day(15))
	assert.Equal(t, 5, days)
	assert.Equal(t, 5, out.ElapsedDays)

	_, days = it.ComputeElapsedDays(day(15).Add(23 * time.Hour))
	assert.Equal(t, 5, days, "partial days are truncated")
}

func TestElapsedDays_ClampsClockSkew(t *testing.T) {
	it := reviewedItem(t, 5, day(10))
	out, days := it.ComputeElapsedDays(day(3))
	assert.Equal(t, 0, days)
	assert.Equal(t, 0, out.ElapsedDays)
}

func TestElapsedDays_Monotone(t *testing.T) {
	it := reviewedItem(t, 5, day(0))
	prev := -1
	for h := 0; h < 24*40; h += 7 {
		_, days := it.ComputeElapsedDays(day(0).Add(time.Duration(h) * time.Hour))
		require.GreaterOrEqual(t, days, prev)
		prev = days
	}
}

func TestElapsedDays_IgnoresStaleCache(t *testing.T) {
	it := reviewedItem(t, 5, day(0))
	it.ElapsedDays = 99
	out, days := it.ComputeElapsedDays(day(2))
	assert.Equal(t, 2, days)
	assert.Equal(t, 2, out.ElapsedDays)
}

func TestElapsedDays_DoesNotMutateReceiver(t *testing.T) {
	it := reviewedItem(t, 5, day(0))
	_, _ = it.ComputeElapsedDays(day(4))
	assert.Equal(t, 0, it.ElapsedDays)
}

func TestRetrievability_NoStability(t *testing.T) {
	it, _ := NewItem(1, 2)
	last := day(0)
	it.LastReviewedAt = &last
	for _, now := range []time.Time{day(0), day(3), day(300)} {
		out, r := it.RetrievabilityAt(now)
		assert.Equal(t, 0.0, r)
		require.NotNil(t, out.Retrievability)
		assert.Equal(t, 0.0, *out.Retrievability)
	}
}

func TestRetrievability_SameDay(t *testing.T) {
	it := reviewedItem(t, 5, day(0))
	_, r := it.RetrievabilityAt(day(0).Add(20 * time.Hour))
	assert.Equal(t, SameDayRetrievability, r)
}

func TestRetrievability_AtStabilityIsNinetyPercent(t *testing.T) {
	it := reviewedItem(t, 5, day(10))
	out, r := it.RetrievabilityAt(day(15))

	want := math.Pow(1+Factor*5/5, Decay)
	assert.InDelta(t, want, r, 1e-12)
	assert.InDelta(t, 0.9, r, 1e-9)
	assert.Greater(t, r, 0.0)
	assert.Less(t, r, 1.0)
	assert.Equal(t, 5, out.ElapsedDays)
	require.NotNil(t, out.Retrievability)
	assert.InDelta(t, r, *out.Retrievability, 1e-12)
}

func TestRetrievability_DecreasesWithTime(t *testing.T) {
	it := reviewedItem(t, 8, day(0))
	prev := 1.0
	for d := 1; d <= 120; d++ {
		_, r := it.RetrievabilityAt(day(d))
		require.Less(t, r, prev, "day %d", d)
		prev = r
	}
}

func TestRetrievability_IncreasesWithStability(t *testing.T) {
	prev := 0.0
	for _, s := range []float64{0.5, 1, 2, 5, 10, 50, 200} {
		it := reviewedItem(t, s, day(0))
		_, r := it.RetrievabilityAt(day(6))
		require.Greater(t, r, prev, "stability %v", s)
		prev = r
	}
}

func TestClone_IsDeep(t *testing.T) {
	it := reviewedItem(t, 3, day(0))
	g := Good
	it.LastQuality = &g
	c := it.Clone()
	*c.Stability = 99
	*c.LastReviewedAt = day(5)
	*c.LastQuality = Again
	assert.Equal(t, 3.0, *it.Stability)
	assert.Equal(t, day(0), *it.LastReviewedAt)
	assert.Equal(t, Good, *it.LastQuality)
}

func TestIsDue(t *testing.T) {
	it, _ := NewItem(1, 2)
	assert.True(t, it.IsDue(day(0)))

	due := day(3)
	it.Due = &due
	assert.False(t, it.IsDue(day(2)))
	assert.True(t, it.IsDue(day(3)))
}
