package spaced_repetition

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/example/langler/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSRS_Initial(t *testing.T) {
	m := NewFSRS(DefaultWeights)

	assert.Equal(t, 0.4872, m.InitStability(models.Again))
	assert.Equal(t, 13.8206, m.InitStability(models.Easy))
	assert.InDelta(t, 5.1618, m.InitDifficulty(models.Good), 1e-9)
	assert.InDelta(t, 5.1618-1.2298, m.InitDifficulty(models.Easy), 1e-9)
}

func TestFSRS_NextDifficultyRevertsToMean(t *testing.T) {
	m := NewFSRS(DefaultWeights)
	got := m.NextDifficulty(5, models.Good)
	assert.InDelta(t, 0.031*5.1618+0.969*5, got, 1e-9)

	assert.Greater(t, m.NextDifficulty(5, models.Again), 5.0)
	assert.Less(t, m.NextDifficulty(5, models.Easy), 5.0)
	assert.Equal(t, 10.0, m.NextDifficulty(10, models.Again))
	assert.Equal(t, 1.0, m.NextDifficulty(1, models.Easy))
}

func TestFSRS_ForgetNeverExceedsStability(t *testing.T) {
	m := NewFSRS(DefaultWeights)
	for _, s := range []float64{0.1, 0.5, 1, 3, 10, 100} {
		for _, r := range []float64{0, 0.3, 0.9, 0.99} {
			got := m.NextStability(5, s, r, models.Again)
			assert.LessOrEqual(t, got, s)
			assert.GreaterOrEqual(t, got, MinStability)
		}
	}
}

func TestFSRS_RecallGrowsWithLowerRetrievability(t *testing.T) {
	m := NewFSRS(DefaultWeights)
	early := m.NextStability(5, 10, 0.95, models.Good)
	late := m.NextStability(5, 10, 0.7, models.Good)
	assert.Greater(t, early, 10.0)
	assert.Greater(t, late, early)
}

func TestNewFSRS_CopiesWeights(t *testing.T) {
	w := append([]float64(nil), DefaultWeights...)
	m := NewFSRS(w)
	w[2] = 99
	assert.Equal(t, 3.7145, m.InitStability(models.Good))
}

func TestBandedFuzz_Delta(t *testing.T) {
	f := BandedFuzz{}
	assert.InDelta(t, 1.0, f.Delta(2.5), 1e-9)
	assert.InDelta(t, 1.075, f.Delta(3), 1e-9)
	assert.InDelta(t, 1.975, f.Delta(10), 1e-9)
	assert.InDelta(t, 4.475, f.Delta(50), 1e-9)
}

func TestBandedFuzz_Window(t *testing.T) {
	f := BandedFuzz{}
	rng := rand.New(rand.NewPCG(7, 7))

	assert.Equal(t, 2, f.Fuzz(2, 100, rng))
	assert.Equal(t, 1, f.Fuzz(1, 100, rng))

	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		got := f.Fuzz(10, 36500, rng)
		require.GreaterOrEqual(t, got, 8)
		require.LessOrEqual(t, got, 12)
		seen[got] = true
	}
	assert.Len(t, seen, 5)

	for i := 0; i < 200; i++ {
		got := f.Fuzz(50, 48, rng)
		require.GreaterOrEqual(t, got, 46)
		require.LessOrEqual(t, got, 48)

		got = f.Fuzz(3, 3, rng)
		require.GreaterOrEqual(t, got, 2)
		require.LessOrEqual(t, got, 3)
	}
}

func TestFuzzSource_Deterministic(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)
	a := fuzzSource(1, 2, now).Uint64()
	b := fuzzSource(1, 2, now).Uint64()
	c := fuzzSource(1, 3, now).Uint64()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func ptr[T any](v T) *T { return &v }

func TestNextDue_Ordering(t *testing.T) {
	now := t0.AddDate(0, 0, 30)

	fresh := models.Item{UserID: 1, WordID: 1}
	weak := models.Item{UserID: 1, WordID: 2, State: models.StateReview,
		Stability: ptr(2.0), Difficulty: ptr(5.0),
		LastReviewedAt: ptr(t0), Due: ptr(t0.AddDate(0, 0, 2))}
	strong := models.Item{UserID: 1, WordID: 3, State: models.StateReview,
		Stability: ptr(40.0), Difficulty: ptr(5.0),
		LastReviewedAt: ptr(t0), Due: ptr(now.Add(-time.Hour))}
	notYet := models.Item{UserID: 1, WordID: 4, State: models.StateReview,
		Stability: ptr(40.0), Difficulty: ptr(5.0),
		LastReviewedAt: ptr(t0), Due: ptr(now.Add(time.Hour))}

	got := NextDue([]models.Item{strong, notYet, weak, fresh}, now, 0)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].WordID)
	assert.Equal(t, int64(2), got[1].WordID)
	assert.Equal(t, int64(3), got[2].WordID)

	require.NotNil(t, got[1].Retrievability)
	assert.Equal(t, 30, got[1].ElapsedDays)
	assert.Nil(t, strong.Retrievability)

	assert.Len(t, NextDue([]models.Item{strong, notYet, weak, fresh}, now, 2), 2)
	assert.Empty(t, NextDue(nil, now, 10))
}

func TestNextDue_TieBreaksOnDue(t *testing.T) {
	now := t0.AddDate(0, 0, 10)
	mk := func(id int64, due time.Time) models.Item {
		return models.Item{UserID: 1, WordID: id, State: models.StateReview,
			Stability: ptr(10.0), Difficulty: ptr(5.0),
			LastReviewedAt: ptr(t0), Due: ptr(due)}
	}
	got := NextDue([]models.Item{mk(1, now), mk(2, t0.AddDate(0, 0, 5))}, now, 0)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].WordID)
}

func TestIsMastered(t *testing.T) {
	it := models.Item{UserID: 1, WordID: 1, State: models.StateReview, Stability: ptr(21.0)}
	assert.True(t, IsMastered(it))

	it.Stability = ptr(20.9)
	assert.False(t, IsMastered(it))

	it.Stability = ptr(100.0)
	it.State = models.StateRelearning
	assert.False(t, IsMastered(it))

	assert.False(t, IsMastered(models.Item{UserID: 1, WordID: 1}))
}
