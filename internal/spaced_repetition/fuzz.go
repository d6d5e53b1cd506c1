package spaced_repetition

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fuzzer perturbs a review interval so items graded together do not all
// come due on the same day.
type Fuzzer interface {
	Fuzz(interval, maximum int, rng *rand.Rand) int
}

type fuzzBand struct {
	start, end float64
	factor     float64
}

var fuzzBands = []fuzzBand{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// BandedFuzz widens the fuzz window with the interval length: 15% of the
// part between 2.5 and 7 days, 10% up to 20 days and 5% beyond.
type BandedFuzz struct{}

// Delta returns the half-width of the fuzz window for an interval.
func (BandedFuzz) Delta(interval float64) float64 {
	delta := 1.0
	for _, b := range fuzzBands {
		delta += b.factor * math.Max(math.Min(interval, b.end)-b.start, 0)
	}
	return delta
}

// Fuzz returns an interval drawn uniformly from the fuzz window. Intervals
// shorter than 2.5 days are returned unchanged.
func (f BandedFuzz) Fuzz(interval, maximum int, rng *rand.Rand) int {
	if float64(interval) < 2.5 {
		return interval
	}
	ivl := float64(interval)
	delta := f.Delta(ivl)

	lo := max(2, int(math.Round(ivl-delta)))
	hi := min(int(math.Round(ivl+delta)), maximum)
	lo = min(lo, hi)
	return lo + rng.IntN(hi-lo+1)
}

// fuzzSource seeds a generator from the item identity and review instant so
// that reviewing the same item at the same moment always fuzzes alike.
func fuzzSource(userID, wordID int64, now time.Time) *rand.Rand {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(userID))
	binary.LittleEndian.PutUint64(buf[8:], uint64(wordID))
	return rand.New(rand.NewPCG(xxhash.Sum64(buf[:]), uint64(now.UnixNano())))
}
