package spaced_repetition

import (
	"math"

	"github.com/example/langler/pkg/models"
)

// MinStability is the floor applied to every stability the scheduler stores.
const MinStability = 0.01

// MemoryModel computes how stability and difficulty evolve with each review.
// Implementations must keep Review's round trip to the desired retention:
// the scheduler inverts models.ForgettingCurve to pick review intervals.
type MemoryModel interface {
	InitStability(g models.Grade) float64
	InitDifficulty(g models.Grade) float64
	NextDifficulty(d float64, g models.Grade) float64
	NextStability(d, s, r float64, g models.Grade) float64
}

// FSRS is the FSRS-4.5 memory model driven by a weight vector.
type FSRS struct {
	w []float64
}

// NewFSRS builds the model from validated weights.
func NewFSRS(weights []float64) *FSRS {
	return &FSRS{w: append([]float64(nil), weights...)}
}

// InitStability returns S0(G) = w[G-1].
func (m *FSRS) InitStability(g models.Grade) float64 {
	return math.Max(m.w[g-1], MinStability)
}

// InitDifficulty returns D0(G) = w[4] - w[5]*(G-3), clamped to [1, 10].
func (m *FSRS) InitDifficulty(g models.Grade) float64 {
	return clampDifficulty(m.w[4] - m.w[5]*(float64(g)-3))
}

// NextDifficulty applies the grade delta and then mean-reverts towards
// D0(Good) by w[7].
func (m *FSRS) NextDifficulty(d float64, g models.Grade) float64 {
	next := d - m.w[6]*(float64(g)-3)
	reverted := m.w[7]*m.InitDifficulty(models.Good) + (1-m.w[7])*next
	return clampDifficulty(reverted)
}

// NextStability returns the post-review stability given the retrievability
// observed at review time.
func (m *FSRS) NextStability(d, s, r float64, g models.Grade) float64 {
	if g == models.Again {
		return m.forgetStability(d, s, r)
	}
	return m.recallStability(d, s, r, g)
}

// S'r = S * (1 + e^w8 * (11-D) * S^-w9 * (e^((1-R)*w10) - 1) * hard * easy)
func (m *FSRS) recallStability(d, s, r float64, g models.Grade) float64 {
	hardPenalty := 1.0
	if g == models.Hard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if g == models.Easy {
		easyBonus = m.w[16]
	}
	next := s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)*
		hardPenalty*easyBonus)
	return math.Max(next, MinStability)
}

// S'f = w11 * D^-w12 * ((S+1)^w13 - 1) * e^((1-R)*w14), never above S.
func (m *FSRS) forgetStability(d, s, r float64) float64 {
	next := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	return math.Max(math.Min(next, s), MinStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
