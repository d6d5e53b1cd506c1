package spaced_repetition

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/example/langler/pkg/models"
)

// Scheduler computes the next memory state of an item after a review.
// It holds no mutable state and is safe for concurrent use.
type Scheduler struct {
	params Parameters
	model  MemoryModel
	fuzzer Fuzzer
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithModel replaces the FSRS memory model.
func WithModel(m MemoryModel) Option {
	return func(s *Scheduler) { s.model = m }
}

// WithFuzzer replaces the banded interval fuzz.
func WithFuzzer(f Fuzzer) Option {
	return func(s *Scheduler) { s.fuzzer = f }
}

// NewScheduler validates p and returns a Scheduler using it.
func NewScheduler(p Parameters, opts ...Option) (*Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.clone()
	s := &Scheduler{
		params: p,
		model:  NewFSRS(p.Weights),
		fuzzer: BandedFuzz{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Parameters returns a copy of the scheduler's parameter set.
func (s *Scheduler) Parameters() Parameters {
	return s.params.clone()
}

// Review applies grade to item as of now and returns the resulting item.
// The input item is not modified.
func (s *Scheduler) Review(item models.Item, grade models.Grade, now time.Time) (models.Item, error) {
	if !grade.Valid() {
		return models.Item{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}
	if err := item.Validate(); err != nil {
		return models.Item{}, err
	}

	next, r := item.RetrievabilityAt(now)
	s.updateMemory(&next, grade, r)

	switch next.State {
	case models.StateLearning:
		s.stepTransition(&next, grade, now, s.params.LearningSteps)
	case models.StateRelearning:
		s.stepTransition(&next, grade, now, s.params.RelearningSteps)
	case models.StateReview:
		s.reviewTransition(&next, grade, now)
	default:
		next.State = models.StateLearning
		next.Step = nil
		s.stepTransition(&next, grade, now, s.params.LearningSteps)
	}

	reviewedAt := now
	quality := grade
	next.LastReviewedAt = &reviewedAt
	next.LastQuality = &quality
	return next, nil
}

// Preview returns the outcome of every grade without committing to one.
func (s *Scheduler) Preview(item models.Item, now time.Time) (map[models.Grade]models.Item, error) {
	out := make(map[models.Grade]models.Item, 4)
	for g := models.Again; g <= models.Easy; g++ {
		next, err := s.Review(item, g, now)
		if err != nil {
			return nil, err
		}
		out[g] = next
	}
	return out, nil
}

// Reschedule replays logs on top of item in chronological order. Passing a
// fresh item rebuilds the memory state from history alone.
func (s *Scheduler) Reschedule(item models.Item, logs []models.ReviewLog) (models.Item, error) {
	ordered := append([]models.ReviewLog(nil), logs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReviewedAt.Before(ordered[j].ReviewedAt)
	})

	cur := item.Clone()
	for _, l := range ordered {
		if l.UserID != item.UserID || l.WordID != item.WordID {
			return models.Item{}, fmt.Errorf("%w: item %d/%d, log %d/%d",
				ErrLogMismatch, item.UserID, item.WordID, l.UserID, l.WordID)
		}
		next, err := s.Review(cur, l.Grade, l.ReviewedAt)
		if err != nil {
			return models.Item{}, err
		}
		cur = next
	}
	return cur, nil
}

// NextInterval inverts the forgetting curve: the whole number of days after
// which retrievability falls to the desired retention, clamped to
// [1, MaximumInterval]. No fuzz is applied.
func (s *Scheduler) NextInterval(stability float64) int {
	ivl := stability / models.Factor * (math.Pow(s.params.DesiredRetention, 1/models.Decay) - 1)
	// clamp before converting, huge stabilities overflow int
	ivl = math.Min(math.Max(math.Round(ivl), 1), float64(s.params.MaximumInterval))
	return int(ivl)
}

func (s *Scheduler) clampInterval(days int) int {
	if days < 1 {
		return 1
	}
	if days > s.params.MaximumInterval {
		return s.params.MaximumInterval
	}
	return days
}

func (s *Scheduler) updateMemory(it *models.Item, g models.Grade, r float64) {
	if it.Stability == nil || it.Difficulty == nil {
		stability := math.Max(s.model.InitStability(g), MinStability)
		difficulty := s.model.InitDifficulty(g)
		it.Stability = &stability
		it.Difficulty = &difficulty
		return
	}

	d, st := *it.Difficulty, *it.Stability
	stability := math.Max(s.model.NextStability(d, st, r, g), MinStability)
	difficulty := s.model.NextDifficulty(d, g)
	it.Stability = &stability
	it.Difficulty = &difficulty
}

// stepTransition handles Learning and Relearning. A failure restarts the
// sequence, a pass advances one step and graduates past the last one.
func (s *Scheduler) stepTransition(it *models.Item, g models.Grade, now time.Time, steps []time.Duration) {
	step := 0
	if it.Step != nil && *it.Step > 0 {
		step = *it.Step
	}

	if g == models.Again {
		s.enterStep(it, 0, now, steps)
		return
	}

	next := step + 1
	if next >= len(steps) {
		s.graduate(it, now)
		return
	}
	s.enterStep(it, next, now, steps)
}

func (s *Scheduler) reviewTransition(it *models.Item, g models.Grade, now time.Time) {
	if g == models.Again {
		it.State = models.StateRelearning
		s.enterStep(it, 0, now, s.params.RelearningSteps)
		return
	}
	s.graduate(it, now)
}

func (s *Scheduler) enterStep(it *models.Item, step int, now time.Time, steps []time.Duration) {
	due := now.Add(steps[step])
	it.Step = &step
	it.Interval = 0
	it.Due = &due
}

// graduate moves the item into (or keeps it in) Review with an interval
// derived from its stability.
func (s *Scheduler) graduate(it *models.Item, now time.Time) {
	days := s.NextInterval(*it.Stability)
	if s.params.EnableFuzz {
		rng := fuzzSource(it.UserID, it.WordID, now)
		days = s.clampInterval(s.fuzzer.Fuzz(days, s.params.MaximumInterval, rng))
	}
	due := now.AddDate(0, 0, days)
	it.State = models.StateReview
	it.Step = nil
	it.Interval = days
	it.Due = &due
}
