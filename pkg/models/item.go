package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedItem is returned when an item lacks its user or word identity.
var ErrMalformedItem = errors.New("malformed item")

// Decay is the exponent of the power-law forgetting curve.
const Decay = -0.5

// Factor is chosen so that retrievability is exactly 0.9 when the elapsed
// days equal the stability.
var Factor = math.Pow(0.9, 1/Decay) - 1

// SameDayRetrievability is reported for items reviewed less than a day ago.
const SameDayRetrievability = 0.99

// Item tracks one user's memory state for one word under FSRS.
type Item struct {
	UserID         int64      `json:"user_id" db:"user_id"`
	WordID         int64      `json:"word_id" db:"word_id"`
	Stability      *float64   `json:"stability" db:"stability"`           // days until recall drops to 90%
	Difficulty     *float64   `json:"difficulty" db:"difficulty"`         // 1-10
	Retrievability *float64   `json:"retrievability" db:"retrievability"` // last computed, not authoritative
	ElapsedDays    int        `json:"elapsed_days" db:"elapsed_days"`
	Interval       int        `json:"interval" db:"interval_days"` // days until due
	Step           *int       `json:"step" db:"step"`              // nil outside learning/relearning
	Due            *time.Time `json:"due" db:"due"`
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	LastQuality    *Grade     `json:"last_quality" db:"last_quality"`
	State          State      `json:"state" db:"state"`
}

// NewItem returns an unreviewed item for the given user and word.
func NewItem(userID, wordID int64) (Item, error) {
	it := Item{UserID: userID, WordID: wordID}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Validate checks that both identity fields are present.
func (it Item) Validate() error {
	if it.UserID == 0 {
		return fmt.Errorf("%w: missing user id", ErrMalformedItem)
	}
	if it.WordID == 0 {
		return fmt.Errorf("%w: missing word id", ErrMalformedItem)
	}
	return nil
}

// IsNew reports whether the item has not entered the lifecycle yet.
func (it Item) IsNew() bool {
	return !it.State.Valid()
}

// ComputeElapsedDays returns the whole days between the last review and now, and a
// copy of the item with the cached ElapsedDays field set. Items that were
// never reviewed report 0 and are returned unchanged. A now earlier than
// the last review clamps to 0.
func (it Item) ComputeElapsedDays(now time.Time) (Item, int) {
	if it.LastReviewedAt == nil {
		return it, 0
	}
	days := int(now.Sub(*it.LastReviewedAt) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	out := it.Clone()
	out.ElapsedDays = days
	return out, days
}

// RetrievabilityAt returns the probability of recall as of now, and a copy of
// the item with ElapsedDays and Retrievability refreshed.
func (it Item) RetrievabilityAt(now time.Time) (Item, float64) {
	out, days := it.ComputeElapsedDays(now)
	var r float64
	switch {
	case out.Stability == nil:
		r = 0
	case days == 0:
		r = SameDayRetrievability
	default:
		r = ForgettingCurve(float64(days), *out.Stability)
	}
	out = out.Clone()
	out.Retrievability = &r
	return out, r
}

// ForgettingCurve evaluates (1 + Factor*t/S)^Decay.
func ForgettingCurve(elapsedDays, stability float64) float64 {
	return math.Pow(1+Factor*elapsedDays/stability, Decay)
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Stability != nil {
		v := *it.Stability
		out.Stability = &v
	}
	if it.Difficulty != nil {
		v := *it.Difficulty
		out.Difficulty = &v
	}
	if it.Retrievability != nil {
		v := *it.Retrievability
		out.Retrievability = &v
	}
	if it.Step != nil {
		v := *it.Step
		out.Step = &v
	}
	if it.Due != nil {
		v := *it.Due
		out.Due = &v
	}
	if it.LastReviewedAt != nil {
		v := *it.LastReviewedAt
		out.LastReviewedAt = &v
	}
	if it.LastQuality != nil {
		v := *it.LastQuality
		out.LastQuality = &v
	}
	return out
}

// IsDue reports whether the item should be reviewed at now. New items are
// always due.
func (it Item) IsDue(now time.Time) bool {
	return it.Due == nil || !it.Due.After(now)
}
