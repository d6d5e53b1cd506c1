// Package level estimates a learner's vocabulary from the memory state of
// their items.
package level

import (
	"time"

	"github.com/example/langler/internal/spaced_repetition"
	"github.com/example/langler/pkg/models"
)

// Summary is the per-user vocabulary aggregate.
type Summary struct {
	UserID                int64     `json:"user_id"`
	Total                 int       `json:"total"`
	New                   int       `json:"new"`
	Learning              int       `json:"learning"`
	Review                int       `json:"review"`
	Relearning            int       `json:"relearning"`
	Mastered              int       `json:"mastered"`
	Due                   int       `json:"due"`
	EstimatedVocabulary   float64   `json:"estimated_vocabulary"` // sum of retrievability
	AverageRetrievability float64   `json:"average_retrievability"`
	Level                 string    `json:"level"`
	ComputedAt            time.Time `json:"computed_at"`
}

// CEFR bands by estimated vocabulary size.
var bands = []struct {
	below float64
	name  string
}{
	{500, "A1"},
	{1000, "A2"},
	{2000, "B1"},
	{4000, "B2"},
	{8000, "C1"},
}

// LevelFor maps an estimated vocabulary size onto a CEFR band.
func LevelFor(estimated float64) string {
	for _, b := range bands {
		if estimated < b.below {
			return b.name
		}
	}
	return "C2"
}

// Compute aggregates items as of now. Retrievability is recomputed for every
// item rather than read from the stored value.
func Compute(userID int64, items []models.Item, now time.Time) Summary {
	s := Summary{UserID: userID, Total: len(items), ComputedAt: now}
	reviewed := 0
	for _, it := range items {
		switch it.State {
		case models.StateLearning:
			s.Learning++
		case models.StateReview:
			s.Review++
		case models.StateRelearning:
			s.Relearning++
		default:
			s.New++
		}
		if spaced_repetition.IsMastered(it) {
			s.Mastered++
		}
		if it.IsDue(now) {
			s.Due++
		}
		if it.Stability == nil {
			continue
		}
		_, r := it.RetrievabilityAt(now)
		s.EstimatedVocabulary += r
		reviewed++
	}
	if reviewed > 0 {
		s.AverageRetrievability = s.EstimatedVocabulary / float64(reviewed)
	}
	s.Level = LevelFor(s.EstimatedVocabulary)
	return s
}
