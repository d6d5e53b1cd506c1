package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/langler/pkg/models"
)

// MasteredStability is the stability, in days, from which a word in Review
// counts as mastered.
const MasteredStability = 21.0

// NextDue returns up to limit items due at now, most urgent first:
// never-reviewed items, then lowest retrievability, then the most overdue.
// A non-positive limit returns every due item. Returned items carry
// retrievability refreshed as of now.
func NextDue(items []models.Item, now time.Time, limit int) []models.Item {
	type ranked struct {
		item models.Item
		r    float64
	}
	var due []ranked
	for _, it := range items {
		if !it.IsDue(now) {
			continue
		}
		fresh, r := it.RetrievabilityAt(now)
		due = append(due, ranked{item: fresh, r: r})
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		// Сначала слова, которые ещё ни разу не повторялись
		if a.item.IsNew() != b.item.IsNew() {
			return a.item.IsNew()
		}
		if a.r != b.r {
			return a.r < b.r
		}
		switch {
		case a.item.Due == nil || b.item.Due == nil:
			return a.item.Due == nil && b.item.Due != nil
		default:
			return a.item.Due.Before(*b.item.Due)
		}
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]models.Item, len(due))
	for i, d := range due {
		out[i] = d.item
	}
	return out
}

// IsMastered reports whether a word has settled into long-term review.
func IsMastered(it models.Item) bool {
	return it.State == models.StateReview &&
		it.Stability != nil &&
		*it.Stability >= MasteredStability
}
