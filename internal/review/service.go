// Package review records graded reviews: it runs the scheduler, persists
// the new memory state and its history, and drops the learner's cached
// level.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/langler/internal/database"
	"github.com/example/langler/internal/spaced_repetition"
	"github.com/example/langler/pkg/models"
)

var reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "langler_reviews_total",
	Help: "Total recorded reviews by grade",
}, []string{"grade"})

// ItemStore persists items.
type ItemStore interface {
	Get(ctx context.Context, userID, wordID int64) (models.Item, error)
	Save(ctx context.Context, it models.Item) error
	ListByUser(ctx context.Context, userID int64) ([]models.Item, error)
	ListDue(ctx context.Context, userID int64, now time.Time) ([]models.Item, error)
}

// LogStore persists review history. AppendWithItem stores the reviewed
// item and its log entry atomically.
type LogStore interface {
	AppendWithItem(ctx context.Context, it models.Item, l models.ReviewLog) (models.ReviewLog, error)
	ListForItem(ctx context.Context, userID, wordID int64) ([]models.ReviewLog, error)
}

// Invalidator drops cached aggregates of a user.
type Invalidator interface {
	Invalidate(userID int64)
}

// Service wires the scheduler to storage.
type Service struct {
	scheduler   *spaced_repetition.Scheduler
	items       ItemStore
	logs        LogStore
	invalidator Invalidator
	logger      *log.Logger
}

// NewService builds a Service. A nil logger falls back to log.Default().
func NewService(s *spaced_repetition.Scheduler, items ItemStore, logs LogStore, inv Invalidator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{scheduler: s, items: items, logs: logs, invalidator: inv, logger: logger}
}

// Record applies grade to the user's item for wordID at now. A missing item
// starts as new. Invalid grades and malformed items are returned as is and
// nothing is stored.
func (s *Service) Record(ctx context.Context, userID, wordID int64, grade models.Grade, now time.Time) (models.Item, error) {
	item, err := s.load(ctx, userID, wordID)
	if err != nil {
		return models.Item{}, err
	}

	next, err := s.scheduler.Review(item, grade, now)
	if err != nil {
		return models.Item{}, err
	}
	entry := models.ReviewLog{
		UserID:      userID,
		WordID:      wordID,
		Grade:       grade,
		State:       item.State,
		ReviewedAt:  now,
		ElapsedDays: next.ElapsedDays,
		Interval:    next.Interval,
		Stability:   *next.Stability,
		Difficulty:  *next.Difficulty,
	}
	if _, err := s.logs.AppendWithItem(ctx, next, entry); err != nil {
		return models.Item{}, err
	}

	s.invalidator.Invalidate(userID)
	reviewsTotal.WithLabelValues(grade.String()).Inc()
	s.logger.Debug("review recorded", "user", userID, "word", wordID, "grade", grade,
		"state", next.State, "interval", next.Interval)
	return next, nil
}

// Preview returns what each grade would do to the user's item for wordID
// without storing anything.
func (s *Service) Preview(ctx context.Context, userID, wordID int64, now time.Time) (map[models.Grade]models.Item, error) {
	item, err := s.load(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}
	return s.scheduler.Preview(item, now)
}

// Enroll adds new items for the words the user does not study yet and
// returns how many were added.
func (s *Service) Enroll(ctx context.Context, userID int64, wordIDs []int64, now time.Time) (int, error) {
	added := 0
	for _, id := range wordIDs {
		_, err := s.items.Get(ctx, userID, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return added, err
		}

		it, err := models.NewItem(userID, id)
		if err != nil {
			return added, err
		}
		due := now
		it.Due = &due
		if err := s.items.Save(ctx, it); err != nil {
			return added, err
		}
		added++
	}
	if added > 0 {
		s.invalidator.Invalidate(userID)
		s.logger.Info("words enrolled", "user", userID, "count", added)
	}
	return added, nil
}

// Queue returns up to limit due items of the user, most urgent first.
func (s *Service) Queue(ctx context.Context, userID int64, now time.Time, limit int) ([]models.Item, error) {
	due, err := s.items.ListDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return spaced_repetition.NextDue(due, now, limit), nil
}

// Replay rebuilds the item from its review history with the current
// parameters and stores the result.
func (s *Service) Replay(ctx context.Context, userID, wordID int64) (models.Item, error) {
	logs, err := s.logs.ListForItem(ctx, userID, wordID)
	if err != nil {
		return models.Item{}, err
	}
	fresh, err := models.NewItem(userID, wordID)
	if err != nil {
		return models.Item{}, err
	}
	next, err := s.scheduler.Reschedule(fresh, logs)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to replay item %d/%d: %w", userID, wordID, err)
	}
	if err := s.items.Save(ctx, next); err != nil {
		return models.Item{}, err
	}
	s.invalidator.Invalidate(userID)
	s.logger.Info("item replayed", "user", userID, "word", wordID, "reviews", len(logs))
	return next, nil
}

func (s *Service) load(ctx context.Context, userID, wordID int64) (models.Item, error) {
	item, err := s.items.Get(ctx, userID, wordID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Item{UserID: userID, WordID: wordID}, nil
	}
	return item, err
}
