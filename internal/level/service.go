package level

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/example/langler/internal/cache"
	"github.com/example/langler/pkg/models"
)

// Namespace is the cache namespace holding summaries.
const Namespace = "level"

// ItemLister loads every item of a user.
type ItemLister interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Item, error)
}

// Service serves summaries from the cache and recomputes them on a miss.
// Concurrent misses for the same user share one computation.
type Service struct {
	items  ItemLister
	cache  *cache.Cache[Summary]
	group  singleflight.Group
	now    func() time.Time
	logger *log.Logger

	// gens counts invalidations per user. A summary computed under an older
	// generation is returned but never cached.
	mu   sync.Mutex
	gens map[int64]uint64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for cache misses.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService builds a Service reading items from items and caching
// summaries in c.
func NewService(items ItemLister, c *cache.Cache[Summary], opts ...ServiceOption) *Service {
	s := &Service{
		items:  items,
		cache:  c,
		now:    time.Now,
		logger: log.Default(),
		gens:   make(map[int64]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Summary returns the cached summary for userID or computes a fresh one.
func (s *Service) Summary(ctx context.Context, userID int64) (Summary, error) {
	key := cacheKey(userID)
	if sum, ok := s.cache.Get(key); ok {
		return sum, nil
	}

	gen := s.generation(userID)
	flight := key + ":" + strconv.FormatUint(gen, 10)
	v, err, shared := s.group.Do(flight, func() (any, error) {
		// a concurrent flight may have filled it already
		if sum, ok := s.cache.Get(key); ok {
			return sum, nil
		}
		items, err := s.items.ListByUser(ctx, userID)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to load items for user %d: %w", userID, err)
		}
		sum := Compute(userID, items, s.now())
		s.putIfCurrent(userID, gen, sum)
		return sum, nil
	})
	if err != nil {
		return Summary{}, err
	}
	s.logger.Debug("level cache miss", "user", userID, "shared", shared)
	return v.(Summary), nil
}

// Invalidate drops the cached summary of userID. Summaries still being
// computed from data read before the call are not cached.
func (s *Service) Invalidate(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	s.cache.Invalidate(cacheKey(userID))
}

func (s *Service) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

func (s *Service) putIfCurrent(userID int64, gen uint64, sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[userID] != gen {
		s.logger.Debug("level summary outdated, not cached", "user", userID)
		return
	}
	s.cache.Put(cacheKey(userID), sum)
}
