package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/langler/pkg/models"
)

const itemColumns = `user_id, word_id, stability, difficulty, retrievability, elapsed_days,
	interval_days, step, due, last_reviewed_at, last_quality, state`

// ItemRepository stores the memory state of (user, word) pairs.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Get returns the item of userID for wordID, or ErrNotFound.
func (r *ItemRepository) Get(ctx context.Context, userID, wordID int64) (models.Item, error) {
	var it models.Item
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE user_id = ? AND word_id = ?`)
	if err := r.db.GetContext(ctx, &it, query, userID, wordID); err != nil {
		return models.Item{}, notFound(err, fmt.Sprintf("item %d/%d", userID, wordID))
	}
	return it, nil
}

// Save inserts the item or replaces the stored state of the same pair.
func (r *ItemRepository) Save(ctx context.Context, it models.Item) error {
	return saveItem(ctx, r.db, it)
}

func saveItem(ctx context.Context, q queryer, it models.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	row := it.Clone()
	row.Due = utc(row.Due)
	row.LastReviewedAt = utc(row.LastReviewedAt)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (:user_id, :word_id, :stability, :difficulty, :retrievability, :elapsed_days,
			:interval_days, :step, :due, :last_reviewed_at, :last_quality, :state)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			retrievability = excluded.retrievability,
			elapsed_days = excluded.elapsed_days,
			interval_days = excluded.interval_days,
			step = excluded.step,
			due = excluded.due,
			last_reviewed_at = excluded.last_reviewed_at,
			last_quality = excluded.last_quality,
			state = excluded.state`, row)
	if err != nil {
		return fmt.Errorf("failed to save item %d/%d: %w", it.UserID, it.WordID, err)
	}
	return nil
}

// ListByUser returns every item of userID ordered by word.
func (r *ItemRepository) ListByUser(ctx context.Context, userID int64) ([]models.Item, error) {
	items := []models.Item{}
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE user_id = ? ORDER BY word_id`)
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListDue returns the items of userID that are due at now, including items
// that were never scheduled.
func (r *ItemRepository) ListDue(ctx context.Context, userID int64, now time.Time) ([]models.Item, error) {
	items := []models.Item{}
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items
		WHERE user_id = ? AND (due IS NULL OR due <= ?)
		ORDER BY due`)
	if err := r.db.SelectContext(ctx, &items, query, userID, now.UTC()); err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}
	return items, nil
}

// CountDue returns how many items of userID are due at now.
func (r *ItemRepository) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM items WHERE user_id = ? AND (due IS NULL OR due <= ?)`)
	if err := r.db.GetContext(ctx, &n, query, userID, now.UTC()); err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", err)
	}
	return n, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
