package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/langler/pkg/models"
)

// ReviewLogRepository is the append-only history of graded reviews.
type ReviewLogRepository struct {
	db *sqlx.DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Append stores l, assigning a fresh id when l.ID is empty. It returns the
// stored record.
func (r *ReviewLogRepository) Append(ctx context.Context, l models.ReviewLog) (models.ReviewLog, error) {
	return appendLog(ctx, r.db, l)
}

// AppendWithItem saves it and appends l in one transaction. On error
// neither is stored.
func (r *ReviewLogRepository) AppendWithItem(ctx context.Context, it models.Item, l models.ReviewLog) (models.ReviewLog, error) {
	var stored models.ReviewLog
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := saveItem(ctx, tx, it); err != nil {
			return err
		}
		var err error
		stored, err = appendLog(ctx, tx, l)
		return err
	})
	if err != nil {
		return models.ReviewLog{}, err
	}
	return stored, nil
}

func appendLog(ctx context.Context, q queryer, l models.ReviewLog) (models.ReviewLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.ReviewedAt = l.ReviewedAt.UTC()

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO review_logs (id, user_id, word_id, grade, state, reviewed_at,
			elapsed_days, interval_days, stability, difficulty)
		VALUES (:id, :user_id, :word_id, :grade, :state, :reviewed_at,
			:elapsed_days, :interval_days, :stability, :difficulty)`, l)
	if err != nil {
		return models.ReviewLog{}, fmt.Errorf("failed to append review log: %w", err)
	}
	return l, nil
}

// ListForItem returns the logs of one item, oldest first.
func (r *ReviewLogRepository) ListForItem(ctx context.Context, userID, wordID int64) ([]models.ReviewLog, error) {
	logs := []models.ReviewLog{}
	query := r.db.Rebind(`
		SELECT id, user_id, word_id, grade, state, reviewed_at,
			elapsed_days, interval_days, stability, difficulty
		FROM review_logs
		WHERE user_id = ? AND word_id = ?
		ORDER BY reviewed_at`)
	if err := r.db.SelectContext(ctx, &logs, query, userID, wordID); err != nil {
		return nil, fmt.Errorf("failed to list review logs: %w", err)
	}
	return logs, nil
}
