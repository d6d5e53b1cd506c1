package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/example/langler/pkg/models"
)

// WordRepository handles database operations for words
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// Create inserts a word unless one with the same text exists, and returns
// the stored row either way. Text is trimmed and lower-cased.
func (r *WordRepository) Create(ctx context.Context, text, translation string) (models.Word, error) {
	text = normalizeText(text)
	if text == "" {
		return models.Word{}, fmt.Errorf("failed to create word: empty text")
	}

	query := r.db.Rebind(`
		INSERT INTO words (text, translation) VALUES (?, ?)
		ON CONFLICT (text) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, text, strings.TrimSpace(translation)); err != nil {
		return models.Word{}, fmt.Errorf("failed to create word: %w", err)
	}
	return r.GetByText(ctx, text)
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(ctx context.Context, id int64) (models.Word, error) {
	var w models.Word
	query := r.db.Rebind(`SELECT id, text, translation, created_at FROM words WHERE id = ?`)
	if err := r.db.GetContext(ctx, &w, query, id); err != nil {
		return models.Word{}, notFound(err, fmt.Sprintf("word %d", id))
	}
	return w, nil
}

// GetByText returns a word by its text, matched the way Create stores it.
func (r *WordRepository) GetByText(ctx context.Context, text string) (models.Word, error) {
	var w models.Word
	query := r.db.Rebind(`SELECT id, text, translation, created_at FROM words WHERE text = ?`)
	if err := r.db.GetContext(ctx, &w, query, normalizeText(text)); err != nil {
		return models.Word{}, notFound(err, fmt.Sprintf("word %q", text))
	}
	return w, nil
}

// ByIDs returns the words with the given ids keyed by id. Unknown ids are
// skipped.
func (r *WordRepository) ByIDs(ctx context.Context, ids []int64) (map[int64]models.Word, error) {
	out := make(map[int64]models.Word, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, text, translation, created_at FROM words WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build word query: %w", err)
	}
	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}
	for _, w := range words {
		out[w.ID] = w
	}
	return out, nil
}

// TextsByID returns word texts keyed by id.
func (r *WordRepository) TextsByID(ctx context.Context, ids []int64) (map[int64]string, error) {
	words, err := r.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(words))
	for id, w := range words {
		out[id] = w.Text
	}
	return out, nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
