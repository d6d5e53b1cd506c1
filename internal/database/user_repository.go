package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/langler/pkg/models"
)

const userColumns = `telegram_id, username, first_name, notification_enabled,
	notification_hour, words_per_day, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user or refreshes the profile fields of an existing
// one. Notification settings of an existing user are left alone.
func (r *UserRepository) Upsert(ctx context.Context, u models.User) error {
	if u.WordsPerDay <= 0 {
		u.WordsPerDay = 20
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, notification_enabled, notification_hour, words_per_day)
		VALUES (:telegram_id, :username, :first_name, :notification_enabled, :notification_hour, :words_per_day)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name`, u)
	if err != nil {
		return fmt.Errorf("failed to create/update user: %w", err)
	}
	return nil
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`)
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		return models.User{}, notFound(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

// UsersForNotification returns users who have notifications enabled for the
// given hour of day.
func (r *UserRepository) UsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	users := []models.User{}
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY telegram_id`)
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}
