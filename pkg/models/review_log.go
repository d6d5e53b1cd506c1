package models

import "time"

// ReviewLog records a single graded review of an item. State holds the
// lifecycle state the item was in before the review.
type ReviewLog struct {
	ID          string    `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	WordID      int64     `json:"word_id" db:"word_id"`
	Grade       Grade     `json:"grade" db:"grade"`
	State       State     `json:"state" db:"state"`
	ReviewedAt  time.Time `json:"reviewed_at" db:"reviewed_at"`
	ElapsedDays int       `json:"elapsed_days" db:"elapsed_days"`
	Interval    int       `json:"interval" db:"interval_days"`
	Stability   float64   `json:"stability" db:"stability"`
	Difficulty  float64   `json:"difficulty" db:"difficulty"`
}
