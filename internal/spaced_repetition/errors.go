package spaced_repetition

import (
	"errors"

	"github.com/example/langler/pkg/models"
)

// Errors reported by the scheduler. Check with errors.Is.
var (
	ErrInvalidGrade      = models.ErrInvalidGrade
	ErrInvalidParameters = errors.New("fsrs parameters out of bounds")
	ErrLogMismatch       = errors.New("review log belongs to another item")
)
