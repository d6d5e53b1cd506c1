package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidGrade is returned for grades outside Again..Easy.
var ErrInvalidGrade = errors.New("invalid grade")

// Grade is the learner's self-reported recall outcome for a review.
type Grade int

const (
	Again Grade = iota + 1 // failed to recall
	Hard
	Good
	Easy
)

var gradeNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

// Valid reports whether g is one of Again, Hard, Good or Easy.
func (g Grade) Valid() bool {
	return g >= Again && g <= Easy
}

// Passed reports whether the grade counts as a successful recall.
func (g Grade) Passed() bool {
	return g >= Hard && g <= Easy
}

func (g Grade) String() string {
	if g.Valid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade accepts "1".."4" or a grade name (again, hard, good, easy).
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		g := Grade(n)
		if !g.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, n)
		}
		return g, nil
	}
	for g := Again; g <= Easy; g++ {
		if gradeNames[g] == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}
