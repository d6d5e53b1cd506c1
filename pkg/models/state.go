package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"fmt"
	"strings"
)

// State is the lifecycle stage of an item.
type State int

const (
	// StateUnspecified marks an item that has never been reviewed.
	StateUnspecified State = iota
	StateLearning
	StateReview
	StateRelearning
)

var stateNames = [...]string{
	StateUnspecified: "",
	StateLearning:    "learning",
	StateReview:      "review",
	StateRelearning:  "relearning",
}

var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
	_ sql.Scanner              = (*State)(nil)
	_ driver.Valuer            = State(0)
)

// ParseState maps textual state values onto State. Unknown, empty or
// malformed input yields StateUnspecified; it never fails.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "learning":
		return StateLearning
	case "review":
		return StateReview
	case "relearning":
		return StateRelearning
	default:
		return StateUnspecified
	}
}

// Valid reports whether s is one of the three defined lifecycle states.
func (s State) Valid() bool {
	return s >= StateLearning && s <= StateRelearning
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return "new"
}

// MarshalText implements encoding.TextMarshaler. The unspecified state
// marshals to an empty string.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return []byte{}, nil
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseState.
func (s *State) UnmarshalText(text []byte) error {
	*s = ParseState(string(text))
	return nil
}

// Scan implements sql.Scanner. NULL and unrecognized values scan as
// StateUnspecified.
func (s *State) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = StateUnspecified
	case string:
		*s = ParseState(v)
	case []byte:
		*s = ParseState(string(v))
	default:
		*s = StateUnspecified
	}
	return nil
}

// Value implements driver.Valuer. The unspecified state is stored as NULL.
func (s State) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, nil
	}
	return stateNames[s], nil
}
