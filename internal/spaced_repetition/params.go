package spaced_repetition

import (
	"fmt"
	"math"
	"time"
)

// MinWeights is the smallest weight vector the FSRS model accepts.
const MinWeights = 17

// MaxInterval is the largest MaximumInterval accepted, in days.
const MaxInterval = 100000

// DefaultWeights are the FSRS-4.5 default weights.
var DefaultWeights = []float64{
	0.4872, 1.4003, 3.7145, 13.8206, // w[0..3]   initial stability per grade
	5.1618, 1.2298, 0.8975, 0.031, // w[4..7]   difficulty
	1.6474, 0.1367, 1.0461, // w[8..10]  recall stability
	2.1072, 0.0793, 0.3246, 1.587, // w[11..14] post-lapse stability
	0.2272, 2.8755, // w[15..16] hard penalty, easy bonus
}

// Parameters is the process-wide parameter set. It is read-only once a
// Scheduler has been built from it.
type Parameters struct {
	Weights          []float64
	DesiredRetention float64
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
	MaximumInterval  int // days
	EnableFuzz       bool
}

// DefaultParameters returns the stock parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		Weights:          append([]float64(nil), DefaultWeights...),
		DesiredRetention: 0.9,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
		MaximumInterval:  36500,
		EnableFuzz:       true,
	}
}

// Validate reports the first out-of-range value, wrapped in
// ErrInvalidParameters.
func (p Parameters) Validate() error {
	if len(p.Weights) < MinWeights {
		return fmt.Errorf("%w: need at least %d weights, got %d", ErrInvalidParameters, MinWeights, len(p.Weights))
	}
	for i, w := range p.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: w[%d] is not finite", ErrInvalidParameters, i)
		}
	}
	for i := 0; i < 4; i++ {
		if p.Weights[i] <= 0 {
			return fmt.Errorf("%w: initial stability w[%d] = %f must be positive", ErrInvalidParameters, i, p.Weights[i])
		}
	}
	if !(p.DesiredRetention > 0 && p.DesiredRetention < 1) {
		return fmt.Errorf("%w: desired retention %f not in (0, 1)", ErrInvalidParameters, p.DesiredRetention)
	}
	if err := validateSteps("learning", p.LearningSteps); err != nil {
		return err
	}
	if err := validateSteps("relearning", p.RelearningSteps); err != nil {
		return err
	}
	if p.MaximumInterval < 1 || p.MaximumInterval > MaxInterval {
		return fmt.Errorf("%w: maximum interval %d not in [1, %d]", ErrInvalidParameters, p.MaximumInterval, MaxInterval)
	}
	return nil
}

func validateSteps(name string, steps []time.Duration) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: %s steps must not be empty", ErrInvalidParameters, name)
	}
	for i, d := range steps {
		if d <= 0 {
			return fmt.Errorf("%w: %s step %d = %s must be positive", ErrInvalidParameters, name, i, d)
		}
	}
	return nil
}

func (p Parameters) clone() Parameters {
	out := p
	out.Weights = append([]float64(nil), p.Weights...)
	out.LearningSteps = append([]time.Duration(nil), p.LearningSteps...)
	out.RelearningSteps = append([]time.Duration(nil), p.RelearningSteps...)
	return out
}
