package timestamp

import "time"

// EnsureFuture returns candidate when it is strictly after previous, and
// previous plus one second otherwise. A zero candidate counts as absent.
func EnsureFuture(previous, candidate time.Time) time.Time {
	if candidate.IsZero() || !candidate.After(previous) {
		return previous.Add(time.Second)
	}
	return candidate
}

// Sequencer hands out strictly increasing instants.
type Sequencer struct {
	last time.Time
}

// NewSequencer starts a sequence after base.
func NewSequencer(base time.Time) *Sequencer {
	return &Sequencer{last: base}
}

// Last returns the most recently emitted instant, or the base.
func (s *Sequencer) Last() time.Time { return s.last }

// Next emits the next instant for candidate.
func (s *Sequencer) Next(candidate time.Time) time.Time {
	s.last = EnsureFuture(s.last, candidate)
	return s.last
}

// Fold maps candidates onto a sequence strictly increasing from base.
func Fold(base time.Time, candidates []time.Time) []time.Time {
	seq := NewSequencer(base)
	out := make([]time.Time, len(candidates))
	for i, c := range candidates {
		out[i] = seq.Next(c)
	}
	return out
}
