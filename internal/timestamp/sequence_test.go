package timestamp_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

func TestEnsureFuture(t *testing.T) {
	prev := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate time.Time
		want      time.Time
	}{
		{"absent", time.Time{}, prev.Add(time.Second)},
		{"equal", prev, prev.Add(time.Second)},
		{"earlier", prev.Add(-time.Hour), prev.Add(time.Second)},
		{"later", prev.Add(time.Minute), prev.Add(time.Minute)},
		{"half second later", prev.Add(500 * time.Millisecond), prev.Add(500 * time.Millisecond)},
	}
	for _, tt := range tests {
		got := timestamp.EnsureFuture(prev, tt.candidate)
		if !got.Equal(tt.want) {
			t.Errorf("%s: EnsureFuture = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFoldIsStrictlyIncreasing(t *testing.T) {
	base := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 200; round++ {
		candidates := make([]time.Time, rng.Intn(12))
		for i := range candidates {
			switch rng.Intn(3) {
			case 0:
				// absent
			case 1:
				candidates[i] = base.Add(time.Duration(rng.Intn(600)-300) * time.Second)
			default:
				candidates[i] = base
			}
		}

		out := timestamp.Fold(base, candidates)
		require.Len(t, out, len(candidates))

		prev := base
		for i, got := range out {
			require.True(t, got.After(prev), "round %d: out[%d]=%v not after %v", round, i, got, prev)
			if candidates[i].IsZero() || !candidates[i].After(prev) {
				assert.Equal(t, prev.Add(time.Second), got)
			} else {
				assert.Equal(t, candidates[i], got)
			}
			prev = got
		}
	}
}

func TestSequencerMissingTimestamps(t *testing.T) {
	base := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	seq := timestamp.NewSequencer(base)

	first := seq.Next(time.Time{})
	second := seq.Next(time.Time{})

	assert.Equal(t, base.Add(time.Second), first)
	assert.Equal(t, base.Add(2*time.Second), second)
	assert.Equal(t, second, seq.Last())
}
