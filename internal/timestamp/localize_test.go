package timestamp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

func TestLocalize(t *testing.T) {
	ny, err := timestamp.LoadZone("America/New_York")
	require.NoError(t, err)

	naiveIn := timestamp.Instant{T: time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-06-12T15:00:00-04:00", timestamp.FormatISO(timestamp.Localize(naiveIn, ny)))

	zonedIn := timestamp.Instant{T: time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC), Zoned: true}
	assert.Equal(t, "2024-01-15T15:00:00-05:00", timestamp.FormatISO(timestamp.Localize(zonedIn, ny)))
}

func TestLocalizeRoundTrip(t *testing.T) {
	ny, err := timestamp.LoadZone("America/New_York")
	require.NoError(t, err)
	p := timestamp.NewParser(timestamp.Options{Location: ny})

	for _, raw := range []string{"6/12/2024 15:00", "1/15/2024 08:30:12", "2024-03-10 12:00", "11/3/2024 23:59"} {
		in, err := p.Parse(raw)
		require.NoError(t, err, raw)
		local := p.Localize(in)

		again, err := p.Parse(timestamp.FormatISO(local))
		require.NoError(t, err, raw)
		assert.True(t, again.Zoned)
		assert.True(t, local.UTC().Equal(again.T.UTC()), "%s: %v != %v", raw, local, again.T)
	}
}

func TestCreatedDate(t *testing.T) {
	ny, err := timestamp.LoadZone("America/New_York")
	require.NoError(t, err)
	p := timestamp.NewParser(timestamp.Options{Location: ny})

	got, err := p.CreatedDate("6/12/2024 15:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12T15:00:00-04:00", got)

	_, err = p.CreatedDate("")
	assert.ErrorIs(t, err, timestamp.ErrEmpty)
}

func TestLoadZoneInvalid(t *testing.T) {
	_, err := timestamp.LoadZone("Mars/Olympus_Mons")
	assert.Error(t, err)

	loc, err := timestamp.LoadZone("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
