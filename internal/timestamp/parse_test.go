package timestamp_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

func naive(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func TestParseMonthFirst(t *testing.T) {
	p := timestamp.NewParser(timestamp.Options{})

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"6/12/2024 15:00", naive(2024, 6, 12, 15, 0, 0)},
		{"6/12/2024 3:04 PM", naive(2024, 6, 12, 15, 4, 0)},
		{"6/12/2024 3:04 pm", naive(2024, 6, 12, 15, 4, 0)},
		{"6/12/2024 12:30 AM", naive(2024, 6, 12, 0, 30, 0)},
		{"6/12/24 9:15", naive(2024, 6, 12, 9, 15, 0)},
		{"06-12-2024 15:00:59", naive(2024, 6, 12, 15, 0, 59)},
		{"6.12.2024", naive(2024, 6, 12, 0, 0, 0)},
		{"13/12/2024 10:00", naive(2024, 12, 13, 10, 0, 0)},
		{"2024-01-15", naive(2024, 1, 15, 0, 0, 0)},
		{"2024-01-15 10:30:00", naive(2024, 1, 15, 10, 30, 0)},
		{"2024/01/15 10:30", naive(2024, 1, 15, 10, 30, 0)},
		{"2024-01-15T10:30:00", naive(2024, 1, 15, 10, 30, 0)},
		{"Created on 6/12/2024 at 3pm", naive(2024, 6, 12, 15, 0, 0)},
		{"June 12, 2024 3:15 PM", naive(2024, 6, 12, 15, 15, 0)},
		{"12 Jun 2024 08:00", naive(2024, 6, 12, 8, 0, 0)},
		{"1/2/99", naive(1999, 1, 2, 0, 0, 0)},
		{"Wed Jun 12 15:00:00 2024", naive(2024, 6, 12, 15, 0, 0)},
		{"Sun Jun  2 08:05:09 2024", naive(2024, 6, 2, 8, 5, 9)},
		{"20240612", naive(2024, 6, 12, 0, 0, 0)},
		{"20240612T150000", naive(2024, 6, 12, 15, 0, 0)},
		{"20240612T1500", naive(2024, 6, 12, 15, 0, 0)},
	}
	for _, tt := range tests {
		got, err := p.Parse(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.False(t, got.Zoned, tt.raw)
		assert.True(t, tt.want.Equal(got.T), "Parse(%q) = %v, want %v", tt.raw, got.T, tt.want)
	}
}

func TestParseDayFirst(t *testing.T) {
	p := timestamp.NewParser(timestamp.Options{DayFirst: true})

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"6/12/2024 15:00", naive(2024, 12, 6, 15, 0, 0)},
		{"25/12/2024 08:00", naive(2024, 12, 25, 8, 0, 0)},
		{"12/25/2024 08:00", naive(2024, 12, 25, 8, 0, 0)},
		{"01.02.2024", naive(2024, 2, 1, 0, 0, 0)},
		{"2024-03-04", naive(2024, 3, 4, 0, 0, 0)},
	}
	for _, tt := range tests {
		got, err := p.Parse(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, tt.want.Equal(got.T), "Parse(%q) = %v, want %v", tt.raw, got.T, tt.want)
	}
}

func TestParseZoned(t *testing.T) {
	p := timestamp.NewParser(timestamp.Options{})

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-06-12T15:00:00-04:00", time.Date(2024, 6, 12, 19, 0, 0, 0, time.UTC)},
		{"2024-06-12T15:00:00Z", time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)},
		{"2024-06-12T15:00:00.250Z", time.Date(2024, 6, 12, 15, 0, 0, 250_000_000, time.UTC)},
		{"2024-06-12T15:00:00-0500", time.Date(2024, 6, 12, 20, 0, 0, 0, time.UTC)},
		{"2024-06-12 15:00:00 +0200", time.Date(2024, 6, 12, 13, 0, 0, 0, time.UTC)},
		{"20240612T150000Z", time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)},
		{"20240612T150000-0400", time.Date(2024, 6, 12, 19, 0, 0, 0, time.UTC)},
		{"updated 6/12/2024 15:00 UTC", time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := p.Parse(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, got.Zoned, tt.raw)
		assert.True(t, tt.want.Equal(got.T), "Parse(%q) = %v, want %v", tt.raw, got.T, tt.want)
	}
}

func TestParseRejects(t *testing.T) {
	p := timestamp.NewParser(timestamp.Options{})

	for _, raw := range []string{"", "   ", "\ufeff"} {
		_, err := p.Parse(raw)
		assert.ErrorIs(t, err, timestamp.ErrEmpty, "%q", raw)
	}
	for _, raw := range []string{"not a date", "15:00", "13/13/2024", "2/30/2024", "yesterday"} {
		_, err := p.Parse(raw)
		assert.ErrorIs(t, err, timestamp.ErrUnparseable, "%q", raw)
	}
}

func TestParseValue(t *testing.T) {
	p := timestamp.NewParser(timestamp.Options{})

	_, err := p.ParseValue(nil)
	assert.ErrorIs(t, err, timestamp.ErrEmpty)

	var nilString *string
	_, err = p.ParseValue(nilString)
	assert.ErrorIs(t, err, timestamp.ErrEmpty)

	_, err = p.ParseValue(42.0)
	assert.ErrorIs(t, err, timestamp.ErrUnparseable)

	in, err := p.ParseValue("6/12/2024 15:00")
	require.NoError(t, err)
	again, err := p.ParseValue(in)
	require.NoError(t, err)
	assert.Equal(t, in, again)

	now := time.Date(2024, 6, 12, 15, 0, 0, 0, time.FixedZone("", -4*3600))
	got, err := p.ParseValue(now)
	require.NoError(t, err)
	assert.True(t, got.Zoned)
	assert.True(t, now.Equal(got.T))
}

func TestParseNatural(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	p := timestamp.NewParser(timestamp.Options{
		Natural: true,
		Now:     func() time.Time { return now },
	})

	got, err := p.Parse("yesterday")
	require.NoError(t, err)
	y, m, d := got.T.Date()
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.June, m)
	assert.Equal(t, 11, d)
}

func TestParseNeverPanics(t *testing.T) {
	p := timestamp.NewParser(timestamp.Options{DayFirst: true})
	alphabet := []rune("0123456789/-.: APMapmTZ+utcJunDec,thé ")
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		n := rng.Intn(24)
		buf := make([]rune, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		raw := string(buf)
		assert.NotPanics(t, func() {
			_, err := p.Parse(raw)
			if err != nil && !errors.Is(err, timestamp.ErrEmpty) && !errors.Is(err, timestamp.ErrUnparseable) {
				t.Errorf("Parse(%q) returned unexpected error %v", raw, err)
			}
		})
	}
}

func TestLayoutsCrossProduct(t *testing.T) {
	us := timestamp.Layouts(false)
	intl := timestamp.Layouts(true)

	require.Len(t, us, 11+3*8)
	require.Len(t, intl, len(us))
	assert.Equal(t, "1/2/2006 15:04:05", us[11])
	assert.Equal(t, "2/1/2006 15:04:05", intl[11])
	assert.Equal(t, "1.2.06", us[len(us)-1])
}
