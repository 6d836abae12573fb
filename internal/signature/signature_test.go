package signature_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/signature"
	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

func newBuilder(t *testing.T) *signature.Builder {
	t.Helper()
	ny, err := timestamp.LoadZone("America/New_York")
	require.NoError(t, err)
	parser := timestamp.NewParser(timestamp.Options{Location: ny})
	ref := &model.Reference{Techs: []model.Tech{{ID: 42, Name: "Jane Doe"}, {ID: 7, Name: "Bob"}}}
	return signature.NewBuilder(parser, ref, nil)
}

func TestRemoteTechIDResolvesThroughDirectory(t *testing.T) {
	b := newBuilder(t)

	local := b.Local(model.LaborRow{
		Notes:     "  Replaced fan  ",
		Tech:      "jane doe",
		CreatedAt: "6/12/2024 15:00",
	})
	remote := b.Remote(model.TimerRecord{
		Notes:  "Replaced fan",
		TechID: "42",
		Start:  "2024-06-12T15:00:42-04:00",
	})

	assert.Equal(t, local, remote)
	assert.Equal(t, "jane doe", remote.Tech)
	assert.Equal(t, "2024-06-12T19:00:00+00:00", remote.Timestamp)
}

func TestSignatureFields(t *testing.T) {
	b := newBuilder(t)

	tests := []struct {
		name string
		rec  model.TimerRecord
		want signature.Signature
	}{
		{
			name: "explicit name wins over id",
			rec:  model.TimerRecord{Notes: "a", TechName: "BOB", TechID: "42", Start: "2024-01-02T03:04:59Z"},
			want: signature.Signature{Notes: "a", Tech: "bob", Timestamp: "2024-01-02T03:04:00+00:00"},
		},
		{
			name: "unknown id kept raw",
			rec:  model.TimerRecord{Notes: "b", TechID: "99", Start: "2024-01-02T03:04:00Z"},
			want: signature.Signature{Notes: "b", Tech: "99", Timestamp: "2024-01-02T03:04:00+00:00"},
		},
		{
			name: "numeric name resolved",
			rec:  model.TimerRecord{Notes: "c", TechName: "7", Start: "2024-01-02T03:04:00Z"},
			want: signature.Signature{Notes: "c", Tech: "bob", Timestamp: "2024-01-02T03:04:00+00:00"},
		},
		{
			name: "unparseable timestamp kept verbatim",
			rec:  model.TimerRecord{Notes: "Case Sensitive", TechName: "Bob", Start: " someday "},
			want: signature.Signature{Notes: "Case Sensitive", Tech: "bob", Timestamp: "someday"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Remote(tt.rec))
		})
	}
}

func TestNotesAreCaseSensitive(t *testing.T) {
	b := newBuilder(t)
	set := make(signature.Set)
	set.Add(b.Local(model.LaborRow{Notes: "Backup", Tech: "Bob", CreatedAt: "1/2/2024 10:00"}))

	assert.True(t, set.Contains(b.Local(model.LaborRow{Notes: "Backup ", Tech: "bob", CreatedAt: "1/2/2024 10:00:30"})))
	assert.False(t, set.Contains(b.Local(model.LaborRow{Notes: "backup", Tech: "bob", CreatedAt: "1/2/2024 10:00"})))
	assert.False(t, set.Contains(b.Local(model.LaborRow{Notes: "Backup", Tech: "bob", CreatedAt: "1/2/2024 10:01"})))
}

func TestRowKey(t *testing.T) {
	a := model.LaborRow{TicketNumber: "100", Sequence: "1", CreatedAt: "1/2/2024", DurationMinutes: "30", Tech: "Bob", Notes: "Fix"}
	b := model.LaborRow{TicketNumber: " 100", Sequence: "1 ", CreatedAt: "1/2/2024", DurationMinutes: "30", Tech: "bob", Notes: "fix"}
	c := a
	c.Sequence = "2"

	assert.Equal(t, signature.RowKey(a), signature.RowKey(b))
	assert.NotEqual(t, signature.RowKey(a), signature.RowKey(c))
}

func TestCacheFetchesOncePerTicket(t *testing.T) {
	b := newBuilder(t)
	calls := map[int64]int{}
	fetch := func(_ context.Context, id int64) ([]model.TimerRecord, error) {
		calls[id]++
		if id == 2 {
			return nil, errors.New("boom")
		}
		return []model.TimerRecord{{Notes: "n", TechName: "Bob", Start: "2024-01-02T03:04:00Z"}}, nil
	}
	cache := signature.NewCache(b, fetch, nil)
	ctx := context.Background()

	first := cache.Get(ctx, 1)
	assert.Len(t, first, 1)
	cache.Get(ctx, 1)
	assert.Equal(t, 1, calls[1])

	failed := cache.Get(ctx, 2)
	assert.Empty(t, failed)
	cache.Get(ctx, 2)
	assert.Equal(t, 1, calls[2])

	created := signature.Signature{Notes: "new", Tech: "bob", Timestamp: time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC).Format(timestamp.ISOLayout)}
	cache.Add(2, created)
	assert.True(t, cache.Get(ctx, 2).Contains(created))
	assert.Equal(t, 1, calls[2])
}
