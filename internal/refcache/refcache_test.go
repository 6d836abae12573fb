package refcache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/refcache"
)

func TestLoadMissing(t *testing.T) {
	s := refcache.New(filepath.Join(t.TempDir(), "cache.json"), nil)
	ref, _, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ref)
}

func TestLoadOrFetchFetchesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	s := refcache.New(path, nil)
	calls := 0
	fetch := func(context.Context) (*model.Reference, error) {
		calls++
		return &model.Reference{
			Customers: []model.Customer{{ID: 1, BusinessName: " Acme "}, {ID: 2, BusinessName: "  "}},
			Techs:     []model.Tech{{ID: 42, Name: "Jane Doe"}},
		}, nil
	}
	ctx := context.Background()

	first, err := s.LoadOrFetch(ctx, fetch)
	require.NoError(t, err)
	require.Len(t, first.Customers, 1)
	assert.Equal(t, "Acme", first.Customers[0].BusinessName)

	second, err := s.LoadOrFetch(ctx, fetch)
	require.NoError(t, err)
	assert.Equal(t, first.Customers, second.Customers)
	assert.Equal(t, 1, calls)
}

func TestLoadOrFetchPersistsSanitizedCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"customers":[{"id":1,"business_name":"Acme "},{"id":2,"business_name":""}]}`), 0o600))
	s := refcache.New(path, nil)

	ref, err := s.LoadOrFetch(context.Background(), func(context.Context) (*model.Reference, error) {
		t.Fatal("fetch should not be called")
		return nil, nil
	})
	require.NoError(t, err)
	require.Len(t, ref.Customers, 1)

	reloaded, _, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.Customer{{ID: 1, BusinessName: "Acme"}}, reloaded.Customers)
}

func TestCorruptCacheIsBackedUpAndRefetched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))
	s := refcache.New(path, nil)

	_, _, _, err := s.Load()
	require.ErrorIs(t, err, refcache.ErrCorrupt)
	_, statErr := os.Stat(path + ".corrupt")
	assert.NoError(t, statErr)

	require.NoError(t, os.WriteFile(path, []byte("{bad json"), 0o600))
	ref, err := s.LoadOrFetch(context.Background(), func(context.Context) (*model.Reference, error) {
		return &model.Reference{Statuses: []string{"New"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"New"}, ref.Statuses)
}

func TestFetchErrorIsReturned(t *testing.T) {
	s := refcache.New(filepath.Join(t.TempDir(), "cache.json"), nil)
	boom := errors.New("boom")
	_, err := s.LoadOrFetch(context.Background(), func(context.Context) (*model.Reference, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	s := refcache.New(path, nil)
	require.NoError(t, s.Clear())
	require.NoError(t, s.Save(&model.Reference{}))
	require.NoError(t, s.Clear())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
