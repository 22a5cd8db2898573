package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/config"
	"github.com/AlhasanIQ/oriki/contract"
)

func sampleRecord() contract.CachedResult {
	poem := []string{"Child of the river", "Keeper of the flame"}
	affirmations := []string{"I am enough.", "I rise with the sun."}
	return contract.CachedResult{
		Poem:         &poem,
		Affirmations: &affirmations,
		CulturalMode: "yoruba",
		Themes:       []byte(`{"values":["courage"]}`),
		SavedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "result.json"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "result.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := NewResultCache(store, zap.NewNop())
			assert.Nil(t, c.Load(ctx))

			rec := sampleRecord()
			c.Save(ctx, rec)

			got := c.Load(ctx)
			require.NotNil(t, got)
			assert.Equal(t, *rec.Poem, *got.Poem)
			assert.Equal(t, *rec.Affirmations, *got.Affirmations)
			assert.Equal(t, "yoruba", got.CulturalMode)
			assert.JSONEq(t, string(rec.Themes), string(got.Themes))
			assert.True(t, rec.SavedAt.Equal(got.SavedAt))

			c.Clear(ctx)
			assert.Nil(t, c.Load(ctx))
		})
	}
}

func TestResultCacheSaveOverwrites(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := NewResultCache(store, nil)
			c.Save(ctx, sampleRecord())

			next := sampleRecord()
			poem := []string{"A new morning"}
			next.Poem = &poem
			c.Save(ctx, next)

			got := c.Load(ctx)
			require.NotNil(t, got)
			assert.Equal(t, []string{"A new morning"}, *got.Poem)
		})
	}
}

func TestResultCacheDiscardsIncompleteRecords(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"missing poem":         `{"affirmations":["a"],"cultural_mode":"secular"}`,
		"missing affirmations": `{"poem":["line"]}`,
		"null poem":            `{"poem":null,"affirmations":["a"]}`,
		"not an object":        `["line"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store, err := NewFileStore(filepath.Join(t.TempDir(), "result.json"))
			require.NoError(t, err)
			require.NoError(t, store.Put(ctx, ResultKey, []byte(raw)))

			assert.Nil(t, NewResultCache(store, nil).Load(ctx))
		})
	}
}

func TestResultCacheAcceptsEmptyAffirmations(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "result.json"))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, ResultKey, []byte(`{"poem":["line"],"affirmations":[]}`)))

	got := NewResultCache(store, nil).Load(ctx)
	require.NotNil(t, got)
	assert.Empty(t, *got.Affirmations)
}

type failingStore struct{ NopStore }

var errStoreDown = errors.New("storage disabled")

func (failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errStoreDown }
func (failingStore) Put(context.Context, string, []byte) error         { return errStoreDown }
func (failingStore) Delete(context.Context, string) error              { return errStoreDown }

func TestResultCacheSwallowsStorageFailures(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(failingStore{}, zap.NewNop())

	assert.NotPanics(t, func() {
		c.Save(ctx, sampleRecord())
		c.Clear(ctx)
	})
	assert.Nil(t, c.Load(ctx))
}

func TestResultCacheSwallowsUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	c := NewResultCache(NewRedisStoreFromClient(client), zap.NewNop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Save(ctx, sampleRecord())
	assert.Nil(t, c.Load(ctx))
	assert.Equal(t, config.CacheBackendRedis, c.Backend())
}

func TestFileStoreRecoversStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	// A lock left by a process that no longer exists.
	require.NoError(t, os.WriteFile(path+".lock", []byte(fmt.Sprintf("%d\n", 1<<22+7)), 0o600))

	require.NoError(t, store.Put(context.Background(), ResultKey, []byte(`{"poem":[],"affirmations":[]}`)))
	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock should be released")
}

func TestFileStoreRejectsNonJSON(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "result.json"))
	require.NoError(t, err)
	assert.Error(t, store.Put(context.Background(), ResultKey, []byte("not json")))
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	cfg := config.Default()
	cfg.Cache.Backend = config.CacheBackendNone
	store, err := Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.CacheBackendNone, store.Name())

	cfg.Cache.Backend = config.CacheBackendFile
	cfg.Cache.Path = filepath.Join(dir, "custom.json")
	store, err = Open(cfg)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, store)
	assert.Equal(t, filepath.Join(dir, "custom.json"), store.(*FileStore).Path())

	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Cache.RedisAddr = ""
	_, err = Open(cfg)
	assert.Error(t, err)

	cfg.Cache.Backend = "memcached"
	_, err = Open(cfg)
	assert.Error(t, err)
}
