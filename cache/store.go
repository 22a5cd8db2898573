package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlhasanIQ/oriki/config"
)

// ResultKey is the one logical key the result slot lives under.
const ResultKey = "oriki:last_result"

// Store is a single-slot key/value backend.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the store selected by cfg.Cache.Backend.
func Open(cfg config.Config) (Store, error) {
	config.ApplyDefaults(&cfg)
	switch strings.ToLower(strings.TrimSpace(cfg.Cache.Backend)) {
	case config.CacheBackendFile:
		path, err := config.EffectiveCachePath(cfg)
		if err != nil {
			return nil, err
		}
		return NewFileStore(path)
	case config.CacheBackendSQLite:
		path, err := config.EffectiveCachePath(cfg)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path)
	case config.CacheBackendRedis:
		return NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	case config.CacheBackendNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// NopStore keeps nothing.
type NopStore struct{}

func (NopStore) Name() string { return config.CacheBackendNone }

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Put(context.Context, string, []byte) error { return nil }

func (NopStore) Delete(context.Context, string) error { return nil }

func (NopStore) Close() error { return nil }
