package cache

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/contract"
)

// ResultCache keeps the last successful result. Every operation is best
// effort: storage failures are logged and swallowed.
type ResultCache struct {
	store  Store
	logger *zap.Logger
}

func NewResultCache(store Store, logger *zap.Logger) *ResultCache {
	if store == nil {
		store = NopStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{store: store, logger: logger.Named("cache")}
}

func (c *ResultCache) Backend() string { return c.store.Name() }

// Save overwrites the slot.
func (c *ResultCache) Save(ctx context.Context, rec contract.CachedResult) {
	b, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("encode cached result", zap.Error(err))
		return
	}
	if err := c.store.Put(ctx, ResultKey, b); err != nil {
		c.logger.Warn("save cached result", zap.String("backend", c.store.Name()), zap.Error(err))
		return
	}
	c.logger.Debug("saved cached result", zap.String("backend", c.store.Name()))
}

// Load returns nil when the slot is empty, unreadable, or holds a record
// without both poem and affirmations.
func (c *ResultCache) Load(ctx context.Context) *contract.CachedResult {
	b, ok, err := c.store.Get(ctx, ResultKey)
	if err != nil {
		c.logger.Warn("load cached result", zap.String("backend", c.store.Name()), zap.Error(err))
		return nil
	}
	if !ok || len(b) == 0 {
		return nil
	}

	var rec contract.CachedResult
	if err := json.Unmarshal(b, &rec); err != nil {
		c.logger.Warn("discarding unreadable cached result", zap.Error(err))
		return nil
	}
	if rec.Poem == nil || rec.Affirmations == nil {
		c.logger.Warn("discarding incomplete cached result")
		return nil
	}
	return &rec
}

func (c *ResultCache) Clear(ctx context.Context) {
	if err := c.store.Delete(ctx, ResultKey); err != nil {
		c.logger.Warn("clear cached result", zap.String("backend", c.store.Name()), zap.Error(err))
	}
}

func (c *ResultCache) Close() error { return c.store.Close() }
