package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Config holds the store endpoints. RedisAddr is required; BadgerPath may
// be empty for Redis-only client mode.
type Config struct {
	RedisAddr  string
	BadgerPath string
}

// Adapter owns the process-wide store handle. The handle is created lazily
// on the first Connect and cached for every later call; a failed attempt
// caches nothing, so the next request retries from scratch. The adapter
// never retries internally.
type Adapter struct {
	mu     sync.Mutex
	cfg    Config
	cached *Hybrid
	logger *zap.Logger
}

func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	return &Adapter{cfg: cfg, logger: logger}
}

// Connect returns the ready store handle, opening it if this is the first
// successful call.
func (a *Adapter) Connect(ctx context.Context) (Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil {
		return a.cached, nil
	}

	st, err := NewHybrid(ctx, a.cfg.RedisAddr, a.cfg.BadgerPath)
	if err != nil {
		a.logger.Error("store connection failed", zap.String("redis", a.cfg.RedisAddr), zap.Error(err))
		return nil, err
	}

	a.logger.Info("store connected", zap.String("redis", a.cfg.RedisAddr))
	a.cached = st
	return st, nil
}

// Close releases the cached handle, if any. A later Connect starts over.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached == nil {
		return nil
	}
	err := a.cached.Close()
	a.cached = nil
	return err
}
