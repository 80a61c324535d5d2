package mutation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/velourdrapes/backoffice/internal/retry"
	"github.com/velourdrapes/backoffice/internal/state"
)

// Spec describes one kind of write. V is the caller's input and R the
// remote result.
type Spec[V, R any] struct {
	Name string

	// Keys are the cache key prefixes the write touches optimistically.
	Keys []state.Key

	// Optimistic computes the new cached value for key from its previous
	// value. hasPrev is false when nothing was cached under key. Returning
	// false leaves the entry alone. Nil means no optimistic write.
	Optimistic func(key state.Key, prev any, hasPrev bool, vars V) (any, bool)

	Invoke func(ctx context.Context, vars V) (R, error)

	// OnSuccess merges the server's answer into the cache.
	OnSuccess func(store state.Store, result R, vars V)

	// Invalidate lists dependent keys marked stale after success.
	Invalidate []state.Key

	// Settle lists keys marked stale after success and failure alike.
	Settle []state.Key

	// Retry overrides the coordinator's policy.
	Retry *retry.Policy
}

// Coordinator runs mutations against one store.
type Coordinator struct {
	store  state.Store
	retry  retry.Policy
	logger *zap.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithRetry replaces the default retry policy.
func WithRetry(p retry.Policy) Option {
	return func(c *Coordinator) { c.retry = p }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a coordinator writing to store.
func New(store state.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		retry:  retry.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type snapshot struct {
	key     state.Key
	entry   state.Entry
	existed bool
	written bool
}

// Run executes spec with vars. Remote failures are returned as they came
// from Invoke after the cache has been rolled back.
func Run[V, R any](ctx context.Context, c *Coordinator, spec Spec[V, R], vars V) (R, error) {
	var zero R
	store := c.store
	logger := c.logger.With(zap.String("mutation", spec.Name))
	started := time.Now()

	for _, k := range spec.Keys {
		store.Cancel(k)
	}

	var snaps []snapshot
	if spec.Optimistic != nil {
		snaps = capture(store, spec.Keys)
		for i, s := range snaps {
			next, ok := spec.Optimistic(s.key, s.entry.Value, s.existed && s.entry.HasValue, vars)
			if ok {
				store.Set(s.key, next)
				snaps[i].written = true
			}
		}
	}

	policy := c.retry
	if spec.Retry != nil {
		policy = *spec.Retry
	}
	result, err := retry.Do(ctx, policy, func(ctx context.Context) (R, error) {
		return spec.Invoke(ctx, vars)
	})

	if err != nil {
		for _, s := range snaps {
			if !s.written {
				continue
			}
			if s.existed {
				store.Restore(s.entry)
			} else {
				store.Remove(s.key)
			}
		}
		settle(store, spec.Settle)
		logger.Warn("mutation failed, rolled back",
			zap.Int("entries", len(snaps)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return zero, err
	}

	for _, k := range spec.Keys {
		store.Invalidate(k)
	}
	for _, k := range spec.Invalidate {
		store.Invalidate(k)
	}
	if spec.OnSuccess != nil {
		spec.OnSuccess(store, result, vars)
	}
	settle(store, spec.Settle)
	logger.Debug("mutation complete", zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

// capture snapshots every entry under the prefixes. A prefix with nothing
// cached yields a placeholder so the optimistic write can still create it.
func capture(store state.Store, prefixes []state.Key) []snapshot {
	seen := make(map[string]bool)
	var out []snapshot
	for _, prefix := range prefixes {
		entries := store.Entries(prefix)
		if len(entries) == 0 {
			id := prefix.String()
			if !seen[id] {
				seen[id] = true
				out = append(out, snapshot{key: prefix})
			}
			continue
		}
		for _, e := range entries {
			id := e.Key.String()
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, snapshot{key: e.Key, entry: e, existed: true})
		}
	}
	return out
}

func settle(store state.Store, keys []state.Key) {
	for _, k := range keys {
		store.Invalidate(k)
	}
}
