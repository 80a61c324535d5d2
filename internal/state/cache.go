package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Entry is the cached state of one query.
type Entry struct {
	Key       Key
	Value     any
	HasValue  bool
	Err       error
	Fetching  bool
	Stale     bool
	UpdatedAt time.Time
}

// Fetcher loads the value for one key.
type Fetcher func(ctx context.Context) (any, error)

// Store is the keyed cache contract the mutation coordinator depends on.
// Values must be treated as immutable: writers replace, never modify.
type Store interface {
	Get(key Key) (Entry, bool)
	Entries(prefix Key) []Entry
	Set(key Key, value any)
	Restore(e Entry)
	Remove(prefix Key)
	Invalidate(prefix Key)
	Cancel(prefix Key)
	Subscribe(prefix Key, fn func(Key)) (unsubscribe func())
}

// Querier adds the read-through fetch path.
type Querier interface {
	Store
	Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error)
	Latest(prefix Key) (Entry, bool)
}

// Ensure Cache implements Querier at compile time.
var _ Querier = (*Cache)(nil)

type record struct {
	entry      Entry
	generation uint64
	fetcher    Fetcher
}

type subscription struct {
	topic  string
	prefix Key
}

// Cache is the process-wide query cache. The zero value is not usable; call
// NewCache. Independent instances never share state.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*record
	subs    map[string]subscription
	nextSub uint64
	nextGen uint64
	group   singleflight.Group
	bus     EventBus.Bus
	now     func() time.Time
	logger  *zap.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache returns an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		records: make(map[string]*record),
		subs:    make(map[string]subscription),
		bus:     EventBus.New(),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry stored under exactly key.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[key.String()]
	if !ok {
		return Entry{}, false
	}
	return rec.entry, true
}

// Entries returns every entry whose key starts with prefix, ordered by key.
func (c *Cache) Entries(prefix Key) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Entry
	for _, rec := range c.records {
		if rec.entry.Key.HasPrefix(prefix) {
			out = append(out, rec.entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// Latest returns the most recently updated entry under prefix that holds a
// value. Lists use it to keep the previous page visible while the next one
// loads.
func (c *Cache) Latest(prefix Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var best Entry
	found := false
	for _, rec := range c.records {
		e := rec.entry
		if !e.HasValue || !e.Key.HasPrefix(prefix) {
			continue
		}
		if !found || e.UpdatedAt.After(best.UpdatedAt) {
			best = e
			found = true
		}
	}
	return best, found
}

// Set writes a fresh value under key.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	rec := c.ensure(key)
	rec.entry.Value = value
	rec.entry.HasValue = true
	rec.entry.Stale = false
	rec.entry.Err = nil
	rec.entry.UpdatedAt = c.now()
	c.mu.Unlock()
	c.notify(key)
}

// Restore puts a previously captured entry back verbatim.
func (c *Cache) Restore(e Entry) {
	c.mu.Lock()
	rec := c.ensure(e.Key)
	e.Fetching = false
	rec.entry = e
	c.mu.Unlock()
	c.notify(e.Key)
}

// Remove drops every entry under prefix. In-flight fetches for them are
// discarded when they complete.
func (c *Cache) Remove(prefix Key) {
	c.mu.Lock()
	var removed []Key
	for id, rec := range c.records {
		if rec.entry.Key.HasPrefix(prefix) {
			removed = append(removed, rec.entry.Key)
			delete(c.records, id)
			c.group.Forget(id)
		}
	}
	c.mu.Unlock()
	c.notify(removed...)
}

// Invalidate marks every entry under prefix stale so the next read refetches.
// A fetch already in flight for such an entry is superseded.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	var touched []Key
	for id, rec := range c.records {
		if !rec.entry.Key.HasPrefix(prefix) {
			continue
		}
		rec.entry.Stale = true
		if rec.entry.Fetching {
			c.supersede(id, rec)
		}
		touched = append(touched, rec.entry.Key)
	}
	c.mu.Unlock()
	c.notify(touched...)
}

// Cancel suppresses the cache effect of in-flight fetches under prefix. The
// network transfer itself is not aborted.
func (c *Cache) Cancel(prefix Key) {
	c.mu.Lock()
	var touched []Key
	for id, rec := range c.records {
		if rec.entry.Fetching && rec.entry.Key.HasPrefix(prefix) {
			c.supersede(id, rec)
			touched = append(touched, rec.entry.Key)
		}
	}
	c.mu.Unlock()
	c.notify(touched...)
}

// Fetch is the read-through path: a fresh cached value is returned as is,
// otherwise fetch runs. Concurrent fetches of one key share a single call.
// On failure the previous value is kept and the error recorded.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	if fetch == nil {
		return nil, fmt.Errorf("fetch %s: nil fetcher", key)
	}
	id := key.String()
	c.mu.Lock()
	rec := c.ensure(key)
	rec.fetcher = fetch
	if rec.entry.HasValue && !rec.entry.Stale {
		v := rec.entry.Value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(id, func() (any, error) {
		gen := c.begin(key)
		c.notify(key)
		val, err := fetch(ctx)
		c.complete(key, gen, val, err)
		return val, err
	})
	return v, err
}

// RefetchStale refetches stale or failed entries that still have a
// subscriber and a known fetcher. It returns how many were refetched.
func (c *Cache) RefetchStale(ctx context.Context) (int, error) {
	type job struct {
		key   Key
		fetch Fetcher
	}
	c.mu.RLock()
	var jobs []job
	for _, rec := range c.records {
		e := rec.entry
		if rec.fetcher == nil || e.Fetching || (e.HasValue && !e.Stale) {
			continue
		}
		if !c.observedLocked(e.Key) {
			continue
		}
		jobs = append(jobs, job{key: e.Key, fetch: rec.fetcher})
	}
	c.mu.RUnlock()

	var errs []error
	for _, j := range jobs {
		if _, err := c.Fetch(ctx, j.key, j.fetch); err != nil {
			errs = append(errs, fmt.Errorf("refetch %s: %w", j.key, err))
		}
	}
	return len(jobs), errors.Join(errs...)
}

// Subscribe registers fn for change notifications on keys under prefix.
// fn runs synchronously on the goroutine that changed the cache; it must not
// block and must not write to the cache or subscribe.
func (c *Cache) Subscribe(prefix Key, fn func(Key)) func() {
	c.mu.Lock()
	c.nextSub++
	topic := fmt.Sprintf("state:%d", c.nextSub)
	c.subs[topic] = subscription{topic: topic, prefix: prefix}
	c.mu.Unlock()

	if err := c.bus.Subscribe(topic, fn); err != nil {
		c.logger.Warn("subscribe failed", zap.String("prefix", prefix.String()), zap.Error(err))
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, topic)
			c.mu.Unlock()
			_ = c.bus.Unsubscribe(topic, fn)
		})
	}
}

func (c *Cache) ensure(key Key) *record {
	id := key.String()
	rec, ok := c.records[id]
	if !ok {
		rec = &record{entry: Entry{Key: key}}
		c.records[id] = rec
	}
	return rec
}

// newGeneration returns a generation no record has used, so a fetch that
// outlives its record can never match a record created later. Callers hold
// c.mu.
func (c *Cache) newGeneration() uint64 {
	c.nextGen++
	return c.nextGen
}

func (c *Cache) supersede(id string, rec *record) {
	rec.generation = c.newGeneration()
	rec.entry.Fetching = false
	c.group.Forget(id)
}

func (c *Cache) begin(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.ensure(key)
	rec.entry.Fetching = true
	rec.generation = c.newGeneration()
	return rec.generation
}

func (c *Cache) complete(key Key, gen uint64, val any, err error) {
	c.mu.Lock()
	rec, ok := c.records[key.String()]
	if !ok || rec.generation != gen {
		c.mu.Unlock()
		c.logger.Debug("discarded superseded fetch", zap.String("key", key.String()))
		return
	}
	rec.entry.Fetching = false
	if err != nil {
		rec.entry.Err = err
	} else {
		rec.entry.Value = val
		rec.entry.HasValue = true
		rec.entry.Stale = false
		rec.entry.Err = nil
		rec.entry.UpdatedAt = c.now()
	}
	c.mu.Unlock()
	c.notify(key)
}

func (c *Cache) observedLocked(key Key) bool {
	for _, s := range c.subs {
		if key.HasPrefix(s.prefix) {
			return true
		}
	}
	return false
}

func (c *Cache) notify(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	type delivery struct {
		topic string
		key   Key
	}
	c.mu.RLock()
	var out []delivery
	for _, k := range keys {
		for topic, s := range c.subs {
			if k.HasPrefix(s.prefix) {
				out = append(out, delivery{topic: topic, key: k})
			}
		}
	}
	c.mu.RUnlock()
	for _, d := range out {
		c.bus.Publish(d.topic, d.key)
	}
}

// Value returns the typed value cached under key.
func Value[T any](s Store, key Key) (T, bool) {
	var zero T
	e, ok := s.Get(key)
	if !ok || !e.HasValue {
		return zero, false
	}
	v, ok := e.Value.(T)
	return v, ok
}

// FetchAs is Fetch with a typed fetcher.
func FetchAs[T any](ctx context.Context, q Querier, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := q.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("fetch %s: cached %T, want %T", key, v, zero)
	}
	return typed, nil
}
