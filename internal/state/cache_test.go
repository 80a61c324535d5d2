package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_StringAndPrefix(t *testing.T) {
	a := Key{"products", 2, Absent, true, ""}
	b := Key{"products", 2, Absent, true, ""}
	c := Key{"products", 2, Absent, true, "a"}

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
	assert.True(t, a.HasPrefix(Key{"products"}))
	assert.False(t, Key{"product", "p1"}.HasPrefix(Key{"products"}))
	assert.False(t, Key{"products"}.HasPrefix(a))

	// The placeholder never collides with a literal string.
	assert.NotEqual(t, Key{Absent}.String(), Key{"_"}.String())
	assert.NotEqual(t, Key{nil}.String(), Key{"null"}.String())
}

func TestCache_SetGetAndEntries(t *testing.T) {
	c := NewCache()
	_, ok := c.Get(Key{"products", 1})
	assert.False(t, ok)

	c.Set(Key{"products", 1}, "page1")
	c.Set(Key{"products", 2}, "page2")
	c.Set(Key{"product", "p1"}, "item")

	e, ok := c.Get(Key{"products", 1})
	require.True(t, ok)
	assert.Equal(t, "page1", e.Value)
	assert.True(t, e.HasValue)
	assert.False(t, e.Stale)

	entries := c.Entries(Key{"products"})
	require.Len(t, entries, 2)
	assert.Equal(t, "page1", entries[0].Value)
	assert.Equal(t, "page2", entries[1].Value)

	v, ok := Value[string](c, Key{"product", "p1"})
	assert.True(t, ok)
	assert.Equal(t, "item", v)
	_, ok = Value[int](c, Key{"product", "p1"})
	assert.False(t, ok)
}

func TestCache_FetchReadThroughAndStale(t *testing.T) {
	c := NewCache()
	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		return int(n), nil
	}
	key := Key{"blockedDates"}

	v, err := c.Fetch(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.Fetch(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "fresh value should be served from cache")

	c.Invalidate(key)
	e, _ := c.Get(key)
	assert.True(t, e.Stale)
	assert.Equal(t, 1, e.Value, "invalidation keeps the value visible")

	v, err = c.Fetch(context.Background(), key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCache_FetchErrorKeepsPreviousValue(t *testing.T) {
	c := NewCache()
	key := Key{"website", "home"}
	c.Set(key, "old")
	c.Invalidate(key)

	boom := errors.New("boom")
	_, err := c.Fetch(context.Background(), key, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "old", e.Value)
	assert.ErrorIs(t, e.Err, boom)
	assert.True(t, e.Stale)
	assert.False(t, e.Fetching)
}

func TestCache_FetchDeduplicatesConcurrentCalls(t *testing.T) {
	c := NewCache()
	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Fetch(context.Background(), Key{"products", 1}, fetch)
		}()
	}
	require.Eventually(t, func() bool {
		e, _ := c.Get(Key{"products", 1})
		return e.Fetching
	}, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	e, _ := c.Get(Key{"products", 1})
	assert.Equal(t, "v", e.Value)
}

func TestCache_CancelSuppressesInFlightFetch(t *testing.T) {
	c := NewCache()
	key := Key{"products", 1}
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), key, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "stale-read", nil
		})
	}()
	<-started

	c.Cancel(Key{"products"})
	c.Set(key, "optimistic")
	close(release)
	<-done

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "optimistic", e.Value, "cancelled fetch must not clobber the optimistic write")
	assert.False(t, e.Fetching)
}

func TestCache_RemoveDiscardsInFlightFetchForRecreatedKey(t *testing.T) {
	c := NewCache()
	key := Key{"product", "p1"}
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), key, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "before-delete", nil
		})
	}()
	<-started

	c.Remove(Key{"product"})
	c.Set(key, "recreated")
	close(release)
	<-done

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "recreated", e.Value, "a fetch begun before Remove must not land in the new record")
	assert.False(t, e.Fetching)
}

func TestCache_RemoveAndRestore(t *testing.T) {
	c := NewCache()
	c.Set(Key{"product", "p1"}, "a")
	snap, _ := c.Get(Key{"product", "p1"})

	c.Remove(Key{"product"})
	_, ok := c.Get(Key{"product", "p1"})
	assert.False(t, ok)

	c.Restore(snap)
	e, ok := c.Get(Key{"product", "p1"})
	require.True(t, ok)
	assert.Equal(t, snap, e)
}

func TestCache_LatestPicksNewestInFamily(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Set(Key{"products", 1}, "page1")
	now = now.Add(time.Second)
	c.Set(Key{"products", 2}, "page2")
	now = now.Add(time.Second)
	c.Set(Key{"product", "x"}, "item")

	e, ok := c.Latest(Key{"products"})
	require.True(t, ok)
	assert.Equal(t, "page2", e.Value)

	_, ok = c.Latest(Key{"website"})
	assert.False(t, ok)
}

func TestCache_SubscribeNotifiesMatchingKeys(t *testing.T) {
	c := NewCache()
	var mu sync.Mutex
	var seen []string
	unsubscribe := c.Subscribe(Key{"products"}, func(k Key) {
		mu.Lock()
		seen = append(seen, k.String())
		mu.Unlock()
	})

	c.Set(Key{"products", 1}, "a")
	c.Set(Key{"product", "p1"}, "ignored")
	c.Invalidate(Key{"products"})

	mu.Lock()
	assert.Equal(t, []string{Key{"products", 1}.String(), Key{"products", 1}.String()}, seen)
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	c.Set(Key{"products", 2}, "b")
	mu.Lock()
	assert.Len(t, seen, 2)
	mu.Unlock()
}

func TestCache_RefetchStaleOnlyObservedEntries(t *testing.T) {
	c := NewCache()
	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}
	_, err := c.Fetch(context.Background(), Key{"products", 1}, fetch)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), Key{"blockedDates"}, fetch)
	require.NoError(t, err)

	unsubscribe := c.Subscribe(Key{"products"}, func(Key) {})
	defer unsubscribe()

	c.Invalidate(Key{})
	n, err := c.RefetchStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, _ := c.Get(Key{"products", 1})
	assert.False(t, e.Stale)
	e, _ = c.Get(Key{"blockedDates"})
	assert.True(t, e.Stale, "unobserved entries stay stale until read")
}

func TestFetchAs_TypeMismatch(t *testing.T) {
	c := NewCache()
	c.Set(Key{"k"}, "string")
	_, err := FetchAs(context.Background(), c, Key{"k"}, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.Error(t, err)

	got, err := FetchAs(context.Background(), c, Key{"n"}, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
