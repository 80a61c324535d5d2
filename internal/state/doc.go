// Package state provides the query cache shared by every part of backoffice.
//
// # Overview
//
// The cache maps a query Key (resource name plus parameters) to an Entry: the
// last good value, whether a fetch is in flight, whether the value is stale,
// and the last error. It is written by two paths only: the read-through
// fetch path (Fetch) and the mutation coordinator (Set, Restore, Remove,
// Invalidate, Cancel). Everything else reads.
//
// # Core Types
//
// Key:
//   - Ordered tuple, e.g. Key{"products", 2, Absent, true, ""}
//   - Canonical String form used as the map key
//   - HasPrefix drives family operations: Invalidate(Key{"products"})
//     marks every page of the product list stale
//
// Store / Querier:
//   - Store is the contract the mutation coordinator needs
//   - Querier adds Fetch and Latest for read paths
//   - *Cache implements both; tests create independent caches freely
//
// # Concurrency Model
//
// A sync.RWMutex guards the records. Subscribers are notified after the lock
// is released, through an EventBus topic per subscription.
//
// Concurrent Fetch calls for one key collapse into one fetcher call
// (singleflight). Each record carries a generation; Cancel and Invalidate
// bump it so that a fetch which started earlier cannot overwrite what came
// after it. Cancellation is advisory: the HTTP transfer still completes, its
// result is simply dropped.
//
// # Update Semantics
//
//	// Fetch success: replace value, clear error and stale flag
//	cache.Fetch(ctx, key, fetcher)
//	→ entry.Value = v, entry.Stale = false, entry.Err = nil
//
//	// Fetch failure: keep old value, record error
//	→ entry.Value = <unchanged>, entry.Err = err
//
// This keeps the last good data on screen while reporting failures, the same
// policy the background poller relies on.
//
// # Stale-While-Revalidate
//
// Latest(prefix) returns the newest value in a key family. List readers show
// it while the page they asked for is still loading, so paging never blanks
// the screen.
package state
