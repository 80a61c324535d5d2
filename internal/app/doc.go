// Package app is the composition root for backoffice.
//
// # Overview
//
// Run loads configuration, opens the log file, restores the stored session,
// wires the API client, query cache, mutation coordinator and domain
// services, starts the revalidation poller, and then hands the terminal to
// the console until the operator quits or the context is cancelled.
//
// # Components
//
//   - app.go: Run and NewServices, the wiring shared with tests
//   - poller.go: background goroutine that refetches stale cache entries
//
// # Data Flow
//
//	config.Load ──► logging.New ──► session.Load
//	                     │
//	                     ▼
//	api.Client ──► state.Cache ◄── mutation.Coordinator
//	                     │               ▲
//	                     │        catalog / blockdates / website
//	                     ▼               ▲
//	               StartPoller          ui.Run
//
// # Polling Strategy
//
// The poller does not fetch anything on its own. Each pass asks the cache to
// refetch entries that are stale or failed and still have a subscriber, so
// only what the console is showing gets revalidated. Consecutive failures
// double the wait (2s, 4s, 8s, 16s) up to a 30s cap; one clean pass resets
// it.
//
// # Error Handling
//
// Startup errors (bad config, unwritable log directory, bad base URL) are
// returned to main. Runtime errors from the backend are logged and surfaced
// by the console; they never stop the program.
package app
