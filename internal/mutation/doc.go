// Package mutation implements the optimistic write path shared by every
// resource.
//
// # Lifecycle
//
// Run executes one logical write in a fixed order:
//
//  1. Begin: cancel in-flight fetches under the spec's keys so a stale read
//     cannot land on top of the optimistic value.
//  2. Snapshot: capture every cached entry under those keys when the spec
//     writes optimistically.
//  3. Optimistic apply: write the anticipated value (skipped for creates).
//  4. Invoke: call the remote operation, retrying transport failures.
//  5. Success: invalidate the keys plus dependent keys, then let OnSuccess
//     merge the authoritative server response.
//  6. Failure: restore every snapshot exactly and drop keys that did not
//     exist before, then return the remote error unchanged.
//  7. Settle: invalidate the Settle keys whatever the outcome.
//
// Two mutations on the same key are not serialized. The second one cancels
// the first one's fetches only; both reach the server.
package mutation
