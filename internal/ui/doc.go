// Package ui implements the backoffice operator console with Bubble Tea.
//
// # Views
//
//   - Login: email and password; a stored session skips it
//   - Products: server-paginated list with category, status and search
//     filters, enable/disable and delete with confirmation; n and e open
//     the product form (name, category, description, five media slots,
//     cover), which only saves an edit that changes something
//   - Calendar: month grid of blocked dates; enter blocks or unblocks the
//     selected day
//   - Website: the four site sections as editable rows (media slots, copy,
//     contact price ranges) saved as one submission
//
// # Data Flow
//
// The model never holds domain data of its own. Every render reads the
// shared state.Cache through the catalog, blockdates and website services,
// so optimistic writes show up on the next frame. Commands run the blocking
// service calls and report back with small result messages.
//
// Run subscribes to the cache families the console renders. Subscription
// callbacks only set a flag on a one-slot channel; a forwarder goroutine
// turns it into a cacheChangedMsg, so cache writers never block on the UI.
// Those subscriptions are also what marks entries as observed for the
// background revalidation poller.
//
// # Notices
//
// Transient messages live on a notice.Board. A one second tick re-renders
// the footer so expired notices disappear without input. Product failures
// carry no TTL and stay until replaced or dismissed with esc.
//
// # Session Expiry
//
// Any 401 from the backend sends the operator to the login view and returns
// them to where they were once they sign in again.
package ui
