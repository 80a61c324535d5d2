// Package api provides an HTTP client for the studio's admin REST API.
//
// # Overview
//
// This package translates each admin operation into exactly one HTTP request
// and each response into either a decoded value or a *RemoteError. It knows
// nothing about caching; the state, mutation and domain packages above it
// decide when to call it and what to do with the outcome.
//
// # Architecture
//
//   - client.go: Client, one method per operation, request/response handling
//   - form.go: multipart/form-data builder shared by products and website saves
//   - types.go: payloads mirroring the API schema
//   - errors.go: RemoteError and the transport-failure classification
//
// # API Endpoints
//
//	GET    /products?page&category&status&search  -> {products, page, pages, total}
//	GET    /products/{id}                         -> product
//	POST   /products                              -> created product (multipart)
//	PUT    /products/{id}                         -> updated product (multipart)
//	PUT    /products/status/{id}                  -> updated product
//	DELETE /products/{id}                         -> ack
//	GET    /blockdates                            -> ["2025-06-10", ...]
//	POST   /blockdates                            -> ack, body {blockDates: [...]}
//	GET    /website/{section}                     -> section content
//	PUT    /website/{section}                     -> section content (multipart)
//	POST   /auth/login                            -> {user, ...}
//
// ListProducts normalizes {products, page, pages, total} into ProductPage.
// Page counters are decoded leniently since some deployments send them as
// strings.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept: application/json and User-Agent: backoffice/0.1
//   - Carry a fresh X-Request-ID for correlating with server logs
//   - Carry the session cookie from the client's cookie jar
//
// # Error Handling
//
// Non-2xx responses become *RemoteError{Message, Status}. Message is the
// "message" field of the JSON error body when present, else a fixed fallback
// per operation ("Failed to fetch products", ...).
//
// Transport failures (connection refused, DNS, timeout) become
// *RemoteError{Message: "Failed to fetch", Status: 0}; IsTransport reports
// them so callers can retry only network-class failures. A cancelled context
// is returned as a wrapped context error, not as a RemoteError.
//
// # Testing Considerations
//
// Use httptest.Server to stand in for the API. Packages that sit on top of
// the client depend on the Remote interface and can substitute a fake.
package api
