// Package httpclient sends authenticated JSON requests to the recipe backend.
//
// # Overview
//
// [Client.Send] is the only way the rest of ladle reaches the network. It
// builds the request URL from the configured base, encodes the body as JSON,
// attaches credentials from the session vault, and decodes the response.
//
// # Authentication
//
// When the vault holds an access token every request carries
// "Authorization: Bearer <token>". A 401 response triggers one recovery:
//
//  1. The call is marked as retried; a second 401 is returned as-is.
//  2. Without a stored refresh token the original 401 is returned.
//  3. POST /auth/refresh/ exchanges the refresh token for a new access token.
//     Concurrent callers share one exchange, which runs detached from their
//     contexts under the client timeout.
//  4. On success the new token is stored and the original request is replayed.
//  5. On failure the session is cleared, OnSessionExpired fires, and the error
//     wraps [ErrSessionExpired].
//
// A request whose context is cancelled mid-refresh returns the context error
// and leaves the session alone; other callers waiting on the same exchange
// still receive its result. A refresh that completes after the session was
// cleared or replaced is discarded and the caller gets the original 401.
//
// # Errors
//
// Non-2xx responses become [*Error], carrying the status code plus any
// "detail" message and per-field validation errors found in the body.
// Network failures wrap [ErrTransport]. [Classify] maps any error onto the
// [Kind] taxonomy and [Message] extracts text suitable for display.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: ladle/<version>
//   - Carry an X-Request-ID that stays the same across the 401 replay
//   - Wait on the optional rate limiter before dialing
package httpclient
