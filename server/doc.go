// Package server exposes the wallet session manager over HTTP.
//
// The engine is Gin behind an h2c handler so local clients can use either
// HTTP/1.1 or cleartext HTTP/2. It runs as a component: Start binds the
// listener and Stop drains in-flight requests.
//
// # Middleware
//
// New installs the server/middleware chain in this order:
//
//   - Recovery: turns panics into a 500 with the standard error body
//   - RequestID: accepts or generates X-Request-Id
//   - CORS: origins allowed to call the daemon from a browser
//   - BodySizeLimit: caps request bodies at MaxBodyBytes
//   - RequestLogger: one log line per request
//
// # Routes
//
// WalletHandler mounts the session API (GET /session, connect, switch,
// disconnect) and the SSE event stream. RegisterDefaultEndpoints adds
// /health and /info from server/endpoint.
package server
