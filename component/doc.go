// Package component defines the lifecycle contract shared by the
// long-running parts of walletd: the session manager, the SSE hub and the
// HTTP server.
//
// A Registry starts components in registration order, stops them in
// reverse and aggregates their health for the /health endpoint.
package component
