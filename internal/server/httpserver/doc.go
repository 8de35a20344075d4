// Package httpserver serves gatekeep over HTTP or HTTPS.
//
// NewRouter mounts every handler route behind the shared middleware chain
// (request IDs, client IP resolution, audit logging, Prometheus metrics,
// panic recovery and optional CORS on the JSON API) and exposes /metrics.
// Server wraps net/http with timeouts and TLS from a reloadable
// certificate source.
package httpserver
