// Package middleware provides the HTTP middleware applied around the badge
// API router: request ID propagation, per-client rate limiting, and the
// cross-origin response policy the router applies to every response.
package middleware
