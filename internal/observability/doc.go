// Package observability provides structured logging for the badge API.
//
// Logging is built on zap behind a small Logger interface so packages can
// depend on the interface rather than a concrete logger. Metrics are
// registered per package with prometheus; see the metrics.go files in the
// individual packages.
package observability
