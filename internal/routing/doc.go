// Package routing implements the route-pattern compiler and resolver for
// the badge API.
//
// Patterns come in three variants: exact literals, templated paths such as
// /badges/packages/{provider}/{package}, and regular expressions with
// named capture groups. All variants are compiled once at table
// construction and are immutable afterwards. Matching writes parameter
// spans (offset and length into the original path string) into a
// caller-owned Values buffer rather than allocating substrings; callers
// materialize the values only when a route has actually been resolved.
//
// The Resolver scans an immutable Table in declared order, so table order
// doubles as matching priority: exact routes must precede templated ones
// sharing a prefix. Values buffers are pooled and checked out per call,
// never shared across concurrent resolutions.
package routing
