// Package packages looks up the latest published version of a package
// from an upstream registry. Lookups are cached in process because badge
// endpoints are polled far more often than packages are released.
package packages
