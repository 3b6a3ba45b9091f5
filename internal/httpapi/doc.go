// Package httpapi is the request-dispatch layer of the badge API. The
// Router maps each inbound HTTP request through a fixed sequence: preflight
// short-circuit, route resolution, method checking, optional request
// authentication, and handler invocation, converting every failure along
// the way into a uniform JSON error response. Handlers receive an immutable
// request snapshot and return a plain status/header/body response, so they
// never touch the underlying connection.
package httpapi
