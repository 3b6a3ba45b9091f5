// Package hmac authenticates signed badge-ingestion requests.
//
// A protected request carries three headers: an HMAC-SHA256 signature, a
// Unix-seconds timestamp, and a single-use nonce. The authenticator
// recomputes the signature over a canonical representation of the request
// using the repository's signing secret, checks the timestamp against a
// bounded clock-skew window, and consumes the nonce exactly once via the
// replay-prevention store. All three checks must pass before a request is
// considered authenticated.
package hmac
