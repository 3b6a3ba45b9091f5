// Package nonce implements replay prevention for signed requests.
//
// A (repository, nonce) pair is accepted at most once, across concurrent
// invocations and process restarts. Correctness rests entirely on the
// durable store's atomic insert-if-absent primitive; the in-process
// negative cache only short-circuits retried duplicates and is never the
// sole arbiter of uniqueness. Records and cache entries expire after the
// retention window (45 minutes by default), so a nonce older than the
// window may be accepted again — an accepted tradeoff bounded by the
// authenticator's timestamp-freshness check.
package nonce
