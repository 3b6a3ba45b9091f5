package nonce

import (
	"context"
	"time"
)

// DefaultRetention is the window during which a consumed nonce stays
// tracked. Durable records and cache entries both expire after it.
const DefaultRetention = 45 * time.Minute

// Record is the durable mark for a consumed nonce. It is created exactly
// once per valid nonce and is immutable thereafter; the store's native
// time-to-live mechanism expires it.
type Record struct {
	// Repository is the partition identity, e.g. "github/org1/repo1".
	Repository string `json:"repository"`

	// Nonce is the single-use token value.
	Nonce string `json:"nonce"`

	// RequestTimestamp is the timestamp declared by the signed request.
	RequestTimestamp time.Time `json:"request_timestamp"`

	// MarkedAt is when the nonce was consumed.
	MarkedAt time.Time `json:"marked_at"`

	// ExpiresAt is when the record falls out of the retention window.
	ExpiresAt time.Time `json:"expires_at"`
}

// Key returns the composite store key: a NONCE# partition per repository
// with the nonce value as the sort component.
func (r Record) Key() string {
	return "NONCE#" + r.Repository + ":" + r.Nonce
}

// Store is a durable key-value store supporting atomic insert-if-absent
// with a per-record time-to-live.
type Store interface {
	// PutIfAbsent atomically inserts rec under its key only if no record
	// with that exact key currently exists. It returns true if the
	// insert happened and false if a record was already present. Any
	// other outcome is an error: the caller must treat it as "cannot
	// determine", never as either valid or reused.
	PutIfAbsent(ctx context.Context, rec Record, ttl time.Duration) (bool, error)

	// Close releases store resources.
	Close() error
}
