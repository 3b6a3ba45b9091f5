// Package handlers implements the badge API endpoints and assembles them
// into the immutable route table the router dispatches against.
package handlers
