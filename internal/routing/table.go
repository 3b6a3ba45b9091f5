package routing

import (
	"fmt"
	"strings"
)

// Descriptor binds an HTTP method and compiled pattern to a handler. It
// is immutable after table construction. H is the handler type supplied
// by the hosting layer; the resolver never inspects it.
type Descriptor[H any] struct {
	// Name identifies the route in logs and metrics.
	Name string

	// Method is the HTTP method, upper-case. GET routes are implicitly
	// reachable via HEAD.
	Method string

	// RequiresAuth marks routes gated behind signature authentication.
	RequiresAuth bool

	// Handler is the handler reference invoked on a match.
	Handler H

	// Pattern is the compiled path pattern.
	Pattern Pattern
}

// Table is an ordered, immutable list of route descriptors built once at
// process start. Declaration order is matching priority: the first
// structural match wins, so more specific patterns must precede more
// general ones.
type Table[H any] struct {
	routes []Descriptor[H]
}

// NewTable builds a table from descriptors, validating names, methods,
// and patterns. The descriptor slice is copied; the table never changes
// afterwards.
func NewTable[H any](descriptors []Descriptor[H]) (*Table[H], error) {
	seen := make(map[string]struct{}, len(descriptors))
	routes := make([]Descriptor[H], len(descriptors))

	for i, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("route %d has no name", i)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("duplicate route name: %s", d.Name)
		}
		seen[d.Name] = struct{}{}

		if d.Method == "" {
			return nil, fmt.Errorf("route %s has no method", d.Name)
		}
		if d.Pattern == nil {
			return nil, fmt.Errorf("route %s has no pattern", d.Name)
		}

		d.Method = strings.ToUpper(d.Method)
		routes[i] = d
	}

	return &Table[H]{routes: routes}, nil
}

// Len returns the number of routes in the table.
func (t *Table[H]) Len() int {
	return len(t.routes)
}

// Routes returns a copy of the descriptor list.
func (t *Table[H]) Routes() []Descriptor[H] {
	routes := make([]Descriptor[H], len(t.routes))
	copy(routes, t.routes)
	return routes
}
