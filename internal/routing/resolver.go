package routing

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Match is the transient result of a successful resolution, discarded
// after handler invocation.
type Match[H any] struct {
	Descriptor *Descriptor[H]
	Values     *Values
}

// Resolver resolves (method, path) pairs against an immutable table.
// Values buffers are pooled and checked out per call so concurrent
// resolutions never share a buffer.
type Resolver[H any] struct {
	table *Table[H]
	pool  sync.Pool
}

// NewResolver creates a resolver over the given table.
func NewResolver[H any](table *Table[H]) *Resolver[H] {
	return &Resolver[H]{
		table: table,
		pool: sync.Pool{
			New: func() any { return &Values{} },
		},
	}
}

// AcquireValues checks a parameter buffer out of the pool. The caller
// must return it with ReleaseValues once any extracted parameters have
// been materialized.
func (r *Resolver[H]) AcquireValues() *Values {
	return r.pool.Get().(*Values)
}

// ReleaseValues returns a buffer to the pool.
func (r *Resolver[H]) ReleaseValues(v *Values) {
	if v != nil {
		v.Reset("")
		r.pool.Put(v)
	}
}

// TryResolve scans the table in declared order and returns the first
// descriptor whose method and pattern match, writing extracted parameters
// into values. HEAD is treated as GET, so every GET route is implicitly
// HEAD-reachable. Resolution never fails with an error; a miss is simply
// (nil, false).
func (r *Resolver[H]) TryResolve(method, path string, values *Values) (*Descriptor[H], bool) {
	start := time.Now()
	normalized := NormalizeMethod(method)

	for i := range r.table.routes {
		desc := &r.table.routes[i]
		if desc.Method != normalized {
			continue
		}

		// Fast path: exact literals compare directly without the
		// generic matcher. Spans left behind by an earlier failed
		// template match must not leak into a parameterless result.
		if exact, ok := desc.Pattern.(*ExactPattern); ok {
			if strings.EqualFold(path, exact.Literal()) {
				values.Reset(path)
				observeResolve("matched", time.Since(start))
				return desc, true
			}
			continue
		}

		values.Reset(path)
		if desc.Pattern.TryMatch(path, values) {
			observeResolve("matched", time.Since(start))
			return desc, true
		}
	}

	observeResolve("not_found", time.Since(start))
	return nil, false
}

// AllowedMethods re-scans the table ignoring method and collects the
// method of every descriptor whose pattern matches the path. HEAD is
// synthesized when GET is present and OPTIONS is always included, so the
// result is directly usable for 404/405 Allow headers and CORS
// allow-methods responses.
func (r *Resolver[H]) AllowedMethods(path string) []string {
	values := r.AcquireValues()
	defer r.ReleaseValues(values)

	var methods []string
	seen := make(map[string]struct{}, 4)

	for i := range r.table.routes {
		desc := &r.table.routes[i]
		values.Reset(path)
		if !desc.Pattern.TryMatch(path, values) {
			continue
		}
		if _, dup := seen[desc.Method]; dup {
			continue
		}
		seen[desc.Method] = struct{}{}
		methods = append(methods, desc.Method)
	}

	if _, hasGet := seen[http.MethodGet]; hasGet {
		if _, hasHead := seen[http.MethodHead]; !hasHead {
			methods = append(methods, http.MethodHead)
		}
	}
	methods = append(methods, http.MethodOptions)

	return methods
}

// NormalizeMethod upper-cases the method and folds HEAD into GET for
// matching purposes.
func NormalizeMethod(method string) string {
	m := strings.ToUpper(method)
	if m == http.MethodHead {
		return http.MethodGet
	}
	return m
}
