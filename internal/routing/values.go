package routing

// MaxParams is the capacity of a Values buffer. It must be at least the
// maximum parameter count across all registered routes; the badge API
// route set tops out at four parameters.
const MaxParams = 8

// paramSpan records one extracted parameter as an offset and length into
// the original path string.
type paramSpan struct {
	name   string
	offset int
	length int
}

// Values is a borrowed view over a matched path: parameter substrings are
// stored as (name, offset, length) spans referencing the original path
// buffer, not copies. A Values must not be retained past the lifetime of
// the path string without calling Materialize.
type Values struct {
	path  string
	spans [MaxParams]paramSpan
	count int
}

// Reset prepares the buffer for matching against path, discarding any
// previously recorded spans.
func (v *Values) Reset(path string) {
	v.path = path
	v.count = 0
}

// add records a parameter span. Returns false if the buffer is full.
func (v *Values) add(name string, offset, length int) bool {
	if v.count >= MaxParams {
		return false
	}
	v.spans[v.count] = paramSpan{name: name, offset: offset, length: length}
	v.count++
	return true
}

// Len returns the number of recorded parameters.
func (v *Values) Len() int {
	return v.count
}

// Get returns the value of the named parameter as a slice of the original
// path string.
func (v *Values) Get(name string) (string, bool) {
	for i := 0; i < v.count; i++ {
		s := &v.spans[i]
		if s.name == name {
			return v.path[s.offset : s.offset+s.length], true
		}
	}
	return "", false
}

// Materialize copies the parameters into a freshly allocated map, safe to
// retain independently of the path string.
func (v *Values) Materialize() map[string]string {
	if v.count == 0 {
		return nil
	}
	params := make(map[string]string, v.count)
	for i := 0; i < v.count; i++ {
		s := &v.spans[i]
		params[s.name] = v.path[s.offset : s.offset+s.length]
	}
	return params
}
