package routing

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is the interface for compiled path patterns.
//
// TryMatch is pure and deterministic: it reports whether path matches and
// writes any extracted parameters into the caller-owned values buffer. It
// never allocates beyond that buffer and never mutates pattern state.
type Pattern interface {
	TryMatch(path string, values *Values) bool
	Kind() string
	Source() string
}

// ExactPattern matches a literal path, case-insensitively.
type ExactPattern struct {
	literal string
}

// NewExactPattern creates a new exact path pattern.
func NewExactPattern(literal string) *ExactPattern {
	return &ExactPattern{literal: literal}
}

// TryMatch checks for case-insensitive full-string equality. Exact
// patterns extract no parameters.
func (p *ExactPattern) TryMatch(path string, _ *Values) bool {
	return strings.EqualFold(path, p.literal)
}

// Literal returns the pattern's literal path. The resolver compares
// against it directly as a fast path.
func (p *ExactPattern) Literal() string {
	return p.literal
}

// Kind returns the pattern kind.
func (p *ExactPattern) Kind() string {
	return "exact"
}

// Source returns the pattern source string.
func (p *ExactPattern) Source() string {
	return p.literal
}

// templateSegment is one compiled segment of a template pattern.
type templateSegment struct {
	literal string
	isParam bool
	name    string
}

// TemplatePattern matches templated paths such as
// /badges/packages/{provider}/{package}. Segments are classified as
// literal or parameter at construction; matching walks the template and
// candidate path in lock-step, recording parameter offsets into the
// original path rather than copying text.
type TemplatePattern struct {
	source     string
	segments   []templateSegment
	paramCount int
}

// NewTemplatePattern compiles a template string.
func NewTemplatePattern(template string) (*TemplatePattern, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("template must start with '/': %s", template)
	}

	parts := strings.Split(strings.TrimPrefix(template, "/"), "/")
	segments := make([]templateSegment, 0, len(parts))
	paramCount := 0

	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" {
				return nil, fmt.Errorf("empty parameter name in template: %s", template)
			}
			segments = append(segments, templateSegment{isParam: true, name: name})
			paramCount++
		} else {
			segments = append(segments, templateSegment{literal: part})
		}
	}

	if paramCount > MaxParams {
		return nil, fmt.Errorf("template has %d parameters, max is %d: %s",
			paramCount, MaxParams, template)
	}

	return &TemplatePattern{
		source:     template,
		segments:   segments,
		paramCount: paramCount,
	}, nil
}

// TryMatch walks the path segment by segment against the compiled
// template. Literal segments compare case-insensitively; parameter
// segments record their absolute byte offset and length within path. A
// path whose '/'-delimited segment count differs from the template never
// matches.
func (p *TemplatePattern) TryMatch(path string, values *Values) bool {
	if len(path) == 0 || path[0] != '/' {
		return false
	}

	pos := 1
	for i := range p.segments {
		seg := &p.segments[i]

		end := strings.IndexByte(path[pos:], '/')
		if end < 0 {
			end = len(path)
		} else {
			end += pos
		}

		if seg.isParam {
			// Parameter segments must be non-empty.
			if end == pos {
				return false
			}
			if values != nil && !values.add(seg.name, pos, end-pos) {
				return false
			}
		} else if !strings.EqualFold(path[pos:end], seg.literal) {
			return false
		}

		if i < len(p.segments)-1 {
			// More template segments remain; the path must too.
			if end >= len(path) {
				return false
			}
			pos = end + 1
		} else {
			// Last template segment must consume the rest of the path.
			pos = end
		}
	}

	return pos == len(path)
}

// ParamCount returns the number of parameters in the template.
func (p *TemplatePattern) ParamCount() int {
	return p.paramCount
}

// Kind returns the pattern kind.
func (p *TemplatePattern) Kind() string {
	return "template"
}

// Source returns the pattern source string.
func (p *TemplatePattern) Source() string {
	return p.source
}

// RegexPattern matches paths using a regular expression. Named capture
// groups whose names are not purely numeric are extracted into the values
// buffer; extraction uses submatch indexes, so no substrings are
// allocated during matching.
type RegexPattern struct {
	source string
	regex  *regexp.Regexp
	names  []string
}

// NewRegexPattern compiles a regex pattern. The pattern is anchored to
// the full path.
func NewRegexPattern(pattern string) (*RegexPattern, error) {
	anchored := pattern
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^" + anchored
	}
	if !strings.HasSuffix(anchored, "$") {
		anchored += "$"
	}

	regex, err := regexp.Compile(anchored)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}

	names := regex.SubexpNames()
	paramCount := 0
	for _, name := range names {
		if name != "" && !isNumeric(name) {
			paramCount++
		}
	}
	if paramCount > MaxParams {
		return nil, fmt.Errorf("regex has %d named groups, max is %d: %s",
			paramCount, MaxParams, pattern)
	}

	return &RegexPattern{source: pattern, regex: regex, names: names}, nil
}

// TryMatch matches the path against the regex and records (offset,
// length) spans for each named group.
func (p *RegexPattern) TryMatch(path string, values *Values) bool {
	idx := p.regex.FindStringSubmatchIndex(path)
	if idx == nil {
		return false
	}

	if values == nil {
		return true
	}

	for i, name := range p.names {
		if i == 0 || name == "" || isNumeric(name) {
			continue
		}
		start, end := idx[2*i], idx[2*i+1]
		if start < 0 {
			continue
		}
		if !values.add(name, start, end-start) {
			return false
		}
	}

	return true
}

// Kind returns the pattern kind.
func (p *RegexPattern) Kind() string {
	return "regex"
}

// Source returns the pattern source string.
func (p *RegexPattern) Source() string {
	return p.source
}

// isNumeric reports whether s consists solely of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
