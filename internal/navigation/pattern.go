package navigation

import (
	"fmt"
	"slices"
	"strings"
)

type segment struct {
	literal string
	param   string
}

func (s segment) dynamic() bool { return s.param != "" }

// Pattern is a compiled route path such as /accounts/:accountId. Segments
// starting with ':' are named parameters matching any single non-empty segment.
type Pattern struct {
	raw      string
	segments []segment
}

// CompilePattern parses raw into a Pattern.
func CompilePattern(raw string) (Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return Pattern{}, fmt.Errorf("%w: pattern %q must start with /", ErrInvalidRoute, raw)
	}
	parts := splitPath(raw)
	segs := make([]segment, len(parts))
	seen := make(map[string]bool)
	for i, part := range parts {
		if !strings.HasPrefix(part, ":") {
			segs[i] = segment{literal: part}
			continue
		}
		name := part[1:]
		if name == "" {
			return Pattern{}, fmt.Errorf("%w: pattern %q has an unnamed parameter", ErrInvalidRoute, raw)
		}
		if seen[name] {
			return Pattern{}, fmt.Errorf("%w: pattern %q repeats parameter %q", ErrInvalidRoute, raw, name)
		}
		seen[name] = true
		segs[i] = segment{param: name}
	}
	return Pattern{raw: normalize(raw), segments: segs}, nil
}

// String returns the normalised pattern text.
func (p Pattern) String() string { return p.raw }

// Dynamic reports whether the pattern has named parameters.
func (p Pattern) Dynamic() bool {
	return slices.ContainsFunc(p.segments, segment.dynamic)
}

// Match tests path against the pattern and returns the captured parameters.
func (p Pattern) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range p.segments {
		if seg.dynamic() {
			params[seg.param] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// Expand substitutes params into the pattern. It fails when a parameter is missing.
func (p Pattern) Expand(params map[string]string) (string, bool) {
	if len(p.segments) == 0 {
		return "/", true
	}
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		if !seg.dynamic() {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := params[seg.param]
		if !ok || v == "" {
			return "", false
		}
		b.WriteString(v)
	}
	return b.String(), true
}

// Overlaps reports whether some path matches both patterns.
func (p Pattern) Overlaps(q Pattern) bool {
	if len(p.segments) != len(q.segments) {
		return false
	}
	for i := range p.segments {
		a, b := p.segments[i], q.segments[i]
		if a.dynamic() || b.dynamic() {
			continue
		}
		if a.literal != b.literal {
			return false
		}
	}
	return true
}

// splitPath drops any query or fragment and returns the non-empty segments.
func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	fields := strings.Split(path, "/")
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func normalize(path string) string {
	return "/" + strings.Join(splitPath(path), "/")
}
