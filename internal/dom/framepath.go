// internal/dom/framepath.go
package dom

import (
	"fmt"
	"strconv"
	"strings"
)

// FramePath is an ordered sequence of zero-based iframe indices from the
// document root. It identifies a document without holding a reference to it;
// the underlying frame may reload or detach at any time, so a path is always
// re-resolved from the root when a live document is needed.
type FramePath []int

// RootPath is the path of the main document.
var RootPath = FramePath{}

// IsRoot reports whether the path identifies the main document.
func (p FramePath) IsRoot() bool { return len(p) == 0 }

// Depth is the iframe nesting level; the root document is depth 0.
func (p FramePath) Depth() int { return len(p) }

// Child returns the path of the index-th iframe of this document.
func (p FramePath) Child(index int) FramePath {
	child := make(FramePath, len(p), len(p)+1)
	copy(child, p)
	return append(child, index)
}

// String serializes the path as dot-joined indices ("" for the root).
func (p FramePath) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// Equal reports whether two paths identify the same frame.
func (p FramePath) Equal(other FramePath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ParseFramePath parses the wire encoding. Both the plain dot-joined form
// ("1.0") and the prefixed form ("iframe-1.0") are accepted; the empty string
// is the root.
func ParseFramePath(s string) (FramePath, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "iframe-")
	if s == "" {
		return RootPath, nil
	}

	parts := strings.Split(s, ".")
	path := make(FramePath, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid frame path segment %q: %w", part, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("frame path segment must not be negative: %d", idx)
		}
		path = append(path, idx)
	}
	return path, nil
}
