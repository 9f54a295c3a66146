package standard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Issue codes used by envin's own adapters and the engine. Third-party
// adapters may leave Code empty.
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidEnum   = "invalid_enum"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodePattern       = "pattern"
	CodeRefinement    = "refinement"
	CodeCustom        = "custom"
)

// PathSegment is the object form of a path element. Adapters may report
// either bare keys or PathSegment values; both are accepted everywhere.
type PathSegment struct {
	Key any
}

// Issue is a single validation failure.
type Issue struct {
	Message string
	// Path elements are string, int, or PathSegment.
	Path []any
	// Code is optional and only set by adapters that classify failures.
	Code string
}

// Keys returns the path with every PathSegment unwrapped to its key.
func (i Issue) Keys() []any {
	if len(i.Path) == 0 {
		return nil
	}
	keys := make([]any, len(i.Path))
	for idx, p := range i.Path {
		if seg, ok := p.(PathSegment); ok {
			keys[idx] = seg.Key
			continue
		}
		if seg, ok := p.(*PathSegment); ok && seg != nil {
			keys[idx] = seg.Key
			continue
		}
		keys[idx] = p
	}
	return keys
}

// Variable returns the first path element as a string, which for
// dictionary-parsed issues is the originating variable name.
func (i Issue) Variable() string {
	keys := i.Keys()
	if len(keys) == 0 {
		return ""
	}
	return keyString(keys[0])
}

// PathString renders the path as dot-separated keys, e.g. "DATABASE.hosts.0".
func (i Issue) PathString() string {
	keys := i.Keys()
	parts := make([]string, len(keys))
	for idx, k := range keys {
		parts[idx] = keyString(k)
	}
	return strings.Join(parts, ".")
}

// WithPrefix returns a copy of the issue whose path starts with key.
func (i Issue) WithPrefix(key any) Issue {
	path := make([]any, 0, len(i.Path)+1)
	path = append(path, key)
	path = append(path, i.Path...)
	i.Path = path
	return i
}

func (i Issue) String() string {
	if p := i.PathString(); p != "" {
		return fmt.Sprintf("%s: %s", p, i.Message)
	}
	return i.Message
}

func keyString(k any) string {
	switch v := k.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Issues is an ordered list of validation failures. It implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Variables returns the distinct variable names the issues point at, in
// order of first appearance.
func (iss Issues) Variables() []string {
	seen := make(map[string]bool, len(iss))
	var out []string
	for _, it := range iss {
		v := it.Variable()
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// ForVariable returns the issues whose path starts with name.
func (iss Issues) ForVariable(name string) Issues {
	var out Issues
	for _, it := range iss {
		if it.Variable() == name {
			out = append(out, it)
		}
	}
	return out
}

// AsIssues extracts Issues from an error chain.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
