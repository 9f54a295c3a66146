package standard

import (
	"fmt"
	"maps"
	"slices"
)

// Dictionary maps variable names to their schemas. It is one bucket of a
// preset (shared, server or client) or a merged set of buckets.
type Dictionary map[string]Schema

// Keys returns the variable names in sorted order.
func (d Dictionary) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone returns a shallow copy of d. The copy of a nil dictionary is an
// empty, non-nil dictionary.
func (d Dictionary) Clone() Dictionary {
	out := make(Dictionary, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Has reports whether key is declared.
func (d Dictionary) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// ParseDictionary validates values against every declared key of d.
//
// Every key is checked even after a failure so that all broken variables are
// reported. Issue paths are prefixed with the originating key. When any issue
// is collected the success values are discarded and only the issues are
// returned. A pending result from any adapter aborts with an error wrapping
// ErrAsync.
func ParseDictionary(d Dictionary, values map[string]any) (Result, error) {
	out := make(map[string]any, len(d))
	var issues Issues

	for _, key := range d.Keys() {
		s := d[key]
		if s == nil {
			out[key] = nil
			continue
		}
		res := s.Validate(values[key])
		if err := EnsureSynchronous(res, fmt.Sprintf("%s returned a pending result", key)); err != nil {
			return Result{}, err
		}
		if res.Failed() {
			for _, it := range res.Issues {
				issues = append(issues, it.WithPrefix(key))
			}
			continue
		}
		out[key] = res.Value
	}

	if len(issues) > 0 {
		return Failure(issues...), nil
	}
	return Success(out), nil
}

// Object wraps a dictionary as a single Schema whose input and output are
// maps keyed by variable name. It is the shape handed to transform hooks.
func Object(d Dictionary) *ObjectSchema {
	return &ObjectSchema{Shape: d}
}

// ObjectSchema is a Dictionary seen as one Schema.
type ObjectSchema struct {
	Shape Dictionary
}

// Vendor implements Vendored.
func (o *ObjectSchema) Vendor() string { return "envin" }

// Validate accepts map[string]any, map[string]string or nil.
//
// A pending adapter result cannot be surfaced through Validate's signature,
// so it is passed through as a pending Result for the caller to reject.
func (o *ObjectSchema) Validate(value any) Result {
	values, ok := ToValues(value)
	if !ok {
		return Failure(Issue{
			Message: fmt.Sprintf("expected an object, received %T", value),
			Code:    CodeInvalidType,
		})
	}
	res, err := ParseDictionary(o.Shape, values)
	if err != nil {
		ch := make(chan Result)
		close(ch)
		return Deferred(ch)
	}
	return res
}

// ToValues converts the supported map shapes to map[string]any.
func ToValues(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
