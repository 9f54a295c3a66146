// Package defaults extracts declared default values from schemas without
// validating anything. Adapters declare defaults in different ways, so the
// lookup is a list of strategies tried in order; the first one that
// recognizes the schema wins. Unknown shapes resolve to nil.
package defaults

import (
	"sync"

	"envin/internal/standard"
)

// Strategy returns the default declared by s and whether s declares one.
// A strategy that does not recognize the shape of s returns false.
type Strategy func(s standard.Schema) (any, bool)

type namedStrategy struct {
	name string
	fn   Strategy
}

// Registry is an ordered set of strategies. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies []namedStrategy
}

// NewRegistry returns a registry holding only the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register("default-method", DefaultMethod)
	r.Register("definition-method", DefinitionMethod)
	r.Register("default-field", DefaultField)
	r.Register("def-field", DefField)
	return r
}

// Register appends a strategy. A strategy registered under an existing name
// replaces it in place.
func (r *Registry) Register(name string, fn Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.strategies {
		if s.name == name {
			r.strategies[i].fn = fn
			return
		}
	}
	r.strategies = append(r.strategies, namedStrategy{name: name, fn: fn})
}

// Names returns the strategy names in lookup order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.name
	}
	return names
}

// Lookup returns the default of a single schema.
func (r *Registry) Lookup(s standard.Schema) (any, bool) {
	if s == nil {
		return nil, false
	}
	r.mu.RLock()
	strategies := append([]namedStrategy(nil), r.strategies...)
	r.mu.RUnlock()

	for _, st := range strategies {
		if v, ok := safeCall(st.fn, s); ok {
			return v, true
		}
	}
	return nil, false
}

// Dictionary returns one entry per declared key, nil where no default is
// declared.
func (r *Registry) Dictionary(d standard.Dictionary) map[string]any {
	out := make(map[string]any, len(d))
	for key, s := range d {
		v, _ := r.Lookup(s)
		out[key] = v
	}
	return out
}

// Resolve accepts a standard.Schema, a standard.Dictionary, or a
// *standard.ObjectSchema. A schema yields its default; the dictionary forms
// yield a map of defaults. Anything else yields nil.
func (r *Registry) Resolve(v any) any {
	switch t := v.(type) {
	case standard.Dictionary:
		return r.Dictionary(t)
	case *standard.ObjectSchema:
		return r.Dictionary(t.Shape)
	case standard.Schema:
		out, _ := r.Lookup(t)
		return out
	}
	return nil
}

func safeCall(fn Strategy, s standard.Schema) (v any, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	return fn(s)
}

var std = NewRegistry()

// Default returns the process-wide registry used by Resolve.
func Default() *Registry { return std }

// Register adds a strategy to the process-wide registry.
func Register(name string, fn Strategy) { std.Register(name, fn) }

// Resolve resolves v with the process-wide registry.
func Resolve(v any) any { return std.Resolve(v) }
