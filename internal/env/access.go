package env

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"envin/internal/preset"
	"envin/internal/standard"
)

// SchemaKey is the introspection key. Get(SchemaKey) returns the merged
// schema in every context.
const SchemaKey = "_schema"

// Housekeeping keys that always read as absent.
var hidden = map[string]bool{
	"__esModule": true,
	"$$typeof":   true,
}

// Env is a validated, read-only set of variables. All reads go through Get
// or one of its helpers, which enforce the client boundary.
type Env struct {
	values   map[string]any
	schema   standard.Dictionary
	boundary preset.Boundary
	isServer bool
	skipped  bool
	onAccess func(string) error
	log      *zap.Logger
}

// Get returns the value of key. In client context a key that is neither a
// prefixed client variable nor shared is blocked: the access hook runs and
// Get returns an *AccessError.
func (e *Env) Get(key string) (any, error) {
	if hidden[key] {
		return nil, nil
	}
	if key == SchemaKey {
		return e.Schema(), nil
	}
	if !e.isServer && !e.boundary.ClientVisible(key) {
		var hookErr error
		if e.onAccess != nil {
			hookErr = e.onAccess(key)
		} else {
			e.log.Warn("blocked client access to server variable", zap.String("variable", key))
		}
		return nil, &AccessError{Variable: key, Hook: hookErr}
	}
	return e.values[key], nil
}

// Lookup is Get reporting whether a non-nil value was readable.
func (e *Env) Lookup(key string) (any, bool) {
	v, err := e.Get(key)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the value of key formatted with fmt. Absent values are "".
func (e *Env) String(key string) (string, error) {
	v, err := e.Get(key)
	if err != nil || v == nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Keys returns the bound keys readable in the current context, sorted.
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		if hidden[k] {
			continue
		}
		if e.isServer || e.boundary.ClientVisible(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of every value readable in the current context.
func (e *Env) Map() map[string]any {
	out := make(map[string]any, len(e.values))
	for _, k := range e.Keys() {
		out[k] = e.values[k]
	}
	return out
}

// Public returns a copy of the client-visible values, whatever the context.
func (e *Env) Public() map[string]any {
	out := make(map[string]any)
	for k, v := range e.values {
		if e.boundary.ClientVisible(k) {
			out[k] = v
		}
	}
	return out
}

// Schema returns a copy of the merged schema.
func (e *Env) Schema() standard.Dictionary { return e.schema.Clone() }

// IsServer reports the context the result was bound in.
func (e *Env) IsServer() bool { return e.isServer }

// Skipped reports whether validation was bypassed.
func (e *Env) Skipped() bool { return e.skipped }
