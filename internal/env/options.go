package env

import (
	"go.uber.org/zap"

	"envin/internal/defaults"
	"envin/internal/preset"
	"envin/internal/standard"
)

// Options configures one Define call. The embedded Preset is the top-level
// configuration: its buckets win over everything in Extends.
type Options struct {
	preset.Preset

	// Values is the raw input. The zero value is an empty loose source.
	Values ValuesSource

	// IsServer selects the runtime context. Nil means server.
	IsServer *bool

	// Skip bypasses validation and binds defaults overlaid with raw values.
	Skip bool

	// OnError is called with every issue when validation fails. Define
	// returns an error on that path whatever the hook returns.
	OnError func(issues standard.Issues) error

	// OnInvalidAccess is called with the variable name when a server-only
	// variable is read in client context.
	OnInvalidAccess func(variable string) error

	// Transform receives the merged schema as one object schema and may
	// return a replacement, for example to add cross-field checks.
	Transform func(shape standard.Schema, isServer bool) standard.Schema

	// Logger receives validation diagnostics. Nil uses zap.L().
	Logger *zap.Logger

	// Defaults resolves defaults in skip mode. Nil uses defaults.Default().
	Defaults *defaults.Registry
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.L()
}

func (o Options) registry() *defaults.Registry {
	if o.Defaults != nil {
		return o.Defaults
	}
	return defaults.Default()
}

func (o Options) server() bool {
	if o.IsServer == nil {
		return true
	}
	return *o.IsServer
}

// Server returns a pointer for Options.IsServer.
func Server(v bool) *bool { return &v }

// ValuesSource is the raw key/value input, either loose (any subset of the
// schema keys) or strict (exactly the schema keys).
type ValuesSource struct {
	values map[string]any
	strict bool
}

// Loose accepts any subset of variables. Unknown keys are ignored by
// validation.
func Loose(values map[string]any) ValuesSource {
	return ValuesSource{values: values}
}

// Strict requires the source to supply exactly the merged schema keys.
func Strict(values map[string]any) ValuesSource {
	return ValuesSource{values: values, strict: true}
}

// LooseStrings is Loose for string maps such as a parsed environment.
func LooseStrings(values map[string]string) ValuesSource {
	return Loose(stringsToAny(values))
}

// StrictStrings is Strict for string maps.
func StrictStrings(values map[string]string) ValuesSource {
	return Strict(stringsToAny(values))
}

// IsStrict reports whether the source is strict.
func (v ValuesSource) IsStrict() bool { return v.strict }

// normalized returns a copy with every empty-string value removed.
func (v ValuesSource) normalized() map[string]any {
	out := make(map[string]any, len(v.values))
	for k, val := range v.values {
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		out[k] = val
	}
	return out
}

func stringsToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
