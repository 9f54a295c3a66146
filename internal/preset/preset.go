// Package preset models reusable groups of environment variable schemas and
// merges a tree of them into the single dictionary the engine validates.
//
// Precedence, lowest to highest: the presets a preset extends (recursively,
// in declaration order), then the preset's own buckets. Within one preset the
// buckets fold as shared, then server (server context only), then client.
package preset

import (
	"envin/internal/standard"
)

// RootID identifies the top-level configuration in introspection output.
const RootID = "root"

// Group names the bucket a variable is declared in.
type Group string

const (
	GroupShared Group = "shared"
	GroupServer Group = "server"
	GroupClient Group = "client"
)

// Preset is a reusable partial schema. Presets are treated as immutable:
// nothing in envin writes to one after construction.
type Preset struct {
	// ID is optional and only used for introspection.
	ID string
	// Prefix, when set, is required on every client key and forbidden on
	// every server key of this preset.
	Prefix  string
	Shared  standard.Dictionary
	Server  standard.Dictionary
	Client  standard.Dictionary
	Extends []Preset
}

// Name returns the ID, or RootID for an anonymous preset.
func (p Preset) Name() string {
	if p.ID == "" {
		return RootID
	}
	return p.ID
}

// Flatten expands a list of presets depth-first: each preset's own Extends
// come before the preset itself, and siblings keep their declared order.
func Flatten(presets []Preset) []Preset {
	var out []Preset
	var walk func(ps []Preset)
	walk = func(ps []Preset) {
		for _, p := range ps {
			walk(p.Extends)
			out = append(out, p)
		}
	}
	walk(presets)
	return out
}

// Combine folds the buckets of one preset, ignoring its Extends.
func Combine(p Preset, isServer bool) standard.Dictionary {
	out := make(standard.Dictionary, len(p.Shared)+len(p.Server)+len(p.Client))
	for k, s := range p.Shared {
		out[k] = s
	}
	if isServer {
		for k, s := range p.Server {
			out[k] = s
		}
	}
	for k, s := range p.Client {
		out[k] = s
	}
	return out
}

// Compose merges the flattened Extends of top, then top itself, into one
// dictionary. In client context server buckets are left out entirely.
func Compose(top Preset, isServer bool) standard.Dictionary {
	out := make(standard.Dictionary)
	for _, p := range Flatten(top.Extends) {
		for k, s := range Combine(p, isServer) {
			out[k] = s
		}
	}
	for k, s := range Combine(top, isServer) {
		out[k] = s
	}
	return out
}

// All returns top's flattened presets followed by top.
func All(top Preset) []Preset {
	return append(Flatten(top.Extends), top)
}
