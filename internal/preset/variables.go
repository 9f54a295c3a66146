package preset

import (
	"sort"

	"envin/internal/defaults"
	"envin/internal/standard"
)

// Variable describes one entry of the merged schema for display.
type Variable struct {
	Key         string
	Preset      string
	Group       Group
	Default     any
	HasDefault  bool
	Description string
	Schema      standard.Schema
}

// Variables lists the effective declaration of every merged key, sorted by
// key. The winning preset and group follow the same precedence as Compose.
func Variables(top Preset, isServer bool, reg *defaults.Registry) []Variable {
	if reg == nil {
		reg = defaults.Default()
	}
	winners := make(map[string]Variable)
	record := func(p Preset, g Group, d standard.Dictionary) {
		for k, s := range d {
			winners[k] = Variable{Key: k, Preset: p.Name(), Group: g, Schema: s}
		}
	}
	for _, p := range All(top) {
		record(p, GroupShared, p.Shared)
		if isServer {
			record(p, GroupServer, p.Server)
		}
		record(p, GroupClient, p.Client)
	}

	out := make([]Variable, 0, len(winners))
	for _, v := range winners {
		v.Default, v.HasDefault = reg.Lookup(v.Schema)
		if v.Schema != nil {
			v.Description = standard.DescriptionOf(v.Schema)
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
