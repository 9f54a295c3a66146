package preset

import (
	"fmt"
	"strings"
)

// Boundary records which variables may be read outside server context.
type Boundary struct {
	client map[string]bool
	shared map[string]bool
}

// Visibility computes the boundary of top and everything it extends. A key
// is client-visible when some preset declares it as client and the key
// satisfies that preset's prefix, or when some preset declares it shared.
func Visibility(top Preset) Boundary {
	b := Boundary{client: map[string]bool{}, shared: map[string]bool{}}
	for _, p := range All(top) {
		for k := range p.Client {
			if p.Prefix == "" || strings.HasPrefix(k, p.Prefix) {
				b.client[k] = true
			}
		}
		for k := range p.Shared {
			b.shared[k] = true
		}
	}
	return b
}

// IsClient reports whether key is a prefixed client variable.
func (b Boundary) IsClient(key string) bool { return b.client[key] }

// IsShared reports whether key is declared shared anywhere.
func (b Boundary) IsShared(key string) bool { return b.shared[key] }

// ClientVisible reports whether key may be read in client context.
func (b Boundary) ClientVisible(key string) bool { return b.client[key] || b.shared[key] }

// PrefixViolation is one key that breaks its preset's prefix rule.
type PrefixViolation struct {
	Preset string
	Group  Group
	Key    string
	Prefix string
}

func (v PrefixViolation) String() string {
	if v.Group == GroupServer {
		return fmt.Sprintf("server variable %s in preset %q should not be prefixed with %s", v.Key, v.Preset, v.Prefix)
	}
	return fmt.Sprintf("client variable %s in preset %q is not prefixed with %s", v.Key, v.Preset, v.Prefix)
}

// PrefixError lists every prefix violation found in a preset tree.
type PrefixError struct {
	Violations []PrefixViolation
}

func (e *PrefixError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "invalid variable prefixes: " + strings.Join(msgs, "; ")
}

// CheckPrefixes enforces, for every preset in the tree that declares a
// prefix, that client keys carry it and server keys do not. Each preset is
// checked against its own prefix only.
func CheckPrefixes(top Preset) error {
	var violations []PrefixViolation
	for _, p := range All(top) {
		if p.Prefix == "" {
			continue
		}
		for _, k := range p.Client.Keys() {
			if !strings.HasPrefix(k, p.Prefix) {
				violations = append(violations, PrefixViolation{Preset: p.Name(), Group: GroupClient, Key: k, Prefix: p.Prefix})
			}
		}
		for _, k := range p.Server.Keys() {
			if strings.HasPrefix(k, p.Prefix) {
				violations = append(violations, PrefixViolation{Preset: p.Name(), Group: GroupServer, Key: k, Prefix: p.Prefix})
			}
		}
	}
	if len(violations) > 0 {
		return &PrefixError{Violations: violations}
	}
	return nil
}
