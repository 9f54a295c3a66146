// Package resolver gathers raw variable values from the process environment
// and from .env files, recording where each value came from.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Mode selects which .env files are read.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ParseMode accepts the mode names and their short forms dev and prod.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev", "development":
		return ModeDevelopment, nil
	case "prod", "production":
		return ModeProduction, nil
	}
	return "", fmt.Errorf("unknown mode %q (want development or production)", s)
}

// OriginProcess marks values taken from the process environment.
const OriginProcess = "process"

// Files lists the .env files for mode, lowest precedence first.
func Files(mode Mode) []string {
	return []string{".env", ".env.local", ".env." + string(mode), ".env." + string(mode) + ".local"}
}

// Source is a merged set of raw values.
type Source struct {
	Values map[string]string
	// Origins lists, per key, every file (or OriginProcess) that set it, in
	// the order they were applied. The last entry is the effective one.
	Origins map[string][]string
	// Files are the .env files that existed and were read.
	Files []string
}

func newSource() *Source {
	return &Source{Values: map[string]string{}, Origins: map[string][]string{}}
}

func (s *Source) set(key, value, origin string) {
	s.Values[key] = value
	s.Origins[key] = append(s.Origins[key], origin)
}

// Keys returns every key with a value, sorted.
func (s *Source) Keys() []string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Origin returns the origin of the effective value of key, or "".
func (s *Source) Origin(key string) string {
	o := s.Origins[key]
	if len(o) == 0 {
		return ""
	}
	return o[len(o)-1]
}

// LoadFiles reads the .env files for mode from dir. Missing files are
// skipped; later files override earlier ones.
func LoadFiles(dir string, mode Mode) (*Source, error) {
	src := newSource()
	for _, name := range Files(mode) {
		path := filepath.Join(dir, name)
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		src.Files = append(src.Files, name)
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			src.set(k, values[k], name)
		}
	}
	return src, nil
}

// Resolve layers the .env files of dir under the process environment, so a
// variable exported in the shell wins over any file.
func Resolve(dir string, mode Mode, environ []string) (*Source, error) {
	src, err := LoadFiles(dir, mode)
	if err != nil {
		return nil, err
	}
	env := ParseEnviron(environ)
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		src.set(k, env[k], OriginProcess)
	}
	return src, nil
}

// ResolvedValue is the raw state of one declared variable.
type ResolvedValue struct {
	Key     string
	Value   string
	Present bool
	Origins []string
}

// Lookup reports the raw value of every key, in the given order.
func (s *Source) Lookup(keys []string) []ResolvedValue {
	out := make([]ResolvedValue, 0, len(keys))
	for _, k := range keys {
		v, ok := s.Values[k]
		out = append(out, ResolvedValue{
			Key:     k,
			Value:   v,
			Present: ok,
			Origins: append([]string(nil), s.Origins[k]...),
		})
	}
	return out
}

// ParseEnviron converts an environ slice (["KEY=VALUE", ...]) into a map.
// Values may be empty or contain "="; entries without "=" are skipped.
func ParseEnviron(environ []string) map[string]string {
	result := make(map[string]string, len(environ))
	for _, entry := range environ {
		idx := strings.Index(entry, "=")
		if idx == -1 {
			continue
		}
		result[entry[:idx]] = entry[idx+1:]
	}
	return result
}

// Environ renders values as a sorted environ slice, the inverse of
// ParseEnviron.
func Environ(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+values[k])
	}
	return out
}
