// Package loader reads envin config files into presets.
//
// Supported formats, chosen by extension: YAML (.yaml, .yml), JSON with
// comments and trailing commas (.json, .jsonc) and Lua (.lua). Lua configs
// run in a sandboxed VM without os, io or module loading, and either return
// the config table or assign it to the global env.
//
// A config file looks like:
//
//	prefix: PUBLIC_
//	extends: [vercel]
//	server:
//	  DATABASE_URL: url
//	  PORT: {type: port, default: 3000}
//	client:
//	  PUBLIC_API_URL: {type: url, description: API base URL}
//	refine:
//	  - name: prod-sentry
//	    rule: 'APP_ENV == "production" => SENTRY_DSN != ""'
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"envin/internal/preset"
	"envin/internal/refine"
	"envin/internal/standard"
)

// ErrUnsupportedFormat is returned for unknown config file extensions.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Format identifies a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatLua  Format = "lua"
)

// Candidates are the file names Discover looks for, in order.
var Candidates = []string{
	"env.config.yaml",
	"env.config.yml",
	"env.config.jsonc",
	"env.config.json",
	"env.config.lua",
}

// ParseError is a config file that could not be decoded or built.
type ParseError struct {
	Path    string
	Message string
	Detail  string
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Path != "" {
		return e.Path + ": " + msg
	}
	return msg
}

// Config is a loaded config file.
type Config struct {
	Path     string
	Format   Format
	Document Document
	Preset   preset.Preset
	Rules    []refine.Rule
}

// Transform returns the transform hook enforcing the config's rules.
func (c *Config) Transform() func(standard.Schema, bool) standard.Schema {
	return refine.Transform(c.Rules)
}

// FormatOf maps a file extension to its format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".lua":
		return FormatLua, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Discover returns the first candidate config file present in dir.
func Discover(dir string) (string, error) {
	for _, name := range Candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file (%s) in %s: %w", strings.Join(Candidates, ", "), dir, fs.ErrNotExist)
}

// Load reads and builds the config file at path. A missing file returns an
// error satisfying errors.Is(err, fs.ErrNotExist).
func Load(ctx context.Context, path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(ctx, data, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and builds config content of the given format.
func Parse(ctx context.Context, data []byte, format Format) (*Config, error) {
	var (
		doc Document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatJSON:
		doc, err = decodeJSON(jsonc.ToJSON(data))
	case FormatLua:
		doc, err = decodeLua(ctx, string(data))
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &ParseError{Message: "invalid config", Detail: err.Error()}
	}

	p, rules, err := Build(doc)
	if err != nil {
		return nil, &ParseError{Message: "invalid config", Detail: err.Error()}
	}
	return &Config{Format: format, Document: doc, Preset: p, Rules: rules}, nil
}
