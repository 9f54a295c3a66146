package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gopkg.in/yaml.v3"

	"envin/internal/defaults"
	"envin/internal/preset"
	"envin/internal/schema"
	"envin/internal/standard"
)

const yamlConfig = `
prefix: PUB_
extends:
  - vercel
  - id: shared-db
    server:
      DATABASE_URL: url
server:
  PORT: {type: port, default: 3000, description: HTTP port}
  APP_ENV: {type: enum, values: [development, production], default: development}
  SENTRY_DSN: {type: string, optional: true}
client:
  PUB_API_URL: url
refine:
  - name: prod-sentry
    rule: 'APP_ENV == "production" => SENTRY_DSN != ""'
`

const jsoncConfig = `{
  // comments and trailing commas are fine
  "prefix": "PUB_",
  "extends": ["vercel", {"id": "shared-db", "server": {"DATABASE_URL": "url"}}],
  "server": {
    "PORT": {"type": "port", "default": 3000, "description": "HTTP port"},
    "APP_ENV": {"type": "enum", "values": ["development", "production"], "default": "development"},
    "SENTRY_DSN": {"type": "string", "optional": true},
  },
  "client": {"PUB_API_URL": "url"},
  "refine": [{"name": "prod-sentry", "rule": "APP_ENV == \"production\" => SENTRY_DSN != \"\""}],
}`

const luaConfig = `
local port = 3000
return {
  prefix = "PUB_",
  extends = { "vercel", { id = "shared-db", server = { DATABASE_URL = "url" } } },
  server = {
    PORT = { type = "port", default = port, description = "HTTP" .. " port" },
    APP_ENV = { type = "enum", values = { "development", "production" }, default = "development" },
    SENTRY_DSN = { type = "string", optional = true },
  },
  client = { PUB_API_URL = "url" },
  refine = { { name = "prod-sentry", rule = 'APP_ENV == "production" => SENTRY_DSN != ""' } },
}
`

func TestParse_AllFormatsAgree(t *testing.T) {
	for _, tt := range []struct {
		format Format
		data   string
	}{
		{FormatYAML, yamlConfig},
		{FormatJSON, jsoncConfig},
		{FormatLua, luaConfig},
	} {
		t.Run(string(tt.format), func(t *testing.T) {
			cfg, err := Parse(context.Background(), []byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			p := cfg.Preset
			if p.Prefix != "PUB_" {
				t.Errorf("Prefix = %q", p.Prefix)
			}
			if len(p.Extends) != 2 || p.Extends[0].ID != "vercel" || p.Extends[1].ID != "shared-db" {
				t.Fatalf("Extends = %+v", p.Extends)
			}
			if !p.Extends[1].Server.Has("DATABASE_URL") {
				t.Error("inline preset lost its server bucket")
			}

			port, ok := p.Server["PORT"].(*schema.Field)
			if !ok || port.Kind() != schema.KindPort || port.Description() != "HTTP port" {
				t.Fatalf("PORT = %#v", p.Server["PORT"])
			}
			if v, ok := defaults.Default().Lookup(port); !ok || v != 3000 {
				t.Errorf("PORT default = %#v, %v", v, ok)
			}
			if len(cfg.Rules) != 1 || cfg.Rules[0].Name != "prod-sentry" {
				t.Errorf("Rules = %+v", cfg.Rules)
			}
			if err := preset.CheckPrefixes(p); err != nil {
				t.Errorf("CheckPrefixes() = %v", err)
			}
		})
	}
}

func TestParse_TransformEnforcesRules(t *testing.T) {
	cfg, err := Parse(context.Background(), []byte(yamlConfig), FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	shape := standard.Object(preset.Compose(cfg.Preset, true))
	refined := cfg.Transform()(shape, true)

	values := map[string]any{
		"APP_ENV":      "production",
		"DATABASE_URL": "postgres://db/app",
		"PUB_API_URL":  "https://api.example.com",
	}
	res := refined.Validate(values)
	if !res.Failed() || res.Issues[0].Variable() != "APP_ENV" {
		t.Fatalf("expected rule violation, got %+v", res)
	}

	values["SENTRY_DSN"] = "https://sentry.example.com/1"
	if res := refined.Validate(values); !res.OK() {
		t.Errorf("valid values failed: %v", res.Issues)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		data    string
		wantErr string
	}{
		{name: "yaml syntax", format: FormatYAML, data: "server: [", wantErr: "invalid YAML"},
		{name: "unknown type", format: FormatYAML, data: "server:\n  A: object\n", wantErr: "variable A: unknown type 'object'"},
		{name: "enum without values", format: FormatYAML, data: "server:\n  A: enum\n", wantErr: "enum type requires 'values'"},
		{name: "literal without value", format: FormatYAML, data: "server:\n  A: literal\n", wantErr: "literal type requires 'value'"},
		{name: "bad default", format: FormatYAML, data: "server:\n  A: {type: port, default: 99999}\n", wantErr: "invalid default"},
		{name: "bad pattern", format: FormatYAML, data: "server:\n  A: {type: string, pattern: '['}\n", wantErr: "invalid pattern"},
		{name: "unknown preset", format: FormatYAML, data: "extends: [heroku]\n", wantErr: `unknown preset "heroku"`},
		{name: "nested refine", format: FormatYAML, data: "extends:\n  - id: x\n    refine: [{name: a, rule: 'A'}]\n", wantErr: "only allowed at the top level"},
		{name: "rule on unknown var", format: FormatYAML, data: "server:\n  A: string\nrefine: [{name: r, rule: 'B != \"\"'}]\n", wantErr: "undefined variable(s): B"},
		{name: "json syntax", format: FormatJSON, data: `{"server": }`, wantErr: "invalid JSON"},
		{name: "lua syntax", format: FormatLua, data: `return {`, wantErr: "Lua syntax error"},
		{name: "lua runtime", format: FormatLua, data: `error("boom")`, wantErr: "Lua runtime error"},
		{name: "lua no table", format: FormatLua, data: `local x = 1`, wantErr: "missing or invalid 'env' table"},
		{name: "unknown format", format: Format("toml"), data: ``, wantErr: "unsupported config format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.data), tt.format)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLua_Sandbox(t *testing.T) {
	for _, call := range []string{
		`os.execute("true")`,
		`io.open("/etc/passwd")`,
		`require("os")`,
		`dofile("/etc/passwd")`,
		`loadfile("/etc/passwd")`,
		`load("return 1")`,
		`loadstring("return 1")`,
		`debug.getinfo(1)`,
		`module("os")`,
		`package.loaded.os.execute("true")`,
	} {
		t.Run(call, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(call), FormatLua)
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Message != "Lua runtime error" {
				t.Errorf("Parse(%s) error = %v, want Lua runtime error", call, err)
			}
		})
	}
}

func TestLua_SandboxModuleEscape(t *testing.T) {
	for _, lib := range []string{"os", "io"} {
		t.Run(lib, func(t *testing.T) {
			marker := filepath.Join(t.TempDir(), "marker")
			var src string
			if lib == "os" {
				src = `module("os") execute("touch ` + marker + `")`
			} else {
				src = `module("io") local f = open("` + marker + `", "w") f:write("x") f:close()`
			}

			_, err := Parse(context.Background(), []byte(src), FormatLua)
			if err == nil {
				t.Error("script escaping through module() should fail")
			}
			if _, statErr := os.Stat(marker); !errors.Is(statErr, fs.ErrNotExist) {
				t.Errorf("marker file was created (stat error = %v)", statErr)
			}
		})
	}
}

func TestLua_GlobalTableAndSafeLibraries(t *testing.T) {
	src := `
env = { server = {} }
for _, name in ipairs({ "a", "b" }) do
  env.server[string.upper(name)] = { type = "int", min = math.floor(1.5) }
end
`
	cfg, err := Parse(context.Background(), []byte(src), FormatLua)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Preset.Server.Has("A") || !cfg.Preset.Server.Has("B") {
		t.Fatalf("Server = %v", cfg.Preset.Server.Keys())
	}
	if res := cfg.Preset.Server["A"].Validate("0"); !res.Failed() {
		t.Error("min from Lua was not applied")
	}
}

func TestLua_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Parse(ctx, []byte(`while true do end`), FormatLua)
	if err == nil {
		t.Fatal("infinite loop should be interrupted")
	}
}

func TestLoadAndDiscover(t *testing.T) {
	dir := t.TempDir()

	if _, err := Discover(dir); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Discover(empty) error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "env.config.lua"), []byte(luaConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "env.config.yml"), []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if filepath.Base(path) != "env.config.yml" {
		t.Errorf("Discover() = %s, yml should be preferred over lua", path)
	}

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path != path || cfg.Format != FormatYAML {
		t.Errorf("Config = %s %s", cfg.Path, cfg.Format)
	}

	if _, err := Load(context.Background(), filepath.Join(dir, "missing.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if _, err := Load(context.Background(), filepath.Join(dir, "env.toml")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(toml) error = %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("server:\n  A: object\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(context.Background(), bad)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != bad {
		t.Errorf("Load(bad) error = %v, want ParseError with path", err)
	}
}

func TestFieldSpec_Shorthand(t *testing.T) {
	doc, err := decodeYAML([]byte("server:\n  A: int\n  B: {type: bool, optional: true}\n"))
	if err != nil {
		t.Fatalf("decodeYAML() error = %v", err)
	}
	if doc.Server["A"].Type != "int" || !doc.Server["B"].Optional {
		t.Errorf("Server = %+v", doc.Server)
	}

	f, err := FieldSpec{}.Field()
	if err != nil || f.Kind() != schema.KindString {
		t.Errorf("empty spec = %v, %v; want string field", f, err)
	}
}

func TestFieldSpec_ValidateTagAndDurationBounds(t *testing.T) {
	doc, err := decodeYAML([]byte(`server:
  ADMIN_EMAIL: {type: string, validate: email}
  TIMEOUT: {type: duration, min: 1, max: 30}
`))
	if err != nil {
		t.Fatalf("decodeYAML() error = %v", err)
	}

	email, err := doc.Server["ADMIN_EMAIL"].Field()
	if err != nil {
		t.Fatalf("Field() error = %v", err)
	}
	if res := email.Validate("ops@example.com"); !res.OK() {
		t.Errorf("valid email rejected: %v", res.Issues)
	}
	if res := email.Validate("ops"); !res.Failed() {
		t.Error("invalid email accepted")
	}

	timeout, err := doc.Server["TIMEOUT"].Field()
	if err != nil {
		t.Fatalf("Field() error = %v", err)
	}
	for input, ok := range map[string]bool{"10s": true, "500ms": false, "1m": false} {
		if res := timeout.Validate(input); res.OK() != ok {
			t.Errorf("TIMEOUT=%s ok = %v, want %v (%v)", input, res.OK(), ok, res.Issues)
		}
	}

	for _, spec := range []FieldSpec{
		{Type: "string", Validate: "no_such_validator"},
		{Type: "boolean", Validate: "gt=1"},
	} {
		if _, err := spec.Field(); err == nil || !strings.Contains(err.Error(), "invalid validate tag") {
			t.Errorf("Field(%+v) error = %v, want invalid validate tag", spec, err)
		}
	}
}

// Feature: envin, Property: document round-trip
// Serializing a document to YAML and decoding it again yields the same
// document.
func TestDocument_RoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genKind := gen.OneConstOf("string", "number", "int", "boolean", "url", "port", "duration")
	genSpec := gopter.CombineGens(genKind, gen.Bool(), gen.AlphaString()).Map(func(vals []interface{}) FieldSpec {
		return FieldSpec{Type: vals[0].(string), Optional: vals[1].(bool), Description: vals[2].(string)}
	})
	genKey := gen.RegexMatch(`[A-Z][A-Z0-9_]{0,8}`)

	properties.Property("YAML round-trip", prop.ForAll(
		func(server map[string]FieldSpec, prefix string, catalog bool) bool {
			doc := Document{Prefix: prefix, Server: server}
			if len(server) == 0 {
				doc.Server = nil
			}
			if catalog {
				doc.Extends = []PresetRef{{ID: "fly"}, {Inline: &Document{ID: "x"}}}
			}
			out, err := yaml.Marshal(&doc)
			if err != nil {
				return false
			}
			back, err := decodeYAML(out)
			return err == nil && reflect.DeepEqual(doc, back)
		},
		gen.MapOf(genKey, genSpec),
		gen.RegexMatch(`([A-Z]+_)?`),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
