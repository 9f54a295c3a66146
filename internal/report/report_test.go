package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"envin/internal/preset"
	"envin/internal/resolver"
	"envin/internal/standard"
)

func TestFormatIssue(t *testing.T) {
	tests := []struct {
		name  string
		issue standard.Issue
		want  string
	}{
		{
			name:  "missing variable",
			issue: standard.Issue{Message: "Required", Path: []any{"DB_URL"}, Code: standard.CodeRequired},
			want:  "DB_URL: required but not set",
		},
		{
			name:  "invalid value",
			issue: standard.Issue{Message: "Invalid url", Path: []any{"API_URL"}, Code: standard.CodeInvalidFormat},
			want:  "API_URL: Invalid url",
		},
		{
			name:  "nested path",
			issue: standard.Issue{Message: "Required", Path: []any{"HOSTS", standard.PathSegment{Key: 0}}, Code: standard.CodeRequired},
			want:  "HOSTS.0: Required",
		},
		{
			name:  "no path",
			issue: standard.Issue{Message: "bad object"},
			want:  "(root): bad object",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatIssue(tt.issue); got != tt.want {
				t.Errorf("FormatIssue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteIssues(t *testing.T) {
	issues := standard.Issues{
		{Message: "Required", Path: []any{"A"}, Code: standard.CodeRequired},
		{Message: "Expected number", Path: []any{"B"}},
	}

	var plain bytes.Buffer
	WriteIssues(&plain, issues, false, "env.config.yaml")
	if want := "A: required but not set\nB: Expected number\n"; plain.String() != want {
		t.Errorf("plain output = %q, want %q", plain.String(), want)
	}

	var ci bytes.Buffer
	WriteIssues(&ci, issues, true, "env.config.yaml")
	out := ci.String()
	if !strings.Contains(out, "::error file=env.config.yaml::A: required but not set\n") {
		t.Errorf("missing annotation in %q", out)
	}
	if !strings.HasSuffix(out, "❌ Validation failed: 2 error(s)\n") {
		t.Errorf("missing summary in %q", out)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, Check{Valid: true, Config: "env.config.yaml", Mode: "development", Server: true, Issues: IssuesJSON(nil)})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"valid": true`, `"issues": []`, `"mode": "development"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON %s missing %s", out, want)
		}
	}
	if strings.Contains(out, "skipped") || strings.Contains(out, "error") {
		t.Errorf("empty optional fields should be omitted: %s", out)
	}
}

func TestIssuesJSON(t *testing.T) {
	got := IssuesJSON(standard.Issues{{Message: "m", Path: []any{"X", "y"}, Code: "c"}})
	want := IssueJSON{Variable: "X", Path: "X.y", Message: "m", Code: "c"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("IssuesJSON() = %+v", got)
	}
}

func TestRows(t *testing.T) {
	vars := []preset.Variable{
		{Key: "A", Preset: "root", Group: preset.GroupServer},
		{Key: "B", Preset: "vercel", Group: preset.GroupServer, Default: 3000, HasDefault: true},
		{Key: "C", Preset: "root", Group: preset.GroupClient},
		{Key: "D", Preset: "root", Group: preset.GroupShared, Description: "debug flag"},
	}
	src := &resolver.Source{
		Values:  map[string]string{"A": "x", "C": "bad"},
		Origins: map[string][]string{"A": {".env", resolver.OriginProcess}, "C": {".env.local"}},
	}
	issues := standard.Issues{{Message: "Invalid url", Path: []any{"C"}}}

	rows := Rows(vars, src, issues)
	want := []Status{StatusOK, StatusDefault, StatusInvalid, StatusUnset}
	for i, r := range rows {
		if r.Status != want[i] {
			t.Errorf("row %s status = %s, want %s", r.Key, r.Status, want[i])
		}
	}
	if rows[0].Files[1] != resolver.OriginProcess {
		t.Errorf("row A files = %v", rows[0].Files)
	}
	if rows[1].Default != "3000" {
		t.Errorf("row B default = %q", rows[1].Default)
	}
	if rows[2].Issue != "C: Invalid url" {
		t.Errorf("row C issue = %q", rows[2].Issue)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "VARIABLE") {
		t.Errorf("table = %q", buf.String())
	}
	if !strings.Contains(lines[4], "debug flag") {
		t.Errorf("description missing from %q", lines[4])
	}
}

func TestRows_NilSource(t *testing.T) {
	rows := Rows([]preset.Variable{{Key: "A"}}, nil, nil)
	if rows[0].Status != StatusUnset || rows[0].Present {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestWriteDefaults(t *testing.T) {
	var buf bytes.Buffer
	WriteDefaults(&buf, map[string]any{"PORT": 3000, "NODE_ENV": "development", "DB_URL": nil})
	if want := "NODE_ENV=development\nPORT=3000\n"; buf.String() != want {
		t.Errorf("WriteDefaults() = %q, want %q", buf.String(), want)
	}
}

// Feature: envin, Property: CI annotation format
// Every annotation targets the given file and names the variable.
func TestCIAnnotation_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("annotation names file and variable", prop.ForAll(
		func(file, variable, message string) bool {
			got := CIAnnotation(file, standard.Issue{Message: message, Path: []any{variable}})
			return strings.HasPrefix(got, "::error file="+file+"::"+variable+": ") &&
				strings.HasSuffix(got, message)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
