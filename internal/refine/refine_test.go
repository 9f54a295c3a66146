package refine

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"envin/internal/schema"
	"envin/internal/standard"
)

func TestParse(t *testing.T) {
	tests := []struct {
		rule    string
		want    string
		wantErr string
	}{
		{rule: `APP_ENV == "prod" => DSN != ""`, want: `APP_ENV == "prod" => DSN != ""`},
		{rule: `APP_ENV == "prod" ⇒ DSN != ""`, want: `APP_ENV == "prod" => DSN != ""`},
		{rule: `runtime.server == "true" => SECRET != ""`, want: `runtime.server == "true" => SECRET != ""`},
		{rule: `DEBUG`, want: `DEBUG`},
		{rule: `A == "say \"hi\""`, want: `A == "say \"hi\""`},
		{rule: ``, wantErr: "empty rule"},
		{rule: `A ==`, wantErr: "expected operand"},
		{rule: `A == "x`, wantErr: "unterminated"},
		{rule: `A B`, wantErr: "unexpected token"},
		{rule: `A == 1`, wantErr: "unexpected character"},
		{rule: `runtime.mode == "x"`, wantErr: "unknown reference"},
		{rule: `UNKNOWN != ""`, wantErr: "undefined variable(s): UNKNOWN"},
	}

	known := []string{"APP_ENV", "DSN", "SECRET", "DEBUG", "A", "B"}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			expr, err := Parse(tt.rule, known)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := Format(expr); got != tt.want {
				t.Errorf("Format() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_NilKnownSkipsRefCheck(t *testing.T) {
	if _, err := Parse(`ANYTHING != ""`, nil); err != nil {
		t.Errorf("Parse() error = %v", err)
	}
}

func TestCompile(t *testing.T) {
	known := []string{"A"}
	tests := []struct {
		name    string
		specs   []Spec
		wantErr string
	}{
		{name: "ok", specs: []Spec{{Name: "a-set", Rule: `A != ""`}}},
		{name: "missing name", specs: []Spec{{Rule: `A != ""`}}, wantErr: "missing required field 'name'"},
		{name: "bad name", specs: []Spec{{Name: "a b", Rule: `A != ""`}}, wantErr: "invalid characters"},
		{name: "duplicate", specs: []Spec{{Name: "x", Rule: `A != ""`}, {Name: "x", Rule: `A == ""`}}, wantErr: "duplicate rule name"},
		{name: "missing rule", specs: []Spec{{Name: "x"}}, wantErr: "missing required field 'rule'"},
		{name: "bad rule", specs: []Spec{{Name: "x", Rule: `B != ""`}}, wantErr: "rule 'x': undefined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := Compile(tt.specs, known)
			if tt.wantErr == "" {
				if err != nil || len(rules) != len(tt.specs) {
					t.Fatalf("Compile() = %v, %v", rules, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Compile() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func mustRule(t *testing.T, name, src string) Rule {
	t.Helper()
	r, err := CompileRule(name, src, nil)
	if err != nil {
		t.Fatalf("CompileRule(%s) error = %v", src, err)
	}
	return r
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		rule   string
		values map[string]any
		server bool
		passed bool
	}{
		{`APP_ENV == "prod" => DSN != ""`, map[string]any{"APP_ENV": "dev"}, true, true},
		{`APP_ENV == "prod" => DSN != ""`, map[string]any{"APP_ENV": "prod"}, true, false},
		{`APP_ENV == "prod" => DSN != ""`, map[string]any{"APP_ENV": "prod", "DSN": "x"}, true, true},
		{`runtime.server => SECRET != ""`, map[string]any{}, false, true},
		{`runtime.server => SECRET != ""`, map[string]any{}, true, false},
		{`PORT == "8080"`, map[string]any{"PORT": 8080}, true, true},
		{`RATE == "0.5"`, map[string]any{"RATE": 0.5}, true, true},
		{`DEBUG == "true"`, map[string]any{"DEBUG": true}, true, true},
		{`DEBUG`, map[string]any{"DEBUG": false}, true, false},
		{`DEBUG`, map[string]any{"DEBUG": "on"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			o := Evaluate(mustRule(t, "r", tt.rule), Context{Values: tt.values, Server: tt.server})
			if o.Passed != tt.passed {
				t.Errorf("Passed = %v, want %v (%s)", o.Passed, tt.passed, o.Message)
			}
			if !o.Passed && o.Message == "" {
				t.Error("failing outcome should carry a message")
			}
		})
	}
}

func TestEvaluateAllAndFailed(t *testing.T) {
	rules := []Rule{
		mustRule(t, "ok", `A == "1"`),
		mustRule(t, "bad", `A == "2"`),
	}
	outcomes := EvaluateAll(rules, Context{Values: map[string]any{"A": "1"}})
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %v", outcomes)
	}
	failed := Failed(outcomes)
	if len(failed) != 1 || failed[0].Name != "bad" || failed[0].Left != "1" || failed[0].Right != "2" {
		t.Errorf("Failed() = %+v", failed)
	}
}

func TestTransform(t *testing.T) {
	shape := standard.Object(standard.Dictionary{
		"APP_ENV": schema.Enum("dev", "prod"),
		"DSN":     schema.String().Optional(),
	})
	rules := []Rule{mustRule(t, "prod-dsn", `APP_ENV == "prod" => DSN != ""`)}
	refined := Transform(rules)(shape, true)

	res := refined.Validate(map[string]any{"APP_ENV": "prod"})
	if !res.Failed() {
		t.Fatal("rule violation not reported")
	}
	it := res.Issues[0]
	if it.Variable() != "APP_ENV" || it.Code != standard.CodeRefinement || !strings.Contains(it.Message, "prod-dsn") {
		t.Errorf("issue = %+v", it)
	}

	if res := refined.Validate(map[string]any{"APP_ENV": "dev"}); !res.OK() {
		t.Errorf("dev should pass: %v", res.Issues)
	}

	if Transform(nil)(shape, true) != standard.Schema(shape) {
		t.Error("no rules should keep the shape")
	}
}

func TestTransform_ClientSkipsServerOnlyRules(t *testing.T) {
	rules := []Rule{
		mustRule(t, "prod-dsn", `APP_ENV == "prod" => DSN != ""`),
		mustRule(t, "public-url", `PUBLIC_URL != ""`),
	}
	client := standard.Object(standard.Dictionary{
		"APP_ENV":    schema.String(),
		"PUBLIC_URL": schema.String().Optional(),
	})

	res := Transform(rules)(client, false).Validate(map[string]any{"APP_ENV": "prod"})
	if len(res.Issues) != 1 || !strings.Contains(res.Issues[0].Message, "public-url") {
		t.Fatalf("client issues = %v, want only public-url", res.Issues)
	}

	if got := Transform(rules[:1])(client, false); got != standard.Schema(client) {
		t.Error("client shape should be unchanged when every rule references a server variable")
	}

	server := standard.Object(standard.Dictionary{
		"APP_ENV":    schema.String(),
		"DSN":        schema.String().Optional(),
		"PUBLIC_URL": schema.String().Optional(),
	})
	res = Transform(rules)(server, true).Validate(map[string]any{"APP_ENV": "prod"})
	if len(res.Issues) != 2 {
		t.Errorf("server issues = %v, want both rules", res.Issues)
	}
}

func TestVisible(t *testing.T) {
	rules := []Rule{
		mustRule(t, "a", `A == "1"`),
		mustRule(t, "ab", `A == "1" => B == "2"`),
		mustRule(t, "runtime", `runtime.server`),
	}
	got := Visible(rules, []string{"A"})
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "runtime" {
		t.Errorf("Visible() = %+v", got)
	}
}

func TestIssues_RuntimeOnlyRuleHasNoPath(t *testing.T) {
	iss := Issues([]Rule{mustRule(t, "server-only", `runtime.server`)}, Context{Server: false})
	if len(iss) != 1 || len(iss[0].Path) != 0 {
		t.Errorf("Issues() = %+v", iss)
	}
}

// Feature: envin, Property: implication truth table
// A => B fails only when A holds and B does not.
func TestImplication_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	r, err := CompileRule("impl", `A == "x" => B == "y"`, nil)
	if err != nil {
		t.Fatal(err)
	}

	properties.Property("implication truth table", prop.ForAll(
		func(aHolds, bHolds bool) bool {
			values := map[string]any{"A": "no", "B": "no"}
			if aHolds {
				values["A"] = "x"
			}
			if bHolds {
				values["B"] = "y"
			}
			return Evaluate(r, Context{Values: values}).Passed == (!aHolds || bHolds)
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("format then parse is stable", prop.ForAll(
		func(name, lit string) bool {
			src := name + ` == "` + lit + `"`
			expr, err := Parse(src, nil)
			if err != nil {
				return false
			}
			again, err := Parse(Format(expr), nil)
			return err == nil && Format(again) == Format(expr)
		},
		gen.RegexMatch(`[A-Z][A-Z0-9_]{0,10}`),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
