package refine

import (
	"fmt"

	"envin/internal/schema"
	"envin/internal/standard"
)

// Issues evaluates rules and converts each failure into an issue placed
// under the first variable the rule references.
func Issues(rules []Rule, ctx Context) standard.Issues {
	var out standard.Issues
	for i, o := range EvaluateAll(rules, ctx) {
		if o.Passed {
			continue
		}
		it := standard.Issue{
			Message: fmt.Sprintf("rule '%s' violated: %s", o.Name, o.Message),
			Code:    standard.CodeRefinement,
		}
		if refs := Refs(rules[i].Expr); len(refs) > 0 {
			it.Path = []any{refs[0]}
		}
		out = append(out, it)
	}
	return out
}

// Transform returns a transform hook that checks rules after per-variable
// validation succeeds. On the client, rules that reference a variable missing
// from the object shape are skipped: server-only variables are never part of
// the client value map. With no applicable rules the shape is returned
// unchanged.
func Transform(rules []Rule) func(shape standard.Schema, isServer bool) standard.Schema {
	return func(shape standard.Schema, isServer bool) standard.Schema {
		active := rules
		if obj, ok := shape.(*standard.ObjectSchema); ok && !isServer {
			active = Visible(rules, obj.Shape.Keys())
		}
		if len(active) == 0 {
			return shape
		}
		return schema.Refine(shape, func(values map[string]any) standard.Issues {
			return Issues(active, Context{Values: values, Server: isServer})
		})
	}
}

// Visible returns the rules whose variables are all in keys.
func Visible(rules []Rule, keys []string) []Rule {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	var out []Rule
	for _, r := range rules {
		ok := true
		for _, ref := range Refs(r.Expr) {
			if !set[ref] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}
