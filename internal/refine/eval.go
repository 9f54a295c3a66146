package refine

import (
	"fmt"
	"strconv"
)

// Context supplies the values a rule is evaluated against.
type Context struct {
	Values map[string]any
	Server bool
}

// Evaluate runs one rule.
func Evaluate(r Rule, ctx Context) Outcome {
	passed, left, right, msg := eval(r.Expr, ctx)
	return Outcome{
		Name:    r.Name,
		Rule:    r.Source,
		Passed:  passed,
		Left:    left,
		Right:   right,
		Message: msg,
	}
}

// EvaluateAll runs every rule, passing or not.
func EvaluateAll(rules []Rule, ctx Context) []Outcome {
	out := make([]Outcome, 0, len(rules))
	for _, r := range rules {
		out = append(out, Evaluate(r, ctx))
	}
	return out
}

// Failed returns the outcomes that did not pass.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if !o.Passed {
			out = append(out, o)
		}
	}
	return out
}

func eval(expr Expr, ctx Context) (passed bool, left, right, msg string) {
	switch e := expr.(type) {
	case Implication:
		condOK, condL, condR, _ := eval(e.Condition, ctx)
		thenOK, thenL, thenR, _ := eval(e.Then, ctx)
		passed = !condOK || thenOK
		left = firstNonEmpty(condL, condR)
		right = firstNonEmpty(thenL, thenR)
		if !passed {
			msg = fmt.Sprintf("condition '%s' is true but '%s' is false", Format(e.Condition), Format(e.Then))
		}
		return passed, left, right, msg

	case Comparison:
		left = resolve(e.Left, ctx)
		right = resolve(e.Right, ctx)
		switch e.Operator {
		case OpEqual:
			passed = left == right
			if !passed {
				msg = fmt.Sprintf("'%s' != '%s'", left, right)
			}
		case OpNotEqual:
			passed = left != right
			if !passed {
				msg = fmt.Sprintf("'%s' == '%s'", left, right)
			}
		default:
			msg = fmt.Sprintf("unknown operator: %s", e.Operator)
		}
		return passed, left, right, msg

	case VarRef, RuntimeServer:
		v := resolve(e, ctx)
		if v == "" || v == "false" {
			return false, v, "", fmt.Sprintf("'%s' is not set", Format(e))
		}
		return true, v, "", ""

	case Literal:
		return true, e.Value, "", ""
	}
	return false, "", "", "unknown expression type"
}

func resolve(expr Expr, ctx Context) string {
	switch e := expr.(type) {
	case VarRef:
		return stringify(ctx.Values[e.Name])
	case RuntimeServer:
		return strconv.FormatBool(ctx.Server)
	case Literal:
		return e.Value
	case Comparison, Implication:
		ok, _, _, _ := eval(e, ctx)
		return strconv.FormatBool(ok)
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
