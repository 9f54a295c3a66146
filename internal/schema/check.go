package schema

import (
	"errors"

	"envin/internal/standard"
)

// Definition is the metadata object carried by a CheckSchema. Its default is
// produced lazily by a function rather than stored as a value.
type Definition struct {
	DefaultValue func() any
	Description  string
	Optional     bool
}

// CheckSchema adapts an arbitrary conversion function. Unlike Field it does
// not expose a DefaultValue method; its default lives in the exported Def.
type CheckSchema struct {
	Def Definition
	fn  func(value any) (any, error)
}

// Check returns a schema that runs fn on present values. An error from fn
// becomes a single issue; a standard.Issues error is reported as-is.
func Check(fn func(value any) (any, error)) *CheckSchema {
	return &CheckSchema{fn: fn}
}

// WithDefault makes an absent variable produce the result of fn.
func (c *CheckSchema) WithDefault(fn func() any) *CheckSchema {
	out := *c
	out.Def.DefaultValue = fn
	return &out
}

// Optional lets the variable be absent.
func (c *CheckSchema) Optional() *CheckSchema {
	out := *c
	out.Def.Optional = true
	return &out
}

// Describe attaches a human description.
func (c *CheckSchema) Describe(text string) *CheckSchema {
	out := *c
	out.Def.Description = text
	return &out
}

// Description implements standard.Describer.
func (c *CheckSchema) Description() string { return c.Def.Description }

// Vendor implements standard.Vendored.
func (c *CheckSchema) Vendor() string { return Vendor }

// Validate implements standard.Schema.
func (c *CheckSchema) Validate(value any) standard.Result {
	if value == nil {
		switch {
		case c.Def.DefaultValue != nil:
			return standard.Success(c.Def.DefaultValue())
		case c.Def.Optional:
			return standard.Success(nil)
		default:
			return standard.Failure(standard.Issue{Message: "Required", Code: standard.CodeRequired})
		}
	}
	if c.fn == nil {
		return standard.Success(value)
	}
	out, err := c.fn(value)
	if err != nil {
		var iss standard.Issues
		if errors.As(err, &iss) && len(iss) > 0 {
			return standard.Failure(iss...)
		}
		return standard.Failure(standard.Issue{Message: err.Error(), Code: standard.CodeCustom})
	}
	return standard.Success(out)
}

// RefineFunc inspects a validated object and reports cross-field issues.
type RefineFunc func(values map[string]any) standard.Issues

// Refined runs refinements after its inner schema succeeds.
type Refined struct {
	inner  standard.Schema
	checks []RefineFunc
}

// Refine wraps inner so that fns run on its successful map output. It is the
// usual body of a transform hook.
func Refine(inner standard.Schema, fns ...RefineFunc) *Refined {
	return &Refined{inner: inner, checks: fns}
}

// Vendor implements standard.Vendored.
func (r *Refined) Vendor() string { return standard.VendorOf(r.inner) }

// Validate implements standard.Schema.
func (r *Refined) Validate(value any) standard.Result {
	res := r.inner.Validate(value)
	if !res.OK() {
		return res
	}
	values, ok := res.Value.(map[string]any)
	if !ok {
		return res
	}
	var issues standard.Issues
	for _, fn := range r.checks {
		issues = append(issues, fn(values)...)
	}
	if len(issues) > 0 {
		return standard.Failure(issues...)
	}
	return res
}
