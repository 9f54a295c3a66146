package schema

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"envin/internal/standard"
)

// Field is an immutable validator for one environment variable. Every
// modifier returns a new Field.
type Field struct {
	kind        Kind
	optional    bool
	hasDefault  bool
	def         any
	description string
	values      []string
	literal     any
	min         *float64
	max         *float64
	pattern     *regexp.Regexp
	nonEmpty    bool
	oneof       string
	tags        []string
}

func newField(k Kind) *Field { return &Field{kind: k} }

// String accepts any string.
func String() *Field { return newField(KindString) }

// Number accepts numbers and numeric strings, producing float64.
func Number() *Field { return newField(KindNumber) }

// Int accepts integers and integer strings, producing int.
func Int() *Field { return newField(KindInt) }

// Bool accepts booleans and the strings true/false, 1/0, yes/no in any case.
func Bool() *Field { return newField(KindBool) }

// URL accepts absolute URLs with a scheme and host.
func URL() *Field { return newField(KindURL) }

// Port accepts TCP port numbers 1-65535, producing int.
func Port() *Field { return newField(KindPort) }

// Duration accepts Go duration strings such as "1m30s".
func Duration() *Field { return newField(KindDuration) }

// Enum accepts exactly one of values.
func Enum(values ...string) *Field {
	f := newField(KindEnum)
	f.values = append([]string(nil), values...)
	f.oneof = oneofTag(f.values)
	return f
}

// Literal accepts only v (compared by its string form) and produces v.
func Literal(v any) *Field {
	f := newField(KindLiteral)
	f.literal = v
	return f
}

func (f *Field) clone() *Field {
	c := *f
	return &c
}

// Optional lets the variable be absent; the output is then nil.
func (f *Field) Optional() *Field {
	c := f.clone()
	c.optional = true
	return c
}

// Default makes an absent variable produce v.
func (f *Field) Default(v any) *Field {
	c := f.clone()
	c.hasDefault = true
	c.def = v
	return c
}

// Describe attaches a human description.
func (f *Field) Describe(text string) *Field {
	c := f.clone()
	c.description = text
	return c
}

// Min sets the inclusive minimum: the value for numeric kinds, the length
// for string kinds and seconds for durations.
func (f *Field) Min(n float64) *Field {
	c := f.clone()
	c.min = &n
	return c
}

// Max sets the inclusive maximum, see Min.
func (f *Field) Max(n float64) *Field {
	c := f.clone()
	c.max = &n
	return c
}

// Pattern requires string values to match re.
func (f *Field) Pattern(re *regexp.Regexp) *Field {
	c := f.clone()
	c.pattern = re
	return c
}

// NonEmpty rejects strings that are empty after trimming.
func (f *Field) NonEmpty() *Field {
	c := f.clone()
	c.nonEmpty = true
	return c
}

// Tag adds a go-playground/validator tag, such as "email" or "hostname",
// checked against the coerced value. Use CheckTag to vet tags from config.
func (f *Field) Tag(tag string) *Field {
	c := f.clone()
	c.tags = append(append([]string(nil), f.tags...), tag)
	return c
}

// Kind returns the value type of the field.
func (f *Field) Kind() Kind { return f.kind }

// IsOptional reports whether the field accepts an absent value.
func (f *Field) IsOptional() bool { return f.optional || f.hasDefault }

// Values returns the allowed values of an enum field.
func (f *Field) Values() []string { return append([]string(nil), f.values...) }

// DefaultValue returns the declared default.
func (f *Field) DefaultValue() (any, bool) { return f.def, f.hasDefault }

// Description implements standard.Describer.
func (f *Field) Description() string { return f.description }

// Vendor implements standard.Vendored.
func (f *Field) Vendor() string { return Vendor }

// Validate implements standard.Schema.
func (f *Field) Validate(value any) standard.Result {
	if value == nil {
		switch {
		case f.hasDefault:
			return standard.Success(f.def)
		case f.optional:
			return standard.Success(nil)
		default:
			return standard.Failure(standard.Issue{Message: "Required", Code: standard.CodeRequired})
		}
	}

	out, issue := f.coerce(value)
	if issue != nil {
		return standard.Failure(*issue)
	}
	if issue := f.check(out); issue != nil {
		return standard.Failure(*issue)
	}
	return standard.Success(out)
}

func (f *Field) coerce(value any) (any, *standard.Issue) {
	switch f.kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, typeIssue("string", value)
		}
		return s, nil

	case KindNumber:
		n, ok := toFloat(value)
		if !ok || math.IsNaN(n) {
			return nil, typeIssue("number", value)
		}
		return n, nil

	case KindInt:
		n, ok := toInt(value)
		if !ok {
			return nil, typeIssue("integer", value)
		}
		return n, nil

	case KindPort:
		n, ok := toInt(value)
		if !ok {
			return nil, typeIssue("port", value)
		}
		if !satisfies(n, "min=1,max=65535") {
			return nil, &standard.Issue{
				Message: fmt.Sprintf("Port must be between 1 and 65535, received %d", n),
				Code:    standard.CodeInvalidFormat,
			}
		}
		return n, nil

	case KindBool:
		b, ok := toBool(value)
		if !ok {
			return nil, typeIssue("boolean", value)
		}
		return b, nil

	case KindURL:
		s, ok := value.(string)
		if !ok {
			return nil, typeIssue("string", value)
		}
		if !satisfies(s, "url") {
			return nil, &standard.Issue{Message: "Invalid URL", Code: standard.CodeInvalidFormat}
		}
		return s, nil

	case KindDuration:
		s, ok := value.(string)
		if !ok {
			return nil, typeIssue("duration", value)
		}
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return nil, &standard.Issue{Message: fmt.Sprintf("Invalid duration %q", s), Code: standard.CodeInvalidFormat}
		}
		return d, nil

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, typeIssue("string", value)
		}
		ok = slices.Contains(f.values, s)
		if f.oneof != "" {
			ok = satisfies(s, f.oneof)
		}
		if ok {
			return s, nil
		}
		return nil, &standard.Issue{
			Message: fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteJoin(f.values), s),
			Code:    standard.CodeInvalidEnum,
		}

	case KindLiteral:
		if fmt.Sprint(value) != fmt.Sprint(f.literal) {
			return nil, &standard.Issue{
				Message: fmt.Sprintf("Invalid literal value, expected %v", f.literal),
				Code:    standard.CodeInvalidEnum,
			}
		}
		return f.literal, nil
	}
	return nil, &standard.Issue{Message: fmt.Sprintf("unsupported kind %q", f.kind), Code: standard.CodeInvalidType}
}

func (f *Field) check(v any) *standard.Issue {
	if s, ok := v.(string); ok {
		if f.nonEmpty && !satisfies(strings.TrimSpace(s), "required") {
			return &standard.Issue{Message: "String must not be empty", Code: standard.CodeTooSmall}
		}
		if f.pattern != nil && !f.pattern.MatchString(s) {
			return &standard.Issue{Message: fmt.Sprintf("String must match pattern %s", f.pattern), Code: standard.CodePattern}
		}
	}
	if f.min != nil {
		if issue := bound(v, "min", *f.min); issue != nil {
			return issue
		}
	}
	if f.max != nil {
		if issue := bound(v, "max", *f.max); issue != nil {
			return issue
		}
	}
	for _, tag := range f.tags {
		if issue := tagIssue(v, tag); issue != nil {
			return issue
		}
	}
	return nil
}

func typeIssue(expected string, value any) *standard.Issue {
	return &standard.Issue{
		Message: fmt.Sprintf("Expected %s, received %s", expected, describe(value)),
		Code:    standard.CodeInvalidType,
	}
}

func describe(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, " | ")
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if !satisfies(s, "numeric") {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		return n, err == nil
	}
	return 0, false
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		if !satisfies(s, "numeric") {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
	return 0, false
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if !satisfies(s, "oneof=true false 1 0 yes no") {
			return false, false
		}
		return s == "true" || s == "1" || s == "yes", true
	}
	return false, false
}
