package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"envin/internal/standard"
)

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New()

// runTag checks value against a validator tag. It returns the first failed
// constraint, or an error when the tag cannot be applied to the value.
func runTag(value any, tag string) (fe validator.FieldError, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, err = nil, fmt.Errorf("validation tag %q: %v", tag, r)
		}
	}()
	verr := validate.Var(value, tag)
	if verr == nil {
		return nil, nil
	}
	var errs validator.ValidationErrors
	if errors.As(verr, &errs) && len(errs) > 0 {
		return errs[0], nil
	}
	return nil, verr
}

func satisfies(value any, tag string) bool {
	fe, err := runTag(value, tag)
	return fe == nil && err == nil
}

// CheckTag reports whether tag can be applied to the output of a field of
// kind k. Unknown validator names and malformed parameters are errors.
func CheckTag(k Kind, tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errors.New("empty validation tag")
	}
	_, err := runTag(sampleOf(k), tag)
	return err
}

func sampleOf(k Kind) any {
	switch k {
	case KindNumber:
		return float64(0)
	case KindInt, KindPort:
		return 0
	case KindBool:
		return false
	case KindDuration:
		return time.Duration(0)
	default:
		return ""
	}
}

// oneofTag builds a oneof tag for values, or "" when a value cannot be
// expressed inside a tag.
func oneofTag(values []string) string {
	if len(values) == 0 {
		return ""
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		if strings.ContainsAny(v, ",|'") || strings.Contains(v, "0x2C") || strings.Contains(v, "0x7C") {
			return ""
		}
		quoted[i] = "'" + v + "'"
	}
	return "oneof=" + strings.Join(quoted, " ")
}

// bound applies a min or max constraint. Strings are bounded by length,
// durations by seconds, numbers by value.
func bound(v any, tag string, n float64) *standard.Issue {
	var subject any
	var param string
	switch t := v.(type) {
	case string:
		limit := math.Ceil(n)
		if tag == "max" {
			limit = math.Floor(n)
		}
		subject, param = t, formatFloat(limit)
	case float64:
		subject, param = t, formatFloat(n)
	case int:
		subject, param = float64(t), formatFloat(n)
	case time.Duration:
		subject, param = t, seconds(n).String()
	default:
		return nil
	}

	fe, err := runTag(subject, tag+"="+param)
	if err != nil {
		return &standard.Issue{Message: err.Error(), Code: standard.CodeCustom}
	}
	if fe == nil {
		return nil
	}

	rel, code := "greater than or equal to", standard.CodeTooSmall
	if fe.Tag() == "max" {
		rel, code = "less than or equal to", standard.CodeTooBig
	}
	var msg string
	switch subject.(type) {
	case string:
		msg = fmt.Sprintf("String must contain %s %s character(s)", rel, fe.Param())
	case time.Duration:
		msg = fmt.Sprintf("Duration must be %s %s", rel, fe.Param())
	default:
		msg = fmt.Sprintf("Number must be %s %s", rel, fe.Param())
	}
	return &standard.Issue{Message: msg, Code: code}
}

func tagIssue(v any, tag string) *standard.Issue {
	fe, err := runTag(v, tag)
	switch {
	case err != nil:
		return &standard.Issue{Message: err.Error(), Code: standard.CodeCustom}
	case fe != nil:
		return &standard.Issue{Message: fmt.Sprintf("Failed the '%s' check", tag), Code: standard.CodeInvalidFormat}
	}
	return nil
}

func seconds(n float64) time.Duration { return time.Duration(n * float64(time.Second)) }

func formatFloat(n float64) string { return strconv.FormatFloat(n, 'f', -1, 64) }
