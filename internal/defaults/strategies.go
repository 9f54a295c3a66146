package defaults

import (
	"reflect"

	"envin/internal/standard"
)

// DefaultMethod recognizes adapters with a DefaultValue() (any, bool) method,
// such as schema.Field.
func DefaultMethod(s standard.Schema) (any, bool) {
	d, ok := s.(interface{ DefaultValue() (any, bool) })
	if !ok {
		return nil, false
	}
	return d.DefaultValue()
}

// DefinitionMethod recognizes adapters exposing a default-producing function
// through a DefaultFunc() func() any method.
func DefinitionMethod(s standard.Schema) (any, bool) {
	d, ok := s.(interface{ DefaultFunc() func() any })
	if !ok {
		return nil, false
	}
	fn := d.DefaultFunc()
	if fn == nil {
		return nil, false
	}
	return fn(), true
}

// DefaultField recognizes struct adapters with an exported Default field
// holding a scalar. Composite and function values are not defaults.
func DefaultField(s standard.Schema) (any, bool) {
	rv, ok := structValue(s)
	if !ok {
		return nil, false
	}
	f := rv.FieldByName("Default")
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}
	if f.Kind() == reflect.Interface || f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil, false
		}
		f = f.Elem()
	}
	if !isScalar(f.Kind()) {
		return nil, false
	}
	return f.Interface(), true
}

// DefField recognizes struct adapters with an exported Def field whose
// DefaultValue member is either a func() any or a plain value, such as
// schema.CheckSchema.
func DefField(s standard.Schema) (any, bool) {
	rv, ok := structValue(s)
	if !ok {
		return nil, false
	}
	def := rv.FieldByName("Def")
	if !def.IsValid() {
		return nil, false
	}
	def = reflect.Indirect(def)
	if def.Kind() != reflect.Struct {
		return nil, false
	}
	dv := def.FieldByName("DefaultValue")
	if !dv.IsValid() || !dv.CanInterface() {
		return nil, false
	}
	switch dv.Kind() {
	case reflect.Func:
		if dv.IsNil() {
			return nil, false
		}
		if fn, ok := dv.Interface().(func() any); ok {
			return fn(), true
		}
		return nil, false
	case reflect.Interface, reflect.Pointer:
		if dv.IsNil() {
			return nil, false
		}
		return dv.Elem().Interface(), true
	default:
		return dv.Interface(), true
	}
}

func structValue(s standard.Schema) (reflect.Value, bool) {
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return rv, true
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
