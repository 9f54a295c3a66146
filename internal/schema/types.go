// Package schema adapts github.com/go-playground/validator/v10 to
// standard.Schema. A Field coerces the raw string of an environment variable
// to its kind and then runs validator tags against the result, so fields
// built here can be mixed freely with adapters for other libraries.
//
//	schema.Number().Default(3000).Describe("HTTP listen port")
//	schema.URL()
//	schema.Enum("development", "production").Optional()
//	schema.String().Tag("email")
package schema

// Kind is the value type a Field accepts.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindInt      Kind = "int"
	KindBool     Kind = "boolean"
	KindURL      Kind = "url"
	KindEnum     Kind = "enum"
	KindPort     Kind = "port"
	KindDuration Kind = "duration"
	KindLiteral  Kind = "literal"
)

// Vendor is reported by every adapter in this package.
const Vendor = "envin"

// Kinds lists every supported kind, in documentation order.
func Kinds() []Kind {
	return []Kind{KindString, KindNumber, KindInt, KindBool, KindURL, KindEnum, KindPort, KindDuration, KindLiteral}
}

// ParseKind converts a kind name, as written in config files, to a Kind.
// "bool" and "integer" are accepted as aliases.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "bool":
		return KindBool, true
	case "integer":
		return KindInt, true
	}
	for _, k := range Kinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}
