// Package refine implements cross-variable rules such as
//
//	APP_ENV == "production" => SENTRY_DSN != ""
//
// Rules are written in config files and run after every variable has
// validated on its own. A variable reference evaluates to the string form of
// the validated value, "" when absent. runtime.server evaluates to "true" or
// "false" according to the context Define runs in.
package refine

// Expr is a node of a parsed rule.
type Expr interface {
	isExpr()
}

// Op is a comparison operator.
type Op string

const (
	OpEqual    Op = "=="
	OpNotEqual Op = "!="
)

// Implication holds when Condition is false or Then is true.
type Implication struct {
	Condition Expr
	Then      Expr
}

func (Implication) isExpr() {}

// Comparison compares the string forms of two operands.
type Comparison struct {
	Left     Expr
	Right    Expr
	Operator Op
}

func (Comparison) isExpr() {}

// VarRef names an environment variable of the merged schema.
type VarRef struct {
	Name string
}

func (VarRef) isExpr() {}

// RuntimeServer is the runtime.server reference.
type RuntimeServer struct{}

func (RuntimeServer) isExpr() {}

// Literal is a quoted string.
type Literal struct {
	Value string
}

func (Literal) isExpr() {}

// Rule is a named, parsed rule.
type Rule struct {
	Name   string
	Source string
	Expr   Expr
}

// Outcome is the evaluation of one rule.
type Outcome struct {
	Name    string
	Rule    string
	Passed  bool
	Left    string
	Right   string
	Message string
}
