package refine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokDot
	tokImply
	tokEqual
	tokNotEqual
)

type token struct {
	kind  tokenKind
	value string
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) rest() string { return l.input[l.pos:] }

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF}, nil
	}

	for _, op := range []struct {
		text string
		kind tokenKind
	}{
		{"=>", tokImply},
		{"⇒", tokImply},
		{"==", tokEqual},
		{"!=", tokNotEqual},
	} {
		if strings.HasPrefix(l.rest(), op.text) {
			l.pos += len(op.text)
			return token{kind: op.kind, value: op.text}, nil
		}
	}

	ch := l.input[l.pos]
	switch {
	case ch == '.':
		l.pos++
		return token{kind: tokDot, value: "."}, nil
	case ch == '"':
		return l.readString()
	case isIdentStart(ch):
		start := l.pos
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, value: l.input[start:l.pos]}, nil
	}
	return token{}, fmt.Errorf("unexpected character '%c' at position %d", ch, l.pos)
}

func (l *lexer) readString() (token, error) {
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == '"':
			l.pos++
			return token{kind: tokString, value: sb.String()}, nil
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string literal")
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// Parse parses a rule. When known is non-nil every variable reference must
// be one of its names.
func Parse(rule string, known []string) (Expr, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("empty rule expression")
	}

	p := &parser{lex: &lexer{input: rule}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseRule()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token '%s' after expression", p.cur.value)
	}

	if known != nil {
		if err := checkRefs(expr, known); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

var ruleName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Spec is a rule as written in a config file.
type Spec struct {
	Name string `json:"name" yaml:"name"`
	Rule string `json:"rule" yaml:"rule"`
}

// Compile parses every spec and checks that names are present, well formed
// and unique.
func Compile(specs []Spec, known []string) ([]Rule, error) {
	seen := make(map[string]bool, len(specs))
	out := make([]Rule, 0, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("rule at index %d: missing required field 'name'", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate rule name: '%s'", s.Name)
		}
		seen[s.Name] = true
		r, err := CompileRule(s.Name, s.Rule, known)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// CompileRule parses a single named rule.
func CompileRule(name, source string, known []string) (Rule, error) {
	if !ruleName.MatchString(name) {
		return Rule{}, fmt.Errorf("rule name '%s' contains invalid characters", name)
	}
	if strings.TrimSpace(source) == "" {
		return Rule{}, fmt.Errorf("rule '%s': missing required field 'rule'", name)
	}
	expr, err := Parse(source, known)
	if err != nil {
		return Rule{}, fmt.Errorf("rule '%s': %w", name, err)
	}
	return Rule{Name: name, Source: strings.TrimSpace(source), Expr: expr}, nil
}

func (p *parser) parseRule() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokImply {
		return left, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	return Implication{Condition: left, Then: right}, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEqual && p.cur.kind != tokNotEqual {
		return left, nil
	}
	op := OpEqual
	if p.cur.kind == tokNotEqual {
		op = OpNotEqual
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return Comparison{Left: left, Right: right, Operator: op}, nil
}

func (p *parser) parseOperand() (Expr, error) {
	switch p.cur.kind {
	case tokString:
		v := p.cur.value
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil
	case tokIdent:
		return p.parseRef()
	}
	if p.cur.kind == tokEOF {
		return nil, fmt.Errorf("expected operand, got end of rule")
	}
	return nil, fmt.Errorf("expected operand, got '%s'", p.cur.value)
}

func (p *parser) parseRef() (Expr, error) {
	name := p.cur.value
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokDot {
		return VarRef{Name: name}, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind != tokIdent {
		return nil, fmt.Errorf("expected identifier after '.', got '%s'", p.cur.value)
	}
	path := name + "." + p.cur.value
	if err := p.advance(); err != nil {
		return nil, err
	}
	if path != "runtime.server" {
		return nil, fmt.Errorf("unknown reference '%s'", path)
	}
	return RuntimeServer{}, nil
}

// Format renders expr back to rule syntax.
func Format(expr Expr) string {
	switch e := expr.(type) {
	case Implication:
		return fmt.Sprintf("%s => %s", Format(e.Condition), Format(e.Then))
	case Comparison:
		return fmt.Sprintf("%s %s %s", Format(e.Left), e.Operator, Format(e.Right))
	case VarRef:
		return e.Name
	case RuntimeServer:
		return "runtime.server"
	case Literal:
		return fmt.Sprintf("%q", e.Value)
	}
	return "<unknown>"
}

// Refs returns the variable names expr references, in order of appearance.
func Refs(expr Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch t := e.(type) {
		case Implication:
			walk(t.Condition)
			walk(t.Then)
		case Comparison:
			walk(t.Left)
			walk(t.Right)
		case VarRef:
			if !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, t.Name)
			}
		}
	}
	walk(expr)
	return out
}

func checkRefs(expr Expr, known []string) error {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	var undefined []string
	for _, ref := range Refs(expr) {
		if !set[ref] {
			undefined = append(undefined, ref)
		}
	}
	if len(undefined) > 0 {
		return fmt.Errorf("undefined variable(s): %s", strings.Join(undefined, ", "))
	}
	return nil
}
