package commission

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Custom formulas are arithmetic over a fixed set of variables:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | factor
//	factor = number | ident | "(" expr ")"
//
// Division by zero evaluates to zero.

var formulaVariables = map[string]struct{}{
	"gross": {}, "net": {}, "products": {}, "services": {},
	"expenses": {}, "displacement": {}, "cost": {}, "percent": {},
}

type node interface {
	eval(vars map[string]decimal.Decimal) decimal.Decimal
}

type numberNode struct{ value decimal.Decimal }

func (n numberNode) eval(map[string]decimal.Decimal) decimal.Decimal { return n.value }

type varNode struct{ name string }

func (n varNode) eval(vars map[string]decimal.Decimal) decimal.Decimal { return vars[n.name] }

type negNode struct{ operand node }

func (n negNode) eval(vars map[string]decimal.Decimal) decimal.Decimal {
	return n.operand.eval(vars).Neg()
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(vars map[string]decimal.Decimal) decimal.Decimal {
	l, r := n.left.eval(vars), n.right.eval(vars)
	switch n.op {
	case '+':
		return l.Add(r)
	case '-':
		return l.Sub(r)
	case '*':
		return l.Mul(r)
	case '/':
		if r.IsZero() {
			return decimal.Zero
		}
		return l.DivRound(r, 8)
	}
	return decimal.Zero
}

type formulaParser struct {
	src string
	pos int
}

// ValidateFormula reports whether a custom formula can be parsed
func ValidateFormula(src string) error {
	_, err := parseFormula(src)
	return err
}

func parseFormula(src string) (node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("formula is empty")
	}
	p := &formulaParser{src: strings.ToLower(src)}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return n, nil
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *formulaParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *formulaParser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *formulaParser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *formulaParser) unary() (node, error) {
	if p.peek() == '-' {
		p.pos++
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return negNode{operand: operand}, nil
	}
	return p.factor()
}

func (p *formulaParser) factor() (node, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, errors.New("unexpected end of formula")
	case c == '(':
		p.pos++
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, errors.New("missing closing parenthesis")
		}
		p.pos++
		return n, nil
	case c == '.' || (c >= '0' && c <= '9'):
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
			p.pos++
		}
		value, err := decimal.NewFromString(p.src[start:p.pos])
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p.src[start:p.pos])
		}
		return numberNode{value: value}, nil
	case c == '_' || (c >= 'a' && c <= 'z'):
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] == '_' || (p.src[p.pos] >= 'a' && p.src[p.pos] <= 'z')) {
			p.pos++
		}
		name := p.src[start:p.pos]
		if _, ok := formulaVariables[name]; !ok {
			return nil, fmt.Errorf("unknown variable %q", name)
		}
		return varNode{name: name}, nil
	}
	return nil, fmt.Errorf("unexpected %q at position %d", c, p.pos)
}
