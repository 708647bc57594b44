package plugins

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Safe arithmetic expression evaluator. Input uses the conventional
// calculator syntax: + - * / // % **, unary +/-, parentheses, the
// constants pi and e, and a whitelist of math functions. Everything is
// parsed into a small AST and validated before evaluation, so there is no
// way to reach anything beyond arithmetic.

// ExpressionError reports an invalid or unsafe expression.
type ExpressionError struct {
	Reason string
}

func (e *ExpressionError) Error() string { return e.Reason }

func exprErrorf(format string, args ...any) error {
	return &ExpressionError{Reason: fmt.Sprintf(format, args...)}
}

var allowedNames = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

var allowedFunctions = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"sqrt":  math.Sqrt,
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"abs":   math.Abs,
	"round": math.Round,
}

// AST node kinds. The names surface in error messages ("Unsupported node
// type: Call"), so they stay stable.
type exprNode interface {
	kind() string
}

type constantNode struct {
	value    float64
	strValue string
	isString bool
}

type nameNode struct{ id string }

type callNode struct {
	funcName string // empty when the callee is not a bare name
	args     []exprNode
}

type binOpNode struct {
	op          string
	left, right exprNode
}

type unaryOpNode struct {
	op      string
	operand exprNode
}

type attributeNode struct {
	value exprNode
	attr  string
}

func (constantNode) kind() string  { return "Constant" }
func (nameNode) kind() string      { return "Name" }
func (callNode) kind() string      { return "Call" }
func (binOpNode) kind() string     { return "BinOp" }
func (unaryOpNode) kind() string   { return "UnaryOp" }
func (attributeNode) kind() string { return "Attribute" }

// evaluateExpression parses, validates and computes an expression.
func evaluateExpression(expression string) (float64, error) {
	p := &exprParser{input: expression}
	node, err := p.parse()
	if err != nil {
		return 0, exprErrorf("Invalid expression syntax: %v", err)
	}
	if err := validateNode(node); err != nil {
		return 0, err
	}
	return evalNode(node)
}

func validateNode(node exprNode) error {
	switch n := node.(type) {
	case constantNode:
		if n.isString {
			return exprErrorf("Unsafe constant: %s", n.strValue)
		}
		return nil
	case nameNode:
		if _, ok := allowedNames[n.id]; !ok {
			return exprErrorf("Unsafe name: %s", n.id)
		}
		return nil
	case callNode:
		if n.funcName == "" {
			return exprErrorf("Unsafe function call: unknown")
		}
		if _, ok := allowedFunctions[n.funcName]; !ok {
			return exprErrorf("Unsafe function call: %s", n.funcName)
		}
		for _, arg := range n.args {
			if err := validateNode(arg); err != nil {
				return err
			}
		}
		return nil
	case binOpNode:
		if err := validateNode(n.left); err != nil {
			return err
		}
		return validateNode(n.right)
	case unaryOpNode:
		return validateNode(n.operand)
	default:
		return exprErrorf("Unsupported node type: %s", node.kind())
	}
}

func evalNode(node exprNode) (float64, error) {
	switch n := node.(type) {
	case constantNode:
		return n.value, nil
	case nameNode:
		return allowedNames[n.id], nil
	case unaryOpNode:
		v, err := evalNode(n.operand)
		if err != nil {
			return 0, err
		}
		if n.op == "-" {
			return -v, nil
		}
		return v, nil
	case binOpNode:
		left, err := evalNode(n.left)
		if err != nil {
			return 0, err
		}
		right, err := evalNode(n.right)
		if err != nil {
			return 0, err
		}
		switch n.op {
		case "+":
			return left + right, nil
		case "-":
			return left - right, nil
		case "*":
			return left * right, nil
		case "/":
			if right == 0 {
				return 0, exprErrorf("Evaluation error: division by zero")
			}
			return left / right, nil
		case "//":
			if right == 0 {
				return 0, exprErrorf("Evaluation error: division by zero")
			}
			return math.Floor(left / right), nil
		case "%":
			if right == 0 {
				return 0, exprErrorf("Evaluation error: division by zero")
			}
			return math.Mod(left, right), nil
		case "**":
			return math.Pow(left, right), nil
		}
		return 0, exprErrorf("Unsafe operation: %s", n.op)
	case callNode:
		fn := allowedFunctions[n.funcName]
		if len(n.args) != 1 {
			return 0, exprErrorf("Evaluation error: %s expects 1 argument, got %d", n.funcName, len(n.args))
		}
		arg, err := evalNode(n.args[0])
		if err != nil {
			return 0, err
		}
		return fn(arg), nil
	default:
		return 0, exprErrorf("Unsupported expression type: %s", node.kind())
	}
}

// exprParser is a recursive-descent parser over a rune slice. Grammar and
// precedence follow calculator conventions: ** binds tightest and is
// right-associative, then unary +/-, then * / // %, then + -.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parse() (exprNode, error) {
	node, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return node, nil
}

func (p *exprParser) parseAddSub() (exprNode, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpaces()
		op, ok := p.peekOp("+", "-")
		if !ok {
			return left, nil
		}
		p.pos += len(op)
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = binOpNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseMulDiv() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpaces()
		// Longest match first so // is not read as two divisions and **
		// is left for the power level.
		if _, ok := p.peekOp("**"); ok {
			return left, nil
		}
		op, ok := p.peekOp("//", "*", "/", "%")
		if !ok {
			return left, nil
		}
		p.pos += len(op)
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binOpNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseUnary() (exprNode, error) {
	p.skipSpaces()
	if op, ok := p.peekOp("-", "+"); ok {
		p.pos += len(op)
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryOpNode{op: op, operand: operand}, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (exprNode, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if op, ok := p.peekOp("**"); ok {
		p.pos += len(op)
		// Right-associative; the exponent may carry a unary sign.
		exponent, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binOpNode{op: "**", left: base, right: exponent}, nil
	}
	return base, nil
}

func (p *exprParser) parsePostfix() (exprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpaces()
		switch {
		case p.peek() == '(':
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			funcName := ""
			if name, ok := node.(nameNode); ok {
				funcName = name.id
			}
			node = callNode{funcName: funcName, args: args}
		case p.peek() == '.':
			p.pos++
			attr, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			node = attributeNode{value: node, attr: attr}
		default:
			return node, nil
		}
	}
}

func (p *exprParser) parseArgs() ([]exprNode, error) {
	p.pos++ // consume '('
	var args []exprNode
	p.skipSpaces()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		arg, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpaces()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at position %d", p.pos)
		}
	}
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	c := p.input[p.pos]
	switch {
	case c == '(':
		p.pos++
		node, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return nil, fmt.Errorf("expected ')' at position %d", p.pos)
		}
		p.pos++
		return node, nil
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case isIdentStart(rune(c)):
		ident, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		return nameNode{id: ident}, nil
	default:
		return nil, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
	}
}

func (p *exprParser) parseString(quote byte) (exprNode, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.input) && p.input[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unterminated string at position %d", start)
	}
	value := p.input[start+1 : p.pos]
	p.pos++
	return constantNode{strValue: value, isString: true}, nil
}

func (p *exprParser) parseNumber() (exprNode, error) {
	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	// Exponent suffix like 1e6.
	if p.pos < len(p.input) && (p.input[p.pos] == 'e' || p.input[p.pos] == 'E') {
		next := p.pos + 1
		if next < len(p.input) && (p.input[next] == '+' || p.input[next] == '-') {
			next++
		}
		if next < len(p.input) && isDigit(p.input[next]) {
			p.pos = next
			for p.pos < len(p.input) && isDigit(p.input[p.pos]) {
				p.pos++
			}
		}
	}
	text := p.input[start:p.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return constantNode{value: value}, nil
}

func (p *exprParser) parseIdent() (string, error) {
	p.skipSpaces()
	start := p.pos
	if p.pos >= len(p.input) || !isIdentStart(rune(p.input[p.pos])) {
		return "", fmt.Errorf("expected identifier at position %d", p.pos)
	}
	for p.pos < len(p.input) && isIdentPart(rune(p.input[p.pos])) {
		p.pos++
	}
	return p.input[start:p.pos], nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) peekOp(ops ...string) (string, bool) {
	for _, op := range ops {
		if strings.HasPrefix(p.input[p.pos:], op) {
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
