package condition

import (
	"fmt"
	"strconv"
)

// Parse tokenizes and parses an expression into its AST. It is pure
// syntax: no name is resolved and nothing is evaluated here.
func Parse(expr string) (Node, error) {
	tokens, err := lex(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}

	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t != nil {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected token %q", t.value)}
	}
	return node, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() *token {
	if p.pos < len(p.tokens) {
		return &p.tokens[p.pos]
	}
	return nil
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) atKeyword(kw string) bool {
	t := p.peek()
	return t != nil && t.kind == tokIdent && t.value == kw
}

// parseOr handles: expr or expr
func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BooleanOp{Left: left, Op: OpOr, Right: right}
	}
	return left, nil
}

// parseAnd handles: expr and expr
func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BooleanOp{Left: left, Op: OpAnd, Right: right}
	}
	return left, nil
}

// parseNot handles: not expr
func (p *parser) parseNot() (Node, error) {
	if p.atKeyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	}
	return p.parseComparison()
}

// parseComparison handles: expr (==|!=|<|>|<=|>=) expr
func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseFieldAccess()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t != nil && t.kind == tokOp {
		op := CompareOp(p.advance().value)
		right, err := p.parseFieldAccess()
		if err != nil {
			return nil, err
		}
		return &Comparison{Left: left, Op: op, Right: right}, nil
	}
	return left, nil
}

// parseFieldAccess handles: primary(.field)*
func (p *parser) parseFieldAccess() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t == nil || t.kind != tokDot {
			return node, nil
		}
		dot := p.advance()
		field := p.peek()
		if field == nil || field.kind != tokIdent {
			return nil, &SyntaxError{Pos: dot.pos, Msg: "expected field name after '.'"}
		}
		p.advance()
		node = &FieldAccess{Target: node, Field: field.value}
	}
}

// parsePrimary handles: literals, identifiers, parenthesized expressions
func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	if t == nil {
		return nil, &SyntaxError{Pos: len(p.tokens), Msg: "unexpected end of expression"}
	}

	switch t.kind {
	case tokNumber:
		p.advance()
		f, err := strconv.ParseFloat(t.value, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("invalid number %q", t.value)}
		}
		return &Literal{Value: f}, nil

	case tokString:
		p.advance()
		return &Literal{Value: t.value}, nil

	case tokIdent:
		p.advance()
		switch t.value {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "and", "or", "not":
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected keyword %q", t.value)}
		default:
			return &Identifier{Name: t.value}, nil
		}

	case tokLParen:
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing := p.peek()
		if closing == nil || closing.kind != tokRParen {
			return nil, &SyntaxError{Pos: t.pos, Msg: "missing closing parenthesis"}
		}
		p.advance()
		return node, nil

	default:
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected token %q", t.value)}
	}
}
