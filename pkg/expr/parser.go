package expr

import (
	"fmt"
	"strconv"

	"github.com/aretw0/few/pkg/domain"
)

// ParseError is a syntax error at a byte offset.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error at " + strconv.Itoa(e.Pos) + ": " + e.Msg
}

type parser struct {
	toks []Token
	i    int
}

// Parse lexes and parses a single expression.
func Parse(src string) (Node, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().Type == EOF {
		return nil, &ParseError{Pos: 0, Msg: "empty expression"}
	}
	n, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != EOF {
		return nil, &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %s", describe(t))}
	}
	return n, nil
}

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

func (p *parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.i++
		return true
	}
	return false
}

func (p *parser) need(tt TokenType, ctx string) (Token, error) {
	t := p.peek()
	if t.Type != tt {
		return t, &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("expected %s %s, got %s", tt, ctx, describe(t))}
	}
	p.i++
	return t, nil
}

func describe(t Token) string {
	if t.Lexeme == "" {
		return t.Type.String()
	}
	return strconv.Quote(t.Lexeme)
}

const (
	bpConditional = 10
	bpUnary       = 80
	bpPostfix     = 90
)

func lbp(t TokenType) (int, bool) {
	switch t {
	case QUESTION:
		return bpConditional, true
	case OR, NULLISH:
		return 20, true
	case AND:
		return 30, true
	case EQ, NEQ, STRICTEQ, STRICTNEQ:
		return 40, true
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		return 50, true
	case PLUS, MINUS:
		return 60, true
	case STAR, SLASH, PERCENT:
		return 70, true
	case DOT, OPTDOT, LBRACKET, LPAREN:
		return bpPostfix, true
	}
	return 0, false
}

func (p *parser) expr(minBP int) (Node, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		bp, ok := lbp(t.Type)
		if !ok || bp <= minBP {
			return left, nil
		}
		p.advance()

		switch t.Type {
		case DOT, OPTDOT, LBRACKET, LPAREN:
			left, err = p.postfix(left, t)
		case QUESTION:
			left, err = p.conditional(left, t)
		case AND, OR, NULLISH:
			var right Node
			right, err = p.expr(bp)
			left = &Logical{At: t.Pos, Op: t.Type, Left: left, Right: right}
		default:
			var right Node
			right, err = p.expr(bp)
			left = &Binary{At: t.Pos, Op: t.Type, Left: left, Right: right}
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) prefix() (Node, error) {
	t := p.advance()
	switch t.Type {
	case INT, FLOAT, STRING:
		return &Literal{At: t.Pos, Value: t.Literal}, nil
	case TRUE:
		return &Literal{At: t.Pos, Value: true}, nil
	case FALSE:
		return &Literal{At: t.Pos, Value: false}, nil
	case NULL:
		return &Literal{At: t.Pos, Value: nil}, nil
	case UNDEFINED:
		return &Literal{At: t.Pos, Value: domain.Absent}, nil
	case THIS:
		return &This{At: t.Pos}, nil
	case IDENT:
		return &Ident{At: t.Pos, Name: t.Literal.(string)}, nil
	case MINUS, PLUS, BANG:
		operand, err := p.expr(bpUnary)
		if err != nil {
			return nil, err
		}
		return &Unary{At: t.Pos, Op: t.Type, Operand: operand}, nil
	case LPAREN:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "to close group"); err != nil {
			return nil, err
		}
		return inner, nil
	case LBRACKET:
		return p.array(t)
	case LBRACE:
		return p.object(t)
	}
	return nil, &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %s", describe(t))}
}

func (p *parser) postfix(left Node, t Token) (Node, error) {
	optional := t.Type == OPTDOT

	if t.Type == DOT || t.Type == OPTDOT {
		// obj?.[expr] and obj?.(args)
		if optional && p.match(LBRACKET) {
			return p.index(left, t, true)
		}
		if optional && p.match(LPAREN) {
			return p.call(left, t, true)
		}
		name := p.advance()
		switch {
		case name.Type == IDENT:
			return &Member{At: t.Pos, Object: left, Property: name.Literal.(string), Optional: optional}, nil
		case name.Type == INT:
			return &Member{At: t.Pos, Object: left, Property: name.Lexeme, Optional: optional}, nil
		case isKeyword(name.Type):
			return &Member{At: t.Pos, Object: left, Property: name.Lexeme, Optional: optional}, nil
		}
		return nil, &ParseError{Pos: name.Pos, Msg: fmt.Sprintf("expected property name after '.', got %s", describe(name))}
	}

	if t.Type == LBRACKET {
		return p.index(left, t, false)
	}
	return p.call(left, t, false)
}

func (p *parser) index(left Node, t Token, optional bool) (Node, error) {
	idx, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RBRACKET, "to close index"); err != nil {
		return nil, err
	}
	return &Index{At: t.Pos, Object: left, Index: idx, Optional: optional}, nil
}

func (p *parser) call(callee Node, t Token, optional bool) (Node, error) {
	args, err := p.list(RPAREN, "to close call arguments")
	if err != nil {
		return nil, err
	}
	return &Call{At: t.Pos, Callee: callee, Args: args, Optional: optional}, nil
}

func (p *parser) conditional(test Node, t Token) (Node, error) {
	then, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "in conditional expression"); err != nil {
		return nil, err
	}
	// right associative: a ? b : c ? d : e
	otherwise, err := p.expr(bpConditional - 1)
	if err != nil {
		return nil, err
	}
	return &Conditional{At: t.Pos, Test: test, Then: then, Otherwise: otherwise}, nil
}

func (p *parser) array(open Token) (Node, error) {
	elems, err := p.list(RBRACKET, "to close array literal")
	if err != nil {
		return nil, err
	}
	return &Array{At: open.Pos, Elems: elems}, nil
}

// list parses comma separated expressions up to and including the closing token.
// A trailing comma is accepted.
func (p *parser) list(closing TokenType, ctx string) ([]Node, error) {
	var items []Node
	for !p.match(closing) {
		item, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(closing, ctx); err != nil {
			return nil, err
		}
		break
	}
	return items, nil
}

func (p *parser) object(open Token) (Node, error) {
	obj := &Object{At: open.Pos}
	for !p.match(RBRACE) {
		k := p.advance()
		var key string
		switch {
		case k.Type == IDENT:
			key = k.Literal.(string)
		case k.Type == STRING:
			key = k.Literal.(string)
		case k.Type == INT || k.Type == FLOAT || isKeyword(k.Type):
			key = k.Lexeme
		default:
			return nil, &ParseError{Pos: k.Pos, Msg: fmt.Sprintf("expected property key, got %s", describe(k))}
		}

		var value Node
		if p.match(COLON) {
			v, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			value = v
		} else if k.Type == IDENT {
			// shorthand {a} == {a: a}
			value = &Ident{At: k.Pos, Name: key}
		} else {
			return nil, &ParseError{Pos: p.peek().Pos, Msg: "expected ':' after property key"}
		}

		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, value)

		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RBRACE, "to close object literal"); err != nil {
			return nil, err
		}
		break
	}
	return obj, nil
}

func isKeyword(t TokenType) bool {
	switch t {
	case TRUE, FALSE, NULL, UNDEFINED, THIS:
		return true
	}
	return false
}
