package parser

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/lexer"
)

// parseStateExpr parses a boolean expression over device/sensor states,
// timers, and the connectives `and`, `or`, `not`:
//
//	stateExpr  := orExpr
//	orExpr     := andExpr ( "or" andExpr )*
//	andExpr    := unaryExpr ( "and" unaryExpr )*
//	unaryExpr  := "not" unaryExpr | primary
//	primary    := "(" stateExpr ")" | compare
//	compare    := dottedIdent [ cmpOp literal ]
func (p *parser) parseStateExpr() (ast.StateExpr, error) {
	return p.parseOrExpr()
}

func (p *parser) parseOrExpr() (ast.StateExpr, error) {
	loc := p.cur().Loc
	left, err := p.parseAndExpr()
	if err != nil {
		return ast.StateExpr{}, err
	}
	for p.at(lexer.TokKwOr) {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return ast.StateExpr{}, err
		}
		left = ast.StateExpr{Op: ast.ExprOr, Sub: []ast.StateExpr{left, right}, Loc: loc}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (ast.StateExpr, error) {
	loc := p.cur().Loc
	left, err := p.parseUnaryExpr()
	if err != nil {
		return ast.StateExpr{}, err
	}
	for p.at(lexer.TokKwAnd) {
		p.advance()
		right, err := p.parseUnaryExpr()
		if err != nil {
			return ast.StateExpr{}, err
		}
		left = ast.StateExpr{Op: ast.ExprAnd, Sub: []ast.StateExpr{left, right}, Loc: loc}
	}
	return left, nil
}

func (p *parser) parseUnaryExpr() (ast.StateExpr, error) {
	loc := p.cur().Loc
	if p.at(lexer.TokKwNot) {
		p.advance()
		inner, err := p.parseUnaryExpr()
		if err != nil {
			return ast.StateExpr{}, err
		}
		return ast.StateExpr{Op: ast.ExprNot, Sub: []ast.StateExpr{inner}, Loc: loc}, nil
	}
	return p.parsePrimaryExpr()
}

func (p *parser) parsePrimaryExpr() (ast.StateExpr, error) {
	loc := p.cur().Loc
	if p.at(lexer.TokLParen) {
		p.advance()
		inner, err := p.parseStateExpr()
		if err != nil {
			return ast.StateExpr{}, err
		}
		if _, err := p.expect(lexer.TokRParen, "')'"); err != nil {
			return ast.StateExpr{}, err
		}
		return inner, nil
	}

	ref, err := p.parseDottedIdent()
	if err != nil {
		return ast.StateExpr{}, err
	}

	op, hasOp := cmpOps[p.cur().Type]
	if !hasOp {
		return ast.StateExpr{Op: ast.ExprRef, Ref: ref, Loc: loc}, nil
	}
	p.advance()
	val, err := p.parseCompareValue()
	if err != nil {
		return ast.StateExpr{}, err
	}
	return ast.StateExpr{Op: ast.ExprCompare, Ref: ref, CompareOp: op, Value: val, Loc: loc}, nil
}

// cmpOps maps comparison token types to their textual operator.
var cmpOps = map[lexer.TokenType]string{
	lexer.TokEq: "==",
	lexer.TokGe: ">=",
	lexer.TokGt: ">",
	lexer.TokLe: "<=",
	lexer.TokLt: "<",
}

func (p *parser) parseCompareValue() (string, error) {
	switch p.cur().Type {
	case lexer.TokKwTrue:
		p.advance()
		return "true", nil
	case lexer.TokKwFalse:
		p.advance()
		return "false", nil
	case lexer.TokNumber:
		tok := p.advance()
		return fmt.Sprintf("%d", tok.Number), nil
	case lexer.TokDuration:
		tok := p.advance()
		return fmt.Sprintf("%d", tok.DurationMS), nil
	case lexer.TokIdent:
		return p.parseDottedIdent()
	default:
		return "", &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected comparison value, got %q", p.cur().Text)}
	}
}
