package parser

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/lexer"
)

// parseConstraintsSection parses zero or more constraint declarations
// until the next `[section]` header or end of file.
func (p *parser) parseConstraintsSection() ([]ast.ConstraintDecl, error) {
	var decls []ast.ConstraintDecl
	for !p.peekSection() && !p.at(lexer.TokEOF) {
		d, err := p.parseConstraintDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// parseConstraintDecl parses one of:
//
//	safety: <expr> conflicts_with <expr> [, reason: "..."]
//	safety: <expr> requires <expr> [, reason: "..."]
//	timing: <scope> must_complete_within <N>ms [, reason: "..."]
//	timing: <scope> must_start_after <N>ms [, reason: "..."]
//	causality: D1 -> D2 -> ... -> Dk [, reason: "..."]
func (p *parser) parseConstraintDecl() (ast.ConstraintDecl, error) {
	loc := p.cur().Loc
	switch p.cur().Type {
	case lexer.TokKwSafety:
		return p.parseSafetyConstraint(loc)
	case lexer.TokKwTiming:
		return p.parseTimingConstraint(loc)
	case lexer.TokKwCausality:
		return p.parseCausalityConstraint(loc)
	default:
		return ast.ConstraintDecl{}, &Error{Loc: loc, Msg: fmt.Sprintf("expected safety, timing, or causality constraint, got %q", p.cur().Text)}
	}
}

func (p *parser) parseSafetyConstraint(loc ast.Location) (ast.ConstraintDecl, error) {
	p.advance() // "safety"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.ConstraintDecl{}, err
	}
	left, err := p.parseStateExpr()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	var rel ast.SafetyRelation
	switch p.cur().Type {
	case lexer.TokKwConflictsWith:
		rel = ast.RelConflictsWith
	case lexer.TokKwRequires:
		rel = ast.RelRequires
	default:
		return ast.ConstraintDecl{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected conflicts_with or requires, got %q", p.cur().Text)}
	}
	p.advance()

	right, err := p.parseStateExpr()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	reason, err := p.parseOptionalReason()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	return ast.ConstraintDecl{
		Kind:        ast.ConstraintSafety,
		SafetyLeft:  left,
		SafetyRight: right,
		SafetyRel:   rel,
		Reason:      reason,
		Loc:         loc,
	}, nil
}

func (p *parser) parseTimingConstraint(loc ast.Location) (ast.ConstraintDecl, error) {
	p.advance() // "timing"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.ConstraintDecl{}, err
	}
	scope, err := p.parseScopeRef()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	var rel ast.TimingRelation
	switch p.cur().Type {
	case lexer.TokKwMustCompleteWithin:
		rel = ast.RelMustCompleteWithin
	case lexer.TokKwMustStartAfter:
		rel = ast.RelMustStartAfter
	default:
		return ast.ConstraintDecl{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected must_complete_within or must_start_after, got %q", p.cur().Text)}
	}
	p.advance()

	durTok, err := p.expect(lexer.TokDuration, "a duration literal (e.g. 400ms)")
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	reason, err := p.parseOptionalReason()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	return ast.ConstraintDecl{
		Kind:        ast.ConstraintTiming,
		TimingScope: scope,
		TimingRel:   rel,
		TimingMS:    durTok.DurationMS,
		Reason:      reason,
		Loc:         loc,
	}, nil
}

// parseScopeRef parses `task.T` or `task.T.step.S`.
func (p *parser) parseScopeRef() (ast.ScopeRef, error) {
	loc := p.cur().Loc
	if _, err := p.expect(lexer.TokKwTask, "'task'"); err != nil {
		return ast.ScopeRef{}, err
	}
	if _, err := p.expect(lexer.TokDot, "'.'"); err != nil {
		return ast.ScopeRef{}, err
	}
	taskName, err := p.expectIdent()
	if err != nil {
		return ast.ScopeRef{}, err
	}
	ref := ast.ScopeRef{Task: taskName.Text, Loc: loc}
	if !p.at(lexer.TokDot) {
		return ref, nil
	}
	p.advance()
	if _, err := p.expect(lexer.TokKwStep, "'step'"); err != nil {
		return ast.ScopeRef{}, err
	}
	if _, err := p.expect(lexer.TokDot, "'.'"); err != nil {
		return ast.ScopeRef{}, err
	}
	stepName, err := p.expectIdent()
	if err != nil {
		return ast.ScopeRef{}, err
	}
	ref.Step = stepName.Text
	return ref, nil
}

func (p *parser) parseCausalityConstraint(loc ast.Location) (ast.ConstraintDecl, error) {
	p.advance() // "causality"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.ConstraintDecl{}, err
	}
	first, err := p.expectIdent()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}
	chain := []string{first.Text}
	for p.at(lexer.TokArrow) {
		p.advance()
		next, err := p.expectIdent()
		if err != nil {
			return ast.ConstraintDecl{}, err
		}
		chain = append(chain, next.Text)
	}
	if len(chain) < 2 {
		return ast.ConstraintDecl{}, &Error{Loc: loc, Msg: "causality constraint needs at least two devices joined by '->'"}
	}

	reason, err := p.parseOptionalReason()
	if err != nil {
		return ast.ConstraintDecl{}, err
	}

	return ast.ConstraintDecl{
		Kind:           ast.ConstraintCausality,
		CausalityChain: chain,
		Reason:         reason,
		Loc:            loc,
	}, nil
}

// parseOptionalReason parses a trailing `, reason: "..."`, returning ""
// if absent.
func (p *parser) parseOptionalReason() (string, error) {
	if !p.at(lexer.TokComma) {
		return "", nil
	}
	p.advance()
	if _, err := p.expect(lexer.TokKwReason, "'reason'"); err != nil {
		return "", err
	}
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return "", err
	}
	tok, err := p.expect(lexer.TokString, "a quoted reason string")
	if err != nil {
		return "", err
	}
	return tok.Str, nil
}
