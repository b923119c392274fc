// Package parser implements the RustPLC grammar: a recursive-descent
// parser whose productions mirror a PEG specification of ordered-choice
// rules, one parsing method per rule, matching the teacher's
// single-purpose-function style (see lexer.Lexer for the scanning half
// of the same pattern). Grammar entry point is ParseFile.
//
// The grammar recognizes exactly three top-level sections, in order:
// [topology], [constraints], [tasks]. Any other order, or an unknown
// section header, is a syntax error - the parser does not attempt
// recovery; a syntax error aborts parsing with a single diagnostic, per
// spec §7.
package parser

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/lexer"
)

// Error is the single fatal diagnostic a parse failure produces.
type Error struct {
	Loc      ast.Location
	Msg      string
	Expected []string
}

func (e *Error) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
	}
	return fmt.Sprintf("%s: %s (expected one of: %v)", e.Loc, e.Msg, e.Expected)
}

type parser struct {
	toks []lexer.Token
	pos  int
	file string
}

// ParseFile lexes and parses src into an AST. filename is attached to
// every location for diagnostics; pass "" for an anonymous source.
func ParseFile(src, filename string) (*ast.File, error) {
	toks, err := lexer.All(src, filename)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, file: filename}
	return p.parseFile()
}

func (p *parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) at(t lexer.TokenType) bool {
	return p.cur().Type == t
}

func (p *parser) advance() lexer.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(t lexer.TokenType, what string) (lexer.Token, error) {
	if !p.at(t) {
		return lexer.Token{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected %s, got %q", what, p.cur().Text)}
	}
	return p.advance(), nil
}

func (p *parser) expectIdent() (lexer.Token, error) {
	return p.expect(lexer.TokIdent, "identifier")
}

// ---- top level ----

func (p *parser) parseFile() (*ast.File, error) {
	f := &ast.File{Loc: p.cur().Loc}

	if _, err := p.expectSection("topology"); err != nil {
		return nil, err
	}
	topo, err := p.parseTopologySection()
	if err != nil {
		return nil, err
	}
	f.Topology = topo

	if _, err := p.expectSection("constraints"); err != nil {
		return nil, err
	}
	cons, err := p.parseConstraintsSection()
	if err != nil {
		return nil, err
	}
	f.Constraints = cons

	if _, err := p.expectSection("tasks"); err != nil {
		return nil, err
	}
	tasks, err := p.parseTasksSection()
	if err != nil {
		return nil, err
	}
	f.Tasks = tasks

	if !p.at(lexer.TokEOF) {
		return nil, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("unexpected trailing content %q after [tasks] section", p.cur().Text)}
	}
	return f, nil
}

// expectSection consumes `[name]`.
func (p *parser) expectSection(name string) (ast.Location, error) {
	loc := p.cur().Loc
	if _, err := p.expect(lexer.TokLBracket, "'['"); err != nil {
		return loc, &Error{Loc: loc, Msg: fmt.Sprintf("expected section header [%s]", name)}
	}
	tok, err := p.expectIdent()
	if err != nil {
		return loc, err
	}
	if tok.Text != name {
		return loc, &Error{Loc: tok.Loc, Msg: fmt.Sprintf("expected section [%s], got [%s] - sections must appear in order topology, constraints, tasks", name, tok.Text)}
	}
	if _, err := p.expect(lexer.TokRBracket, "']'"); err != nil {
		return loc, err
	}
	return loc, nil
}

func (p *parser) peekSection() bool {
	return p.at(lexer.TokLBracket)
}
