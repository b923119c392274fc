package parser

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/lexer"
)

var deviceKeywordKind = map[lexer.TokenType]ast.DeviceKind{
	lexer.TokKwDigitalOutput: ast.KindDigitalOutput,
	lexer.TokKwDigitalInput:  ast.KindDigitalInput,
	lexer.TokKwSolenoidValve: ast.KindSolenoidValve,
	lexer.TokKwCylinder:      ast.KindCylinder,
	lexer.TokKwMotor:         ast.KindMotor,
	lexer.TokKwSensor:        ast.KindSensor,
}

// parseTopologySection parses zero or more device declarations until
// the next `[section]` header or end of file.
func (p *parser) parseTopologySection() ([]ast.DeviceDecl, error) {
	var decls []ast.DeviceDecl
	for !p.peekSection() && !p.at(lexer.TokEOF) {
		d, err := p.parseDeviceDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// parseDeviceDecl parses `<kind> <name> { <attrs> }` or the bare
// `device <name> { ... }` form used when the kind is implied by usage
// (kept for forward compatibility with generic device blocks; RustPLC
// itself always uses the concrete kind keywords).
func (p *parser) parseDeviceDecl() (ast.DeviceDecl, error) {
	loc := p.cur().Loc
	kind, ok := deviceKeywordKind[p.cur().Type]
	if !ok && p.cur().Type != lexer.TokKwDevice {
		return ast.DeviceDecl{}, &Error{Loc: loc, Msg: fmt.Sprintf("expected a device kind (digital_output, digital_input, solenoid_valve, cylinder, motor, sensor), got %q", p.cur().Text)}
	}
	p.advance()

	name, err := p.expectIdent()
	if err != nil {
		return ast.DeviceDecl{}, err
	}

	attrs, err := p.parseAttrBlock()
	if err != nil {
		return ast.DeviceDecl{}, err
	}

	return ast.DeviceDecl{Kind: kind, Name: name.Text, Attrs: attrs, Loc: loc}, nil
}

// parseAttrBlock parses `{ key: value, key: value, }` with an optional
// trailing comma, returning an empty slice for `{}`.
func (p *parser) parseAttrBlock() ([]ast.Attr, error) {
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	var attrs []ast.Attr
	for !p.at(lexer.TokRBrace) {
		a, err := p.parseAttr()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
		if p.at(lexer.TokComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return attrs, nil
}

// parseAttr parses one `key: value` pair. Value may be a dotted
// identifier reference, a duration literal, a quoted string, or a
// boolean literal.
func (p *parser) parseAttr() (ast.Attr, error) {
	loc := p.cur().Loc
	keyTok := p.cur()
	var key string
	switch keyTok.Type {
	case lexer.TokIdent:
		key = keyTok.Text
		p.advance()
	default:
		// allow keywords to double as attribute keys, e.g. `type:`
		if keyTok.Text == "" {
			return ast.Attr{}, &Error{Loc: loc, Msg: fmt.Sprintf("expected attribute key, got %q", keyTok.Text)}
		}
		key = keyTok.Text
		p.advance()
	}
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.Attr{}, err
	}

	switch p.cur().Type {
	case lexer.TokDuration:
		tok := p.advance()
		return ast.Attr{Key: key, Kind: ast.AttrDuration, DurationMS: tok.DurationMS, Loc: loc}, nil
	case lexer.TokString:
		tok := p.advance()
		return ast.Attr{Key: key, Kind: ast.AttrString, Str: tok.Str, Loc: loc}, nil
	case lexer.TokKwTrue:
		p.advance()
		return ast.Attr{Key: key, Kind: ast.AttrBool, Bool: true, Loc: loc}, nil
	case lexer.TokKwFalse:
		p.advance()
		return ast.Attr{Key: key, Kind: ast.AttrBool, Bool: false, Loc: loc}, nil
	case lexer.TokIdent:
		ident, err := p.parseDottedIdent()
		if err != nil {
			return ast.Attr{}, err
		}
		return ast.Attr{Key: key, Kind: ast.AttrIdent, Ident: ident, Loc: loc}, nil
	default:
		return ast.Attr{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected attribute value, got %q", p.cur().Text)}
	}
}

// parseDottedIdent parses `ident(.ident)*`, producing the joined text
// (e.g. "cyl_A.extended").
func (p *parser) parseDottedIdent() (string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	text := first.Text
	for p.at(lexer.TokDot) {
		p.advance()
		tok, err := p.expectIdentOrKeyword()
		if err != nil {
			return "", err
		}
		text += "." + tok.Text
	}
	return text, nil
}

// expectIdentOrKeyword accepts an identifier or any keyword token used
// as a state name (e.g. "extended", "retracted" collide with no
// keyword today, but state names are open-ended per spec §3).
func (p *parser) expectIdentOrKeyword() (lexer.Token, error) {
	tok := p.cur()
	if tok.Text == "" {
		return lexer.Token{}, &Error{Loc: tok.Loc, Msg: "expected an identifier"}
	}
	p.advance()
	return tok, nil
}
