package parser

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/lexer"
)

// parseTasksSection parses zero or more task declarations until end of
// file (tasks is always the last section).
func (p *parser) parseTasksSection() ([]ast.TaskDecl, error) {
	var tasks []ast.TaskDecl
	for !p.at(lexer.TokEOF) {
		t, err := p.parseTaskDecl()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// parseTaskDecl parses `task T { step S1 { ... } ... [on_complete: ...] }`.
func (p *parser) parseTaskDecl() (ast.TaskDecl, error) {
	loc := p.cur().Loc
	if _, err := p.expect(lexer.TokKwTask, "'task'"); err != nil {
		return ast.TaskDecl{}, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return ast.TaskDecl{}, err
	}
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return ast.TaskDecl{}, err
	}

	task := ast.TaskDecl{Name: name.Text, Loc: loc}
	for p.at(lexer.TokKwStep) {
		step, err := p.parseStepDecl()
		if err != nil {
			return ast.TaskDecl{}, err
		}
		task.Steps = append(task.Steps, step)
	}

	if p.at(lexer.TokKwOnComplete) {
		oc, err := p.parseOnComplete()
		if err != nil {
			return ast.TaskDecl{}, err
		}
		task.OnComplete = &oc
	}

	if _, err := p.expect(lexer.TokRBrace, "'}'"); err != nil {
		return ast.TaskDecl{}, err
	}
	return task, nil
}

// parseOnComplete parses `on_complete: goto T` or `on_complete: unreachable`.
func (p *parser) parseOnComplete() (ast.OnComplete, error) {
	loc := p.cur().Loc
	p.advance() // "on_complete"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.OnComplete{}, err
	}
	if p.at(lexer.TokKwUnreachable) {
		p.advance()
		return ast.OnComplete{Unreachable: true, Loc: loc}, nil
	}
	if _, err := p.expect(lexer.TokKwGoto, "'goto' or 'unreachable'"); err != nil {
		return ast.OnComplete{}, err
	}
	target, err := p.expectIdent()
	if err != nil {
		return ast.OnComplete{}, err
	}
	return ast.OnComplete{GotoTask: target.Text, Loc: loc}, nil
}

// parseStepDecl parses `step S { ... }`. The body admits, in any
// order: repeated `action:` lines, at most one `wait:` (with an
// optional `timeout:` sibling), `allow_indefinite_wait` (bare, or
// followed by `: true` / `: false`), a `parallel` block, a `race`
// block, or a bare `goto` - wait, parallel, race, and goto are
// mutually exclusive with each other but may accompany actions.
func (p *parser) parseStepDecl() (ast.StepDecl, error) {
	loc := p.cur().Loc
	p.advance() // "step"
	name, err := p.expectIdent()
	if err != nil {
		return ast.StepDecl{}, err
	}
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return ast.StepDecl{}, err
	}

	step := ast.StepDecl{Name: name.Text, Loc: loc}
	for !p.at(lexer.TokRBrace) {
		switch p.cur().Type {
		case lexer.TokKwWait, lexer.TokKwParallel, lexer.TokKwRace, lexer.TokKwGoto:
			if step.Wait != nil || step.Parallel != nil || step.Race != nil || step.Goto != "" {
				return ast.StepDecl{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("step %q may have only one wait, parallel, race, or goto body", step.Name)}
			}
		}
		switch p.cur().Type {
		case lexer.TokKwAction:
			a, err := p.parseActionDecl()
			if err != nil {
				return ast.StepDecl{}, err
			}
			step.Actions = append(step.Actions, a)
		case lexer.TokKwWait:
			w, err := p.parseWaitDecl()
			if err != nil {
				return ast.StepDecl{}, err
			}
			step.Wait = &w
		case lexer.TokKwAllowIndefiniteWait:
			p.advance()
			step.AllowIndefiniteWait = true
			if p.at(lexer.TokColon) {
				p.advance()
				switch p.cur().Type {
				case lexer.TokKwTrue:
				case lexer.TokKwFalse:
					step.AllowIndefiniteWait = false
				default:
					return ast.StepDecl{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected true or false after allow_indefinite_wait:, got %q", p.cur().Text)}
				}
				p.advance()
			}
		case lexer.TokKwParallel:
			par, err := p.parseParallelDecl()
			if err != nil {
				return ast.StepDecl{}, err
			}
			step.Parallel = &par
		case lexer.TokKwRace:
			race, err := p.parseRaceDecl()
			if err != nil {
				return ast.StepDecl{}, err
			}
			step.Race = &race
		case lexer.TokKwGoto:
			p.advance()
			target, err := p.expectIdent()
			if err != nil {
				return ast.StepDecl{}, err
			}
			step.Goto = target.Text
		default:
			return ast.StepDecl{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("unexpected %q inside step body", p.cur().Text)}
		}
	}
	if _, err := p.expect(lexer.TokRBrace, "'}'"); err != nil {
		return ast.StepDecl{}, err
	}
	return step, nil
}

// parseActionDecl parses one `action: <verb> ...` line.
func (p *parser) parseActionDecl() (ast.ActionDecl, error) {
	loc := p.cur().Loc
	p.advance() // "action"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.ActionDecl{}, err
	}

	switch p.cur().Type {
	case lexer.TokKwExtend, lexer.TokKwRetract:
		verb := ast.ActionExtend
		if p.cur().Type == lexer.TokKwRetract {
			verb = ast.ActionRetract
		}
		p.advance()
		target, err := p.expectIdent()
		if err != nil {
			return ast.ActionDecl{}, err
		}
		return ast.ActionDecl{Verb: verb, Target: target.Text, Loc: loc}, nil

	case lexer.TokKwSet:
		p.advance()
		target, err := p.expectIdent()
		if err != nil {
			return ast.ActionDecl{}, err
		}
		var state string
		switch p.cur().Type {
		case lexer.TokKwTrue:
			state = "on"
			p.advance()
		case lexer.TokKwFalse:
			state = "off"
			p.advance()
		case lexer.TokIdent:
			tok := p.advance()
			state = tok.Text
		default:
			return ast.ActionDecl{}, &Error{Loc: p.cur().Loc, Msg: fmt.Sprintf("expected 'on'/'off' after set target, got %q", p.cur().Text)}
		}
		return ast.ActionDecl{Verb: ast.ActionSet, Target: target.Text, State: state, Loc: loc}, nil

	case lexer.TokKwLog:
		p.advance()
		tok, err := p.expect(lexer.TokString, "a quoted log message")
		if err != nil {
			return ast.ActionDecl{}, err
		}
		return ast.ActionDecl{Verb: ast.ActionLog, Text: tok.Str, Loc: loc}, nil

	default:
		return ast.ActionDecl{}, &Error{Loc: loc, Msg: fmt.Sprintf("expected extend, retract, set, or log, got %q", p.cur().Text)}
	}
}

// parseWaitDecl parses `wait: <expr>` with an optional trailing
// `timeout: Nms -> goto T`.
func (p *parser) parseWaitDecl() (ast.WaitDecl, error) {
	loc := p.cur().Loc
	p.advance() // "wait"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.WaitDecl{}, err
	}
	cond, err := p.parseStateExpr()
	if err != nil {
		return ast.WaitDecl{}, err
	}
	wait := ast.WaitDecl{Cond: cond, Loc: loc}
	if p.at(lexer.TokKwTimeout) {
		t, err := p.parseTimeoutDecl()
		if err != nil {
			return ast.WaitDecl{}, err
		}
		wait.Timeout = &t
	}
	return wait, nil
}

// parseTimeoutDecl parses `timeout: Nms -> goto T`.
func (p *parser) parseTimeoutDecl() (ast.TimeoutDecl, error) {
	loc := p.cur().Loc
	p.advance() // "timeout"
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.TimeoutDecl{}, err
	}
	durTok, err := p.expect(lexer.TokDuration, "a duration literal (e.g. 500ms)")
	if err != nil {
		return ast.TimeoutDecl{}, err
	}
	if _, err := p.expect(lexer.TokArrow, "'->'"); err != nil {
		return ast.TimeoutDecl{}, err
	}
	if _, err := p.expect(lexer.TokKwGoto, "'goto'"); err != nil {
		return ast.TimeoutDecl{}, err
	}
	target, err := p.expectIdent()
	if err != nil {
		return ast.TimeoutDecl{}, err
	}
	return ast.TimeoutDecl{MS: durTok.DurationMS, GotoTask: target.Text, Loc: loc}, nil
}

// parseParallelDecl parses `parallel { branch_1: { step ... } ... }`.
func (p *parser) parseParallelDecl() (ast.ParallelDecl, error) {
	loc := p.cur().Loc
	p.advance() // "parallel"
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return ast.ParallelDecl{}, err
	}
	var branches []ast.BranchDecl
	for !p.at(lexer.TokRBrace) {
		b, err := p.parseBranchDecl()
		if err != nil {
			return ast.ParallelDecl{}, err
		}
		branches = append(branches, b)
	}
	if _, err := p.expect(lexer.TokRBrace, "'}'"); err != nil {
		return ast.ParallelDecl{}, err
	}
	if len(branches) < 2 {
		return ast.ParallelDecl{}, &Error{Loc: loc, Msg: "parallel block needs at least two branches"}
	}
	return ast.ParallelDecl{Branches: branches, Loc: loc}, nil
}

// parseBranchDecl parses `branch_name: { step S1 { ... } ... }`.
func (p *parser) parseBranchDecl() (ast.BranchDecl, error) {
	loc := p.cur().Loc
	name, err := p.expectIdent()
	if err != nil {
		return ast.BranchDecl{}, err
	}
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.BranchDecl{}, err
	}
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return ast.BranchDecl{}, err
	}
	var steps []ast.StepDecl
	for p.at(lexer.TokKwStep) {
		s, err := p.parseStepDecl()
		if err != nil {
			return ast.BranchDecl{}, err
		}
		steps = append(steps, s)
	}
	if _, err := p.expect(lexer.TokRBrace, "'}'"); err != nil {
		return ast.BranchDecl{}, err
	}
	return ast.BranchDecl{Name: name.Text, Steps: steps, Loc: loc}, nil
}

// parseRaceDecl parses `race { branch_name: wait: <expr> then: goto T ... [timeout: Nms -> goto T] }`.
func (p *parser) parseRaceDecl() (ast.RaceDecl, error) {
	loc := p.cur().Loc
	p.advance() // "race"
	if _, err := p.expect(lexer.TokLBrace, "'{'"); err != nil {
		return ast.RaceDecl{}, err
	}
	race := ast.RaceDecl{Loc: loc}
	for !p.at(lexer.TokRBrace) {
		if p.at(lexer.TokKwTimeout) {
			t, err := p.parseTimeoutDecl()
			if err != nil {
				return ast.RaceDecl{}, err
			}
			race.Timeout = &t
			continue
		}
		b, err := p.parseRaceBranchDecl()
		if err != nil {
			return ast.RaceDecl{}, err
		}
		race.Branches = append(race.Branches, b)
	}
	if _, err := p.expect(lexer.TokRBrace, "'}'"); err != nil {
		return ast.RaceDecl{}, err
	}
	if len(race.Branches) < 2 {
		return ast.RaceDecl{}, &Error{Loc: loc, Msg: "race block needs at least two branches"}
	}
	return race, nil
}

// parseRaceBranchDecl parses `branch_name: wait: <expr> then: goto T`.
func (p *parser) parseRaceBranchDecl() (ast.RaceBranchDecl, error) {
	loc := p.cur().Loc
	name, err := p.expectIdent()
	if err != nil {
		return ast.RaceBranchDecl{}, err
	}
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.RaceBranchDecl{}, err
	}
	wait, err := p.parseWaitDecl()
	if err != nil {
		return ast.RaceBranchDecl{}, err
	}
	if _, err := p.expect(lexer.TokKwThen, "'then'"); err != nil {
		return ast.RaceBranchDecl{}, err
	}
	if _, err := p.expect(lexer.TokColon, "':'"); err != nil {
		return ast.RaceBranchDecl{}, err
	}
	if _, err := p.expect(lexer.TokKwGoto, "'goto'"); err != nil {
		return ast.RaceBranchDecl{}, err
	}
	target, err := p.expectIdent()
	if err != nil {
		return ast.RaceBranchDecl{}, err
	}
	return ast.RaceBranchDecl{Name: name.Text, Wait: wait, Then: target.Text, Loc: loc}, nil
}
