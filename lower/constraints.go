package lower

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/ir"
)

// lowerConstraints resolves every [constraints] item against the
// already-lowered topology and state machine: state-expr references
// must name known devices, timing scopes must name known task/step
// pairs, and causality chains are kept as-is for the Causality engine
// to walk against the TopologyGraph.
func (l *lowerer) lowerConstraints(decls []ast.ConstraintDecl) {
	for _, c := range decls {
		switch c.Kind {
		case ast.ConstraintSafety:
			l.validateStateExpr(c.SafetyLeft)
			l.validateStateExpr(c.SafetyRight)
			l.constraints.Safety = append(l.constraints.Safety, ir.SafetyConstraint{
				Left: c.SafetyLeft, Right: c.SafetyRight, Rel: c.SafetyRel, Reason: c.Reason, Loc: c.Loc,
			})

		case ast.ConstraintTiming:
			if !l.validateScope(c.TimingScope) {
				continue
			}
			l.constraints.Timing = append(l.constraints.Timing, ir.TimingConstraint{
				Task: c.TimingScope.Task, Step: c.TimingScope.Step,
				Rel: c.TimingRel, BoundMS: c.TimingMS, Reason: c.Reason, Loc: c.Loc,
			})

		case ast.ConstraintCausality:
			for _, dev := range c.CausalityChain {
				if _, ok := l.devices.Devices[dev]; !ok {
					l.errorf(c.Loc, fmt.Sprintf("causality chain names undeclared device %q", dev),
						"every device in a causality chain must be declared in [topology]",
						fmt.Sprintf("declare %q or fix the typo", dev))
				}
			}
			l.constraints.Causality = append(l.constraints.Causality, ir.CausalityConstraint{
				Chain: c.CausalityChain, Reason: c.Reason, Loc: c.Loc,
			})
		}
	}
}

// validateScope checks that a `task.T` or `task.T.step.S` scope
// reference names a declared task and, if given, a step inside it.
func (l *lowerer) validateScope(scope ast.ScopeRef) bool {
	task, ok := l.machine.Tasks[scope.Task]
	if !ok {
		l.errorf(scope.Loc, fmt.Sprintf("timing constraint names undeclared task %q", scope.Task),
			"a timing scope's task must be declared in [tasks]",
			fmt.Sprintf("declare task %q or fix the typo", scope.Task))
		return false
	}
	if scope.Step == "" {
		return true
	}
	name := task.Name + "." + scope.Step
	if _, ok := l.machine.States[name]; !ok {
		l.errorf(scope.Loc, fmt.Sprintf("timing constraint names undeclared step %q of task %q", scope.Step, scope.Task),
			"a timing scope's step must be declared inside that task",
			fmt.Sprintf("declare step %q or fix the typo", scope.Step))
		return false
	}
	return true
}

// knownExprIdents are identifiers a state expression may reference
// that are not device names - timer-like pseudo-variables available
// inside wait/race guards.
var knownExprIdents = map[string]bool{
	"elapsed": true,
}

// validateStateExpr recursively checks that every reference in a
// state expression names either a known pseudo-identifier or a
// declared device (optionally dotted with a state suffix).
func (l *lowerer) validateStateExpr(e ast.StateExpr) {
	switch e.Op {
	case ast.ExprRef, ast.ExprCompare:
		head := dottedHead(e.Ref)
		if knownExprIdents[head] {
			return
		}
		if _, ok := l.devices.Devices[head]; !ok {
			l.errorf(e.Loc, fmt.Sprintf("reference to undeclared device %q", head),
				"state expressions may only reference declared devices, their dotted states, or 'elapsed'",
				fmt.Sprintf("declare %q or fix the typo", head))
		}
	case ast.ExprNot, ast.ExprAnd, ast.ExprOr:
		for _, sub := range e.Sub {
			l.validateStateExpr(sub)
		}
	}
}
