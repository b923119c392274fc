// Package lower performs semantic analysis: it walks a parsed
// ast.File and produces the ir package's resolved representation, or
// a set of semantic diagnostics. Following spec's propagation policy,
// lowering never stops at the first error - it keeps analyzing so the
// caller sees every detected problem in one pass, the way
// kripke.Graph's construction helpers are unconditional (panicking
// only on true programmer error, never on malformed input) while this
// package instead accumulates diag.Diagnostic values.
package lower

import (
	"sort"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

// Result is everything a successful-enough lowering produced: the IR
// is always returned (possibly partial) alongside any diagnostics, so
// callers needing best-effort output (e.g. the diagram renderer) can
// use it even when semantic errors were found. Compile itself treats
// any non-empty Diagnostics as fatal to verification, per spec §7.
type Result struct {
	Topology    *ir.TopologyGraph
	Machine     *ir.StateMachine
	Constraints ir.ConstraintSet
	Timing      *ir.TimingModel
	Diagnostics []diag.Diagnostic
}

// Lower performs the full AST-to-IR analysis.
func Lower(f *ast.File) Result {
	l := &lowerer{
		devices: ir.NewTopologyGraph(),
		machine: ir.NewStateMachine(),
	}
	l.lowerTopology(f.Topology)
	l.timing = ir.NewTimingModel(l.devices)
	l.lowerTasks(f.Tasks)
	l.lowerConstraints(f.Constraints)

	sort.SliceStable(l.diags, func(i, j int) bool { return diag.Less(l.diags[i], l.diags[j]) })

	return Result{
		Topology:    l.devices,
		Machine:     l.machine,
		Constraints: l.constraints,
		Timing:      l.timing,
		Diagnostics: l.diags,
	}
}

type lowerer struct {
	devices     *ir.TopologyGraph
	machine     *ir.StateMachine
	constraints ir.ConstraintSet
	timing      *ir.TimingModel
	diags       []diag.Diagnostic

	// knownStates is never populated or read: validateStateExpr checks
	// only the device head of a dotted reference (e.g. "cyl_A" in
	// "cyl_A.extended").
	knownStates map[string]bool
}

func (l *lowerer) errorf(loc ast.Location, summary, cause, suggestion string) {
	l.diags = append(l.diags, diag.New(diag.KindSemantic, diag.EngineAnalyzer, loc, summary, cause, "", suggestion))
}

func semanticErr(loc ast.Location, summary, cause, suggestion string) diag.Diagnostic {
	return diag.New(diag.KindSemantic, diag.EngineAnalyzer, loc, summary, cause, "", suggestion)
}

func dottedHead(ref string) string {
	for i, r := range ref {
		if r == '.' {
			return ref[:i]
		}
	}
	return ref
}
