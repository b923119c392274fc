package verify

import (
	"fmt"
	"sort"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

// CausalityResult is what the Causality engine contributes to the report.
type CausalityResult struct {
	Level       SafetyLevel // 通过 or 失败
	Diagnostics []diag.Diagnostic
}

// Causality checks two families of claims against the topology's
// wiring graph: explicit `causality: D1 -> ... -> Dk` chains, and the
// implicit chain every action-then-wait pair asserts - that the output
// driving the action can physically reach the sensor the wait reads.
func Causality(m *ir.StateMachine, topo *ir.TopologyGraph, cs []ir.CausalityConstraint) CausalityResult {
	var diags []diag.Diagnostic
	for _, c := range cs {
		if d := checkCausalityChain(topo, c); d != nil {
			diags = append(diags, *d)
		}
	}
	diags = append(diags, checkImplicitChains(m, topo)...)
	sort.SliceStable(diags, func(i, j int) bool { return diag.Less(diags[i], diags[j]) })

	level := LevelPass
	if len(diags) > 0 {
		level = LevelFail
	}
	return CausalityResult{Level: level, Diagnostics: diags}
}

// checkImplicitChains walks every state with actions whose own
// wait_satisfied edge gates on a sensor: the output port driving each
// action must physically reach that sensor. The wait a step declares
// lowers onto that same step's outgoing edge (lower/tasks.go), so the
// relevant guard lives on st's own transition, not a successor's.
func checkImplicitChains(m *ir.StateMachine, topo *ir.TopologyGraph) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, name := range m.Order {
		st := m.States[name]
		if len(st.Actions) == 0 {
			continue
		}
		for _, t := range st.Outgoing {
			if t.Kind != ir.TransWaitSatisfied {
				continue
			}
			sensor := guardSensor(t.Guard)
			if sensor == "" {
				continue
			}
			for _, a := range st.Actions {
				if a.Verb != ast.ActionExtend && a.Verb != ast.ActionRetract && a.Verb != ast.ActionSet {
					continue
				}
				port := drivingOutput(topo, a.Target)
				if port == "" {
					continue // no digital_output upstream to trace from
				}
				if topo.Reachable(port)[sensor] {
					continue
				}
				out = append(out, diag.New(diag.KindCausality, diag.EngineCausality, t.Loc,
					fmt.Sprintf("action %s %s has no physical path to sensor %s it is awaited on", a.Verb, a.Target, sensor),
					fmt.Sprintf("no connected_to/detects path from %s to %s", port, sensor),
					fmt.Sprintf("expected chain %s -> ... -> %s -> %s", port, a.Target, sensor),
					fmt.Sprintf("wire %s toward %s, e.g. add a connected_to/detects edge", a.Target, sensor)))
			}
		}
	}
	return out
}

// guardSensor returns the device name a wait_satisfied guard reads, if
// it is a direct/compare reference to one, else "".
func guardSensor(g *ast.StateExpr) string {
	if g == nil {
		return ""
	}
	switch g.Op {
	case ast.ExprRef, ast.ExprCompare:
		return dottedHead(g.Ref)
	}
	return ""
}

func dottedHead(ref string) string {
	for i, r := range ref {
		if r == '.' {
			return ref[:i]
		}
	}
	return ref
}

// drivingOutput walks upstream via connected_to from dev until it
// finds a digital_output device, returning "" if none is wired.
func drivingOutput(topo *ir.TopologyGraph, dev string) string {
	seen := make(map[string]bool)
	cur := dev
	for cur != "" && !seen[cur] {
		seen[cur] = true
		d, ok := topo.Devices[cur]
		if !ok {
			return ""
		}
		if d.Kind == ast.KindDigitalOutput {
			return d.Name
		}
		cur = d.ConnectedTo
	}
	return ""
}

func checkCausalityChain(topo *ir.TopologyGraph, c ir.CausalityConstraint) *diag.Diagnostic {
	for i := 0; i+1 < len(c.Chain); i++ {
		from, to := c.Chain[i], c.Chain[i+1]
		if directlyWired(topo, from, to) {
			continue
		}
		cause := c.Reason
		if cause == "" {
			cause = fmt.Sprintf("no connected_to/detects edge links %s directly to %s", from, to)
		}
		d := diag.New(diag.KindCausality, diag.EngineCausality, c.Loc,
			fmt.Sprintf("causality chain %s is broken between %s and %s", chainLabel(c.Chain), from, to),
			cause,
			fmt.Sprintf("chain requires %s -> %s but no such wiring exists", from, to),
			fmt.Sprintf("add `connected_to: %s` to %s, or correct the chain", from, to))
		return &d
	}
	return nil
}

func directlyWired(topo *ir.TopologyGraph, from, to string) bool {
	for _, d := range topo.Downstream(from) {
		if d == to {
			return true
		}
	}
	return false
}

func chainLabel(chain []string) string {
	out := ""
	for i, d := range chain {
		if i > 0 {
			out += " -> "
		}
		out += d
	}
	return out
}
