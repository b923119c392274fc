package verify

import (
	"fmt"
	"sort"

	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

// SafetyLevel mirrors the stable report level tokens; all four engines'
// results use it.
type SafetyLevel string

const (
	LevelCompleteProof  SafetyLevel = "完备证明"
	LevelBoundedVerify  SafetyLevel = "有界验证"
	LevelPass           SafetyLevel = "通过"
	LevelFail           SafetyLevel = "失败"
)

// SafetyResult is what the Safety engine contributes to the report.
type SafetyResult struct {
	Level         SafetyLevel
	ExploredDepth int
	Diagnostics   []diag.Diagnostic
}

// Safety checks every `conflicts_with`/`requires` constraint against
// the reachable composite-state space: exhaustive reachability under
// exhaustiveThreshold composite states, escalating to depth-bounded
// model checking (BMC) up to bmcMaxDepth when the threshold is
// exceeded, per spec §9's state-space design note.
func Safety(m *ir.StateMachine, cs []ir.SafetyConstraint, exhaustiveThreshold, bmcMaxDepth int) SafetyResult {
	if len(cs) == 0 {
		// Nothing to violate: the (empty) constraint set holds vacuously.
		return SafetyResult{Level: LevelCompleteProof}
	}

	start := initialConfig(m)
	res := explore(m, start, exhaustiveThreshold)

	var violations []diag.Diagnostic
	for _, c := range cs {
		violations = append(violations, checkSafetyConstraint(c, res)...)
	}
	sort.SliceStable(violations, func(i, j int) bool { return diag.Less(violations[i], violations[j]) })

	if len(violations) > 0 {
		return SafetyResult{Level: LevelFail, ExploredDepth: res.Depth, Diagnostics: violations}
	}
	if res.Exhaustive {
		return SafetyResult{Level: LevelCompleteProof, ExploredDepth: res.Depth}
	}

	// Threshold exceeded: fall back to depth-bounded exploration
	// (BMC) instead of claiming a complete proof we didn't establish.
	bounded := exploreToDepth(m, start, bmcMaxDepth)
	var boundedViolations []diag.Diagnostic
	for _, c := range cs {
		boundedViolations = append(boundedViolations, checkSafetyConstraint(c, bounded)...)
	}
	sort.SliceStable(boundedViolations, func(i, j int) bool { return diag.Less(boundedViolations[i], boundedViolations[j]) })
	if len(boundedViolations) > 0 {
		return SafetyResult{Level: LevelFail, ExploredDepth: bmcMaxDepth, Diagnostics: boundedViolations}
	}
	return SafetyResult{Level: LevelBoundedVerify, ExploredDepth: bmcMaxDepth}
}

// checkSafetyConstraint scans every visited configuration for a
// violation of c, returning at most one diagnostic (the first
// violating configuration found, in deterministic visit order) whose
// Analyses carry the full counterexample trace from the start
// configuration to the one where the conflict is first observed, per
// §4.3's (state -> state) edge list with guard/action annotations.
func checkSafetyConstraint(c ir.SafetyConstraint, res exploreResult) []diag.Diagnostic {
	for _, key := range res.Order {
		cfg := res.Visited[key]
		left := evalExpr(c.Left, cfg.Facts)
		var bad bool
		switch c.Rel {
		case "conflicts_with":
			bad = left && evalExpr(c.Right, cfg.Facts)
		case "requires":
			bad = left && !evalExpr(c.Right, cfg.Facts)
		}
		if bad {
			cause := c.Reason
			if cause == "" {
				cause = fmt.Sprintf("%s and the %s side of the constraint hold simultaneously", c.Left.Ref, c.Rel)
			}
			d := diag.Diagnostic{
				Kind:    diag.KindSafety,
				Engine:  diag.EngineSafety,
				Loc:     c.Loc,
				Summary: fmt.Sprintf("%s %s %s violated", c.Left.Ref, c.Rel, c.Right.Ref),
				Causes:  []string{cause},
				Analyses: append(traceAnalyses(res.trace(key)),
					fmt.Sprintf("violation reached at composite state with active tokens %v", tokenList(cfg))),
				Suggestion: "serialize the two conflicting actions or add a mutual interlock",
			}
			return []diag.Diagnostic{d}
		}
	}
	return nil
}

// traceAnalyses renders a counterexample path as one line per edge:
// the state transition, the guard that let it fire, and any action
// issued on entry to the target state.
func traceAnalyses(trace []traceEdge) []string {
	lines := make([]string, 0, len(trace))
	for _, e := range trace {
		line := fmt.Sprintf("%s -> %s", e.From, e.To)
		if e.Guard != nil {
			line += fmt.Sprintf(" (guard: %s)", e.Guard.Ref)
		}
		for _, a := range e.Actions {
			line += fmt.Sprintf(" [action: %s %s]", a.Verb, a.Target)
		}
		lines = append(lines, line)
	}
	return lines
}

func tokenList(cfg Config) []string {
	var names []string
	for n := range cfg.Tokens {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// exploreToDepth is explore without a state-count cap, stopping
// strictly by BFS depth - used once the exhaustive threshold has
// already been exceeded, so state count is no longer the bound we
// care about.
func exploreToDepth(m *ir.StateMachine, start Config, maxDepth int) exploreResult {
	res := exploreResult{Visited: make(map[string]Config), Pred: make(map[string]predLink)}
	startKey := start.Key()
	res.Visited[startKey] = start
	res.Order = append(res.Order, startKey)
	frontier := []Config{start}
	frontierKeys := []string{startKey}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		res.Depth = depth + 1
		var next []Config
		var nextKeys []string
		for i, cfg := range frontier {
			for _, se := range successors(m, cfg) {
				k := se.Config.Key()
				if _, seen := res.Visited[k]; seen {
					continue
				}
				res.Visited[k] = se.Config
				res.Pred[k] = predLink{ParentKey: frontierKeys[i], Edge: se.Edge}
				res.Order = append(res.Order, k)
				next = append(next, se.Config)
				nextKeys = append(nextKeys, k)
			}
		}
		frontier = next
		frontierKeys = nextKeys
	}
	return res
}
