package verify

import (
	"fmt"
	"sort"

	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

// LivenessResult is what the Liveness engine contributes to the report.
type LivenessResult struct {
	Level       SafetyLevel // 通过 or 失败; liveness never reaches a proof/bounded distinction
	Diagnostics []diag.Diagnostic
}

// Liveness checks the structural properties of the desugared state
// graph that don't depend on device facts: missing-timeout waits,
// dead-end states, invalid `unreachable` claims, and trapping SCCs
// (Tarjan's algorithm, the standard choice kripke.Graph itself does
// not need since its own model checking works property-by-property
// rather than via raw graph decomposition).
func Liveness(m *ir.StateMachine) LivenessResult {
	var diags []diag.Diagnostic
	diags = append(diags, checkMissingTimeouts(m)...)
	diags = append(diags, checkDeadEnds(m)...)
	diags = append(diags, checkUnreachableClaims(m)...)
	diags = append(diags, checkTrappingSCCs(m)...)

	sort.SliceStable(diags, func(i, j int) bool { return diag.Less(diags[i], diags[j]) })

	level := LevelPass
	if len(diags) > 0 {
		level = LevelFail
	}
	return LivenessResult{Level: level, Diagnostics: diags}
}

func checkMissingTimeouts(m *ir.StateMachine) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, name := range m.Order {
		st := m.States[name]
		hasWait, hasTimeout := false, false
		for _, t := range st.Outgoing {
			if t.Kind == ir.TransWaitSatisfied {
				hasWait = true
			}
			if t.Kind == ir.TransTimeout {
				hasTimeout = true
			}
		}
		if hasWait && !hasTimeout && !st.AllowIndefiniteWait {
			out = append(out, diag.New(diag.KindLiveness, diag.EngineLiveness, st.Loc,
				fmt.Sprintf("wait in state %q has no timeout", name),
				"a wait without a timeout sibling and without allow_indefinite_wait can block the controller forever",
				"",
				"add a `timeout: Nms -> goto ...` sibling, or declare allow_indefinite_wait"))
		}
	}
	return out
}

func checkDeadEnds(m *ir.StateMachine) []diag.Diagnostic {
	var out []diag.Diagnostic
	doneStates := make(map[string]bool)
	for _, t := range m.Tasks {
		doneStates[t.Name+".__done__"] = true
	}
	for _, name := range m.Order {
		st := m.States[name]
		if len(st.Outgoing) == 0 && !doneStates[name] {
			out = append(out, diag.New(diag.KindLiveness, diag.EngineLiveness, st.Loc,
				fmt.Sprintf("state %q has no outgoing transition and is not a task's completion state", name),
				"every non-terminal state must make progress",
				"",
				"add an action, wait, or goto so this state cannot dead-end the controller"))
		}
	}
	return out
}

// checkUnreachableClaims flags a task whose on_complete: unreachable
// claim is false: its completion state is structurally reachable
// (ignoring guards - an optimistic over-approximation, since the
// claim must hold under every possible device-fact history, not just
// one).
func checkUnreachableClaims(m *ir.StateMachine) []diag.Diagnostic {
	var out []diag.Diagnostic
	reach := structuralReachable(m)
	for _, taskName := range m.TaskOrder {
		t := m.Tasks[taskName]
		if !t.ClaimsUnreachable {
			continue
		}
		done := taskName + ".__done__"
		if reach[done] {
			out = append(out, diag.New(diag.KindLiveness, diag.EngineLiveness, t.Loc,
				fmt.Sprintf("task %q claims on_complete: unreachable but its completion state is reachable", taskName),
				"a wait_satisfied/timeout/goto path structurally reaches this task's completion state",
				"",
				"change on_complete to `goto <task>`, or restructure so completion truly cannot occur"))
		}
	}
	return out
}

// structuralReachable computes forward reachability over the plain
// state graph from every task's entry state, ignoring guards - the
// same graph shape Safety's composite exploration refines with facts.
func structuralReachable(m *ir.StateMachine) map[string]bool {
	seen := make(map[string]bool)
	var queue []string
	for _, taskName := range m.TaskOrder {
		entry := m.Tasks[taskName].EntryState
		if entry != "" && !seen[entry] {
			seen[entry] = true
			queue = append(queue, entry)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		st := m.States[cur]
		if st == nil {
			continue
		}
		for _, t := range st.Outgoing {
			if !seen[t.Target] {
				seen[t.Target] = true
				queue = append(queue, t.Target)
			}
		}
	}
	return seen
}
