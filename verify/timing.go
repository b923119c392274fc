package verify

import (
	"fmt"
	"sort"

	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

// TimingResult is what the Timing engine contributes to the report.
type TimingResult struct {
	Level       SafetyLevel // 通过 or 失败; timing never reaches a proof/bounded distinction
	Diagnostics []diag.Diagnostic
}

// Timing checks every `must_complete_within`/`must_start_after`
// constraint by critical-path analysis over the desugared graph:
// worst-case (longest-path) for an upper bound, best-case
// (shortest-path) for a lower bound. A timing scope that contains a
// loop gets a warning once per state where a back-edge is cut, rather than an unbounded
// or wrong answer (Open Question 2's resolution). When warnUndeclared
// is set (config.TreatUndeclaredTimingAsWarning), every action whose
// driving device left its timing attribute undeclared also gets a
// warning, per §4.5's edge case.
func Timing(m *ir.StateMachine, tm *ir.TimingModel, cs []ir.TimingConstraint, warnUndeclared bool) TimingResult {
	var diags []diag.Diagnostic
	for _, c := range cs {
		diags = append(diags, checkTimingConstraint(m, tm, c)...)
	}
	if warnUndeclared {
		diags = append(diags, checkUndeclaredTiming(m, tm)...)
	}
	sort.SliceStable(diags, func(i, j int) bool { return diag.Less(diags[i], diags[j]) })

	level := LevelPass
	for _, d := range diags {
		if d.Kind == diag.KindTiming {
			level = LevelFail
			break
		}
	}
	return TimingResult{Level: level, Diagnostics: diags}
}

func checkTimingConstraint(m *ir.StateMachine, tm *ir.TimingModel, c ir.TimingConstraint) []diag.Diagnostic {
	task, ok := m.Tasks[c.Task]
	if !ok {
		return nil
	}

	switch c.Rel {
	case "must_complete_within":
		return checkMustCompleteWithin(m, tm, task, c)
	case "must_start_after":
		return checkMustStartAfter(m, tm, task, c)
	}
	return nil
}

// checkMustCompleteWithin measures a step's own worst-case duration:
// the time to arrive at the step (zero when the scope names the
// task's own entry step) plus the step's action duration plus its
// slowest non-timeout outgoing edge - the normal completion path.
// A timeout edge is a separate, mutually exclusive fault escape (it
// fires only when the normal path did not), not part of this step's
// own completion time, so it is excluded here. A task-scoped
// constraint (no named step) instead measures the whole task, entry to
// __done__, since there is no single step to land on first.
func checkMustCompleteWithin(m *ir.StateMachine, tm *ir.TimingModel, task *ir.Task, c ir.TimingConstraint) []diag.Diagnostic {
	var out []diag.Diagnostic
	var worst uint32
	// longest counts the actions of every state it enters, the scope's
	// own step included, but not those of the entry state it starts from.
	entryCost := tm.StateDuration(m.States[task.EntryState])

	if c.Step == "" {
		cp := newCriticalPath(m, tm, task.Name+".__done__")
		w, cut := cp.longest(task.EntryState)
		out = append(out, cut...)
		worst = entryCost + w
	} else {
		stepState := task.Name + "." + c.Step
		cp := newCriticalPath(m, tm, stepState)
		arrival, cut := cp.longest(task.EntryState)
		out = append(out, cut...)

		st := m.States[stepState]
		var exitCost uint32
		for _, t := range st.Outgoing {
			if t.Kind == ir.TransTimeout {
				continue
			}
			if t.DurationMS > exitCost {
				exitCost = t.DurationMS
			}
		}
		worst = entryCost + arrival + exitCost
	}

	if worst > c.BoundMS {
		cause := c.Reason
		if cause == "" {
			cause = fmt.Sprintf("worst-case completion is %dms", worst)
		}
		out = append(out, diag.New(diag.KindTiming, diag.EngineTiming, c.Loc,
			fmt.Sprintf("%s must_complete_within %dms violated", scopeLabel(c), c.BoundMS),
			cause,
			fmt.Sprintf("critical path sums to %dms against a %dms bound", worst, c.BoundMS),
			"raise the bound, shorten the critical path, or split the scope"))
	}
	return out
}

// checkMustStartAfter measures the fastest possible arrival at the
// scope (the named step, or the whole task's __done__) from the
// task's entry - a step cannot legitimately begin before this bound.
func checkMustStartAfter(m *ir.StateMachine, tm *ir.TimingModel, task *ir.Task, c ir.TimingConstraint) []diag.Diagnostic {
	target := task.Name + ".__done__"
	if c.Step != "" {
		target = task.Name + "." + c.Step
	}
	cp := newCriticalPath(m, tm, target)
	fastest := cp.shortest(task.EntryState)
	if fastest < uint64(c.BoundMS) {
		cause := c.Reason
		if cause == "" {
			cause = fmt.Sprintf("fastest possible arrival is %dms", fastest)
		}
		return []diag.Diagnostic{diag.New(diag.KindTiming, diag.EngineTiming, c.Loc,
			fmt.Sprintf("%s must_start_after %dms violated", scopeLabel(c), c.BoundMS),
			cause,
			fmt.Sprintf("best-case arrival is %dms, short of the required %dms", fastest, c.BoundMS),
			"add a wait/delay before this step, or lower the required bound")}
	}
	return nil
}

// checkUndeclaredTiming walks every state's actions, warning once per
// action whose driving device contributes 0ms only because it left a
// relevant timing attribute undeclared (as opposed to a legitimately
// instantaneous action like set/log), per §4.5.
func checkUndeclaredTiming(m *ir.StateMachine, tm *ir.TimingModel) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, name := range m.Order {
		st := m.States[name]
		for _, a := range st.Actions {
			if !tm.ActionDurationUndeclared(a) {
				continue
			}
			out = append(out, diag.New(diag.KindWarning, diag.EngineTiming, a.Loc,
				fmt.Sprintf("action %s %s has no declared timing and contributes 0ms", a.Verb, a.Target),
				fmt.Sprintf("%s declares no ramp_time attribute", a.Target),
				"worst-case analysis treats this action as instantaneous",
				fmt.Sprintf("declare a ramp_time on %s, or ignore if it is genuinely instantaneous", a.Target)))
		}
	}
	return out
}

func scopeLabel(c ir.TimingConstraint) string {
	if c.Step == "" {
		return "task." + c.Task
	}
	return "task." + c.Task + ".step." + c.Step
}

// criticalPath answers longest-path/shortest-path queries to a single
// fixed target state, memoized per query since a TimingConstraint set
// typically asks about a handful of distinct targets, not every state.
type criticalPath struct {
	m       *ir.StateMachine
	tm      *ir.TimingModel
	target  string
	reach   map[string]bool // states that can reach target at all
	longMemo  map[string]uint32
	shortMemo map[string]uint64
	cutWarned map[string]bool
}

func newCriticalPath(m *ir.StateMachine, tm *ir.TimingModel, target string) *criticalPath {
	return &criticalPath{
		m: m, tm: tm, target: target,
		reach:     reverseReachable(m, target),
		longMemo:  make(map[string]uint32),
		shortMemo: make(map[string]uint64),
		cutWarned: make(map[string]bool),
	}
}

// reverseReachable computes every state that can reach target, via BFS
// over the reverse edge relation.
func reverseReachable(m *ir.StateMachine, target string) map[string]bool {
	rev := make(map[string][]string)
	for _, name := range m.Order {
		for _, t := range m.States[name].Outgoing {
			rev[t.Target] = append(rev[t.Target], name)
		}
	}
	seen := map[string]bool{target: true}
	queue := []string{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, pred := range rev[cur] {
			if !seen[pred] {
				seen[pred] = true
				queue = append(queue, pred)
			}
		}
	}
	return seen
}

// longest returns the worst-case milliseconds to travel from `from` to
// cp.target, only considering edges that stay on a path which
// eventually reaches the target, plus any warnings produced by cutting
// a cycle encountered along the way.
func (cp *criticalPath) longest(from string) (uint32, []diag.Diagnostic) {
	var warnings []diag.Diagnostic
	visiting := make(map[string]bool)
	var rec func(string) uint32
	rec = func(s string) uint32 {
		if s == cp.target {
			return 0
		}
		if v, ok := cp.longMemo[s]; ok {
			return v
		}
		if visiting[s] {
			if !cp.cutWarned[s] {
				cp.cutWarned[s] = true
				st := cp.m.States[s]
				warnings = append(warnings, diag.New(diag.KindWarning, diag.EngineTiming, st.Loc,
					fmt.Sprintf("timing scope contains a loop back through %q", s),
					"a cycle in this scope has no bounded iteration count",
					"",
					"the loop's contribution to the critical path was cut at this edge; verify the bound accounts for it"))
			}
			return 0
		}
		visiting[s] = true
		defer delete(visiting, s)

		st := cp.m.States[s]
		var best uint32
		found := false
		for _, t := range st.Outgoing {
			if !cp.reach[t.Target] {
				continue
			}
			edgeCost := t.DurationMS
			contrib := edgeCost + cp.tm.StateDuration(cp.m.States[t.Target]) + rec(t.Target)
			if !found || contrib > best {
				best = contrib
				found = true
			}
		}
		cp.longMemo[s] = best
		return best
	}
	v := rec(from)
	return v, warnings
}

// shortest returns the best-case milliseconds to first reach
// cp.target from `from`, via Dijkstra over non-negative edge weights
// (cycles never help minimize a shortest path, so no cutting is
// needed here).
func (cp *criticalPath) shortest(from string) uint64 {
	if v, ok := cp.shortMemo[from]; ok {
		return v
	}
	const inf = ^uint64(0)
	dist := map[string]uint64{from: 0}
	visited := make(map[string]bool)
	for {
		// pick the unvisited node with the smallest known distance
		cur, curDist := "", inf
		for n, d := range dist {
			if !visited[n] && d < curDist {
				cur, curDist = n, d
			}
		}
		if cur == "" {
			break
		}
		if cur == cp.target {
			break
		}
		visited[cur] = true
		st := cp.m.States[cur]
		for _, t := range st.Outgoing {
			target := cp.m.States[t.Target]
			if target == nil {
				continue
			}
			w := uint64(t.DurationMS) + uint64(cp.tm.StateDuration(target))
			nd := curDist + w
			if existing, ok := dist[t.Target]; !ok || nd < existing {
				dist[t.Target] = nd
			}
		}
	}
	result := dist[cp.target]
	if _, ok := dist[cp.target]; !ok {
		result = inf
	}
	cp.shortMemo[from] = result
	return result
}
