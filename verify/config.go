// Package verify implements the four independent verification engines
// - Safety, Liveness, Timing, Causality - each a pure function from
// ir + ir.ConstraintSet to a slice of diag.Diagnostic. Safety uses the
// composite-state exploration in this file (Liveness works on the plain
// state graph instead): the
// "control configuration" is a multiset of active state tokens (more
// than one only while inside a parallel region) paired with the
// global device-fact map that every action mutates, generalizing
// kripke.Graph's single-token reachability to the fork/join structure
// parallel/race desugars into.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/ir"
)

// Facts is the global device-state snapshot: keys are "<device>.<attr>"
// (e.g. "cyl_A.extended"), values are the most recent boolean written
// by an action. Facts persist across the whole configuration; there is
// exactly one, shared by every active token, matching how physical
// device state is global regardless of which task last touched it.
type Facts map[string]bool

// Config is one node of the composite reachability graph: the active
// token multiset (state name -> count) plus Facts.
type Config struct {
	Tokens map[string]int
	Facts  Facts
}

// Key returns a canonical, sort-stable string uniquely identifying this
// configuration, used both as a visited-set key and to keep
// enumeration order deterministic.
func (c Config) Key() string {
	var b strings.Builder
	names := make([]string, 0, len(c.Tokens))
	for n := range c.Tokens {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&b, "%s*%d;", n, c.Tokens[n])
	}
	b.WriteByte('|')
	facts := make([]string, 0, len(c.Facts))
	for f := range c.Facts {
		facts = append(facts, f)
	}
	sort.Strings(facts)
	for _, f := range facts {
		fmt.Fprintf(&b, "%s=%v;", f, c.Facts[f])
	}
	return b.String()
}

func (c Config) clone() Config {
	tokens := make(map[string]int, len(c.Tokens))
	for k, v := range c.Tokens {
		tokens[k] = v
	}
	facts := make(Facts, len(c.Facts))
	for k, v := range c.Facts {
		facts[k] = v
	}
	return Config{Tokens: tokens, Facts: facts}
}

// applyActions mutates facts in place for a's effects.
func applyActions(facts Facts, actions []ir.Action) {
	for _, a := range actions {
		switch a.Verb {
		case ast.ActionExtend:
			facts[a.Target+".extended"] = true
			facts[a.Target+".retracted"] = false
		case ast.ActionRetract:
			facts[a.Target+".retracted"] = true
			facts[a.Target+".extended"] = false
		case ast.ActionSet:
			facts[a.Target+".on"] = a.State == "on"
		}
	}
}

// evalExpr evaluates a state expression against facts. A bare
// reference (ExprRef) is true iff facts records it true; an
// unresolved "elapsed"-style timer reference with no comparison is
// conservatively false (Safety never needs bare timer truthiness, only
// Timing does, via its own analysis).
func evalExpr(e ast.StateExpr, facts Facts) bool {
	switch e.Op {
	case ast.ExprRef:
		return facts[e.Ref]
	case ast.ExprCompare:
		// Boolean comparisons against device facts; numeric timer
		// comparisons (e.g. elapsed >= 400) are not evaluable from
		// facts alone and are treated as unknown/false for Safety and
		// Liveness reachability - Timing analyzes those separately.
		if e.Value == "true" {
			return facts[e.Ref]
		}
		if e.Value == "false" {
			return !facts[e.Ref]
		}
		return false
	case ast.ExprNot:
		return !evalExpr(e.Sub[0], facts)
	case ast.ExprAnd:
		return evalExpr(e.Sub[0], facts) && evalExpr(e.Sub[1], facts)
	case ast.ExprOr:
		return evalExpr(e.Sub[0], facts) || evalExpr(e.Sub[1], facts)
	}
	return false
}

// traceEdge is one step of a counterexample path: the state-to-state
// edge the composite-exploration BFS fired, the guard that let it
// fire (nil for an unguarded edge), and the action(s) issued on
// entering the target state.
type traceEdge struct {
	From, To string
	Guard    *ast.StateExpr
	Actions  []ir.Action
	Loc      ast.Location
}

// succEdge pairs a reachable Config with the traceEdge that produced
// it, so callers can reconstruct a path back to the start.
type succEdge struct {
	Config Config
	Edge   traceEdge
}

// successors returns every Config reachable from c in one step,
// alongside the transition(s) fired, in deterministic order: tokens in
// sorted order, each token's outgoing edges in declaration order,
// guarded edges only fire when their guard currently holds, and a
// timeout edge only fires when no wait_satisfied sibling on the same
// state currently holds (same-cycle priority: guard-satisfied beats
// timeout, matching the desugaring's documented priority order).
func successors(m *ir.StateMachine, c Config) []succEdge {
	var names []string
	for n := range c.Tokens {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []succEdge
	for _, name := range names {
		st := m.States[name]
		if st == nil || len(st.Outgoing) == 0 {
			continue
		}

		waitHolds := false
		for _, t := range st.Outgoing {
			if t.Kind == ir.TransWaitSatisfied && t.Guard != nil && evalExpr(*t.Guard, c.Facts) {
				waitHolds = true
			}
		}

		if st.JoinArity > 1 && c.Tokens[name] < st.JoinArity {
			continue // not enough branches have arrived yet
		}

		// A fork state enters every branch at once: its outgoing
		// TransFork edges are not mutually-exclusive alternatives.
		if isFork(st) {
			next := c.clone()
			next.Tokens[name]--
			if next.Tokens[name] <= 0 {
				delete(next.Tokens, name)
			}
			var fired traceEdge
			for _, t := range st.Outgoing {
				next.Tokens[t.Target]++
				if target := m.States[t.Target]; target != nil {
					applyActions(next.Facts, target.Actions)
					fired = traceEdge{From: name, To: t.Target, Actions: target.Actions, Loc: t.Loc}
				}
			}
			out = append(out, succEdge{Config: next, Edge: fired})
			continue
		}

		for _, t := range st.Outgoing {
			if t.Kind == ir.TransTimeout && waitHolds {
				continue // guard-satisfied takes priority over timeout this cycle
			}
			if t.Guard != nil && !evalExpr(*t.Guard, c.Facts) {
				continue
			}

			next := c.clone()
			consume := 1
			if st.JoinArity > 1 {
				consume = st.JoinArity
			}
			next.Tokens[name] -= consume
			if next.Tokens[name] <= 0 {
				delete(next.Tokens, name)
			}
			next.Tokens[t.Target]++

			var actions []ir.Action
			if target := m.States[t.Target]; target != nil {
				applyActions(next.Facts, target.Actions)
				actions = target.Actions
			}
			out = append(out, succEdge{
				Config: next,
				Edge:   traceEdge{From: name, To: t.Target, Guard: t.Guard, Actions: actions, Loc: t.Loc},
			})
		}
	}
	return out
}

func isFork(st *ir.State) bool {
	for _, t := range st.Outgoing {
		if t.Kind != ir.TransFork {
			return false
		}
	}
	return len(st.Outgoing) > 1
}

// initialConfig starts one token on the entry state of every
// declared task: with no explicit "main" task designated, every task
// is reachable as a potential starting point (goto edges between
// tasks are how the source expresses which ones are actually entered
// from another, and a task with no incoming goto behaves as its own
// root), plus the actions of each such entry state already applied.
func initialConfig(m *ir.StateMachine) Config {
	c := Config{Tokens: make(map[string]int), Facts: make(Facts)}
	referenced := make(map[string]bool)
	for _, name := range m.Order {
		for _, t := range m.States[name].Outgoing {
			referenced[t.Target] = true
		}
	}
	for _, taskName := range m.TaskOrder {
		task := m.Tasks[taskName]
		if task.EntryState == "" || referenced[task.EntryState] {
			continue
		}
		c.Tokens[task.EntryState]++
		applyActions(c.Facts, m.States[task.EntryState].Actions)
	}
	if len(c.Tokens) == 0 {
		// every task is referenced by some goto (e.g. spin_a/spin_b
		// reference each other): fall back to the first declared task.
		if len(m.TaskOrder) > 0 {
			first := m.Tasks[m.TaskOrder[0]]
			c.Tokens[first.EntryState] = 1
			applyActions(c.Facts, m.States[first.EntryState].Actions)
		}
	}
	return c
}

// predLink records how a visited configuration was first reached: the
// key of its predecessor in the BFS and the edge fired to reach it, so
// a violating configuration's full path back to the start can be
// reconstructed after the fact.
type predLink struct {
	ParentKey string
	Edge      traceEdge
}

// exploreResult is the outcome of a bounded/exhaustive BFS over the
// composite-configuration graph.
type exploreResult struct {
	Visited    map[string]Config
	Pred       map[string]predLink // absent for the start configuration
	Order      []string            // visited keys in discovery order, for deterministic iteration
	Exhaustive bool                // false if the threshold was hit before the frontier emptied
	Depth      int                 // BFS depth actually explored
}

// trace reconstructs the path of traceEdges from the start
// configuration to key, in firing order.
func (res exploreResult) trace(key string) []traceEdge {
	var edges []traceEdge
	for {
		link, ok := res.Pred[key]
		if !ok {
			break
		}
		edges = append(edges, link.Edge)
		key = link.ParentKey
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges
}

// explore performs a breadth-first enumeration of every Config
// reachable from start, stopping early (Exhaustive=false) if the
// visited set would exceed maxStates.
func explore(m *ir.StateMachine, start Config, maxStates int) exploreResult {
	res := exploreResult{Visited: make(map[string]Config), Pred: make(map[string]predLink)}
	startKey := start.Key()
	res.Visited[startKey] = start
	res.Order = append(res.Order, startKey)
	frontier := []Config{start}
	frontierKeys := []string{startKey}

	for depth := 0; len(frontier) > 0; depth++ {
		res.Depth = depth
		var next []Config
		var nextKeys []string
		for i, cfg := range frontier {
			for _, se := range successors(m, cfg) {
				k := se.Config.Key()
				if _, seen := res.Visited[k]; seen {
					continue
				}
				if len(res.Visited) >= maxStates {
					res.Exhaustive = false
					return res
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
	res.Exhaustive = true
	return res
}
