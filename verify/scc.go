package verify

import (
	"fmt"
	"sort"

	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

// tarjanSCC computes the strongly connected components of the plain
// state graph (ignoring guards), in Tarjan's standard low-link
// formulation. Component order and each component's member order are
// both deterministic, derived from m.Order rather than map iteration.
func tarjanSCC(m *ir.StateMachine) [][]string {
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var comps [][]string
	counter := 0

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		st := m.States[v]
		if st != nil {
			for _, t := range st.Outgoing {
				w := t.Target
				if _, ok := index[w]; !ok {
					strongconnect(w)
					if lowlink[w] < lowlink[v] {
						lowlink[v] = lowlink[w]
					}
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for _, name := range m.Order {
		if _, ok := index[name]; !ok {
			strongconnect(name)
		}
	}
	return comps
}

// checkTrappingSCCs reports every SCC that has no escape: no member
// state reaches outside the component via a timeout edge, and no
// member state is an intentional allow_indefinite_wait sink.
func checkTrappingSCCs(m *ir.StateMachine) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, comp := range tarjanSCC(m) {
		if !isCycle(m, comp) {
			continue
		}
		member := make(map[string]bool, len(comp))
		for _, n := range comp {
			member[n] = true
		}

		hasEscape, hasIndefiniteWait := false, false
		for _, n := range comp {
			st := m.States[n]
			if st.AllowIndefiniteWait {
				hasIndefiniteWait = true
			}
			for _, t := range st.Outgoing {
				if t.Kind == ir.TransTimeout && !member[t.Target] {
					hasEscape = true
				}
			}
		}
		if hasEscape || hasIndefiniteWait {
			continue
		}

		sorted := append([]string(nil), comp...)
		sort.Strings(sorted)
		out = append(out, diag.New(diag.KindLiveness, diag.EngineLiveness, m.States[sorted[0]].Loc,
			fmt.Sprintf("trapping cycle with no timeout escape: %v", sorted),
			"no timeout edge leaves this cycle and none of its states is an intentional allow_indefinite_wait sink",
			"",
			"add a timeout to break out of the cycle, or mark the intended sink allow_indefinite_wait"))
	}
	return out
}

// isCycle reports whether comp forms an actual cycle: either it has
// more than one member (Tarjan guarantees mutual reachability within
// a component of size > 1), or its single member has a self-loop.
func isCycle(m *ir.StateMachine, comp []string) bool {
	if len(comp) > 1 {
		return true
	}
	st := m.States[comp[0]]
	for _, t := range st.Outgoing {
		if t.Target == comp[0] {
			return true
		}
	}
	return false
}
