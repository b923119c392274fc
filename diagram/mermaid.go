// Package diagram renders ir types as Mermaid/Graphviz text, adapted
// from kripke's own diagram/graphviz helpers: a state machine becomes
// a Mermaid stateDiagram-v2, a device topology becomes a Graphviz DOT
// digraph.
package diagram

import (
	"fmt"
	"strings"

	"github.com/rustplc/compiler/ir"
)

// WriteMermaidStateDiagram renders m as a Mermaid stateDiagram-v2, one
// [*] --> entry arrow per task followed by every transition, each edge
// emitted once even if lowering produced it from more than one source
// (e.g. a race branch and its sibling targeting the same state).
func WriteMermaidStateDiagram(m *ir.StateMachine) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	for _, taskName := range m.TaskOrder {
		task := m.Tasks[taskName]
		fmt.Fprintf(&sb, "    [*] --> %s\n", mermaidID(task.EntryState))
	}
	sb.WriteString("\n")

	seen := make(map[string]bool)
	for _, name := range m.Order {
		st := m.States[name]
		for _, t := range st.Outgoing {
			key := name + "->" + t.Target + "->" + string(t.Kind)
			if seen[key] {
				continue
			}
			seen[key] = true
			label := string(t.Kind)
			if t.Guard != nil {
				label += ": guarded"
			}
			fmt.Fprintf(&sb, "    %s --> %s: %s\n", mermaidID(name), mermaidID(t.Target), label)
		}
		if st.Terminal() {
			fmt.Fprintf(&sb, "    %s --> [*]\n", mermaidID(name))
		}
	}
	return sb.String()
}

// mermaidID sanitizes a state name for use as a Mermaid node
// identifier: dots and '#' are not legal inside bare node IDs.
func mermaidID(name string) string {
	r := strings.NewReplacer(".", "_", "#", "_")
	return r.Replace(name)
}
