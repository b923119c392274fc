package diagram

import (
	"fmt"
	"strings"

	"github.com/rustplc/compiler/ir"
)

// WriteGraphvizTopology renders topo as a Graphviz DOT digraph: one
// node per device, labeled with its kind, and one edge per
// connected_to/detects wire.
func WriteGraphvizTopology(topo *ir.TopologyGraph) string {
	var sb strings.Builder
	sb.WriteString("digraph Topology {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n\n")

	for _, name := range topo.Order {
		dev := topo.Devices[name]
		fmt.Fprintf(&sb, "  \"%s\" [label=\"%s\\n(%s)\"];\n", name, name, dev.Kind)
	}
	sb.WriteString("\n")

	for _, name := range topo.Order {
		dev := topo.Devices[name]
		if dev.ConnectedTo != "" {
			fmt.Fprintf(&sb, "  \"%s\" -> \"%s\" [label=\"connected_to\"];\n", dev.ConnectedTo, name)
		}
		if dev.Detects != "" {
			fmt.Fprintf(&sb, "  \"%s\" -> \"%s\" [label=\"detects\"];\n", dev.Detects, name)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
