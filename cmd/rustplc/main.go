// Command rustplc is a thin CLI wrapper around the compiler core: read
// a .plc file, compile it, print the report or its diagnostics.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rustplc/compiler"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rustplc <file.plc> [--diagram mermaid|graphviz]")
		os.Exit(2)
	}
	path := os.Args[1]

	var diagramKind string
	if len(os.Args) > 2 {
		if os.Args[2] != "--diagram" || len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: rustplc <file.plc> [--diagram mermaid|graphviz]")
			os.Exit(2)
		}
		diagramKind = os.Args[3]
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rustplc: %v\n", err)
		os.Exit(1)
	}

	rep, diags, err := rustplc.Compile(string(src), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rustplc: %v\n", err)
		os.Exit(1)
	}

	for _, d := range diags {
		fmt.Println(d.String())
	}

	if rep == nil {
		os.Exit(1)
	}

	if diagramKind != "" {
		switch diagramKind {
		case "mermaid":
			fmt.Println(rep.Diagrams.Mermaid)
		case "graphviz":
			fmt.Println(rep.Diagrams.Graphviz)
		default:
			fmt.Fprintf(os.Stderr, "rustplc: unknown diagram kind %q (want mermaid or graphviz)\n", diagramKind)
			os.Exit(2)
		}
		return
	}

	b, _ := json.MarshalIndent(rep, "", "  ")
	fmt.Println(string(b))
}
