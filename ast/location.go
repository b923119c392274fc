// Package ast defines the syntax tree produced by the parser: three
// ordered sections (topology, constraints, tasks) plus the source
// location attached to every node.
package ast

import "fmt"

// Location identifies a point in a source file: file:line:column.
// Every AST node, IR node, and diagnostic carries one of these so that
// output stays traceable back to the original .plc text.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Less orders locations by file, then line, then column. Used to make
// diagnostic ordering deterministic.
func (l Location) Less(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}
