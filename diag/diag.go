// Package diag defines the structured diagnostic type shared by every
// stage of the compiler - parser, lowerer, and the four verification
// engines all report through diag.Diagnostic.
package diag

import (
	"fmt"
	"strings"

	"github.com/rustplc/compiler/ast"
)

// Kind is the closed set of diagnostic categories.
type Kind string

const (
	KindSyntax    Kind = "syntax"
	KindSemantic  Kind = "semantic"
	KindSafety    Kind = "safety"
	KindLiveness  Kind = "liveness"
	KindTiming    Kind = "timing"
	KindCausality Kind = "causality"
	KindWarning   Kind = "warning"
)

// Engine identifies which verification engine (if any) raised a
// diagnostic, used as the `<engine>` tag in ERROR [<engine>].
type Engine string

const (
	EngineParser    Engine = "parser"
	EngineAnalyzer  Engine = "analyzer"
	EngineSafety    Engine = "safety"
	EngineLiveness  Engine = "liveness"
	EngineTiming    Engine = "timing"
	EngineCausality Engine = "causality"
)

// Diagnostic is one structured error/warning message: an engine tag, a
// location, a one-line summary, zero or more cause/analysis lines, and
// a suggested fix. Every diagnostic produced by the core contains at
// least one Cause/Analysis line's worth of content plus a non-empty
// Suggestion, so that Diagnostic.String() always contains both `位置:`
// and `建议:`.
type Diagnostic struct {
	Kind       Kind
	Engine     Engine
	Summary    string
	Loc        ast.Location
	Causes     []string // rendered as repeated `原因:` lines
	Analyses   []string // rendered as repeated `分析:` lines
	Suggestion string   // rendered as `建议:`
}

// New constructs a Diagnostic with a single cause/analysis line each,
// the common case; use the struct literal directly for multi-line
// diagnostics (e.g. BMC counterexample traces).
func New(kind Kind, engine Engine, loc ast.Location, summary, cause, analysis, suggestion string) Diagnostic {
	d := Diagnostic{Kind: kind, Engine: engine, Summary: summary, Loc: loc, Suggestion: suggestion}
	if cause != "" {
		d.Causes = append(d.Causes, cause)
	}
	if analysis != "" {
		d.Analyses = append(d.Analyses, analysis)
	}
	return d
}

// String renders the spec-mandated textual block:
//
//	ERROR [<engine>] <summary>
//	    位置: <file>:<line>:<col>
//	    原因: <cause>
//	    分析: <analysis>
//	    建议: <suggestion>
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ERROR [%s] %s\n", d.Engine, d.Summary)
	fmt.Fprintf(&b, "    位置: %s\n", d.Loc)
	for _, c := range d.Causes {
		fmt.Fprintf(&b, "    原因: %s\n", c)
	}
	for _, a := range d.Analyses {
		fmt.Fprintf(&b, "    分析: %s\n", a)
	}
	fmt.Fprintf(&b, "    建议: %s", d.Suggestion)
	return b.String()
}

// engineRank is the pipeline order Less sorts engines by.
var engineRank = map[Engine]int{
	EngineParser: 0, EngineAnalyzer: 1, EngineSafety: 2,
	EngineLiveness: 3, EngineTiming: 4, EngineCausality: 5,
}

// Less orders diagnostics deterministically: by engine in pipeline
// order (parser, analyzer, safety, liveness, timing, causality), then
// source location, then summary text as a final tiebreaker. Sorting by
// this relation is what makes two compiles of the same source
// byte-identical.
func Less(a, b Diagnostic) bool {
	if a.Engine != b.Engine {
		if ra, rb := engineRank[a.Engine], engineRank[b.Engine]; ra != rb {
			return ra < rb
		}
		return a.Engine < b.Engine
	}
	if a.Loc.Less(b.Loc) {
		return true
	}
	if b.Loc.Less(a.Loc) {
		return false
	}
	return a.Summary < b.Summary
}
