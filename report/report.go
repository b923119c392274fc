// Package report defines the stable, JSON-serializable compile
// summary every Compile call returns alongside its diagnostics.
package report

import (
	"fmt"

	"github.com/rustplc/compiler/verify"
)

// SafetySummary is the safety section of Report; it alone carries
// explored_depth and warnings per spec.md §6's JSON shape.
type SafetySummary struct {
	Level         verify.SafetyLevel `json:"level"`
	ExploredDepth int                `json:"explored_depth"`
	Warnings      []string           `json:"warnings"`
}

// EngineSummary is the shape shared by liveness/timing/causality: a
// level token with no extra fields.
type EngineSummary struct {
	Level verify.SafetyLevel `json:"level"`
}

// Report is the full compile summary, matching spec.md §6's JSON shape
// field for field.
type Report struct {
	Safety    SafetySummary `json:"safety"`
	Liveness  EngineSummary `json:"liveness"`
	Timing    EngineSummary `json:"timing"`
	Causality EngineSummary `json:"causality"`

	// Metrics is additive to the core contract: a Markdown table of
	// per-engine exploration/diagnostic counters, useful for CI summary
	// output but not part of the stable JSON comparison surface tests
	// assert on.
	Metrics string `json:"-"`

	// Diagrams is likewise additive: read-only Mermaid/Graphviz views
	// over the compiled IR, for human debugging, not part of the
	// stable JSON comparison surface tests assert on.
	Diagrams DiagramSet `json:"-"`
}

// DiagramSet holds the two diagram package renderings of one compile.
type DiagramSet struct {
	Mermaid  string
	Graphviz string
}

// Ok reports whether every engine reached a passing level: warnings
// alone (bounded verification) still count as Ok, per §7's propagation
// policy - only a 失败 level fails the overall compile.
func (r Report) Ok() bool {
	return r.Safety.Level != verify.LevelFail &&
		r.Liveness.Level != verify.LevelFail &&
		r.Timing.Level != verify.LevelFail &&
		r.Causality.Level != verify.LevelFail
}

// Build assembles a Report from the four engines' results.
func Build(safety verify.SafetyResult, liveness verify.LivenessResult, timing verify.TimingResult, causality verify.CausalityResult, metrics string, diagrams DiagramSet) Report {
	var warnings []string
	if safety.Level == verify.LevelBoundedVerify {
		warnings = append(warnings, fmt.Sprintf("exhaustive threshold exceeded; verified only up to depth %d (bounded verification, not a complete proof)", safety.ExploredDepth))
	}
	return Report{
		Safety:    SafetySummary{Level: safety.Level, ExploredDepth: safety.ExploredDepth, Warnings: warnings},
		Liveness:  EngineSummary{Level: liveness.Level},
		Timing:    EngineSummary{Level: timing.Level},
		Causality: EngineSummary{Level: causality.Level},
		Metrics:   metrics,
		Diagrams:  diagrams,
	}
}
