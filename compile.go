// Package rustplc is the compiler core: source text in, a verified
// Report plus structured diagnostics out. Everything outside this
// surface (CLI, file I/O, code generation, hardware talk) is a
// deliberately external collaborator - see spec.md §1.
package rustplc

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/diagram"
	"github.com/rustplc/compiler/lower"
	"github.com/rustplc/compiler/parser"
	"github.com/rustplc/compiler/report"
	"github.com/rustplc/compiler/verify"
)

// Compile parses, lowers, and verifies source, returning a Report on
// success or a list of diagnostics on failure. A non-nil error reports
// a verification engine that failed to run (never a problem in
// source); malformed source is always reported through the diagnostic
// slice instead.
func Compile(source string, filename string, opts ...Option) (*report.Report, []diag.Diagnostic, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	file, err := parser.ParseFile(source, filename)
	if err != nil {
		loc, msg := locationOf(err)
		return nil, []diag.Diagnostic{diag.New(diag.KindSyntax, diag.EngineParser, loc, msg, "the source does not match the .plc grammar", "", "fix the syntax error and recompile")}, nil
	}

	res := lower.Lower(file)
	if len(res.Diagnostics) > 0 {
		// Semantic errors leave the IR incomplete; verification would
		// report on a graph the author never actually wrote (spec §7).
		return nil, res.Diagnostics, nil
	}

	cfg.Logger.Debug().
		Int("devices", len(res.Topology.Order)).
		Int("states", len(res.Machine.Order)).
		Msg("lowering complete, running verification")

	rep, diags, err := runEngines(cfg, res)
	if err != nil {
		return nil, nil, err
	}

	sort.SliceStable(diags, func(i, j int) bool { return diag.Less(diags[i], diags[j]) })
	if !rep.Ok() {
		return nil, diags, nil
	}
	return &rep, diags, nil
}

// runEngines runs the four verification engines, either sequentially
// or concurrently via errgroup depending on cfg.Parallel, and merges
// their diagnostics and metrics.
func runEngines(cfg Config, res lower.Result) (report.Report, []diag.Diagnostic, error) {
	var safety verify.SafetyResult
	var liveness verify.LivenessResult
	var timing verify.TimingResult
	var causality verify.CausalityResult

	runSafety := func() error {
		safety = verify.Safety(res.Machine, res.Constraints.Safety, cfg.ExhaustiveThreshold, cfg.BMCMaxDepth)
		cfg.Logger.Trace().Str("level", string(safety.Level)).Int("depth", safety.ExploredDepth).Msg("safety check complete")
		return nil
	}
	runLiveness := func() error {
		liveness = verify.Liveness(res.Machine)
		return nil
	}
	runTiming := func() error {
		timing = verify.Timing(res.Machine, res.Timing, res.Constraints.Timing, cfg.TreatUndeclaredTimingAsWarning)
		return nil
	}
	runCausality := func() error {
		causality = verify.Causality(res.Machine, res.Topology, res.Constraints.Causality)
		return nil
	}

	if cfg.Parallel {
		var g errgroup.Group
		g.Go(runSafety)
		g.Go(runLiveness)
		g.Go(runTiming)
		g.Go(runCausality)
		if err := g.Wait(); err != nil {
			return report.Report{}, nil, fmt.Errorf("rustplc: verification engine failed: %w", err)
		}
	} else {
		for _, fn := range []func() error{runSafety, runLiveness, runTiming, runCausality} {
			if err := fn(); err != nil {
				return report.Report{}, nil, fmt.Errorf("rustplc: verification engine failed: %w", err)
			}
		}
	}

	metrics := verify.NewMetricsCollector()
	metrics.RecordSafety(safety)
	metrics.RecordLiveness(liveness)
	metrics.RecordTiming(timing)
	metrics.RecordCausality(causality)

	diagrams := report.DiagramSet{
		Mermaid:  diagram.WriteMermaidStateDiagram(res.Machine),
		Graphviz: diagram.WriteGraphvizTopology(res.Topology),
	}
	rep := report.Build(safety, liveness, timing, causality, metrics.GenerateMetricsTable(), diagrams)

	var diags []diag.Diagnostic
	diags = append(diags, safety.Diagnostics...)
	diags = append(diags, liveness.Diagnostics...)
	diags = append(diags, timing.Diagnostics...)
	diags = append(diags, causality.Diagnostics...)
	return rep, diags, nil
}

// locationOf extracts the best diagnostic we can from a parser error,
// falling back to a zero location if err isn't a *parser.Error.
func locationOf(err error) (loc ast.Location, msg string) {
	if pe, ok := err.(*parser.Error); ok {
		return pe.Loc, pe.Error()
	}
	return ast.Location{}, err.Error()
}
