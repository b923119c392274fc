package report

import (
	"testing"

	"github.com/rustplc/compiler/verify"
)

func TestReportOkIgnoresBoundedVerifyAndWarnings(t *testing.T) {
	r := Build(
		verify.SafetyResult{Level: verify.LevelBoundedVerify, ExploredDepth: 64},
		verify.LivenessResult{Level: verify.LevelPass},
		verify.TimingResult{Level: verify.LevelPass},
		verify.CausalityResult{Level: verify.LevelPass},
		"",
		DiagramSet{},
	)
	if !r.Ok() {
		t.Fatalf("bounded verification alone should not fail the report: %+v", r)
	}
	if len(r.Safety.Warnings) != 1 {
		t.Fatalf("expected one synthesized bounded-verification warning, got %v", r.Safety.Warnings)
	}
}

func TestReportOkFailsOnAnyEngineFailure(t *testing.T) {
	r := Build(
		verify.SafetyResult{Level: verify.LevelCompleteProof},
		verify.LivenessResult{Level: verify.LevelFail},
		verify.TimingResult{Level: verify.LevelPass},
		verify.CausalityResult{Level: verify.LevelPass},
		"",
		DiagramSet{},
	)
	if r.Ok() {
		t.Fatalf("expected Ok to be false when liveness fails")
	}
}

func TestReportOkPassesCleanCompile(t *testing.T) {
	r := Build(
		verify.SafetyResult{Level: verify.LevelCompleteProof, ExploredDepth: 12},
		verify.LivenessResult{Level: verify.LevelPass},
		verify.TimingResult{Level: verify.LevelPass},
		verify.CausalityResult{Level: verify.LevelPass},
		"",
		DiagramSet{},
	)
	if !r.Ok() {
		t.Fatalf("expected a fully-passing compile to be Ok")
	}
	if len(r.Safety.Warnings) != 0 {
		t.Fatalf("expected no warnings on a complete proof, got %v", r.Safety.Warnings)
	}
}
