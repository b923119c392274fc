package rustplc

import (
	"strings"
	"testing"

	"github.com/rustplc/compiler/report"
	"github.com/rustplc/compiler/verify"
)

// S1 - single cylinder round-trip (all pass).
func TestCompileS1SingleCylinderAllPass(t *testing.T) {
	src := `
[topology]
digital_output Y0 {}
digital_input X0 {}
digital_input X1 {}
digital_input X2 {}
solenoid_valve valve_A { connected_to: Y0, response_time: 20ms }
cylinder cyl_A { connected_to: valve_A, stroke_time: 200ms, retract_time: 180ms }
sensor sensor_A_ext { connected_to: X0, detects: cyl_A.extended }
sensor sensor_A_ret { connected_to: X1, detects: cyl_A.retracted }
digital_input start_button { connected_to: X2 }

[constraints]
timing: task.work.step.step_extend must_complete_within 500ms

[tasks]
task work {
	step step_extend {
		action: extend cyl_A
		wait: sensor_A_ext
		timeout: 400ms -> goto fault
	}
	step step_retract {
		action: retract cyl_A
		wait: sensor_A_ret
		timeout: 400ms -> goto fault
	}
}
task fault {
	step step_fault {
		action: log "timeout"
	}
}
task ready {
	step step_ready {
		action: log "ready"
		wait: start_button
		allow_indefinite_wait: true
	}
}
`
	rep, diags, err := Compile(src, "s1.plc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep == nil {
		t.Fatalf("expected a report, got diagnostics: %v", diags)
	}
	if rep.Safety.Level != verify.LevelCompleteProof {
		t.Errorf("safety = %q, want %q", rep.Safety.Level, verify.LevelCompleteProof)
	}
	if rep.Liveness.Level != verify.LevelPass {
		t.Errorf("liveness = %q, want %q (diags: %v)", rep.Liveness.Level, verify.LevelPass, diags)
	}
	if rep.Timing.Level != verify.LevelPass {
		t.Errorf("timing = %q, want %q (diags: %v)", rep.Timing.Level, verify.LevelPass, diags)
	}
	if rep.Causality.Level != verify.LevelPass {
		t.Errorf("causality = %q, want %q (diags: %v)", rep.Causality.Level, verify.LevelPass, diags)
	}
}

const twoCylindersTopology = `
[topology]
digital_output Y0 {}
digital_output Y1 {}
digital_input X0 {}
digital_input X1 {}
solenoid_valve valve_A { connected_to: Y0, response_time: 20ms }
cylinder cyl_A { connected_to: valve_A, stroke_time: 200ms, retract_time: 180ms }
sensor sensor_A_ext { connected_to: X0, detects: cyl_A.extended }
solenoid_valve valve_B { connected_to: Y1, response_time: 20ms }
cylinder cyl_B { connected_to: valve_B, stroke_time: 200ms, retract_time: 180ms }
sensor sensor_B_ext { connected_to: X1, detects: cyl_B.extended }

[constraints]
safety: cyl_A.extended == true conflicts_with cyl_B.extended == true
`

// S2 - sequential two cylinders: safety holds.
func TestCompileS2SequentialSafetyProof(t *testing.T) {
	src := twoCylindersTopology + `
[tasks]
task sequence {
	step extend_A { action: extend cyl_A }
	step retract_A { action: retract cyl_A }
	step extend_B { action: extend cyl_B }
	step retract_B { action: retract cyl_B }
}
`
	rep, diags, err := Compile(src, "s2.plc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep == nil {
		t.Fatalf("expected a report, got diagnostics: %v", diags)
	}
	if rep.Safety.Level != verify.LevelCompleteProof && rep.Safety.Level != verify.LevelBoundedVerify {
		t.Errorf("safety = %q, want 完备证明 or 有界验证", rep.Safety.Level)
	}
}

// S3 - parallel two cylinders: safety violation.
func TestCompileS3ParallelSafetyViolation(t *testing.T) {
	src := twoCylindersTopology + `
[tasks]
task both {
	step fork_both {
		parallel {
			branch_A: {
				step extend_A { action: extend cyl_A }
			}
			branch_B: {
				step extend_B { action: extend cyl_B }
			}
		}
	}
}
`
	rep, diags, err := Compile(src, "s3.plc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep != nil {
		t.Fatalf("expected compile to fail on a safety violation, got a passing report")
	}
	var sawSafetyViolation bool
	for _, d := range diags {
		if string(d.Engine) == "safety" && strings.Contains(d.Summary, "conflicts_with") {
			sawSafetyViolation = true
		}
	}
	if !sawSafetyViolation {
		t.Fatalf("expected an ERROR [safety] diagnostic mentioning conflicts_with, got: %v", diags)
	}
}

// S4 - triple liveness failure.
func TestCompileS4TripleLiveness(t *testing.T) {
	src := `
[topology]
digital_input sensor_X {}

[constraints]

[tasks]
task entry {
	step wait_x {
		wait: sensor_X == true
	}
	on_complete: unreachable
}
task spin_a {
	step step_a {
		goto spin_b
	}
}
task spin_b {
	step step_b {
		goto spin_a
	}
}
`
	rep, diags, err := Compile(src, "s4.plc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep != nil {
		t.Fatalf("expected compile to fail with liveness diagnostics")
	}

	var livenessCount int
	var sawMissingTimeout, sawUnreachable, sawTrappingSCC bool
	for _, d := range diags {
		if string(d.Engine) != "liveness" {
			continue
		}
		livenessCount++
		switch {
		case strings.Contains(d.Summary, "trapping cycle"):
			sawTrappingSCC = true
		case strings.Contains(d.Summary, "no timeout"):
			sawMissingTimeout = true
		case strings.Contains(d.Summary, "unreachable"):
			sawUnreachable = true
		}
	}
	if livenessCount < 3 {
		t.Errorf("expected >= 3 liveness diagnostics, got %d: %v", livenessCount, diags)
	}
	if !sawMissingTimeout || !sawUnreachable || !sawTrappingSCC {
		t.Errorf("expected missing-timeout, invalid-unreachable, and trapping-SCC diagnostics; got missing=%v unreachable=%v scc=%v",
			sawMissingTimeout, sawUnreachable, sawTrappingSCC)
	}
}

// S5 - timing and causality failures.
func TestCompileS5TimingAndCausality(t *testing.T) {
	src := `
[topology]
digital_output Y0 {}
digital_input X0 {}
solenoid_valve valve_A { connected_to: Y0, response_time: 20ms }
cylinder cyl_A { connected_to: Y0, stroke_time: 200ms, retract_time: 180ms }
sensor sensor_A_ext { connected_to: X0, detects: cyl_A.extended }

[constraints]
timing: task.work.step.extend_a must_complete_within 100ms
causality: Y0 -> valve_A -> cyl_A -> sensor_A_ext
timing: task.work.step.guarded_step must_start_after 200ms

[tasks]
task work {
	step extend_a {
		action: extend cyl_A
	}
	step guarded_step {
		wait: sensor_A_ext
		timeout: 50ms -> goto done
	}
}
task done {
	step finish {
		action: log "done"
	}
}
`
	rep, diags, err := Compile(src, "s5.plc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep != nil {
		t.Fatalf("expected compile to fail with timing and causality diagnostics")
	}

	var sawTimingViolation, sawCausalityViolation int
	for _, d := range diags {
		switch string(d.Engine) {
		case "timing":
			sawTimingViolation++
		case "causality":
			sawCausalityViolation++
		}
	}
	if sawTimingViolation < 2 {
		t.Errorf("expected >= 2 timing diagnostics, got %d: %v", sawTimingViolation, diags)
	}
	if sawCausalityViolation < 1 {
		t.Errorf("expected >= 1 causality diagnostic naming the broken valve_A -> cyl_A edge, got %d: %v", sawCausalityViolation, diags)
	}
}

func TestReportJSONShape(t *testing.T) {
	src := `
[topology]
digital_output Y0 {}

[constraints]

[tasks]
task noop {
	step s1 {
		action: log "hi"
	}
}
`
	rep, diags, err := Compile(src, "noop.plc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep == nil {
		t.Fatalf("expected a report, got diagnostics: %v", diags)
	}
	var r report.Report = *rep
	if r.Safety.Level == "" || r.Liveness.Level == "" || r.Timing.Level == "" || r.Causality.Level == "" {
		t.Fatalf("expected every engine to report a non-empty level: %+v", r)
	}
}
