package lower

import (
	"testing"

	"github.com/rustplc/compiler/parser"
)

const singleCylinderSource = `
[topology]
digital_output Y0 {}
digital_input X0 {}
solenoid_valve valve_A { connected_to: Y0, response_time: 20ms }
cylinder cyl_A { connected_to: valve_A, stroke_time: 200ms, retract_time: 180ms }
sensor sensor_A_ext { connected_to: X0, detects: cyl_A.extended }

[constraints]
timing: task.work must_complete_within 500ms

[tasks]
task work {
	step step_extend {
		action: extend cyl_A
		wait: sensor_A_ext
		timeout: 400ms -> goto fault
	}
}
task fault {
	step step_fault {
		action: log "timeout"
	}
	on_complete: unreachable
}
`

func TestLowerSingleCylinder(t *testing.T) {
	f, err := parser.ParseFile(singleCylinderSource, "s1.plc")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	res := Lower(f)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}

	if _, ok := res.Topology.Devices["cyl_A"]; !ok {
		t.Fatalf("expected cyl_A in topology")
	}

	work, ok := res.Machine.Tasks["work"]
	if !ok {
		t.Fatalf("expected task 'work'")
	}
	entry := res.Machine.States[work.EntryState]
	if len(entry.Actions) != 1 || entry.Actions[0].Target != "cyl_A" {
		t.Fatalf("expected entry state to extend cyl_A, got %#v", entry.Actions)
	}
	var sawWaitSatisfied, sawTimeout bool
	for _, o := range entry.Outgoing {
		switch o.Kind {
		case "wait_satisfied":
			sawWaitSatisfied = true
		case "timeout":
			sawTimeout = true
		}
	}
	if !sawWaitSatisfied || !sawTimeout {
		t.Fatalf("expected both a wait-satisfied and a timeout edge on the extend/wait step, got %#v", entry.Outgoing)
	}

	if len(res.Constraints.Timing) != 1 {
		t.Fatalf("expected one timing constraint, got %d", len(res.Constraints.Timing))
	}
}

func TestLowerRejectsUndeclaredDevice(t *testing.T) {
	src := `
[topology]
digital_output Y0 {}

[constraints]
safety: ghost.extended conflicts_with Y0 == true

[tasks]
task noop {
	step s1 {
		action: log "hi"
	}
	on_complete: unreachable
}
`
	f, err := parser.ParseFile(src, "bad.plc")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Lower(f)
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for the undeclared device 'ghost'")
	}
}
