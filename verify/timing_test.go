package verify

import (
	"testing"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/diag"
	"github.com/rustplc/compiler/ir"
)

func singleCylinderTopology() *ir.TopologyGraph {
	topo := ir.NewTopologyGraph()
	topo.AddDevice(&ir.Device{Name: "Y0", Kind: ast.KindDigitalOutput})
	topo.AddDevice(&ir.Device{Name: "valve_A", Kind: ast.KindSolenoidValve, ConnectedTo: "Y0", ResponseTimeMS: 20})
	topo.AddDevice(&ir.Device{Name: "cyl_A", Kind: ast.KindCylinder, ConnectedTo: "valve_A", StrokeTimeMS: 200, RetractTimeMS: 180})
	return topo
}

// extend_a takes 220ms (stroke + valve response) then immediately
// falls through to done with no timeout sibling.
func extendTaskMachine() *ir.StateMachine {
	m := ir.NewStateMachine()
	m.AddState(&ir.State{
		Name:     "work.extend_a",
		Task:     "work",
		Actions:  []ir.Action{{Verb: ast.ActionExtend, Target: "cyl_A"}},
		Outgoing: []ir.Transition{{Target: "work.__done__", Kind: ir.TransImmediate}},
	})
	m.AddState(&ir.State{Name: "work.__done__", Task: "work"})
	m.AddTask(&ir.Task{Name: "work", EntryState: "work.extend_a", States: []string{"work.extend_a", "work.__done__"}})
	return m
}

func TestTimingMustCompleteWithinPassesUnderBound(t *testing.T) {
	topo := singleCylinderTopology()
	tm := ir.NewTimingModel(topo)
	m := extendTaskMachine()

	cs := []ir.TimingConstraint{{Task: "work", Step: "extend_a", Rel: ast.RelMustCompleteWithin, BoundMS: 500}}
	res := Timing(m, tm, cs, false)
	if res.Level != LevelPass {
		t.Fatalf("expected pass at a generous bound, got %q: %v", res.Level, res.Diagnostics)
	}
}

func TestTimingMustCompleteWithinFailsUnderTightBound(t *testing.T) {
	topo := singleCylinderTopology()
	tm := ir.NewTimingModel(topo)
	m := extendTaskMachine()

	cs := []ir.TimingConstraint{{Task: "work", Step: "extend_a", Rel: ast.RelMustCompleteWithin, BoundMS: 100}}
	res := Timing(m, tm, cs, false)
	if res.Level != LevelFail {
		t.Fatalf("expected a violation at a 100ms bound against a 220ms critical path, got %q", res.Level)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected at least one diagnostic")
	}
}

func TestTimingMustCompleteWithinIgnoresTimeoutEscape(t *testing.T) {
	// The step's own completion (220ms) stays under bound even though a
	// much longer timeout sibling exists - the timeout is a mutually
	// exclusive fault escape, not part of normal completion time.
	topo := singleCylinderTopology()
	tm := ir.NewTimingModel(topo)
	m := ir.NewStateMachine()
	m.AddState(&ir.State{
		Name:    "work.extend_a",
		Task:    "work",
		Actions: []ir.Action{{Verb: ast.ActionExtend, Target: "cyl_A"}},
		Outgoing: []ir.Transition{
			{Target: "work.retract_a", Kind: ir.TransWaitSatisfied, Guard: &ast.StateExpr{Op: ast.ExprRef, Ref: "sensor_A_ext"}},
			{Target: "work.fault", Kind: ir.TransTimeout, DurationMS: 5000},
		},
	})
	m.AddState(&ir.State{Name: "work.retract_a", Task: "work"})
	m.AddState(&ir.State{Name: "work.fault", Task: "work"})
	m.AddTask(&ir.Task{Name: "work", EntryState: "work.extend_a", States: []string{"work.extend_a", "work.retract_a", "work.fault"}})

	cs := []ir.TimingConstraint{{Task: "work", Step: "extend_a", Rel: ast.RelMustCompleteWithin, BoundMS: 500}}
	res := Timing(m, tm, cs, false)
	if res.Level != LevelPass {
		t.Fatalf("expected the 5000ms timeout to be excluded from normal completion time, got %q: %v", res.Level, res.Diagnostics)
	}
}

func TestTimingMustStartAfterFailsWhenReachedTooSoon(t *testing.T) {
	topo := ir.NewTopologyGraph()
	tm := ir.NewTimingModel(topo)
	m := ir.NewStateMachine()
	m.AddState(&ir.State{Name: "work.guarded", Task: "work", Outgoing: []ir.Transition{{Target: "work.__done__", Kind: ir.TransImmediate}}})
	m.AddState(&ir.State{Name: "work.__done__", Task: "work"})
	m.AddTask(&ir.Task{Name: "work", EntryState: "work.guarded", States: []string{"work.guarded", "work.__done__"}})

	cs := []ir.TimingConstraint{{Task: "work", Step: "guarded", Rel: ast.RelMustStartAfter, BoundMS: 200}}
	res := Timing(m, tm, cs, false)
	if res.Level != LevelFail {
		t.Fatalf("expected a violation: the entry step is reachable at t=0, short of a 200ms floor, got %q", res.Level)
	}
}

func TestTimingWarnsOnUndeclaredMotorRampTime(t *testing.T) {
	topo := ir.NewTopologyGraph()
	topo.AddDevice(&ir.Device{Name: "conveyor", Kind: ast.KindMotor, ConnectedTo: "Y0"})

	tm := ir.NewTimingModel(topo)
	m := ir.NewStateMachine()
	m.AddState(&ir.State{
		Name:     "work.start_motor",
		Task:     "work",
		Actions:  []ir.Action{{Verb: ast.ActionSet, Target: "conveyor", State: "on"}},
		Outgoing: []ir.Transition{{Target: "work.__done__", Kind: ir.TransImmediate}},
	})
	m.AddState(&ir.State{Name: "work.__done__", Task: "work"})
	m.AddTask(&ir.Task{Name: "work", EntryState: "work.start_motor", States: []string{"work.start_motor", "work.__done__"}})

	res := Timing(m, tm, nil, true)
	if res.Level != LevelPass {
		t.Fatalf("a warning-level diagnostic must not fail the engine, got %q", res.Level)
	}
	var sawWarning bool
	for _, d := range res.Diagnostics {
		if d.Kind == diag.KindWarning {
			sawWarning = true
		}
	}
	if !sawWarning {
		t.Fatalf("expected a warning for conveyor's undeclared ramp_time, got %v", res.Diagnostics)
	}

	res = Timing(m, tm, nil, false)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics with warnUndeclared disabled, got %v", res.Diagnostics)
	}
}
