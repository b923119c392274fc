package verify

import (
	"testing"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/ir"
)

func wiredCylinderMachine() (*ir.StateMachine, *ir.TopologyGraph) {
	topo := singleCylinderTopology()
	topo.AddDevice(&ir.Device{Name: "sensor_A_ext", Kind: ast.KindSensor, ConnectedTo: "X0", Detects: "cyl_A"})

	m := ir.NewStateMachine()
	m.AddState(&ir.State{
		Name:    "work.extend_a",
		Task:    "work",
		Actions: []ir.Action{{Verb: ast.ActionExtend, Target: "cyl_A"}},
		Outgoing: []ir.Transition{
			{Target: "work.retract_a", Kind: ir.TransWaitSatisfied, Guard: &ast.StateExpr{Op: ast.ExprRef, Ref: "sensor_A_ext"}},
		},
	})
	m.AddState(&ir.State{Name: "work.retract_a", Task: "work"})
	m.AddTask(&ir.Task{Name: "work", EntryState: "work.extend_a", States: []string{"work.extend_a", "work.retract_a"}})
	return m, topo
}

func TestCausalityImplicitChainPassesWhenWired(t *testing.T) {
	m, topo := wiredCylinderMachine()
	res := Causality(m, topo, nil)
	if res.Level != LevelPass {
		t.Fatalf("expected pass, got %q: %v", res.Level, res.Diagnostics)
	}
}

func TestCausalityImplicitChainFailsWhenSensorUnwired(t *testing.T) {
	m, _ := wiredCylinderMachine()
	// A fresh topology where sensor_A_ext observes nothing connected to
	// cyl_A's actuator chain: no detects/connected_to edge links them.
	topo := singleCylinderTopology()
	topo.AddDevice(&ir.Device{Name: "sensor_A_ext", Kind: ast.KindSensor, ConnectedTo: "X9"})

	res := Causality(m, topo, nil)
	if res.Level != LevelFail {
		t.Fatalf("expected a causality violation once the sensor is unwired from the actuator chain")
	}
}

func TestCausalityExplicitChainChecksDirectWiring(t *testing.T) {
	_, topo := wiredCylinderMachine()
	m := ir.NewStateMachine() // no states; only the explicit chain matters here

	cs := []ir.CausalityConstraint{{Chain: []string{"Y0", "valve_A", "cyl_A", "sensor_A_ext"}}}
	res := Causality(m, topo, cs)
	if res.Level != LevelPass {
		t.Fatalf("expected the fully-wired chain to pass, got %q: %v", res.Level, res.Diagnostics)
	}

	cs = []ir.CausalityConstraint{{Chain: []string{"Y0", "cyl_A"}}} // skips valve_A: not directly wired
	res = Causality(m, topo, cs)
	if res.Level != LevelFail {
		t.Fatalf("expected a broken chain (Y0 is not directly wired to cyl_A) to fail")
	}
}
