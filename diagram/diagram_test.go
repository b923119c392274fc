package diagram

import (
	"strings"
	"testing"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/ir"
)

func TestWriteMermaidStateDiagramRoundTripsEdgeSet(t *testing.T) {
	m := ir.NewStateMachine()
	m.AddState(&ir.State{
		Name:     "work.extend_a",
		Task:     "work",
		Outgoing: []ir.Transition{{Target: "work.__done__", Kind: ir.TransImmediate}},
	})
	m.AddState(&ir.State{Name: "work.__done__", Task: "work"})
	m.AddTask(&ir.Task{Name: "work", EntryState: "work.extend_a", States: []string{"work.extend_a", "work.__done__"}})

	out := WriteMermaidStateDiagram(m)
	if !strings.Contains(out, "[*] --> work_extend_a") {
		t.Fatalf("expected an entry arrow to the task's entry state, got:\n%s", out)
	}
	if !strings.Contains(out, "work_extend_a --> work___done__") {
		t.Fatalf("expected the extend_a -> __done__ transition rendered, got:\n%s", out)
	}
	if !strings.Contains(out, "work___done__ --> [*]") {
		t.Fatalf("expected __done__ rendered as a terminal state, got:\n%s", out)
	}
}

func TestWriteGraphvizTopologyRoundTripsEdgeSet(t *testing.T) {
	topo := ir.NewTopologyGraph()
	topo.AddDevice(&ir.Device{Name: "Y0", Kind: ast.KindDigitalOutput})
	topo.AddDevice(&ir.Device{Name: "valve_A", Kind: ast.KindSolenoidValve, ConnectedTo: "Y0"})
	topo.AddDevice(&ir.Device{Name: "cyl_A", Kind: ast.KindCylinder, ConnectedTo: "valve_A"})
	topo.AddDevice(&ir.Device{Name: "sensor_A_ext", Kind: ast.KindSensor, ConnectedTo: "X0", Detects: "cyl_A"})

	out := WriteGraphvizTopology(topo)
	for _, want := range []string{
		`"Y0" -> "valve_A" [label="connected_to"];`,
		`"valve_A" -> "cyl_A" [label="connected_to"];`,
		`"cyl_A" -> "sensor_A_ext" [label="detects"];`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected DOT output to contain %q, got:\n%s", want, out)
		}
	}
}
