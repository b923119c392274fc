package verify

import (
	"testing"

	"github.com/rustplc/compiler/ir"
)

func twoStateMachine(aOut, bOut []ir.Transition) *ir.StateMachine {
	m := ir.NewStateMachine()
	m.AddState(&ir.State{Name: "t.a", Task: "t", Outgoing: aOut})
	m.AddState(&ir.State{Name: "t.b", Task: "t", Outgoing: bOut})
	m.AddTask(&ir.Task{Name: "t", EntryState: "t.a", States: []string{"t.a", "t.b"}})
	return m
}

func TestTarjanSCCFindsMutualCycle(t *testing.T) {
	m := twoStateMachine(
		[]ir.Transition{{Target: "t.b", Kind: ir.TransGoto}},
		[]ir.Transition{{Target: "t.a", Kind: ir.TransGoto}},
	)
	comps := tarjanSCC(m)

	var found bool
	for _, c := range comps {
		if len(c) == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 2-member SCC, got %v", comps)
	}
}

func TestCheckTrappingSCCsFlagsCycleWithNoEscape(t *testing.T) {
	m := twoStateMachine(
		[]ir.Transition{{Target: "t.b", Kind: ir.TransGoto}},
		[]ir.Transition{{Target: "t.a", Kind: ir.TransGoto}},
	)
	diags := checkTrappingSCCs(m)
	if len(diags) != 1 {
		t.Fatalf("expected exactly one trapping-cycle diagnostic, got %d: %v", len(diags), diags)
	}
}

func TestCheckTrappingSCCsIgnoresCycleWithTimeoutEscape(t *testing.T) {
	m := twoStateMachine(
		[]ir.Transition{{Target: "t.b", Kind: ir.TransGoto}},
		[]ir.Transition{
			{Target: "t.a", Kind: ir.TransGoto},
			{Target: "t.fault", Kind: ir.TransTimeout, DurationMS: 100},
		},
	)
	m.AddState(&ir.State{Name: "t.fault", Task: "t"})
	diags := checkTrappingSCCs(m)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics once one member has a timeout escape, got %v", diags)
	}
}

func TestCheckTrappingSCCsIgnoresAllowIndefiniteWaitSink(t *testing.T) {
	m := ir.NewStateMachine()
	m.AddState(&ir.State{Name: "t.a", Task: "t", AllowIndefiniteWait: true, Outgoing: []ir.Transition{
		{Target: "t.b", Kind: ir.TransGoto},
	}})
	m.AddState(&ir.State{Name: "t.b", Task: "t", Outgoing: []ir.Transition{
		{Target: "t.a", Kind: ir.TransGoto},
	}})
	m.AddTask(&ir.Task{Name: "t", EntryState: "t.a", States: []string{"t.a", "t.b"}})

	diags := checkTrappingSCCs(m)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics when a cycle member allows indefinite wait, got %v", diags)
	}
}

func TestCheckTrappingSCCsIgnoresAcyclicChain(t *testing.T) {
	m := twoStateMachine(
		[]ir.Transition{{Target: "t.b", Kind: ir.TransImmediate}},
		nil,
	)
	diags := checkTrappingSCCs(m)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics for a plain acyclic chain, got %v", diags)
	}
}
