package ir

import "github.com/rustplc/compiler/ast"

// SafetyConstraint is a resolved `safety: ... conflicts_with/requires
// ...` item: the two state expressions are carried as-is (they
// reference device/sensor names already validated to exist).
type SafetyConstraint struct {
	Left, Right ast.StateExpr
	Rel         ast.SafetyRelation
	Reason      string
	Loc         ast.Location
}

// TimingConstraint is a resolved `timing: ...` item: Task/Step name the
// scope the engine measures a critical path against directly (Step ""
// means the whole task, entry to __done__).
type TimingConstraint struct {
	Task    string
	Step    string // "" if the scope is the whole task
	Rel     ast.TimingRelation
	BoundMS uint32
	Reason  string
	Loc     ast.Location
}

// CausalityConstraint is a resolved `causality: D1 -> D2 -> ... -> Dk`
// item.
type CausalityConstraint struct {
	Chain  []string
	Reason string
	Loc    ast.Location
}

// ConstraintSet is every constraint declared in [constraints], grouped
// by family and kept in declaration order within each group.
type ConstraintSet struct {
	Safety    []SafetyConstraint
	Timing    []TimingConstraint
	Causality []CausalityConstraint
}
