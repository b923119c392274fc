package diag

import (
	"strings"
	"testing"

	"github.com/rustplc/compiler/ast"
)

func TestDiagnosticStringContainsRequiredTags(t *testing.T) {
	d := New(KindSafety, EngineSafety, ast.Location{File: "cell.plc", Line: 12, Column: 3},
		"conflicts_with violated", "cyl_A.extended and cyl_B.extended hold simultaneously",
		"reached via parallel join at step join_1", "serialize extend_A and extend_B")

	s := d.String()
	if !strings.Contains(s, "位置:") {
		t.Fatalf("expected 位置: in %q", s)
	}
	if !strings.Contains(s, "建议:") {
		t.Fatalf("expected 建议: in %q", s)
	}
	if !strings.Contains(s, "ERROR [safety]") {
		t.Fatalf("expected engine tag in %q", s)
	}
}

func TestLessOrdersByEngineThenLocation(t *testing.T) {
	a := Diagnostic{Engine: EngineCausality, Loc: ast.Location{Line: 5}}
	b := Diagnostic{Engine: EngineSafety, Loc: ast.Location{Line: 1}}
	if !Less(b, a) {
		t.Fatalf("expected safety to sort before causality")
	}

	x := Diagnostic{Engine: EngineSafety, Loc: ast.Location{Line: 1}, Summary: "a"}
	y := Diagnostic{Engine: EngineSafety, Loc: ast.Location{Line: 1}, Summary: "b"}
	if !Less(x, y) {
		t.Fatalf("expected equal-location diagnostics to tiebreak on summary")
	}
}
