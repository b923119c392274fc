package lower

import (
	"testing"

	"github.com/rustplc/compiler/parser"
)

func TestLowerTopologyResolvesDetectsToBareDeviceName(t *testing.T) {
	f, err := parser.ParseFile(singleCylinderSource, "s1.plc")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Lower(f)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}

	sensor, ok := res.Topology.Devices["sensor_A_ext"]
	if !ok {
		t.Fatalf("expected sensor_A_ext in topology")
	}
	if sensor.Detects != "cyl_A" {
		t.Fatalf("expected Detects to resolve to the bare device name %q, got %q", "cyl_A", sensor.Detects)
	}

	reach := res.Topology.Reachable("Y0")
	if !reach["sensor_A_ext"] {
		t.Fatalf("expected sensor_A_ext to be reachable from Y0 through valve_A -> cyl_A -> detects, got %v", reach)
	}
}
