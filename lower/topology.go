package lower

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/ir"
)

// lowerTopology resolves every device declaration, checking name
// uniqueness, required attributes, and connected_to/detects
// references, in that order - mirroring the ordered checks from
// spec §4.2.
func (l *lowerer) lowerTopology(decls []ast.DeviceDecl) {
	seen := make(map[string]ast.Location)
	for _, d := range decls {
		if prev, dup := seen[d.Name]; dup {
			l.errorf(d.Loc, fmt.Sprintf("device %q declared more than once", d.Name),
				fmt.Sprintf("first declared at %s", prev),
				"rename one of the devices")
			continue
		}
		seen[d.Name] = d.Loc

		dev := &ir.Device{Name: d.Name, Kind: d.Kind, Loc: d.Loc, Attrs: attrMap(d.Attrs)}
		if a, ok := d.Attr("connected_to"); ok && a.Kind == ast.AttrIdent {
			dev.ConnectedTo = a.Ident
		}
		if a, ok := d.Attr("detects"); ok && a.Kind == ast.AttrIdent {
			// detects names a dotted device state (cyl_A.extended); the
			// topology graph wires on devices, so only the device head
			// is kept - ir.Device.Detects is always a bare device name.
			dev.Detects = dottedHead(a.Ident)
		}
		if a, ok := d.Attr("response_time"); ok && a.Kind == ast.AttrDuration {
			dev.ResponseTimeMS = a.DurationMS
		}
		if a, ok := d.Attr("stroke_time"); ok && a.Kind == ast.AttrDuration {
			dev.StrokeTimeMS = a.DurationMS
		}
		if a, ok := d.Attr("retract_time"); ok && a.Kind == ast.AttrDuration {
			dev.RetractTimeMS = a.DurationMS
		}
		if a, ok := d.Attr("ramp_time"); ok && a.Kind == ast.AttrDuration {
			dev.RampTimeMS = a.DurationMS
		}

		l.checkRequiredAttrs(d, dev)
		l.devices.AddDevice(dev)
	}

	// Second pass: connected_to/detects must resolve to a declared
	// device, and connected_to must not form a cycle.
	for _, name := range l.devices.Order {
		dev := l.devices.Devices[name]
		if dev.ConnectedTo != "" {
			if _, ok := l.devices.Devices[dev.ConnectedTo]; !ok {
				l.errorf(dev.Loc, fmt.Sprintf("device %q connects to undeclared device %q", dev.Name, dev.ConnectedTo),
					"connected_to must name a device declared in [topology]",
					fmt.Sprintf("declare %q or fix the typo", dev.ConnectedTo))
			}
		}
		if dev.Detects != "" {
			if _, ok := l.devices.Devices[dev.Detects]; !ok {
				l.errorf(dev.Loc, fmt.Sprintf("sensor %q detects undeclared device %q", dev.Name, dev.Detects),
					"detects must name <device>.<state> of a declared device",
					fmt.Sprintf("declare %q or fix the typo", dev.Detects))
			}
		}
	}
	l.checkConnectedToCycles()
}

// requiredAttrs lists, per kind, the attribute keys spec §3 marks
// required.
var requiredAttrs = map[ast.DeviceKind][]string{
	ast.KindSolenoidValve: {"connected_to", "response_time"},
	ast.KindCylinder:      {"connected_to", "stroke_time", "retract_time"},
	ast.KindSensor:        {"connected_to", "detects"},
	ast.KindMotor:         {"connected_to"},
}

func (l *lowerer) checkRequiredAttrs(d ast.DeviceDecl, dev *ir.Device) {
	for _, key := range requiredAttrs[d.Kind] {
		if _, ok := d.Attr(key); !ok {
			l.errorf(d.Loc, fmt.Sprintf("%s %q is missing required attribute %q", d.Kind, d.Name, key),
				fmt.Sprintf("%s devices must declare %q", d.Kind, key),
				fmt.Sprintf("add %q: ... to the device block", key))
		}
	}
}

// checkConnectedToCycles walks connected_to chains from every device
// and reports a cycle at most once per participating device, using
// the classic white/gray/black DFS coloring.
func (l *lowerer) checkConnectedToCycles() {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(l.devices.Order))
	var visit func(name string, path []string) bool
	visit = func(name string, path []string) bool {
		dev, ok := l.devices.Devices[name]
		if !ok {
			return false
		}
		color[name] = gray
		path = append(path, name)
		if dev.ConnectedTo != "" {
			switch color[dev.ConnectedTo] {
			case gray:
				l.errorf(dev.Loc, fmt.Sprintf("connected_to cycle involving %q", dev.ConnectedTo),
					fmt.Sprintf("cycle: %v", append(path, dev.ConnectedTo)),
					"break the cycle by removing one connected_to edge")
				return true
			case white:
				if visit(dev.ConnectedTo, path) {
					return true
				}
			}
		}
		color[name] = black
		return false
	}
	for _, name := range l.devices.Order {
		if color[name] == white {
			visit(name, nil)
		}
	}
}

func attrMap(attrs []ast.Attr) map[string]ast.Attr {
	m := make(map[string]ast.Attr, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a
	}
	return m
}
