// Package ir is the semantic intermediate representation the four
// verification engines operate over: a topology graph of physical
// devices, a desugared state machine per task, a resolved constraint
// set, and a timing model. None of it retains AST nodes - every
// reference has already been resolved to a concrete IR pointer or
// name, the way kripke.Graph resolves state names to StateIDs once,
// up front, rather than re-resolving strings at query time.
package ir

import "github.com/rustplc/compiler/ast"

// Device is one physical unit from [topology], its kind-specific
// timing attributes, and its resolved wiring.
type Device struct {
	Name string
	Kind ast.DeviceKind
	Loc  ast.Location

	// ConnectedTo is the resolved upstream device name of any device
	// that declares connected_to ("" if absent).
	ConnectedTo string
	// Detects is the resolved device name a sensor observes ("" for
	// non-sensors or a sensor with no detects attribute).
	Detects string

	ResponseTimeMS uint32 // solenoid_valve: coil energize-to-flow delay
	StrokeTimeMS   uint32 // cylinder: extend duration
	RetractTimeMS  uint32 // cylinder: retract duration
	RampTimeMS     uint32 // motor: time from `set on` to rated speed

	Attrs map[string]ast.Attr // full attribute set, for engines needing raw access
}

// TopologyGraph is the resolved physical wiring: devices plus the
// connected_to/detects edges between them, stored both ways for O(1)
// traversal in either direction (mirrors kripke.Graph's succ/pred
// split, generalized to a device graph instead of a state graph).
type TopologyGraph struct {
	Devices map[string]*Device
	// Order is Devices' keys in declaration order, the iteration order
	// every engine and the diagram renderer must use to stay deterministic.
	Order []string

	// downstream[d] lists devices whose connected_to or detects names d.
	downstream map[string][]string
}

// NewTopologyGraph constructs an empty graph.
func NewTopologyGraph() *TopologyGraph {
	return &TopologyGraph{
		Devices:    make(map[string]*Device),
		downstream: make(map[string][]string),
	}
}

// AddDevice registers a device and indexes its wiring edges.
func (g *TopologyGraph) AddDevice(d *Device) {
	g.Devices[d.Name] = d
	g.Order = append(g.Order, d.Name)
	if d.ConnectedTo != "" {
		g.downstream[d.ConnectedTo] = append(g.downstream[d.ConnectedTo], d.Name)
	}
	if d.Detects != "" {
		g.downstream[d.Detects] = append(g.downstream[d.Detects], d.Name)
	}
}

// Downstream returns the devices that list name as their upstream
// connected_to or detects target, in declaration order.
func (g *TopologyGraph) Downstream(name string) []string {
	return g.downstream[name]
}

// Reachable returns the set of device names reachable from start by
// following connected_to/detects edges forward, start included.
func (g *TopologyGraph) Reachable(start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.downstream[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
