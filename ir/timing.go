package ir

// TimingModel resolves the physical duration contributed by a state's
// actions, by looking up the acting device's timing attributes (and,
// for actuators with an upstream solenoid valve, adding the valve's
// response_time). It holds no mutable state of its own beyond the
// topology it was built from.
type TimingModel struct {
	Topology *TopologyGraph
}

// NewTimingModel builds a TimingModel over topo.
func NewTimingModel(topo *TopologyGraph) *TimingModel {
	return &TimingModel{Topology: topo}
}

// ActionDuration returns the worst-case milliseconds a single action
// contributes: a cylinder's stroke or retract time plus its upstream
// valve's response_time, if wired; a motor's ramp_time for `set on`;
// zero for every other set and for log actions, which are treated as
// instantaneous.
func (t *TimingModel) ActionDuration(a Action) uint32 {
	dev, ok := t.Topology.Devices[a.Target]
	if !ok {
		return 0
	}
	var base uint32
	switch a.Verb {
	case "extend":
		base = dev.StrokeTimeMS
	case "retract":
		base = dev.RetractTimeMS
	case "set":
		if dev.Kind == "motor" && a.State == "on" {
			return dev.RampTimeMS
		}
		return 0
	default:
		return 0
	}
	if dev.ConnectedTo != "" {
		if valve, ok := t.Topology.Devices[dev.ConnectedTo]; ok {
			base += valve.ResponseTimeMS
		}
	}
	return base
}

// ActionDurationUndeclared reports whether a resolves to 0 because the
// driving device left the relevant timing attribute undeclared, rather
// than because the action is legitimately instantaneous. The only
// device kind this currently applies to is a motor's `set on`, since
// ramp_time is the one timing attribute the lowerer does not require.
func (t *TimingModel) ActionDurationUndeclared(a Action) bool {
	dev, ok := t.Topology.Devices[a.Target]
	if !ok || a.Verb != "set" || a.State != "on" || dev.Kind != "motor" {
		return false
	}
	_, has := dev.Attrs["ramp_time"]
	return !has
}

// StateDuration sums the duration of every action entering s; actions
// within one state fire together on entry, but their physical effects
// are conservatively treated as sequential contributions to worst-case
// critical-path analysis (an actuator's stroke genuinely blocks the
// next transition until a wait observes it).
func (t *TimingModel) StateDuration(s *State) uint32 {
	var total uint32
	for _, a := range s.Actions {
		total += t.ActionDuration(a)
	}
	return total
}
