package ast

// File is the root of a parsed .plc source file: three ordered
// sections, always topology, then constraints, then tasks. The parser
// rejects any other section order as a syntax error.
type File struct {
	Topology    []DeviceDecl
	Constraints []ConstraintDecl
	Tasks       []TaskDecl
	Loc         Location
}

// DeviceKind enumerates the fixed set of device kinds from spec.md §3.
type DeviceKind string

const (
	KindDigitalOutput DeviceKind = "digital_output"
	KindDigitalInput  DeviceKind = "digital_input"
	KindSolenoidValve DeviceKind = "solenoid_valve"
	KindCylinder      DeviceKind = "cylinder"
	KindMotor         DeviceKind = "motor"
	KindSensor        DeviceKind = "sensor"
)

// Attr is one `key: value` pair inside a device's `{ ... }` block.
// Value holds exactly one of the typed fields, selected by Kind.
type Attr struct {
	Key  string
	Kind AttrKind
	// Ident is set for bare-identifier and dotted-state-ref values
	// (e.g. connected_to: valve_A, detects: cyl_A.extended).
	Ident string
	// DurationMS is set for duration literals (e.g. response_time: 20ms).
	DurationMS uint32
	// Str is set for quoted string values.
	Str string
	// Bool is set for true/false values.
	Bool bool
	Loc  Location
}

// AttrKind tags which field of Attr is populated.
type AttrKind int

const (
	AttrIdent AttrKind = iota
	AttrDuration
	AttrString
	AttrBool
)

// DeviceDecl declares one device in [topology].
type DeviceDecl struct {
	Kind  DeviceKind
	Name  string
	Attrs []Attr
	Loc   Location
}

// Attr looks up an attribute by key, returning ok=false if absent.
func (d DeviceDecl) Attr(key string) (Attr, bool) {
	for _, a := range d.Attrs {
		if a.Key == key {
			return a, true
		}
	}
	return Attr{}, false
}

// ConstraintKind distinguishes the three families of [constraints] items.
type ConstraintKind string

const (
	ConstraintSafety    ConstraintKind = "safety"
	ConstraintTiming    ConstraintKind = "timing"
	ConstraintCausality ConstraintKind = "causality"
)

// SafetyRelation is the relation between two state expressions in a
// safety constraint.
type SafetyRelation string

const (
	RelConflictsWith SafetyRelation = "conflicts_with"
	RelRequires      SafetyRelation = "requires"
)

// TimingRelation distinguishes the two timing constraint shapes.
type TimingRelation string

const (
	RelMustCompleteWithin TimingRelation = "must_complete_within"
	RelMustStartAfter     TimingRelation = "must_start_after"
)

// StateExpr is a boolean expression over device/sensor states, timers,
// and logical connectives, as used in safety constraints, wait guards,
// and race conditions.
//
//	cyl_A.extended                 -> StateRef
//	sensor_A_ext == true            -> Compare
//	elapsed >= 400                  -> Compare (against a timer)
//	not (cyl_A.extended)             -> Not
//	cyl_A.extended and cyl_B.extended -> And / Or
type StateExpr struct {
	Op ExprOp
	// Ref is the dotted reference for Ref and Compare nodes, e.g.
	// "cyl_A.extended" or a bare input/sensor/timer name.
	Ref string
	// CompareOp is the comparison operator text ("==", ">=", ">",
	// "<=", "<") for Compare nodes, empty otherwise.
	CompareOp string
	// Value is the RHS literal for Compare nodes ("true", "false", or
	// an unsigned integer in decimal text).
	Value string
	Sub   []StateExpr // operands for And/Or/Not
	Loc   Location
}

// ExprOp enumerates the expression node shapes.
type ExprOp int

const (
	ExprRef ExprOp = iota
	ExprCompare
	ExprNot
	ExprAnd
	ExprOr
)

// ConstraintDecl is one item in [constraints].
type ConstraintDecl struct {
	Kind ConstraintKind
	Loc  Location
	Reason string // optional `reason: "..."`, empty if absent

	// safety
	SafetyLeft, SafetyRight StateExpr
	SafetyRel               SafetyRelation

	// timing
	TimingScope ScopeRef
	TimingRel   TimingRelation
	TimingMS    uint32

	// causality
	CausalityChain []string // ordered device names D1 -> D2 -> ... -> Dk
}

// ScopeRef names the scope of a timing constraint: task.T or
// task.T.step.S.
type ScopeRef struct {
	Task string
	Step string // empty if the scope is the whole task
	Loc  Location
}

// TaskDecl declares one task in [tasks]: an ordered list of steps plus
// an optional on_complete edge.
type TaskDecl struct {
	Name       string
	Steps      []StepDecl
	OnComplete *OnComplete // nil if the task has none
	Loc        Location
}

// OnComplete is either `goto <task>` or the literal `unreachable`.
type OnComplete struct {
	Unreachable bool
	GotoTask    string
	Loc         Location
}

// StepDecl is one step inside a task body. Actions may be combined
// with at most one of Wait, Parallel, Race, or Goto, mirroring how the
// grammar admits different step bodies.
type StepDecl struct {
	Name                string
	Actions             []ActionDecl
	Wait                *WaitDecl
	Parallel            *ParallelDecl
	Race                *RaceDecl
	Goto                string // non-empty if the step body is a bare `goto`
	AllowIndefiniteWait bool
	Loc                 Location
}

// ActionDecl is one primitive output effect: extend/retract a
// cylinder, set a digital output, or log a message.
type ActionDecl struct {
	Verb   ActionVerb
	Target string // device name
	State  string // "on"/"off" for `set`, empty otherwise
	Text   string // message text for `log`
	Loc    Location
}

// ActionVerb enumerates the primitive action verbs from the GLOSSARY.
type ActionVerb string

const (
	ActionExtend  ActionVerb = "extend"
	ActionRetract ActionVerb = "retract"
	ActionSet     ActionVerb = "set"
	ActionLog     ActionVerb = "log"
)

// WaitDecl is a `wait: <expr>` step body, with an optional timeout
// sibling transition.
type WaitDecl struct {
	Cond                StateExpr
	Timeout             *TimeoutDecl // nil if absent
	AllowIndefiniteWait bool
	Loc                 Location
}

// TimeoutDecl is `timeout: Tms -> goto T`.
type TimeoutDecl struct {
	MS       uint32
	GotoTask string
	Loc      Location
}

// ParallelDecl is `parallel { branch_1: ... branch_N: ... }`.
type ParallelDecl struct {
	Branches []BranchDecl
	Loc      Location
}

// RaceDecl is `race { branch_i: wait ... then: goto Ti }`.
type RaceDecl struct {
	Branches []RaceBranchDecl
	Timeout  *TimeoutDecl
	Loc      Location
}

// BranchDecl is one named branch of a parallel block: a sequence of
// steps executed as its own sub-chain.
type BranchDecl struct {
	Name  string
	Steps []StepDecl
	Loc   Location
}

// RaceBranchDecl is one named branch of a race block.
type RaceBranchDecl struct {
	Name string
	Wait WaitDecl
	Then string // goto target task/step on this branch winning
	Loc  Location
}
