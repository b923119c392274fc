package rustplc

import "github.com/rs/zerolog"

// Config holds every recognized compiler option (spec.md §6). Unknown
// options passed via a foreign Option implementation are simply
// ignored, matching the spec's "unknown options are ignored" rule.
type Config struct {
	// BMCMaxDepth caps BMC unrolling once the exhaustive threshold is
	// exceeded (Safety has no k-induction step).
	BMCMaxDepth int
	// ExhaustiveThreshold is the composite-state count under which
	// Safety runs full reachability instead of BMC.
	ExhaustiveThreshold int
	// TreatUndeclaredTimingAsWarning downgrades an action with no
	// timing attributes from silence to a warning diagnostic.
	TreatUndeclaredTimingAsWarning bool
	// Parallel runs the four verification engines concurrently via
	// errgroup instead of sequentially. Diagnostics are resorted
	// deterministically either way.
	Parallel bool
	// Logger receives Compile's structured output: a debug line after
	// lowering and a trace line once Safety finishes.
	// Disabled by default: the core never logs unless a caller opts in.
	Logger zerolog.Logger
}

// defaultConfig returns the spec-mandated defaults.
func defaultConfig() Config {
	return Config{
		BMCMaxDepth:                    64,
		ExhaustiveThreshold:            256,
		TreatUndeclaredTimingAsWarning: true,
		Parallel:                       false,
		Logger:                         zerolog.Nop(),
	}
}

// Option mutates a Config; functional-options keep Compile's signature
// stable as new options are added.
type Option func(*Config)

// WithBMCMaxDepth overrides the BMC unrolling depth cap.
func WithBMCMaxDepth(n int) Option {
	return func(c *Config) { c.BMCMaxDepth = n }
}

// WithExhaustiveThreshold overrides the exhaustive-reachability composite-state cap.
func WithExhaustiveThreshold(n int) Option {
	return func(c *Config) { c.ExhaustiveThreshold = n }
}

// WithTreatUndeclaredTimingAsWarning overrides the undeclared-timing severity.
func WithTreatUndeclaredTimingAsWarning(b bool) Option {
	return func(c *Config) { c.TreatUndeclaredTimingAsWarning = b }
}

// WithParallel enables concurrent execution of the four verification engines.
func WithParallel(b bool) Option {
	return func(c *Config) { c.Parallel = b }
}

// WithLogger installs a caller-supplied structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
