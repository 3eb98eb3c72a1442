package fzn

import "time"

// Config carries the presolver's and back-end adapter's tunables as an
// explicit struct rather than process globals (Design Notes: "Global
// mutable state ... should be carried as an explicit configuration
// struct").
type Config struct {
	// Presolve enables the rule-driven rewriter. When false, the pipeline
	// skips straight from parsing to the extraction scheduler.
	Presolve bool

	// Workers selects between the single-threaded search path (0 or 1)
	// and the parallel search driver (>1). cmd/fznc reads it to choose
	// between search.Run and search.RunParallel; package fzn itself does
	// not consult it.
	Workers int

	// UseSAT records the --use_sat flag. No stage of the pipeline reads
	// it: the back-end adapter is not given the Config, and Cleanup strips
	// targets from SAT-unfriendly constraints whether or not it is set.
	UseSAT bool

	// Deadline, if non-zero, is the cooperative cancellation point the
	// presolver checks between passes (§5: "a single cooperative check on
	// a caller-provided deadline between presolve passes").
	Deadline time.Time
}

// DefaultConfig returns the configuration used when none is supplied:
// presolve enabled, single-threaded, no SAT routing, no deadline.
func DefaultConfig() *Config {
	return &Config{Presolve: true, Workers: 1}
}

// DeadlineExceeded reports whether the configured deadline, if any, has
// passed.
func (c *Config) DeadlineExceeded() bool {
	return !c.Deadline.IsZero() && time.Now().After(c.Deadline)
}
