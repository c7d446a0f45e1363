package lpsolver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Sentinel errors for lpsolver.
var (
	// ErrModelFeasible is returned by ComputeIIS when the relaxation is feasible.
	ErrModelFeasible = errors.New("lpsolver: model is feasible, no IIS exists")

	// ErrNoIIS is returned by WriteIIS before a successful ComputeIIS.
	ErrNoIIS = errors.New("lpsolver: IIS not computed")

	// ErrParamFile is returned for a malformed parameter file line.
	ErrParamFile = errors.New("lpsolver: malformed parameter file")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("lpsolver: invalid option supplied")
)

const (
	// fixTol is the bound gap below which a variable is substituted out.
	fixTol = 1e-12
	// intTol is the distance from an integer below which a binary is integral.
	intTol = 1e-6
	// simplexTol is the reduced-cost tolerance handed to the simplex.
	simplexTol = 1e-10
	// rankTol is the pivot threshold of equality-row rank reduction.
	rankTol = 1e-9

	defaultMaxNodes = 100000
)

// Option configures a Model via functional arguments.
// Invalid values are recorded and surfaced as ErrOptionViolation by New.
type Option func(*Options)

// Options holds Model construction parameters.
type Options struct {
	// Logger receives solve progress. Defaults to a no-op logger.
	Logger *zap.Logger

	// MaxNodes caps branch-and-bound nodes; hitting it ends the search as
	// INTERRUPTED.
	MaxNodes int

	err error
}

// DefaultOptions returns a no-op logger and a 100000 node cap.
func DefaultOptions() Options {
	return Options{
		Logger:   zap.NewNop(),
		MaxNodes: defaultMaxNodes,
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMaxNodes sets the branch-and-bound node cap (n > 0).
func WithMaxNodes(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			o.err = fmt.Errorf("%w: MaxNodes must be positive (%d)", ErrOptionViolation, n)
			return
		}
		o.MaxNodes = n
	}
}
