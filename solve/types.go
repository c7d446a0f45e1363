package solve

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/solver"
)

// Sentinel errors for solve.
var (
	// ErrSolveFailure is wrapped by every SolveFailure.
	ErrSolveFailure = errors.New("solve: no optimal solution")

	// ErrNilModel is returned when Run receives a nil optimizer.
	ErrNilModel = errors.New("solve: optimizer is nil")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("solve: invalid option supplied")
)

// SolveFailure is a terminal non-optimal status after every retry was
// spent. IISPath names the persisted IIS when the program was infeasible.
type SolveFailure struct {
	Status  solver.Status
	IISPath string
}

func (e *SolveFailure) Error() string {
	if e.IISPath != "" {
		return fmt.Sprintf("solve: terminal status %s, IIS written to %s", e.Status, e.IISPath)
	}
	return fmt.Sprintf("solve: terminal status %s", e.Status)
}

// Unwrap makes errors.Is(err, ErrSolveFailure) hold.
func (e *SolveFailure) Unwrap() error { return ErrSolveFailure }

// Retry names an escalation step of the state machine.
type Retry int

const (
	// RetryDualReductions re-solves an INF_OR_UNBOUNDED program with dual
	// reductions off.
	RetryDualReductions Retry = iota
	// RetryNumericFocus re-solves a NUMERIC program with numeric focus 2
	// and the homogeneous barrier.
	RetryNumericFocus
)

func (r Retry) String() string {
	if r == RetryNumericFocus {
		return "numeric-focus"
	}
	return "dual-reductions"
}

// Outcome is the terminal state of a Run.
type Outcome struct {
	SessionID uuid.UUID
	Status    solver.Status
	// SolCount is the number of feasible solutions found; 0 is a valid
	// outcome, not an error.
	SolCount int
	// Runtime is the wall-clock time summed over every attempt.
	Runtime  time.Duration
	Attempts int
	Retries  []Retry
	// IISPath is set once an IIS was written.
	IISPath string
}

// Solved reports whether at least one feasible solution is available.
func (o *Outcome) Solved() bool { return o.SolCount > 0 }

// Failure returns a *SolveFailure unless the status is OPTIMAL.
func (o *Outcome) Failure() error {
	if o.Status == solver.Optimal {
		return nil
	}
	return &SolveFailure{Status: o.Status, IISPath: o.IISPath}
}

// Option configures Run.
type Option func(*Options)

// Options holds Run parameters.
type Options struct {
	Logger    *zap.Logger
	SessionID uuid.UUID
	// Start lists variables warm-started at 1 before the first solve.
	Start []solver.Var
	// IISPath is where an IIS is persisted; empty disables IIS computation.
	IISPath string

	err error
}

// DefaultOptions returns a no-op logger, a fresh session id and no IIS.
func DefaultOptions() Options {
	return Options{Logger: zap.NewNop(), SessionID: uuid.New()}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			o.err = fmt.Errorf("%w: nil logger", ErrOptionViolation)
			return
		}
		o.Logger = l
	}
}

// WithSessionID stamps the run with id instead of a fresh one.
func WithSessionID(id uuid.UUID) Option {
	return func(o *Options) {
		if id == uuid.Nil {
			o.err = fmt.Errorf("%w: nil session id", ErrOptionViolation)
			return
		}
		o.SessionID = id
	}
}

// WithStart warm-starts vars at 1.
func WithStart(vars []solver.Var) Option {
	return func(o *Options) { o.Start = vars }
}

// WithIISPath sets the IIS destination.
func WithIISPath(path string) Option {
	return func(o *Options) { o.IISPath = path }
}
