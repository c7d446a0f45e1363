package opf

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/lpsolver"
	"github.com/katalvlaran/gridopf/solver"
)

// Sentinel errors for opf.
var (
	// ErrNilInput is returned when settings or case data are missing.
	ErrNilInput = errors.New("opf: settings and case are required")

	// ErrNoVoltages is returned by Violations when the settings name no
	// voltage source.
	ErrNoVoltages = errors.New("opf: no voltages to evaluate, set voltsfilename or usevoltsolution")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("opf: invalid option supplied")
)

// Option configures a pipeline run.
type Option func(*Options)

// Options holds the collaborators of a run.
type Options struct {
	Logger *zap.Logger
	// Factory opens the solver session; one model per run.
	Factory solver.Factory
	// SessionID stamps the run's log lines; Nil draws a fresh one.
	SessionID uuid.UUID
	err       error
}

// DefaultOptions solves with the built-in LP/MILP backend and logs nowhere.
func DefaultOptions() Options {
	return Options{
		Logger:  zap.NewNop(),
		Factory: lpsolver.Factory(),
	}
}

// WithLogger sets the pipeline logger; it is handed to every stage.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			o.err = fmt.Errorf("%w: nil logger", ErrOptionViolation)
			return
		}
		o.Logger = l
	}
}

// WithFactory replaces the solver backend.
func WithFactory(f solver.Factory) Option {
	return func(o *Options) {
		if f == nil {
			o.err = fmt.Errorf("%w: nil solver factory", ErrOptionViolation)
			return
		}
		o.Factory = f
	}
}

// WithSessionID fixes the session id.
func WithSessionID(id uuid.UUID) Option {
	return func(o *Options) { o.SessionID = id }
}
