package formulation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Sentinel errors for formulation.
var (
	// ErrConfig is wrapped by every ConfigError.
	ErrConfig = errors.New("formulation: invalid configuration")

	// ErrNilNetwork is returned when Build receives a nil network.
	ErrNilNetwork = errors.New("formulation: network is nil")

	// ErrNilModel is returned when Build receives a nil solver model.
	ErrNilModel = errors.New("formulation: solver model is nil")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("formulation: invalid option supplied")
)

// ConfigError reports an illegal or contradictory configuration. Option
// names the offending setting.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("formulation: option %s: %s", e.Option, e.Reason)
}

// Unwrap makes errors.Is(err, ErrConfig) hold.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// Family selects the physical model.
type Family int

const (
	AC Family = iota
	DC
	IV
)

func (f Family) String() string {
	switch f {
	case AC:
		return "AC"
	case DC:
		return "DC"
	case IV:
		return "IV"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// VoltageRep selects how AC voltages are represented.
type VoltageRep int

const (
	Rectangular VoltageRep = iota
	Polar
)

func (v VoltageRep) String() string {
	if v == Polar {
		return "polar"
	}
	return "rectangular"
}

// Switching selects the branch switching model.
type Switching int

const (
	SwitchingNone Switching = iota
	SwitchingMIP
	SwitchingComplementarity
)

func (s Switching) String() string {
	switch s {
	case SwitchingNone:
		return "none"
	case SwitchingMIP:
		return "mip"
	case SwitchingComplementarity:
		return "complementarity"
	}
	return fmt.Sprintf("Switching(%d)", int(s))
}

// IVVariant selects how IV branch power is expressed.
type IVVariant int

const (
	// IVAggressive substitutes the current definitions into the power
	// expressions.
	IVAggressive IVVariant = iota
	// IVPlain keeps explicit branch current variables.
	IVPlain
)

func (v IVVariant) String() string {
	if v == IVPlain {
		return "plain"
	}
	return "aggressive"
}

// BuildConfig is the recognized option set of a build.
type BuildConfig struct {
	Family                    Family
	Voltage                   VoltageRep
	UseJabr                   bool
	Switching                 Switching
	MinActiveBranchFraction   float64
	UseActiveLossInequalities bool
	IVVariant                 IVVariant
	QuadraticCostAsAuxVar     bool

	// FixTolerance is the half-width of the window around a supplied input
	// voltage or angle that bounds the corresponding variables.
	FixTolerance float64
}

// DefaultConfig returns an exact rectangular AC build without switching.
func DefaultConfig() BuildConfig {
	return BuildConfig{
		Family:                  AC,
		Voltage:                 Rectangular,
		MinActiveBranchFraction: 0.9,
		IVVariant:               IVAggressive,
		FixTolerance:            1e-5,
	}
}

// Notice records an option Build changed to make the configuration legal.
type Notice struct {
	Option  string
	Message string
}

func (n Notice) String() string { return n.Option + ": " + n.Message }

// Option configures Build.
type Option func(*Options)

// Options holds Build parameters that are not part of the model.
type Options struct {
	Logger *zap.Logger
	err    error
}

// DefaultOptions returns a no-op logger.
func DefaultOptions() Options {
	return Options{Logger: zap.NewNop()}
}

// WithLogger sets the build logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			o.err = fmt.Errorf("%w: nil logger", ErrOptionViolation)
			return
		}
		o.Logger = l
	}
}
