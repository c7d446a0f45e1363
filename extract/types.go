package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Sentinel errors for extract.
var (
	// ErrNilProgram is returned when Extract receives no program.
	ErrNilProgram = errors.New("extract: program is nil")

	// ErrNilOutcome is returned when Extract receives no solve outcome.
	ErrNilOutcome = errors.New("extract: solve outcome is nil")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("extract: invalid option supplied")
)

// Result is the case-shaped solution record: the static case tables in
// their original units, overwritten with solved values when a solution
// exists.
type Result struct {
	BaseMVA float64 `yaml:"baseMVA" json:"baseMVA"`
	// Success is 1 when at least one feasible solution was found.
	Success int `yaml:"success" json:"success"`
	// F is the objective; set only on success.
	F float64 `yaml:"f" json:"f"`
	// ET is the solver runtime in seconds.
	ET     float64 `yaml:"et" json:"et"`
	Status string  `yaml:"status" json:"status"`

	Buses      []BusResult    `yaml:"bus" json:"bus"`
	Generators []GenResult    `yaml:"gen" json:"gen"`
	Branches   []BranchResult `yaml:"branch" json:"branch"`
}

// BusResult is one bus row. Va is in radians once solved.
type BusResult struct {
	ID     int     `yaml:"bus_i" json:"bus_i"`
	Type   int     `yaml:"type" json:"type"`
	Pd     float64 `yaml:"Pd" json:"Pd"`
	Qd     float64 `yaml:"Qd" json:"Qd"`
	Gs     float64 `yaml:"Gs" json:"Gs"`
	Bs     float64 `yaml:"Bs" json:"Bs"`
	Area   int     `yaml:"area" json:"area"`
	Vm     float64 `yaml:"Vm" json:"Vm"`
	Va     float64 `yaml:"Va" json:"Va"`
	BaseKV float64 `yaml:"baseKV" json:"baseKV"`
	Zone   int     `yaml:"zone" json:"zone"`
	Vmax   float64 `yaml:"Vmax" json:"Vmax"`
	Vmin   float64 `yaml:"Vmin" json:"Vmin"`
	// Mu is the locational marginal price in $/MWh (DC linear programs).
	Mu *float64 `yaml:"mu,omitempty" json:"mu,omitempty"`
}

// GenResult is one generator row with its restored cost vector.
type GenResult struct {
	Bus    int       `yaml:"bus" json:"bus"`
	Pg     float64   `yaml:"Pg" json:"Pg"`
	Qg     float64   `yaml:"Qg" json:"Qg"`
	Qmax   float64   `yaml:"Qmax" json:"Qmax"`
	Qmin   float64   `yaml:"Qmin" json:"Qmin"`
	Vg     float64   `yaml:"Vg" json:"Vg"`
	MBase  float64   `yaml:"mBase" json:"mBase"`
	Status int       `yaml:"status" json:"status"`
	Pmax   float64   `yaml:"Pmax" json:"Pmax"`
	Pmin   float64   `yaml:"Pmin" json:"Pmin"`
	Cost   []float64 `yaml:"costvector" json:"costvector"`
}

// BranchResult is one branch row with solved flows.
type BranchResult struct {
	From   int     `yaml:"fbus" json:"fbus"`
	To     int     `yaml:"tbus" json:"tbus"`
	R      float64 `yaml:"r" json:"r"`
	X      float64 `yaml:"x" json:"x"`
	B      float64 `yaml:"b" json:"b"`
	RateA  float64 `yaml:"rateA" json:"rateA"`
	RateB  float64 `yaml:"rateB" json:"rateB"`
	RateC  float64 `yaml:"rateC" json:"rateC"`
	Ratio  float64 `yaml:"ratio" json:"ratio"`
	Angle  float64 `yaml:"angle" json:"angle"`
	Status int     `yaml:"status" json:"status"`
	AngMin float64 `yaml:"angmin" json:"angmin"`
	AngMax float64 `yaml:"angmax" json:"angmax"`
	Pf     float64 `yaml:"Pf" json:"Pf"`
	Pt     float64 `yaml:"Pt" json:"Pt"`
	Qf     float64 `yaml:"Qf" json:"Qf"`
	Qt     float64 `yaml:"Qt" json:"Qt"`
	// Switching is 1 when the branch is on; 1 when switching was not
	// modeled.
	Switching int `yaml:"switching" json:"switching"`
}

// Option configures Extract.
type Option func(*Options)

// Options holds Extract parameters.
type Options struct {
	Logger *zap.Logger
	// Ctx bounds angle reconstruction.
	Ctx context.Context
	err error
}

// DefaultOptions returns a no-op logger and a background context.
func DefaultOptions() Options {
	return Options{Logger: zap.NewNop(), Ctx: context.Background()}
}

// WithContext sets the context angle reconstruction runs under.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx == nil {
			o.err = fmt.Errorf("%w: nil context", ErrOptionViolation)
			return
		}
		o.Ctx = ctx
	}
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
