package formulation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solver"
)

// FormulationStrategy is the family-specific part of a build. Strategies
// are stateless; all state lives in the Program.
type FormulationStrategy interface {
	Family() Family
	// CreateVariables adds every variable of the family, including the
	// shared injection, generator and cost variables.
	CreateVariables(p *Program) error
	// CreateConstraints adds every constraint; it runs after
	// CreateVariables.
	CreateConstraints(p *Program) error
	// ExtractSolution reads the values of a solved program.
	ExtractSolution(p *Program, sol solver.Solution) (*RawSolution, error)
}

// StrategyFor returns the strategy of a family.
func StrategyFor(f Family) (FormulationStrategy, error) {
	switch f {
	case DC:
		return dcStrategy{}, nil
	case AC:
		return acStrategy{}, nil
	case IV:
		return ivStrategy{}, nil
	}
	return nil, &ConfigError{Option: "family", Reason: "unknown formulation family " + f.String()}
}

// Build translates net into a mathematical program on model according to
// cfg. The configuration is normalized first; adjustments are returned in
// Program.Notices and logged. Build only adds to model.
func Build(net *network.Network, model solver.Model, cfg BuildConfig, opts ...Option) (*Program, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if net == nil {
		return nil, ErrNilNetwork
	}
	if model == nil {
		return nil, ErrNilModel
	}

	norm, notices, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	strategy, err := StrategyFor(norm.Family)
	if err != nil {
		return nil, err
	}

	log := o.Logger.With(zap.Stringer("family", norm.Family))
	for _, n := range notices {
		log.Warn("formulation: option adjusted", zap.String("option", n.Option), zap.String("reason", n.Message))
	}

	p := &Program{
		Model:    model,
		Network:  net,
		Config:   norm,
		Notices:  notices,
		Strategy: strategy,
		Vars:     newVars(),
		Constrs: Constrs{
			PBalance: map[*network.Bus]solver.Constr{},
			QBalance: map[*network.Bus]solver.Constr{},
			Groups:   map[string]int{},
		},
		log: log,
	}

	log.Info("formulation: creating variables",
		zap.Int("buses", net.NumBuses()),
		zap.Int("branches", net.NumBranches()),
		zap.Stringer("voltage", norm.Voltage),
		zap.Stringer("switching", norm.Switching),
	)
	if err := strategy.CreateVariables(p); err != nil {
		return nil, err
	}
	log.Info("formulation: variables added", zap.Int("count", p.varCount))

	if err := strategy.CreateConstraints(p); err != nil {
		return nil, err
	}
	if err := p.finishObjective(); err != nil {
		return nil, err
	}
	log.Info("formulation: program built",
		zap.Int("variables", model.NumVars()),
		zap.Int("constraints", model.NumConstrs()),
	)

	return p, nil
}

// BusValues are the solved quantities of one bus. Va is meaningful only
// when AngleKnown; otherwise it is reconstructed from branch products.
type BusValues struct {
	Vm, Va     float64
	AngleKnown bool
	// CSelf is |V|² for the rectangular families.
	CSelf      float64
	Pinj, Qinj float64
	// BalanceDual is the dual of the real power balance row (LP only).
	BalanceDual float64
	HasDual     bool
}

// GenValues are the solved outputs of one generator.
type GenValues struct {
	P, Q float64
}

// BranchValues are the solved quantities of one branch.
type BranchValues struct {
	Pf, Pt, Qf, Qt float64
	// C and S are the voltage products; HasProducts marks them valid.
	C, S        float64
	HasProducts bool
	Z           float64
	HasZ        bool
}

// RawSolution is a family-neutral view of a solution in per unit. Slices
// follow the network order: Buses by Count, Branches by Index, Generators
// by Count.
type RawSolution struct {
	Objective  float64
	Buses      []BusValues
	Generators []GenValues
	Branches   []BranchValues
	// NeedsAngles is set when bus angles must be reconstructed from the
	// branch voltage products.
	NeedsAngles bool
	// RelaxedProducts is set when C and S are Jabr relaxation variables
	// rather than products of the voltage variables. Only switched-on
	// branches then pin the angle difference of their ends.
	RelaxedProducts bool
}

func newRawSolution(net *network.Network) *RawSolution {
	return &RawSolution{
		Buses:      make([]BusValues, net.NumBuses()),
		Generators: make([]GenValues, len(net.Generators)),
		Branches:   make([]BranchValues, net.NumBranches()),
	}
}

// reader collects the first error of a sequence of value reads.
type reader struct {
	sol solver.Solution
	err error
}

func (r *reader) val(v solver.Var) float64 {
	if r.err != nil {
		return 0
	}
	x, err := r.sol.Value(v)
	if err != nil {
		r.err = fmt.Errorf("formulation: read solution: %w", err)
	}
	return x
}

// opt reads m[key] when present.
func (r *reader) opt(m BranchVars, br *network.Branch) (float64, bool) {
	v, ok := m[br]
	if !ok {
		return 0, false
	}
	return r.val(v), true
}
