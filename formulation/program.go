package formulation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solver"
)

// BusVars maps each bus to a variable.
type BusVars map[*network.Bus]solver.Var

// GenVars maps each generator to a variable.
type GenVars map[*network.Generator]solver.Var

// BranchVars maps each branch to a variable.
type BranchVars map[*network.Branch]solver.Var

// Vars holds every decision variable of a program, keyed by the network
// entity it belongs to. Maps a family does not use stay empty.
type Vars struct {
	Theta BusVars // DC and polar angle
	V     BusVars // polar magnitude
	E, F  BusVars // rectangular real and imaginary parts
	CSelf BusVars // |V|² (AC)
	Pinj  BusVars
	Qinj  BusVars

	GenP GenVars
	GenQ GenVars

	Pf, Pt, Qf, Qt BranchVars
	// Twin flows carry the branch-equation flow of a switched-off branch
	// (MIP switching).
	TwinPf, TwinPt, TwinQf, TwinQt BranchVars
	// Slacks relax the flow definitions of a switched-off branch
	// (complementarity switching).
	SlackPf, SlackPt, SlackQf, SlackQt BranchVars
	Z                                  BranchVars

	// Voltage products e_f·e_t + f_f·f_t and e_f·f_t - e_t·f_f.
	C, S BranchVars

	// Polar auxiliaries: δ = θf - θt, cos δ, sin δ, v_f·v_t.
	Delta, Cos, Sin, VV BranchVars

	// IV plain branch currents.
	IrF, IjF, IrT, IjT BranchVars

	LinCost  solver.Var
	QuadCost solver.Var
	Constant solver.Var
	// HasQuadCost is set when QuadCost was created.
	HasQuadCost bool
}

func newVars() Vars {
	return Vars{
		Theta: BusVars{}, V: BusVars{}, E: BusVars{}, F: BusVars{}, CSelf: BusVars{},
		Pinj: BusVars{}, Qinj: BusVars{},
		GenP: GenVars{}, GenQ: GenVars{},
		Pf: BranchVars{}, Pt: BranchVars{}, Qf: BranchVars{}, Qt: BranchVars{},
		TwinPf: BranchVars{}, TwinPt: BranchVars{}, TwinQf: BranchVars{}, TwinQt: BranchVars{},
		SlackPf: BranchVars{}, SlackPt: BranchVars{}, SlackQf: BranchVars{}, SlackQt: BranchVars{},
		Z: BranchVars{},
		C: BranchVars{}, S: BranchVars{},
		Delta: BranchVars{}, Cos: BranchVars{}, Sin: BranchVars{}, VV: BranchVars{},
		IrF: BranchVars{}, IjF: BranchVars{}, IrT: BranchVars{}, IjT: BranchVars{},
	}
}

// Constrs holds the constraints later phases read back.
type Constrs struct {
	// PBalance and QBalance are the per-bus balance rows; their duals are
	// the locational prices.
	PBalance map[*network.Bus]solver.Constr
	QBalance map[*network.Bus]solver.Constr
	LinCost  solver.Constr
	SumZ     solver.Constr
	// Groups counts constraints by family group ("flowdef", "balance", ...).
	Groups map[string]int
}

// Program is the handle returned by Build: the solver model it populated,
// the network and normalized configuration it was built from, and every
// variable keyed by entity.
type Program struct {
	Model    solver.Model
	Network  *network.Network
	Config   BuildConfig
	Notices  []Notice
	Strategy FormulationStrategy
	Vars     Vars
	Constrs  Constrs

	log      *zap.Logger
	varCount int
}

// Switched reports whether the program models branch switching.
func (p *Program) Switched() bool { return p.Config.Switching != SwitchingNone }

// MIPSwitched reports whether switching is modeled with binaries.
func (p *Program) MIPSwitched() bool { return p.Config.Switching == SwitchingMIP }

func (p *Program) addVar(name string, lb, ub, obj float64, vt solver.VarType) (solver.Var, error) {
	v, err := p.Model.AddVar(name, lb, ub, obj, vt)
	if err != nil {
		return 0, fmt.Errorf("formulation: add variable %s: %w", name, err)
	}
	p.varCount++
	return v, nil
}

func (p *Program) addConstr(group, name string, e *solver.LinExpr, sense solver.Sense, rhs float64) (solver.Constr, error) {
	c, err := p.Model.AddConstr(name, *e, sense, rhs)
	if err != nil {
		return 0, fmt.Errorf("formulation: add constraint %s: %w", name, err)
	}
	p.Constrs.Groups[group]++
	return c, nil
}

func (p *Program) addQConstr(group, name string, q *solver.QuadExpr, sense solver.Sense, rhs float64) (solver.Constr, error) {
	c, err := p.Model.AddQConstr(name, *q, sense, rhs)
	if err != nil {
		return 0, fmt.Errorf("formulation: add constraint %s: %w", name, err)
	}
	p.Constrs.Groups[group]++
	return c, nil
}

func (p *Program) addGenConstr(group, name string, fn solver.Func, x, y solver.Var) error {
	if _, err := p.Model.AddGenConstr(name, fn, x, y); err != nil {
		return fmt.Errorf("formulation: add constraint %s: %w", name, err)
	}
	p.Constrs.Groups[group]++
	return nil
}

// logGroup reports the size of a constraint group once it is complete.
func (p *Program) logGroup(group string) {
	p.log.Info("formulation: constraints added",
		zap.String("group", group),
		zap.Int("count", p.Constrs.Groups[group]),
	)
}

// limit is the flow bound of br: its rating when constrained, otherwise
// the generous bound of the family.
func (p *Program) limit(br *network.Branch) float64 {
	if br.ConstrainedFlow {
		return br.Limit
	}
	if p.Config.Family == DC {
		return p.Network.GenerousDCLimit()
	}
	return p.Network.GenerousACLimit()
}
