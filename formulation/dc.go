package formulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/gridopf/solver"
)

// dcStrategy is the linearized lossless model: one angle per bus and one
// real flow per branch, P = (θf - θt - shift)/(x·ratio).
type dcStrategy struct{}

func (dcStrategy) Family() Family { return DC }

func (dcStrategy) CreateVariables(p *Program) error {
	tol := p.Config.FixTolerance
	for _, b := range p.Network.Buses {
		lb, ub := -2*math.Pi, 2*math.Pi
		if b.InputVoltage {
			lb, ub = b.InputA-tol, b.InputA+tol
		}
		v, err := p.addVar(fmt.Sprintf("theta_%d", b.NodeID), lb, ub, 0, solver.Continuous)
		if err != nil {
			return err
		}
		p.Vars.Theta[b] = v
	}
	if err := addFlowVars(p, realFlows[:]); err != nil {
		return err
	}
	if err := addSwitchVars(p, realFlows[:]); err != nil {
		return err
	}
	if err := addInjections(p, false, false, false); err != nil {
		return err
	}
	if err := addGenerators(p, false, false); err != nil {
		return err
	}

	return addCostVars(p)
}

func (dcStrategy) CreateConstraints(p *Program) error {
	for _, br := range p.Network.Branches {
		if !br.Status {
			if err := addZeroFlows(p, br, realFlows[:]); err != nil {
				return err
			}
			continue
		}
		from, to := p.Network.Ends(br)
		k := br.DCCoeff()
		expr := &solver.QuadExpr{}
		expr.AddLin(k, p.Vars.Theta[from]).AddLin(-k, p.Vars.Theta[to])
		if err := addFlowDef(p, br, flowPf, expr, -k*br.AngleRad); err != nil {
			return err
		}
	}
	p.logGroup("flowdef")

	if err := addSwitchConstraints(p, realFlows[:]); err != nil {
		return err
	}
	if err := addBalance(p, false); err != nil {
		return err
	}

	return addInjectionDefs(p, false, nil)
}

func (dcStrategy) ExtractSolution(p *Program, sol solver.Solution) (*RawSolution, error) {
	r := &reader{sol: sol}
	raw := newRawSolution(p.Network)
	readShared(p, r, raw, false)

	ref := r.val(p.Vars.Theta[p.Network.Ref()])
	duals := !sol.IsMIP()
	for i, b := range p.Network.Buses {
		bv := &raw.Buses[i]
		bv.Vm = 1
		bv.Va = r.val(p.Vars.Theta[b]) - ref
		bv.AngleKnown = true
		if !duals || r.err != nil {
			continue
		}
		d, err := sol.Dual(p.Constrs.PBalance[b])
		switch {
		case errors.Is(err, solver.ErrNoDual):
			duals = false
		case err != nil:
			return nil, fmt.Errorf("formulation: read dual: %w", err)
		default:
			bv.BalanceDual, bv.HasDual = d, true
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	return raw, nil
}
