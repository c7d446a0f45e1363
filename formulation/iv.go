package formulation

import (
	"fmt"
	"math"

	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solver"
)

// ivCurrentBound bounds the explicit branch currents of the plain variant.
const ivCurrentBound = 1e5

// ivStrategy is the current-voltage model in rectangular coordinates.
// Branch currents follow Ohm's law from e and f; branch power is V·conj(I),
// either through explicit current variables (plain) or with the currents
// substituted (aggressive).
type ivStrategy struct{}

func (ivStrategy) Family() Family { return IV }

func (s ivStrategy) CreateVariables(p *Program) error {
	tol := p.Config.FixTolerance
	for _, b := range p.Network.Buses {
		if err := addRectVoltage(p, b, tol); err != nil {
			return err
		}
	}
	if err := addFlowVars(p, allFlows[:]); err != nil {
		return err
	}
	if p.Config.IVVariant == IVPlain {
		if err := s.currentVars(p); err != nil {
			return err
		}
	}
	if err := addInjections(p, true, true, true); err != nil {
		return err
	}
	if err := addGenerators(p, true, true); err != nil {
		return err
	}

	return addCostVars(p)
}

func (ivStrategy) currentVars(p *Program) error {
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		cur := []struct {
			m      BranchVars
			prefix string
		}{
			{p.Vars.IrF, "irf"}, {p.Vars.IjF, "ijf"},
			{p.Vars.IrT, "irt"}, {p.Vars.IjT, "ijt"},
		}
		for _, c := range cur {
			v, err := p.addVar(branchName(c.prefix, br), -ivCurrentBound, ivCurrentBound, 0, solver.Continuous)
			if err != nil {
				return err
			}
			c.m[br] = v
		}
	}

	return nil
}

func (s ivStrategy) CreateConstraints(p *Program) error {
	for _, b := range p.Network.Buses {
		e, f := p.Vars.E[b], p.Vars.F[b]
		q := (&solver.QuadExpr{}).AddQuad(1, e, e).AddQuad(1, f, f)
		if _, err := p.addQConstr("voltage", fmt.Sprintf("Vmax_%d", b.NodeID), q, solver.LessEqual, b.Vmax*b.Vmax); err != nil {
			return err
		}
		if _, err := p.addQConstr("voltage", fmt.Sprintf("Vmin_%d", b.NodeID), q, solver.GreaterEqual, b.Vmin*b.Vmin); err != nil {
			return err
		}
	}
	p.logGroup("voltage")

	for _, br := range p.Network.Branches {
		if !br.Status {
			if err := addZeroFlows(p, br, allFlows[:]); err != nil {
				return err
			}
			continue
		}
		var err error
		if p.Config.IVVariant == IVPlain {
			err = s.plainBranch(p, br)
		} else {
			err = s.aggressiveBranch(p, br)
		}
		if err != nil {
			return err
		}
	}
	p.logGroup("flowdef")

	if err := addBalance(p, true); err != nil {
		return err
	}
	shunt := func(q *solver.QuadExpr, b *network.Bus, coef float64) {
		e, f := p.Vars.E[b], p.Vars.F[b]
		q.AddQuad(coef, e, e).AddQuad(coef, f, f)
	}
	if err := addInjectionDefs(p, true, shunt); err != nil {
		return err
	}
	if err := addFlowLimits(p); err != nil {
		return err
	}

	return addActiveLoss(p)
}

// aggressiveBranch writes each flow directly as a quadratic form in the
// end voltages.
func (ivStrategy) aggressiveBranch(p *Program, br *network.Branch) error {
	ends := p.rectEnds(br)
	for _, k := range allFlows {
		coef := flowCoefs(br.Y, k)
		expr := &solver.QuadExpr{}
		ends.addSelfFrom(expr, coef[0])
		ends.addSelfTo(expr, coef[1])
		ends.addC(expr, coef[2])
		ends.addS(expr, coef[3])
		if err := addFlowDef(p, br, k, expr, 0); err != nil {
			return err
		}
	}

	return nil
}

// plainBranch defines the four currents by Ohm's law and the flows as
// P = e·Ir + f·Ij, Q = f·Ir - e·Ij at each end.
func (ivStrategy) plainBranch(p *Program, br *network.Branch) error {
	y := br.Y
	ends := p.rectEnds(br)
	irf, ijf := p.Vars.IrF[br], p.Vars.IjF[br]
	irt, ijt := p.Vars.IrT[br], p.Vars.IjT[br]

	ohm := []struct {
		name string
		e    *solver.LinExpr
	}{
		{branchName("irfdef", br), solver.NewLinExpr(0).Add(1, irf).
			Add(-y.Gff, ends.ef).Add(y.Bff, ends.ff).Add(-y.Gft, ends.et).Add(y.Bft, ends.ft)},
		{branchName("ijfdef", br), solver.NewLinExpr(0).Add(1, ijf).
			Add(-y.Gff, ends.ff).Add(-y.Bff, ends.ef).Add(-y.Gft, ends.ft).Add(-y.Bft, ends.et)},
		{branchName("irtdef", br), solver.NewLinExpr(0).Add(1, irt).
			Add(-y.Gtf, ends.ef).Add(y.Btf, ends.ff).Add(-y.Gtt, ends.et).Add(y.Btt, ends.ft)},
		{branchName("ijtdef", br), solver.NewLinExpr(0).Add(1, ijt).
			Add(-y.Gtf, ends.ff).Add(-y.Btf, ends.ef).Add(-y.Gtt, ends.ft).Add(-y.Btt, ends.et)},
	}
	for _, r := range ohm {
		if _, err := p.addConstr("current", r.name, r.e, solver.Equal, 0); err != nil {
			return err
		}
	}

	powers := map[flowKind]*solver.QuadExpr{
		flowPf: (&solver.QuadExpr{}).AddQuad(1, ends.ef, irf).AddQuad(1, ends.ff, ijf),
		flowQf: (&solver.QuadExpr{}).AddQuad(1, ends.ff, irf).AddQuad(-1, ends.ef, ijf),
		flowPt: (&solver.QuadExpr{}).AddQuad(1, ends.et, irt).AddQuad(1, ends.ft, ijt),
		flowQt: (&solver.QuadExpr{}).AddQuad(1, ends.ft, irt).AddQuad(-1, ends.et, ijt),
	}
	for _, k := range allFlows {
		if err := addFlowDef(p, br, k, powers[k], 0); err != nil {
			return err
		}
	}

	return nil
}

func (ivStrategy) ExtractSolution(p *Program, sol solver.Solution) (*RawSolution, error) {
	r := &reader{sol: sol}
	raw := newRawSolution(p.Network)
	readShared(p, r, raw, true)

	e := make([]float64, p.Network.NumBuses())
	f := make([]float64, p.Network.NumBuses())
	for i, b := range p.Network.Buses {
		e[i], f[i] = r.val(p.Vars.E[b]), r.val(p.Vars.F[b])
		raw.Buses[i].CSelf = e[i]*e[i] + f[i]*f[i]
		raw.Buses[i].Vm = math.Sqrt(raw.Buses[i].CSelf)
	}
	for i, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		from, to := p.Network.Ends(br)
		fi, ti := from.Count-1, to.Count-1
		_, _, c, s := network.RectProducts(e[fi], f[fi], e[ti], f[ti])
		raw.Branches[i].C, raw.Branches[i].S, raw.Branches[i].HasProducts = c, s, true
	}
	raw.NeedsAngles = true
	if r.err != nil {
		return nil, r.err
	}

	return raw, nil
}
