package formulation

import (
	"fmt"
	"math"

	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solver"
)

// acStrategy is the full AC power flow model. Flows are linear in the
// products |V|², c and s; how those products are tied to the voltages
// depends on the representation:
//
//	rectangular exact  c_kk = e²+f², c = ef·et + ff·ft, s = ef·ft - et·ff
//	rectangular Jabr   c² + s² <= c_ff·c_tt
//	polar              c_kk = v², c = vf·vt·cos δ, s = -vf·vt·sin δ
type acStrategy struct{}

func (acStrategy) Family() Family { return AC }

func (acStrategy) exact(p *Program) bool {
	return p.Config.Voltage == Rectangular && !p.Config.UseJabr
}

func (s acStrategy) CreateVariables(p *Program) error {
	if err := s.voltageVars(p); err != nil {
		return err
	}
	if err := s.productVars(p); err != nil {
		return err
	}
	if err := addFlowVars(p, allFlows[:]); err != nil {
		return err
	}
	if err := addSwitchVars(p, allFlows[:]); err != nil {
		return err
	}
	if err := addInjections(p, true, true, false); err != nil {
		return err
	}
	if err := addGenerators(p, true, false); err != nil {
		return err
	}

	return addCostVars(p)
}

func (s acStrategy) voltageVars(p *Program) error {
	tol := p.Config.FixTolerance
	polar := p.Config.Voltage == Polar
	ref := p.Network.Ref()
	for _, b := range p.Network.Buses {
		var err error
		var v solver.Var
		clb, cub := b.Vmin*b.Vmin, b.Vmax*b.Vmax
		if b.InputVoltage {
			lo := math.Max(b.InputV-tol, 0)
			clb, cub = lo*lo, (b.InputV+tol)*(b.InputV+tol)
		}
		if v, err = p.addVar(fmt.Sprintf("c_%d_%d", b.NodeID, b.NodeID), clb, cub, 0, solver.Continuous); err != nil {
			return err
		}
		p.Vars.CSelf[b] = v

		switch {
		case polar:
			vlb, vub := b.Vmin, b.Vmax
			alb, aub := -2*math.Pi, 2*math.Pi
			if b == ref {
				alb, aub = 0, 0
			}
			if b.InputVoltage {
				vlb, vub = b.InputV-tol, b.InputV+tol
				alb, aub = b.InputA-tol, b.InputA+tol
			}
			if v, err = p.addVar(fmt.Sprintf("v_%d", b.NodeID), vlb, vub, 0, solver.Continuous); err != nil {
				return err
			}
			p.Vars.V[b] = v
			if v, err = p.addVar(fmt.Sprintf("theta_%d", b.NodeID), alb, aub, 0, solver.Continuous); err != nil {
				return err
			}
			p.Vars.Theta[b] = v

		case s.exact(p):
			if err := addRectVoltage(p, b, tol); err != nil {
				return err
			}
		}
	}

	return nil
}

// addRectVoltage creates e and f of b, within ±Vmax or a window around the
// supplied input voltage.
func addRectVoltage(p *Program, b *network.Bus, tol float64) error {
	elb, eub := -b.Vmax, b.Vmax
	flb, fub := -b.Vmax, b.Vmax
	if b.InputVoltage {
		e := b.InputV * math.Cos(b.InputA)
		f := b.InputV * math.Sin(b.InputA)
		elb, eub = e-tol, e+tol
		flb, fub = f-tol, f+tol
	}
	v, err := p.addVar(fmt.Sprintf("e_%d", b.NodeID), elb, eub, 0, solver.Continuous)
	if err != nil {
		return err
	}
	p.Vars.E[b] = v
	if v, err = p.addVar(fmt.Sprintf("f_%d", b.NodeID), flb, fub, 0, solver.Continuous); err != nil {
		return err
	}
	p.Vars.F[b] = v

	return nil
}

func (acStrategy) productVars(p *Program) error {
	polar := p.Config.Voltage == Polar
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		from, to := p.Network.Ends(br)
		bound := from.Vmax * to.Vmax
		c, err := p.addVar(branchName("c", br), -bound, bound, 0, solver.Continuous)
		if err != nil {
			return err
		}
		p.Vars.C[br] = c
		s, err := p.addVar(branchName("s", br), -bound, bound, 0, solver.Continuous)
		if err != nil {
			return err
		}
		p.Vars.S[br] = s
		if !polar {
			continue
		}

		aux := []struct {
			m      BranchVars
			prefix string
			lb, ub float64
		}{
			{p.Vars.Delta, "delta", br.MinAngleRad, br.MaxAngleRad},
			{p.Vars.Cos, "cos", -1, 1},
			{p.Vars.Sin, "sin", -1, 1},
			{p.Vars.VV, "vv", from.Vmin * to.Vmin, bound},
		}
		for _, a := range aux {
			v, err := p.addVar(branchName(a.prefix, br), a.lb, a.ub, 0, solver.Continuous)
			if err != nil {
				return err
			}
			a.m[br] = v
		}
	}

	return nil
}

func (s acStrategy) CreateConstraints(p *Program) error {
	if err := s.productConstraints(p); err != nil {
		return err
	}

	for _, br := range p.Network.Branches {
		if !br.Status {
			if err := addZeroFlows(p, br, allFlows[:]); err != nil {
				return err
			}
			continue
		}
		from, to := p.Network.Ends(br)
		products := [4]solver.Var{p.Vars.CSelf[from], p.Vars.CSelf[to], p.Vars.C[br], p.Vars.S[br]}
		for _, k := range allFlows {
			expr := &solver.QuadExpr{}
			for i, coef := range flowCoefs(br.Y, k) {
				expr.AddLin(coef, products[i])
			}
			if err := addFlowDef(p, br, k, expr, 0); err != nil {
				return err
			}
		}
	}
	p.logGroup("flowdef")

	if err := addSwitchConstraints(p, allFlows[:]); err != nil {
		return err
	}
	if err := addBalance(p, true); err != nil {
		return err
	}
	shunt := func(q *solver.QuadExpr, b *network.Bus, coef float64) {
		q.AddLin(coef, p.Vars.CSelf[b])
	}
	if err := addInjectionDefs(p, true, shunt); err != nil {
		return err
	}
	if err := addFlowLimits(p); err != nil {
		return err
	}

	return addActiveLoss(p)
}

// productConstraints ties c_kk, c and s to the voltages.
func (s acStrategy) productConstraints(p *Program) error {
	switch {
	case p.Config.Voltage == Polar:
		return polarProducts(p)
	case s.exact(p):
		return exactProducts(p)
	}

	return jabrProducts(p)
}

func exactProducts(p *Program) error {
	for _, b := range p.Network.Buses {
		q := &solver.QuadExpr{}
		e, f := p.Vars.E[b], p.Vars.F[b]
		q.AddQuad(1, e, e).AddQuad(1, f, f).AddLin(-1, p.Vars.CSelf[b])
		if _, err := p.addQConstr("products", fmt.Sprintf("cdef_%d_%d", b.NodeID, b.NodeID), q, solver.Equal, 0); err != nil {
			return err
		}
	}
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		ends := p.rectEnds(br)
		cq := &solver.QuadExpr{}
		ends.addC(cq, 1)
		cq.AddLin(-1, p.Vars.C[br])
		if _, err := p.addQConstr("products", branchName("cdef", br), cq, solver.Equal, 0); err != nil {
			return err
		}
		sq := &solver.QuadExpr{}
		ends.addS(sq, 1)
		sq.AddLin(-1, p.Vars.S[br])
		if _, err := p.addQConstr("products", branchName("sdef", br), sq, solver.Equal, 0); err != nil {
			return err
		}
	}
	p.logGroup("products")

	return nil
}

// jabrProducts adds the rotated cone c² + s² <= c_ff·c_tt.
func jabrProducts(p *Program) error {
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		from, to := p.Network.Ends(br)
		c, s := p.Vars.C[br], p.Vars.S[br]
		q := (&solver.QuadExpr{}).
			AddQuad(1, c, c).
			AddQuad(1, s, s).
			AddQuad(-1, p.Vars.CSelf[from], p.Vars.CSelf[to])
		if _, err := p.addQConstr("products", branchName("jabr", br), q, solver.LessEqual, 0); err != nil {
			return err
		}
	}
	p.logGroup("products")

	return nil
}

func polarProducts(p *Program) error {
	for _, b := range p.Network.Buses {
		v := p.Vars.V[b]
		q := (&solver.QuadExpr{}).AddQuad(1, v, v).AddLin(-1, p.Vars.CSelf[b])
		if _, err := p.addQConstr("products", fmt.Sprintf("cdef_%d_%d", b.NodeID, b.NodeID), q, solver.Equal, 0); err != nil {
			return err
		}
	}
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		from, to := p.Network.Ends(br)
		delta, vv := p.Vars.Delta[br], p.Vars.VV[br]
		cosv, sinv := p.Vars.Cos[br], p.Vars.Sin[br]

		d := solver.NewLinExpr(0).Add(1, delta).Add(-1, p.Vars.Theta[from]).Add(1, p.Vars.Theta[to])
		if _, err := p.addConstr("products", branchName("deltadef", br), d, solver.Equal, 0); err != nil {
			return err
		}
		if err := p.addGenConstr("products", branchName("cosdef", br), solver.Cos, delta, cosv); err != nil {
			return err
		}
		if err := p.addGenConstr("products", branchName("sindef", br), solver.Sin, delta, sinv); err != nil {
			return err
		}

		rows := []struct {
			name string
			q    *solver.QuadExpr
		}{
			{branchName("vvdef", br), (&solver.QuadExpr{}).AddQuad(1, p.Vars.V[from], p.Vars.V[to]).AddLin(-1, vv)},
			{branchName("cdef", br), (&solver.QuadExpr{}).AddQuad(1, vv, cosv).AddLin(-1, p.Vars.C[br])},
			{branchName("sdef", br), (&solver.QuadExpr{}).AddQuad(-1, vv, sinv).AddLin(-1, p.Vars.S[br])},
		}
		for _, r := range rows {
			if _, err := p.addQConstr("products", r.name, r.q, solver.Equal, 0); err != nil {
				return err
			}
		}
	}
	p.logGroup("products")

	return nil
}

func (acStrategy) ExtractSolution(p *Program, sol solver.Solution) (*RawSolution, error) {
	r := &reader{sol: sol}
	raw := newRawSolution(p.Network)
	readShared(p, r, raw, true)

	polar := p.Config.Voltage == Polar
	var ref float64
	if polar {
		ref = r.val(p.Vars.Theta[p.Network.Ref()])
	}
	for i, b := range p.Network.Buses {
		bv := &raw.Buses[i]
		bv.CSelf = r.val(p.Vars.CSelf[b])
		if polar {
			bv.Vm = r.val(p.Vars.V[b])
			bv.Va = r.val(p.Vars.Theta[b]) - ref
			bv.AngleKnown = true
			continue
		}
		bv.Vm = math.Sqrt(math.Max(bv.CSelf, 0))
	}
	for i, br := range p.Network.Branches {
		c, ok := r.opt(p.Vars.C, br)
		if !ok {
			continue
		}
		s, _ := r.opt(p.Vars.S, br)
		raw.Branches[i].C, raw.Branches[i].S, raw.Branches[i].HasProducts = c, s, true
	}
	raw.NeedsAngles = !polar
	raw.RelaxedProducts = !polar && p.Config.UseJabr
	if r.err != nil {
		return nil, r.err
	}

	return raw, nil
}
