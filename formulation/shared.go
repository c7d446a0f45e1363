package formulation

import (
	"fmt"

	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solver"
)

// flowKind enumerates the four branch-end flows.
type flowKind int

const (
	flowPf flowKind = iota
	flowQf
	flowPt
	flowQt
)

var (
	allFlows  = [...]flowKind{flowPf, flowQf, flowPt, flowQt}
	realFlows = [...]flowKind{flowPf}
)

// reversed reports whether k is measured at the to end.
func (k flowKind) reversed() bool { return k == flowPt || k == flowQt }

func (k flowKind) letter() string {
	if k == flowQf || k == flowQt {
		return "Q"
	}
	return "P"
}

// flowName is "<prefix><P|Q>_<index>_<near>_<far>".
func flowName(prefix string, k flowKind, br *network.Branch) string {
	near, far := br.From, br.To
	if k.reversed() {
		near, far = far, near
	}
	return fmt.Sprintf("%s%s_%d_%d_%d", prefix, k.letter(), br.Index, near, far)
}

// flowRowName is "<P|Q><suffix>_<index>_<near>_<far>".
func flowRowName(suffix string, k flowKind, br *network.Branch) string {
	near, far := br.From, br.To
	if k.reversed() {
		near, far = far, near
	}
	return fmt.Sprintf("%s%s_%d_%d_%d", k.letter(), suffix, br.Index, near, far)
}

func branchName(prefix string, br *network.Branch) string {
	return fmt.Sprintf("%s_%d_%d_%d", prefix, br.Index, br.From, br.To)
}

func (v *Vars) flow(k flowKind) BranchVars {
	switch k {
	case flowQf:
		return v.Qf
	case flowPt:
		return v.Pt
	case flowQt:
		return v.Qt
	}
	return v.Pf
}

func (v *Vars) twin(k flowKind) BranchVars {
	switch k {
	case flowQf:
		return v.TwinQf
	case flowPt:
		return v.TwinPt
	case flowQt:
		return v.TwinQt
	}
	return v.TwinPf
}

func (v *Vars) slack(k flowKind) BranchVars {
	switch k {
	case flowQf:
		return v.SlackQf
	case flowPt:
		return v.SlackPt
	case flowQt:
		return v.SlackQt
	}
	return v.SlackPf
}

// flowCoefs returns the coefficients of (|Vf|², |Vt|², c, s) in flow k.
func flowCoefs(y network.Admittance, k flowKind) [4]float64 {
	switch k {
	case flowQf:
		return [4]float64{-y.Bff, 0, -y.Bft, -y.Gft}
	case flowPt:
		return [4]float64{0, y.Gtt, y.Gtf, y.Btf}
	case flowQt:
		return [4]float64{0, -y.Btt, -y.Btf, y.Gtf}
	}
	return [4]float64{y.Gff, 0, y.Gft, -y.Bft}
}

// rectEnds expands coef·|V|², coef·c and coef·s in the rectangular
// voltage variables of a branch.
type rectEnds struct {
	ef, ff, et, ft solver.Var
}

func (r rectEnds) addSelfFrom(q *solver.QuadExpr, coef float64) {
	q.AddQuad(coef, r.ef, r.ef).AddQuad(coef, r.ff, r.ff)
}

func (r rectEnds) addSelfTo(q *solver.QuadExpr, coef float64) {
	q.AddQuad(coef, r.et, r.et).AddQuad(coef, r.ft, r.ft)
}

func (r rectEnds) addC(q *solver.QuadExpr, coef float64) {
	q.AddQuad(coef, r.ef, r.et).AddQuad(coef, r.ff, r.ft)
}

func (r rectEnds) addS(q *solver.QuadExpr, coef float64) {
	q.AddQuad(coef, r.ef, r.ft).AddQuad(-coef, r.et, r.ff)
}

func (p *Program) rectEnds(br *network.Branch) rectEnds {
	from, to := p.Network.Ends(br)
	return rectEnds{
		ef: p.Vars.E[from], ff: p.Vars.F[from],
		et: p.Vars.E[to], ft: p.Vars.F[to],
	}
}

// addGenerators creates GP (and GQ when withQ) per generator, bounded by
// capacity times status. freeRefQ leaves reactive output at the reference
// bus unbounded.
func addGenerators(p *Program, withQ, freeRefQ bool) error {
	ref := p.Network.Ref()
	for _, g := range p.Network.Generators {
		on := 0.0
		if g.Status {
			on = 1
		}
		v, err := p.addVar(fmt.Sprintf("GP_%d_%d", g.Count, g.Bus), g.Pmin*on, g.Pmax*on, 0, solver.Continuous)
		if err != nil {
			return err
		}
		p.Vars.GenP[g] = v
		if !withQ {
			continue
		}
		lb, ub := g.Qmin*on, g.Qmax*on
		if freeRefQ && g.Bus == ref.NodeID {
			lb, ub = -solver.Infinity, solver.Infinity
		}
		if v, err = p.addVar(fmt.Sprintf("GQ_%d_%d", g.Count, g.Bus), lb, ub, 0, solver.Continuous); err != nil {
			return err
		}
		p.Vars.GenQ[g] = v
	}

	return nil
}

// addInjections creates the net injection variables IP (and IQ) bounded
// by BalanceBounds.
func addInjections(p *Program, withQ, withShunts, freeRefQ bool) error {
	ref := p.Network.Ref()
	for _, b := range p.Network.Buses {
		bb := p.Network.BalanceBounds(b, withShunts)
		v, err := p.addVar(fmt.Sprintf("IP_%d", b.NodeID), bb.Pmin, bb.Pmax, 0, solver.Continuous)
		if err != nil {
			return err
		}
		p.Vars.Pinj[b] = v
		if !withQ {
			continue
		}
		lb, ub := bb.Qmin, bb.Qmax
		if freeRefQ && b == ref {
			lb, ub = -solver.Infinity, solver.Infinity
		}
		if v, err = p.addVar(fmt.Sprintf("IQ_%d", b.NodeID), lb, ub, 0, solver.Continuous); err != nil {
			return err
		}
		p.Vars.Qinj[b] = v
	}

	return nil
}

// addCostVars creates lincost, the constant carrier and, when the
// quadratic cost is kept as an auxiliary variable, quadcost.
func addCostVars(p *Program) error {
	var err error
	if p.Vars.LinCost, err = p.addVar("lincost", -solver.Infinity, solver.Infinity, 1, solver.Continuous); err != nil {
		return err
	}

	constant, quad := 0.0, false
	for _, g := range p.Network.Generators {
		if !g.Status {
			continue
		}
		constant += g.ConstantCost()
		quad = quad || g.QuadraticCost() != 0
	}
	if p.Vars.Constant, err = p.addVar("constant", 1, 1, constant, solver.Continuous); err != nil {
		return err
	}
	if quad && p.Config.QuadraticCostAsAuxVar {
		if p.Vars.QuadCost, err = p.addVar("quadcost", 0, solver.Infinity, 1, solver.Continuous); err != nil {
			return err
		}
		p.Vars.HasQuadCost = true
	}

	return nil
}

// finishObjective adds the cost definitions. Quadratic costs go either
// into qcostdef or directly into the objective.
func (p *Program) finishObjective() error {
	lin := solver.NewLinExpr(0)
	quad := &solver.QuadExpr{}
	for _, g := range p.Network.Generators {
		if !g.Status {
			continue
		}
		gp := p.Vars.GenP[g]
		lin.Add(g.LinearCost(), gp)
		quad.AddQuad(g.QuadraticCost(), gp, gp)
	}
	lin.Add(-1, p.Vars.LinCost)

	var err error
	if p.Constrs.LinCost, err = p.addConstr("cost", "lincostdef", lin, solver.Equal, 0); err != nil {
		return err
	}

	switch {
	case quad.IsLinear():
	case p.Vars.HasQuadCost:
		quad.AddLin(-1, p.Vars.QuadCost)
		if _, err := p.addQConstr("cost", "qcostdef", quad, solver.LessEqual, 0); err != nil {
			return err
		}
	default:
		obj := p.Model.Objective()
		obj.Terms = append(obj.Terms, quad.Terms...)
		if err := p.Model.SetObjective(obj); err != nil {
			return fmt.Errorf("formulation: set objective: %w", err)
		}
	}
	p.logGroup("cost")

	return nil
}

// addFlowVars creates the flow variables of kinds on every branch, bounded
// by the branch limit.
func addFlowVars(p *Program, kinds []flowKind) error {
	for _, br := range p.Network.Branches {
		lim := p.limit(br)
		for _, k := range kinds {
			v, err := p.addVar(flowName("", k, br), -lim, lim, 0, solver.Continuous)
			if err != nil {
				return err
			}
			p.Vars.flow(k)[br] = v
		}
	}

	return nil
}

// addSwitchVars creates z for every branch plus the twin (MIP) or slack
// (complementarity) flows of in-service branches. Twins share the branch
// limit of the flow they stand in for; slacks are free. z of an
// out-of-service branch is left free.
func addSwitchVars(p *Program, kinds []flowKind) error {
	if !p.Switched() {
		return nil
	}
	vt := solver.Continuous
	if p.MIPSwitched() {
		vt = solver.Binary
	}
	for _, br := range p.Network.Branches {
		z, err := p.addVar(branchName("z", br), 0, 1, 0, vt)
		if err != nil {
			return err
		}
		p.Vars.Z[br] = z
		if !br.Status {
			continue
		}
		for _, k := range kinds {
			name, m := flowName("twin", k, br), p.Vars.twin(k)
			lb, ub := -p.limit(br), p.limit(br)
			if !p.MIPSwitched() {
				name, m = flowName("slack", k, br), p.Vars.slack(k)
				lb, ub = -solver.Infinity, solver.Infinity
			}
			v, err := p.addVar(name, lb, ub, 0, solver.Continuous)
			if err != nil {
				return err
			}
			m[br] = v
		}
	}

	return nil
}

// addFlowDef binds flow k of br to expr + rhs: X + aux - expr = rhs, where
// aux is the twin or slack of the switching model.
func addFlowDef(p *Program, br *network.Branch, k flowKind, expr *solver.QuadExpr, rhs float64) error {
	q := &solver.QuadExpr{}
	q.AddLin(1, p.Vars.flow(k)[br])
	if aux, ok := p.Vars.twin(k)[br]; ok {
		q.AddLin(1, aux)
	}
	if aux, ok := p.Vars.slack(k)[br]; ok {
		q.AddLin(1, aux)
	}
	for _, t := range expr.Lin.Terms {
		q.AddLin(-t.Coef, t.Var)
	}
	for _, t := range expr.Terms {
		q.AddQuad(-t.Coef, t.V1, t.V2)
	}
	name := flowRowName("def", k, br)
	if q.IsLinear() {
		_, err := p.addConstr("flowdef", name, &q.Lin, solver.Equal, rhs)
		return err
	}
	_, err := p.addQConstr("flowdef", name, q, solver.Equal, rhs)

	return err
}

// addZeroFlows pins every flow of an out-of-service branch to zero.
func addZeroFlows(p *Program, br *network.Branch, kinds []flowKind) error {
	for _, k := range kinds {
		e := solver.NewLinExpr(0).Add(1, p.Vars.flow(k)[br])
		if _, err := p.addConstr("flowdef", flowRowName("zero", k, br), e, solver.Equal, 0); err != nil {
			return err
		}
	}

	return nil
}

// addSwitchConstraints links flows to z and bounds the number of active
// branches.
//
// MIP: |X| <= M·z and |twin| <= M·(1 - z) with M the branch limit.
// Complementarity: X·(1 - z) = 0 and slack·z = 0.
func addSwitchConstraints(p *Program, kinds []flowKind) error {
	if !p.Switched() {
		return nil
	}
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		z := p.Vars.Z[br]
		bigM := p.limit(br)
		for _, k := range kinds {
			x := p.Vars.flow(k)[br]
			if p.MIPSwitched() {
				tw := p.Vars.twin(k)[br]
				rows := []struct {
					name  string
					e     *solver.LinExpr
					sense solver.Sense
					rhs   float64
				}{
					{flowRowName("upmip", k, br), solver.NewLinExpr(0).Add(1, x).Add(-bigM, z), solver.LessEqual, 0},
					{flowRowName("dnmip", k, br), solver.NewLinExpr(0).Add(1, x).Add(bigM, z), solver.GreaterEqual, 0},
					{flowRowName("upmip_twin", k, br), solver.NewLinExpr(0).Add(1, tw).Add(bigM, z), solver.LessEqual, bigM},
					{flowRowName("dnmip_twin", k, br), solver.NewLinExpr(0).Add(1, tw).Add(-bigM, z), solver.GreaterEqual, -bigM},
				}
				for _, r := range rows {
					if _, err := p.addConstr("switching", r.name, r.e, r.sense, r.rhs); err != nil {
						return err
					}
				}
				continue
			}

			s := p.Vars.slack(k)[br]
			on := solver.NewQuadExpr(*solver.NewLinExpr(0).Add(1, x))
			on.AddQuad(-1, x, z)
			if _, err := p.addQConstr("switching", flowRowName("complon", k, br), on, solver.Equal, 0); err != nil {
				return err
			}
			off := (&solver.QuadExpr{}).AddQuad(1, s, z)
			if _, err := p.addQConstr("switching", flowRowName("comploff", k, br), off, solver.Equal, 0); err != nil {
				return err
			}
		}
	}

	sum := solver.NewLinExpr(0)
	for _, br := range p.Network.Branches {
		sum.Add(1, p.Vars.Z[br])
	}
	var err error
	p.Constrs.SumZ, err = p.addConstr("switching", "sumz", sum, solver.GreaterEqual,
		p.Config.minActiveBranches(p.Network.NumBranches()))
	if err != nil {
		return err
	}
	p.logGroup("switching")

	return nil
}

// addBalance adds Σ from-end flow + Σ to-end flow - injection = 0 for P
// and, with withQ, for Q. Without Q the to-end flow is -Pf.
func addBalance(p *Program, withQ bool) error {
	for _, b := range p.Network.Buses {
		pe := solver.NewLinExpr(0)
		qe := solver.NewLinExpr(0)
		for _, idx := range b.FromBranches {
			br := p.Network.Branch(idx)
			pe.Add(1, p.Vars.Pf[br])
			qe.Add(1, p.Vars.Qf[br])
		}
		for _, idx := range b.ToBranches {
			br := p.Network.Branch(idx)
			if !withQ {
				// DC carries a single flow per branch.
				pe.Add(-1, p.Vars.Pf[br])
				continue
			}
			pe.Add(1, p.Vars.Pt[br])
			qe.Add(1, p.Vars.Qt[br])
		}
		pe.Add(-1, p.Vars.Pinj[b])
		c, err := p.addConstr("balance", fmt.Sprintf("PBaldef%d_%d", b.Count, b.NodeID), pe, solver.Equal, 0)
		if err != nil {
			return err
		}
		p.Constrs.PBalance[b] = c
		if !withQ {
			continue
		}
		qe.Add(-1, p.Vars.Qinj[b])
		if c, err = p.addConstr("balance", fmt.Sprintf("QBaldef%d_%d", b.Count, b.NodeID), qe, solver.Equal, 0); err != nil {
			return err
		}
		p.Constrs.QBalance[b] = c
	}
	p.logGroup("balance")

	return nil
}

// selfTerm adds coef·|V_b|² to q.
type selfTerm func(q *solver.QuadExpr, b *network.Bus, coef float64)

// addInjectionDefs binds injections to generation, demand and shunts:
//
//	Pinj - Σ GP + Gs·|V|² = -Pd
//	Qinj - Σ GQ - Bs·|V|² = -Qd
//
// shunt is nil for DC, where shunts are ignored.
func addInjectionDefs(p *Program, withQ bool, shunt selfTerm) error {
	for _, b := range p.Network.Buses {
		pq := &solver.QuadExpr{}
		pq.AddLin(1, p.Vars.Pinj[b])
		qq := &solver.QuadExpr{}
		if withQ {
			qq.AddLin(1, p.Vars.Qinj[b])
		}
		for _, g := range p.Network.BusGenerators(b) {
			if !g.Status {
				continue
			}
			pq.AddLin(-1, p.Vars.GenP[g])
			if withQ {
				qq.AddLin(-1, p.Vars.GenQ[g])
			}
		}
		if shunt != nil {
			if b.Gs != 0 {
				shunt(pq, b, b.Gs)
			}
			if b.Bs != 0 {
				shunt(qq, b, -b.Bs)
			}
		}
		if err := p.addExprConstr("injection", fmt.Sprintf("IPdef_%d", b.NodeID), pq, solver.Equal, -b.Pd); err != nil {
			return err
		}
		if !withQ {
			continue
		}
		if err := p.addExprConstr("injection", fmt.Sprintf("IQdef_%d", b.NodeID), qq, solver.Equal, -b.Qd); err != nil {
			return err
		}
	}
	p.logGroup("injection")

	return nil
}

// addExprConstr adds q as a linear row when it has no bilinear terms.
func (p *Program) addExprConstr(group, name string, q *solver.QuadExpr, sense solver.Sense, rhs float64) error {
	var err error
	if q.IsLinear() {
		_, err = p.addConstr(group, name, &q.Lin, sense, rhs)
	} else {
		_, err = p.addQConstr(group, name, q, sense, rhs)
	}
	return err
}

// addFlowLimits adds Pf² + Qf² <= limit² at both ends of in-service
// branches with a rating.
func addFlowLimits(p *Program) error {
	for _, br := range p.Network.Branches {
		if !br.Status || !br.ConstrainedFlow {
			continue
		}
		lim2 := br.Limit * br.Limit
		ends := [2][2]flowKind{{flowPf, flowQf}, {flowPt, flowQt}}
		for i, e := range ends {
			pv, qv := p.Vars.flow(e[0])[br], p.Vars.flow(e[1])[br]
			q := (&solver.QuadExpr{}).AddQuad(1, pv, pv).AddQuad(1, qv, qv)
			name := branchName("limf", br)
			if i == 1 {
				name = branchName("limt", br)
			}
			if _, err := p.addQConstr("limit", name, q, solver.LessEqual, lim2); err != nil {
				return err
			}
		}
	}
	p.logGroup("limit")

	return nil
}

// addActiveLoss adds Pf + Pt >= 0 on in-service branches when enabled.
func addActiveLoss(p *Program) error {
	if !p.Config.UseActiveLossInequalities {
		return nil
	}
	for _, br := range p.Network.Branches {
		if !br.Status {
			continue
		}
		e := solver.NewLinExpr(0).Add(1, p.Vars.Pf[br]).Add(1, p.Vars.Pt[br])
		if _, err := p.addConstr("activeloss", branchName("aLa", br), e, solver.GreaterEqual, 0); err != nil {
			return err
		}
	}
	p.logGroup("activeloss")

	return nil
}

// readShared fills the objective, generator outputs, injections, flows
// and switching values common to every family.
func readShared(p *Program, r *reader, raw *RawSolution, withQ bool) {
	obj, err := r.sol.ObjVal()
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("formulation: read objective: %w", err)
	}
	raw.Objective = obj

	for i, g := range p.Network.Generators {
		raw.Generators[i].P = r.val(p.Vars.GenP[g])
		if withQ {
			raw.Generators[i].Q = r.val(p.Vars.GenQ[g])
		}
	}
	for i, b := range p.Network.Buses {
		raw.Buses[i].Pinj = r.val(p.Vars.Pinj[b])
		if withQ {
			raw.Buses[i].Qinj = r.val(p.Vars.Qinj[b])
		}
	}
	for i, br := range p.Network.Branches {
		bv := &raw.Branches[i]
		bv.Pf = r.val(p.Vars.Pf[br])
		if withQ {
			bv.Pt = r.val(p.Vars.Pt[br])
			bv.Qf = r.val(p.Vars.Qf[br])
			bv.Qt = r.val(p.Vars.Qt[br])
		} else {
			bv.Pt = -bv.Pf
		}
		bv.Z, bv.HasZ = r.opt(p.Vars.Z, br)
	}
}
