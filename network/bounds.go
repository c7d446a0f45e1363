package network

import "math"

// BalanceBounds returns the interval of net injection a bus can push into
// its incident branches: in-service generator capacity minus demand. With
// withShunts set, the shunt withdrawal Gs·v² and injection Bs·v² are
// accounted for over v ∈ [Vmin, Vmax].
func (n *Network) BalanceBounds(b *Bus, withShunts bool) Bounds {
	var out Bounds
	for _, g := range n.BusGenerators(b) {
		if !g.Status {
			continue
		}
		out.Pmin += g.Pmin
		out.Pmax += g.Pmax
		out.Qmin += g.Qmin
		out.Qmax += g.Qmax
	}
	out.Pmin -= b.Pd
	out.Pmax -= b.Pd
	out.Qmin -= b.Qd
	out.Qmax -= b.Qd

	if withShunts {
		lo, hi := b.Vmin*b.Vmin, b.Vmax*b.Vmax
		gLo, gHi := minMax(b.Gs*lo, b.Gs*hi)
		out.Pmin -= gHi
		out.Pmax -= gLo
		bLo, bHi := minMax(b.Bs*lo, b.Bs*hi)
		out.Qmin += bLo
		out.Qmax += bHi
	}

	return out
}

// GenerousDCLimit is the flow bound used for unconstrained branches in the
// DC family: total system demand.
func (n *Network) GenerousDCLimit() float64 {
	return n.SumPd
}

// GenerousACLimit is the flow bound used for unconstrained branches in the
// AC and IV families. It assumes line charging up to the full generation.
func (n *Network) GenerousACLimit() float64 {
	return 2 * (math.Abs(n.SumMaxGenP) + math.Abs(n.SumMaxGenQ))
}

func minMax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// LinearCost returns the per-unit linear cost coefficient, 0 for a
// constant cost.
func (g *Generator) LinearCost() float64 {
	if g.CostDegree < 1 {
		return 0
	}
	return g.Cost[g.CostDegree-1]
}

// QuadraticCost returns the per-unit quadratic cost coefficient.
func (g *Generator) QuadraticCost() float64 {
	if g.CostDegree < 2 {
		return 0
	}
	return g.Cost[0]
}

// ConstantCost returns the constant cost term.
func (g *Generator) ConstantCost() float64 {
	if len(g.Cost) == 0 {
		return 0
	}
	return g.Cost[g.CostDegree]
}

// CaseCost undoes the per-unit scaling and returns the cost vector in the
// case table's units.
func (g *Generator) CaseCost(base float64) []float64 {
	out := make([]float64, len(g.Cost))
	for j, c := range g.Cost {
		out[j] = c / math.Pow(base, float64(g.CostDegree-j))
	}

	return out
}
