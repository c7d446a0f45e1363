package lpsolver

import (
	"math"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/solver"
)

// node is an open branch-and-bound subproblem.
type node struct {
	lb, ub []float64
	depth  int
}

// incumbent is the best integral solution found so far.
type incumbent struct {
	x   []float64
	obj float64
}

// branchAndBound runs a depth-first search over the binaries. The up
// branch (z = 1) is explored first. Nodes whose LP bound cannot improve the
// incumbent by more than MIPGap are pruned.
func (m *Model) branchAndBound(s *search, p *problem) {
	cfg := m.lpConfig()
	gap := m.params[solver.ParamMIPGap]
	var best *incumbent

	if inc := m.tryStart(p, cfg); inc != nil {
		best = inc
		m.solCount++
		m.log.Debug("lpsolver: MIP start accepted", zap.Float64("objective", inc.obj))
	}

	stack := []node{{lb: p.lb, ub: p.ub}}
	rootStatus := solver.Loaded
	sawNumeric := false
	interrupted := false

	for len(stack) > 0 {
		if s.expired() || s.nodes >= s.maxNodes {
			interrupted = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.nodes++

		res := p.solve(nd.lb, nd.ub, cfg)
		if nd.depth == 0 {
			rootStatus = res.status
		}
		switch res.status {
		case solver.Optimal:
		case solver.Numeric:
			sawNumeric = true
			continue
		case solver.Unbounded, solver.InfOrUnbounded:
			if nd.depth == 0 {
				m.status = res.status
				return
			}
			continue
		default:
			continue
		}
		if best != nil && res.obj >= best.obj-pruneMargin(best.obj, gap) {
			continue
		}

		j := mostFractional(p.binaries, res.x)
		if j < 0 {
			best = &incumbent{x: res.x, obj: res.obj}
			m.solCount++
			m.log.Debug("lpsolver: new incumbent",
				zap.Float64("objective", res.obj),
				zap.Int("node", s.nodes),
				zap.Int("depth", nd.depth),
			)
			continue
		}
		down, up := split(nd, j)
		stack = append(stack, down, up)
	}

	switch {
	case best != nil:
		m.x, m.objVal = best.x, best.obj
		m.status = solver.Optimal
		if interrupted {
			m.status = solver.Interrupted
		}
	case interrupted:
		m.status = solver.Interrupted
	case sawNumeric:
		m.status = solver.Numeric
	case rootStatus == solver.Loaded:
		m.status = solver.Interrupted
	default:
		m.status = solver.Infeasible
	}
}

// tryStart fixes every binary to its rounded start value and solves the
// remaining LP. Returns nil unless every binary has a start and the
// resulting LP is optimal.
func (m *Model) tryStart(p *problem, cfg lpConfig) *incumbent {
	lb := append([]float64(nil), p.lb...)
	ub := append([]float64(nil), p.ub...)
	for _, j := range p.binaries {
		v := m.vars[j]
		if !v.hasStart {
			return nil
		}
		z := math.Round(v.start)
		lb[j], ub[j] = z, z
	}
	res := p.solve(lb, ub, cfg)
	if res.status != solver.Optimal {
		m.log.Debug("lpsolver: MIP start rejected", zap.Stringer("status", res.status))
		return nil
	}

	return &incumbent{x: res.x, obj: res.obj}
}

// pruneMargin is the improvement a node must promise to stay open.
func pruneMargin(obj, gap float64) float64 {
	return math.Max(gap*math.Abs(obj), 1e-9)
}

// mostFractional returns the binary farthest from integrality, or -1.
func mostFractional(binaries []int, x []float64) int {
	best, bestDist := -1, intTol
	for _, j := range binaries {
		d := math.Abs(x[j] - math.Round(x[j]))
		if d > bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// split returns the z = 0 and z = 1 children of nd on variable j.
func split(nd node, j int) (down, up node) {
	down = node{lb: nd.lb, ub: append([]float64(nil), nd.ub...), depth: nd.depth + 1}
	down.ub[j] = 0
	up = node{lb: append([]float64(nil), nd.lb...), ub: nd.ub, depth: nd.depth + 1}
	up.lb[j] = 1

	return down, up
}
