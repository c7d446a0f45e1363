package lpsolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/solver"
)

// iis is an irreducible inconsistent subsystem: constraint indices plus
// the variable bounds that take part in it.
type iis struct {
	rows  []int
	lower []int
	upper []int
}

// ComputeIIS finds an IIS of the LP relaxation with a deletion filter: each
// constraint, then each finite bound, is dropped for good if the rest stays
// infeasible. Returns ErrModelFeasible when the relaxation is feasible.
func (m *Model) ComputeIIS(ctx context.Context) error {
	if m.closed {
		return solver.ErrClosed
	}
	if err := m.linearOnly(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p := m.assemble()
	cfg := lpConfig{zeroObjective: true, feasTol: m.params[solver.ParamFeasibilityTol]}
	cfg.skip = make([]bool, len(p.rows))
	lb := append([]float64(nil), p.lb...)
	ub := append([]float64(nil), p.ub...)

	infeasible := func() bool {
		return p.solve(lb, ub, cfg).status == solver.Infeasible
	}
	if !infeasible() {
		return ErrModelFeasible
	}

	for i := range p.rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("lpsolver: compute IIS: %w", err)
		}
		cfg.skip[i] = true
		if !infeasible() {
			cfg.skip[i] = false
		}
	}
	res := &iis{}
	for j := 0; j < p.n; j++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("lpsolver: compute IIS: %w", err)
		}
		if v := lb[j]; !isNegInf(v) {
			lb[j] = -solver.Infinity
			if !infeasible() {
				lb[j] = v
				res.lower = append(res.lower, j)
			}
		}
		if v := ub[j]; !isPosInf(v) {
			ub[j] = solver.Infinity
			if !infeasible() {
				ub[j] = v
				res.upper = append(res.upper, j)
			}
		}
	}
	for i, skipped := range cfg.skip {
		if !skipped {
			res.rows = append(res.rows, i)
		}
	}
	m.iis = res
	m.log.Info("lpsolver: IIS computed",
		zap.Int("constraints", len(res.rows)),
		zap.Int("lower_bounds", len(res.lower)),
		zap.Int("upper_bounds", len(res.upper)),
	)

	return nil
}

// IISConstrs returns the names of the constraints in the last IIS.
func (m *Model) IISConstrs() []string {
	if m.iis == nil {
		return nil
	}
	out := make([]string, len(m.iis.rows))
	for k, i := range m.iis.rows {
		out[k] = m.cons[i].name
	}
	return out
}
