package lpsolver

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/gridopf/solver"
)

// row is a merged linear constraint Σ val·x[idx] (sense) rhs.
type row struct {
	idx   []int
	val   []float64
	sense solver.Sense
	rhs   float64
}

// problem is the linear data of a model, assembled once per Optimize.
type problem struct {
	n        int
	c        []float64
	c0       float64
	rows     []row
	lb, ub   []float64
	binaries []int
}

type lpConfig struct {
	dualReductions bool
	equilibrate    bool
	wantDuals      bool
	zeroObjective  bool
	feasTol        float64
	// skip marks rows to leave out (IIS deletion filter).
	skip []bool
}

type lpResult struct {
	status solver.Status
	x      []float64
	obj    float64
	// duals has one entry per problem row when requested and optimal.
	duals []float64
}

// assemble merges duplicate terms and moves expression constants to the
// right-hand side.
func (m *Model) assemble() *problem {
	n := len(m.vars)
	p := &problem{
		n:    n,
		c:    make([]float64, n),
		c0:   m.obj.Lin.Constant,
		rows: make([]row, 0, len(m.cons)),
		lb:   make([]float64, n),
		ub:   make([]float64, n),
	}
	for _, t := range m.obj.Lin.Terms {
		p.c[t.Var] += t.Coef
	}
	for j, v := range m.vars {
		p.lb[j], p.ub[j] = v.lb, v.ub
		if v.vtype == solver.Binary {
			p.lb[j] = math.Max(p.lb[j], 0)
			p.ub[j] = math.Min(p.ub[j], 1)
			p.binaries = append(p.binaries, j)
		}
	}
	for _, c := range m.cons {
		p.rows = append(p.rows, mergeRow(c.expr.Lin, c.sense, c.rhs))
	}

	return p
}

func mergeRow(e solver.LinExpr, sense solver.Sense, rhs float64) row {
	acc := make(map[int]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[int(t.Var)] += t.Coef
	}
	r := row{sense: sense, rhs: rhs - e.Constant}
	for j, v := range acc {
		if v != 0 {
			r.idx = append(r.idx, j)
		}
	}
	sort.Ints(r.idx)
	r.val = make([]float64, len(r.idx))
	for k, j := range r.idx {
		r.val[k] = acc[j]
	}

	return r
}

func isNegInf(v float64) bool { return v <= -solver.Infinity }
func isPosInf(v float64) bool { return v >= solver.Infinity }

// satisfied checks lhs (sense) rhs within tol.
func satisfied(lhs float64, sense solver.Sense, rhs, tol float64) bool {
	scale := tol * (1 + math.Abs(rhs))
	switch sense {
	case solver.LessEqual:
		return lhs <= rhs+scale
	case solver.GreaterEqual:
		return lhs >= rhs-scale
	}
	return math.Abs(lhs-rhs) <= scale
}

// activeRow is a row restricted to non-fixed variables.
type activeRow struct {
	orig  int
	idx   []int
	val   []float64
	sense solver.Sense
	rhs   float64
}

// solve presolves and solves the LP with the given bounds.
func (p *problem) solve(lb, ub []float64, cfg lpConfig) lpResult {
	tol := cfg.feasTol
	if tol <= 0 {
		tol = 1e-6
	}
	c := p.c
	if cfg.zeroObjective {
		c = make([]float64, p.n)
	}

	x := make([]float64, p.n)
	free := make([]bool, p.n)
	for j := 0; j < p.n; j++ {
		if lb[j] > ub[j]+tol {
			return lpResult{status: solver.Infeasible}
		}
		if ub[j]-lb[j] <= fixTol {
			x[j] = lb[j]
			continue
		}
		free[j] = true
	}

	used := make([]bool, p.n)
	act := make([]activeRow, 0, len(p.rows))
	for i, r := range p.rows {
		if cfg.skip != nil && cfg.skip[i] {
			continue
		}
		a := activeRow{orig: i, sense: r.sense, rhs: r.rhs}
		for k, j := range r.idx {
			if free[j] {
				a.idx = append(a.idx, j)
				a.val = append(a.val, r.val[k])
				continue
			}
			a.rhs -= r.val[k] * x[j]
		}
		if len(a.idx) == 0 {
			if !satisfied(0, r.sense, a.rhs, tol) {
				return lpResult{status: solver.Infeasible}
			}
			continue
		}
		for _, j := range a.idx {
			used[j] = true
		}
		act = append(act, a)
	}

	// Variables outside every row go to their cheapest bound.
	unbounded := false
	var cols []int
	for j := 0; j < p.n; j++ {
		if !free[j] {
			continue
		}
		if used[j] {
			cols = append(cols, j)
			continue
		}
		switch {
		case c[j] > 0:
			if isNegInf(lb[j]) {
				unbounded = true
			}
			x[j] = lb[j]
		case c[j] < 0:
			if isPosInf(ub[j]) {
				unbounded = true
			}
			x[j] = ub[j]
		default:
			x[j] = math.Min(math.Max(0, lb[j]), ub[j])
		}
	}
	if unbounded && cfg.dualReductions {
		return lpResult{status: solver.InfOrUnbounded}
	}

	res := lpResult{status: solver.Optimal, x: x}
	if len(cols) > 0 {
		res = solveReduced(x, cols, act, lb, ub, c, len(p.rows), cfg)
	} else if cfg.wantDuals {
		res.duals = make([]float64, len(p.rows))
	}
	if res.status != solver.Optimal {
		return lpResult{status: res.status}
	}
	if unbounded {
		return lpResult{status: solver.Unbounded}
	}
	res.obj = p.c0 + floats.Dot(c, res.x)

	return res
}

// genRow is one row of the general form G·x ≤ h or A·x = b over the
// reduced variable set. sign is -1 for rows negated from ≥; orig is the
// problem row, or -1 for a bound row.
type genRow struct {
	coef  []float64
	rhs   float64
	orig  int
	sign  float64
	scale float64
}

// solveReduced solves the presolved LP over cols and writes the solution
// into x.
func solveReduced(x []float64, cols []int, act []activeRow, lb, ub, c []float64, nRows int, cfg lpConfig) lpResult {
	nv := len(cols)
	pos := make(map[int]int, nv)
	cu := make([]float64, nv)
	for k, j := range cols {
		pos[j] = k
		cu[k] = c[j]
	}

	var gRows, aRows []genRow
	for _, a := range act {
		coef := make([]float64, nv)
		for k, j := range a.idx {
			coef[pos[j]] += a.val[k]
		}
		switch a.sense {
		case solver.LessEqual:
			gRows = append(gRows, genRow{coef: coef, rhs: a.rhs, orig: a.orig, sign: 1, scale: 1})
		case solver.GreaterEqual:
			floats.Scale(-1, coef)
			gRows = append(gRows, genRow{coef: coef, rhs: -a.rhs, orig: a.orig, sign: -1, scale: 1})
		default:
			aRows = append(aRows, genRow{coef: coef, rhs: a.rhs, orig: a.orig, sign: 1, scale: 1})
		}
	}
	for k, j := range cols {
		if !isPosInf(ub[j]) {
			coef := make([]float64, nv)
			coef[k] = 1
			gRows = append(gRows, genRow{coef: coef, rhs: ub[j], orig: -1, sign: 1, scale: 1})
		}
		if !isNegInf(lb[j]) {
			coef := make([]float64, nv)
			coef[k] = -1
			gRows = append(gRows, genRow{coef: coef, rhs: -lb[j], orig: -1, sign: 1, scale: 1})
		}
	}
	if cfg.equilibrate {
		equilibrate(gRows)
		equilibrate(aRows)
	}

	keep, ok := independentRows(aRows)
	if !ok {
		return lpResult{status: solver.Infeasible}
	}
	aRows = pick(aRows, keep)

	G, h := stack(gRows, nv)
	A, b := stack(aRows, nv)
	xs, err := runSimplex(cu, G, h, A, b)
	if err != nil {
		return lpResult{status: classify(err)}
	}
	for k, j := range cols {
		x[j] = xs[k] - xs[nv+k]
	}

	res := lpResult{status: solver.Optimal, x: x}
	if cfg.wantDuals {
		res.duals = rowDuals(gRows, aRows, cu, nRows)
	}

	return res
}

// equilibrate scales every row to unit max-norm.
func equilibrate(rows []genRow) {
	for i := range rows {
		mx := floats.Norm(rows[i].coef, math.Inf(1))
		if mx == 0 || mx == 1 {
			continue
		}
		s := 1 / mx
		floats.Scale(s, rows[i].coef)
		rows[i].rhs *= s
		rows[i].scale = s
	}
}

func pick(rows []genRow, keep []int) []genRow {
	out := make([]genRow, len(keep))
	for i, k := range keep {
		out[i] = rows[k]
	}
	return out
}

// stack builds the dense matrix and right-hand side of rows. With no rows
// both results are untyped nil, which is what lp.Convert tests for.
func stack(rows []genRow, nv int) (mat.Matrix, []float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	m := mat.NewDense(len(rows), nv, nil)
	rhs := make([]float64, len(rows))
	for i, r := range rows {
		m.SetRow(i, r.coef)
		rhs[i] = r.rhs
	}
	return m, rhs
}

// errSimplexPanic wraps a panic raised inside the gonum conversion or
// simplex; classify reports it as NUMERIC.
var errSimplexPanic = errors.New("lpsolver: simplex panicked")

// runSimplex converts the general form min c·x s.t. G·x ≤ h, A·x = b to
// standard form and solves it. x holds the positive parts of the original
// variables followed by the negative parts.
func runSimplex(c []float64, G mat.Matrix, h []float64, A mat.Matrix, b []float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%w: %v", errSimplexPanic, r)
		}
	}()
	cStd, aStd, bStd := lp.Convert(c, G, h, A, b)
	_, x, err = lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	return x, err
}

// standardSimplex solves min c·x s.t. A·x = b, x ≥ 0 directly.
func standardSimplex(c []float64, A mat.Matrix, b []float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%w: %v", errSimplexPanic, r)
		}
	}()
	_, x, err = lp.Simplex(c, A, b, simplexTol, nil)
	return x, err
}

func classify(err error) solver.Status {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return solver.Infeasible
	case errors.Is(err, lp.ErrUnbounded):
		return solver.Unbounded
	}
	return solver.Numeric
}

// independentRows returns the indices of a maximal linearly independent
// subset of rows, in order, by Gaussian elimination on [coef | rhs]. A
// dependent row whose right-hand side disagrees makes the system
// inconsistent (ok == false).
func independentRows(rows []genRow) (keep []int, ok bool) {
	if len(rows) == 0 {
		return nil, true
	}
	nv := len(rows[0].coef)
	var basis [][]float64 // reduced rows, length nv+1
	var pivots []int
	for i, r := range rows {
		w := make([]float64, nv+1)
		copy(w, r.coef)
		w[nv] = r.rhs
		for k, br := range basis {
			if f := w[pivots[k]]; f != 0 {
				floats.AddScaled(w, -f, br)
			}
		}
		pivot := floats.MaxIdx(absCopy(w[:nv]))
		scale := floats.Norm(r.coef, math.Inf(1))
		if math.Abs(w[pivot]) <= rankTol*math.Max(scale, 1) {
			if math.Abs(w[nv]) > 1e-7*(1+math.Abs(r.rhs)) {
				return nil, false
			}
			continue
		}
		floats.Scale(1/w[pivot], w)
		// Keep earlier basis rows reduced in the new pivot column.
		for _, br := range basis {
			if f := br[pivot]; f != 0 {
				floats.AddScaled(br, -f, w)
			}
		}
		basis = append(basis, w)
		pivots = append(pivots, pivot)
		keep = append(keep, i)
	}

	return keep, true
}

func absCopy(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
