package lpsolver

import (
	"gonum.org/v1/gonum/mat"
)

// rowDuals solves the dual of
//
//	min cᵀx  s.t.  G·x ≤ h,  A·x = b
//
// which is
//
//	min hᵀλ + bᵀν  s.t.  Gᵀλ + Aᵀν = -c,  λ ≥ 0
//
// with ν split into ν⁺ - ν⁻, and maps the multipliers back to shadow
// prices per problem row: -λ for ≤ rows, +λ for ≥ rows, -ν for = rows,
// undoing any row scaling. Rows left out by presolve get 0. Returns nil
// when the dual cannot be solved.
func rowDuals(gRows, aRows []genRow, c []float64, nRows int) []float64 {
	nG, nA := len(gRows), len(aRows)
	nCols := nG + 2*nA
	nv := len(c)

	rows := make([]genRow, nv)
	for k := 0; k < nv; k++ {
		coef := make([]float64, nCols)
		for i, g := range gRows {
			coef[i] = g.coef[k]
		}
		for i, a := range aRows {
			coef[nG+i] = a.coef[k]
			coef[nG+nA+i] = -a.coef[k]
		}
		rows[k] = genRow{coef: coef, rhs: -c[k], sign: 1, scale: 1}
	}
	keep, ok := independentRows(rows)
	if !ok || len(keep) == 0 {
		return nil
	}
	rows = pick(rows, keep)

	cost := make([]float64, nCols)
	for i, g := range gRows {
		cost[i] = g.rhs
	}
	for i, a := range aRows {
		cost[nG+i] = a.rhs
		cost[nG+nA+i] = -a.rhs
	}
	D := mat.NewDense(len(rows), nCols, nil)
	rhs := make([]float64, len(rows))
	for i, r := range rows {
		D.SetRow(i, r.coef)
		rhs[i] = r.rhs
	}
	y, err := standardSimplex(cost, D, rhs)
	if err != nil {
		return nil
	}

	duals := make([]float64, nRows)
	for i, g := range gRows {
		if g.orig >= 0 {
			duals[g.orig] = -g.sign * g.scale * y[i]
		}
	}
	for i, a := range aRows {
		duals[a.orig] = -a.scale * (y[nG+i] - y[nG+nA+i])
	}

	return duals
}
