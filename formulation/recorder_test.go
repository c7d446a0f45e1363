package formulation_test

import (
	"context"
	"time"

	"github.com/katalvlaran/gridopf/solver"
)

// recorder is a solver.Model that stores what a build adds and answers
// value queries from an assignment set by the test.
type recorder struct {
	names []string
	lb    []float64
	ub    []float64
	types []solver.VarType
	obj   solver.QuadExpr
	rows  []recordedRow
	gens  []recordedGen
	x     []float64
}

type recordedRow struct {
	name  string
	expr  solver.QuadExpr
	sense solver.Sense
	rhs   float64
}

type recordedGen struct {
	name string
	fn   solver.Func
	x, y solver.Var
}

func newRecorder() *recorder { return &recorder{} }

func (r *recorder) AddVar(name string, lb, ub, obj float64, vt solver.VarType) (solver.Var, error) {
	v := solver.Var(len(r.names))
	r.names = append(r.names, name)
	r.lb = append(r.lb, lb)
	r.ub = append(r.ub, ub)
	r.types = append(r.types, vt)
	r.obj.AddLin(obj, v)
	r.x = append(r.x, 0)
	return v, nil
}

func (r *recorder) AddConstr(name string, e solver.LinExpr, sense solver.Sense, rhs float64) (solver.Constr, error) {
	return r.AddQConstr(name, *solver.NewQuadExpr(e), sense, rhs)
}

func (r *recorder) AddQConstr(name string, q solver.QuadExpr, sense solver.Sense, rhs float64) (solver.Constr, error) {
	r.rows = append(r.rows, recordedRow{name: name, expr: q, sense: sense, rhs: rhs})
	return solver.Constr(len(r.rows) - 1), nil
}

func (r *recorder) AddGenConstr(name string, fn solver.Func, x, y solver.Var) (solver.Constr, error) {
	r.gens = append(r.gens, recordedGen{name: name, fn: fn, x: x, y: y})
	return solver.Constr(len(r.rows) + len(r.gens) - 1), nil
}

func (r *recorder) Objective() solver.QuadExpr {
	out := *solver.NewQuadExpr(r.obj.Lin)
	out.Terms = append(out.Terms, r.obj.Terms...)
	return out
}

func (r *recorder) SetObjective(q solver.QuadExpr) error { r.obj = q; return nil }

func (r *recorder) SetParam(string, float64) error { return nil }
func (r *recorder) Param(string) (float64, error) { return 0, nil }
func (r *recorder) ReadParams(string) error { return nil }
func (r *recorder) SetStart(solver.Var, float64) error { return nil }
func (r *recorder) Optimize(context.Context) error { return nil }
func (r *recorder) ComputeIIS(context.Context) error { return nil }
func (r *recorder) WriteIIS(string) error { return nil }
func (r *recorder) Status() solver.Status { return solver.Optimal }
func (r *recorder) SolCount() int { return 1 }
func (r *recorder) Runtime() time.Duration { return 0 }
func (r *recorder) ObjVal() (float64, error) { return r.obj.Eval(r.x), nil }
func (r *recorder) Value(v solver.Var) (float64, error) { return r.x[v], nil }
func (r *recorder) Dual(solver.Constr) (float64, error) { return 0, solver.ErrNoDual }
func (r *recorder) IsMIP() bool { return false }
func (r *recorder) NumVars() int { return len(r.names) }
func (r *recorder) NumConstrs() int { return len(r.rows) + len(r.gens) }
func (r *recorder) VarName(v solver.Var) string { return r.names[v] }
func (r *recorder) Write(string) error { return nil }
func (r *recorder) Close() error { return nil }

// row returns the first row named name.
func (r *recorder) row(name string) (recordedRow, bool) {
	for _, row := range r.rows {
		if row.name == name {
			return row, true
		}
	}
	return recordedRow{}, false
}

// varNamed returns the variable named name.
func (r *recorder) varNamed(name string) (solver.Var, bool) {
	for i, n := range r.names {
		if n == name {
			return solver.Var(i), true
		}
	}
	return 0, false
}

// violation is how far row is from holding at the current assignment.
func (r *recorder) violation(row recordedRow) float64 {
	lhs := row.expr.Eval(r.x) - row.rhs
	switch row.sense {
	case solver.LessEqual:
		if lhs < 0 {
			return 0
		}
		return lhs
	case solver.GreaterEqual:
		if lhs > 0 {
			return 0
		}
		return -lhs
	}
	if lhs < 0 {
		return -lhs
	}
	return lhs
}
