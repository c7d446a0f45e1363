package solver

import (
	"context"
	"time"
)

// Builder is the write side of a program: variables first, then the
// constraints that reference them, then the objective.
type Builder interface {
	// AddVar creates a variable with bounds [lb, ub] and objective
	// coefficient obj. Use ±Infinity for free bounds.
	AddVar(name string, lb, ub, obj float64, vt VarType) (Var, error)

	// AddConstr adds expr (sense) rhs.
	AddConstr(name string, expr LinExpr, sense Sense, rhs float64) (Constr, error)

	// AddQConstr adds a quadratic constraint expr (sense) rhs.
	AddQConstr(name string, expr QuadExpr, sense Sense, rhs float64) (Constr, error)

	// AddGenConstr adds y = fn(x).
	AddGenConstr(name string, fn Func, x, y Var) (Constr, error)

	// Objective returns the current objective, including the linear part
	// contributed by variable objective coefficients.
	Objective() QuadExpr

	// SetObjective replaces the objective (minimized).
	SetObjective(obj QuadExpr) error
}

// Tuner sets and reads named solver parameters.
type Tuner interface {
	SetParam(name string, value float64) error
	Param(name string) (float64, error)
	// ReadParams applies "Name value" lines from a parameter file.
	ReadParams(path string) error
}

// Optimizer drives a solve and reports its terminal state.
type Optimizer interface {
	Tuner

	// SetStart provides a warm-start value for v.
	SetStart(v Var, value float64) error

	// Optimize solves the program. A returned error means the solve could
	// not be attempted (unsupported class, closed model); solver outcomes
	// are reported through Status.
	Optimize(ctx context.Context) error

	// ComputeIIS computes an irreducible inconsistent subsystem of an
	// infeasible program; WriteIIS persists it.
	ComputeIIS(ctx context.Context) error
	WriteIIS(path string) error

	Status() Status
	SolCount() int
	Runtime() time.Duration
}

// Solution reads values from the last successful solve.
type Solution interface {
	ObjVal() (float64, error)
	Value(v Var) (float64, error)
	// Dual returns the shadow price of c. Backends return ErrNoDual when
	// duals are unavailable.
	Dual(c Constr) (float64, error)
	IsMIP() bool
}

// Model is a complete solver session. Close releases it; no value may be
// read afterwards.
type Model interface {
	Builder
	Optimizer
	Solution

	NumVars() int
	NumConstrs() int
	VarName(v Var) string
	// Write exports the program in LP format.
	Write(path string) error
	Close() error
}

// Factory creates an empty model.
type Factory func(name string) (Model, error)
