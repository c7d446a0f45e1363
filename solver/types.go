package solver

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every backend.
var (
	// ErrUnsupported is returned when a backend cannot handle a constraint
	// or objective class present in the model.
	ErrUnsupported = errors.New("solver: unsupported model class")

	// ErrNoSolution is returned when values are queried without a feasible
	// solution.
	ErrNoSolution = errors.New("solver: no solution available")

	// ErrNoDual is returned when duals are unavailable (MIP, non-optimal).
	ErrNoDual = errors.New("solver: dual values unavailable")

	// ErrUnknownVar is returned for a handle the model did not issue.
	ErrUnknownVar = errors.New("solver: unknown variable")

	// ErrUnknownConstr is returned for a constraint handle the model did not issue.
	ErrUnknownConstr = errors.New("solver: unknown constraint")

	// ErrUnknownParam is returned for an unrecognized parameter name.
	ErrUnknownParam = errors.New("solver: unknown parameter")

	// ErrClosed is returned by any call on a closed model.
	ErrClosed = errors.New("solver: model closed")
)

// Infinity is the bound magnitude treated as unbounded.
const Infinity = 1e100

// Var is a variable handle.
type Var int

// Constr is a constraint handle.
type Constr int

// VarType distinguishes continuous and binary variables.
type VarType int

const (
	Continuous VarType = iota
	Binary
)

// Sense is the relation of a constraint.
type Sense int

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// Func selects the function of a general constraint y = f(x).
type Func int

const (
	Cos Func = iota
	Sin
)

func (f Func) String() string {
	if f == Cos {
		return "COS"
	}
	return "SIN"
}

// Status is the state of a model after Optimize.
type Status int

const (
	Loaded Status = iota
	Optimal
	Infeasible
	InfOrUnbounded
	Unbounded
	Numeric
	Interrupted
)

var statusNames = map[Status]string{
	Loaded:         "LOADED",
	Optimal:        "OPTIMAL",
	Infeasible:     "INFEASIBLE",
	InfOrUnbounded: "INF_OR_UNBOUNDED",
	Unbounded:      "UNBOUNDED",
	Numeric:        "NUMERIC",
	Interrupted:    "INTERRUPTED",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Parameter names.
const (
	ParamDualReductions = "DualReductions"
	ParamNumericFocus   = "NumericFocus"
	ParamBarHomogeneous = "BarHomogeneous"
	ParamMIPGap         = "MIPGap"
	ParamOptimalityTol  = "OptimalityTol"
	ParamFeasibilityTol = "FeasibilityTol"
	ParamTimeLimit      = "TimeLimit"
	ParamNonConvex      = "NonConvex"
	ParamOutputFlag     = "OutputFlag"
	ParamThreads        = "Threads"
)

// DefaultParams lists every recognized parameter with its default value.
func DefaultParams() map[string]float64 {
	return map[string]float64{
		ParamDualReductions: 1,
		ParamNumericFocus:   0,
		ParamBarHomogeneous: -1,
		ParamMIPGap:         1e-4,
		ParamOptimalityTol:  1e-6,
		ParamFeasibilityTol: 1e-6,
		ParamTimeLimit:      Infinity,
		ParamNonConvex:      -1,
		ParamOutputFlag:     1,
		ParamThreads:        0,
	}
}
