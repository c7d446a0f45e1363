// Package solver defines the boundary between the OPF pipeline and an
// external mathematical-programming solver.
//
// The pipeline never depends on a concrete solver. It builds programs
// through Builder, drives them through Optimizer and reads results through
// Solution; Model bundles the three together with export and lifecycle
// calls. Variables and constraints are opaque handles (Var, Constr) issued
// by the model that created them.
//
// Expressions
//
//	LinExpr and QuadExpr are plain values: a constant, a list of linear
//	terms and (for QuadExpr) a list of bilinear terms. Duplicated terms are
//	allowed; models merge them.
//
// Parameters
//
//	Parameter names follow the conventions of commercial MIP solvers
//	(DualReductions, NumericFocus, BarHomogeneous, MIPGap, OptimalityTol,
//	TimeLimit, NonConvex, ...). A backend that does not implement a
//	parameter still accepts and reports it.
//
// Statuses
//
//	Status enumerates terminal solve states; the solve package maps them to
//	its retry policy.
package solver
