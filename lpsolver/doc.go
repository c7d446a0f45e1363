// Package lpsolver is a pure-Go solver.Model backend for linear and
// mixed-binary linear programs, built on the gonum simplex.
//
// What
//
//   - Continuous and binary variables with explicit bounds.
//   - Linear constraints (≤, =, ≥) and a linear objective, minimized.
//   - Presolve: fixed variables are substituted, empty rows are checked and
//     dropped, unused variables are set from their objective sign.
//   - Depth-first branch-and-bound over binaries, warm-started by a MIP start.
//   - Shadow prices of pure LPs, from the dual program.
//   - IIS by a deletion filter over constraints and then variable bounds.
//   - LP-format export of the model and of the IIS.
//
// Quadratic constraints, general constraints and quadratic objectives can
// be built and exported, but Optimize rejects them with solver.ErrUnsupported.
//
// Parameters
//
//	DualReductions=1 lets presolve report an unbounded unused variable as
//	INF_OR_UNBOUNDED without checking feasibility; 0 resolves it.
//	NumericFocus≥1 equilibrates constraint rows before the simplex.
//	MIPGap prunes nodes whose bound is within the relative gap of the
//	incumbent. TimeLimit and the context bound the search (INTERRUPTED).
//	Other recognized parameters are stored and reported only.
//
// Complexity
//
//	Each LP is solved densely: O((m+n)·n) memory for m rows and n
//	variables. The backend targets test and small study cases.
//
// Usage
//
//	m, _ := lpsolver.New("dc", lpsolver.WithLogger(log))
//	x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
//	m.AddConstr("c", *solver.NewLinExpr(0).Add(1, x), solver.GreaterEqual, 2)
//	_ = m.Optimize(ctx)
//	v, _ := m.Value(x) // 2
package lpsolver
