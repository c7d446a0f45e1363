// Package solve drives a built program through the solver and reacts to
// its terminal status.
//
// State machine
//
//	BUILT -> SOLVING -> OPTIMAL | INFEASIBLE | INF_OR_UNBOUNDED |
//	                    UNBOUNDED | NUMERIC | INTERRUPTED
//
// The steps below are checked once each, in this order:
//
//   - INF_OR_UNBOUNDED: dual reductions off, re-solve.
//   - INFEASIBLE: IIS computed and written to Options.IISPath; terminal.
//   - NUMERIC: numeric focus raised, homogeneous barrier, re-solve.
//
// The status after the last step that fired is final, so an
// INF_OR_UNBOUNDED that follows the numeric re-solve is reported as is.
//
// Retries never rebuild the program. A feasible-solution count of 0 is
// reported in the Outcome; Outcome.Failure converts a non-optimal status
// into a *SolveFailure for callers that treat it as fatal.
//
// Usage
//
//	_ = solve.Tune(model, prog.Config.Family, solve.Tuning{TimeLimit: time.Minute})
//	out, err := solve.Run(ctx, model,
//	    solve.WithStart(solve.MIPStart(prog, false)),
//	    solve.WithIISPath(solve.DefaultIISPath(prog.Config.Family)),
//	)
package solve
