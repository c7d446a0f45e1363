// Package formulation translates a network.Network into a mathematical
// program on any solver.Model.
//
// What
//
//   - Three families behind one FormulationStrategy interface:
//     DC (angles, linear flows), AC (rectangular exact, rectangular Jabr
//     cone, or polar) and IV (rectangular currents and voltages).
//   - Shared parts: generator outputs, net injections bounded by
//     Network.BalanceBounds, per-bus balance rows, thermal limits,
//     optional active-loss cuts and the linear/quadratic/constant cost.
//   - Branch switching: MIP (binary z, twin flows, big-M with the branch
//     limit) or complementarity (continuous z, X·(1-z) = 0, slack·z = 0),
//     plus Σz >= floor(numbranches·fraction).
//
// Build normalizes the BuildConfig first. Combinations a family cannot
// honor are switched off and reported as Notices (for example, IV drops
// switching). Contradictions that cannot be resolved return a
// *ConfigError.
//
// Naming
//
//	Variables and rows carry stable names built from bus ids and branch
//	indices (theta_3, GP_1_1, P_2_2_3, Pdef_2_2_3, PBaldef3_3, lincostdef),
//	so an exported LP file can be read against the case.
//
// Usage
//
//	model, _ := lpsolver.New("dcopf")
//	prog, err := formulation.Build(net, model, cfg, formulation.WithLogger(log))
//	if err != nil { /* ConfigError or solver error */ }
//	// optimize, then:
//	raw, err := prog.Strategy.ExtractSolution(prog, model)
//
// Errors
//
//   - ErrNilNetwork, ErrNilModel  for nil inputs.
//   - *ConfigError (wraps ErrConfig) for illegal configurations.
//   - ErrOptionViolation           for invalid Options.
//   - Wrapped solver errors from the model.
package formulation
