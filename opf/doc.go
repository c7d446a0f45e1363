// Package opf wires the gridopf stages into the two end-to-end pipelines.
//
// Solve:
//
//	network.NewNetwork → input voltages / phase limits → solver session
//	→ formulation.Build → optional LP export → solve.Tune → solve.Run
//	→ extract.Extract
//
// Violations:
//
//	network.NewNetwork → voltages (file or case) → violation.Evaluate
//
// Each Solve call opens exactly one solver session through the configured
// solver.Factory and closes it before returning, on every path. Every log
// line of a run carries the same session id.
package opf
