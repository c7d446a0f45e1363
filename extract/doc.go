// Package extract decompiles a solved formulation.Program into a
// case-shaped Result.
//
// What
//
//   - Static case tables in their original units (MW, MVAr, degrees),
//     overwritten with solved Vm, Va (radians), Pg, Qg and the four
//     branch-end flows, scaled back by baseMVA.
//   - success, f (objective) and et (runtime seconds).
//   - mu per bus from the balance duals of a DC linear program.
//   - switching per branch: z > 0.5 when switching was modeled, else 1.
//
// Angle reconstruction
//
//	Rectangular programs have no angle variables. ReconstructAngles walks
//	the network breadth-first from the reference bus (package bfs) and
//	propagates θ across each tree branch from its products c and s, using
//	the step's Direction to pick the sign. A bus outside the reference
//	bus's island is reported as a *network.DataError, never a zero angle.
//
// Complexity: O(B + L) after the values are read.
package extract
