// Package network validates raw power-system case tables and indexes them
// into the Bus, Branch and Generator records every formulation works on.
//
// What
//
//   - NewNetwork turns a Case (MATPOWER-shaped bus/gen/branch/gencost tables)
//     into an immutable Network in per-unit on the case baseMVA.
//   - Every bus gets a dense 1-based Count; lookups by external NodeID or by
//     Count are O(1), and Buses is already sorted by Count, which is the
//     canonical order for all downstream loops.
//   - Each bus keeps its generator list and two ordered lists of incident
//     branches (branches leaving it as the "from" end and arriving as "to").
//   - Each branch carries its admittance quadruple, computed once from
//     (r, x, bc, ratio, angle) by ComputeAdmittance.
//
// Failures
//
//	Construction fails with a *DataError (wrapping ErrData) on a duplicate
//	bus id, a branch or generator referencing an unknown bus, a missing or
//	ambiguous reference bus, a zero-impedance branch in service, or an
//	unsupported cost model. No partially built Network is ever returned.
//
// Mutation
//
//	The only mutations allowed after construction are bound tightening
//	(SetInputVoltages, ClampPhaseDiff); both must happen before a program is
//	built from the network.
//
// Complexity
//
//   - NewNetwork: O(B + L + G) time and memory.
//   - BalanceBounds: O(gens at the bus).
package network
