// Package casefile moves power-network data between files and the
// network.Case tables.
//
// Case files
//
//	.yaml/.yml  YAML with the bus, gen, branch and gencost tables keyed by
//	            their MATPOWER column names (see network.BusRecord).
//	.json       the same shape as JSON.
//	.m          a MATPOWER case function: mpc.baseMVA plus the mpc.bus,
//	            mpc.gen, mpc.branch and mpc.gencost matrices.
//
// Unknown YAML or JSON fields are rejected. Malformed input is reported as
// a *ParseError carrying the source and line, which wraps ErrFormat.
//
// Voltage files hold one "bus <id> M <vm> A <deg>" line per bus and end at
// END; DecodeVolts converts the angles to radians.
//
// Encode and WriteFile export results as YAML or JSON.
package casefile
