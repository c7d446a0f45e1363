// Package violation evaluates a fixed set of bus voltages against a
// network's physical limits without solving anything.
//
// For every bus it reports the voltage magnitude bound excess and the real
// and reactive injection the voltages require (flows out of the bus plus
// demand plus shunt) beyond what the bus's in-service generators can
// supply. For every rated, in-service branch it reports how far the larger
// end's apparent power exceeds the rating.
//
// Bus injections are taken from the bus admittance matrix product Ybus·V;
// branch flows from each branch's admittance quadruple.
//
// Voltages come either in polar form (magnitude, radians) or rectangular
// form (e, f). Results are in MW, MVAr and per-unit voltage.
package violation
