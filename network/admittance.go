package network

import (
	"math"
	"math/cmplx"
)

// ComputeAdmittance returns the branch admittance quadruple for the
// standard π model with an ideal off-nominal transformer at the from end:
//
//	ys  = 1 / (r + jx)
//	tap = ratio·e^{j·shift}
//	Ytt = ys + j·bc/2
//	Yff = Ytt / |tap|²
//	Yft = -ys / conj(tap)
//	Ytf = -ys / tap
//
// ratio 0 is treated as 1. shift is in radians.
func ComputeAdmittance(r, x, bc, ratio, shift float64) Admittance {
	if ratio == 0 {
		ratio = 1
	}
	ys := 1 / complex(r, x)
	tap := cmplx.Rect(ratio, shift)
	ytt := ys + complex(0, bc/2)
	yff := ytt / complex(ratio*ratio, 0)
	yft := -ys / cmplx.Conj(tap)
	ytf := -ys / tap

	return Admittance{
		Gff: real(yff), Bff: imag(yff),
		Gft: real(yft), Bft: imag(yft),
		Gtf: real(ytf), Btf: imag(ytf),
		Gtt: real(ytt), Btt: imag(ytt),
	}
}

// recompute derives AngleRad and Y from R, X, Bc, Ratio and Angle.
func (br *Branch) recompute() {
	br.AngleRad = br.Angle * math.Pi / 180
	br.Y = ComputeAdmittance(br.R, br.X, br.Bc, br.Ratio, br.AngleRad)
}

// DCCoeff is the susceptance 1/(x·ratio) of the linearized flow
// P = (θf - θt - shift)·DCCoeff.
func (br *Branch) DCCoeff() float64 {
	return 1 / (br.X * br.Ratio)
}

// Flows evaluates the four branch-end power injections from the voltage
// products cff = |Vf|², ctt = |Vt|², c = ef·et + ff·ft and s = ef·ft - et·ff.
// Every AC-family formulation binds its flow variables to exactly these
// linear combinations.
func (y Admittance) Flows(cff, ctt, c, s float64) (pf, qf, pt, qt float64) {
	pf = y.Gff*cff + y.Gft*c - y.Bft*s
	qf = -y.Bff*cff - y.Bft*c - y.Gft*s
	pt = y.Gtt*ctt + y.Gtf*c + y.Btf*s
	qt = -y.Btt*ctt - y.Btf*c + y.Gtf*s

	return pf, qf, pt, qt
}

// RectProducts returns (cff, ctt, c, s) for rectangular end voltages.
func RectProducts(ef, ff, et, ft float64) (cff, ctt, c, s float64) {
	return ef*ef + ff*ff, et*et + ft*ft, ef*et + ff*ft, ef*ft - et*ff
}

// PolarProducts returns (cff, ctt, c, s) for polar end voltages; angles in
// radians.
func PolarProducts(vf, af, vt, at float64) (cff, ctt, c, s float64) {
	d := af - at
	return vf * vf, vt * vt, vf * vt * math.Cos(d), -vf * vt * math.Sin(d)
}
