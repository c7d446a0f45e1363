package violation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gridopf/network"
)

// Evaluate computes, for externally supplied bus voltages keyed by bus id,
// the magnitude bound excess of every bus, the real and reactive injection
// each bus would need beyond its in-service generator capacity, and the
// thermal excess of every rated in-service branch. Flows use the same
// admittance expressions as the formulations. No solver is involved.
//
// Every bus must have a voltage; a missing one is a *network.DataError.
func Evaluate(net *network.Network, volts map[int]Voltage, rep Representation) (*Report, error) {
	if net == nil {
		return nil, ErrNilNetwork
	}
	if rep != Polar && rep != Rectangular {
		return nil, ErrUnknownRepresentation
	}

	nb := net.NumBuses()
	e := make([]float64, nb)
	f := make([]float64, nb)
	for i, b := range net.Buses {
		v, ok := volts[b.NodeID]
		if !ok {
			return nil, &network.DataError{Entity: "bus", ID: b.NodeID, Reason: "no voltage supplied"}
		}
		if rep == Polar {
			e[i], f[i] = v.A*math.Cos(v.B), v.A*math.Sin(v.B)
		} else {
			e[i], f[i] = v.A, v.B
		}
	}

	base := net.BaseMVA
	report := &Report{
		Buses:    make([]BusViolation, nb),
		Branches: make([]BranchViolation, net.NumBranches()),
	}

	for i, br := range net.Branches {
		out := &report.Branches[i]
		out.Index, out.From, out.To = br.Index, br.From, br.To
		if !br.Status {
			continue
		}
		from, to := net.Ends(br)
		fi, ti := from.Count-1, to.Count-1
		cff, ctt, c, s := network.RectProducts(e[fi], f[fi], e[ti], f[ti])
		pf, qf, pt, qt := br.Y.Flows(cff, ctt, c, s)
		out.Pf, out.Qf, out.Pt, out.Qt = pf*base, qf*base, pt*base, qt*base

		if br.ConstrainedFlow {
			sf := floats.Norm([]float64{pf, qf}, 2)
			st := floats.Norm([]float64{pt, qt}, 2)
			out.Limitviol = math.Max(0, floats.Max([]float64{sf, st})-br.Limit) * base
		}
	}

	p, q := injections(net, e, f)
	for i, b := range net.Buses {
		vm2 := e[i]*e[i] + f[i]*f[i]
		vm := math.Sqrt(vm2)
		p[i] += b.Pd + b.Gs*vm2
		q[i] += b.Qd - b.Bs*vm2

		var pmin, pmax, qmin, qmax float64
		for _, g := range net.BusGenerators(b) {
			if !g.Status {
				continue
			}
			pmin += g.Pmin
			pmax += g.Pmax
			qmin += g.Qmin
			qmax += g.Qmax
		}

		report.Buses[i] = BusViolation{
			ID:     b.NodeID,
			Vm:     vm,
			Va:     math.Atan2(f[i], e[i]),
			P:      p[i] * base,
			Q:      q[i] * base,
			Vmviol: outside(vm, b.Vmin, b.Vmax),
			Pviol:  outside(p[i], pmin, pmax) * base,
			Qviol:  outside(q[i], qmin, qmax) * base,
		}
	}

	return report, nil
}

// injections returns the real and reactive power each bus sends into its
// in-service branches, S = V∘conj(Ybus·V), with the complex product
// carried out in real block form:
//
//	[Ir]   [G  -B] [e]
//	[Ij] = [B   G] [f]
func injections(net *network.Network, e, f []float64) (p, q []float64) {
	nb := len(e)
	y := mat.NewDense(2*nb, 2*nb, nil)
	add := func(i, j int, g, b float64) {
		y.Set(i, j, y.At(i, j)+g)
		y.Set(i, nb+j, y.At(i, nb+j)-b)
		y.Set(nb+i, j, y.At(nb+i, j)+b)
		y.Set(nb+i, nb+j, y.At(nb+i, nb+j)+g)
	}
	for _, br := range net.Branches {
		if !br.Status {
			continue
		}
		from, to := net.Ends(br)
		fi, ti := from.Count-1, to.Count-1
		add(fi, fi, br.Y.Gff, br.Y.Bff)
		add(fi, ti, br.Y.Gft, br.Y.Bft)
		add(ti, fi, br.Y.Gtf, br.Y.Btf)
		add(ti, ti, br.Y.Gtt, br.Y.Btt)
	}

	v := mat.NewVecDense(2*nb, append(append([]float64(nil), e...), f...))
	var cur mat.VecDense
	cur.MulVec(y, v)

	p = make([]float64, nb)
	q = make([]float64, nb)
	for i := range e {
		ir, ij := cur.AtVec(i), cur.AtVec(nb+i)
		p[i] = e[i]*ir + f[i]*ij
		q[i] = f[i]*ir - e[i]*ij
	}
	return p, q
}

// outside is the distance from x to [lo, hi].
func outside(x, lo, hi float64) float64 {
	return floats.Max([]float64{0, x - hi, lo - x})
}

// Max returns the largest violation of each kind.
func (r *Report) Max() (vm, p, q, limit float64) {
	for _, b := range r.Buses {
		vm = math.Max(vm, b.Vmviol)
		p = math.Max(p, b.Pviol)
		q = math.Max(q, b.Qviol)
	}
	for _, br := range r.Branches {
		limit = math.Max(limit, br.Limitviol)
	}
	return vm, p, q, limit
}

// Clean reports whether no violation exceeds tol.
func (r *Report) Clean(tol float64) bool {
	vm, p, q, limit := r.Max()
	return floats.Max([]float64{vm, p, q, limit}) <= tol
}
