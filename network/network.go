package network

import (
	"math"
	"sort"
)

// Network is the validated, indexed aggregate of a case. Slices are ordered
// by Count (buses), Index (branches) and Count (generators).
type Network struct {
	BaseMVA    float64
	Buses      []*Bus
	Branches   []*Branch
	Generators []*Generator

	idToCount map[int]int
	refCount  int

	// System-wide sums in per unit, used for generous default bounds.
	SumPd, SumQd           float64
	SumMaxGenP, SumMaxGenQ float64
}

// NewNetwork validates c and builds a per-unit Network from it.
// Returns a *DataError for any inconsistency; c is not modified.
func NewNetwork(c *Case) (*Network, error) {
	if c == nil {
		return nil, dataErr("network", 0, "case is nil")
	}
	if len(c.Buses) == 0 {
		return nil, dataErr("network", 0, "case has no buses")
	}
	base := c.BaseMVA
	if base == 0 {
		base = DefaultBaseMVA
	}
	if base < 0 || math.IsNaN(base) {
		return nil, dataErr("network", 0, "baseMVA must be positive, got %g", c.BaseMVA)
	}

	n := &Network{
		BaseMVA:    base,
		Buses:      make([]*Bus, 0, len(c.Buses)),
		Branches:   make([]*Branch, 0, len(c.Branches)),
		Generators: make([]*Generator, 0, len(c.Generators)),
		idToCount:  make(map[int]int, len(c.Buses)),
	}
	if err := n.addBuses(c.Buses); err != nil {
		return nil, err
	}
	if err := n.addGenerators(c.Generators, c.GenCosts); err != nil {
		return nil, err
	}
	if err := n.addBranches(c.Branches); err != nil {
		return nil, err
	}
	n.computeSums()

	return n, nil
}

// addBuses assigns dense counts in table order and locates the single
// reference bus.
func (n *Network) addBuses(rows []BusRecord) error {
	for i, r := range rows {
		if _, dup := n.idToCount[r.ID]; dup {
			return dataErr("bus", r.ID, "duplicate bus id")
		}
		if r.Vmax < r.Vmin {
			return dataErr("bus", r.ID, "Vmax %g below Vmin %g", r.Vmax, r.Vmin)
		}
		b := &Bus{
			NodeID: r.ID,
			Count:  i + 1,
			Type:   BusType(r.Type),
			Pd:     r.Pd / n.BaseMVA,
			Qd:     r.Qd / n.BaseMVA,
			Gs:     r.Gs / n.BaseMVA,
			Bs:     r.Bs / n.BaseMVA,
			Area:   r.Area,
			Vm:     r.Vm,
			Va:     r.Va,
			BaseKV: r.BaseKV,
			Zone:   r.Zone,
			Vmax:   r.Vmax,
			Vmin:   r.Vmin,
		}
		n.idToCount[r.ID] = b.Count
		n.Buses = append(n.Buses, b)

		if b.Type == BusRef {
			if n.refCount != 0 {
				return dataErr("bus", r.ID, "second reference bus (first is %d)", n.Buses[n.refCount-1].NodeID)
			}
			n.refCount = b.Count
		}
	}
	if n.refCount == 0 {
		return dataErr("network", 0, "no reference bus (type 3)")
	}

	return nil
}

func (n *Network) addGenerators(rows []GenRecord, costs []GenCostRecord) error {
	if len(costs) != 0 && len(costs) != len(rows) && len(costs) != 2*len(rows) {
		return dataErr("gencost", len(costs), "expected %d or %d rows", len(rows), 2*len(rows))
	}
	for i, r := range rows {
		count := i + 1
		bus, ok := n.BusByID(r.Bus)
		if !ok {
			return dataErr("gen", count, "unknown bus %d", r.Bus)
		}
		g := &Generator{
			Count:   count,
			Bus:     r.Bus,
			Pg:      r.Pg,
			Qg:      r.Qg,
			Pmax:    r.Pmax / n.BaseMVA,
			Pmin:    r.Pmin / n.BaseMVA,
			Qmax:    r.Qmax / n.BaseMVA,
			Qmin:    r.Qmin / n.BaseMVA,
			Vg:      r.Vg,
			MBase:   r.MBase,
			Status:  r.Status > 0,
			Pc1:     r.Pc1,
			Pc2:     r.Pc2,
			Qc1min:  r.Qc1min,
			Qc1max:  r.Qc1max,
			Qc2min:  r.Qc2min,
			Qc2max:  r.Qc2max,
			RampAGC: r.RampAGC,
			Ramp10:  r.Ramp10,
			Ramp30:  r.Ramp30,
			RampQ:   r.RampQ,
			APF:     r.APF,
		}
		if len(costs) > 0 {
			if err := g.setCost(costs[i], n.BaseMVA); err != nil {
				return err
			}
		} else {
			g.CostType = CostPolynomial
			g.Cost = []float64{0}
		}
		bus.GenCounts = append(bus.GenCounts, count)
		n.Generators = append(n.Generators, g)
	}

	return nil
}

// setCost validates a polynomial cost row and scales coefficient j by
// baseMVA^(degree-j) so the cost is expressed in per-unit power.
func (g *Generator) setCost(r GenCostRecord, base float64) error {
	if r.Model != CostPolynomial {
		return dataErr("gencost", g.Count, "cost model %d not supported (polynomial only)", r.Model)
	}
	if r.N < 1 || r.N > 3 {
		return dataErr("gencost", g.Count, "polynomial with %d coefficients not supported", r.N)
	}
	if len(r.Coeffs) < r.N {
		return dataErr("gencost", g.Count, "declares %d coefficients, has %d", r.N, len(r.Coeffs))
	}
	g.CostType = r.Model
	g.Startup = r.Startup
	g.Shutdown = r.Shutdown
	g.CostDegree = r.N - 1
	g.Cost = make([]float64, r.N)
	for j := 0; j < r.N; j++ {
		g.Cost[j] = r.Coeffs[j] * math.Pow(base, float64(g.CostDegree-j))
	}

	return nil
}

func (n *Network) addBranches(rows []BranchRecord) error {
	for i, r := range rows {
		idx := i + 1
		from, ok := n.BusByID(r.From)
		if !ok {
			return dataErr("branch", idx, "unknown from bus %d", r.From)
		}
		to, ok := n.BusByID(r.To)
		if !ok {
			return dataErr("branch", idx, "unknown to bus %d", r.To)
		}
		br := &Branch{
			Index:  idx,
			From:   r.From,
			To:     r.To,
			R:      r.R,
			X:      r.X,
			Bc:     r.B,
			RateA:  r.RateA / n.BaseMVA,
			RateB:  r.RateB / n.BaseMVA,
			RateC:  r.RateC / n.BaseMVA,
			Ratio:  r.Ratio,
			Angle:  r.Angle,
			Status: r.Status > 0,
			AngMin: r.AngMin,
			AngMax: r.AngMax,
		}
		if br.Ratio == 0 {
			br.Ratio = 1
		}
		if br.Status && br.R == 0 && br.X == 0 {
			return dataErr("branch", idx, "zero impedance")
		}
		br.recompute()
		br.MinAngleRad, br.MaxAngleRad = angleWindow(r.AngMin, r.AngMax)
		br.Limit = br.RateA
		br.ConstrainedFlow = br.RateA > 0

		from.FromBranches = append(from.FromBranches, idx)
		to.ToBranches = append(to.ToBranches, idx)
		n.Branches = append(n.Branches, br)
	}

	return nil
}

// angleWindow converts MATPOWER angmin/angmax (degrees, 0 meaning
// unbounded) into a radian interval within [-2π, 2π].
func angleWindow(minDeg, maxDeg float64) (float64, float64) {
	lo, hi := -2*math.Pi, 2*math.Pi
	if minDeg != 0 && minDeg > -360 {
		lo = minDeg * math.Pi / 180
	}
	if maxDeg != 0 && maxDeg < 360 {
		hi = maxDeg * math.Pi / 180
	}

	return lo, hi
}

func (n *Network) computeSums() {
	for _, b := range n.Buses {
		n.SumPd += b.Pd
		n.SumQd += b.Qd
	}
	for _, g := range n.Generators {
		if !g.Status {
			continue
		}
		n.SumMaxGenP += g.Pmax
		n.SumMaxGenQ += g.Qmax
	}
}

// NumBuses returns the number of buses.
func (n *Network) NumBuses() int { return len(n.Buses) }

// NumBranches returns the number of branches, in service or not.
func (n *Network) NumBranches() int { return len(n.Branches) }

// BusByID looks a bus up by its external identifier.
func (n *Network) BusByID(id int) (*Bus, bool) {
	c, ok := n.idToCount[id]
	if !ok {
		return nil, false
	}

	return n.Buses[c-1], true
}

// BusByCount looks a bus up by its dense 1-based count.
func (n *Network) BusByCount(count int) (*Bus, bool) {
	if count < 1 || count > len(n.Buses) {
		return nil, false
	}

	return n.Buses[count-1], true
}

// CountOf maps an external bus id to its dense count.
func (n *Network) CountOf(id int) (int, bool) {
	c, ok := n.idToCount[id]
	return c, ok
}

// Ref returns the reference bus.
func (n *Network) Ref() *Bus { return n.Buses[n.refCount-1] }

// Branch returns the branch with the given 1-based index.
func (n *Network) Branch(index int) *Branch { return n.Branches[index-1] }

// Generator returns the generator with the given 1-based count.
func (n *Network) Generator(count int) *Generator { return n.Generators[count-1] }

// Ends returns the from and to buses of br.
func (n *Network) Ends(br *Branch) (from, to *Bus) {
	from, _ = n.BusByID(br.From)
	to, _ = n.BusByID(br.To)
	return from, to
}

// BusGenerators returns the generators attached to b in count order.
func (n *Network) BusGenerators(b *Bus) []*Generator {
	out := make([]*Generator, 0, len(b.GenCounts))
	for _, c := range b.GenCounts {
		out = append(out, n.Generators[c-1])
	}

	return out
}

// SetInputVoltages records externally supplied voltages. Formulations use
// them to tighten voltage and angle bounds by a fix tolerance.
func (n *Network) SetInputVoltages(v map[int]VoltageInput) error {
	ids := make([]int, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		b, ok := n.BusByID(id)
		if !ok {
			return dataErr("bus", id, "voltage supplied for unknown bus")
		}
		in := v[id]
		b.InputVoltage = true
		b.InputV = in.Vm
		b.InputA = in.Va
	}

	return nil
}

// ClampPhaseDiff narrows every branch angle window to ±maxDeg degrees.
// Returns how many upper bounds were tightened.
func (n *Network) ClampPhaseDiff(maxDeg float64) int {
	maxRad := maxDeg * math.Pi / 180
	count := 0
	for _, br := range n.Branches {
		if br.MaxAngleRad > maxRad {
			br.MaxAngleRad = maxRad
			count++
		}
		if br.MinAngleRad < -maxRad {
			br.MinAngleRad = -maxRad
		}
	}

	return count
}
