package extract

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/formulation"
	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solve"
	"github.com/katalvlaran/gridopf/solver"
)

// Extract decompiles the solution of p into a Result. Without a feasible
// solution the Result carries the static case data, Success 0 and the
// runtime. Otherwise every value is read once from sol; rectangular
// programs get their bus angles reconstructed from the branch products.
//
// Returns a *network.DataError when a bus cannot be reached from the
// reference bus through active branches.
func Extract(p *formulation.Program, sol solver.Solution, out *solve.Outcome, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if p == nil {
		return nil, ErrNilProgram
	}
	if out == nil {
		return nil, ErrNilOutcome
	}

	net := p.Network
	res := Static(net)
	res.ET = out.Runtime.Seconds()
	res.Status = out.Status.String()
	log := o.Logger.With(zap.Stringer("session", out.SessionID))
	if !out.Solved() {
		log.Info("extract: no feasible solution", zap.Stringer("status", out.Status))
		return res, nil
	}

	raw, err := p.Strategy.ExtractSolution(p, sol)
	if err != nil {
		return nil, err
	}
	if raw.NeedsAngles {
		if err := ReconstructAngles(o.Ctx, net, raw); err != nil {
			return nil, err
		}
		log.Debug("extract: angles reconstructed", zap.Int("buses", len(raw.Buses)))
	}

	base := net.BaseMVA
	res.Success = 1
	res.F = raw.Objective
	for i := range res.Buses {
		bv := raw.Buses[i]
		res.Buses[i].Vm = bv.Vm
		res.Buses[i].Va = bv.Va
		if bv.HasDual {
			mu := -bv.BalanceDual / base
			res.Buses[i].Mu = &mu
		}
	}
	for i := range res.Generators {
		res.Generators[i].Pg = raw.Generators[i].P * base
		res.Generators[i].Qg = raw.Generators[i].Q * base
	}
	dc := p.Strategy.Family() == formulation.DC
	for i := range res.Branches {
		bv := raw.Branches[i]
		br := &res.Branches[i]
		br.Pf, br.Pt = bv.Pf*base, bv.Pt*base
		if dc {
			// DC results report the single branch flow at both ends.
			br.Pt = br.Pf
		}
		br.Qf, br.Qt = bv.Qf*base, bv.Qt*base
		if bv.HasZ && bv.Z <= 0.5 {
			br.Switching = 0
		}
	}
	log.Info("extract: solution decompiled",
		zap.Float64("objective", res.F),
		zap.Int("switched_off", countOff(res)),
	)

	return res, nil
}

func countOff(res *Result) int {
	n := 0
	for _, br := range res.Branches {
		if br.Switching == 0 {
			n++
		}
	}
	return n
}

// Static converts net back into case units, with every branch switched
// on and no solved values.
func Static(net *network.Network) *Result {
	base := net.BaseMVA
	res := &Result{
		BaseMVA:    base,
		Buses:      make([]BusResult, 0, net.NumBuses()),
		Generators: make([]GenResult, 0, len(net.Generators)),
		Branches:   make([]BranchResult, 0, net.NumBranches()),
	}
	for _, b := range net.Buses {
		res.Buses = append(res.Buses, BusResult{
			ID: b.NodeID, Type: int(b.Type),
			Pd: b.Pd * base, Qd: b.Qd * base,
			Gs: b.Gs * base, Bs: b.Bs * base,
			Area: b.Area, Vm: b.Vm, Va: b.Va,
			BaseKV: b.BaseKV, Zone: b.Zone,
			Vmax: b.Vmax, Vmin: b.Vmin,
		})
	}
	for _, g := range net.Generators {
		res.Generators = append(res.Generators, GenResult{
			Bus: g.Bus, Pg: g.Pg, Qg: g.Qg,
			Qmax: g.Qmax * base, Qmin: g.Qmin * base,
			Vg: g.Vg, MBase: g.MBase, Status: boolInt(g.Status),
			Pmax: g.Pmax * base, Pmin: g.Pmin * base,
			Cost: g.CaseCost(base),
		})
	}
	for _, br := range net.Branches {
		res.Branches = append(res.Branches, BranchResult{
			From: br.From, To: br.To,
			R: br.R, X: br.X, B: br.Bc,
			RateA: br.RateA * base, RateB: br.RateB * base, RateC: br.RateC * base,
			Ratio: br.Ratio, Angle: br.Angle, Status: boolInt(br.Status),
			AngMin: br.AngMin, AngMax: br.AngMax,
			Switching: 1,
		})
	}

	return res
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// String summarizes r on one line.
func (r *Result) String() string {
	return fmt.Sprintf("success=%d f=%g et=%.3fs status=%s", r.Success, r.F, r.ET, r.Status)
}
