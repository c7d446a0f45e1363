package extract

import (
	"context"
	"math"

	"github.com/katalvlaran/gridopf/bfs"
	"github.com/katalvlaran/gridopf/formulation"
	"github.com/katalvlaran/gridopf/network"
)

// ReconstructAngles fills raw.Buses[*].Va from the branch products c and
// s. The reference bus is 0; each other bus is reached by a breadth-first
// walk over in-service branches that carry products:
//
//	Forward  (known is the from end)  θt = θf + atan2(s, c)
//	Reverse  (known is the to end)    θf = θt + atan2(-s, c)
//
// since c = |Vf||Vt|cos(θf-θt) and s = -|Vf||Vt|sin(θf-θt). Products of a
// switched-off branch still follow the voltages unless they are Jabr
// relaxation variables, in which case such branches are skipped. A bus the
// walk cannot reach is a *network.DataError.
func ReconstructAngles(ctx context.Context, net *network.Network, raw *formulation.RawSolution) error {
	active := func(br *network.Branch) bool {
		bv := raw.Branches[br.Index-1]
		if !bfs.InService(br) || !bv.HasProducts {
			return false
		}
		return !raw.RelaxedProducts || !bv.HasZ || bv.Z > 0.5
	}

	ref := net.Ref()
	raw.Buses[ref.Count-1].Va = 0
	raw.Buses[ref.Count-1].AngleKnown = true

	res, err := bfs.Walk(net, ref.Count,
		bfs.WithContext(ctx),
		bfs.WithFilterBranch(active),
		bfs.WithOnVisit(func(s bfs.Step) error {
			if s.Branch == 0 {
				return nil
			}
			bv := raw.Branches[s.Branch-1]
			known := raw.Buses[s.Known-1].Va
			unknown := &raw.Buses[s.Unknown-1]
			if s.Direction == bfs.Forward {
				unknown.Va = known + math.Atan2(bv.S, bv.C)
			} else {
				unknown.Va = known + math.Atan2(-bv.S, bv.C)
			}
			unknown.AngleKnown = true
			return nil
		}),
	)
	if err != nil {
		return err
	}
	if missing := res.Unreached(net.NumBuses()); len(missing) > 0 {
		b, _ := net.BusByCount(missing[0])
		return &network.DataError{
			Entity: "bus",
			ID:     b.NodeID,
			Reason: "not connected to the reference bus through active branches, angle undefined",
		}
	}

	return nil
}
