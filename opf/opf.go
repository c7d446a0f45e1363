package opf

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/casefile"
	"github.com/katalvlaran/gridopf/extract"
	"github.com/katalvlaran/gridopf/formulation"
	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/settings"
	"github.com/katalvlaran/gridopf/solve"
	"github.com/katalvlaran/gridopf/violation"
)

// Solve runs one optimal power flow: validate the case, apply input
// voltages and phase-difference limits, build the program in a fresh
// solver session, solve it with the retry policy and decompile the result.
// The session is closed before Solve returns.
//
// A terminal status other than OPTIMAL returns the Result together with a
// *solve.SolveFailure; without a feasible solution that Result carries only
// the case data and Success 0.
func Solve(ctx context.Context, s *settings.Settings, c *network.Case, opts ...Option) (*extract.Result, error) {
	o, err := apply(opts)
	if err != nil {
		return nil, err
	}
	if s == nil || c == nil {
		return nil, ErrNilInput
	}
	log := o.Logger.With(zap.Stringer("session", o.SessionID))

	net, err := prepare(s, c, log)
	if err != nil {
		return nil, err
	}

	family := s.Family()
	model, err := o.Factory(strings.ToLower(family.String()) + "opf")
	if err != nil {
		return nil, fmt.Errorf("opf: open solver session: %w", err)
	}
	defer func() {
		if cerr := model.Close(); cerr != nil {
			log.Warn("opf: closing solver session", zap.Error(cerr))
		}
	}()

	p, err := formulation.Build(net, model, s.BuildConfig(), formulation.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if s.LPFilename != "" {
		if err := model.Write(s.LPFilename); err != nil {
			return nil, fmt.Errorf("opf: write %s: %w", s.LPFilename, err)
		}
		log.Info("opf: program written", zap.String("path", s.LPFilename))
	}
	if err := solve.Tune(model, family, s.Tuning()); err != nil {
		return nil, err
	}

	out, err := solve.Run(ctx, model,
		solve.WithLogger(log),
		solve.WithSessionID(o.SessionID),
		solve.WithStart(solve.MIPStart(p, s.UseMIPStart)),
		solve.WithIISPath(s.IISPath),
	)
	if err != nil {
		return nil, err
	}

	res, err := extract.Extract(p, model, out, extract.WithLogger(log), extract.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	log.Info("opf: done", zap.Stringer("result", res))

	return res, out.Failure()
}

// Violations evaluates the voltages named by the settings against the
// case without solving: those of the voltage file when voltsfilename is
// set, else the case's own Vm and Va when usevoltsolution is set.
func Violations(s *settings.Settings, c *network.Case, opts ...Option) (*violation.Report, error) {
	o, err := apply(opts)
	if err != nil {
		return nil, err
	}
	if s == nil || c == nil {
		return nil, ErrNilInput
	}
	log := o.Logger.With(zap.Stringer("session", o.SessionID))

	net, err := network.NewNetwork(c)
	if err != nil {
		return nil, err
	}

	var volts map[int]network.VoltageInput
	switch {
	case s.VoltsFilename != "":
		if volts, err = casefile.ReadVolts(s.VoltsFilename); err != nil {
			return nil, err
		}
	case s.UseVoltSolution:
		volts = caseVoltages(net)
	default:
		return nil, ErrNoVoltages
	}

	in := make(map[int]violation.Voltage, len(volts))
	for id, v := range volts {
		if _, ok := net.BusByID(id); !ok {
			return nil, &network.DataError{Entity: "bus", ID: id, Reason: "voltage supplied for unknown bus"}
		}
		in[id] = violation.Voltage{A: v.Vm, B: v.Va}
	}

	rep, err := violation.Evaluate(net, in, violation.Polar)
	if err != nil {
		return nil, err
	}
	vm, p, q, lim := rep.Max()
	log.Info("opf: violations evaluated",
		zap.Float64("max_vm", vm),
		zap.Float64("max_p", p),
		zap.Float64("max_q", q),
		zap.Float64("max_limit", lim),
	)

	return rep, nil
}

func apply(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o, o.err
	}
	if o.SessionID == uuid.Nil {
		o.SessionID = uuid.New()
	}
	return o, nil
}

// prepare validates c and applies the settings that tighten the network.
func prepare(s *settings.Settings, c *network.Case, log *zap.Logger) (*network.Network, error) {
	net, err := network.NewNetwork(c)
	if err != nil {
		return nil, err
	}
	log.Info("opf: network loaded",
		zap.Int("buses", net.NumBuses()),
		zap.Int("branches", net.NumBranches()),
		zap.Int("generators", len(net.Generators)),
		zap.Float64("baseMVA", net.BaseMVA),
	)

	switch {
	case s.VoltsFilename != "":
		volts, err := casefile.ReadVolts(s.VoltsFilename)
		if err != nil {
			return nil, err
		}
		if err := net.SetInputVoltages(volts); err != nil {
			return nil, err
		}
		log.Info("opf: input voltages fixed", zap.Int("buses", len(volts)), zap.Float64("tolerance", s.FixTolerance))
	case s.UseVoltSolution:
		if err := net.SetInputVoltages(caseVoltages(net)); err != nil {
			return nil, err
		}
		log.Info("opf: case voltages fixed", zap.Float64("tolerance", s.FixTolerance))
	}

	if s.UseMaxPhaseDiff {
		n := net.ClampPhaseDiff(s.MaxPhaseDiff)
		log.Info("opf: phase angle differences limited",
			zap.Float64("degrees", s.MaxPhaseDiff),
			zap.Int("tightened", n),
		)
	}

	return net, nil
}

// caseVoltages reads the case's own Vm and Va (degrees) as inputs.
func caseVoltages(net *network.Network) map[int]network.VoltageInput {
	out := make(map[int]network.VoltageInput, net.NumBuses())
	for _, b := range net.Buses {
		out[b.NodeID] = network.VoltageInput{Vm: b.Vm, Va: b.Va * math.Pi / 180}
	}
	return out
}
