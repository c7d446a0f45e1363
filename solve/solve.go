package solve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/solver"
)

// Run solves the program behind m and applies the escalation policy. The
// steps run once each, in order, on the status left by the previous one:
//
//	INF_OR_UNBOUNDED  DualReductions=0, re-solve
//	INFEASIBLE        compute and persist an IIS, stop
//	NUMERIC           NumericFocus=2, BarHomogeneous=1, re-solve
//
// Whatever status the last step leaves is final. Run returns an error only when the
// solver cannot be driven at all; solver outcomes are in the Outcome.
func Run(ctx context.Context, m solver.Optimizer, opts ...Option) (*Outcome, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if m == nil {
		return nil, ErrNilModel
	}

	out := &Outcome{SessionID: o.SessionID}
	log := o.Logger.With(zap.Stringer("session", o.SessionID))

	for _, v := range o.Start {
		if err := m.SetStart(v, 1); err != nil {
			return nil, fmt.Errorf("solve: set start: %w", err)
		}
	}
	if len(o.Start) > 0 {
		log.Info("solve: MIP start supplied", zap.Int("vars", len(o.Start)))
	}

	if err := attempt(ctx, m, out, log); err != nil {
		return nil, err
	}

	if out.Status == solver.InfOrUnbounded {
		log.Info("solve: infeasible or unbounded, re-solving without dual reductions")
		if err := m.SetParam(solver.ParamDualReductions, 0); err != nil {
			return nil, fmt.Errorf("solve: %w", err)
		}
		out.Retries = append(out.Retries, RetryDualReductions)
		if err := attempt(ctx, m, out, log); err != nil {
			return nil, err
		}
	}

	if out.Status == solver.Infeasible {
		writeIIS(ctx, m, out, o.IISPath, log)
		return finish(out, log), nil
	}

	if out.Status == solver.Numeric {
		log.Warn("solve: numeric trouble, re-solving with numeric focus")
		if err := m.SetParam(solver.ParamNumericFocus, 2); err != nil {
			return nil, fmt.Errorf("solve: %w", err)
		}
		if err := m.SetParam(solver.ParamBarHomogeneous, 1); err != nil {
			return nil, fmt.Errorf("solve: %w", err)
		}
		out.Retries = append(out.Retries, RetryNumericFocus)
		if err := attempt(ctx, m, out, log); err != nil {
			return nil, err
		}
	}

	return finish(out, log), nil
}

func attempt(ctx context.Context, m solver.Optimizer, out *Outcome, log *zap.Logger) error {
	if err := m.Optimize(ctx); err != nil {
		return fmt.Errorf("solve: optimize: %w", err)
	}
	out.Attempts++
	out.Status = m.Status()
	out.SolCount = m.SolCount()
	out.Runtime += m.Runtime()
	log.Debug("solve: attempt finished",
		zap.Int("attempt", out.Attempts),
		zap.Stringer("status", out.Status),
		zap.Int("solutions", out.SolCount),
	)

	return nil
}

// writeIIS persists the IIS of an infeasible program. Failures are logged;
// the infeasible status stands either way.
func writeIIS(ctx context.Context, m solver.Optimizer, out *Outcome, path string, log *zap.Logger) {
	if path == "" {
		return
	}
	log.Info("solve: infeasible, computing IIS")
	if err := m.ComputeIIS(ctx); err != nil {
		log.Warn("solve: IIS computation failed", zap.Error(err))
		return
	}
	if err := m.WriteIIS(path); err != nil {
		log.Warn("solve: IIS not written", zap.String("path", path), zap.Error(err))
		return
	}
	out.IISPath = path
	log.Info("solve: IIS written", zap.String("path", path))
}

func finish(out *Outcome, log *zap.Logger) *Outcome {
	log.Info("solve: finished",
		zap.Stringer("status", out.Status),
		zap.Int("solutions", out.SolCount),
		zap.Int("attempts", out.Attempts),
		zap.Duration("runtime", out.Runtime),
	)
	return out
}
