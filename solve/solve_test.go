package solve_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridopf/formulation"
	"github.com/katalvlaran/gridopf/lpsolver"
	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/solve"
	"github.com/katalvlaran/gridopf/solver"
)

// scripted returns statuses from a script, one per Optimize call, and
// records everything the orchestrator asks for.
type scripted struct {
	script   []solver.Status
	calls    int
	params   map[string]float64
	starts   map[solver.Var]float64
	iis      int
	iisPath  string
	iisErr   error
	paramLog []string
}

func newScripted(statuses ...solver.Status) *scripted {
	return &scripted{script: statuses, params: map[string]float64{}, starts: map[solver.Var]float64{}}
}

func (s *scripted) SetParam(name string, v float64) error {
	s.params[name] = v
	s.paramLog = append(s.paramLog, name)
	return nil
}
func (s *scripted) Param(name string) (float64, error) { return s.params[name], nil }
func (s *scripted) ReadParams(string) error { return nil }
func (s *scripted) SetStart(v solver.Var, x float64) error {
	s.starts[v] = x
	return nil
}
func (s *scripted) Optimize(context.Context) error {
	if s.calls >= len(s.script) {
		return errors.New("script exhausted")
	}
	s.calls++
	return nil
}
func (s *scripted) ComputeIIS(context.Context) error { s.iis++; return s.iisErr }
func (s *scripted) WriteIIS(path string) error { s.iisPath = path; return nil }
func (s *scripted) Status() solver.Status { return s.script[s.calls-1] }
func (s *scripted) Runtime() time.Duration { return time.Second }
func (s *scripted) SolCount() int {
	if s.Status() == solver.Optimal {
		return 1
	}
	return 0
}

func TestRun_Policy(t *testing.T) {
	cases := []struct {
		name     string
		script   []solver.Status
		want     solver.Status
		attempts int
		retries  []solve.Retry
		iis      bool
	}{
		{"optimal", []solver.Status{solver.Optimal}, solver.Optimal, 1, nil, false},
		{"unbounded terminal", []solver.Status{solver.Unbounded}, solver.Unbounded, 1, nil, false},
		{"interrupted terminal", []solver.Status{solver.Interrupted}, solver.Interrupted, 1, nil, false},
		{
			"inf-or-unbd resolves to optimal",
			[]solver.Status{solver.InfOrUnbounded, solver.Optimal},
			solver.Optimal, 2, []solve.Retry{solve.RetryDualReductions}, false,
		},
		{
			"inf-or-unbd resolves to infeasible",
			[]solver.Status{solver.InfOrUnbounded, solver.Infeasible},
			solver.Infeasible, 2, []solve.Retry{solve.RetryDualReductions}, true,
		},
		{
			"inf-or-unbd twice is terminal",
			[]solver.Status{solver.InfOrUnbounded, solver.InfOrUnbounded},
			solver.InfOrUnbounded, 2, []solve.Retry{solve.RetryDualReductions}, false,
		},
		{"infeasible", []solver.Status{solver.Infeasible}, solver.Infeasible, 1, nil, true},
		{
			"numeric then optimal",
			[]solver.Status{solver.Numeric, solver.Optimal},
			solver.Optimal, 2, []solve.Retry{solve.RetryNumericFocus}, false,
		},
		{
			"second numeric is terminal",
			[]solver.Status{solver.Numeric, solver.Numeric},
			solver.Numeric, 2, []solve.Retry{solve.RetryNumericFocus}, false,
		},
		{
			"both retries",
			[]solver.Status{solver.InfOrUnbounded, solver.Numeric, solver.Optimal},
			solver.Optimal, 3, []solve.Retry{solve.RetryDualReductions, solve.RetryNumericFocus}, false,
		},
		{
			"numeric then inf-or-unbd is terminal",
			[]solver.Status{solver.Numeric, solver.InfOrUnbounded},
			solver.InfOrUnbounded, 2, []solve.Retry{solve.RetryNumericFocus}, false,
		},
		{
			"infeasible after numeric retry has no iis",
			[]solver.Status{solver.Numeric, solver.Infeasible},
			solver.Infeasible, 2, []solve.Retry{solve.RetryNumericFocus}, false,
		},
		{
			"numeric after dual retry is terminal",
			[]solver.Status{solver.InfOrUnbounded, solver.Numeric, solver.Numeric},
			solver.Numeric, 3, []solve.Retry{solve.RetryDualReductions, solve.RetryNumericFocus}, false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newScripted(tc.script...)
			out, err := solve.Run(context.Background(), m, solve.WithIISPath("dcopfmodel.ilp"))
			require.NoError(t, err)

			assert.Equal(t, tc.want, out.Status)
			assert.Equal(t, tc.attempts, out.Attempts)
			assert.Equal(t, tc.retries, out.Retries)
			assert.Equal(t, time.Duration(tc.attempts)*time.Second, out.Runtime)
			if tc.iis {
				assert.Equal(t, 1, m.iis)
				assert.Equal(t, "dcopfmodel.ilp", out.IISPath)
			} else {
				assert.Zero(t, m.iis)
				assert.Empty(t, out.IISPath)
			}

			for _, r := range tc.retries {
				switch r {
				case solve.RetryDualReductions:
					assert.Equal(t, 0.0, m.params[solver.ParamDualReductions])
				case solve.RetryNumericFocus:
					assert.Equal(t, 2.0, m.params[solver.ParamNumericFocus])
					assert.Equal(t, 1.0, m.params[solver.ParamBarHomogeneous])
				}
			}

			if tc.want == solver.Optimal {
				assert.True(t, out.Solved())
				assert.NoError(t, out.Failure())
				return
			}
			assert.False(t, out.Solved())
			var sf *solve.SolveFailure
			require.True(t, errors.As(out.Failure(), &sf))
			assert.ErrorIs(t, out.Failure(), solve.ErrSolveFailure)
			assert.Equal(t, tc.want, sf.Status)
			assert.Equal(t, out.IISPath, sf.IISPath)
		})
	}
}

func TestRun_IISFailureKeepsStatus(t *testing.T) {
	m := newScripted(solver.Infeasible)
	m.iisErr = errors.New("no iis")
	out, err := solve.Run(context.Background(), m, solve.WithIISPath("x.ilp"))
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, out.Status)
	assert.Empty(t, out.IISPath)
	assert.Empty(t, m.iisPath)
}

func TestRun_StartAndSession(t *testing.T) {
	id := uuid.New()
	m := newScripted(solver.Optimal)
	out, err := solve.Run(context.Background(), m,
		solve.WithStart([]solver.Var{3, 5}),
		solve.WithSessionID(id),
	)
	require.NoError(t, err)
	assert.Equal(t, id, out.SessionID)
	assert.Equal(t, map[solver.Var]float64{3: 1, 5: 1}, m.starts)
}

func TestRun_Errors(t *testing.T) {
	_, err := solve.Run(context.Background(), nil)
	assert.ErrorIs(t, err, solve.ErrNilModel)
	_, err = solve.Run(context.Background(), newScripted(), solve.WithLogger(nil))
	assert.ErrorIs(t, err, solve.ErrOptionViolation)
	_, err = solve.Run(context.Background(), newScripted(), solve.WithSessionID(uuid.Nil))
	assert.ErrorIs(t, err, solve.ErrOptionViolation)
	_, err = solve.Run(context.Background(), newScripted())
	assert.Error(t, err, "optimizer errors surface")
}

func TestTune(t *testing.T) {
	m := newScripted()
	require.NoError(t, solve.Tune(m, formulation.AC, solve.Tuning{TimeLimit: 90 * time.Second, Quiet: true}))
	assert.Equal(t, 2.0, m.params[solver.ParamNonConvex])
	assert.Equal(t, 1e-3, m.params[solver.ParamMIPGap])
	assert.Equal(t, 1e-3, m.params[solver.ParamOptimalityTol])
	assert.Equal(t, 90.0, m.params[solver.ParamTimeLimit])
	assert.Equal(t, 0.0, m.params[solver.ParamOutputFlag])

	m = newScripted()
	require.NoError(t, solve.Tune(m, formulation.DC, solve.Tuning{}))
	_, set := m.params[solver.ParamNonConvex]
	assert.False(t, set)
	_, set = m.params[solver.ParamTimeLimit]
	assert.False(t, set)
	assert.Equal(t, 1e-4, m.params[solver.ParamMIPGap])
}

func TestDefaultIISPath(t *testing.T) {
	assert.Equal(t, "dcopfmodel.ilp", solve.DefaultIISPath(formulation.DC))
	assert.Equal(t, "ivopfmodel.ilp", solve.DefaultIISPath(formulation.IV))
}

func chain(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.NewNetwork(&network.Case{
		BaseMVA: 100,
		Buses: []network.BusRecord{
			{ID: 1, Type: 3, Vm: 1, Vmax: 1.1, Vmin: 0.9},
			{ID: 2, Type: 1, Vm: 1, Vmax: 1.1, Vmin: 0.9},
			{ID: 3, Type: 1, Pd: 100, Vm: 1, Vmax: 1.1, Vmin: 0.9},
		},
		Generators: []network.GenRecord{{Bus: 1, Pmax: 300, Status: 1}},
		Branches: []network.BranchRecord{
			{From: 1, To: 2, X: 0.1, RateA: 200, Status: 1},
			{From: 2, To: 3, X: 0.1, RateA: 200, Status: 1},
		},
		GenCosts: []network.GenCostRecord{{Model: network.CostPolynomial, N: 2, Coeffs: []float64{10, 0}}},
	})
	require.NoError(t, err)
	return n
}

func TestMIPStart(t *testing.T) {
	build := func(family formulation.Family, sw formulation.Switching) *formulation.Program {
		m, err := lpsolver.New("start")
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close() })
		cfg := formulation.DefaultConfig()
		cfg.Family = family
		cfg.Switching = sw
		p, err := formulation.Build(chain(t), m, cfg)
		require.NoError(t, err)
		return p
	}

	dc := build(formulation.DC, formulation.SwitchingMIP)
	assert.Len(t, solve.MIPStart(dc, false), 2, "DC always warm-starts")
	assert.Empty(t, solve.MIPStart(build(formulation.DC, formulation.SwitchingNone), true))

	ac := build(formulation.AC, formulation.SwitchingMIP)
	assert.Empty(t, solve.MIPStart(ac, false))
	assert.Len(t, solve.MIPStart(ac, true), 2)
}

// TestRun_LPBackend solves an infeasible DC program end to end and checks
// the IIS file lands where requested.
func TestRun_LPBackend(t *testing.T) {
	net := chain(t)
	net.Generators[0].Pmax = 0.5

	m, err := lpsolver.New("dcopf")
	require.NoError(t, err)
	defer m.Close()
	cfg := formulation.DefaultConfig()
	cfg.Family = formulation.DC
	_, err = formulation.Build(net, m, cfg)
	require.NoError(t, err)
	require.NoError(t, solve.Tune(m, formulation.DC, solve.Tuning{}))

	path := t.TempDir() + "/" + solve.DefaultIISPath(formulation.DC)
	out, err := solve.Run(context.Background(), m, solve.WithIISPath(path))
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, out.Status)
	assert.Equal(t, path, out.IISPath)
	assert.FileExists(t, path)
	assert.ErrorIs(t, out.Failure(), solve.ErrSolveFailure)
}
