package opf_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridopf/lpsolver"
	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/opf"
	"github.com/katalvlaran/gridopf/settings"
	"github.com/katalvlaran/gridopf/solve"
	"github.com/katalvlaran/gridopf/solver"
)

// chain3 is 1–2–3 with a 10 $/MWh generator at the reference bus and a
// 100 MW load at bus 3.
func chain3() *network.Case {
	return &network.Case{
		BaseMVA: 100,
		Buses: []network.BusRecord{
			{ID: 1, Type: 3, Vm: 1, Vmax: 1.1, Vmin: 0.9},
			{ID: 2, Type: 1, Vm: 1, Vmax: 1.1, Vmin: 0.9},
			{ID: 3, Type: 1, Pd: 100, Vm: 1, Vmax: 1.1, Vmin: 0.9},
		},
		Generators: []network.GenRecord{{Bus: 1, Pmax: 300, Qmax: 300, Qmin: -300, Status: 1, MBase: 100}},
		Branches: []network.BranchRecord{
			{From: 1, To: 2, X: 0.1, RateA: 200, Status: 1, AngMin: -360, AngMax: 360},
			{From: 2, To: 3, X: 0.1, RateA: 200, Status: 1, AngMin: -360, AngMax: 360},
		},
		GenCosts: []network.GenCostRecord{{Model: network.CostPolynomial, N: 2, Coeffs: []float64{10, 0}}},
	}
}

func dc(t *testing.T, extra map[string]interface{}) *settings.Settings {
	t.Helper()
	m := map[string]interface{}{"dodc": true, "iispath": filepath.Join(t.TempDir(), "dcopfmodel.ilp")}
	for k, v := range extra {
		m[k] = v
	}
	s, err := settings.FromMap(m, settings.WithEnvPrefix(""))
	require.NoError(t, err)
	return s
}

// tracked records whether the pipeline closed its session.
type tracked struct {
	*lpsolver.Model
	closed *int
}

func (m tracked) Close() error {
	*m.closed++
	return m.Model.Close()
}

func trackingFactory(closed *int) solver.Factory {
	return func(name string) (solver.Model, error) {
		m, err := lpsolver.New(name)
		if err != nil {
			return nil, err
		}
		return tracked{Model: m, closed: closed}, nil
	}
}

func TestSolve_DC(t *testing.T) {
	closed := 0
	res, err := opf.Solve(context.Background(), dc(t, nil), chain3(), opf.WithFactory(trackingFactory(&closed)))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	assert.Equal(t, 1, res.Success)
	assert.Equal(t, "OPTIMAL", res.Status)
	assert.InDelta(t, 1000, res.F, 1e-6)
	assert.InDelta(t, 100, res.Generators[0].Pg, 1e-6)
	assert.InDelta(t, 0, res.Buses[0].Va, 1e-9)
	assert.InDelta(t, -0.1, res.Buses[1].Va, 1e-8)
	assert.InDelta(t, -0.2, res.Buses[2].Va, 1e-8)
	for _, br := range res.Branches {
		assert.InDelta(t, 100, br.Pf, 1e-6)
		assert.InDelta(t, 100, br.Pt, 1e-6)
		assert.Equal(t, 1, br.Switching)
	}
	require.NotNil(t, res.Buses[2].Mu)
	assert.InDelta(t, 10, *res.Buses[2].Mu, 1e-6)
}

func TestSolve_SwitchingAllOn(t *testing.T) {
	s := dc(t, map[string]interface{}{"branchswitching_mip": true, "minactivebranches": 1.0})
	res, err := opf.Solve(context.Background(), s, chain3())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	for _, br := range res.Branches {
		assert.Equal(t, 1, br.Switching)
	}
	assert.Nil(t, res.Buses[0].Mu, "no duals for a MIP")
	assert.InDelta(t, 1000, res.F, 1e-6)
}

func TestSolve_Deterministic(t *testing.T) {
	s := dc(t, nil)
	id := uuid.New()
	a, err := opf.Solve(context.Background(), s, chain3(), opf.WithSessionID(id))
	require.NoError(t, err)
	b, err := opf.Solve(context.Background(), s, chain3(), opf.WithSessionID(id))
	require.NoError(t, err)
	a.ET, b.ET = 0, 0
	assert.Equal(t, a, b)
}

func TestSolve_Infeasible(t *testing.T) {
	c := chain3()
	c.Buses[2].Pd = 400
	s := dc(t, nil)

	res, err := opf.Solve(context.Background(), s, c)
	require.ErrorIs(t, err, solve.ErrSolveFailure)
	var sf *solve.SolveFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, solver.Infeasible, sf.Status)
	assert.Equal(t, s.IISPath, sf.IISPath)
	raw, err := os.ReadFile(s.IISPath)
	require.NoError(t, err)
	iis := string(raw)
	assert.Contains(t, iis, "\\ IIS of model dcopf")
	assert.Contains(t, iis, " PBaldef3_3:", "the load bus balance is part of every conflict")
	assert.NotContains(t, iis, "lincostdef")

	require.NotNil(t, res)
	assert.Equal(t, 0, res.Success)
	assert.InDelta(t, 400, res.Buses[2].Pd, 1e-9)
}

func TestSolve_LPFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.lp")
	_, err := opf.Solve(context.Background(), dc(t, map[string]interface{}{"lpfilename": path}), chain3())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Pdef_1_1_2")
}

func TestSolve_DataError(t *testing.T) {
	c := chain3()
	c.Branches[1].To = 9
	closed := 0
	_, err := opf.Solve(context.Background(), dc(t, nil), c, opf.WithFactory(trackingFactory(&closed)))
	require.ErrorIs(t, err, network.ErrData)
	var de *network.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "branch", de.Entity)
	assert.Equal(t, 2, de.ID)
	assert.Contains(t, de.Reason, "9")
	assert.Zero(t, closed, "no session opened for bad data")
}

func TestSolve_ACNeedsNonlinearBackend(t *testing.T) {
	s, err := settings.FromMap(nil, settings.WithEnvPrefix(""))
	require.NoError(t, err)
	closed := 0
	_, err = opf.Solve(context.Background(), s, chain3(), opf.WithFactory(trackingFactory(&closed)))
	assert.ErrorIs(t, err, solver.ErrUnsupported)
	assert.Equal(t, 1, closed, "session closed on the error path")
}

func TestSolve_Errors(t *testing.T) {
	_, err := opf.Solve(context.Background(), nil, chain3())
	assert.ErrorIs(t, err, opf.ErrNilInput)
	_, err = opf.Solve(context.Background(), dc(t, nil), chain3(), opf.WithLogger(nil))
	assert.ErrorIs(t, err, opf.ErrOptionViolation)
	_, err = opf.Solve(context.Background(), dc(t, nil), chain3(), opf.WithFactory(nil))
	assert.ErrorIs(t, err, opf.ErrOptionViolation)
}

func TestSolve_VoltsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volts.txt")
	// The optimal angles, fixed to within the tolerance.
	require.NoError(t, os.WriteFile(path, []byte(
		"bus 1 M 1 A 0\nbus 2 M 1 A -5.729577951308232\nbus 3 M 1 A -11.459155902616464\nEND\n"), 0o644))
	s := dc(t, map[string]interface{}{"voltsfilename": path, "fixtolerance": 1e-3})
	res, err := opf.Solve(context.Background(), s, chain3())
	require.NoError(t, err)
	assert.InDelta(t, -0.2, res.Buses[2].Va, 1e-3)

	// Angles that cannot carry the load make the program infeasible.
	require.NoError(t, os.WriteFile(path, []byte("bus 1 M 1 A 0\nbus 3 M 1 A 0\nEND\n"), 0o644))
	_, err = opf.Solve(context.Background(), s, chain3())
	assert.ErrorIs(t, err, solve.ErrSolveFailure)
}

func TestViolations(t *testing.T) {
	c := chain3()
	// The case's own voltages: flat, so no branch carries power and the
	// load at bus 3 is unserved.
	s, err := settings.FromMap(map[string]interface{}{"usevoltsolution": true}, settings.WithEnvPrefix(""))
	require.NoError(t, err)
	rep, err := opf.Violations(s, c)
	require.NoError(t, err)
	assert.InDelta(t, 100, rep.Buses[2].Pviol, 1e-9)
	assert.Zero(t, rep.Buses[0].Pviol)
	assert.Zero(t, rep.Branches[0].Limitviol)

	path := filepath.Join(t.TempDir(), "volts.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"bus 1 M 1 A 0\nbus 2 M 1 A 0\nbus 3 M 1.2 A 0\nEND\n"), 0o644))
	s, err = settings.FromMap(map[string]interface{}{"voltsfilename": path}, settings.WithEnvPrefix(""))
	require.NoError(t, err)
	rep, err = opf.Violations(s, c)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, rep.Buses[2].Vmviol, 1e-9)

	require.NoError(t, os.WriteFile(path, []byte("bus 7 M 1 A 0\nEND\n"), 0o644))
	_, err = opf.Violations(s, c)
	assert.ErrorIs(t, err, network.ErrData)

	none, err := settings.FromMap(nil, settings.WithEnvPrefix(""))
	require.NoError(t, err)
	_, err = opf.Violations(none, c)
	assert.ErrorIs(t, err, opf.ErrNoVoltages)
}
