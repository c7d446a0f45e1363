package lpsolver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridopf/lpsolver"
	"github.com/katalvlaran/gridopf/solver"
)

const eps = 1e-6

func newModel(t *testing.T) *lpsolver.Model {
	t.Helper()
	m, err := lpsolver.New("test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func lin(terms ...interface{}) solver.LinExpr {
	e := solver.NewLinExpr(0)
	for i := 0; i+1 < len(terms); i += 2 {
		e.Add(terms[i].(float64), terms[i+1].(solver.Var))
	}
	return *e
}

func TestNew_OptionViolation(t *testing.T) {
	_, err := lpsolver.New("x", lpsolver.WithMaxNodes(0))
	require.ErrorIs(t, err, lpsolver.ErrOptionViolation)
}

// TestOptimize_LP solves min x+y s.t. x+y ≥ 2, x-y = 0 and checks values
// and shadow prices.
func TestOptimize_LP(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
	y, _ := m.AddVar("y", 0, 10, 1, solver.Continuous)
	cover, err := m.AddConstr("cover", lin(1.0, x, 1.0, y), solver.GreaterEqual, 2)
	require.NoError(t, err)
	tie, err := m.AddConstr("tie", lin(1.0, x, -1.0, y), solver.Equal, 0)
	require.NoError(t, err)

	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	assert.Equal(t, 1, m.SolCount())
	assert.False(t, m.IsMIP())

	obj, err := m.ObjVal()
	require.NoError(t, err)
	assert.InDelta(t, 2, obj, eps)
	vx, _ := m.Value(x)
	vy, _ := m.Value(y)
	assert.InDelta(t, 1, vx, eps)
	assert.InDelta(t, 1, vy, eps)

	pi, err := m.Dual(cover)
	require.NoError(t, err)
	assert.InDelta(t, 1, pi, eps)
	pi, err = m.Dual(tie)
	require.NoError(t, err)
	assert.InDelta(t, 0, pi, eps)
}

// TestOptimize_InequalityOnly solves min x s.t. x ≥ 2 over [0, 10], a
// program with no equality rows at all.
func TestOptimize_InequalityOnly(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
	floor, err := m.AddConstr("floor", lin(1.0, x), solver.GreaterEqual, 2)
	require.NoError(t, err)

	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	vx, err := m.Value(x)
	require.NoError(t, err)
	assert.InDelta(t, 2, vx, eps)
	pi, err := m.Dual(floor)
	require.NoError(t, err)
	assert.InDelta(t, 1, pi, eps)

	// Same row with a ceiling that contradicts it.
	m = newModel(t)
	x, _ = m.AddVar("x", 0, 10, 1, solver.Continuous)
	m.AddConstr("floor", lin(1.0, x), solver.GreaterEqual, 2)
	m.AddConstr("ceiling", lin(1.0, x), solver.LessEqual, 1)
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.Infeasible, m.Status())
}

// TestOptimize_Equilibrated repeats a badly scaled LP with NumericFocus.
func TestOptimize_Equilibrated(t *testing.T) {
	for _, focus := range []float64{0, 2} {
		m := newModel(t)
		require.NoError(t, m.SetParam(solver.ParamNumericFocus, focus))
		x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
		y, _ := m.AddVar("y", 0, 10, 1, solver.Continuous)
		c, _ := m.AddConstr("cover", lin(1000.0, x, 1000.0, y), solver.GreaterEqual, 2000)

		require.NoError(t, m.Optimize(context.Background()))
		require.Equal(t, solver.Optimal, m.Status())
		obj, _ := m.ObjVal()
		assert.InDelta(t, 2, obj, eps, "focus %v", focus)
		pi, err := m.Dual(c)
		require.NoError(t, err)
		assert.InDelta(t, 1e-3, pi, eps, "focus %v", focus)
	}
}

// TestOptimize_FixedAndConstant covers substitution of fixed variables and
// expression constants.
func TestOptimize_FixedAndConstant(t *testing.T) {
	m := newModel(t)
	one, _ := m.AddVar("constant", 1, 1, 5, solver.Continuous)
	x, _ := m.AddVar("x", -solver.Infinity, solver.Infinity, 2, solver.Continuous)
	e := lin(1.0, x, -3.0, one)
	e.AddConstant(1)
	_, err := m.AddConstr("def", e, solver.Equal, 0) // x - 3 + 1 = 0
	require.NoError(t, err)

	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	vx, _ := m.Value(x)
	assert.InDelta(t, 2, vx, eps)
	obj, _ := m.ObjVal()
	assert.InDelta(t, 9, obj, eps)
}

func TestOptimize_DependentEqualities(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
	y, _ := m.AddVar("y", 0, 10, 0, solver.Continuous)
	m.AddConstr("a", lin(1.0, x, 1.0, y), solver.Equal, 2)
	m.AddConstr("b", lin(2.0, x, 2.0, y), solver.Equal, 4)
	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	vy, _ := m.Value(y)
	assert.InDelta(t, 2, vy, eps)

	m2 := newModel(t)
	x, _ = m2.AddVar("x", 0, 10, 1, solver.Continuous)
	y, _ = m2.AddVar("y", 0, 10, 0, solver.Continuous)
	m2.AddConstr("a", lin(1.0, x, 1.0, y), solver.Equal, 2)
	m2.AddConstr("b", lin(2.0, x, 2.0, y), solver.Equal, 5)
	require.NoError(t, m2.Optimize(context.Background()))
	assert.Equal(t, solver.Infeasible, m2.Status())
	assert.Equal(t, 0, m2.SolCount())
	_, err := m2.Value(x)
	assert.ErrorIs(t, err, solver.ErrNoSolution)
}

// TestOptimize_DualReductions shows INF_OR_UNBOUNDED resolved once dual
// reductions are off.
func TestOptimize_DualReductions(t *testing.T) {
	build := func(t *testing.T, feasible bool) *lpsolver.Model {
		m := newModel(t)
		x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
		m.AddVar("free", 0, solver.Infinity, -1, solver.Continuous)
		rhs := 5.0
		if !feasible {
			rhs = 20
		}
		m.AddConstr("c", lin(1.0, x), solver.GreaterEqual, rhs)
		return m
	}

	m := build(t, true)
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.InfOrUnbounded, m.Status())
	require.NoError(t, m.SetParam(solver.ParamDualReductions, 0))
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.Unbounded, m.Status())

	m = build(t, false)
	require.NoError(t, m.SetParam(solver.ParamDualReductions, 0))
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.Infeasible, m.Status())
}

func TestOptimize_UnboundedRay(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, solver.Infinity, -1, solver.Continuous)
	y, _ := m.AddVar("y", 0, solver.Infinity, 0, solver.Continuous)
	m.AddConstr("c", lin(1.0, x, -1.0, y), solver.LessEqual, 1)
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.Unbounded, m.Status())
}

// knapsack: max 5a + 4b + 3c s.t. 2a + 3b + c ≤ 5, binary.
func knapsack(t *testing.T) (*lpsolver.Model, []solver.Var) {
	m := newModel(t)
	var z []solver.Var
	for i, v := range []float64{5, 4, 3} {
		zi, err := m.AddVar(string(rune('a'+i)), 0, 1, -v, solver.Binary)
		require.NoError(t, err)
		z = append(z, zi)
	}
	_, err := m.AddConstr("cap", lin(2.0, z[0], 3.0, z[1], 1.0, z[2]), solver.LessEqual, 5)
	require.NoError(t, err)
	return m, z
}

func TestOptimize_MIP(t *testing.T) {
	m, z := knapsack(t)
	require.True(t, m.IsMIP())
	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	obj, _ := m.ObjVal()
	assert.InDelta(t, -9, obj, eps)
	for i, want := range []float64{1, 1, 0} {
		v, _ := m.Value(z[i])
		assert.InDelta(t, want, v, eps, "z[%d]", i)
	}
	_, err := m.Dual(0)
	assert.ErrorIs(t, err, solver.ErrNoDual)
}

func TestOptimize_MIPStart(t *testing.T) {
	// All-ones start violates capacity and is rejected.
	m, z := knapsack(t)
	for _, v := range z {
		require.NoError(t, m.SetStart(v, 1))
	}
	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	obj, _ := m.ObjVal()
	assert.InDelta(t, -9, obj, eps)

	// A feasible start becomes the first incumbent.
	m, z = knapsack(t)
	for i, s := range []float64{1, 0, 1} {
		require.NoError(t, m.SetStart(z[i], s))
	}
	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Optimal, m.Status())
	assert.GreaterOrEqual(t, m.SolCount(), 2)
}

func TestOptimize_Interrupted(t *testing.T) {
	m, _ := knapsack(t)
	require.NoError(t, m.SetParam(solver.ParamTimeLimit, 0))
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.Interrupted, m.Status())
	assert.Equal(t, 0, m.SolCount())

	m, _ = knapsack(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Optimize(ctx))
	assert.Equal(t, solver.Interrupted, m.Status())
}

func TestOptimize_Unsupported(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 1, 0, solver.Continuous)
	y, _ := m.AddVar("y", -1, 1, 0, solver.Continuous)
	q := solver.NewQuadExpr(solver.LinExpr{})
	q.AddQuad(1, x, x)
	_, err := m.AddQConstr("q", *q, solver.LessEqual, 1)
	require.NoError(t, err)
	_, err = m.AddGenConstr("g", solver.Cos, x, y)
	require.NoError(t, err)

	err = m.Optimize(context.Background())
	require.ErrorIs(t, err, solver.ErrUnsupported)
	assert.Equal(t, solver.Loaded, m.Status())
}

func TestAddQConstr_LinearIsAccepted(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 4, -1, solver.Continuous)
	q := solver.NewQuadExpr(lin(1.0, x))
	_, err := m.AddQConstr("q", *q, solver.LessEqual, 3)
	require.NoError(t, err)
	require.NoError(t, m.Optimize(context.Background()))
	v, _ := m.Value(x)
	assert.InDelta(t, 3, v, eps)
}

func TestAddConstr_UnknownVar(t *testing.T) {
	m := newModel(t)
	_, err := m.AddConstr("bad", lin(1.0, solver.Var(7)), solver.Equal, 0)
	assert.ErrorIs(t, err, solver.ErrUnknownVar)
	assert.ErrorIs(t, m.SetStart(solver.Var(3), 1), solver.ErrUnknownVar)
}

func TestObjective_Replace(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 1, 3, 1, solver.Continuous)
	obj := m.Objective()
	require.Len(t, obj.Lin.Terms, 1)

	flipped := solver.NewQuadExpr(solver.LinExpr{})
	flipped.AddLin(-1, x)
	require.NoError(t, m.SetObjective(*flipped))
	require.NoError(t, m.Optimize(context.Background()))
	v, _ := m.Value(x)
	assert.InDelta(t, 3, v, eps)
}

func TestComputeIIS(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 10, 1, solver.Continuous)
	y, _ := m.AddVar("y", 0, 10, 1, solver.Continuous)
	m.AddConstr("spare", lin(1.0, y), solver.LessEqual, 8)
	m.AddConstr("lo", lin(1.0, x), solver.GreaterEqual, 3)
	m.AddConstr("hi", lin(1.0, x), solver.LessEqual, 2)

	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.Infeasible, m.Status())
	require.ErrorIs(t, m.WriteIIS(filepath.Join(t.TempDir(), "x.ilp")), lpsolver.ErrNoIIS)

	require.NoError(t, m.ComputeIIS(context.Background()))
	assert.Equal(t, []string{"lo", "hi"}, m.IISConstrs())

	path := filepath.Join(t.TempDir(), "model.ilp")
	require.NoError(t, m.WriteIIS(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), " lo: x >= 3\n")
	assert.Contains(t, string(raw), " hi: x <= 2\n")
	assert.NotContains(t, string(raw), "spare")
}

// TestComputeIIS_Bounds finds an IIS made of one row and one bound.
func TestComputeIIS_Bounds(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 2, 1, solver.Continuous)
	m.AddConstr("lo", lin(1.0, x), solver.GreaterEqual, 3)
	require.NoError(t, m.ComputeIIS(context.Background()))
	assert.Equal(t, []string{"lo"}, m.IISConstrs())

	var buf bytes.Buffer
	require.NoError(t, m.WriteIIS(filepath.Join(t.TempDir(), "b.ilp")))
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
}

func TestComputeIIS_Feasible(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 2, 1, solver.Continuous)
	m.AddConstr("lo", lin(1.0, x), solver.GreaterEqual, 1)
	assert.ErrorIs(t, m.ComputeIIS(context.Background()), lpsolver.ErrModelFeasible)
}

func TestParams(t *testing.T) {
	m := newModel(t)
	require.NoError(t, m.SetParam("mipgap", 0.1))
	v, err := m.Param(solver.ParamMIPGap)
	require.NoError(t, err)
	assert.Equal(t, 0.1, v)
	assert.ErrorIs(t, m.SetParam("NoSuchParam", 1), solver.ErrUnknownParam)

	dir := t.TempDir()
	good := filepath.Join(dir, "good.prm")
	require.NoError(t, os.WriteFile(good, []byte("# tuned\nNumericFocus 2\n\nTimeLimit 60\n"), 0o644))
	require.NoError(t, m.ReadParams(good))
	v, _ = m.Param(solver.ParamNumericFocus)
	assert.Equal(t, 2.0, v)
	v, _ = m.Param(solver.ParamTimeLimit)
	assert.Equal(t, 60.0, v)

	bad := filepath.Join(dir, "bad.prm")
	require.NoError(t, os.WriteFile(bad, []byte("MIPGap\n"), 0o644))
	assert.ErrorIs(t, m.ReadParams(bad), lpsolver.ErrParamFile)
	unknown := filepath.Join(dir, "unknown.prm")
	require.NoError(t, os.WriteFile(unknown, []byte("Bogus 1\n"), 0o644))
	assert.ErrorIs(t, m.ReadParams(unknown), solver.ErrUnknownParam)
}

func TestWriteTo(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", -solver.Infinity, solver.Infinity, 2, solver.Continuous)
	y, _ := m.AddVar("y", 1, 1, 0, solver.Continuous)
	z, _ := m.AddVar("z", 0, 1, 0, solver.Binary)
	w, _ := m.AddVar("w", -2, 3, 0, solver.Continuous)
	m.AddConstr("c1", lin(1.0, x, -1.5, y), solver.LessEqual, 4)
	q := solver.NewQuadExpr(lin(1.0, z))
	q.AddQuad(1, x, x).AddQuad(-2, x, w)
	m.AddQConstr("q1", *q, solver.GreaterEqual, 0)
	m.AddGenConstr("g1", solver.Sin, x, w)
	obj := m.Objective()
	obj.AddQuad(3, x, x)
	require.NoError(t, m.SetObjective(obj))

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	want := `\ Model test
Minimize
  obj: 2 x + [ 6 x ^2 ] / 2
Subject To
 c1: x - 1.5 y <= 4
 q1: z + [ x ^2 - 2 x * w ] >= 0
Bounds
 x free
 y = 1
 -2 <= w <= 3
Binaries
 z
General Constraints
 g1: w = SIN ( x )
End
`
	assert.Equal(t, want, buf.String())
}

func TestClose(t *testing.T) {
	m := newModel(t)
	x, _ := m.AddVar("x", 0, 1, 1, solver.Continuous)
	require.NoError(t, m.Optimize(context.Background()))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	_, err := m.Value(x)
	assert.ErrorIs(t, err, solver.ErrClosed)
	_, err = m.AddVar("y", 0, 1, 0, solver.Continuous)
	assert.ErrorIs(t, err, solver.ErrClosed)
	assert.ErrorIs(t, m.Optimize(context.Background()), solver.ErrClosed)
}
