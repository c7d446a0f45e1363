package lpsolver

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/solver"
)

type constrKind int

const (
	linearConstr constrKind = iota
	quadConstr
	genConstr
)

type variable struct {
	name     string
	lb, ub   float64
	vtype    solver.VarType
	start    float64
	hasStart bool
}

// constraint stores every kind in one record. Linear constraints use
// expr.Lin only; general constraints use fn, x and y.
type constraint struct {
	name  string
	kind  constrKind
	expr  solver.QuadExpr
	sense solver.Sense
	rhs   float64
	fn    solver.Func
	x, y  solver.Var
}

// Model is an in-memory program plus the results of its last solve.
// It is not safe for concurrent use.
type Model struct {
	name string
	opts Options
	log  *zap.Logger

	vars   []variable
	cons   []constraint
	obj    solver.QuadExpr
	params map[string]float64

	status   solver.Status
	solCount int
	runtime  time.Duration
	x        []float64
	objVal   float64
	duals    []float64
	iis      *iis
	closed   bool
}

var _ solver.Model = (*Model)(nil)

// New returns an empty model.
func New(name string, opts ...Option) (*Model, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	return &Model{
		name:   name,
		opts:   o,
		log:    o.Logger.With(zap.String("model", name)),
		params: solver.DefaultParams(),
		status: solver.Loaded,
	}, nil
}

// Factory adapts New to solver.Factory.
func Factory(opts ...Option) solver.Factory {
	return func(name string) (solver.Model, error) {
		return New(name, opts...)
	}
}

// AddVar creates a variable. Binary bounds are intersected with [0, 1] at
// solve time.
func (m *Model) AddVar(name string, lb, ub, obj float64, vt solver.VarType) (solver.Var, error) {
	if m.closed {
		return 0, solver.ErrClosed
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsNaN(obj) {
		return 0, fmt.Errorf("lpsolver: variable %q has NaN bound or cost", name)
	}
	v := solver.Var(len(m.vars))
	if name == "" {
		name = fmt.Sprintf("C%d", v)
	}
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, vtype: vt})
	m.obj.Lin.Add(obj, v)

	return v, nil
}

// AddConstr adds a linear constraint.
func (m *Model) AddConstr(name string, expr solver.LinExpr, sense solver.Sense, rhs float64) (solver.Constr, error) {
	q := solver.NewQuadExpr(expr)
	return m.addConstr(constraint{name: name, kind: linearConstr, expr: *q, sense: sense, rhs: rhs})
}

// AddQConstr adds a quadratic constraint. A quadratic expression without
// bilinear terms is stored as a linear constraint.
func (m *Model) AddQConstr(name string, expr solver.QuadExpr, sense solver.Sense, rhs float64) (solver.Constr, error) {
	kind := quadConstr
	if expr.IsLinear() {
		kind = linearConstr
	}
	q := solver.NewQuadExpr(expr.Lin)
	q.Terms = append(q.Terms, expr.Terms...)

	return m.addConstr(constraint{name: name, kind: kind, expr: *q, sense: sense, rhs: rhs})
}

// AddGenConstr adds y = fn(x).
func (m *Model) AddGenConstr(name string, fn solver.Func, x, y solver.Var) (solver.Constr, error) {
	return m.addConstr(constraint{name: name, kind: genConstr, fn: fn, x: x, y: y})
}

func (m *Model) addConstr(c constraint) (solver.Constr, error) {
	if m.closed {
		return 0, solver.ErrClosed
	}
	if math.IsNaN(c.rhs) {
		return 0, fmt.Errorf("lpsolver: constraint %q has NaN right-hand side", c.name)
	}
	for _, t := range c.expr.Lin.Terms {
		if err := m.checkVar(t.Var); err != nil {
			return 0, fmt.Errorf("constraint %q: %w", c.name, err)
		}
	}
	for _, t := range c.expr.Terms {
		if err := m.checkVar(t.V1); err != nil {
			return 0, fmt.Errorf("constraint %q: %w", c.name, err)
		}
		if err := m.checkVar(t.V2); err != nil {
			return 0, fmt.Errorf("constraint %q: %w", c.name, err)
		}
	}
	if c.kind == genConstr {
		if err := m.checkVar(c.x); err != nil {
			return 0, err
		}
		if err := m.checkVar(c.y); err != nil {
			return 0, err
		}
	}
	id := solver.Constr(len(m.cons))
	if c.name == "" {
		c.name = fmt.Sprintf("R%d", id)
	}
	m.cons = append(m.cons, c)

	return id, nil
}

func (m *Model) checkVar(v solver.Var) error {
	if v < 0 || int(v) >= len(m.vars) {
		return fmt.Errorf("%w: %d", solver.ErrUnknownVar, v)
	}
	return nil
}

// Objective returns a copy of the current objective.
func (m *Model) Objective() solver.QuadExpr {
	q := solver.NewQuadExpr(m.obj.Lin)
	q.Terms = append(q.Terms, m.obj.Terms...)
	return *q
}

// SetObjective replaces the objective, including the coefficients given
// to AddVar.
func (m *Model) SetObjective(obj solver.QuadExpr) error {
	if m.closed {
		return solver.ErrClosed
	}
	for _, t := range obj.Lin.Terms {
		if err := m.checkVar(t.Var); err != nil {
			return fmt.Errorf("objective: %w", err)
		}
	}
	for _, t := range obj.Terms {
		if err := m.checkVar(t.V1); err != nil {
			return fmt.Errorf("objective: %w", err)
		}
		if err := m.checkVar(t.V2); err != nil {
			return fmt.Errorf("objective: %w", err)
		}
	}
	q := solver.NewQuadExpr(obj.Lin)
	q.Terms = append(q.Terms, obj.Terms...)
	m.obj = *q

	return nil
}

// SetStart records a MIP start value. Starts on continuous variables are
// accepted and ignored.
func (m *Model) SetStart(v solver.Var, value float64) error {
	if m.closed {
		return solver.ErrClosed
	}
	if err := m.checkVar(v); err != nil {
		return err
	}
	m.vars[v].start = value
	m.vars[v].hasStart = true

	return nil
}

// Optimize solves the model. Unsupported constraint classes return an
// error wrapping solver.ErrUnsupported and leave the status at LOADED.
func (m *Model) Optimize(ctx context.Context) error {
	if m.closed {
		return solver.ErrClosed
	}
	if err := m.linearOnly(); err != nil {
		return err
	}
	m.status, m.solCount, m.x, m.duals, m.objVal, m.iis = solver.Loaded, 0, nil, nil, 0, nil
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	s := m.newSearch(ctx, start)
	p := m.assemble()
	if len(p.binaries) > 0 {
		m.branchAndBound(s, p)
	} else {
		m.solveContinuous(s, p)
	}
	m.runtime = time.Since(start)

	m.log.Info("lpsolver: optimize finished",
		zap.Stringer("status", m.status),
		zap.Int("solutions", m.solCount),
		zap.Int("nodes", s.nodes),
		zap.Duration("runtime", m.runtime),
	)

	return nil
}

// solveContinuous handles a model without binaries.
func (m *Model) solveContinuous(s *search, p *problem) {
	if s.expired() {
		m.status = solver.Interrupted
		return
	}
	cfg := m.lpConfig()
	cfg.wantDuals = true
	res := p.solve(p.lb, p.ub, cfg)
	s.nodes = 1
	m.status = res.status
	if res.status == solver.Optimal {
		m.solCount = 1
		m.x = res.x
		m.objVal = res.obj
		m.duals = res.duals
	}
}

func (m *Model) linearOnly() error {
	for _, c := range m.cons {
		switch c.kind {
		case quadConstr:
			return fmt.Errorf("%w: quadratic constraint %q", solver.ErrUnsupported, c.name)
		case genConstr:
			return fmt.Errorf("%w: general constraint %q", solver.ErrUnsupported, c.name)
		}
	}
	if !m.obj.IsLinear() {
		return fmt.Errorf("%w: quadratic objective", solver.ErrUnsupported)
	}

	return nil
}

// Status returns the status of the last Optimize.
func (m *Model) Status() solver.Status { return m.status }

// SolCount returns the number of feasible solutions found (0 or more).
func (m *Model) SolCount() int { return m.solCount }

// Runtime returns the wall-clock time of the last Optimize.
func (m *Model) Runtime() time.Duration { return m.runtime }

// ObjVal returns the objective of the best solution.
func (m *Model) ObjVal() (float64, error) {
	if err := m.readable(); err != nil {
		return 0, err
	}
	return m.objVal, nil
}

// Value returns the value of v in the best solution.
func (m *Model) Value(v solver.Var) (float64, error) {
	if err := m.readable(); err != nil {
		return 0, err
	}
	if err := m.checkVar(v); err != nil {
		return 0, err
	}
	return m.x[v], nil
}

// Dual returns the shadow price of c: the rate of change of the optimal
// objective per unit increase of its right-hand side. Only pure LPs solved
// to optimality have duals.
func (m *Model) Dual(c solver.Constr) (float64, error) {
	if m.closed {
		return 0, solver.ErrClosed
	}
	if m.duals == nil {
		return 0, solver.ErrNoDual
	}
	if c < 0 || int(c) >= len(m.cons) {
		return 0, fmt.Errorf("%w: %d", solver.ErrUnknownConstr, c)
	}
	return m.duals[c], nil
}

func (m *Model) readable() error {
	if m.closed {
		return solver.ErrClosed
	}
	if m.solCount == 0 {
		return solver.ErrNoSolution
	}
	return nil
}

// IsMIP reports whether the model has binary variables.
func (m *Model) IsMIP() bool {
	for _, v := range m.vars {
		if v.vtype == solver.Binary {
			return true
		}
	}
	return false
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstrs returns the number of constraints of every kind.
func (m *Model) NumConstrs() int { return len(m.cons) }

// VarName returns the name of v, or "" for an unknown handle.
func (m *Model) VarName(v solver.Var) string {
	if m.checkVar(v) != nil {
		return ""
	}
	return m.vars[v].name
}

// Close releases the model. Every later call fails with solver.ErrClosed.
func (m *Model) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.vars, m.cons, m.x, m.duals, m.iis = nil, nil, nil, nil, nil
	m.log.Debug("lpsolver: model closed")

	return nil
}
