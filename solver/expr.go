package solver

// LinTerm is coef·v.
type LinTerm struct {
	Coef float64
	Var  Var
}

// LinExpr is Constant + Σ Terms.
type LinExpr struct {
	Terms    []LinTerm
	Constant float64
}

// NewLinExpr returns an expression holding only the constant c.
func NewLinExpr(c float64) *LinExpr {
	return &LinExpr{Constant: c}
}

// Add appends coef·v and returns e for chaining. Zero coefficients are
// kept out of the expression.
func (e *LinExpr) Add(coef float64, v Var) *LinExpr {
	if coef != 0 {
		e.Terms = append(e.Terms, LinTerm{Coef: coef, Var: v})
	}
	return e
}

// AddConstant adds c to the constant part.
func (e *LinExpr) AddConstant(c float64) *LinExpr {
	e.Constant += c
	return e
}

// AddExpr adds scale·other to e.
func (e *LinExpr) AddExpr(scale float64, other LinExpr) *LinExpr {
	for _, t := range other.Terms {
		e.Add(scale*t.Coef, t.Var)
	}
	e.Constant += scale * other.Constant
	return e
}

// Eval computes the expression at x, indexed by Var.
func (e LinExpr) Eval(x []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		v += t.Coef * x[t.Var]
	}
	return v
}

// QuadTerm is coef·v1·v2.
type QuadTerm struct {
	Coef   float64
	V1, V2 Var
}

// QuadExpr is a linear part plus Σ bilinear Terms.
type QuadExpr struct {
	Lin   LinExpr
	Terms []QuadTerm
}

// NewQuadExpr wraps a copy of lin as the linear part of a quadratic expression.
func NewQuadExpr(lin LinExpr) *QuadExpr {
	q := &QuadExpr{}
	q.Lin.AddExpr(1, lin)
	return q
}

// AddQuad appends coef·v1·v2.
func (q *QuadExpr) AddQuad(coef float64, v1, v2 Var) *QuadExpr {
	if coef != 0 {
		q.Terms = append(q.Terms, QuadTerm{Coef: coef, V1: v1, V2: v2})
	}
	return q
}

// AddLin appends coef·v to the linear part.
func (q *QuadExpr) AddLin(coef float64, v Var) *QuadExpr {
	q.Lin.Add(coef, v)
	return q
}

// AddConstant adds c to the constant part.
func (q *QuadExpr) AddConstant(c float64) *QuadExpr {
	q.Lin.Constant += c
	return q
}

// IsLinear reports whether q has no bilinear terms.
func (q QuadExpr) IsLinear() bool { return len(q.Terms) == 0 }

// Eval computes the expression at x, indexed by Var.
func (q QuadExpr) Eval(x []float64) float64 {
	v := q.Lin.Eval(x)
	for _, t := range q.Terms {
		v += t.Coef * x[t.V1] * x[t.V2]
	}
	return v
}
