package lpsolver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/katalvlaran/gridopf/solver"
)

// Write exports the model in LP format.
func (m *Model) Write(path string) error {
	if m.closed {
		return solver.ErrClosed
	}
	return writeFile(path, func(w *bufio.Writer) {
		m.writeLP(w, nil)
	})
}

// WriteIIS exports the last IIS in LP format (conventionally *.ilp).
func (m *Model) WriteIIS(path string) error {
	if m.closed {
		return solver.ErrClosed
	}
	if m.iis == nil {
		return ErrNoIIS
	}
	return writeFile(path, func(w *bufio.Writer) {
		m.writeLP(w, m.iis)
	})
}

func writeFile(path string, fn func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lpsolver: write %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	fn(w)
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("lpsolver: write %s: %w", path, err)
	}

	return f.Close()
}

// WriteTo writes the model in LP format to w.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	if m.closed {
		return 0, solver.ErrClosed
	}
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	m.writeLP(bw, nil)
	err := bw.Flush()

	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeLP renders the model, or only the members of sub when non-nil.
func (m *Model) writeLP(w *bufio.Writer, sub *iis) {
	defer w.Flush()

	if sub != nil {
		fmt.Fprintf(w, "\\ IIS of model %s\n", m.name)
	} else {
		fmt.Fprintf(w, "\\ Model %s\n", m.name)
	}
	w.WriteString("Minimize\n")
	if sub == nil {
		w.WriteString("  obj:")
		m.writeQuad(w, m.obj, true)
		w.WriteString("\n")
	} else {
		w.WriteString("  obj:\n")
	}

	rows := make([]int, 0, len(m.cons))
	if sub != nil {
		rows = append(rows, sub.rows...)
	} else {
		for i := range m.cons {
			rows = append(rows, i)
		}
	}
	w.WriteString("Subject To\n")
	var gens []int
	for _, i := range rows {
		c := m.cons[i]
		if c.kind == genConstr {
			gens = append(gens, i)
			continue
		}
		fmt.Fprintf(w, " %s:", c.name)
		m.writeQuad(w, c.expr, false)
		fmt.Fprintf(w, " %s %s\n", c.sense, num(c.rhs-c.expr.Lin.Constant))
	}

	w.WriteString("Bounds\n")
	if sub != nil {
		m.writeIISBounds(w, sub)
	} else {
		for _, v := range m.vars {
			if v.vtype == solver.Binary {
				continue
			}
			writeBound(w, v)
		}
	}

	if sub == nil {
		first := true
		for _, v := range m.vars {
			if v.vtype != solver.Binary {
				continue
			}
			if first {
				w.WriteString("Binaries\n")
				first = false
			}
			fmt.Fprintf(w, " %s\n", v.name)
		}
	}
	if len(gens) > 0 {
		w.WriteString("General Constraints\n")
		for _, i := range gens {
			c := m.cons[i]
			fmt.Fprintf(w, " %s: %s = %s ( %s )\n", c.name, m.vars[c.y].name, c.fn, m.vars[c.x].name)
		}
	}
	w.WriteString("End\n")
}

func (m *Model) writeIISBounds(w *bufio.Writer, sub *iis) {
	for _, j := range sub.lower {
		fmt.Fprintf(w, " %s >= %s\n", m.vars[j].name, num(m.vars[j].lb))
	}
	for _, j := range sub.upper {
		fmt.Fprintf(w, " %s <= %s\n", m.vars[j].name, num(m.vars[j].ub))
	}
}

func writeBound(w *bufio.Writer, v variable) {
	lo, hi := isNegInf(v.lb), isPosInf(v.ub)
	switch {
	case lo && hi:
		fmt.Fprintf(w, " %s free\n", v.name)
	case v.lb == v.ub:
		fmt.Fprintf(w, " %s = %s\n", v.name, num(v.lb))
	case lo:
		fmt.Fprintf(w, " -infinity <= %s <= %s\n", v.name, num(v.ub))
	case hi:
		if v.lb != 0 {
			fmt.Fprintf(w, " %s >= %s\n", v.name, num(v.lb))
		}
	default:
		fmt.Fprintf(w, " %s <= %s <= %s\n", num(v.lb), v.name, num(v.ub))
	}
}

// writeQuad writes the terms of q. The objective's bilinear block is
// written doubled and divided by 2, as LP readers expect.
func (m *Model) writeQuad(w *bufio.Writer, q solver.QuadExpr, objective bool) {
	empty := true
	for _, t := range q.Lin.Terms {
		writeTerm(w, t.Coef, m.vars[t.Var].name, empty)
		empty = false
	}
	if len(q.Terms) > 0 {
		if empty {
			w.WriteString(" [")
		} else {
			w.WriteString(" + [")
		}
		for k, t := range q.Terms {
			coef := t.Coef
			if objective {
				coef *= 2
			}
			var name string
			if t.V1 == t.V2 {
				name = m.vars[t.V1].name + " ^2"
			} else {
				name = m.vars[t.V1].name + " * " + m.vars[t.V2].name
			}
			writeTerm(w, coef, name, k == 0)
		}
		w.WriteString(" ]")
		if objective {
			w.WriteString(" / 2")
		}
		empty = false
	}
	if objective && q.Lin.Constant != 0 {
		writeTerm(w, q.Lin.Constant, "", empty)
		empty = false
	}
	if empty {
		w.WriteString(" 0")
	}
}

func writeTerm(w *bufio.Writer, coef float64, name string, first bool) {
	sign := "+"
	if coef < 0 {
		sign, coef = "-", -coef
	}
	switch {
	case first && sign == "+":
		w.WriteString(" ")
	default:
		w.WriteString(" " + sign + " ")
	}
	switch {
	case name == "":
		w.WriteString(num(coef))
	case coef == 1:
		w.WriteString(name)
	default:
		w.WriteString(num(coef) + " " + name)
	}
}

func num(v float64) string {
	switch {
	case isPosInf(v):
		return "infinity"
	case isNegInf(v):
		return "-infinity"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
