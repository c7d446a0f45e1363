package casefile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/katalvlaran/gridopf/network"
)

// Minimum column counts of the MATPOWER tables.
const (
	busCols     = 13
	genCols     = 10
	branchCols  = 11
	gencostCols = 4
)

var assignRe = regexp.MustCompile(`^\s*mpc\.(\w+)\s*=\s*(.*)$`)

// matrix is one numeric table with the line each row came from.
type matrix struct {
	rows  [][]float64
	lines []int
}

// decodeMATPOWER reads the subset of MATLAB syntax a MATPOWER case file
// uses: scalar and matrix assignments to mpc fields, % comments, and cell
// arrays, which are skipped. A row must fit on one line.
func decodeMATPOWER(r io.Reader, source string) (*network.Case, error) {
	var (
		c       network.Case
		tables  = map[string]*matrix{}
		open    *matrix // table being filled
		skipTo  string  // closing token of a skipped block
		lineNum int
	)
	fail := func(format string, args ...interface{}) error {
		return &ParseError{Source: source, Line: lineNum, Reason: fmt.Sprintf(format, args...)}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if i := strings.IndexByte(line, '%'); i >= 0 {
			line = line[:i]
		}

		if skipTo != "" {
			if strings.Contains(line, skipTo) {
				skipTo = ""
			}
			continue
		}

		if open == nil {
			m := assignRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name, rhs := m[1], strings.TrimSpace(m[2])
			switch {
			case strings.HasPrefix(rhs, "["):
				open = &matrix{}
				tables[name] = open
				line = rhs[1:]
			case strings.HasPrefix(rhs, "{"):
				if !strings.Contains(rhs, "}") {
					skipTo = "}"
				}
				continue
			default:
				if name == "baseMVA" {
					v, err := parseNumber(strings.TrimSuffix(rhs, ";"))
					if err != nil {
						return nil, fail("baseMVA: %v", err)
					}
					c.BaseMVA = v
				}
				continue
			}
		}

		closed := false
		if i := strings.IndexByte(line, ']'); i >= 0 {
			line, closed = line[:i], true
		}
		for _, seg := range strings.Split(line, ";") {
			fields := strings.FieldsFunc(seg, func(r rune) bool {
				return r == ' ' || r == '\t' || r == ','
			})
			if len(fields) == 0 {
				continue
			}
			row := make([]float64, len(fields))
			for k, f := range fields {
				v, err := parseNumber(f)
				if err != nil {
					return nil, fail("column %d: %v", k+1, err)
				}
				row[k] = v
			}
			open.rows = append(open.rows, row)
			open.lines = append(open.lines, lineNum)
		}
		if closed {
			open = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("casefile: %s: %w", source, err)
	}
	if open != nil || skipTo != "" {
		return nil, &ParseError{Source: source, Reason: "unterminated matrix"}
	}

	if err := fillCase(&c, tables, source); err != nil {
		return nil, err
	}

	return &c, nil
}

func parseNumber(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func fillCase(c *network.Case, tables map[string]*matrix, source string) error {
	short := func(table string, line, have, want int) error {
		return &ParseError{
			Source: source,
			Line:   line,
			Reason: fmt.Sprintf("%s row has %d columns, need at least %d", table, have, want),
		}
	}

	if m := tables["bus"]; m != nil {
		for i, r := range m.rows {
			if len(r) < busCols {
				return short("bus", m.lines[i], len(r), busCols)
			}
			c.Buses = append(c.Buses, network.BusRecord{
				ID: int(r[0]), Type: int(r[1]),
				Pd: r[2], Qd: r[3], Gs: r[4], Bs: r[5],
				Area: int(r[6]), Vm: r[7], Va: r[8], BaseKV: r[9],
				Zone: int(r[10]), Vmax: r[11], Vmin: r[12],
			})
		}
	}
	if m := tables["gen"]; m != nil {
		for i, r := range m.rows {
			if len(r) < genCols {
				return short("gen", m.lines[i], len(r), genCols)
			}
			col := func(k int) float64 {
				if k < len(r) {
					return r[k]
				}
				return 0
			}
			c.Generators = append(c.Generators, network.GenRecord{
				Bus: int(r[0]), Pg: r[1], Qg: r[2], Qmax: r[3], Qmin: r[4],
				Vg: r[5], MBase: r[6], Status: int(r[7]), Pmax: r[8], Pmin: r[9],
				Pc1: col(10), Pc2: col(11),
				Qc1min: col(12), Qc1max: col(13), Qc2min: col(14), Qc2max: col(15),
				RampAGC: col(16), Ramp10: col(17), Ramp30: col(18), RampQ: col(19),
				APF: col(20),
			})
		}
	}
	if m := tables["branch"]; m != nil {
		for i, r := range m.rows {
			if len(r) < branchCols {
				return short("branch", m.lines[i], len(r), branchCols)
			}
			angmin, angmax := -360.0, 360.0
			if len(r) >= 13 {
				angmin, angmax = r[11], r[12]
			}
			c.Branches = append(c.Branches, network.BranchRecord{
				From: int(r[0]), To: int(r[1]),
				R: r[2], X: r[3], B: r[4],
				RateA: r[5], RateB: r[6], RateC: r[7],
				Ratio: r[8], Angle: r[9], Status: int(r[10]),
				AngMin: angmin, AngMax: angmax,
			})
		}
	}
	if m := tables["gencost"]; m != nil {
		for i, r := range m.rows {
			if len(r) < gencostCols {
				return short("gencost", m.lines[i], len(r), gencostCols)
			}
			n := int(r[3])
			want := n
			if int(r[0]) == network.CostPiecewise {
				want = 2 * n
			}
			if len(r)-gencostCols < want {
				return short("gencost", m.lines[i], len(r), gencostCols+want)
			}
			coeffs := make([]float64, want)
			copy(coeffs, r[gencostCols:gencostCols+want])
			c.GenCosts = append(c.GenCosts, network.GenCostRecord{
				Model: int(r[0]), Startup: r[1], Shutdown: r[2], N: n, Coeffs: coeffs,
			})
		}
	}
	if len(c.Buses) == 0 {
		return &ParseError{Source: source, Reason: "no mpc.bus table"}
	}

	return nil
}

// EncodeMATPOWER writes c as a MATPOWER case function named name.
func EncodeMATPOWER(w io.Writer, name string, c *network.Case) error {
	if c == nil {
		return ErrNilCase
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "function mpc = %s\n", name)
	fmt.Fprintf(bw, "mpc.version = '2';\n\n")
	fmt.Fprintf(bw, "mpc.baseMVA = %s;\n\n", num(c.BaseMVA))

	table := func(field string, rows [][]float64) {
		fmt.Fprintf(bw, "mpc.%s = [\n", field)
		for _, r := range rows {
			cells := make([]string, len(r))
			for k, v := range r {
				cells[k] = num(v)
			}
			fmt.Fprintf(bw, "\t%s;\n", strings.Join(cells, "\t"))
		}
		fmt.Fprintf(bw, "];\n\n")
	}

	rows := make([][]float64, 0, len(c.Buses))
	for _, b := range c.Buses {
		rows = append(rows, []float64{
			float64(b.ID), float64(b.Type), b.Pd, b.Qd, b.Gs, b.Bs,
			float64(b.Area), b.Vm, b.Va, b.BaseKV, float64(b.Zone), b.Vmax, b.Vmin,
		})
	}
	table("bus", rows)

	rows = rows[:0]
	for _, g := range c.Generators {
		rows = append(rows, []float64{
			float64(g.Bus), g.Pg, g.Qg, g.Qmax, g.Qmin, g.Vg, g.MBase, float64(g.Status), g.Pmax, g.Pmin,
			g.Pc1, g.Pc2, g.Qc1min, g.Qc1max, g.Qc2min, g.Qc2max,
			g.RampAGC, g.Ramp10, g.Ramp30, g.RampQ, g.APF,
		})
	}
	table("gen", rows)

	rows = rows[:0]
	for _, br := range c.Branches {
		rows = append(rows, []float64{
			float64(br.From), float64(br.To), br.R, br.X, br.B,
			br.RateA, br.RateB, br.RateC, br.Ratio, br.Angle, float64(br.Status),
			br.AngMin, br.AngMax,
		})
	}
	table("branch", rows)

	if len(c.GenCosts) > 0 {
		rows = rows[:0]
		for _, gc := range c.GenCosts {
			r := []float64{float64(gc.Model), gc.Startup, gc.Shutdown, float64(gc.N)}
			rows = append(rows, append(r, gc.Coeffs...))
		}
		table("gencost", rows)
	}

	return bw.Flush()
}

func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
