package lpsolver

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/solver"
)

// canonicalParam resolves a case-insensitive parameter name.
func canonicalParam(name string) (string, bool) {
	for k := range solver.DefaultParams() {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// SetParam sets a recognized parameter. Names are case-insensitive.
func (m *Model) SetParam(name string, value float64) error {
	if m.closed {
		return solver.ErrClosed
	}
	key, ok := canonicalParam(name)
	if !ok {
		return fmt.Errorf("%w: %q", solver.ErrUnknownParam, name)
	}
	if math.IsNaN(value) {
		return fmt.Errorf("lpsolver: parameter %s: NaN value", key)
	}
	m.params[key] = value
	m.log.Debug("lpsolver: parameter set", zap.String("param", key), zap.Float64("value", value))

	return nil
}

// Param returns the current value of a parameter.
func (m *Model) Param(name string) (float64, error) {
	key, ok := canonicalParam(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", solver.ErrUnknownParam, name)
	}
	return m.params[key], nil
}

// ReadParams applies a parameter file: one "Name value" pair per line,
// blank lines and lines starting with '#' ignored.
func (m *Model) ReadParams(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("lpsolver: read params: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return fmt.Errorf("%w: %s:%d: want \"Name value\"", ErrParamFile, path, line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("%w: %s:%d: %v", ErrParamFile, path, line, err)
		}
		if err := m.SetParam(fields[0], v); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}

	return sc.Err()
}

func (m *Model) lpConfig() lpConfig {
	return lpConfig{
		dualReductions: m.params[solver.ParamDualReductions] != 0,
		equilibrate:    m.params[solver.ParamNumericFocus] >= 1,
		feasTol:        m.params[solver.ParamFeasibilityTol],
	}
}

// search carries the limits of one Optimize call.
type search struct {
	ctx      context.Context
	deadline time.Time
	maxNodes int
	nodes    int
}

func (m *Model) newSearch(ctx context.Context, start time.Time) *search {
	s := &search{ctx: ctx, maxNodes: m.opts.MaxNodes}
	if tl := m.params[solver.ParamTimeLimit]; tl < solver.Infinity {
		s.deadline = start.Add(time.Duration(tl * float64(time.Second)))
	}
	if bh := m.params[solver.ParamBarHomogeneous]; bh > 0 {
		m.log.Debug("lpsolver: BarHomogeneous has no effect on the simplex backend")
	}

	return s
}

// expired reports whether the context or the time limit ended the search.
func (s *search) expired() bool {
	if s.ctx.Err() != nil {
		return true
	}
	return !s.deadline.IsZero() && !time.Now().Before(s.deadline)
}
