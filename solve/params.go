package solve

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/katalvlaran/gridopf/formulation"
	"github.com/katalvlaran/gridopf/solver"
)

// Tuning is the solver parameter set a pipeline applies before Run.
type Tuning struct {
	// TimeLimit of 0 means none.
	TimeLimit time.Duration
	// ParamFile holds "Name value" overrides applied last.
	ParamFile string
	// Quiet turns solver output off.
	Quiet bool
}

// Tune applies the family defaults: NonConvex=2 for AC and IV, MIPGap and
// OptimalityTol 1e-3 (AC, IV) or 1e-4 (DC). Then the time limit and the
// parameter file.
func Tune(t solver.Tuner, family formulation.Family, cfg Tuning) error {
	gap := 1e-4
	params := map[string]float64{}
	if family != formulation.DC {
		gap = 1e-3
		params[solver.ParamNonConvex] = 2
	}
	params[solver.ParamMIPGap] = gap
	params[solver.ParamOptimalityTol] = gap
	if cfg.TimeLimit > 0 {
		params[solver.ParamTimeLimit] = cfg.TimeLimit.Seconds()
	}
	if cfg.Quiet {
		params[solver.ParamOutputFlag] = 0
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := t.SetParam(name, params[name]); err != nil {
			return fmt.Errorf("solve: tune %s: %w", name, err)
		}
	}
	if cfg.ParamFile != "" {
		if err := t.ReadParams(cfg.ParamFile); err != nil {
			return fmt.Errorf("solve: read parameter file: %w", err)
		}
	}

	return nil
}

// MIPStart returns the switching variables to warm-start at 1 (all
// branches on). DC programs always get the start when switching is MIP;
// AC programs only when requested.
func MIPStart(p *formulation.Program, requested bool) []solver.Var {
	if !p.MIPSwitched() {
		return nil
	}
	if p.Config.Family != formulation.DC && !requested {
		return nil
	}
	out := make([]solver.Var, 0, len(p.Vars.Z))
	for _, br := range p.Network.Branches {
		if z, ok := p.Vars.Z[br]; ok {
			out = append(out, z)
		}
	}

	return out
}

// DefaultIISPath is "<family>opfmodel.ilp", for example dcopfmodel.ilp.
func DefaultIISPath(family formulation.Family) string {
	return strings.ToLower(family.String()) + "opfmodel.ilp"
}
