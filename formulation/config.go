package formulation

import "math"

// Normalize validates c and resolves the option combinations a family
// cannot honor. Changed options are reported as Notices; contradictions
// that cannot be resolved return a *ConfigError.
//
//   - IV forces rectangular voltages and drops Jabr and branch switching.
//   - Polar voltages drop Jabr; polar with MIP switching is rejected.
//   - DC drops complementarity switching (AC only).
func (c BuildConfig) Normalize() (BuildConfig, []Notice, error) {
	switch c.Family {
	case AC, DC, IV:
	default:
		return c, nil, &ConfigError{Option: "family", Reason: "unknown formulation family " + c.Family.String()}
	}
	switch c.Voltage {
	case Rectangular, Polar:
	default:
		return c, nil, &ConfigError{Option: "voltageRepresentation", Reason: "unknown representation"}
	}
	switch c.Switching {
	case SwitchingNone, SwitchingMIP, SwitchingComplementarity:
	default:
		return c, nil, &ConfigError{Option: "branchSwitching", Reason: "unknown mode " + c.Switching.String()}
	}
	if f := c.MinActiveBranchFraction; math.IsNaN(f) || f < 0 || f > 1 {
		return c, nil, &ConfigError{Option: "minActiveBranchFraction", Reason: "must lie in [0, 1]"}
	}
	if c.FixTolerance < 0 || math.IsNaN(c.FixTolerance) {
		return c, nil, &ConfigError{Option: "fixTolerance", Reason: "must be non-negative"}
	}

	var notices []Notice
	note := func(option, msg string) {
		notices = append(notices, Notice{Option: option, Message: msg})
	}

	switch c.Family {
	case DC:
		if c.Switching == SwitchingComplementarity {
			c.Switching = SwitchingNone
			note("branchSwitching", "complementarity switching is only available for AC, turned off")
		}
	case IV:
		if c.Voltage != Rectangular {
			c.Voltage = Rectangular
			note("voltageRepresentation", "IV requires rectangular voltages, switched to rectangular")
		}
		if c.UseJabr {
			c.UseJabr = false
			note("useJabrRelaxation", "IV never relaxes to a cone, turned off")
		}
		if c.Switching != SwitchingNone {
			c.Switching = SwitchingNone
			note("branchSwitching", "IV does not support branch switching, turned off")
		}
	case AC:
		if c.Voltage == Polar {
			if c.Switching == SwitchingMIP {
				return c, nil, &ConfigError{
					Option: "branchSwitching",
					Reason: "MIP branch switching is not supported with polar voltages",
				}
			}
			if c.UseJabr {
				c.UseJabr = false
				note("useJabrRelaxation", "polar formulation, Jabr relaxation turned off")
			}
		}
	}

	return c, notices, nil
}

// minActiveBranches is floor(numbranches · fraction).
func (c BuildConfig) minActiveBranches(numBranches int) float64 {
	return math.Floor(float64(numBranches) * c.MinActiveBranchFraction)
}
