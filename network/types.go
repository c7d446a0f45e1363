package network

import (
	"errors"
	"fmt"
)

// ErrData is the sentinel wrapped by every DataError.
var ErrData = errors.New("network: invalid case data")

// ErrBusNotFound is returned by lookups for an unknown bus.
var ErrBusNotFound = errors.New("network: bus not found")

// DataError reports malformed or inconsistent case data. Entity names the
// table ("bus", "branch", "gen", "gencost", "network") and ID the offending
// external identifier (bus id, branch index or generator index).
type DataError struct {
	Entity string
	ID     int
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("network: %s %d: %s", e.Entity, e.ID, e.Reason)
}

// Unwrap makes errors.Is(err, ErrData) hold.
func (e *DataError) Unwrap() error { return ErrData }

func dataErr(entity string, id int, format string, args ...interface{}) error {
	return &DataError{Entity: entity, ID: id, Reason: fmt.Sprintf(format, args...)}
}

// BusType follows the MATPOWER bus type codes.
type BusType int

const (
	BusPQ       BusType = 1
	BusPV       BusType = 2
	BusRef      BusType = 3
	BusIsolated BusType = 4
)

func (t BusType) String() string {
	switch t {
	case BusPQ:
		return "PQ"
	case BusPV:
		return "PV"
	case BusRef:
		return "REF"
	case BusIsolated:
		return "ISOLATED"
	}
	return fmt.Sprintf("BusType(%d)", int(t))
}

// Cost model codes of the gencost table.
const (
	CostPiecewise  = 1
	CostPolynomial = 2
)

// DefaultBaseMVA is used when a case leaves baseMVA at zero.
const DefaultBaseMVA = 100.0

// Case is the raw, MATPOWER-shaped input: tables in physical units
// (MW, MVAr, degrees) exactly as a case parser produced them.
type Case struct {
	BaseMVA    float64         `yaml:"baseMVA" json:"baseMVA"`
	Buses      []BusRecord     `yaml:"bus" json:"bus"`
	Generators []GenRecord     `yaml:"gen" json:"gen"`
	Branches   []BranchRecord  `yaml:"branch" json:"branch"`
	GenCosts   []GenCostRecord `yaml:"gencost" json:"gencost"`
}

// BusRecord is one row of the bus table.
type BusRecord struct {
	ID     int     `yaml:"bus_i" json:"bus_i"`
	Type   int     `yaml:"type" json:"type"`
	Pd     float64 `yaml:"Pd" json:"Pd"`
	Qd     float64 `yaml:"Qd" json:"Qd"`
	Gs     float64 `yaml:"Gs" json:"Gs"`
	Bs     float64 `yaml:"Bs" json:"Bs"`
	Area   int     `yaml:"area" json:"area"`
	Vm     float64 `yaml:"Vm" json:"Vm"`
	Va     float64 `yaml:"Va" json:"Va"`
	BaseKV float64 `yaml:"baseKV" json:"baseKV"`
	Zone   int     `yaml:"zone" json:"zone"`
	Vmax   float64 `yaml:"Vmax" json:"Vmax"`
	Vmin   float64 `yaml:"Vmin" json:"Vmin"`
}

// GenRecord is one row of the gen table. Fields after Pmin are carried
// through for format fidelity only.
type GenRecord struct {
	Bus     int     `yaml:"bus" json:"bus"`
	Pg      float64 `yaml:"Pg" json:"Pg"`
	Qg      float64 `yaml:"Qg" json:"Qg"`
	Qmax    float64 `yaml:"Qmax" json:"Qmax"`
	Qmin    float64 `yaml:"Qmin" json:"Qmin"`
	Vg      float64 `yaml:"Vg" json:"Vg"`
	MBase   float64 `yaml:"mBase" json:"mBase"`
	Status  int     `yaml:"status" json:"status"`
	Pmax    float64 `yaml:"Pmax" json:"Pmax"`
	Pmin    float64 `yaml:"Pmin" json:"Pmin"`
	Pc1     float64 `yaml:"Pc1" json:"Pc1"`
	Pc2     float64 `yaml:"Pc2" json:"Pc2"`
	Qc1min  float64 `yaml:"Qc1min" json:"Qc1min"`
	Qc1max  float64 `yaml:"Qc1max" json:"Qc1max"`
	Qc2min  float64 `yaml:"Qc2min" json:"Qc2min"`
	Qc2max  float64 `yaml:"Qc2max" json:"Qc2max"`
	RampAGC float64 `yaml:"ramp_agc" json:"ramp_agc"`
	Ramp10  float64 `yaml:"ramp_10" json:"ramp_10"`
	Ramp30  float64 `yaml:"ramp_30" json:"ramp_30"`
	RampQ   float64 `yaml:"ramp_q" json:"ramp_q"`
	APF     float64 `yaml:"apf" json:"apf"`
}

// BranchRecord is one row of the branch table. Angles are in degrees.
type BranchRecord struct {
	From   int     `yaml:"fbus" json:"fbus"`
	To     int     `yaml:"tbus" json:"tbus"`
	R      float64 `yaml:"r" json:"r"`
	X      float64 `yaml:"x" json:"x"`
	B      float64 `yaml:"b" json:"b"`
	RateA  float64 `yaml:"rateA" json:"rateA"`
	RateB  float64 `yaml:"rateB" json:"rateB"`
	RateC  float64 `yaml:"rateC" json:"rateC"`
	Ratio  float64 `yaml:"ratio" json:"ratio"`
	Angle  float64 `yaml:"angle" json:"angle"`
	Status int     `yaml:"status" json:"status"`
	AngMin float64 `yaml:"angmin" json:"angmin"`
	AngMax float64 `yaml:"angmax" json:"angmax"`
}

// GenCostRecord is one row of the gencost table. For the polynomial model
// Coeffs holds c(n-1) ... c0, highest degree first.
type GenCostRecord struct {
	Model    int       `yaml:"costtype" json:"costtype"`
	Startup  float64   `yaml:"startup" json:"startup"`
	Shutdown float64   `yaml:"shutdown" json:"shutdown"`
	N        int       `yaml:"n" json:"n"`
	Coeffs   []float64 `yaml:"costvector" json:"costvector"`
}

// Bus is a validated, per-unit bus record.
type Bus struct {
	NodeID int
	Count  int
	Type   BusType

	Pd, Qd float64
	Gs, Bs float64

	Area   int
	Vm     float64
	Va     float64 // degrees, as given
	BaseKV float64
	Zone   int

	Vmax, Vmin float64

	// InputVoltage marks a bus whose magnitude and angle were supplied
	// externally; InputA is in radians.
	InputVoltage   bool
	InputV, InputA float64

	// GenCounts lists incident generators in ascending Count order.
	GenCounts []int
	// FromBranches and ToBranches list incident branch indices in
	// ascending order, keyed by which end of the branch this bus is.
	FromBranches []int
	ToBranches   []int
}

// Admittance is the branch admittance quadruple, split into conductance
// and susceptance parts.
type Admittance struct {
	Gff, Bff float64
	Gft, Bft float64
	Gtf, Btf float64
	Gtt, Btt float64
}

// Branch is a validated, per-unit branch record.
type Branch struct {
	Index  int // 1-based sequence in the case table
	From   int // bus NodeID
	To     int // bus NodeID
	R, X   float64
	Bc     float64
	RateA  float64
	RateB  float64
	RateC  float64
	Ratio  float64 // 0 in the case table is stored as 1
	Angle  float64 // phase shift, degrees
	Status bool

	AngMin, AngMax float64 // degrees, as given

	// Radian views of Angle/AngMin/AngMax. MinAngleRad and MaxAngleRad may be
	// narrowed by ClampPhaseDiff.
	AngleRad    float64
	MinAngleRad float64
	MaxAngleRad float64

	// Limit is RateA in per unit. ConstrainedFlow is false when RateA is 0,
	// in which case formulations substitute a generous system-wide bound.
	Limit           float64
	ConstrainedFlow bool

	Y Admittance
}

// Generator is a validated, per-unit generator record with its scaled
// polynomial cost.
type Generator struct {
	Count  int // 1-based sequence in the gen table
	Bus    int // bus NodeID
	Pg, Qg float64

	Pmax, Pmin float64
	Qmax, Qmin float64
	Vg         float64
	MBase      float64
	Status     bool

	// Carried opaquely.
	Pc1, Pc2       float64
	Qc1min, Qc1max float64
	Qc2min, Qc2max float64
	RampAGC        float64
	Ramp10, Ramp30 float64
	RampQ, APF     float64

	CostType          int
	Startup, Shutdown float64
	CostDegree        int

	// Cost holds coefficients c(d) ... c0 scaled to per-unit power, so that
	// Cost[j] is the coefficient of Pg^(CostDegree-j).
	Cost []float64
}

// VoltageInput is an externally supplied bus voltage (magnitude in per
// unit, angle in radians).
type VoltageInput struct {
	Vm float64
	Va float64
}

// Bounds is an interval pair for real and reactive injection.
type Bounds struct {
	Pmin, Pmax float64
	Qmin, Qmax float64
}
