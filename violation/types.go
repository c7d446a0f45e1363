package violation

import (
	"errors"
	"fmt"
)

// Sentinel errors for violation.
var (
	// ErrNilNetwork is returned when Evaluate receives no network.
	ErrNilNetwork = errors.New("violation: network is nil")

	// ErrUnknownRepresentation is returned for a representation other
	// than Polar or Rectangular.
	ErrUnknownRepresentation = errors.New("violation: unknown voltage representation")
)

// Representation tells how a Voltage is given.
type Representation int

const (
	// Polar voltages are (magnitude, angle in radians).
	Polar Representation = iota
	// Rectangular voltages are (real, imaginary).
	Rectangular
)

func (r Representation) String() string {
	switch r {
	case Polar:
		return "polar"
	case Rectangular:
		return "rectangular"
	}
	return fmt.Sprintf("Representation(%d)", int(r))
}

// Voltage is one bus voltage in the chosen representation.
type Voltage struct {
	A, B float64
}

// BusViolation reports one bus. P and Q are the injections the voltages
// require (branch flows + demand + shunt), in MW and MVAr.
type BusViolation struct {
	ID     int     `yaml:"bus_i" json:"bus_i"`
	Vm     float64 `yaml:"Vm" json:"Vm"`
	Va     float64 `yaml:"Va" json:"Va"`
	P      float64 `yaml:"P" json:"P"`
	Q      float64 `yaml:"Q" json:"Q"`
	Vmviol float64 `yaml:"Vmviol" json:"Vmviol"`
	Pviol  float64 `yaml:"Pviol" json:"Pviol"`
	Qviol  float64 `yaml:"Qviol" json:"Qviol"`
}

// BranchViolation reports one branch; flows in MW/MVAr.
type BranchViolation struct {
	Index     int     `yaml:"index" json:"index"`
	From      int     `yaml:"fbus" json:"fbus"`
	To        int     `yaml:"tbus" json:"tbus"`
	Pf        float64 `yaml:"Pf" json:"Pf"`
	Pt        float64 `yaml:"Pt" json:"Pt"`
	Qf        float64 `yaml:"Qf" json:"Qf"`
	Qt        float64 `yaml:"Qt" json:"Qt"`
	Limitviol float64 `yaml:"limitviol" json:"limitviol"`
}

// Report is the result of Evaluate, in network order.
type Report struct {
	Buses    []BusViolation    `yaml:"bus" json:"bus"`
	Branches []BranchViolation `yaml:"branch" json:"branch"`
}
