package violation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/gridopf/network"
	"github.com/katalvlaran/gridopf/violation"
)

// RepresentationSuite checks that a voltage point gives the same report
// whether it is supplied in polar or rectangular form.
type RepresentationSuite struct {
	suite.Suite
	net *network.Network
}

func (s *RepresentationSuite) SetupTest() {
	s.net = pair(s.T(), 80)
}

// same evaluates (vm, va) per bus in both forms and compares the reports.
func (s *RepresentationSuite) same(vm, va [2]float64) {
	polar := map[int]violation.Voltage{}
	rect := map[int]violation.Voltage{}
	for i, id := range []int{1, 2} {
		polar[id] = violation.Voltage{A: vm[i], B: va[i]}
		rect[id] = violation.Voltage{A: vm[i] * math.Cos(va[i]), B: vm[i] * math.Sin(va[i])}
	}
	a, err := violation.Evaluate(s.net, polar, violation.Polar)
	require.NoError(s.T(), err)
	b, err := violation.Evaluate(s.net, rect, violation.Rectangular)
	require.NoError(s.T(), err)

	for i := range a.Buses {
		require.InDelta(s.T(), a.Buses[i].Vm, b.Buses[i].Vm, 1e-12)
		require.InDelta(s.T(), a.Buses[i].Vmviol, b.Buses[i].Vmviol, 1e-12)
		require.InDelta(s.T(), a.Buses[i].Pviol, b.Buses[i].Pviol, 1e-9)
		require.InDelta(s.T(), a.Buses[i].Qviol, b.Buses[i].Qviol, 1e-9)
	}
	require.InDelta(s.T(), a.Branches[0].Pf, b.Branches[0].Pf, 1e-9)
	require.InDelta(s.T(), a.Branches[0].Limitviol, b.Branches[0].Limitviol, 1e-9)
}

// TestFlat compares a flat start.
func (s *RepresentationSuite) TestFlat() {
	s.same([2]float64{1, 1}, [2]float64{0, 0})
}

// TestLoaded compares a point that overloads the 80 MVA line.
func (s *RepresentationSuite) TestLoaded() {
	s.same([2]float64{1.02, 0.97}, [2]float64{0, -0.12})
}

// TestOutsideBand compares a point with both magnitudes out of bounds.
func (s *RepresentationSuite) TestOutsideBand() {
	s.same([2]float64{1.15, 0.85}, [2]float64{0.2, -0.3})
}

func TestRepresentationSuite(t *testing.T) {
	suite.Run(t, new(RepresentationSuite))
}
