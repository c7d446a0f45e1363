package casefile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/gridopf/network"
)

// ReadVolts loads a voltage file from path.
func ReadVolts(path string) (map[int]network.VoltageInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("casefile: %w", err)
	}
	defer f.Close()

	return DecodeVolts(f, path)
}

// DecodeVolts parses voltage lines of the form
//
//	bus <id> M <magnitude> A <angle in degrees>
//
// up to an END line or the end of input. Blank lines are skipped; any
// other line is a *ParseError. Angles are returned in radians. A bus listed
// twice keeps its last value.
func DecodeVolts(r io.Reader, source string) (map[int]network.VoltageInput, error) {
	out := make(map[int]network.VoltageInput)
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "END" {
			break
		}
		bad := func(reason string) error {
			return &ParseError{Source: source, Line: lineNum, Reason: reason}
		}
		if fields[0] != "bus" || len(fields) < 6 || fields[2] != "M" || fields[4] != "A" {
			return nil, bad("want \"bus <id> M <vm> A <deg>\"")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, bad("bus id: " + err.Error())
		}
		vm, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, bad("magnitude: " + err.Error())
		}
		deg, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, bad("angle: " + err.Error())
		}
		out[id] = network.VoltageInput{Vm: vm, Va: deg * math.Pi / 180}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("casefile: %s: %w", source, err)
	}

	return out, nil
}

// EncodeVolts writes v in the form DecodeVolts reads, buses in the order
// of ids, angles in degrees.
func EncodeVolts(w io.Writer, ids []int, v map[int]network.VoltageInput) error {
	bw := bufio.NewWriter(w)
	for _, id := range ids {
		in, ok := v[id]
		if !ok {
			continue
		}
		fmt.Fprintf(bw, "bus %d M %s A %s\n", id,
			strconv.FormatFloat(in.Vm, 'g', -1, 64),
			strconv.FormatFloat(in.Va*180/math.Pi, 'g', -1, 64))
	}
	fmt.Fprintln(bw, "END")

	return bw.Flush()
}
