// Package bfs provides tunable options and error definitions
// for breadth-first search over a network.Network.
package bfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/gridopf/network"
)

// Sentinel errors for BFS execution.
var (
	// ErrStartBusNotFound is returned when the start count is absent.
	ErrStartBusNotFound = errors.New("bfs: start bus not found")

	// ErrNetworkNil is returned if a nil network pointer is passed.
	ErrNetworkNil = errors.New("bfs: network is nil")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("bfs: invalid option supplied")
)

// Direction records which way a branch was traversed.
type Direction int

const (
	// Forward means the known bus is the branch's from end.
	Forward Direction = iota
	// Reverse means the known bus is the branch's to end.
	Reverse
)

func (d Direction) String() string {
	if d == Forward {
		return "FORWARD"
	}
	return "REVERSE"
}

// Step is one edge of the BFS tree: Unknown was first reached from Known
// across Branch. The root step has Branch == 0.
type Step struct {
	Known     int // bus count
	Unknown   int // bus count
	Branch    int // branch index
	Direction Direction
	Depth     int
}

// Option configures BFS behavior via functional arguments.
// If an Option is invalid (e.g. a nil context), it will be recorded
// internally and surfaced as ErrOptionViolation when Walk is invoked.
type Option func(*Options)

// Options holds parameters and callbacks to customize BFS execution.
type Options struct {
	// Ctx allows cancellation and deadlines.
	Ctx context.Context

	// OnVisit is called for every bus in visit order, with the step that
	// reached it. If it returns an error, the walk aborts.
	OnVisit func(s Step) error

	// FilterBranch can skip branches by returning false.
	FilterBranch func(br *network.Branch) bool

	err error
}

// DefaultOptions returns Options with a background context, every branch
// allowed and a no-op OnVisit.
func DefaultOptions() Options {
	return Options{
		Ctx:          context.Background(),
		OnVisit:      func(Step) error { return nil },
		FilterBranch: func(*network.Branch) bool { return true },
	}
}

// WithContext sets a custom context for cancellation.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx == nil {
			o.err = fmt.Errorf("%w: nil context", ErrOptionViolation)
			return
		}
		o.Ctx = ctx
	}
}

// WithOnVisit registers a callback to run on visit; returning an error
// from this callback stops the walk.
func WithOnVisit(fn func(s Step) error) Option {
	return func(o *Options) {
		if fn != nil {
			o.OnVisit = fn
		}
	}
}

// WithFilterBranch skips branches when fn returns false.
func WithFilterBranch(fn func(br *network.Branch) bool) Option {
	return func(o *Options) {
		if fn != nil {
			o.FilterBranch = fn
		}
	}
}

// InService keeps only branches in service.
func InService(br *network.Branch) bool { return br.Status }

// Result holds the outcome of a walk:
//   - Order: bus counts in visit sequence.
//   - Steps: map from bus count to the tree step that reached it.
type Result struct {
	Order []int
	Steps map[int]Step
}

// Reached reports whether the bus with the given count was visited.
func (r *Result) Reached(count int) bool {
	_, ok := r.Steps[count]
	return ok
}

// Unreached returns the counts in 1..n that the walk never visited,
// ascending.
func (r *Result) Unreached(n int) []int {
	var out []int
	for c := 1; c <= n; c++ {
		if !r.Reached(c) {
			out = append(out, c)
		}
	}

	return out
}
