// Package bfs provides breadth-first search over the bus/branch topology
// of a network.Network, returning the BFS tree as direction-tagged steps.
package bfs

import (
	"context"
	"fmt"

	"github.com/katalvlaran/gridopf/network"
)

// walker encapsulates mutable BFS state.
type walker struct {
	net     *network.Network
	opts    Options
	ctx     context.Context
	queue   []Step
	visited map[int]bool
	res     *Result
}

// Walk runs breadth-first search on net starting from the bus with the
// given count. Neighbors are expanded from FromBranches (Forward) before
// ToBranches (Reverse), each in ascending branch index, so the traversal is
// deterministic.
// Returns ErrNetworkNil or ErrStartBusNotFound for invalid input,
// ErrOptionViolation for bad options, or any OnVisit error.
func Walk(net *network.Network, start int, opts ...Option) (*Result, error) {
	if net == nil {
		return nil, ErrNetworkNil
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if _, ok := net.BusByCount(start); !ok {
		return nil, ErrStartBusNotFound
	}

	n := net.NumBuses()
	w := &walker{
		net:     net,
		opts:    o,
		ctx:     o.Ctx,
		queue:   make([]Step, 0, n),
		visited: make(map[int]bool, n),
		res: &Result{
			Order: make([]int, 0, n),
			Steps: make(map[int]Step, n),
		},
	}

	w.enqueue(Step{Known: start, Unknown: start})
	return w.res, w.loop()
}

// enqueue marks the step's unknown bus visited and adds it to the queue.
func (w *walker) enqueue(s Step) {
	w.visited[s.Unknown] = true
	w.res.Steps[s.Unknown] = s
	w.queue = append(w.queue, s)
}

// loop processes the queue until empty, error, or cancellation.
func (w *walker) loop() error {
	for len(w.queue) > 0 {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		s := w.dequeue()
		if err := w.visit(s); err != nil {
			return err
		}
		w.enqueueNeighbors(s)
	}
	return nil
}

func (w *walker) dequeue() Step {
	s := w.queue[0]
	w.queue = w.queue[1:]
	return s
}

// visit records the bus in Order and calls OnVisit.
func (w *walker) visit(s Step) error {
	w.res.Order = append(w.res.Order, s.Unknown)
	if err := w.opts.OnVisit(s); err != nil {
		return fmt.Errorf("bfs: OnVisit error at bus count %d: %w", s.Unknown, err)
	}
	return nil
}

// enqueueNeighbors pushes every unseen far end of the current bus's
// incident branches.
func (w *walker) enqueueNeighbors(s Step) {
	nextDepth := s.Depth + 1
	bus, _ := w.net.BusByCount(s.Unknown)
	w.expand(s.Unknown, bus.FromBranches, Forward, nextDepth)
	w.expand(s.Unknown, bus.ToBranches, Reverse, nextDepth)
}

func (w *walker) expand(known int, branches []int, dir Direction, depth int) {
	for _, idx := range branches {
		br := w.net.Branch(idx)
		if !w.opts.FilterBranch(br) {
			continue
		}
		farID := br.To
		if dir == Reverse {
			farID = br.From
		}
		far, _ := w.net.CountOf(farID)
		if w.visited[far] {
			continue
		}
		w.enqueue(Step{Known: known, Unknown: far, Branch: idx, Direction: dir, Depth: depth})
	}
}
