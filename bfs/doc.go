// Package bfs provides a breadth-first search over the bus/branch topology
// of a network.Network, returning the BFS tree as direction-tagged steps.
//
// What
//
//   - Explore buses in non-decreasing hop count from a start bus.
//   - Every visited bus is reported once, together with the Step that
//     reached it: the already-known bus, the branch crossed and the
//     Direction of traversal (Forward when the known bus is the branch's
//     from end, Reverse when it is the to end).
//   - WithFilterBranch prunes branches (InService drops out-of-service ones).
//   - WithContext bounds the walk by a context.
//
// Why
//
//   - Reconstruct bus voltage angles from pairwise voltage products: each
//     Step carries exactly what is needed to propagate an angle across one
//     branch with the right sign.
//   - Detect islands: Result.Unreached lists buses the walk never touched.
//
// Determinism
//
//	Neighbors of a bus are expanded from its FromBranches first, then its
//	ToBranches, each in ascending branch index, so the visit order and the
//	chosen tree are fully reproducible.
//
// Complexity (B = buses, L = branches)
//
//   - Time:   O(B + L)
//   - Memory: O(B)
//
// Usage
//
//	res, err := bfs.Walk(net, net.Ref().Count,
//	    bfs.WithFilterBranch(bfs.InService),
//	    bfs.WithOnVisit(func(s bfs.Step) error { /* ... */ return nil }),
//	)
//	if missing := res.Unreached(net.NumBuses()); len(missing) > 0 {
//	    // network is not connected
//	}
//
// Errors
//
//   - ErrNetworkNil        if the network pointer is nil.
//   - ErrStartBusNotFound  if the start count does not exist.
//   - ErrOptionViolation   if invalid Option (e.g. nil context).
//   - Wrapped user-supplied hook errors from OnVisit.
package bfs
