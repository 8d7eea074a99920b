package planner

import (
	"github.com/dashmesh/dashctl/core/graph"
	"github.com/dashmesh/dashctl/core/node"
	"github.com/dashmesh/dashctl/core/stream"
)

// AssignLocations propagates the Location of a ReadNode's file input,
// and the Location a WriteNode already carries (set by the frontend from
// the resolved file path), onto every CommandNode reachable from it over
// a Pipe edge, so SplitByMachine has a Location to partition on for
// every node in the graph. ReadNode and WriteNode Locations are never
// changed by propagation.
//
// Resolution is first-file-wins: a CommandNode with no Location yet
// takes whichever Location reaches it first; a Client default never
// overrides a Server Location already assigned, since Client only ever
// arises as the zero value, not as an explicit file constraint. When a
// command's inputs straddle two distinct Server hosts, Tie-break keeps
// the host of its first input in graph order; the edge carrying the
// later, losing offer becomes a cross-host TCP edge once SplitByMachine
// sees its endpoints disagree. AssignLocations itself never fails;
// PlanError{LocationConflict} is reserved for split-time failures.
func AssignLocations(p *graph.Program) error {
	assigned := make(map[stream.NodeId]stream.Location)
	fixed := make(map[stream.NodeId]bool)

	for _, id := range p.NodeIDs() {
		switch typed := p.Node(id).(type) {
		case *node.ReadNode:
			assigned[id] = typed.Input.File.Location
			fixed[id] = true
		case *node.WriteNode:
			assigned[id] = typed.Location()
			fixed[id] = true
		}
	}

	changed := true
	for changed {
		changed = false
		for _, e := range p.Edges() {
			if e.Stream.IsNet() {
				continue
			}
			if loc, ok := assigned[e.Left]; ok && !fixed[e.Right] {
				if offer(assigned, e.Right, loc) {
					changed = true
				}
			}
			if loc, ok := assigned[e.Right]; ok && !fixed[e.Left] {
				if offer(assigned, e.Left, loc) {
					changed = true
				}
			}
		}
	}

	for _, id := range p.NodeIDs() {
		n := p.Node(id)
		if loc, ok := assigned[id]; ok {
			n.SetLocation(loc)
		} else {
			n.SetLocation(stream.Client())
		}
	}
	return nil
}

// offer records that loc was proposed for id, resolving against any
// previous assignment per the first-file-wins rule above. It reports
// whether the assignment actually changed, so the fixpoint loop knows
// whether to keep iterating.
func offer(assigned map[stream.NodeId]stream.Location, id stream.NodeId, loc stream.Location) bool {
	existing, ok := assigned[id]
	if !ok {
		assigned[id] = loc
		return true
	}
	if existing == loc {
		return false
	}
	if existing.IsClient() && loc.IsServer() {
		assigned[id] = loc
		return true
	}
	// existing.IsServer() && loc.IsClient(), or both are distinct Server
	// locations (the straddle case): existing wins either way.
	return false
}

// Split assigns Locations to every CommandNode (see AssignLocations)
// and then partitions the Program by machine.
func Split(p *graph.Program) (map[stream.Location]*graph.Program, error) {
	if err := AssignLocations(p); err != nil {
		return nil, err
	}
	return p.SplitByMachine()
}
