// Package planner assigns a CommandNode's Location by propagating the
// resolved Locations of its adjacent Read/Write file nodes, then splits
// the Program by machine for the RPC layer to dispatch.
package planner

import "fmt"

type PlanErrorKind uint8

const (
	LocationConflict PlanErrorKind = iota
	UnknownMount
	InvalidRedirection
)

func (k PlanErrorKind) String() string {
	switch k {
	case LocationConflict:
		return "location_conflict"
	case UnknownMount:
		return "unknown_mount"
	case InvalidRedirection:
		return "invalid_redirection"
	default:
		return "unknown"
	}
}

// PlanError reports a Program that parsed successfully but cannot be
// placed onto machines or split by the RPC layer: an unresolvable mount,
// a redirection whose stream kind placement can't resolve, or a location
// assignment the Tie-break rule cannot reconcile.
type PlanError struct {
	Kind   PlanErrorKind
	Detail string
	Cause  error
}

func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plan error (%s): %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("plan error (%s): %s", e.Kind, e.Detail)
}

func (e *PlanError) Unwrap() error { return e.Cause }
