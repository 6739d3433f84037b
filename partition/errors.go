package partition

import (
	"fmt"

	"github.com/actorflow/partc/milp"
)

// AssignmentError reports an ambiguous or invalid partition attribute.
type AssignmentError struct {
	Instance string
	Reason   string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("instance %q: invalid partition attribute: %s", e.Instance, e.Reason)
}

// SolverError reports that the optimal assignment could not be computed.
// No assignment is produced alongside it.
type SolverError struct {
	Status milp.Status
	Err    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("partition solver failed (status %s): %v", e.Status, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }
