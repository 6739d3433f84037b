package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/actorflow/partc/partition"
)

// ErrNotPartitioned is returned when a task's partition map was never populated.
var ErrNotPartitioned = errors.New("network is not partitioned")

// CompletenessError reports that the stored partitions do not cover exactly
// the instances of the original network.
type CompletenessError struct {
	Missing []string // in the network, in no partition
	Extra   []string // in a partition, not in the network
}

func (e *CompletenessError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "unassigned instances: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unknown instances: "+strings.Join(e.Extra, ", "))
	}
	return "incomplete partitioning: " + strings.Join(parts, "; ")
}

// ExtractionError reports a requested partition kind with no sub-network.
type ExtractionError struct {
	Kind partition.Kind
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no %s partition in the network", e.Kind)
}
