// Package partition resolves where each instance of a network executes,
// either from explicit "partition" tool attributes or from a makespan-optimal
// integer program over profiled costs, and materializes the per-kind
// sub-networks.
package partition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/actorflow/partc/ir"
)

// Kind classifies where an instance executes. Any and Invalid are transient
// classification results; only HW and SW key a Map.
type Kind int

const (
	Invalid Kind = iota
	Any
	HW
	SW
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Any:
		return "any"
	case HW:
		return "hw"
	case SW:
		return "sw"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Storable reports whether k may key a partition map.
func (k Kind) Storable() bool { return k == HW || k == SW }

// StorableKinds lists the kinds a Map may hold, in extraction order.
var StorableKinds = []Kind{HW, SW}

// validKindNames maps configuration spellings to storable kinds.
var validKindNames = map[string]Kind{"hw": HW, "sw": SW}

// ParseKind parses "hw" or "sw", case-insensitively.
func ParseKind(s string) (Kind, error) {
	k, ok := validKindNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Invalid, fmt.Errorf("unknown partition kind %q (want hw or sw)", s)
	}
	return k, nil
}

// Map holds one sub-network per partition kind.
type Map map[Kind]*ir.Network

// Validate checks that every key is storable and every value non-nil.
func (m Map) Validate() error {
	for k, n := range m {
		if !k.Storable() {
			return fmt.Errorf("partition map: kind %s cannot be stored", k)
		}
		if n == nil {
			return fmt.Errorf("partition map: nil network for kind %s", k)
		}
	}
	return nil
}

// Kinds returns the stored kinds, HW before SW.
func (m Map) Kinds() []Kind {
	kinds := make([]Kind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NameUnion returns the union of instance names across all stored networks.
func (m Map) NameUnion() map[string]struct{} {
	names := make(map[string]struct{})
	for _, n := range m {
		for _, inst := range n.Instances() {
			names[inst.Name] = struct{}{}
		}
	}
	return names
}
