package partition

import (
	"fmt"

	"github.com/actorflow/partc/ir"
)

// PartitionKey is the tool attribute naming an instance's partition.
const PartitionKey = "partition"

// Classify reads the partition attribute of inst.
//
//	no attribute                       -> Any
//	one string literal "hw" or "sw"    -> HW or SW
//	anything else                      -> Invalid
func Classify(inst *ir.Instance) Kind {
	k, _ := classify(inst)
	return k
}

// classify is Classify plus the reason an instance is Invalid.
func classify(inst *ir.Instance) (Kind, *AssignmentError) {
	attrs := inst.AttributesByKey(PartitionKey)
	switch len(attrs) {
	case 0:
		return Any, nil
	case 1:
	default:
		return Invalid, &AssignmentError{Instance: inst.Name, Reason: fmt.Sprintf("%d partition attributes, expected at most one", len(attrs))}
	}
	v := attrs[0].Value
	switch {
	case v == nil:
		return Invalid, &AssignmentError{Instance: inst.Name, Reason: "attribute has no value"}
	case v.Kind != ir.ValueString:
		return Invalid, &AssignmentError{Instance: inst.Name, Reason: fmt.Sprintf("expected a string literal, got %s value %s", v.Kind, v)}
	case v.Text == "hw":
		return HW, nil
	case v.Text == "sw":
		return SW, nil
	default:
		return Invalid, &AssignmentError{Instance: inst.Name, Reason: fmt.Sprintf("unrecognized partition %s", v)}
	}
}
