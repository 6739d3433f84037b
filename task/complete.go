package task

import (
	"slices"
	"sort"

	"github.com/actorflow/partc/boundary"
	"github.com/actorflow/partc/ir"
	"github.com/actorflow/partc/partition"
)

// HasAllInstances reports whether the union of instance names across m equals
// the instance names of net. Order is ignored. Boundary proxies that net does
// not declare are not counted.
func HasAllInstances(net *ir.Network, m partition.Map) bool {
	return CheckComplete(net, m) == nil
}

// CheckComplete is HasAllInstances returning a *CompletenessError that lists
// the differing names, sorted.
func CheckComplete(net *ir.Network, m partition.Map) error {
	want := net.NameSet()
	got := m.NameUnion()
	var missing, extra []string
	for name := range want {
		if _, ok := got[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, n := range m {
		for _, inst := range n.Instances() {
			if _, ok := want[inst.Name]; !ok && !boundary.IsProxy(inst) {
				extra = append(extra, inst.Name)
			}
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	extra = slices.Compact(extra)
	return &CompletenessError{Missing: missing, Extra: extra}
}
