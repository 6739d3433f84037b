package partition

import (
	"fmt"

	"github.com/actorflow/partc/ir"
	"github.com/actorflow/partc/milp"
)

// Strategy names an assigner.
type Strategy string

const (
	StrategyAttribute Strategy = "attribute"
	StrategyProfile   Strategy = "profile"
)

// ValidStrategies is the set of recognized strategy names.
var ValidStrategies = map[Strategy]bool{StrategyAttribute: true, StrategyProfile: true}

// Assignment is the result of an assigner.
//
// The profile strategy fills Index, Ticks and Makespan with numbered
// partitions; Kinds is filled by ResolveKinds. The attribute strategy fills
// Kinds directly and leaves the numbered fields empty.
type Assignment struct {
	Strategy      Strategy
	Order         []string       // instance names in network order
	NumPartitions int            // numbered partitions; 0 for the attribute strategy
	Index         map[string]int // instance -> numbered partition
	Ticks         []int64        // summed cost per numbered partition
	Makespan      int64          // max over Ticks
	Status        milp.Status    // solver status; StatusNotSolved for the attribute strategy

	Kinds          map[string]Kind
	PartitionKinds []Kind // kind per numbered partition, set by ResolveKinds
}

// ResolveKinds maps numbered partitions onto kinds using p.IndexKinds.
// Assignments that already carry kinds are left unchanged.
func (a *Assignment) ResolveKinds(p Policy) error {
	if a.Kinds != nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}
	a.PartitionKinds = make([]Kind, a.NumPartitions)
	for i := range a.PartitionKinds {
		a.PartitionKinds[i] = p.KindOf(i)
	}
	a.Kinds = make(map[string]Kind, len(a.Index))
	for name, idx := range a.Index {
		a.Kinds[name] = p.KindOf(idx)
	}
	return nil
}

// Members returns the instances assigned to numbered partition p, in network order.
func (a *Assignment) Members(p int) []string {
	var out []string
	for _, name := range a.Order {
		if idx, ok := a.Index[name]; ok && idx == p {
			out = append(out, name)
		}
	}
	return out
}

// MembersOf returns the instances of kind k, in network order.
func (a *Assignment) MembersOf(k Kind) []string {
	var out []string
	for _, name := range a.Order {
		if a.Kinds[name] == k {
			out = append(out, name)
		}
	}
	return out
}

// Group returns the kind name of an instance, or "" when unassigned.
// It has the shape ir.Network.CrossingConnections expects.
func (a *Assignment) Group(instance string) string {
	k, ok := a.Kinds[instance]
	if !ok {
		return ""
	}
	return k.String()
}

// Build materializes one deep-copied sub-network per kind present in the
// assignment. Kinds with no instance are absent from the map.
func Build(net *ir.Network, a *Assignment) (Map, error) {
	if a.Kinds == nil {
		return nil, fmt.Errorf("build partitions: assignment has no resolved kinds")
	}
	groups := make(map[Kind][]string)
	for _, inst := range net.Instances() {
		k, ok := a.Kinds[inst.Name]
		if !ok {
			return nil, fmt.Errorf("build partitions: instance %q is not assigned", inst.Name)
		}
		if !k.Storable() {
			return nil, fmt.Errorf("build partitions: instance %q: kind %s cannot be stored", inst.Name, k)
		}
		groups[k] = append(groups[k], inst.Name)
	}
	m := make(Map, len(groups))
	for k, names := range groups {
		sub, err := net.Subnetwork(names)
		if err != nil {
			return nil, fmt.Errorf("build partitions: %s: %w", k, err)
		}
		m[k] = sub
	}
	return m, nil
}

// Annotate attaches a partition attribute with the assigned kind to every
// instance of net that has none, and returns how many were annotated.
func Annotate(net *ir.Network, a *Assignment) int {
	count := 0
	for _, inst := range net.Instances() {
		if len(inst.AttributesByKey(PartitionKey)) > 0 {
			continue
		}
		k, ok := a.Kinds[inst.Name]
		if !ok || !k.Storable() {
			continue
		}
		inst.Annotate(ir.StringAttribute(PartitionKey, k.String()))
		count++
	}
	return count
}
