// Package profile loads execution profiles captured from a reference run and
// joins them against a network into a CostModel: execution ticks per instance
// and bandwidth per connection.
package profile

import (
	"fmt"
	"sort"

	"github.com/actorflow/partc/ir"
)

// ConnectionKey identifies a connection between two instance ports.
type ConnectionKey struct {
	Source     string
	SourcePort string
	Target     string
	TargetPort string
}

// KeyOf returns the key of an instance-to-instance connection.
func KeyOf(c *ir.Connection) ConnectionKey {
	return ConnectionKey{
		Source:     c.Source.Instance,
		SourcePort: c.Source.Port,
		Target:     c.Target.Instance,
		TargetPort: c.Target.Port,
	}
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", k.Source, k.SourcePort, k.Target, k.TargetPort)
}

// CostModel maps instances to execution ticks and connections to bandwidth.
// All values are non-negative. A CostModel is a plain value: solvers receive
// a Clone and never a handle into live compiler state.
type CostModel struct {
	instances   map[string]int64
	connections map[ConnectionKey]int64
}

// NewCostModel creates an empty cost model.
func NewCostModel() *CostModel {
	return &CostModel{
		instances:   make(map[string]int64),
		connections: make(map[ConnectionKey]int64),
	}
}

// FromTicks creates a cost model holding the given instance costs.
// Panics on a negative cost.
func FromTicks(ticks map[string]int64) *CostModel {
	m := NewCostModel()
	for name, t := range ticks {
		if t < 0 {
			panic(fmt.Sprintf("profile.FromTicks: negative cost %d for %q", t, name))
		}
		m.instances[name] = t
	}
	return m
}

// InstanceCost returns the recorded ticks of an instance.
func (m *CostModel) InstanceCost(name string) (int64, bool) {
	t, ok := m.instances[name]
	return t, ok
}

// Bandwidth returns the recorded bandwidth of a connection.
func (m *CostModel) Bandwidth(k ConnectionKey) (int64, bool) {
	b, ok := m.connections[k]
	return b, ok
}

// TotalCost returns the sum of all instance costs.
func (m *CostModel) TotalCost() int64 {
	var total int64
	for _, t := range m.instances {
		total += t
	}
	return total
}

// InstanceNames returns the names with a recorded cost, sorted.
func (m *CostModel) InstanceNames() []string {
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConnectionKeys returns the connections with a recorded bandwidth, sorted.
func (m *CostModel) ConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(m.connections))
	for k := range m.connections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Clone returns an independent copy.
func (m *CostModel) Clone() *CostModel {
	c := NewCostModel()
	for k, v := range m.instances {
		c.instances[k] = v
	}
	for k, v := range m.connections {
		c.connections[k] = v
	}
	return c
}
