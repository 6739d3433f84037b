package ir

import "fmt"

// Clone returns a structural deep copy of the network. No instance,
// connection, attribute or parameter slice is shared with the receiver.
func (n *Network) Clone() *Network {
	instances := make([]*Instance, len(n.instances))
	index := make(map[string]int, len(n.instances))
	for i, inst := range n.instances {
		instances[i] = inst.Clone()
		index[inst.Name] = i
	}
	connections := make([]*Connection, len(n.connections))
	for i, c := range n.connections {
		connections[i] = c.Clone()
	}
	return &Network{
		inputs:      clonePorts(n.inputs),
		outputs:     clonePorts(n.outputs),
		instances:   instances,
		connections: connections,
		index:       index,
	}
}

func clonePorts(ps []PortDecl) []PortDecl {
	if ps == nil {
		return nil
	}
	out := make([]PortDecl, len(ps))
	copy(out, ps)
	return out
}

// Subnetwork returns a deep-copied network holding the named instances (in
// the receiver's order), every connection whose instance ends all belong to
// the set, and the boundary ports those connections reference.
// Names missing from the receiver are an error.
func (n *Network) Subnetwork(names []string) (*Network, error) {
	keep := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := n.index[name]; !ok {
			return nil, fmt.Errorf("subnetwork: unknown instance %q", name)
		}
		keep[name] = struct{}{}
	}
	inSet := func(e End) bool {
		if e.IsBoundary() {
			return true
		}
		_, ok := keep[e.Instance]
		return ok
	}

	var instances []*Instance
	for _, inst := range n.instances {
		if _, ok := keep[inst.Name]; ok {
			instances = append(instances, inst.Clone())
		}
	}
	usedInputs := make(map[string]bool)
	usedOutputs := make(map[string]bool)
	var connections []*Connection
	for _, c := range n.connections {
		if !inSet(c.Source) || !inSet(c.Target) {
			continue
		}
		// A pure boundary pass-through belongs to no partition.
		if c.Source.IsBoundary() && c.Target.IsBoundary() {
			continue
		}
		if c.Source.IsBoundary() {
			usedInputs[c.Source.Port] = true
		}
		if c.Target.IsBoundary() {
			usedOutputs[c.Target.Port] = true
		}
		connections = append(connections, c.Clone())
	}
	var inputs, outputs []PortDecl
	for _, p := range n.inputs {
		if usedInputs[p.Name] {
			inputs = append(inputs, p)
		}
	}
	for _, p := range n.outputs {
		if usedOutputs[p.Name] {
			outputs = append(outputs, p)
		}
	}
	return NewNetwork(inputs, outputs, instances, connections)
}

// Extend returns a deep copy of the network with the given instances and
// connections appended. The extra values are copied as well.
func (n *Network) Extend(instances []*Instance, connections []*Connection) (*Network, error) {
	c := n.Clone()
	allInstances := c.instances
	for _, inst := range instances {
		allInstances = append(allInstances, inst.Clone())
	}
	allConnections := c.connections
	for _, conn := range connections {
		allConnections = append(allConnections, conn.Clone())
	}
	return NewNetwork(c.inputs, c.outputs, allInstances, allConnections)
}
