package ir

import (
	"fmt"
	"sort"
)

// Parameter is a named value or type argument of an instance, kept as source text.
type Parameter struct {
	Name  string
	Value string
}

// Instance is a placed actor in a network.
type Instance struct {
	Name            string // unique within the owning Network
	Entity          string // qualified name of the actor definition
	ValueParameters []Parameter
	TypeParameters  []Parameter
	Attributes      []ToolAttribute
}

// AttributesByKey returns the instance attributes with the given key, in declaration order.
func (i *Instance) AttributesByKey(key string) []ToolAttribute {
	return attributesByKey(i.Attributes, key)
}

// Annotate attaches attr to the instance.
func (i *Instance) Annotate(attr ToolAttribute) {
	i.Attributes = append(i.Attributes, attr)
}

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	return &Instance{
		Name:            i.Name,
		Entity:          i.Entity,
		ValueParameters: cloneParameters(i.ValueParameters),
		TypeParameters:  cloneParameters(i.TypeParameters),
		Attributes:      cloneAttributes(i.Attributes),
	}
}

func cloneParameters(ps []Parameter) []Parameter {
	if ps == nil {
		return nil
	}
	out := make([]Parameter, len(ps))
	copy(out, ps)
	return out
}

// End is one side of a connection. An empty Instance denotes a port on the
// network boundary.
type End struct {
	Instance string
	Port     string
}

// IsBoundary reports whether the end refers to a network boundary port.
func (e End) IsBoundary() bool {
	return e.Instance == ""
}

func (e End) String() string {
	if e.IsBoundary() {
		return e.Port
	}
	return e.Instance + "." + e.Port
}

// Connection is a directed FIFO edge between two ends.
type Connection struct {
	Source     End
	Target     End
	Attributes []ToolAttribute
}

// AttributesByKey returns the connection attributes with the given key.
func (c *Connection) AttributesByKey(key string) []ToolAttribute {
	return attributesByKey(c.Attributes, key)
}

// Clone returns a deep copy of the connection.
func (c *Connection) Clone() *Connection {
	return &Connection{
		Source:     c.Source,
		Target:     c.Target,
		Attributes: cloneAttributes(c.Attributes),
	}
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s -> %s", c.Source, c.Target)
}

// PortDecl declares a port on the network boundary.
type PortDecl struct {
	Name string
	Type string
}

// Network is a dataflow graph: an ordered sequence of instances, the
// connections between them and the boundary port declarations.
type Network struct {
	inputs      []PortDecl
	outputs     []PortDecl
	instances   []*Instance
	connections []*Connection
	index       map[string]int // instance name -> position in instances
}

// NewNetwork builds a network and its name index. Instance names must be
// unique and non-empty, and connection ends must resolve to a declared
// instance or boundary port.
func NewNetwork(inputs, outputs []PortDecl, instances []*Instance, connections []*Connection) (*Network, error) {
	n := &Network{
		inputs:      inputs,
		outputs:     outputs,
		instances:   instances,
		connections: connections,
		index:       make(map[string]int, len(instances)),
	}
	for pos, inst := range instances {
		if inst == nil {
			return nil, fmt.Errorf("instance[%d] is nil", pos)
		}
		if inst.Name == "" {
			return nil, fmt.Errorf("instance[%d] has no name", pos)
		}
		if _, dup := n.index[inst.Name]; dup {
			return nil, fmt.Errorf("duplicate instance name %q", inst.Name)
		}
		n.index[inst.Name] = pos
	}
	for _, c := range connections {
		if c == nil {
			return nil, fmt.Errorf("nil connection")
		}
		if err := n.checkEnd(c.Source, n.inputs); err != nil {
			return nil, fmt.Errorf("connection %s: source: %w", c, err)
		}
		if err := n.checkEnd(c.Target, n.outputs); err != nil {
			return nil, fmt.Errorf("connection %s: target: %w", c, err)
		}
	}
	return n, nil
}

// MustNetwork is NewNetwork that panics on error. Intended for tests and
// statically known networks.
func MustNetwork(inputs, outputs []PortDecl, instances []*Instance, connections []*Connection) *Network {
	n, err := NewNetwork(inputs, outputs, instances, connections)
	if err != nil {
		panic("ir.MustNetwork: " + err.Error())
	}
	return n
}

func (n *Network) checkEnd(e End, boundary []PortDecl) error {
	if e.Port == "" {
		return fmt.Errorf("empty port name")
	}
	if !e.IsBoundary() {
		if _, ok := n.index[e.Instance]; !ok {
			return fmt.Errorf("unknown instance %q", e.Instance)
		}
		return nil
	}
	for _, p := range boundary {
		if p.Name == e.Port {
			return nil
		}
	}
	return fmt.Errorf("unknown boundary port %q", e.Port)
}

// Instance looks up an instance by name.
func (n *Network) Instance(name string) (*Instance, bool) {
	pos, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.instances[pos], true
}

// Instances returns the instances in declaration order. The slice is shared;
// callers must not modify it.
func (n *Network) Instances() []*Instance { return n.instances }

// Connections returns the connections. The slice is shared; callers must not modify it.
func (n *Network) Connections() []*Connection { return n.connections }

// Inputs returns the boundary input port declarations.
func (n *Network) Inputs() []PortDecl { return n.inputs }

// Outputs returns the boundary output port declarations.
func (n *Network) Outputs() []PortDecl { return n.outputs }

// Len returns the number of instances.
func (n *Network) Len() int { return len(n.instances) }

// InstanceNames returns the instance names in declaration order.
func (n *Network) InstanceNames() []string {
	names := make([]string, len(n.instances))
	for i, inst := range n.instances {
		names[i] = inst.Name
	}
	return names
}

// NameSet returns the instance names as a set.
func (n *Network) NameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(n.instances))
	for _, inst := range n.instances {
		set[inst.Name] = struct{}{}
	}
	return set
}

// SortedNames returns the instance names in lexical order.
func (n *Network) SortedNames() []string {
	names := n.InstanceNames()
	sort.Strings(names)
	return names
}

// CrossingConnections returns the connections whose two instance ends are
// placed in different groups by group. Boundary ends never cross.
func (n *Network) CrossingConnections(group func(instance string) string) []*Connection {
	var out []*Connection
	for _, c := range n.connections {
		if c.Source.IsBoundary() || c.Target.IsBoundary() {
			continue
		}
		if group(c.Source.Instance) != group(c.Target.Instance) {
			out = append(out, c)
		}
	}
	return out
}
