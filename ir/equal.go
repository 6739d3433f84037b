package ir

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// networkView is the exported shape compared by Equal and Diff. The name
// index is derived data and is left out.
type networkView struct {
	Inputs      []PortDecl
	Outputs     []PortDecl
	Instances   []*Instance
	Connections []*Connection
}

func viewOf(n *Network) *networkView {
	if n == nil {
		return nil
	}
	return &networkView{
		Inputs:      n.inputs,
		Outputs:     n.outputs,
		Instances:   n.instances,
		Connections: n.connections,
	}
}

// equalOpts treats instance and connection sequences as sets: declaration
// order matters for diagnostics only.
var equalOpts = cmp.Options{
	cmpopts.EquateEmpty(),
	cmpopts.SortSlices(func(a, b *Instance) bool { return a.Name < b.Name }),
	cmpopts.SortSlices(func(a, b *Connection) bool { return connectionLess(a, b) }),
	cmpopts.SortSlices(func(a, b PortDecl) bool { return a.Name < b.Name }),
}

func connectionLess(a, b *Connection) bool {
	if a.Source != b.Source {
		return endLess(a.Source, b.Source)
	}
	if a.Target != b.Target {
		return endLess(a.Target, b.Target)
	}
	return len(a.Attributes) < len(b.Attributes)
}

func endLess(a, b End) bool {
	if a.Instance != b.Instance {
		return a.Instance < b.Instance
	}
	return a.Port < b.Port
}

// Equal reports whether a and b hold structurally equal instance,
// connection and boundary port sets.
func Equal(a, b *Network) bool {
	return cmp.Equal(viewOf(a), viewOf(b), equalOpts)
}

// Diff returns a human-readable report of the differences between a and b,
// or the empty string when they are equal.
func Diff(a, b *Network) string {
	return cmp.Diff(viewOf(a), viewOf(b), equalOpts)
}

// EqualOption lets other packages compare values embedding *Network with go-cmp.
func EqualOption() cmp.Option {
	return cmp.Comparer(Equal)
}
