// Package testutil provides shared test infrastructure: network builders for
// the small graphs the partitioning tests use, and golden-file assertions.
package testutil

import (
	"testing"

	"github.com/actorflow/partc/ir"
)

// Instance returns an instance of entity "test.Actor" carrying attrs.
func Instance(name string, attrs ...ir.ToolAttribute) *ir.Instance {
	return &ir.Instance{Name: name, Entity: "test.Actor", Attributes: attrs}
}

// Connect returns a connection from src.out to dst.in.
func Connect(src, dst string, attrs ...ir.ToolAttribute) *ir.Connection {
	return &ir.Connection{
		Source:     ir.End{Instance: src, Port: "out"},
		Target:     ir.End{Instance: dst, Port: "in"},
		Attributes: attrs,
	}
}

// Chain builds names[0] -> names[1] -> ... with no boundary ports.
func Chain(t testing.TB, names ...string) *ir.Network {
	t.Helper()
	instances := make([]*ir.Instance, len(names))
	var connections []*ir.Connection
	for i, name := range names {
		instances[i] = Instance(name)
		if i > 0 {
			connections = append(connections, Connect(names[i-1], name))
		}
	}
	return Network(t, nil, nil, instances, connections)
}

// Network is ir.NewNetwork that fails the test on error.
func Network(t testing.TB, inputs, outputs []ir.PortDecl, instances []*ir.Instance, connections []*ir.Connection) *ir.Network {
	t.Helper()
	n, err := ir.NewNetwork(inputs, outputs, instances, connections)
	if err != nil {
		t.Fatalf("building network: %v", err)
	}
	return n
}
