// Package ir provides the dataflow network model consumed by the partitioner.
//
// # Reading Guide
//
//   - attribute.go: ToolAttribute and Value, the key/optional-literal hints
//     attached to instances and connections by earlier phases.
//   - network.go: Instance, Connection, End and Network. Instances are indexed
//     by name; connection ends refer to instances by name, never by pointer.
//   - clone.go: explicit structural deep copies and sub-network extraction.
//   - equal.go: structural equality used by copy-on-write tasks and tests.
//
// A Network is read-only input to partitioning. The one mutation the package
// offers is attribute attachment (Instance.Annotate).
package ir
