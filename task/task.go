// Package task packages a partitioned network for the per-target backends.
//
// A PartitionedTask is immutable: the With* methods return the receiver when
// the update changes nothing and a new task sharing the untouched fields
// otherwise. Backends never see the stored sub-networks directly;
// ExtractPartition hands each one a deep copy so that the hardware and
// software pipelines can mutate their networks concurrently.
package task

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir"
	"github.com/actorflow/partc/partition"
)

// Phase is the diagnostic phase of extraction.
const Phase = "extract"

// SourceUnit is one compilation unit the network was elaborated from.
type SourceUnit struct {
	Path string
}

// PartitionedTask is one compilation of a network split into partitions.
type PartitionedTask struct {
	identifier  string
	sourceUnits []SourceUnit
	network     *ir.Network
	partitions  partition.Map // nil until populated
}

// New creates an unpartitioned task. An empty id is replaced by a random UUID.
func New(id string, sourceUnits []SourceUnit, network *ir.Network) *PartitionedTask {
	if id == "" {
		id = uuid.NewString()
	}
	return &PartitionedTask{
		identifier:  id,
		sourceUnits: append([]SourceUnit(nil), sourceUnits...),
		network:     network,
	}
}

// Identifier returns the task id.
func (t *PartitionedTask) Identifier() string { return t.identifier }

// SourceUnits returns a copy of the source units.
func (t *PartitionedTask) SourceUnits() []SourceUnit {
	return append([]SourceUnit(nil), t.sourceUnits...)
}

// Network returns the original network. Callers must not modify it.
func (t *PartitionedTask) Network() *ir.Network { return t.network }

// IsPartitioned reports whether a partition map was ever set.
func (t *PartitionedTask) IsPartitioned() bool { return t.partitions != nil }

// Partitions returns a copy of the partition map. The networks are shared
// and must not be modified; use ExtractPartition for a private copy.
func (t *PartitionedTask) Partitions() partition.Map {
	if t.partitions == nil {
		return nil
	}
	m := make(partition.Map, len(t.partitions))
	for k, n := range t.partitions {
		m[k] = n
	}
	return m
}

// Partition returns the stored sub-network for kind, or nil when the task
// has no partition of that kind. It fails with ErrNotPartitioned when the
// partition map was never populated.
func (t *PartitionedTask) Partition(kind partition.Kind) (*ir.Network, error) {
	if t.partitions == nil {
		return nil, ErrNotPartitioned
	}
	return t.partitions[kind], nil
}

var mapOpts = cmp.Options{ir.EqualOption()}

// WithPartitions returns a task holding m. The receiver is returned when m is
// structurally equal to the current map. m must validate; the map itself is
// copied, the networks are not.
func (t *PartitionedTask) WithPartitions(m partition.Map) (*PartitionedTask, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = partition.Map{}
	}
	if t.partitions != nil && cmp.Equal(t.partitions, m, mapOpts) {
		return t, nil
	}
	c := *t
	c.partitions = make(partition.Map, len(m))
	for k, n := range m {
		c.partitions[k] = n
	}
	return &c, nil
}

// WithNetwork returns a task holding network, or the receiver when it is
// structurally equal to the current one.
func (t *PartitionedTask) WithNetwork(network *ir.Network) *PartitionedTask {
	if ir.Equal(t.network, network) {
		return t
	}
	c := *t
	c.network = network
	return &c
}

// WithSourceUnits returns a task holding units, or the receiver when unchanged.
func (t *PartitionedTask) WithSourceUnits(units []SourceUnit) *PartitionedTask {
	if cmp.Equal(t.sourceUnits, units) {
		return t
	}
	c := *t
	c.sourceUnits = append([]SourceUnit(nil), units...)
	return &c
}

// WithIdentifier returns a task with id, or the receiver when unchanged.
func (t *PartitionedTask) WithIdentifier(id string) *PartitionedTask {
	if t.identifier == id {
		return t
	}
	c := *t
	c.identifier = id
	return &c
}

// CompilationTask is what a single backend compiles: a private network.
// Network is nil when the requested partition did not exist.
type CompilationTask struct {
	Identifier  string
	Kind        partition.Kind
	SourceUnits []SourceUnit
	Network     *ir.Network
}

// Skipped reports whether there is nothing to compile.
func (c *CompilationTask) Skipped() bool { return c.Network == nil }

// ExtractPartition returns a compilation task holding a deep copy of the
// sub-network for kind. A missing partition (or an unpartitioned task) is
// reported as ERROR and yields a task with a nil network: that backend is
// skipped, its siblings are not.
func (t *PartitionedTask) ExtractPartition(rep diag.Reporter, kind partition.Kind) *CompilationTask {
	if rep == nil {
		rep = diag.Discard
	}
	ct := &CompilationTask{Identifier: t.identifier, Kind: kind, SourceUnits: t.SourceUnits()}
	sub, err := t.Partition(kind)
	if err != nil {
		rep.Report(diag.FromError(Phase, err))
		return ct
	}
	if sub == nil {
		rep.Report(diag.FromError(Phase, &ExtractionError{Kind: kind}))
		return ct
	}
	rep.Report(diag.Infof(Phase, "%s partition: %s", kind, strings.Join(sub.InstanceNames(), ", ")))
	ct.Network = sub.Clone()
	return ct
}
