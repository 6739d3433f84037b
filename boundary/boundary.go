// Package boundary turns connections that cross partitions into paired proxy
// instances: a Tx in the source partition consuming the original source port,
// and an Rx in the target partition producing into the original target port.
// The two are joined out of band by a platform runtime channel described by a
// Link.
package boundary

import (
	"fmt"
	"strconv"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir"
	"github.com/actorflow/partc/partition"
)

// Phase is the diagnostic phase of link synthesis.
const Phase = "boundary"

// Proxy entities and the attribute naming their channel.
const (
	TxEntity   = "partc.boundary.Tx"
	RxEntity   = "partc.boundary.Rx"
	ChannelKey = "channel"
)

// IsProxy reports whether inst is a Tx or Rx proxy made by Synthesize.
func IsProxy(inst *ir.Instance) bool {
	return inst.Entity == TxEntity || inst.Entity == RxEntity
}

// Link describes one synthesized channel between two partitions.
type Link struct {
	Channel    string
	Source     ir.End // original source end
	Target     ir.End // original target end
	SourceKind partition.Kind
	TargetKind partition.Kind
	Tx         string // proxy instance in the source partition
	Rx         string // proxy instance in the target partition
	BufferSize int
}

// Crossing returns the connections of net whose instance ends are assigned
// to different kinds.
func Crossing(net *ir.Network, a *partition.Assignment) []*ir.Connection {
	return net.CrossingConnections(a.Group)
}

// WarnDropped reports each crossing connection as dropped.
func WarnDropped(rep diag.Reporter, crossing []*ir.Connection, a *partition.Assignment) {
	for _, c := range crossing {
		rep.Report(diag.Warningf(Phase, "connection %s crosses %s -> %s; dropped (boundary links disabled)",
			c, a.Group(c.Source.Instance), a.Group(c.Target.Instance)))
	}
}

// Synthesizer builds proxy pairs for crossing connections.
type Synthesizer struct {
	// DefaultBufferSize is the channel depth of connections without a
	// buffer size attribute.
	DefaultBufferSize int
	Reporter          diag.Reporter
}

// Synthesize returns a copy of m in which every crossing connection of net is
// replaced by a Tx proxy in the source partition and an Rx proxy in the
// target partition, together with the links joining them. m is not modified.
func (s Synthesizer) Synthesize(net *ir.Network, a *partition.Assignment, m partition.Map) (partition.Map, []Link, error) {
	rep := s.Reporter
	if rep == nil {
		rep = diag.Discard
	}
	type additions struct {
		instances   []*ir.Instance
		connections []*ir.Connection
	}
	add := make(map[partition.Kind]*additions)
	get := func(k partition.Kind) *additions {
		if add[k] == nil {
			add[k] = &additions{}
		}
		return add[k]
	}

	var links []Link
	for i, c := range Crossing(net, a) {
		srcKind, dstKind := a.Kinds[c.Source.Instance], a.Kinds[c.Target.Instance]
		if m[srcKind] == nil || m[dstKind] == nil {
			return nil, nil, fmt.Errorf("connection %s: partition %s or %s missing from map", c, srcKind, dstKind)
		}
		depth, err := ir.BufferSize(c, s.DefaultBufferSize)
		if err != nil {
			return nil, nil, err
		}
		link := Link{
			Channel:    "ch" + strconv.Itoa(i),
			Source:     c.Source,
			Target:     c.Target,
			SourceKind: srcKind,
			TargetKind: dstKind,
			Tx:         fmt.Sprintf("tx%d_%s_%s", i, c.Source.Instance, c.Source.Port),
			Rx:         fmt.Sprintf("rx%d_%s_%s", i, c.Target.Instance, c.Target.Port),
			BufferSize: depth,
		}
		for _, name := range []string{link.Tx, link.Rx} {
			if _, taken := net.Instance(name); taken {
				return nil, nil, fmt.Errorf("connection %s: proxy name %q is already an instance", c, name)
			}
		}

		src := get(srcKind)
		src.instances = append(src.instances, proxy(link.Tx, TxEntity, srcKind, link, c))
		src.connections = append(src.connections, &ir.Connection{
			Source:     c.Source,
			Target:     ir.End{Instance: link.Tx, Port: c.Source.Port},
			Attributes: c.Clone().Attributes,
		})
		dst := get(dstKind)
		dst.instances = append(dst.instances, proxy(link.Rx, RxEntity, dstKind, link, c))
		dst.connections = append(dst.connections, &ir.Connection{
			Source:     ir.End{Instance: link.Rx, Port: c.Target.Port},
			Target:     c.Target,
			Attributes: c.Clone().Attributes,
		})
		links = append(links, link)
		rep.Report(diag.Infof(Phase, "%s: %s (%s) -> %s (%s), depth %d",
			link.Channel, c.Source, srcKind, c.Target, dstKind, depth))
	}

	out := make(partition.Map, len(m))
	for k, n := range m {
		out[k] = n
		if extra := add[k]; extra != nil {
			extended, err := n.Extend(extra.instances, extra.connections)
			if err != nil {
				return nil, nil, fmt.Errorf("partition %s: %w", k, err)
			}
			out[k] = extended
		}
	}
	return out, links, nil
}

func proxy(name, entity string, kind partition.Kind, link Link, c *ir.Connection) *ir.Instance {
	port := c.Source.Port
	if entity == RxEntity {
		port = c.Target.Port
	}
	attrs := []ir.ToolAttribute{
		ir.StringAttribute(partition.PartitionKey, kind.String()),
		ir.StringAttribute(ChannelKey, link.Channel),
	}
	for _, a := range c.Clone().Attributes {
		if a.Key != partition.PartitionKey && a.Key != ChannelKey {
			attrs = append(attrs, a)
		}
	}
	return &ir.Instance{
		Name:   name,
		Entity: entity,
		ValueParameters: []ir.Parameter{
			{Name: "channel", Value: strconv.Quote(link.Channel)},
			{Name: "depth", Value: strconv.Itoa(link.BufferSize)},
			{Name: "port", Value: strconv.Quote(port)},
		},
		Attributes: attrs,
	}
}
