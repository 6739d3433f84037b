package pipeline

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/actorflow/partc/boundary"
	"github.com/actorflow/partc/partition"
)

// Descriptor is the partition descriptor written to config-path.
type Descriptor struct {
	Network    string                `yaml:"network"`
	Task       string                `yaml:"task"`
	Strategy   string                `yaml:"strategy"`
	Makespan   *int64                `yaml:"makespan,omitempty"`
	Status     string                `yaml:"status,omitempty"`
	Partitions []DescriptorPartition `yaml:"partitions"`
	Links      []DescriptorLink      `yaml:"links,omitempty"`
}

// DescriptorPartition is one partition: numbered for the profile strategy,
// one per kind for the attribute strategy.
type DescriptorPartition struct {
	Index     *int     `yaml:"index,omitempty"`
	Kind      string   `yaml:"kind"`
	Ticks     *int64   `yaml:"ticks,omitempty"`
	Instances []string `yaml:"instances"`
}

// DescriptorLink is one synthesized boundary channel.
type DescriptorLink struct {
	Channel    string `yaml:"channel"`
	Source     string `yaml:"source"`
	Target     string `yaml:"target"`
	SourceKind string `yaml:"source-kind"`
	TargetKind string `yaml:"target-kind"`
	Tx         string `yaml:"tx"`
	Rx         string `yaml:"rx"`
	BufferSize int    `yaml:"buffer-size"`
}

// NewDescriptor summarizes an assignment with resolved kinds.
func NewDescriptor(network, taskID string, a *partition.Assignment, links []boundary.Link) *Descriptor {
	d := &Descriptor{Network: network, Task: taskID, Strategy: string(a.Strategy)}
	if a.Strategy == partition.StrategyProfile {
		makespan := a.Makespan
		d.Makespan = &makespan
		d.Status = a.Status.String()
		for p := 0; p < a.NumPartitions; p++ {
			index, ticks := p, a.Ticks[p]
			d.Partitions = append(d.Partitions, DescriptorPartition{
				Index:     &index,
				Kind:      a.PartitionKinds[p].String(),
				Ticks:     &ticks,
				Instances: nonNil(a.Members(p)),
			})
		}
	} else {
		for _, k := range partition.StorableKinds {
			if members := a.MembersOf(k); len(members) > 0 {
				d.Partitions = append(d.Partitions, DescriptorPartition{Kind: k.String(), Instances: members})
			}
		}
	}
	for _, l := range links {
		d.Links = append(d.Links, DescriptorLink{
			Channel:    l.Channel,
			Source:     l.Source.String(),
			Target:     l.Target.String(),
			SourceKind: l.SourceKind.String(),
			TargetKind: l.TargetKind.String(),
			Tx:         l.Tx,
			Rx:         l.Rx,
			BufferSize: l.BufferSize,
		})
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Encode renders the descriptor as YAML.
func (d *Descriptor) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the descriptor to path.
func (d *Descriptor) WriteFile(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}
	return nil
}

// ReadDescriptor reads a descriptor, rejecting unknown keys.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	var d Descriptor
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}
	return &d, nil
}
