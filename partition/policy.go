package partition

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the platform's partitioning policy. It is explicit configuration:
// the assigners never fall back to a hidden default kind.
type Policy struct {
	// DefaultKind receives instances without a partition attribute.
	DefaultKind Kind
	// IndexKinds maps numbered partitions of the optimal assignment to kinds.
	// Indices beyond its length map to SW.
	IndexKinds []Kind
	// Strict aborts on invalid partition attributes instead of falling back
	// to DefaultKind.
	Strict bool
}

// DefaultPolicy places unannotated instances and every numbered partition on SW
// and rejects invalid attributes.
func DefaultPolicy() Policy {
	return Policy{DefaultKind: SW, Strict: true}
}

// KindOf returns the kind of numbered partition index.
func (p Policy) KindOf(index int) Kind {
	if index >= 0 && index < len(p.IndexKinds) {
		return p.IndexKinds[index]
	}
	return SW
}

// Validate checks that every kind in the policy is storable.
func (p Policy) Validate() error {
	if !p.DefaultKind.Storable() {
		return fmt.Errorf("default partition must be hw or sw, got %s", p.DefaultKind)
	}
	for i, k := range p.IndexKinds {
		if !k.Storable() {
			return fmt.Errorf("partition %d: kind must be hw or sw, got %s", i, k)
		}
	}
	return nil
}

// PolicyFile is the YAML form of a Policy. Empty or nil fields mean
// "not set in YAML" and do not override the base policy.
type PolicyFile struct {
	DefaultPartition string   `yaml:"default-partition"`
	PartitionKinds   []string `yaml:"partition-kinds"`
	Strict           *bool    `yaml:"strict"`
}

// LoadPolicy reads and parses a YAML policy file. Unknown keys are rejected.
func LoadPolicy(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	var f PolicyFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing policy file: %w", err)
	}
	return &f, nil
}

// Validate checks every kind name in the file.
func (f *PolicyFile) Validate() error {
	if f.DefaultPartition != "" {
		if _, err := ParseKind(f.DefaultPartition); err != nil {
			return fmt.Errorf("default-partition: %w", err)
		}
	}
	for i, s := range f.PartitionKinds {
		if _, err := ParseKind(s); err != nil {
			return fmt.Errorf("partition-kinds[%d]: %w", i, err)
		}
	}
	return nil
}

// Apply returns base overridden by the fields set in f.
func (f *PolicyFile) Apply(base Policy) (Policy, error) {
	if err := f.Validate(); err != nil {
		return base, err
	}
	p := base
	if f.DefaultPartition != "" {
		p.DefaultKind, _ = ParseKind(f.DefaultPartition)
	}
	if len(f.PartitionKinds) > 0 {
		p.IndexKinds = make([]Kind, len(f.PartitionKinds))
		for i, s := range f.PartitionKinds {
			p.IndexKinds[i], _ = ParseKind(s)
		}
	}
	if f.Strict != nil {
		p.Strict = *f.Strict
	}
	return p, nil
}
