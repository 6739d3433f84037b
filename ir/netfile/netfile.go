// Package netfile reads and writes network descriptions. The frontend that
// normally produces networks is external; these files let the partitioner be
// driven standalone and let backends dump what they received.
//
// Two syntaxes are accepted, chosen by file extension: YAML (.yaml, .yml) and
// HCL (.hcl). Both decode into Document before the ir.Network is built.
package netfile

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/actorflow/partc/ir"
)

// Document is the syntax-independent form of a network file.
type Document struct {
	Inputs      []PortDoc       `yaml:"inputs,omitempty"`
	Outputs     []PortDoc       `yaml:"outputs,omitempty"`
	Instances   []InstanceDoc   `yaml:"instances"`
	Connections []ConnectionDoc `yaml:"connections,omitempty"`
}

// PortDoc declares a boundary port.
type PortDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// InstanceDoc describes one instance.
type InstanceDoc struct {
	Name           string            `yaml:"name"`
	Entity         string            `yaml:"entity"`
	Parameters     map[string]string `yaml:"parameters,omitempty"`
	TypeParameters map[string]string `yaml:"type_parameters,omitempty"`
	Attributes     []AttributeDoc    `yaml:"attributes,omitempty"`
}

// ConnectionDoc describes one connection. Ends are written "instance.port",
// or just "port" for a network boundary port.
type ConnectionDoc struct {
	Source     string         `yaml:"source"`
	Target     string         `yaml:"target"`
	Attributes []AttributeDoc `yaml:"attributes,omitempty"`
}

// AttributeDoc describes a tool attribute. Kind defaults to the literal kind
// implied by the value; it must be given for expression and type values.
type AttributeDoc struct {
	Key   string  `yaml:"key"`
	Value *string `yaml:"value,omitempty"`
	Kind  string  `yaml:"kind,omitempty"`
}

// Load reads a network file, dispatching on its extension.
func Load(path string) (*ir.Network, error) {
	var (
		doc *Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = loadYAML(path)
	case ".hcl":
		doc, err = loadHCL(path)
	default:
		return nil, fmt.Errorf("network file %s: unsupported extension %q; valid: .yaml, .yml, .hcl", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	net, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("network file %s: %w", path, err)
	}
	return net, nil
}

// Build converts the document into a network.
func (d *Document) Build() (*ir.Network, error) {
	instances := make([]*ir.Instance, 0, len(d.Instances))
	for i, id := range d.Instances {
		attrs, err := buildAttributes(id.Attributes)
		if err != nil {
			return nil, fmt.Errorf("instance[%d] %q: %w", i, id.Name, err)
		}
		instances = append(instances, &ir.Instance{
			Name:            id.Name,
			Entity:          id.Entity,
			ValueParameters: buildParameters(id.Parameters),
			TypeParameters:  buildParameters(id.TypeParameters),
			Attributes:      attrs,
		})
	}
	connections := make([]*ir.Connection, 0, len(d.Connections))
	for i, cd := range d.Connections {
		attrs, err := buildAttributes(cd.Attributes)
		if err != nil {
			return nil, fmt.Errorf("connection[%d]: %w", i, err)
		}
		connections = append(connections, &ir.Connection{
			Source:     ParseEnd(cd.Source),
			Target:     ParseEnd(cd.Target),
			Attributes: attrs,
		})
	}
	return ir.NewNetwork(buildPorts(d.Inputs), buildPorts(d.Outputs), instances, connections)
}

// ParseEnd splits "instance.port" at the first dot. A string without a dot
// names a boundary port.
func ParseEnd(s string) ir.End {
	inst, port, ok := strings.Cut(s, ".")
	if !ok {
		return ir.End{Port: s}
	}
	return ir.End{Instance: inst, Port: port}
}

func buildPorts(ps []PortDoc) []ir.PortDecl {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ir.PortDecl, len(ps))
	for i, p := range ps {
		out[i] = ir.PortDecl{Name: p.Name, Type: p.Type}
	}
	return out
}

// buildParameters sorts by name: maps carry no declaration order.
func buildParameters(m map[string]string) []ir.Parameter {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]ir.Parameter, len(names))
	for i, name := range names {
		out[i] = ir.Parameter{Name: name, Value: m[name]}
	}
	return out
}

func buildAttributes(docs []AttributeDoc) ([]ir.ToolAttribute, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]ir.ToolAttribute, 0, len(docs))
	for _, ad := range docs {
		if ad.Key == "" {
			return nil, fmt.Errorf("attribute without key")
		}
		if ad.Value == nil {
			if ad.Kind != "" {
				return nil, fmt.Errorf("attribute %q: kind %q given without value", ad.Key, ad.Kind)
			}
			out = append(out, ir.ToolAttribute{Key: ad.Key})
			continue
		}
		kind := ad.Kind
		if kind == "" {
			kind = string(ir.ValueString)
		}
		if !ir.IsValidValueKind(kind) {
			return nil, fmt.Errorf("attribute %q: unknown kind %q; valid: string, integer, bool, expression, type", ad.Key, kind)
		}
		out = append(out, ir.ToolAttribute{Key: ad.Key, Value: &ir.Value{Kind: ir.ValueKind(kind), Text: *ad.Value}})
	}
	return out, nil
}

// FromNetwork converts a network back into a document.
func FromNetwork(n *ir.Network) *Document {
	d := &Document{}
	for _, p := range n.Inputs() {
		d.Inputs = append(d.Inputs, PortDoc{Name: p.Name, Type: p.Type})
	}
	for _, p := range n.Outputs() {
		d.Outputs = append(d.Outputs, PortDoc{Name: p.Name, Type: p.Type})
	}
	for _, inst := range n.Instances() {
		d.Instances = append(d.Instances, InstanceDoc{
			Name:           inst.Name,
			Entity:         inst.Entity,
			Parameters:     parameterMap(inst.ValueParameters),
			TypeParameters: parameterMap(inst.TypeParameters),
			Attributes:     attributeDocs(inst.Attributes),
		})
	}
	for _, c := range n.Connections() {
		d.Connections = append(d.Connections, ConnectionDoc{
			Source:     c.Source.String(),
			Target:     c.Target.String(),
			Attributes: attributeDocs(c.Attributes),
		})
	}
	return d
}

func parameterMap(ps []ir.Parameter) map[string]string {
	if len(ps) == 0 {
		return nil
	}
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		m[p.Name] = p.Value
	}
	return m
}

func attributeDocs(attrs []ir.ToolAttribute) []AttributeDoc {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]AttributeDoc, len(attrs))
	for i, a := range attrs {
		out[i] = AttributeDoc{Key: a.Key}
		if a.Value != nil {
			text := a.Value.Text
			out[i].Value = &text
			if a.Value.Kind != ir.ValueString {
				out[i].Kind = string(a.Value.Kind)
			}
		}
	}
	return out
}
