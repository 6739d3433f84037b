package netfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// hclNetworkFile is the top-level structure of an HCL network file:
//
//	input "in" { type = "int" }
//	instance "S" {
//	  entity     = "demo.Source"
//	  parameters = { rate = "4" }
//	  attribute "partition" { value = "sw" }
//	}
//	connection {
//	  source = "in"
//	  target = "S.x"
//	  attribute "buffersize" {
//	    value = "64"
//	    kind  = "integer"
//	  }
//	}
type hclNetworkFile struct {
	Inputs      []hclPort       `hcl:"input,block"`
	Outputs     []hclPort       `hcl:"output,block"`
	Instances   []hclInstance   `hcl:"instance,block"`
	Connections []hclConnection `hcl:"connection,block"`
}

type hclPort struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type,optional"`
}

type hclInstance struct {
	Name           string            `hcl:"name,label"`
	Entity         string            `hcl:"entity"`
	Parameters     map[string]string `hcl:"parameters,optional"`
	TypeParameters map[string]string `hcl:"type_parameters,optional"`
	Attributes     []hclAttribute    `hcl:"attribute,block"`
}

type hclConnection struct {
	Source     string         `hcl:"source"`
	Target     string         `hcl:"target"`
	Attributes []hclAttribute `hcl:"attribute,block"`
}

type hclAttribute struct {
	Key   string  `hcl:"key,label"`
	Value *string `hcl:"value,optional"`
	Kind  string  `hcl:"kind,optional"`
}

// loadHCL parses an HCL network file.
func loadHCL(path string) (*Document, error) {
	var f hclNetworkFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to decode HCL network file %s: %w", path, err)
	}
	return f.document(), nil
}

// DecodeHCL parses HCL network source. filename is used in diagnostics and
// must end in .hcl.
func DecodeHCL(filename string, src []byte) (*Document, error) {
	var f hclNetworkFile
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to decode HCL network %s: %w", filename, err)
	}
	return f.document(), nil
}

func (f *hclNetworkFile) document() *Document {
	d := &Document{}
	for _, p := range f.Inputs {
		d.Inputs = append(d.Inputs, PortDoc(p))
	}
	for _, p := range f.Outputs {
		d.Outputs = append(d.Outputs, PortDoc(p))
	}
	for _, inst := range f.Instances {
		d.Instances = append(d.Instances, InstanceDoc{
			Name:           inst.Name,
			Entity:         inst.Entity,
			Parameters:     inst.Parameters,
			TypeParameters: inst.TypeParameters,
			Attributes:     hclAttributeDocs(inst.Attributes),
		})
	}
	for _, c := range f.Connections {
		d.Connections = append(d.Connections, ConnectionDoc{
			Source:     c.Source,
			Target:     c.Target,
			Attributes: hclAttributeDocs(c.Attributes),
		})
	}
	return d
}

func hclAttributeDocs(attrs []hclAttribute) []AttributeDoc {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]AttributeDoc, len(attrs))
	for i, a := range attrs {
		out[i] = AttributeDoc(a)
	}
	return out
}
