package netfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actorflow/partc/ir"
)

const chainYAML = `
inputs:
  - name: in
    type: int
instances:
  - name: S
    entity: demo.Source
    parameters:
      rate: "4"
  - name: F
    entity: demo.Filter
    attributes:
      - key: partition
        value: hw
  - name: D
    entity: demo.Sink
connections:
  - source: in
    target: S.x
  - source: S.y
    target: F.x
    attributes:
      - key: buffersize
        value: "64"
        kind: integer
  - source: F.y
    target: D.x
`

const chainHCL = `
input "in" {
  type = "int"
}

instance "S" {
  entity     = "demo.Source"
  parameters = { rate = "4" }
}

instance "F" {
  entity = "demo.Filter"
  attribute "partition" {
    value = "hw"
  }
}

instance "D" {
  entity = "demo.Sink"
}

connection {
  source = "in"
  target = "S.x"
}

connection {
  source = "S.y"
  target = "F.x"
  attribute "buffersize" {
    value = "64"
    kind  = "integer"
  }
}

connection {
  source = "F.y"
  target = "D.x"
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAMLAndHCL_ProduceEqualNetworks(t *testing.T) {
	// GIVEN the same chain written in both syntaxes
	fromYAML, err := Load(writeFile(t, "chain.yaml", chainYAML))
	require.NoError(t, err)
	fromHCL, err := Load(writeFile(t, "chain.hcl", chainHCL))
	require.NoError(t, err)

	// THEN both decode to the same network
	assert.True(t, ir.Equal(fromYAML, fromHCL), ir.Diff(fromYAML, fromHCL))
	assert.Equal(t, []string{"S", "F", "D"}, fromYAML.InstanceNames())

	f, ok := fromHCL.Instance("F")
	require.True(t, ok)
	require.Len(t, f.AttributesByKey("partition"), 1)
	assert.Equal(t, &ir.Value{Kind: ir.ValueString, Text: "hw"}, f.Attributes[0].Value)

	depth, err := ir.BufferSize(fromYAML.Connections()[1], 1)
	require.NoError(t, err)
	assert.Equal(t, 64, depth)
}

func TestLoad_UnknownYAMLField_Rejected(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "instances:\n  - name: A\n    entitty: x\n"))
	assert.Error(t, err)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "net.json", "{}"))
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestLoad_InvalidHCL(t *testing.T) {
	_, err := Load(writeFile(t, "bad.hcl", `instance "A" {`))
	assert.Error(t, err)
}

func TestBuild_UnknownAttributeKind(t *testing.T) {
	v := "x"
	doc := &Document{Instances: []InstanceDoc{{Name: "A", Attributes: []AttributeDoc{{Key: "partition", Value: &v, Kind: "float"}}}}}
	_, err := doc.Build()
	assert.ErrorContains(t, err, `unknown kind "float"`)
}

func TestEncodeYAML_RoundTrip(t *testing.T) {
	orig, err := Load(writeFile(t, "chain.yaml", chainYAML))
	require.NoError(t, err)

	data, err := EncodeYAML(orig)
	require.NoError(t, err)
	doc, err := DecodeYAML(data)
	require.NoError(t, err)
	back, err := doc.Build()
	require.NoError(t, err)

	assert.True(t, ir.Equal(orig, back), ir.Diff(orig, back))
}

func TestParseEnd(t *testing.T) {
	assert.Equal(t, ir.End{Instance: "S", Port: "y"}, ParseEnd("S.y"))
	assert.Equal(t, ir.End{Port: "in"}, ParseEnd("in"))
}
