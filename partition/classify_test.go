package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/actorflow/partc/ir"
)

func TestClassify(t *testing.T) {
	expr := ir.ToolAttribute{Key: PartitionKey, Value: &ir.Value{Kind: ir.ValueExpression, Text: "pick()"}}
	typed := ir.ToolAttribute{Key: PartitionKey, Value: &ir.Value{Kind: ir.ValueType, Text: "Fpga"}}
	tests := []struct {
		name  string
		attrs []ir.ToolAttribute
		want  Kind
	}{
		{"no attribute", nil, Any},
		{"unrelated attribute", []ir.ToolAttribute{ir.StringAttribute("other", "hw")}, Any},
		{"hw literal", []ir.ToolAttribute{ir.StringAttribute(PartitionKey, "hw")}, HW},
		{"sw literal", []ir.ToolAttribute{ir.StringAttribute(PartitionKey, "sw")}, SW},
		{"two attributes", []ir.ToolAttribute{ir.StringAttribute(PartitionKey, "hw"), ir.StringAttribute(PartitionKey, "hw")}, Invalid},
		{"expression value", []ir.ToolAttribute{expr}, Invalid},
		{"typed value", []ir.ToolAttribute{typed}, Invalid},
		{"integer literal", []ir.ToolAttribute{ir.IntAttribute(PartitionKey, 1)}, Invalid},
		{"no value", []ir.ToolAttribute{{Key: PartitionKey}}, Invalid},
		{"unrecognized string", []ir.ToolAttribute{ir.StringAttribute(PartitionKey, "gpu")}, Invalid},
		{"upper case", []ir.ToolAttribute{ir.StringAttribute(PartitionKey, "HW")}, Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &ir.Instance{Name: "a", Attributes: tt.attrs}
			assert.Equal(t, tt.want, Classify(inst))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("HW")
	assert.NoError(t, err)
	assert.Equal(t, HW, k)

	k, err = ParseKind(" sw ")
	assert.NoError(t, err)
	assert.Equal(t, SW, k)

	_, err = ParseKind("any")
	assert.Error(t, err, "any is a classification result, not a storable kind")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "hw", HW.String())
	assert.Equal(t, "sw", SW.String())
	assert.Equal(t, "any", Any.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestMap_Validate(t *testing.T) {
	n := ir.MustNetwork(nil, nil, []*ir.Instance{{Name: "a"}}, nil)

	assert.NoError(t, Map{HW: n, SW: n}.Validate())
	assert.Error(t, Map{Any: n}.Validate())
	assert.Error(t, Map{SW: nil}.Validate())
	assert.Equal(t, []Kind{HW, SW}, Map{SW: n, HW: n}.Kinds())
}
