package ir

import (
	"fmt"
	"strconv"
)

// ValueKind classifies the value carried by a ToolAttribute.
type ValueKind string

const (
	ValueString     ValueKind = "string"
	ValueInteger    ValueKind = "integer"
	ValueBool       ValueKind = "bool"
	ValueExpression ValueKind = "expression" // non-literal expression, kept as source text
	ValueType       ValueKind = "type"       // typed attribute, e.g. `@partition(type = Foo)`
)

// validValueKinds is the set of recognized value kinds.
var validValueKinds = map[ValueKind]bool{
	ValueString: true, ValueInteger: true, ValueBool: true, ValueExpression: true, ValueType: true,
}

// IsValidValueKind reports whether kind is a recognized value kind.
func IsValidValueKind(kind string) bool {
	return validValueKinds[ValueKind(kind)]
}

// Value is the payload of a ToolAttribute.
type Value struct {
	Kind ValueKind
	Text string // literal text without quotes, or expression/type source
}

// IsLiteral reports whether v is a string, integer or bool literal.
func (v *Value) IsLiteral() bool {
	if v == nil {
		return false
	}
	return v.Kind == ValueString || v.Kind == ValueInteger || v.Kind == ValueBool
}

func (v *Value) String() string {
	if v == nil {
		return "<none>"
	}
	if v.Kind == ValueString {
		return strconv.Quote(v.Text)
	}
	return v.Text
}

// ToolAttribute is a compiler-external hint: a key with an optional value.
type ToolAttribute struct {
	Key   string
	Value *Value // nil when the attribute carries no value
}

// StringAttribute returns an attribute carrying a string literal.
func StringAttribute(key, text string) ToolAttribute {
	return ToolAttribute{Key: key, Value: &Value{Kind: ValueString, Text: text}}
}

// IntAttribute returns an attribute carrying an integer literal.
func IntAttribute(key string, n int64) ToolAttribute {
	return ToolAttribute{Key: key, Value: &Value{Kind: ValueInteger, Text: strconv.FormatInt(n, 10)}}
}

func (a ToolAttribute) String() string {
	if a.Value == nil {
		return a.Key
	}
	return fmt.Sprintf("%s=%s", a.Key, a.Value)
}

func (a ToolAttribute) clone() ToolAttribute {
	if a.Value == nil {
		return ToolAttribute{Key: a.Key}
	}
	v := *a.Value
	return ToolAttribute{Key: a.Key, Value: &v}
}

func cloneAttributes(attrs []ToolAttribute) []ToolAttribute {
	if attrs == nil {
		return nil
	}
	out := make([]ToolAttribute, len(attrs))
	for i, a := range attrs {
		out[i] = a.clone()
	}
	return out
}

func attributesByKey(attrs []ToolAttribute, key string) []ToolAttribute {
	var out []ToolAttribute
	for _, a := range attrs {
		if a.Key == key {
			out = append(out, a)
		}
	}
	return out
}

// Buffer depth attribute keys on connections. Both spellings are accepted.
const (
	BufferSizeKey    = "buffersize"
	BufferSizeKeyAlt = "bufferSize"
)

// BufferSize returns the FIFO depth requested on conn, or fallback when the
// connection carries no buffer size attribute. A buffer size attribute that is
// not a single positive integer literal is an error.
func BufferSize(conn *Connection, fallback int) (int, error) {
	attrs := append(conn.AttributesByKey(BufferSizeKey), conn.AttributesByKey(BufferSizeKeyAlt)...)
	switch len(attrs) {
	case 0:
		return fallback, nil
	case 1:
	default:
		return 0, fmt.Errorf("connection %s: %d buffer size attributes, expected at most one", conn, len(attrs))
	}
	v := attrs[0].Value
	if v == nil || v.Kind != ValueInteger {
		return 0, fmt.Errorf("connection %s: buffer size must be an integer literal, got %s", conn, v)
	}
	n, err := strconv.Atoi(v.Text)
	if err != nil {
		return 0, fmt.Errorf("connection %s: parsing buffer size: %w", conn, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("connection %s: buffer size must be positive, got %d", conn, n)
	}
	return n, nil
}
