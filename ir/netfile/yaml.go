package netfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/actorflow/partc/ir"
)

// loadYAML parses a YAML network file with strict field checking.
func loadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	return DecodeYAML(data)
}

// DecodeYAML parses a YAML network document. Unknown keys are rejected.
func DecodeYAML(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing network file: %w", err)
	}
	return &doc, nil
}

// EncodeYAML renders a network as a YAML document readable by Load.
func EncodeYAML(n *ir.Network) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromNetwork(n)); err != nil {
		return nil, fmt.Errorf("encoding network: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding network: %w", err)
	}
	return buf.Bytes(), nil
}
