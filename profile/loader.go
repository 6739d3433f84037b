package profile

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir"
)

const phase = "profile"

// Document is a parsed profile before it is joined against a network.
// Identifiers may carry a "/AFFINITY" suffix.
type Document struct {
	Instances   []InstanceEntry   `xml:"Instance" yaml:"instances"`
	Connections []ConnectionEntry `xml:"Connection" yaml:"connections"`
}

// InstanceEntry is one measured instance.
type InstanceEntry struct {
	ActorID    string `xml:"actor-id,attr" yaml:"actor-id"`
	Complexity string `xml:"complexity,attr" yaml:"complexity"`
}

// ConnectionEntry is one measured connection.
type ConnectionEntry struct {
	Source     string `xml:"src,attr" yaml:"src"`
	SourcePort string `xml:"src-port,attr" yaml:"src-port"`
	Target     string `xml:"dst,attr" yaml:"dst"`
	TargetPort string `xml:"dst-port,attr" yaml:"dst-port"`
	Bandwidth  string `xml:"bandwidth,attr" yaml:"bandwidth"`
}

// Options controls how a profile is joined against a network.
type Options struct {
	// Lenient keeps the first value of a duplicated entry and continues
	// instead of aborting. Both modes report the duplicate as an ERROR.
	Lenient bool
}

// Load reads the profile at path and joins it against net. A nil rep
// discards diagnostics.
func Load(path string, net *ir.Network, rep diag.Reporter, opts Options) (*CostModel, error) {
	if rep == nil {
		rep = diag.Discard
	}
	doc, err := ReadFile(path)
	if err != nil {
		rep.Report(diag.FromError(phase, err))
		return nil, err
	}
	return Join(doc, net, rep, opts)
}

// ReadFile parses a profile document. The format is chosen by extension:
// .xml, or .yaml/.yml. Every failure is a *ParseError.
func ReadFile(path string) (*Document, error) {
	if path == "" {
		return nil, &ParseError{Err: ErrNoProfilePath}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = DecodeYAML(data)
	default:
		doc, err = DecodeXML(data)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// DecodeXML parses the reference profile format: a root element whose
// children are Instance and Connection elements.
func DecodeXML(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing XML profile: %w", err)
	}
	return &doc, nil
}

// DecodeYAML parses a YAML profile with strict field checking.
func DecodeYAML(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing YAML profile: %w", err)
	}
	return &doc, nil
}

// StripAffinity removes a "/AFFINITY" suffix: everything from the first '/'.
func StripAffinity(id string) string {
	name, _, _ := strings.Cut(id, "/")
	return name
}

// Join matches the document against net. Entries naming instances or
// connections absent from net are skipped with a WARNING. Malformed numbers
// fail with *ParseError; duplicates with *DuplicateCostError unless lenient.
func Join(doc *Document, net *ir.Network, rep diag.Reporter, opts Options) (*CostModel, error) {
	if rep == nil {
		rep = diag.Discard
	}
	m := NewCostModel()
	var dups *multierror.Error

	for i, e := range doc.Instances {
		name := StripAffinity(e.ActorID)
		ticks, err := parseCount(e.Complexity)
		if err != nil {
			perr := &ParseError{Err: fmt.Errorf("Instance[%d] %q: complexity: %w", i, e.ActorID, err)}
			rep.Report(diag.FromError(phase, perr))
			return nil, perr
		}
		if _, ok := net.Instance(name); !ok {
			rep.Report(diag.Warningf(phase, "profile instance %q matches no instance in the network; ignored", e.ActorID))
			continue
		}
		if prev, dup := m.instances[name]; dup {
			derr := &DuplicateCostError{Subject: "instance " + name, First: prev, Second: ticks}
			rep.Report(diag.FromError(phase, derr))
			dups = multierror.Append(dups, derr)
			continue
		}
		m.instances[name] = ticks
		rep.Report(diag.Infof(phase, "instance %s: %s ticks", name, humanize.Comma(ticks)))
	}

	index := connectionIndex(net)
	for i, e := range doc.Connections {
		bw, err := parseCount(e.Bandwidth)
		if err != nil {
			perr := &ParseError{Err: fmt.Errorf("Connection[%d] %s.%s -> %s.%s: bandwidth: %w", i, e.Source, e.SourcePort, e.Target, e.TargetPort, err)}
			rep.Report(diag.FromError(phase, perr))
			return nil, perr
		}
		key := ConnectionKey{
			Source:     StripAffinity(e.Source),
			SourcePort: e.SourcePort,
			Target:     StripAffinity(e.Target),
			TargetPort: e.TargetPort,
		}
		if !index[key] {
			rep.Report(diag.Warningf(phase, "profile connection %s matches no connection in the network; ignored", key))
			continue
		}
		if prev, dup := m.connections[key]; dup {
			derr := &DuplicateCostError{Subject: "connection " + key.String(), First: prev, Second: bw}
			rep.Report(diag.FromError(phase, derr))
			dups = multierror.Append(dups, derr)
			continue
		}
		m.connections[key] = bw
		rep.Report(diag.Infof(phase, "connection %s: bandwidth %s", key, humanize.Comma(bw)))
	}

	if dups != nil && !opts.Lenient {
		return nil, dups.ErrorOrNil()
	}
	return m, nil
}

func connectionIndex(net *ir.Network) map[ConnectionKey]bool {
	index := make(map[ConnectionKey]bool, len(net.Connections()))
	for _, c := range net.Connections() {
		if c.Source.IsBoundary() || c.Target.IsBoundary() {
			continue
		}
		index[KeyOf(c)] = true
	}
	return index
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must be non-negative, got %d", n)
	}
	return n, nil
}
