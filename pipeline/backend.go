package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/actorflow/partc/ir/netfile"
	"github.com/actorflow/partc/task"
)

// Backend compiles one extracted partition. Backends for different kinds run
// concurrently and own their network exclusively.
type Backend interface {
	Name() string
	Compile(ctx context.Context, t *task.CompilationTask) error
}

// DumpBackend writes each partition network as YAML to Dir/<kind>/network.yaml.
// It stands in for the per-target code emitters.
type DumpBackend struct {
	Dir string
}

// Name implements Backend.
func (b DumpBackend) Name() string { return "dump" }

// Compile implements Backend.
func (b DumpBackend) Compile(ctx context.Context, t *task.CompilationTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(b.Dir, t.Kind.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := netfile.EncodeYAML(t.Network)
	if err != nil {
		return fmt.Errorf("encoding %s network: %w", t.Kind, err)
	}
	path := filepath.Join(dir, "network.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
