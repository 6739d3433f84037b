// Package pipeline drives one partitioning run end to end: load the network,
// assign partitions, materialize and check the sub-networks, package them in
// a task and hand each extracted partition to its backend.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/actorflow/partc/boundary"
	"github.com/actorflow/partc/config"
	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir"
	"github.com/actorflow/partc/ir/netfile"
	"github.com/actorflow/partc/partition"
	"github.com/actorflow/partc/profile"
	"github.com/actorflow/partc/task"
)

// Phase is the diagnostic phase of the driver itself.
const Phase = "pipeline"

// Result is everything a run produced.
type Result struct {
	Network    *ir.Network
	Costs      *profile.CostModel // nil for the attribute strategy
	Assignment *partition.Assignment
	Links      []boundary.Link
	Task       *task.PartitionedTask
	Compiled   map[partition.Kind]*task.CompilationTask
}

// Run partitions the network named by s and compiles each partition with
// backends[kind]. When backends is empty and s.OutputDir is set, every kind
// is written by a DumpBackend.
//
// Configuration, parse, assignment and completeness errors abort the run.
// A missing partition or a failing backend only affects that kind: the other
// backends still run and their errors are aggregated into the returned error
// alongside a non-nil Result.
func Run(ctx context.Context, s *config.Settings, rep diag.Reporter, backends map[partition.Kind]Backend) (*Result, error) {
	if rep == nil {
		rep = diag.Discard
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	policy, err := s.Policy()
	if err != nil {
		return nil, err
	}

	net, err := netfile.Load(s.Network)
	if err != nil {
		return nil, fmt.Errorf("loading network: %w", err)
	}
	logrus.Debugf("Loaded network %s with %d instances", s.Network, net.Len())
	res := &Result{Network: net}

	res.Assignment, res.Costs, err = assign(ctx, s, policy, net, rep)
	if err != nil {
		return nil, err
	}
	if err := res.Assignment.ResolveKinds(policy); err != nil {
		return nil, err
	}

	// Later phases read the assigned kind off the instances themselves.
	annotated := net.Clone()
	n := partition.Annotate(annotated, res.Assignment)
	logrus.Debugf("Annotated %d instances with their partition", n)

	m, err := partition.Build(annotated, res.Assignment)
	if err != nil {
		return nil, err
	}

	crossing := boundary.Crossing(annotated, res.Assignment)
	if s.BoundaryLinks {
		synth := boundary.Synthesizer{DefaultBufferSize: s.DefaultBufferSize, Reporter: rep}
		if m, res.Links, err = synth.Synthesize(annotated, res.Assignment, m); err != nil {
			return nil, fmt.Errorf("synthesizing boundary links: %w", err)
		}
	} else {
		boundary.WarnDropped(rep, crossing, res.Assignment)
	}
	if err := task.CheckComplete(annotated, m); err != nil {
		rep.Report(diag.FromError(Phase, err))
		return nil, err
	}

	tk, err := task.New("", []task.SourceUnit{{Path: s.Network}}, annotated).WithPartitions(m)
	if err != nil {
		return nil, err
	}
	res.Task = tk

	if s.ConfigPath != "" {
		d := NewDescriptor(s.Network, tk.Identifier(), res.Assignment, res.Links)
		if err := d.WriteFile(s.ConfigPath); err != nil {
			return nil, err
		}
		rep.Report(diag.Infof(Phase, "partition descriptor written to %s", s.ConfigPath))
	}

	if len(backends) == 0 && s.OutputDir != "" {
		dump := DumpBackend{Dir: s.OutputDir}
		backends = map[partition.Kind]Backend{partition.HW: dump, partition.SW: dump}
	}
	res.Compiled, err = compile(ctx, tk, rep, backends)
	return res, err
}

// assign runs the configured strategy, falling back to the attribute
// strategy on solver failure when configured to. An interrupted solve never
// falls back.
func assign(ctx context.Context, s *config.Settings, policy partition.Policy, net *ir.Network, rep diag.Reporter) (*partition.Assignment, *profile.CostModel, error) {
	attribute := partition.AttributeAssigner{Policy: policy, Reporter: rep}
	if s.Strategy == partition.StrategyAttribute {
		a, err := attribute.Assign(net)
		return a, nil, err
	}

	costs, err := profile.Load(s.ProfilePath, net, rep, profile.Options{Lenient: !s.Strict})
	if err != nil {
		return nil, nil, err
	}
	a, err := partition.ProfileAssigner{
		NumPartitions: s.NumCores,
		Limits:        s.Limits(),
		Reporter:      rep,
	}.Assign(ctx, net, costs)
	var serr *partition.SolverError
	interrupted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if errors.As(err, &serr) && !interrupted && s.SolverFallback == config.FallbackAttribute {
		rep.Report(diag.Warningf(Phase, "solver failed, falling back to the %s strategy", partition.StrategyAttribute))
		a, err = attribute.Assign(net)
	}
	return a, costs, err
}

// compile extracts every storable kind and runs its backend. Backends run
// concurrently; a failing backend does not cancel its siblings.
func compile(ctx context.Context, tk *task.PartitionedTask, rep diag.Reporter, backends map[partition.Kind]Backend) (map[partition.Kind]*task.CompilationTask, error) {
	compiled := make(map[partition.Kind]*task.CompilationTask)
	if len(backends) == 0 {
		return compiled, nil
	}
	var g multierror.Group
	for _, kind := range partition.StorableKinds {
		backend, ok := backends[kind]
		if !ok {
			continue
		}
		ct := tk.ExtractPartition(rep, kind)
		compiled[kind] = ct
		if ct.Skipped() {
			continue
		}
		kind, backend := kind, backend
		g.Go(func() error {
			if err := backend.Compile(ctx, ct); err != nil {
				err = fmt.Errorf("%s backend %s: %w", kind, backend.Name(), err)
				rep.Report(diag.FromError(Phase, err))
				return err
			}
			logrus.Debugf("%s backend %s finished", kind, backend.Name())
			return nil
		})
	}
	return compiled, g.Wait().ErrorOrNil()
}
