package partition

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir"
	"github.com/actorflow/partc/milp"
	"github.com/actorflow/partc/profile"
)

// ProfileAssigner splits a network into NumPartitions numbered partitions
// minimizing the makespan: the largest summed instance cost of any partition.
//
// The model, for instances i and partitions p:
//
//	x[i,p] ∈ {0,1}          Σ_p x[i,p] = 1
//	ticks[p] ∈ [0, Σ cost]  ticks[p] = Σ_i cost(i)·x[i,p]
//	total = max_p ticks[p]  minimize total, total integer
//
// Partitions are interchangeable, so instances are ranked by descending cost
// (network order on ties) and the instance of rank k only gets variables for
// partitions 0..k: any assignment can be relabeled in order of first use to
// fit. total is also bounded below by the largest single cost.
type ProfileAssigner struct {
	NumPartitions int
	// NewModel creates the solver model. Defaults to milp.NewModel.
	NewModel func(milp.Limits) (milp.Model, error)
	Limits   milp.Limits
	Reporter diag.Reporter
}

// Assign solves the model for net under costs. costs is copied before
// solving. On any solver failure it reports an ERROR and returns a
// *SolverError with a nil assignment.
func (a ProfileAssigner) Assign(ctx context.Context, net *ir.Network, costs *profile.CostModel) (*Assignment, error) {
	if a.NumPartitions < 1 {
		return nil, fmt.Errorf("number of partitions must be positive, got %d", a.NumPartitions)
	}
	rep := reporterOrDiscard(a.Reporter)
	costs = costs.Clone()

	names := net.InstanceNames()
	cost := make([]int64, len(names))
	var sum, maxCost int64
	for i, name := range names {
		t, ok := costs.InstanceCost(name)
		if !ok {
			rep.Report(diag.Warningf(Phase, "instance %s: no profiled cost, assuming 0 ticks", name))
		}
		cost[i] = t
		sum += t
		maxCost = max(maxCost, t)
	}
	rank := make([]int, len(names))
	byCost := make([]int, len(names))
	for i := range byCost {
		byCost[i] = i
	}
	sort.SliceStable(byCost, func(p, q int) bool { return cost[byCost[p]] > cost[byCost[q]] })
	for r, i := range byCost {
		rank[i] = r
	}

	result := &Assignment{
		Strategy:      StrategyProfile,
		Order:         names,
		NumPartitions: a.NumPartitions,
		Index:         make(map[string]int, len(names)),
		Ticks:         make([]int64, a.NumPartitions),
		Status:        milp.StatusOptimal,
	}
	if len(names) == 0 {
		return result, nil
	}

	newModel := a.NewModel
	if newModel == nil {
		newModel = milp.NewModel
	}
	m, err := newModel(a.Limits)
	if err != nil {
		return nil, a.fail(rep, milp.StatusNotSolved, err)
	}

	// x[i] holds the variables of partitions 0..min(rank, P-1).
	x := make([][]milp.Var, len(names))
	for i, name := range names {
		x[i] = make([]milp.Var, min(rank[i]+1, a.NumPartitions))
		one := make(milp.Expr, len(x[i]))
		for p := range x[i] {
			x[i][p] = m.AddBinaryVar(fmt.Sprintf("x[%s,%d]", name, p))
			one[p] = milp.T(1, x[i][p])
		}
		m.AddConstraint("one_"+name, one, milp.Equal, 1)
	}

	ticks := make([]milp.Var, a.NumPartitions)
	for p := range ticks {
		ticks[p] = m.AddVar(fmt.Sprintf("ticks[%d]", p), 0, float64(sum))
		expr := milp.Expr{milp.T(1, ticks[p])}
		for i := range names {
			if cost[i] != 0 && p < len(x[i]) {
				expr = append(expr, milp.T(-float64(cost[i]), x[i][p]))
			}
		}
		m.AddConstraint(fmt.Sprintf("ticks_%d", p), expr, milp.Equal, 0)
	}
	total := m.AddIntVar("total", float64(maxCost), math.Inf(1))
	m.AddMaxConstraint("makespan", total, ticks)
	m.SetObjective(milp.Expr{milp.T(1, total)}, true)

	status, err := m.Optimize(ctx)
	if err != nil {
		return nil, a.fail(rep, status, err)
	}
	if !status.HasSolution() {
		return nil, a.fail(rep, status, fmt.Errorf("no solution"))
	}

	for i, name := range names {
		best, bestVal := 0, math.Inf(-1)
		for p := range x[i] {
			if v := m.Value(x[i][p]); v > bestVal {
				best, bestVal = p, v
			}
		}
		result.Index[name] = best
		result.Ticks[best] += cost[i]
		rep.Report(diag.Infof(Phase, "instance %s: partition %d", name, best))
	}
	for _, t := range result.Ticks {
		if t > result.Makespan {
			result.Makespan = t
		}
	}
	result.Status = status
	rep.Report(diag.Infof(Phase, "makespan %s ticks over %d partitions (%s)",
		humanize.Comma(result.Makespan), a.NumPartitions, status))
	return result, nil
}

func (a ProfileAssigner) fail(rep diag.Reporter, status milp.Status, err error) error {
	serr := &SolverError{Status: status, Err: err}
	rep.Report(diag.FromError(Phase, serr))
	return serr
}
