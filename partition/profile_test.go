package partition

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/internal/testutil"
	"github.com/actorflow/partc/milp"
	_ "github.com/actorflow/partc/milp/bnb"
	"github.com/actorflow/partc/profile"
)

func TestProfileAssigner_MinimizesMakespan(t *testing.T) {
	// GIVEN costs A:10, B:20, C:5 and two partitions
	net := testutil.Chain(t, "A", "B", "C")
	costs := profile.FromTicks(map[string]int64{"A": 10, "B": 20, "C": 5})
	rep := diag.NewCollector(nil)
	assigner := ProfileAssigner{NumPartitions: 2, Reporter: rep}

	// WHEN the optimal assignment is solved
	a, err := assigner.Assign(context.Background(), net, costs)

	// THEN B sits alone and the makespan is 20
	require.NoError(t, err)
	assert.Equal(t, int64(20), a.Makespan)
	assert.Equal(t, milp.StatusOptimal, a.Status)
	require.Len(t, a.Index, 3)
	for name, p := range a.Index {
		assert.True(t, p >= 0 && p < 2, "instance %s in partition %d", name, p)
	}
	assert.NotEqual(t, a.Index["B"], a.Index["A"])
	assert.Equal(t, a.Index["A"], a.Index["C"])
	assert.Equal(t, int64(35), a.Ticks[0]+a.Ticks[1])

	// one INFO per instance plus the makespan summary
	assert.Len(t, rep.BySeverity(diag.SeverityInfo), 4)
	assert.Equal(t, "instance A: partition 1", rep.Diagnostics()[0].Message)
}

func TestProfileAssigner_ChainScenario(t *testing.T) {
	net := testutil.Chain(t, "S", "F", "D")
	costs := profile.FromTicks(map[string]int64{"S": 5, "F": 12, "D": 3})

	a, err := ProfileAssigner{NumPartitions: 2}.Assign(context.Background(), net, costs)

	require.NoError(t, err)
	assert.Equal(t, int64(12), a.Makespan)
	assert.Equal(t, []string{"F"}, a.Members(a.Index["F"]))
	assert.Equal(t, []string{"S", "D"}, a.Members(a.Index["S"]))
	assert.ElementsMatch(t, []int64{12, 8}, a.Ticks)
}

func TestProfileAssigner_SinglePartition(t *testing.T) {
	net := testutil.Chain(t, "A", "B")
	costs := profile.FromTicks(map[string]int64{"A": 2, "B": 3})

	a, err := ProfileAssigner{NumPartitions: 1}.Assign(context.Background(), net, costs)

	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Makespan)
	assert.Equal(t, map[string]int{"A": 0, "B": 0}, a.Index)
}

func TestProfileAssigner_MissingCost_Warns(t *testing.T) {
	net := testutil.Chain(t, "A", "B")
	costs := profile.FromTicks(map[string]int64{"A": 4})
	rep := diag.NewCollector(nil)

	a, err := ProfileAssigner{NumPartitions: 2, Reporter: rep}.Assign(context.Background(), net, costs)

	require.NoError(t, err)
	assert.Equal(t, int64(4), a.Makespan)
	warnings := rep.BySeverity(diag.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "instance B")
}

func TestProfileAssigner_EmptyNetwork(t *testing.T) {
	net := testutil.Network(t, nil, nil, nil, nil)

	a, err := ProfileAssigner{NumPartitions: 2}.Assign(context.Background(), net, profile.NewCostModel())

	require.NoError(t, err)
	assert.Empty(t, a.Index)
	assert.Equal(t, int64(0), a.Makespan)
}

func TestProfileAssigner_SolverFailure_NoAssignment(t *testing.T) {
	net := testutil.Chain(t, "A", "B", "C")
	costs := profile.FromTicks(map[string]int64{"A": 1, "B": 2, "C": 3})

	tests := []struct {
		name  string
		ctx   func() context.Context
		model func(milp.Limits) (milp.Model, error)
		cause error
	}{
		{
			name:  "no solver",
			ctx:   context.Background,
			model: func(milp.Limits) (milp.Model, error) { return nil, milp.ErrNoSolver },
			cause: milp.ErrNoSolver,
		},
		{
			name: "cancelled",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			cause: context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := diag.NewCollector(nil)
			assigner := ProfileAssigner{NumPartitions: 2, NewModel: tt.model, Reporter: rep}

			a, err := assigner.Assign(tt.ctx(), net, costs)

			assert.Nil(t, a)
			var serr *SolverError
			require.True(t, errors.As(err, &serr))
			assert.ErrorIs(t, err, tt.cause)
			assert.True(t, rep.HasErrors())
		})
	}
}

func TestProfileAssigner_NodeLimit_StopsWithoutGarbage(t *testing.T) {
	net := testutil.Chain(t, "A", "B", "C")
	costs := profile.FromTicks(map[string]int64{"A": 10, "B": 20, "C": 5})

	a, err := ProfileAssigner{NumPartitions: 2, Limits: milp.Limits{NodeLimit: 1}}.Assign(context.Background(), net, costs)

	// A single node either already proves an integral optimum or yields nothing.
	if err != nil {
		assert.Nil(t, a)
		var serr *SolverError
		assert.True(t, errors.As(err, &serr))
		return
	}
	assert.Len(t, a.Index, 3)
}

func TestProfileAssigner_RejectsNonPositivePartitionCount(t *testing.T) {
	net := testutil.Chain(t, "A")
	_, err := ProfileAssigner{}.Assign(context.Background(), net, profile.NewCostModel())
	assert.ErrorContains(t, err, "must be positive")
}

func TestProfileAssigner_DoesNotMutateCosts(t *testing.T) {
	net := testutil.Chain(t, "A", "B")
	costs := profile.FromTicks(map[string]int64{"A": 1, "B": 1})

	_, err := ProfileAssigner{NumPartitions: 2}.Assign(context.Background(), net, costs)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, costs.InstanceNames())
	assert.Equal(t, int64(2), costs.TotalCost())
}

// bestMakespan enumerates every assignment of costs to parts partitions.
func bestMakespan(costs []int64, parts int) int64 {
	load := make([]int64, parts)
	best := int64(-1)
	var walk func(i int)
	walk = func(i int) {
		if i == len(costs) {
			var worst int64
			for _, l := range load {
				worst = max(worst, l)
			}
			if best < 0 || worst < best {
				best = worst
			}
			return
		}
		for p := range load {
			load[p] += costs[i]
			walk(i + 1)
			load[p] -= costs[i]
		}
	}
	walk(0)
	return best
}

// chainOf names instances I0..In-1 and maps each to its cost.
func chainOf(costs []int64) (names []string, ticks map[string]int64) {
	ticks = make(map[string]int64, len(costs))
	for i, c := range costs {
		name := fmt.Sprintf("I%d", i)
		names = append(names, name)
		ticks[name] = c
	}
	return names, ticks
}

func TestProfileAssigner_MatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for c := 0; c < 60; c++ {
		n := 1 + rng.Intn(8)
		parts := 1 + rng.Intn(4)
		costs := make([]int64, n)
		for i := range costs {
			costs[i] = int64(1 + rng.Intn(50))
		}
		t.Run(fmt.Sprintf("%v/%d", costs, parts), func(t *testing.T) {
			names, ticks := chainOf(costs)
			net := testutil.Chain(t, names...)

			a, err := ProfileAssigner{NumPartitions: parts}.Assign(context.Background(), net, profile.FromTicks(ticks))

			require.NoError(t, err)
			assert.Equal(t, milp.StatusOptimal, a.Status)
			assert.Equal(t, bestMakespan(costs, parts), a.Makespan)
			require.Len(t, a.Index, n)
			var sum int64
			for _, tk := range a.Ticks {
				sum += tk
				assert.LessOrEqual(t, tk, a.Makespan)
			}
			var want int64
			for _, c := range costs {
				want += c
			}
			assert.Equal(t, want, sum)
		})
	}
}

func TestProfileAssigner_DegenerateChain_SolvesWithinBudget(t *testing.T) {
	// GIVEN a nine-instance chain whose relaxations are highly degenerate
	costs := []int64{6, 19, 7, 7, 2, 25, 31, 3, 45}
	names, ticks := chainOf(costs)
	net := testutil.Chain(t, names...)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assigner := ProfileAssigner{NumPartitions: 2, Limits: milp.Limits{TimeLimit: time.Second}}

	// WHEN assigned under a one second budget
	start := time.Now()
	a, err := assigner.Assign(ctx, net, profile.FromTicks(ticks))
	elapsed := time.Since(start)

	// THEN the balanced split is found in time
	require.NoError(t, err)
	assert.Less(t, elapsed, 1500*time.Millisecond)
	assert.Equal(t, int64(73), a.Makespan)
	assert.Equal(t, milp.StatusOptimal, a.Status)
}

func TestProfileAssigner_ReturnsWithinTimeLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	costs := make([]int64, 24)
	for i := range costs {
		costs[i] = int64(100 + rng.Intn(900))
	}
	names, ticks := chainOf(costs)
	net := testutil.Chain(t, names...)
	limit := 200 * time.Millisecond

	start := time.Now()
	a, err := ProfileAssigner{NumPartitions: 4, Limits: milp.Limits{TimeLimit: limit}}.Assign(context.Background(), net, profile.FromTicks(ticks))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, limit+time.Second)
	if err != nil {
		var serr *SolverError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, milp.StatusNoSolution, serr.Status)
		return
	}
	assert.True(t, a.Status.HasSolution())
	assert.GreaterOrEqual(t, a.Makespan, bestLowerBound(costs, 4))
}

// bestLowerBound is max(largest cost, ceil(total / parts)).
func bestLowerBound(costs []int64, parts int64) int64 {
	var sum, top int64
	for _, c := range costs {
		sum += c
		top = max(top, c)
	}
	return max(top, (sum+parts-1)/parts)
}
