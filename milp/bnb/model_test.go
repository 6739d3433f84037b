package bnb

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actorflow/partc/milp"
)

func TestOptimize_ContinuousLP(t *testing.T) {
	// GIVEN min x subject to x >= 2.5, x in [0, 10]
	m := NewModel(milp.Limits{})
	x := m.AddVar("x", 0, 10)
	m.AddConstraint("floor", milp.Expr{milp.T(1, x)}, milp.GreaterEq, 2.5)
	m.SetObjective(milp.Expr{milp.T(1, x)}, true)

	// WHEN solved
	status, err := m.Optimize(context.Background())

	// THEN the bound is tight
	require.NoError(t, err)
	assert.Equal(t, milp.StatusOptimal, status)
	assert.InDelta(t, 2.5, m.Value(x), 1e-9)
	assert.InDelta(t, 2.5, m.ObjectiveValue(), 1e-9)
}

func TestOptimize_BinaryKnapsack_Maximize(t *testing.T) {
	m := NewModel(milp.Limits{})
	a := m.AddBinaryVar("a")
	b := m.AddBinaryVar("b")
	c := m.AddBinaryVar("c")
	m.AddConstraint("weight", milp.Expr{milp.T(2, a), milp.T(3, b), milp.T(1, c)}, milp.LessEq, 5)
	m.SetObjective(milp.Expr{milp.T(5, a), milp.T(4, b), milp.T(3, c)}, false)

	status, err := m.Optimize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, milp.StatusOptimal, status)
	assert.InDelta(t, 9, m.ObjectiveValue(), 1e-6)
	assert.Equal(t, 1.0, m.Value(a))
	assert.Equal(t, 1.0, m.Value(b))
	assert.Equal(t, 0.0, m.Value(c))
}

// makespan builds min max_p Σ_i cost[i]·x[i,p] with one partition per instance.
func makespan(m milp.Model, costs []float64, parts int) (x [][]milp.Var, total milp.Var) {
	var sum float64
	for _, c := range costs {
		sum += c
	}
	x = make([][]milp.Var, len(costs))
	for i := range costs {
		x[i] = make([]milp.Var, parts)
		var one milp.Expr
		for p := 0; p < parts; p++ {
			x[i][p] = m.AddBinaryVar("x")
			one = append(one, milp.T(1, x[i][p]))
		}
		m.AddConstraint("one", one, milp.Equal, 1)
	}
	ticks := make([]milp.Var, parts)
	for p := 0; p < parts; p++ {
		ticks[p] = m.AddVar("ticks", 0, sum)
		expr := milp.Expr{milp.T(1, ticks[p])}
		for i, c := range costs {
			expr = append(expr, milp.T(-c, x[i][p]))
		}
		m.AddConstraint("ticks", expr, milp.Equal, 0)
	}
	total = m.AddVar("total", 0, math.Inf(1))
	m.AddMaxConstraint("total", total, ticks)
	m.SetObjective(milp.Expr{milp.T(1, total)}, true)
	return x, total
}

func TestOptimize_Makespan(t *testing.T) {
	tests := []struct {
		name  string
		costs []float64
		parts int
		want  float64
	}{
		{"three into two", []float64{10, 20, 5}, 2, 20},
		{"chain into two", []float64{5, 12, 3}, 2, 12},
		{"balanced", []float64{4, 4, 4, 4}, 2, 8},
		{"single partition", []float64{1, 2, 3}, 1, 6},
		{"more partitions than instances", []float64{7, 3}, 3, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(milp.Limits{})
			x, total := makespan(m, tt.costs, tt.parts)

			status, err := m.Optimize(context.Background())

			require.NoError(t, err)
			assert.Equal(t, milp.StatusOptimal, status)
			assert.InDelta(t, tt.want, m.ObjectiveValue(), 1e-6)
			assert.InDelta(t, tt.want, m.Value(total), 1e-6)
			for i := range x {
				var ones float64
				for p := range x[i] {
					ones += m.Value(x[i][p])
				}
				assert.Equal(t, 1.0, ones, "instance %d", i)
			}
		})
	}
}

func TestOptimize_Infeasible(t *testing.T) {
	m := NewModel(milp.Limits{})
	x := m.AddBinaryVar("x")
	m.AddConstraint("impossible", milp.Expr{milp.T(1, x)}, milp.GreaterEq, 2)
	m.SetObjective(milp.Expr{milp.T(1, x)}, true)

	status, err := m.Optimize(context.Background())

	assert.ErrorIs(t, err, milp.ErrInfeasible)
	assert.Equal(t, milp.StatusInfeasible, status)
	assert.True(t, math.IsNaN(m.Value(x)))
}

func TestOptimize_IntegerInfeasible(t *testing.T) {
	// x + y = 1 with x = y has a fractional LP solution only.
	m := NewModel(milp.Limits{})
	x := m.AddBinaryVar("x")
	y := m.AddBinaryVar("y")
	m.AddConstraint("sum", milp.Expr{milp.T(1, x), milp.T(1, y)}, milp.Equal, 1)
	m.AddConstraint("same", milp.Expr{milp.T(1, x), milp.T(-1, y)}, milp.Equal, 0)

	_, err := m.Optimize(context.Background())

	assert.ErrorIs(t, err, milp.ErrInfeasible)
}

func TestOptimize_Unbounded(t *testing.T) {
	m := NewModel(milp.Limits{})
	x := m.AddVar("x", 0, math.Inf(1))
	m.SetObjective(milp.Expr{milp.T(1, x)}, false)

	status, err := m.Optimize(context.Background())

	assert.ErrorIs(t, err, milp.ErrUnbounded)
	assert.Equal(t, milp.StatusUnbounded, status)
}

func TestOptimize_NodeLimit_NoIncumbent(t *testing.T) {
	// GIVEN a makespan model whose root relaxation is fractional
	m := NewModel(milp.Limits{NodeLimit: 1})
	makespan(m, []float64{10, 20, 5}, 2)

	// WHEN only one node may be explored
	status, err := m.Optimize(context.Background())

	// THEN no solution is reported rather than a partial one
	assert.ErrorIs(t, err, milp.ErrNoSolution)
	assert.Equal(t, milp.StatusNoSolution, status)
	assert.Equal(t, 1, m.Nodes())
}

func TestOptimize_CancelledContext(t *testing.T) {
	m := NewModel(milp.Limits{})
	makespan(m, []float64{1, 2, 3}, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Optimize(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, math.IsNaN(m.ObjectiveValue()))
}

func TestOptimize_InvalidModel(t *testing.T) {
	m := NewModel(milp.Limits{})
	m.AddVar("free", math.Inf(-1), 0)
	_, err := m.Optimize(context.Background())
	assert.ErrorContains(t, err, "lower bound must be finite")

	m = NewModel(milp.Limits{})
	m.AddConstraint("dangling", milp.Expr{milp.T(1, milp.Var(3))}, milp.LessEq, 1)
	_, err = m.Optimize(context.Background())
	assert.ErrorContains(t, err, "unknown variable handle 3")
}

func TestRegister_SetsFactory(t *testing.T) {
	model, err := milp.NewModel(milp.Limits{NodeLimit: 5})
	require.NoError(t, err)
	_, ok := model.(*Model)
	assert.True(t, ok)
}

func TestOptimize_TimeLimit_StopsBeforeIncumbent(t *testing.T) {
	m := NewModel(milp.Limits{TimeLimit: time.Nanosecond})
	makespan(m, []float64{10, 20, 5}, 2)

	status, err := m.Optimize(context.Background())

	assert.ErrorIs(t, err, milp.ErrNoSolution)
	assert.Equal(t, milp.StatusNoSolution, status)
}

func TestOptimize_IntegerObjective_Optimal(t *testing.T) {
	// GIVEN a makespan model whose result is declared integer
	m := NewModel(milp.Limits{})
	costs := []float64{6, 19, 7, 7, 2, 25, 31, 3, 45}
	var sum float64
	x := make([][]milp.Var, len(costs))
	for i := range costs {
		sum += costs[i]
		x[i] = []milp.Var{m.AddBinaryVar("x0"), m.AddBinaryVar("x1")}
		m.AddConstraint("one", milp.Expr{milp.T(1, x[i][0]), milp.T(1, x[i][1])}, milp.Equal, 1)
	}
	ticks := make([]milp.Var, 2)
	for p := range ticks {
		ticks[p] = m.AddVar("ticks", 0, sum)
		expr := milp.Expr{milp.T(1, ticks[p])}
		for i, c := range costs {
			expr = append(expr, milp.T(-c, x[i][p]))
		}
		m.AddConstraint("ticks", expr, milp.Equal, 0)
	}
	total := m.AddIntVar("total", 45, math.Inf(1))
	m.AddMaxConstraint("total", total, ticks)
	m.SetObjective(milp.Expr{milp.T(1, total)}, true)

	// WHEN solved
	status, err := m.Optimize(context.Background())

	// THEN the even split 73/72 is proven optimal
	require.NoError(t, err)
	assert.Equal(t, milp.StatusOptimal, status)
	assert.InDelta(t, 73, m.ObjectiveValue(), 1e-6)
	assert.Zero(t, m.Unsolved())
}
