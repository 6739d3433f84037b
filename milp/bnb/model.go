// Package bnb is a small depth-first branch-and-bound MILP solver. Each node
// solves its LP relaxation with a dense two-phase simplex over gonum
// matrices, polling the context and the time limit before every pivot.
//
// It targets the modest models the partition assigner builds (one binary per
// instance and partition) and is not a general-purpose solver: variables need
// finite lower bounds and max constraints are linearized as result >= arg,
// which is exact when the objective pushes result down. A node whose
// relaxation fails numerically is pruned and the solve can then no longer
// claim optimality.
package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/actorflow/partc/milp"
)

// intTol is the distance from an integer below which a value counts as integral.
const intTol = 1e-6

// errTimeLimit stops a relaxation when the solve deadline passes.
var errTimeLimit = errors.New("bnb: time limit reached")

type variable struct {
	name    string
	lb, ub  float64
	integer bool
}

type maxConstraint struct {
	name   string
	result milp.Var
	args   []milp.Var
}

// Model implements milp.Model.
type Model struct {
	limits    milp.Limits
	vars      []variable
	rows      []row
	maxes     []maxConstraint
	objective milp.Expr
	minimize  bool

	status   milp.Status
	values   []float64
	objValue float64
	nodes    int
	unsolved int
}

// NewModel creates an empty model solved under limits.
func NewModel(limits milp.Limits) *Model {
	return &Model{limits: limits, minimize: true}
}

// AddBinaryVar implements milp.Model.
func (m *Model) AddBinaryVar(name string) milp.Var {
	m.vars = append(m.vars, variable{name: name, lb: 0, ub: 1, integer: true})
	return milp.Var(len(m.vars) - 1)
}

// AddIntVar implements milp.Model.
func (m *Model) AddIntVar(name string, lb, ub float64) milp.Var {
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, integer: true})
	return milp.Var(len(m.vars) - 1)
}

// AddVar implements milp.Model.
func (m *Model) AddVar(name string, lb, ub float64) milp.Var {
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub})
	return milp.Var(len(m.vars) - 1)
}

// AddConstraint implements milp.Model.
func (m *Model) AddConstraint(name string, expr milp.Expr, sense milp.Sense, rhs float64) {
	terms := make(milp.Expr, len(expr))
	copy(terms, expr)
	m.rows = append(m.rows, row{terms: terms, sense: sense, rhs: rhs})
}

// AddMaxConstraint implements milp.Model.
func (m *Model) AddMaxConstraint(name string, result milp.Var, args []milp.Var) {
	a := make([]milp.Var, len(args))
	copy(a, args)
	m.maxes = append(m.maxes, maxConstraint{name: name, result: result, args: a})
}

// SetObjective implements milp.Model.
func (m *Model) SetObjective(expr milp.Expr, minimize bool) {
	m.objective = make(milp.Expr, len(expr))
	copy(m.objective, expr)
	m.minimize = minimize
}

// Value implements milp.Model.
func (m *Model) Value(v milp.Var) float64 {
	if !m.status.HasSolution() || int(v) < 0 || int(v) >= len(m.values) {
		return math.NaN()
	}
	return m.values[v]
}

// ObjectiveValue implements milp.Model.
func (m *Model) ObjectiveValue() float64 {
	if !m.status.HasSolution() {
		return math.NaN()
	}
	return m.objValue
}

// Nodes returns the number of branch-and-bound nodes explored by the last solve.
func (m *Model) Nodes() int { return m.nodes }

// Unsolved returns the number of nodes of the last solve whose relaxation
// failed numerically and was pruned without a bound.
func (m *Model) Unsolved() int { return m.unsolved }

func (m *Model) validate() error {
	for _, v := range m.vars {
		if math.IsNaN(v.lb) || math.IsInf(v.lb, 0) {
			return fmt.Errorf("bnb: variable %q: lower bound must be finite, got %v", v.name, v.lb)
		}
		if math.IsNaN(v.ub) || v.ub < v.lb {
			return fmt.Errorf("bnb: variable %q: upper bound %v below lower bound %v", v.name, v.ub, v.lb)
		}
	}
	check := func(v milp.Var) error {
		if int(v) < 0 || int(v) >= len(m.vars) {
			return fmt.Errorf("bnb: unknown variable handle %d", v)
		}
		return nil
	}
	for _, r := range m.rows {
		for _, t := range r.terms {
			if err := check(t.Var); err != nil {
				return err
			}
		}
	}
	for _, mc := range m.maxes {
		if len(mc.args) == 0 {
			return fmt.Errorf("bnb: max constraint %q has no arguments", mc.name)
		}
		if err := check(mc.result); err != nil {
			return err
		}
		for _, a := range mc.args {
			if err := check(a); err != nil {
				return err
			}
		}
	}
	for _, t := range m.objective {
		if err := check(t.Var); err != nil {
			return err
		}
	}
	return nil
}

// node is a set of tightened bounds awaiting its relaxation.
type node struct {
	lb, ub []float64
}

// Optimize implements milp.Model.
func (m *Model) Optimize(ctx context.Context) (milp.Status, error) {
	m.status, m.values, m.objValue, m.nodes, m.unsolved = milp.StatusNotSolved, nil, 0, 0, 0
	if err := m.validate(); err != nil {
		return m.status, err
	}

	n := len(m.vars)
	obj := make([]float64, n)
	sign := 1.0
	if !m.minimize {
		sign = -1
	}
	for _, t := range m.objective {
		obj[t.Var] += sign * t.Coef
	}
	rows := make([]row, 0, len(m.rows)+len(m.maxes))
	rows = append(rows, m.rows...)
	for _, mc := range m.maxes {
		for _, a := range mc.args {
			rows = append(rows, row{terms: milp.Expr{milp.T(1, mc.result), milp.T(-1, a)}, sense: milp.GreaterEq})
		}
	}

	root := node{lb: make([]float64, n), ub: make([]float64, n)}
	for j, v := range m.vars {
		root.lb[j], root.ub[j] = v.lb, v.ub
		if v.integer {
			root.lb[j], root.ub[j] = math.Ceil(v.lb-intTol), math.Floor(v.ub+intTol)
		}
	}

	var deadline time.Time
	if m.limits.TimeLimit > 0 {
		deadline = time.Now().Add(m.limits.TimeLimit)
	}
	check := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return errTimeLimit
		}
		return nil
	}
	integral := m.integralObjective()

	var (
		best      []float64
		bestObj   = math.Inf(1)
		stack     = []node{root}
		exhausted = true
	)
	for len(stack) > 0 {
		if err := check(); err != nil {
			if errors.Is(err, errTimeLimit) {
				exhausted = false
				break
			}
			return m.status, fmt.Errorf("bnb: solve interrupted: %w", err)
		}
		if m.limits.NodeLimit > 0 && m.nodes >= m.limits.NodeLimit {
			exhausted = false
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.nodes++

		if infeasibleBounds(nd) {
			continue
		}
		rel := relaxation{obj: obj, rows: rows, lb: nd.lb, ub: nd.ub}
		st, val, x, err := rel.solve(check)
		switch {
		case errors.Is(err, errTimeLimit):
			exhausted = false
			stack = nil
			continue
		case errors.Is(err, errNumerical):
			m.unsolved++
			continue
		case err != nil:
			return m.status, fmt.Errorf("bnb: solve interrupted: %w", err)
		}
		switch st {
		case relaxInfeasible:
			continue
		case relaxUnbounded:
			m.status = milp.StatusUnbounded
			return m.status, milp.ErrUnbounded
		}
		bound := val
		if integral {
			bound = math.Ceil(val - intTol)
		}
		if bound >= bestObj-eps {
			continue
		}

		branch := m.branchVar(x)
		if branch < 0 {
			best = m.roundIntegers(x)
			bestObj = dot(obj, best)
			continue
		}
		down := node{lb: clone(nd.lb), ub: clone(nd.ub)}
		down.ub[branch] = math.Floor(x[branch])
		up := node{lb: clone(nd.lb), ub: clone(nd.ub)}
		up.lb[branch] = math.Ceil(x[branch])
		// LIFO: the up branch is explored first.
		stack = append(stack, down, up)
	}
	if m.unsolved > 0 {
		exhausted = false
	}

	if best == nil {
		if exhausted {
			m.status = milp.StatusInfeasible
			return m.status, milp.ErrInfeasible
		}
		m.status = milp.StatusNoSolution
		return m.status, milp.ErrNoSolution
	}
	m.values = best
	m.applyMaxes()
	m.objValue = 0
	for _, t := range m.objective {
		m.objValue += t.Coef * m.values[t.Var]
	}
	m.status = milp.StatusOptimal
	if !exhausted {
		m.status = milp.StatusFeasible
	}
	return m.status, nil
}

// integralObjective reports whether every solution has an integer objective:
// all terms are integer coefficients on integer variables.
func (m *Model) integralObjective() bool {
	for _, t := range m.objective {
		if !m.vars[t.Var].integer || t.Coef != math.Trunc(t.Coef) {
			return false
		}
	}
	return len(m.objective) > 0
}

// branchVar returns the integer variable farthest from integrality, lowest
// index on ties, or -1 when x is integral.
func (m *Model) branchVar(x []float64) int {
	branch, worst := -1, intTol
	for j, v := range m.vars {
		if !v.integer {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > worst {
			branch, worst = j, frac
		}
	}
	return branch
}

func (m *Model) roundIntegers(x []float64) []float64 {
	out := clone(x)
	for j, v := range m.vars {
		if v.integer {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

// applyMaxes tightens each max result to the largest argument value. The
// linearization only guarantees result >= every argument.
func (m *Model) applyMaxes() {
	for _, mc := range m.maxes {
		hi := math.Inf(-1)
		for _, a := range mc.args {
			hi = math.Max(hi, m.values[a])
		}
		m.values[mc.result] = hi
	}
}

func infeasibleBounds(nd node) bool {
	for j := range nd.lb {
		if nd.lb[j] > nd.ub[j]+eps {
			return true
		}
	}
	return false
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
