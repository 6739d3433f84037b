// Package milp defines the narrow mixed-integer programming interface the
// partition assigner builds its model against.
//
// Solver implementations live in sub-packages and register themselves via
// init() by setting NewModelFunc, so callers select a backend with a blank
// import:
//
//	import _ "github.com/actorflow/partc/milp/bnb"
package milp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Var is a handle to a model variable, valid only for the model that created it.
type Var int

// Term is coef·var.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression: the sum of its terms.
type Expr []Term

// T builds a term.
func T(coef float64, v Var) Term { return Term{Var: v, Coef: coef} }

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	Equal
	GreaterEq
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case Equal:
		return "="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Status is the outcome of Optimize.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal          // proven optimal
	StatusFeasible         // stopping rule hit; best incumbent returned
	StatusInfeasible
	StatusUnbounded
	StatusNoSolution // stopping rule hit before any incumbent was found
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "not-solved"
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusNoSolution:
		return "no-solution"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// HasSolution reports whether Value and ObjectiveValue are meaningful.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Errors returned by Optimize alongside the matching Status.
var (
	ErrInfeasible = errors.New("milp: model is infeasible")
	ErrUnbounded  = errors.New("milp: model is unbounded")
	ErrNoSolution = errors.New("milp: stopping rule reached before a feasible solution was found")
	ErrNoSolver   = errors.New("milp: no solver registered")
)

// Limits is the caller-supplied budget of a solve. Zero means unlimited.
// Hitting a limit is a stopping rule, not a failure: the best incumbent is
// returned with StatusFeasible.
type Limits struct {
	TimeLimit time.Duration
	NodeLimit int
}

// Model is a mixed-integer linear program under construction.
type Model interface {
	// AddBinaryVar adds a variable restricted to {0, 1}.
	AddBinaryVar(name string) Var

	// AddVar adds a continuous variable bounded to [lb, ub]. ub may be +Inf.
	AddVar(name string, lb, ub float64) Var

	// AddIntVar adds an integer variable bounded to [lb, ub]. ub may be +Inf.
	AddIntVar(name string, lb, ub float64) Var

	// AddConstraint adds expr (sense) rhs.
	AddConstraint(name string, expr Expr, sense Sense, rhs float64)

	// AddMaxConstraint constrains result = max(args).
	AddMaxConstraint(name string, result Var, args []Var)

	// SetObjective sets the expression to minimize (or maximize).
	SetObjective(expr Expr, minimize bool)

	// Optimize solves the model. It blocks until the solve finishes, a limit
	// is hit or ctx is done. Cancellation returns ctx.Err() wrapped, never a
	// partial solution.
	Optimize(ctx context.Context) (Status, error)

	// Value returns the solved value of v. Valid only when the last Optimize
	// status HasSolution.
	Value(v Var) float64

	// ObjectiveValue returns the solved objective value.
	ObjectiveValue() float64
}

// NewModelFunc creates a solver model. Set by solver packages in init().
var NewModelFunc func(limits Limits) Model

// NewModel creates a model with the registered solver.
func NewModel(limits Limits) (Model, error) {
	if NewModelFunc == nil {
		return nil, ErrNoSolver
	}
	return NewModelFunc(limits), nil
}
