package bnb

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/actorflow/partc/milp"
)

// eps is the tolerance for zero coefficients, fixed bounds and row feasibility.
const eps = 1e-9

type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
)

// row is a linear constraint over model variables.
type row struct {
	terms milp.Expr
	sense milp.Sense
	rhs   float64
}

// relaxation is the LP relaxation of a model at one branch-and-bound node.
type relaxation struct {
	obj  []float64 // minimization coefficients, one per model variable
	rows []row
	lb   []float64
	ub   []float64
}

type stdRow struct {
	coef  map[int]float64
	slack float64 // coefficient of this row's slack column, 0 if none
	rhs   float64
}

// solve solves the relaxation and returns the objective and a value per
// model variable. check is polled by the simplex before every pivot.
//
// Variables are shifted to y = x - lb >= 0; fixed variables become
// constants; finite upper bounds become rows y + t = ub - lb unless another
// row already implies them; inequality rows get a slack column. Rows left
// without a variable are checked and dropped.
func (r *relaxation) solve(check func() error) (relaxStatus, float64, []float64, error) {
	n := len(r.obj)
	x := make([]float64, n)
	col := make([]int, n) // model variable -> standard-form column, -1 if fixed
	cols := 0
	constant := 0.0
	for j := 0; j < n; j++ {
		x[j] = r.lb[j]
		constant += r.obj[j] * r.lb[j]
		if r.ub[j]-r.lb[j] <= eps {
			col[j] = -1
			continue
		}
		col[j] = cols
		cols++
	}

	var rows []stdRow
	equalities := make(map[string]float64) // rowKey -> rhs
	for _, rw := range r.rows {
		coef := make(map[int]float64)
		rhs := rw.rhs
		for _, t := range rw.terms {
			j := int(t.Var)
			rhs -= t.Coef * r.lb[j]
			if col[j] >= 0 {
				coef[col[j]] += t.Coef
			}
		}
		for c, v := range coef {
			if math.Abs(v) <= eps {
				delete(coef, c)
			}
		}
		if len(coef) == 0 {
			if !constantRowHolds(rw.sense, rhs) {
				return relaxInfeasible, 0, nil, nil
			}
			continue
		}
		sr := stdRow{coef: coef, rhs: rhs}
		switch rw.sense {
		case milp.LessEq:
			sr.slack = 1
		case milp.GreaterEq:
			sr.slack = -1
		default:
			key := rowKey(coef)
			if prev, dup := equalities[key]; dup {
				if math.Abs(prev-rhs) > eps {
					return relaxInfeasible, 0, nil, nil
				}
				continue
			}
			equalities[key] = rhs
		}
		rows = append(rows, sr)
	}

	implied := impliedBounds(rows, cols)
	for j := 0; j < n; j++ {
		c := col[j]
		if c < 0 || math.IsInf(r.ub[j], 1) || implied[c] <= r.ub[j]-r.lb[j]+eps {
			continue
		}
		rows = append(rows, stdRow{coef: map[int]float64{c: 1}, slack: 1, rhs: r.ub[j] - r.lb[j]})
	}

	// Columns no row touches are decided by their objective sign alone.
	touched := make([]bool, cols)
	for _, sr := range rows {
		for c := range sr.coef {
			touched[c] = true
		}
	}
	live := make([]int, cols) // column -> compacted column, -1 if dropped
	liveCols := 0
	for j := 0; j < n; j++ {
		c := col[j]
		if c < 0 {
			continue
		}
		if touched[c] {
			live[c] = liveCols
			liveCols++
			continue
		}
		live[c] = -1
		if r.obj[j] < -eps {
			return relaxUnbounded, 0, nil, nil
		}
	}

	slacks := 0
	for _, sr := range rows {
		if sr.slack != 0 {
			slacks++
		}
	}
	m, width := len(rows), liveCols+slacks
	if m == 0 {
		return relaxOptimal, constant, x, nil
	}

	A := mat.NewDense(m, width, nil)
	b := make([]float64, m)
	c := make([]float64, width)
	for j := 0; j < n; j++ {
		if col[j] >= 0 && live[col[j]] >= 0 {
			c[live[col[j]]] = r.obj[j]
		}
	}
	next := liveCols
	for i, sr := range rows {
		sign := 1.0
		if sr.rhs < 0 {
			sign = -1
		}
		for cc, v := range sr.coef {
			A.Set(i, live[cc], sign*v)
		}
		if sr.slack != 0 {
			A.Set(i, next, sign*sr.slack)
			next++
		}
		b[i] = sign * sr.rhs
	}

	st, optF, optY, err := simplex(c, A, b, check)
	if err != nil || st != relaxOptimal {
		return st, 0, nil, err
	}
	for j := 0; j < n; j++ {
		if col[j] >= 0 && live[col[j]] >= 0 {
			x[j] += optY[live[col[j]]]
		}
	}
	return relaxOptimal, optF + constant, x, nil
}

// impliedBounds returns, per column, the tightest upper bound implied by an
// equality or <= row whose coefficients are all positive: such a row reads
// Σ a·y (+ slack) = rhs over nonnegative terms, so y <= rhs/a.
func impliedBounds(rows []stdRow, cols int) []float64 {
	out := make([]float64, cols)
	for c := range out {
		out[c] = math.Inf(1)
	}
	for _, sr := range rows {
		if sr.slack < 0 || sr.rhs < 0 {
			continue
		}
		positive := true
		for _, v := range sr.coef {
			if v <= 0 {
				positive = false
				break
			}
		}
		if !positive {
			continue
		}
		for c, v := range sr.coef {
			out[c] = math.Min(out[c], sr.rhs/v)
		}
	}
	return out
}

// rowKey renders the coefficients of a row in column order.
func rowKey(coef map[int]float64) string {
	cols := make([]int, 0, len(coef))
	for c := range coef {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	var b strings.Builder
	for _, c := range cols {
		fmt.Fprintf(&b, "%d:%g;", c, coef[c])
	}
	return b.String()
}

func constantRowHolds(sense milp.Sense, rhs float64) bool {
	// The row reads 0 (sense) rhs.
	switch sense {
	case milp.LessEq:
		return rhs >= -eps
	case milp.GreaterEq:
		return rhs <= eps
	default:
		return math.Abs(rhs) <= eps
	}
}
