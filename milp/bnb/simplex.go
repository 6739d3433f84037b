package bnb

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// errNumerical marks a relaxation the simplex could not finish: the pivot
// limit was hit or the tableau lost feasibility. The node is unsolvable, not
// infeasible.
var errNumerical = errors.New("bnb: simplex: numerical failure")

// tableau is a dense simplex tableau. Rows 0..m-1 are constraints, row m is
// the reduced-cost row; the last column is the right-hand side.
type tableau struct {
	t         *mat.Dense
	m, n      int // constraint rows, structural columns
	basis     []int
	pivots    int
	maxPivots int
	costTol   float64
}

// simplex minimizes c·y subject to A·y = b, y >= 0, for b >= 0.
//
// It is a two-phase method with one artificial column per row and Bland's
// rule for both entering and leaving columns, so degenerate vertices cannot
// make it cycle. check runs before every pivot and a non-nil result aborts
// the solve with that error.
func simplex(c []float64, A *mat.Dense, b []float64, check func() error) (relaxStatus, float64, []float64, error) {
	m, n := A.Dims()
	width := n + m + 1
	tb := &tableau{
		t:         mat.NewDense(m+1, width, nil),
		m:         m,
		n:         n,
		basis:     make([]int, m),
		maxPivots: 50*(m+n) + 1000,
	}
	rhs := width - 1

	// Phase 1: minimize the sum of the artificials.
	obj := tb.t.RawRowView(m)
	var bsum float64
	for i := 0; i < m; i++ {
		row := tb.t.RawRowView(i)
		for j := 0; j < n; j++ {
			row[j] = A.At(i, j)
			obj[j] -= row[j]
		}
		row[n+i] = 1
		row[rhs] = b[i]
		obj[rhs] -= b[i]
		bsum += b[i]
		tb.basis[i] = n + i
	}
	tb.costTol = eps * (1 + bsum)
	st, err := tb.run(n+m, check)
	if err != nil {
		return 0, 0, nil, err
	}
	if st != relaxOptimal {
		return 0, 0, nil, errNumerical
	}
	if -obj[rhs] > 1e-7*(1+bsum) {
		return relaxInfeasible, 0, nil, nil
	}

	// Pivot the artificials still basic at zero out of the basis. A row with
	// no structural entry left is redundant and keeps its artificial.
	for i := 0; i < m; i++ {
		if tb.basis[i] < n {
			continue
		}
		row := tb.t.RawRowView(i)
		row[rhs] = 0
		for j := 0; j < n; j++ {
			if math.Abs(row[j]) > eps {
				tb.pivot(i, j)
				break
			}
		}
	}

	// Phase 2: the real objective over structural columns only.
	var cmax float64
	for j := range obj {
		obj[j] = 0
	}
	for j := 0; j < n; j++ {
		obj[j] = c[j]
		cmax = math.Max(cmax, math.Abs(c[j]))
	}
	for i := 0; i < m; i++ {
		bj := tb.basis[i]
		if bj >= n || c[bj] == 0 {
			continue
		}
		row := tb.t.RawRowView(i)
		for j := range obj {
			obj[j] -= c[bj] * row[j]
		}
	}
	tb.costTol = eps * (1 + cmax)
	st, err = tb.run(n, check)
	if err != nil {
		return 0, 0, nil, err
	}
	if st == relaxUnbounded {
		return relaxUnbounded, 0, nil, nil
	}

	y := make([]float64, n)
	for i := 0; i < m; i++ {
		if bj := tb.basis[i]; bj < n {
			y[bj] = math.Max(0, tb.t.At(i, rhs))
		}
	}
	var val float64
	for j := 0; j < n; j++ {
		val += c[j] * y[j]
	}
	return relaxOptimal, val, y, nil
}

// run pivots until no column below limit has a negative reduced cost.
func (tb *tableau) run(limit int, check func() error) (relaxStatus, error) {
	obj := tb.t.RawRowView(tb.m)
	_, width := tb.t.Dims()
	rhs := width - 1
	for {
		if err := check(); err != nil {
			return 0, err
		}
		enter := -1
		for j := 0; j < limit; j++ {
			if obj[j] < -tb.costTol {
				enter = j
				break
			}
		}
		if enter < 0 {
			return relaxOptimal, nil
		}
		if tb.pivots >= tb.maxPivots {
			return 0, errNumerical
		}
		leave, best := -1, 0.0
		for i := 0; i < tb.m; i++ {
			a := tb.t.At(i, enter)
			if a <= eps {
				continue
			}
			if tb.t.At(i, rhs) < -1e-6 {
				return 0, errNumerical
			}
			r := tb.t.At(i, rhs) / a
			if leave < 0 || r < best-eps || (r <= best+eps && tb.basis[i] < tb.basis[leave]) {
				leave, best = i, r
			}
		}
		if leave < 0 {
			return relaxUnbounded, nil
		}
		tb.pivot(leave, enter)
	}
}

func (tb *tableau) pivot(r, c int) {
	tb.pivots++
	pr := tb.t.RawRowView(r)
	inv := 1 / pr[c]
	for j := range pr {
		pr[j] *= inv
	}
	pr[c] = 1
	last := len(pr) - 1
	for i := 0; i <= tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		f := row[c]
		if f == 0 {
			continue
		}
		for j := range row {
			row[j] -= f * pr[j]
		}
		row[c] = 0
		// Rounding can push a right-hand side just below zero.
		if i < tb.m && row[last] < 0 && row[last] > -1e-7 {
			row[last] = 0
		}
	}
	tb.basis[r] = c
}
