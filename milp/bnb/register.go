// register.go wires the branch-and-bound solver into milp.NewModelFunc.
// Importing this package (usually blank) makes it the active solver.
package bnb

import "github.com/actorflow/partc/milp"

func init() {
	milp.NewModelFunc = func(limits milp.Limits) milp.Model {
		return NewModel(limits)
	}
}
