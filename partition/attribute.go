package partition

import (
	"github.com/hashicorp/go-multierror"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir"
)

// Phase is the diagnostic phase of both assigners.
const Phase = "partition"

// AttributeAssigner resolves kinds from explicit partition attributes.
type AttributeAssigner struct {
	Policy   Policy
	Reporter diag.Reporter
}

// Assign classifies every instance of net. Unannotated instances receive
// Policy.DefaultKind. Invalid attributes are reported as ERROR; in strict mode
// they abort the assignment with all errors aggregated, otherwise the instance
// falls back to the default kind.
func (a AttributeAssigner) Assign(net *ir.Network) (*Assignment, error) {
	if err := a.Policy.Validate(); err != nil {
		return nil, err
	}
	rep := reporterOrDiscard(a.Reporter)
	result := &Assignment{
		Strategy: StrategyAttribute,
		Order:    net.InstanceNames(),
		Kinds:    make(map[string]Kind, net.Len()),
	}
	var errs *multierror.Error
	for _, inst := range net.Instances() {
		k, aerr := classify(inst)
		switch k {
		case Any:
			result.Kinds[inst.Name] = a.Policy.DefaultKind
			rep.Report(diag.Infof(Phase, "instance %s: %s (default)", inst.Name, a.Policy.DefaultKind))
		case Invalid:
			rep.Report(diag.FromError(Phase, aerr))
			errs = multierror.Append(errs, aerr)
			result.Kinds[inst.Name] = a.Policy.DefaultKind
		default:
			result.Kinds[inst.Name] = k
			rep.Report(diag.Infof(Phase, "instance %s: %s", inst.Name, k))
		}
	}
	if errs != nil && a.Policy.Strict {
		return nil, errs.ErrorOrNil()
	}
	return result, nil
}

func reporterOrDiscard(r diag.Reporter) diag.Reporter {
	if r == nil {
		return diag.Discard
	}
	return r
}
