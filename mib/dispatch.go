package mib

import (
	"github.com/pkg/errors"

	"github.com/duniansampa/priot/ber"
)

// ACMDecision is the verdict an access-control hook returns for a request
// varbind, per spec §4.2/§4.5.
type ACMDecision int

const (
	InView ACMDecision = iota
	NotInView
	SubtreeUnknown
)

// ACMHook is consulted by Dispatch before resolving each request varbind.
type ACMHook interface {
	Check(context string, oid ber.OID) (ACMDecision, error)
}

// Dispatcher resolves request varbinds against a Registry and invokes the
// matched subtree's handler, per spec §4.2 "Dispatch".
type Dispatcher struct {
	Registry *Registry
	ACM      ACMHook // optional; nil disables access control
}

// NewDispatcher returns a Dispatcher bound to reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{Registry: reg}
}

// DispatchOne resolves and invokes the handler for a single request
// varbind, applying the ACM hook first, per spec §4.2.
func (d *Dispatcher) DispatchOne(req *Request) (Verdict, error) {
	if d.ACM != nil {
		decision, err := d.ACM.Check(req.Context, req.OID)
		if err != nil {
			return VerdictError, errors.Wrap(err, "acm check")
		}
		switch decision {
		case NotInView:
			// Reported the same way as an unknown subtree so existence is
			// not leaked; no GETNEXT is re-issued beyond the denied region.
			return VerdictError, &UnknownRegistration{Name: req.OID}
		case SubtreeUnknown:
			return VerdictError, &UnknownRegistration{Name: req.OID}
		}
	}

	var tree *Subtree
	var err error
	switch req.Command {
	case CmdGetNext, CmdGetBulk:
		tree, err = d.Registry.LookupNext(req.Context, req.OID)
	default:
		tree, err = d.Registry.Lookup(req.Context, req.OID)
	}
	if err != nil {
		return VerdictError, err
	}
	if tree.Handler == nil {
		return VerdictError, &UnknownRegistration{Name: req.OID}
	}

	verdict, err := tree.Handler.Handle(tree, req)
	if verdict == VerdictDelegated {
		req.Delegated = true
		tree.Delegated = true
	}
	return verdict, err
}

// SplitBulk rewrites a GETBULK request's oid list into the repeated
// GETNEXT invocations implied by non-repeaters/max-repetitions, per spec
// §4.2. The returned plan has one step holding the nonRepeaters oids (when
// there are any), followed by up to maxRepetitions steps that each hold
// every remaining (repeating) oid; the total number of steps is capped at
// maxResponses to bound oversized responses.
func SplitBulk(oids []ber.OID, nonRepeaters, maxRepetitions, maxResponses int) [][]ber.OID {
	if nonRepeaters > len(oids) {
		nonRepeaters = len(oids)
	}
	repeating := oids[nonRepeaters:]

	var plan [][]ber.OID
	if nonRepeaters > 0 {
		plan = append(plan, append([]ber.OID{}, oids[:nonRepeaters]...))
	}
	for i := 0; i < maxRepetitions; i++ {
		if len(plan) >= maxResponses {
			break
		}
		if len(repeating) == 0 {
			break
		}
		plan = append(plan, append([]ber.OID{}, repeating...))
	}
	return plan
}
