package mib

import (
	"github.com/duniansampa/priot/ber"
)

// Lookup resolves target to the Subtree whose [Start, End) contains it
// within context, per spec §4.2's lookup protocol. It returns
// UnknownRegistration if no subtree covers target.
func (r *Registry) Lookup(context string, target ber.OID) (*Subtree, error) {
	cs := r.ctx(context, false)
	if cs == nil {
		return nil, &UnknownRegistration{Name: target}
	}

	start := r.cachedStart(cs, target)
	cur := start
	for cur != noIndex {
		n := r.get(cur)
		if !lessOID(target, n.Start) && lessOID(target, n.End) {
			cs.cache.add(cur, r.get(cur).next)
			return r.leafHandler(cur), nil
		}
		if lessOID(target, n.Start) {
			break
		}
		cur = n.next
	}
	return nil, &UnknownRegistration{Name: target}
}

// LookupNext resolves the subtree that answers a GETNEXT for target: the
// first subtree whose End is past target (the one containing target, or
// else the nearest one after it), skipping subtrees with a nil handler,
// per spec §4.2 step 4.
func (r *Registry) LookupNext(context string, target ber.OID) (*Subtree, error) {
	cs := r.ctx(context, false)
	if cs == nil {
		return nil, &UnknownRegistration{Name: target}
	}

	cur := cs.head
	for cur != noIndex {
		n := r.get(cur)
		if lessOID(target, n.End) && n.Handler != nil {
			return r.leafHandler(cur), nil
		}
		cur = n.next
	}
	return nil, &UnknownRegistration{Name: target}
}

// leafHandler returns the highest-precedence (lowest-priority-value) node
// in idx's chain — idx itself, since registerAligned always keeps the
// lowest-priority member at the anchor slot.
func (r *Registry) leafHandler(idx int) *Subtree {
	return r.get(idx)
}

// cachedStart consults the lookup cache for a tight starting point for the
// sibling scan, falling back to the context's head.
func (r *Registry) cachedStart(cs *contextState, target ber.OID) int {
	best := noIndex
	for _, e := range cs.cache.all() {
		if e.previous == noIndex {
			continue
		}
		if !lessOID(target, r.get(e.previous).Start) {
			if best == noIndex || lessOID(r.get(best).Start, r.get(e.previous).Start) {
				best = e.previous
			}
		}
	}
	if best != noIndex {
		return best
	}
	return cs.head
}
