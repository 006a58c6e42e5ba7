package mib

import "github.com/duniansampa/priot/ber"

// Unregister removes the registration for name/priority within context. If
// the removed entry had lower-priority children, the highest-precedence
// remaining child is promoted into its slot; otherwise the entry is
// unlinked from its siblings. Adjacent siblings left by an earlier split
// are not joined back together.
func (r *Registry) Unregister(context string, name ber.OID, priority int) error {
	cs := r.ctx(context, false)
	if cs == nil {
		return &UnknownRegistration{Name: name}
	}

	cur := cs.head
	for cur != noIndex {
		n := r.get(cur)
		if n.Start.Equal(name) && n.Priority == priority {
			r.removeNode(cs, cur)
			cs.cache.invalidate()
			return nil
		}
		for ci, c := range n.children {
			cn := r.get(c)
			if cn.Start.Equal(name) && cn.Priority == priority {
				n.children = append(n.children[:ci], n.children[ci+1:]...)
				r.free(c)
				cs.cache.invalidate()
				return nil
			}
		}
		cur = n.next
	}
	return &UnknownRegistration{Name: name}
}

// removeNode deletes the sibling at idx, promoting its highest-precedence
// child (if any) into its slot so the range remains covered.
func (r *Registry) removeNode(cs *contextState, idx int) {
	n := r.get(idx)
	if len(n.children) > 0 {
		promoted := n.children[0]
		rest := n.children[1:]
		prev, next := n.prev, n.next
		*n = *r.get(promoted)
		n.prev, n.next = prev, next
		n.children = rest
		r.free(promoted)
		return
	}

	prev, next := n.prev, n.next
	if prev != noIndex {
		r.get(prev).next = next
	} else {
		cs.head = next
	}
	if next != noIndex {
		r.get(next).prev = prev
	}
	r.free(idx)
}

// UnregisterSession removes every subtree (at any level) owned by
// sessionID, across every context, per spec §4.2's session-teardown walk.
// Registry holds no callback table, so no UNREGISTER_OID callback or hook
// is invoked here; the removed subtrees are returned to the caller.
func (r *Registry) UnregisterSession(sessionID string) []*Subtree {
	var removed []*Subtree
	for _, cs := range r.context {
		cur := cs.head
		for cur != noIndex {
			n := r.get(cur)
			next := n.next

			kept := n.children[:0]
			for _, c := range n.children {
				cn := r.get(c)
				if cn.Session == sessionID {
					removed = append(removed, snapshot(cn))
					r.free(c)
					continue
				}
				kept = append(kept, c)
			}
			n.children = kept

			if n.Session == sessionID {
				removed = append(removed, snapshot(n))
				r.removeNode(cs, cur)
			}
			cur = next
		}
		cs.cache.invalidate()
	}
	return removed
}

func snapshot(n *Subtree) *Subtree {
	cp := *n
	return &cp
}
