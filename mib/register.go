package mib

import "github.com/duniansampa/priot/ber"

// Register installs a handler for the OID named name within context, per
// the registration protocol of spec §4.2. priority 0..255, lower values
// take precedence over higher ones at an identical range. rangeSubid, when
// non-zero, is the 1-based sub-identifier index that is to be replicated
// across [name[rangeSubid-1]+1, rangeUbound]; each replica is registered as
// its own subtree, and any failure mid-way unregisters the partial set.
func (r *Registry) Register(context string, name ber.OID, priority int, rangeSubid, rangeUbound int, h Handler) error {
	if rangeSubid <= 0 {
		return r.registerOne(context, name, name, priority, rangeSubid, rangeUbound, h)
	}

	idx := rangeSubid - 1
	if idx < 0 || idx >= len(name) {
		return &UnknownRegistration{Name: name}
	}
	lower := name[idx]

	var registered []ber.OID
	for v := lower; v <= uint32(rangeUbound); v++ {
		replica := name.Clone()
		replica[idx] = v
		if err := r.registerOne(context, replica, name, priority, rangeSubid, rangeUbound, h); err != nil {
			for _, done := range registered {
				_ = r.Unregister(context, done, priority)
			}
			return err
		}
		registered = append(registered, replica)
	}
	return nil
}

func (r *Registry) registerOne(context string, name, declaredName ber.OID, priority, rangeSubid, rangeUbound int, h Handler) error {
	cs := r.ctx(context, true)

	node := Subtree{
		Name:        declaredName,
		Start:       name.Clone(),
		End:         endOf(name),
		Priority:    priority,
		RangeSubid:  rangeSubid,
		RangeUbound: rangeUbound,
		Context:     context,
		Handler:     h,
	}
	idx := r.alloc(node)

	newHead, err := r.insertSibling(cs.head, idx)
	if err != nil {
		r.free(idx)
		return err
	}
	cs.head = newHead
	cs.cache.invalidate()
	return nil
}

// insertSibling inserts node idx into the sorted, non-overlapping sibling
// list rooted at head, applying the split/join algorithm of spec §4.2
// step 3, and returns the (possibly new) head.
func (r *Registry) insertSibling(head, idx int) (int, error) {
	n := r.get(idx)

	if head == noIndex {
		return idx, nil
	}

	// Find the first sibling whose end is past node's start; siblings
	// before it end at or before n.Start and are strictly earlier.
	prev := noIndex
	cur := head
	for cur != noIndex && !lessOID(n.Start, r.get(cur).End) {
		prev = cur
		cur = r.get(cur).next
	}

	if cur == noIndex || !lessOID(r.get(cur).Start, n.End) {
		// Virgin territory: splice idx between prev and cur.
		return r.splice(head, prev, idx, cur)
	}

	if r.get(cur).Start.Equal(n.Start) {
		return r.registerAligned(head, idx, cur)
	}

	// cur.Start < n.Start < cur.End: split cur at n.Start, then retry.
	left, right, err := r.splitNode(cur, n.Start)
	if err != nil {
		return head, err
	}
	head = r.replace(head, cur, left, right)
	return r.insertSibling(head, idx)
}

// registerAligned handles the case where idx and existing share the same
// Start (spec §4.2 step 3, "once starts align").
func (r *Registry) registerAligned(head, idx, existing int) (int, error) {
	n := r.get(idx)
	e := r.get(existing)

	switch {
	case n.End.Equal(e.End):
		if err := r.addChild(existing, idx); err != nil {
			return head, err
		}
		return head, nil

	case lessOID(n.End, e.End):
		// Split existing at n.End first, then retry so the heads align
		// on both start and end.
		left, right, err := r.splitNode(existing, n.End)
		if err != nil {
			return head, err
		}
		head = r.replace(head, existing, left, right)
		return r.insertSibling(head, idx)

	default: // n.End > e.End
		// Split idx (the incoming node) at e.End: the first half attaches
		// as a priority child of existing, the remainder is registered
		// recursively against the tail of the sibling list.
		nLeft, nRight, err := r.splitNode(idx, e.End)
		if err != nil {
			return head, err
		}
		if err := r.addChild(existing, nLeft); err != nil {
			r.free(nRight)
			return head, err
		}
		return r.insertSibling(head, nRight)
	}
}

// addChild inserts newIdx into existing's priority-ordered child chain,
// rejecting a duplicate (namelen, priority) pair per spec's invariant.
func (r *Registry) addChild(existing, newIdx int) error {
	host := r.get(existing)
	nn := r.get(newIdx)

	if host.Priority == nn.Priority && len(host.Name) == len(nn.Name) {
		return &DuplicateRegistration{Name: nn.Name, Priority: nn.Priority}
	}
	for _, c := range host.children {
		cn := r.get(c)
		if cn.Priority == nn.Priority && len(cn.Name) == len(nn.Name) {
			return &DuplicateRegistration{Name: nn.Name, Priority: nn.Priority}
		}
	}

	// newIdx goes first so that, on a priority tie, the stable sort below
	// keeps the newly registered member ahead of the one it is overlapping
	// with: the later registration wins ties, it does not get demoted to a
	// dead child of the earlier one.
	members := append([]int{newIdx, existing}, host.children...)
	// Sort ascending by priority; the lowest becomes the effective head
	// (highest precedence) so lookups always resolve via `existing`'s slot
	// without the caller needing to know which member leads.
	sortByPriority(r, members)

	headMember := members[0]
	rest := members[1:]

	for _, m := range members {
		mn := r.get(m)
		mn.children = nil
	}
	r.get(headMember).children = rest

	if headMember != existing {
		r.swapSlot(existing, headMember)
	}
	return nil
}

func sortByPriority(r *Registry, members []int) {
	for i := 1; i < len(members); i++ {
		for j := i; j > 0 && r.get(members[j]).Priority < r.get(members[j-1]).Priority; j-- {
			members[j], members[j-1] = members[j-1], members[j]
		}
	}
}

// swapSlot exchanges the contents of the arena slots dst and src, keeping
// dst's sibling links, so that sibling links that still point at dst
// resolve to src's former content while dst's former content lives on in
// src as a child, keeping the child chain anchored at a single stable
// index per sibling position.
func (r *Registry) swapSlot(dst, src int) {
	next, prev := r.get(dst).next, r.get(dst).prev
	*r.get(dst), *r.get(src) = *r.get(src), *r.get(dst)
	r.get(dst).next, r.get(dst).prev = next, prev
	r.get(src).next, r.get(src).prev = noIndex, noIndex
	for i, c := range r.get(dst).children {
		if c == dst {
			r.get(dst).children[i] = src
		}
	}
}

// splice inserts idx into the sibling list between prev and cur, returning
// the (possibly updated) head.
func (r *Registry) splice(head, prev, idx, cur int) (int, error) {
	r.get(idx).prev = prev
	r.get(idx).next = cur
	if prev != noIndex {
		r.get(prev).next = idx
	} else {
		head = idx
	}
	if cur != noIndex {
		r.get(cur).prev = idx
	}
	return head, nil
}

// replace swaps the single sibling old for the two siblings left,right
// (the result of a split), preserving prev/next links.
func (r *Registry) replace(head, old, left, right int) int {
	prev, next := r.get(old).prev, r.get(old).next

	r.get(left).prev = prev
	r.get(left).next = right
	r.get(right).prev = left
	r.get(right).next = next

	if prev != noIndex {
		r.get(prev).next = left
	} else {
		head = left
	}
	if next != noIndex {
		r.get(next).prev = right
	}
	r.free(old)
	return head
}

// splitNode splits node idx at subid 'at' into two new nodes covering
// [idx.Start, at) and [at, idx.End), recursively splitting its priority
// children (which share the identical range) the same way.
func (r *Registry) splitNode(idx int, at ber.OID) (left, right int, err error) {
	n := *r.get(idx)

	leftChildren := make([]int, 0, len(n.children))
	rightChildren := make([]int, 0, len(n.children))
	for _, c := range n.children {
		cl, cr, err := r.splitNode(c, at)
		if err != nil {
			return 0, 0, err
		}
		leftChildren = append(leftChildren, cl)
		rightChildren = append(rightChildren, cr)
	}

	leftNode := n
	leftNode.End = at.Clone()
	leftNode.children = leftChildren
	left = r.alloc(leftNode)

	rightNode := n
	rightNode.Start = at.Clone()
	rightNode.children = rightChildren
	right = r.alloc(rightNode)

	r.free(idx)
	return left, right, nil
}
