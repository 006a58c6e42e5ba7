package agentx

import (
	"github.com/duniansampa/priot/ber"
)

// IndexFlags control IndexAllocate semantics, per spec §4.3.
type IndexFlags int

const (
	IndexExact IndexFlags = iota
	IndexAnyInstance
	IndexNewInstance
)

type indexKey struct {
	oid string
}

// indexPool is the master-wide index pool, per spec §4.3 "Index
// allocation". It is keyed by OID only; the index value type is not part
// of the key.
type indexPool struct {
	allocated map[indexKey]map[uint32]string // value -> owning session key
	everUsed  map[indexKey]map[uint32]bool
}

func newIndexPool() *indexPool {
	return &indexPool{
		allocated: make(map[indexKey]map[uint32]string),
		everUsed:  make(map[indexKey]map[uint32]bool),
	}
}

func key(oid ber.OID) indexKey { return indexKey{oid: oid.String()} }

// Allocate processes one IndexAllocate varbind. On ANY_INSTANCE it picks
// any free value; on NEW_INSTANCE it picks a never-before-used value;
// otherwise the carried value must be currently available.
func (p *indexPool) Allocate(oid ber.OID, value uint32, flags IndexFlags, owner string) (uint32, error) {
	k := key(oid)
	if p.allocated[k] == nil {
		p.allocated[k] = make(map[uint32]string)
	}
	if p.everUsed[k] == nil {
		p.everUsed[k] = make(map[uint32]bool)
	}

	switch flags {
	case IndexAnyInstance:
		for v := uint32(1); ; v++ {
			if _, taken := p.allocated[k][v]; !taken {
				p.allocated[k][v] = owner
				p.everUsed[k][v] = true
				return v, nil
			}
			if v == ^uint32(0) {
				return 0, errIndexNoneAvailable
			}
		}
	case IndexNewInstance:
		for v := uint32(1); ; v++ {
			if !p.everUsed[k][v] {
				p.allocated[k][v] = owner
				p.everUsed[k][v] = true
				return v, nil
			}
			if v == ^uint32(0) {
				return 0, errIndexNoneAvailable
			}
		}
	default:
		if _, taken := p.allocated[k][value]; taken {
			return 0, errIndexNoneAvailable
		}
		p.allocated[k][value] = owner
		p.everUsed[k][value] = true
		return value, nil
	}
}

// Deallocate releases value, failing if it was not allocated to owner.
func (p *indexPool) Deallocate(oid ber.OID, value uint32, owner string) error {
	k := key(oid)
	if p.allocated[k] == nil || p.allocated[k][value] != owner {
		return errIndexNotAllocated
	}
	delete(p.allocated[k], value)
	return nil
}

// releaseSession frees every index owned by owner, across all OIDs, used
// when a session closes.
func (p *indexPool) releaseSession(owner string) {
	for k, m := range p.allocated {
		for v, o := range m {
			if o == owner {
				delete(p.allocated[k], v)
			}
		}
	}
}

var (
	errIndexNoneAvailable = &ProtocolError{Status: IndexNoneAvailable}
	errIndexNotAllocated  = &ProtocolError{Status: IndexNotAllocated}
)

func init() {
	errIndexNoneAvailable.Cause = errString("index none available")
	errIndexNotAllocated.Cause = errString("index not allocated")
}

type errString string

func (e errString) Error() string { return string(e) }
