// Package mib maintains the per-context forest of registered OID subtrees
// and resolves an incoming OID to the handler chain that must serve it, per
// the registration/lookup/dispatch protocol of spec §4.2.
//
// Subtrees are stored in a flat arena and linked by index rather than
// pointer (Design Notes §9): a per-context root holds the head index of a
// sibling list sorted by Start; overlapping registrations at identical
// start form a priority-ordered child chain off a single arena slot.
// Unregistration nulls a slot and re-links its neighbours; slots are not
// recycled across registrations sharing the same context to keep cache
// invalidation simple, matching the reference implementation's conservative
// free-on-unregister behaviour.
package mib

import (
	"fmt"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/snmp"
)

// noIndex is the arena sentinel meaning "no node".
const noIndex = -1

// Subtree describes one contiguous OID range registered to a handler
// within one context, per spec §3.
type Subtree struct {
	Name        ber.OID
	Start       ber.OID
	End         ber.OID
	Priority    int
	RangeSubid  int
	RangeUbound int
	Context     string
	Session     string
	Handler     Handler
	Delegated   bool

	next     int
	prev     int
	children []int // overlapping registrations at this start, priority-ordered ascending (lowest = highest precedence)
}

// Handler processes a request for the subtree that matched it.
type Handler interface {
	Handle(tree *Subtree, req *Request) (Verdict, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(tree *Subtree, req *Request) (Verdict, error)

func (f HandlerFunc) Handle(tree *Subtree, req *Request) (Verdict, error) {
	return f(tree, req)
}

// Verdict is the outcome of a handler invocation.
type Verdict int

const (
	// VerdictDone means the handler filled the response varbind.
	VerdictDone Verdict = iota
	// VerdictDelegated means completion is pending an out-of-band reply.
	VerdictDelegated
	// VerdictError means the handler reported a per-varbind error.
	VerdictError
)

// Request describes one varbind being resolved against the registry.
type Request struct {
	Context string
	OID     ber.OID
	Command Command
	// SetValue carries the value to apply for a CmdSet request; unused
	// otherwise.
	SetValue *snmp.TypedValue
	// Value is filled in by a Handler on return to carry a GET/GETNEXT/
	// GETBULK result back to the caller; the dispatcher never reads it.
	Value *snmp.TypedValue
	// ResultOID is filled in by a Handler when Command is CmdGetNext or
	// CmdGetBulk, since the matched instance OID can differ from OID.
	ResultOID ber.OID
	// Delegated marks whether this request is currently parked awaiting an
	// out-of-band completion (AgentX forwarding). Set by the dispatcher
	// after a handler returns VerdictDelegated.
	Delegated bool
}

// Command is the SNMP/AgentX operation being performed against a subtree.
type Command int

const (
	CmdGet Command = iota
	CmdGetNext
	CmdGetBulk
	CmdSet
)

// DuplicateRegistration is returned when two registrations collide on
// identical (namelen, priority).
type DuplicateRegistration struct {
	Name     ber.OID
	Priority int
}

func (e *DuplicateRegistration) Error() string {
	return fmt.Sprintf("duplicate registration for %s at priority %d", e.Name, e.Priority)
}

// UnknownRegistration is returned by Unregister when no matching entry
// exists.
type UnknownRegistration struct {
	Name ber.OID
}

func (e *UnknownRegistration) Error() string {
	return fmt.Sprintf("no registration found for %s", e.Name)
}
