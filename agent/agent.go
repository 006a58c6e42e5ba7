// Package agent wires the registry, event engine, and AgentX master into
// the single dispatch loop spec §2/§5 describes: one thread that resolves
// incoming PDUs against the MIB forest, ticks the Event-MIB scheduler, and
// expires stale AgentX delegations, all inside run-to-completion slices
// driven by an externally supplied Multiplexer.
package agent

import (
	"context"
	"encoding/asn1"
	"time"

	"github.com/pkg/errors"

	"github.com/duniansampa/priot/agentx"
	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/eventmib"
	"github.com/duniansampa/priot/mib"
	"github.com/duniansampa/priot/snmp"
)

// SNMP PDU command tags, per spec §6's wire framing.
const (
	cmdGetRequest     byte = 0xA0
	cmdGetNextRequest byte = 0xA1
	cmdGetResponse    byte = 0xA2
	cmdSetRequest     byte = 0xA3
	cmdGetBulkRequest byte = 0xA5
)

// defaultPollInterval bounds how long Run waits when neither the event
// engine nor any pending delegation has a nearer deadline.
const defaultPollInterval = time.Second

// Multiplexer is the seam to the excluded transport/large-fd-set
// collaborator (spec §1): Agent never opens a socket, it only asks the
// multiplexer for the next inbound PDU (or AgentX control frame) and hands
// back completed responses.
type Multiplexer interface {
	// Next blocks until either a PDU arrives or deadline passes, whichever
	// is first. A nil PDU with a nil error means the deadline passed.
	Next(ctx context.Context, deadline time.Time) (*snmp.PDU, error)
	// Reply delivers a completed response PDU to its originator.
	Reply(pdu *snmp.PDU) error
}

// Option configures an Agent.
type Option func(*Agent)

// WithHooks overrides the default no-op lifecycle hooks.
func WithHooks(h *snmp.LifecycleHooks) Option {
	return func(a *Agent) { a.Hooks = h }
}

// WithACM installs an access-control hook on the dispatcher.
func WithACM(acm mib.ACMHook) Option {
	return func(a *Agent) { a.Dispatcher.ACM = acm }
}

// WithStrictEventOrdering forwards to eventmib.WithStrictOrdering.
func WithStrictEventOrdering(strict bool) Option {
	return func(a *Agent) { a.strictOrdering = strict }
}

// pendingVarbind marks one varbind of a parked request as awaiting a
// subagent's delegated reply.
type pendingVarbind struct {
	req   *pendingRequest
	index int
}

// pendingRequest is an inbound PDU with at least one delegated varbind,
// held until every delegation resolves (or times out), per spec §5
// "Suspension points".
type pendingRequest struct {
	pdu       *snmp.PDU
	remaining map[int]struct{}
}

// Agent is the single top-level object a process surface (cmd/priotd)
// constructs and drives, per spec §2.
type Agent struct {
	Registry   *mib.Registry
	Dispatcher *mib.Dispatcher
	Events     *eventmib.Engine
	Master     *agentx.Master
	Hooks      *snmp.LifecycleHooks
	SysOR      *mib.SysORTable
	Callbacks  *CallbackRegistry

	strictOrdering bool

	delegations map[uint64]pendingVarbind
}

// New returns an Agent wired with a fresh registry, dispatcher, event
// engine (backed by that same registry through the QueryInterface bridge),
// and AgentX master bound to transport.
func New(transport agentx.Transport, opts ...Option) *Agent {
	reg := mib.NewRegistry()
	dispatch := mib.NewDispatcher(reg)
	master := agentx.NewMaster(reg, transport)

	a := &Agent{
		Registry:    reg,
		Dispatcher:  dispatch,
		Master:      master,
		Hooks:       snmp.NoOpHooks,
		SysOR:       &mib.SysORTable{},
		Callbacks:   NewCallbackRegistry(),
		delegations: make(map[uint64]pendingVarbind),
	}
	for _, apply := range opts {
		apply(a)
	}

	engineOpts := []eventmib.Option{eventmib.WithStrictOrdering(a.strictOrdering)}
	a.Events = eventmib.NewEngine(&registryQuery{dispatch: dispatch}, engineOpts...)
	a.Events.Hooks = a.Hooks
	a.Events.TrapSink = a.submitTrap
	return a
}

// submitTrap reports an Event-MIB-built notification payload through
// Hooks.TrapSent, with the notification OID taken from the leading
// snmpTrapOID varbind; it does not transmit the trap to any destination.
func (a *Agent) submitTrap(vbs []snmp.Varbind) error {
	var oid ber.OID
	if len(vbs) > 0 {
		oid = fromASN1OID(vbs[0].TypedValue.OID())
	}
	a.Hooks.TrapSent(oid, "", nil)
	return nil
}

// Dispatch resolves every varbind of pdu against the registry, per spec
// §4.2. A varbind whose handler delegates to a subagent is forwarded to
// the session sessionOf returns; on success the whole PDU is parked,
// Dispatch returns (nil, nil) and the caller learns of completion later
// via HandleSubagentResponse. sessionOf always returns 0, which no open
// session has, so Forward fails and the varbind is reported as GenErr.
func (a *Agent) Dispatch(pdu *snmp.PDU) (*snmp.PDU, error) {
	cmd, err := mibCommand(pdu.Command)
	if err != nil {
		return nil, err
	}

	resp := &snmp.PDU{
		RequestID:   pdu.RequestID,
		Command:     cmdGetResponse,
		VarbindList: make([]snmp.Varbind, len(pdu.VarbindList)),
	}

	pending := &pendingRequest{pdu: resp, remaining: make(map[int]struct{})}

	for i, vb := range pdu.VarbindList {
		oid := fromASN1OID(vb.OID)
		req := &mib.Request{Context: pdu.ContextName, OID: oid, Command: cmd, SetValue: vb.TypedValue}

		verdict, err := a.Dispatcher.DispatchOne(req)
		if err != nil {
			resp.Error = int(agentx.GenErr)
			resp.ErrorIndex = i + 1
			resp.VarbindList[i] = vb
			continue
		}

		switch verdict {
		case mib.VerdictDelegated:
			packetID, ferr := a.Master.Forward(sessionOf(req), pdu.TransactionID, 5*time.Second, delegatedCommand(cmd), nil)
			if ferr != nil {
				resp.Error = int(agentx.GenErr)
				resp.ErrorIndex = i + 1
				continue
			}
			key := delegationKey(pdu.TransactionID, packetID)
			a.delegations[key] = pendingVarbind{req: pending, index: i}
			pending.remaining[i] = struct{}{}
		case mib.VerdictError:
			resp.Error = int(agentx.GenErr)
			resp.ErrorIndex = i + 1
		default:
			oid := req.ResultOID
			if oid == nil {
				oid = req.OID
			}
			resp.VarbindList[i] = snmp.Varbind{OID: toASN1OID(oid), TypedValue: req.Value}
		}
	}

	if len(pending.remaining) > 0 {
		return nil, nil
	}
	return resp, nil
}

// HandleSubagentResponse correlates an AgentX Response PDU against this
// agent's delegation table, filling in the parked varbind it completes and
// returning the now-finished PDU once every delegated varbind of it has
// resolved.
func (a *Agent) HandleSubagentResponse(transactionID, packetID uint32, status agentx.ErrorStatus, errorIndex int, value *snmp.TypedValue, resultOID ber.OID) (*snmp.PDU, bool) {
	key := delegationKey(transactionID, packetID)
	pv, ok := a.delegations[key]
	if !ok {
		return nil, false
	}
	delete(a.delegations, key)
	delete(pv.req.remaining, pv.index)

	if status != agentx.NoError {
		pv.req.pdu.Error = int(agentx.ToSNMPError(status))
		pv.req.pdu.ErrorIndex = errorIndex
	} else {
		oid := resultOID
		if oid == nil {
			oid = fromASN1OID(pv.req.pdu.VarbindList[pv.index].OID)
		}
		pv.req.pdu.VarbindList[pv.index] = snmp.Varbind{OID: toASN1OID(oid), TypedValue: value}
	}

	if len(pv.req.remaining) > 0 {
		return nil, false
	}
	return pv.req.pdu, true
}

// Tick advances the event engine and expires stale AgentX delegations, per
// spec §5's cooperative scheduling.
func (a *Agent) Tick(now time.Time) {
	a.Events.Tick(now)
	for _, key := range a.Master.ExpireTimeouts(now) {
		if pv, ok := a.delegations[key]; ok {
			delete(a.delegations, key)
			delete(pv.req.remaining, pv.index)
			pv.req.pdu.Error = int(agentx.GenErr)
			pv.req.pdu.ErrorIndex = pv.index + 1
		}
	}
}

// nextDeadline returns the earliest of the event engine's next trigger
// deadline and the default poll interval.
func (a *Agent) nextDeadline(now time.Time) time.Time {
	deadline := now.Add(defaultPollInterval)
	if d, ok := a.Events.NextDeadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

// Run drives the single dispatch loop until ctx is cancelled or mux
// returns an error, per spec §5's "single thread with a priority queue of
// timer deadlines" model.
func (a *Agent) Run(ctx context.Context, mux Multiplexer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deadline := a.nextDeadline(time.Now())
		pdu, err := mux.Next(ctx, deadline)
		if err != nil {
			return err
		}

		a.Tick(time.Now())

		if pdu == nil {
			continue
		}
		resp, derr := a.Dispatch(pdu)
		if derr != nil {
			a.Hooks.Error("agent.dispatch", derr)
			continue
		}
		if resp == nil {
			continue // parked awaiting a subagent delegation
		}
		if err := mux.Reply(resp); err != nil {
			a.Hooks.Error("agent.reply", err)
		}
	}
}

func mibCommand(cmd byte) (mib.Command, error) {
	switch cmd {
	case cmdGetRequest:
		return mib.CmdGet, nil
	case cmdGetNextRequest, cmdGetBulkRequest:
		return mib.CmdGetNext, nil
	case cmdSetRequest:
		return mib.CmdSet, nil
	default:
		return 0, errors.Errorf("unsupported PDU command 0x%02x", cmd)
	}
}

func delegatedCommand(cmd mib.Command) agentx.Command {
	if cmd == mib.CmdSet {
		return agentx.CmdTestSet
	}
	return agentx.CmdGet
}

// sessionOf always returns 0: DispatchOne does not report which subtree
// matched req, so the AgentX session owning it is not known here.
func sessionOf(req *mib.Request) uint32 { return 0 }

func delegationKey(transactionID, packetID uint32) uint64 {
	return uint64(transactionID)<<32 | uint64(packetID)
}

func fromASN1OID(oid asn1.ObjectIdentifier) ber.OID {
	out := make(ber.OID, len(oid))
	for i, v := range oid {
		out[i] = uint32(v)
	}
	return out
}

func toASN1OID(oid ber.OID) asn1.ObjectIdentifier {
	out := make(asn1.ObjectIdentifier, len(oid))
	for i, v := range oid {
		out[i] = int(v)
	}
	return out
}
