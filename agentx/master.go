package agentx

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/mib"
)

// Transport is the seam to the excluded socket/multiplexer collaborator
// (spec §1): Master never opens a connection itself, it only asks the
// transport to deliver an already-framed AgentX message to a session.
type Transport interface {
	Send(sessionID uint32, frame []byte) error
}

// Option configures a Master.
type Option func(*masterOptions)

type masterOptions struct {
	defaultTimeout time.Duration
}

var defaultMasterOptions = masterOptions{defaultTimeout: 5 * time.Second}

// WithDefaultTimeout overrides the fallback session timeout used when an
// Open PDU carries no explicit timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *masterOptions) { o.defaultTimeout = d }
}

// Master implements the AgentX master side of spec §4.3: session
// open/close, register/unregister forwarded into a mib.Registry,
// request forwarding with delegation tracking, response correlation, the
// index pool, and Notify reformulation.
type Master struct {
	Registry  *mib.Registry
	Transport Transport

	sessions      map[uint32]*Session
	nextSessionID uint32

	pending      map[uint64]*delegation
	nextPacketID uint32

	index *indexPool

	opts masterOptions
}

// NewMaster returns a Master bound to reg and transport.
func NewMaster(reg *mib.Registry, transport Transport, opts ...Option) *Master {
	o := defaultMasterOptions
	for _, apply := range opts {
		apply(&o)
	}
	return &Master{
		Registry:      reg,
		Transport:     transport,
		sessions:      make(map[uint32]*Session),
		nextSessionID: 1,
		pending:       make(map[uint64]*delegation),
		nextPacketID:  1,
		index:         newIndexPool(),
		opts:          o,
	}
}

// HandleOpen processes an Open PDU, allocating a new subagent session.
// subagentOID and descr come from the PDU's single varbind, per spec
// §4.3.
func (m *Master) HandleOpen(transport string, timeout time.Duration, subagentOID, descr string) *Session {
	if timeout == 0 {
		timeout = m.opts.defaultTimeout
	}
	s := &Session{
		ID:          m.nextSessionID,
		Transport:   transport,
		Descr:       descr,
		SubagentOID: subagentOID,
		Timeout:     timeout,
		OpenedAt:    time.Now(),
		trace:       uuid.New(),
	}
	m.nextSessionID++
	m.sessions[s.ID] = s
	return s
}

// HandleClose closes sessionID (or every session on transport when
// sessionID is 0 and transport matches), revoking every OID registration
// and index reservation it owns, per spec §4.3 "Master session table".
// Its outstanding delegations are marked expired, so the next
// ExpireTimeouts reports them and the caller fails them with a generic
// error.
func (m *Master) HandleClose(sessionID uint32, transport string) []*mib.Subtree {
	var removed []*mib.Subtree
	for id, s := range m.sessions {
		if sessionID != 0 && id != sessionID {
			continue
		}
		if sessionID == 0 && s.Transport != transport {
			continue
		}
		removed = append(removed, m.Registry.UnregisterSession(sessionKey(id))...)
		m.index.releaseSession(sessionKey(id))
		m.failDelegationsForSession(id)
		delete(m.sessions, id)
	}
	return removed
}

func sessionKey(id uint32) string {
	return fmt.Sprintf("agentx:%d", id)
}

// SessionKey returns the registry/index-pool owner key for a session id,
// for callers that need to allocate indexes outside the IndexAllocate PDU
// path (e.g. tests, or handlers pre-reserving an instance).
func (m *Master) SessionKey(id uint32) string { return sessionKey(id) }

// Index exposes the master's index allocation pool, per spec §4.3
// "Index allocation".
func (m *Master) Index() *indexPool { return m.index }

func (m *Master) failDelegationsForSession(sessionID uint32) {
	for _, d := range m.pending {
		if d.Session == sessionID {
			d.Deadline = time.Time{}
		}
	}
}

// HandleRegister registers name at priority (with the optional range
// rangeSubid/rangeUbound) into the master's mib.Registry within context,
// mapping registry errors to AgentX error codes per spec §4.3.
func (m *Master) HandleRegister(s *Session, name ber.OID, priority int, rangeSubid, rangeUbound int, h mib.Handler, context string) error {
	err := m.Registry.Register(context, name, priority, rangeSubid, rangeUbound, h)
	if err == nil {
		return nil
	}
	var dup *mib.DuplicateRegistration
	if errors.As(err, &dup) {
		return &ProtocolError{Status: DuplicateRegistration, Cause: err}
	}
	return &ProtocolError{Status: RequestDenied, Cause: err}
}

// HandleUnregister removes the registration of name at priority within
// context.
func (m *Master) HandleUnregister(context string, name ber.OID, priority int) error {
	if err := m.Registry.Unregister(context, name, priority); err != nil {
		return &ProtocolError{Status: RequestDenied, Cause: err}
	}
	return nil
}

// ProtocolError wraps a registry failure with the AgentX error-status it
// maps to.
type ProtocolError struct {
	Status ErrorStatus
	Cause  error
}

func (e *ProtocolError) Error() string { return e.Cause.Error() }
func (e *ProtocolError) Unwrap() error { return e.Cause }

// Forward builds and sends an AgentX request PDU to the subagent session
// named by session and records it as a pending delegation, per spec
// §4.3 "Request forwarding". transactionID is the originating SNMP
// transaction id; a fresh master-wide packetID correlates the reply.
func (m *Master) Forward(session uint32, transactionID uint32, timeout time.Duration, cmd Command, payload []byte) (packetID uint32, err error) {
	s, ok := m.sessions[session]
	if !ok {
		return 0, errors.New("unknown subagent session")
	}

	packetID = m.nextPacketID
	m.nextPacketID++

	frame := EncodeHeader(Header{
		Version:       1,
		Command:       cmd,
		Flags:         FlagNetworkByteOrder,
		SessionID:     session,
		TransactionID: transactionID,
		PacketID:      packetID,
	}, payload)

	if err := m.Transport.Send(session, frame); err != nil {
		return 0, err
	}

	key := delegationKey(transactionID, packetID)
	m.pending[key] = &delegation{
		TransactionID: transactionID,
		PacketID:      packetID,
		Session:       s.ID,
		Deadline:      time.Now().Add(timeout),
		trace:         uuid.New(),
	}
	return packetID, nil
}

func delegationKey(transactionID, packetID uint32) uint64 {
	return uint64(transactionID)<<32 | uint64(packetID)
}

// ResponseOutcome is the result of correlating a Response PDU against a
// pending delegation.
type ResponseOutcome struct {
	Found      bool
	ErrorIndex int
	Status     ErrorStatus
}

// HandleResponse correlates an incoming Response PDU by
// (transactionID, packetID) against the pending-delegation table, clearing
// the delegation on success, per spec §4.3 "Response handling (master
// side)". If the reply arrives after the delegation already expired, Found
// is false and the caller should discard it.
func (m *Master) HandleResponse(transactionID, packetID uint32, status ErrorStatus, errorIndex int) ResponseOutcome {
	key := delegationKey(transactionID, packetID)
	d, ok := m.pending[key]
	if !ok {
		return ResponseOutcome{Found: false}
	}
	delete(m.pending, key)
	_ = d
	return ResponseOutcome{Found: true, Status: ToSNMPError(status), ErrorIndex: errorIndex}
}

// ExpireTimeouts drops every delegation whose deadline has passed,
// returning their transaction/packet ids so the caller can fail the
// corresponding original requests with Timeout, per spec §5.
func (m *Master) ExpireTimeouts(now time.Time) []uint64 {
	var expired []uint64
	for key, d := range m.pending {
		if now.After(d.Deadline) {
			expired = append(expired, key)
			delete(m.pending, key)
		}
	}
	return expired
}

// sysUpTimeOID and snmpTrapOID, per spec §4.3 "Notify".
var (
	sysUpTimeOID = ber.OID{1, 3, 6, 1, 2, 1, 1, 3, 0}
	snmpTrapOID  = ber.OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 1, 0}
)

// Varbind is the minimal shape Master needs from a notify payload; the
// full value union lives in package snmp.
type Varbind struct {
	OID ber.OID
}

// HandleNotify validates and reformulates a subagent's Notify PDU as a
// regular v3 trap varbind list, per spec §4.3 "Notify". It returns the
// varbinds to submit to the trap path (with the leading sysUpTime varbind
// stripped, if present) or an error if snmpTrapOID is missing where
// required.
func (m *Master) HandleNotify(vbs []Varbind) ([]Varbind, error) {
	if len(vbs) == 0 {
		return nil, errors.New("empty notify payload")
	}
	rest := vbs
	if vbs[0].OID.Equal(sysUpTimeOID) {
		rest = vbs[1:]
	}
	if len(rest) == 0 || !rest[0].OID.Equal(snmpTrapOID) {
		return nil, errors.New("notify missing snmpTrapOID as second varbind")
	}
	return rest, nil
}
