package agentx

import (
	"time"

	"github.com/google/uuid"
)

// Session is one open subagent session on the master side, per spec §4.3
// "Master session table".
type Session struct {
	ID          uint32
	Transport   string // transport identity (address, fd label, ...)
	Descr       string // subagent description, from the Open PDU's varbind
	SubagentOID string
	Timeout     time.Duration
	OpenedAt    time.Time

	// trace is an internal debugging handle, not part of the wire
	// protocol, used to correlate log lines across a session's lifetime.
	trace uuid.UUID
}

// delegation tracks one request forwarded to a subagent session awaiting a
// Response, per spec §4.3 "Request forwarding"/§5 "Suspension points".
type delegation struct {
	TransactionID uint32
	PacketID      uint32
	Session       uint32
	Deadline      time.Time
	trace         uuid.UUID
}
