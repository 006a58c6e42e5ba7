package snmp

import (
	"encoding/asn1"
)

// PDU defines an SNMP PDU whose variable bindings hold values as golang
// types, rather than the ASN.1 transport format.
//
// The same struct also carries an AgentX-originated request/response
// through the agent package's dispatch path: Command/MessageID/
// TransactionID/SessionID/TimeHint/Flags/Context*/Security*/TransportOpaque
// are populated only by callers that need them, so one value
// type threads both protocols through the dispatcher without a translation
// struct at the boundary.
type PDU struct {
	RequestID int32
	// Non-zero used to indicate that an exception occurred to prevent the processing of the request
	Error int
	// If Error is non-zero, identifies which variable binding in the list caused the exception
	ErrorIndex  int
	VarbindList []Varbind

	// Command identifies the originating PDU type (SNMP GetRequest/
	// SetRequest/Trap or an AgentX command) for callers that share this
	// struct across both protocols.
	Command byte
	// MessageID/TransactionID/SessionID correlate an AgentX delegated
	// exchange; unused by the SNMPv2c path.
	MessageID     uint32
	TransactionID uint32
	SessionID     uint32
	// TimeHint carries sysUpTime.0 at request time, for discontinuity
	// detection by delta-sampling trigger evaluation.
	TimeHint uint32
	// Flags mirrors the AgentX header flag byte for PDUs ferried through
	// that transport.
	Flags byte

	Community        string
	ContextEngineID  []byte
	ContextName      string
	SecurityEngineID []byte
	SecurityName     string
	SecurityLevel    int
	SecurityModel    int

	// TransportOpaque is an opaque handle the transport/multiplexer
	// attaches to correlate a response with the socket/peer it arrived
	// on; the snmp package never interprets it.
	TransportOpaque interface{}
}

// Varbind pairs an OID with the golang-typed value the agent resolved for
// it, the shape the mib/agentx/eventmib packages pass between each other.
type Varbind struct {
	OID        asn1.ObjectIdentifier
	TypedValue *TypedValue
}
