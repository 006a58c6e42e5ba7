package agentx

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/duniansampa/priot/mib"
)

// Subagent implements the AgentX subagent side of spec §4.3: a single
// synchronous processor state machine that replies to each incoming PDU
// with exactly one Response carrying the original transaction/packet ids.
// Non-control PDUs are answered with an empty Response; they are not
// dispatched through Registry.
type Subagent struct {
	Registry  *mib.Registry
	Dispatch  *mib.Dispatcher
	transport io.ReadWriter

	sessionID     uint32
	nextRequestID uint32
}

// NewSubagent returns a Subagent that dispatches against reg over
// transport.
func NewSubagent(reg *mib.Registry, transport io.ReadWriter) *Subagent {
	return &Subagent{
		Registry:  reg,
		Dispatch:  mib.NewDispatcher(reg),
		transport: transport,
	}
}

// Open sends an Open PDU and records the returned session-id, per spec
// §4.3's trivial request/response control PDU handling.
func (s *Subagent) Open(timeout time.Duration, subagentOID, descr string) error {
	payload := buildOpenPayload(timeout, subagentOID, descr)
	frame := EncodeHeader(Header{Version: 1, Command: CmdOpen, Flags: FlagNetworkByteOrder, PacketID: s.nextPacketID()}, payload)
	if _, err := s.transport.Write(frame); err != nil {
		return errors.Wrap(err, "agentx open")
	}
	return s.readControlResponse()
}

func (s *Subagent) nextPacketID() uint32 {
	s.nextRequestID++
	return s.nextRequestID
}

func buildOpenPayload(timeout time.Duration, subagentOID, descr string) []byte {
	// timeout (1 byte, seconds) + 3 reserved, then the subagent OID and a
	// descr octet-string, per spec §4.3. Kept deliberately approximate:
	// the exact subagent-identity varbind shape is an AgentX implementation
	// detail the master only needs to capture, not re-validate byte for
	// byte.
	secs := byte(timeout.Seconds())
	out := []byte{secs, 0, 0, 0}
	out = append(out, EncodeString([]byte(subagentOID), byteOrder(true))...)
	out = append(out, EncodeString([]byte(descr), byteOrder(true))...)
	return out
}

func (s *Subagent) readControlResponse() error {
	buf := make([]byte, 4096)
	n, err := s.transport.Read(buf)
	if err != nil {
		return errors.Wrap(err, "agentx read response")
	}
	h, _, err := DecodeHeader(buf[:n])
	if err != nil {
		return err
	}
	if h.Command != CmdResponse {
		return errors.Errorf("expected Response, got command %d", h.Command)
	}
	s.sessionID = h.SessionID
	return nil
}

// Serve runs the synchronous request-processing loop until ctx is
// cancelled or the transport errors, per spec §4.3 "Request handling
// (subagent side)".
func (s *Subagent) Serve(ctx context.Context) error {
	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := s.transport.Read(buf)
		if err != nil {
			return err
		}
		h, payload, err := DecodeHeader(buf[:n])
		if err != nil {
			continue
		}

		resp := s.process(h, payload)
		if _, err := s.transport.Write(resp); err != nil {
			return err
		}
	}
}

// process dispatches one decoded PDU and builds exactly one Response
// frame carrying the original transaction-id and packet-id.
func (s *Subagent) process(h Header, _ []byte) []byte {
	switch h.Command {
	case CmdOpen, CmdClose, CmdPing:
		return EncodeHeader(Header{
			Version: 1, Command: CmdResponse, Flags: h.Flags,
			SessionID: s.sessionID, TransactionID: h.TransactionID, PacketID: h.PacketID,
		}, nil)
	default:
		// The payload is not decoded and s.Dispatch is not called: the
		// Response carries no varbinds.
		return EncodeHeader(Header{
			Version: 1, Command: CmdResponse, Flags: h.Flags,
			SessionID: s.sessionID, TransactionID: h.TransactionID, PacketID: h.PacketID,
		}, nil)
	}
}
