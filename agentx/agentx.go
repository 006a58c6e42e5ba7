// Package agentx implements the AgentX master/subagent session, register,
// and response protocol of spec §4.3: wire framing, the master's session
// table and index pool, and the subagent's synchronous request processor.
package agentx

import (
	"encoding/binary"

	"github.com/duniansampa/priot/ber"
)

// Command is an AgentX PDU command code, per spec §4.3.
type Command byte

const (
	CmdOpen              Command = 1
	CmdClose             Command = 2
	CmdRegister          Command = 3
	CmdUnregister        Command = 4
	CmdGet               Command = 5
	CmdGetNext           Command = 6
	CmdGetBulk           Command = 7
	CmdTestSet           Command = 8
	CmdCommitSet         Command = 9
	CmdUndoSet           Command = 10
	CmdCleanupSet        Command = 11
	CmdNotify            Command = 12
	CmdPing              Command = 13
	CmdIndexAllocate     Command = 14
	CmdIndexDeallocate   Command = 15
	CmdAddAgentCaps      Command = 16
	CmdRemoveAgentCaps   Command = 17
	CmdResponse          Command = 18
)

// Flag bits in the AgentX header, per spec §4.3/§6.
const (
	FlagInstanceRegistration byte = 0x01
	FlagNewIndex             byte = 0x02
	FlagAnyIndex             byte = 0x04
	FlagNonDefaultContext    byte = 0x08
	FlagNetworkByteOrder     byte = 0x10
)

// headerSize is the fixed 20-byte AgentX header, per spec §4.3.
const headerSize = 20

// Header is the fixed AgentX frame header.
type Header struct {
	Version       byte
	Command       Command
	Flags         byte
	SessionID     uint32
	TransactionID uint32
	PacketID      uint32
	PayloadLength uint32
}

func (h Header) networkOrder() bool { return h.Flags&FlagNetworkByteOrder != 0 }

func byteOrder(networkOrder bool) binary.ByteOrder {
	if networkOrder {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// EncodeHeader writes h followed by payload, back-patching PayloadLength
// to len(payload), per spec §4.3's framing contract.
func EncodeHeader(h Header, payload []byte) []byte {
	bo := byteOrder(h.networkOrder())
	out := make([]byte, headerSize+len(payload))
	out[0] = h.Version
	out[1] = byte(h.Command)
	out[2] = h.Flags
	out[3] = 0 // reserved
	bo.PutUint32(out[4:8], h.SessionID)
	bo.PutUint32(out[8:12], h.TransactionID)
	bo.PutUint32(out[12:16], h.PacketID)
	bo.PutUint32(out[16:20], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out
}

// DecodeHeader reads the fixed header from buf and returns it along with
// the remaining bytes (which must be at least PayloadLength long).
func DecodeHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < headerSize {
		return Header{}, nil, &ber.Error{Kind: ber.ErrShort, Msg: "short agentx header"}
	}
	flags := buf[2]
	bo := byteOrder(flags&FlagNetworkByteOrder != 0)
	h := Header{
		Version:       buf[0],
		Command:       Command(buf[1]),
		Flags:         flags,
		SessionID:     bo.Uint32(buf[4:8]),
		TransactionID: bo.Uint32(buf[8:12]),
		PacketID:      bo.Uint32(buf[12:16]),
		PayloadLength: bo.Uint32(buf[16:20]),
	}
	rest := buf[headerSize:]
	if uint32(len(rest)) < h.PayloadLength {
		return Header{}, nil, &ber.Error{Kind: ber.ErrShort, Msg: "truncated agentx payload"}
	}
	return h, rest[:h.PayloadLength], nil
}
