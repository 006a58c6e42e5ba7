package agentx

import (
	"encoding/binary"

	"github.com/duniansampa/priot/ber"
)

// EncodeOID emits the AgentX compact OID encoding: a 4-byte header
// {n_subid, prefix, inclusive, reserved} followed by n_subid 4-byte
// subidentifiers, per spec §6. When the first five subidentifiers are
// {1,3,6,1,<prefix>} with 1 <= prefix <= 255, they are folded into the
// header's prefix byte and omitted from the body.
func EncodeOID(oid ber.OID, inclusive bool, bo binary.ByteOrder) []byte {
	body := oid
	prefix := byte(0)
	if len(oid) >= 5 && oid[0] == 1 && oid[1] == 3 && oid[2] == 6 && oid[3] == 1 && oid[4] >= 1 && oid[4] <= 255 {
		prefix = byte(oid[4])
		body = oid[5:]
	}

	out := make([]byte, 4+4*len(body))
	out[0] = byte(len(body))
	out[1] = prefix
	if inclusive {
		out[2] = 1
	}
	out[3] = 0
	for i, s := range body {
		bo.PutUint32(out[4+4*i:8+4*i], s)
	}
	return out
}

// DecodeOID reads an AgentX compact OID and returns it, whether it was
// marked inclusive, and the remaining bytes.
func DecodeOID(buf []byte, bo binary.ByteOrder) (oid ber.OID, inclusive bool, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, false, nil, &ber.Error{Kind: ber.ErrShort, Msg: "short agentx oid header"}
	}
	n := int(buf[0])
	prefix := buf[1]
	inclusive = buf[2] != 0
	buf = buf[4:]
	if len(buf) < 4*n {
		return nil, false, nil, &ber.Error{Kind: ber.ErrShort, Msg: "truncated agentx oid body"}
	}

	if prefix != 0 {
		oid = append(oid, 1, 3, 6, 1, uint32(prefix))
	}
	for i := 0; i < n; i++ {
		oid = append(oid, bo.Uint32(buf[4*i:4*i+4]))
	}
	return oid, inclusive, buf[4*n:], nil
}

// EncodeString emits the AgentX octet-string encoding: {length:u32, bytes,
// padding to a 4-byte boundary}, per spec §6.
func EncodeString(s []byte, bo binary.ByteOrder) []byte {
	padded := (len(s) + 3) &^ 3
	out := make([]byte, 4+padded)
	bo.PutUint32(out[0:4], uint32(len(s)))
	copy(out[4:], s)
	return out
}

// DecodeString reads an AgentX octet-string, returning its bytes and the
// remaining buffer after its padded body.
func DecodeString(buf []byte, bo binary.ByteOrder) (value []byte, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, nil, &ber.Error{Kind: ber.ErrShort, Msg: "short agentx string header"}
	}
	n := int(bo.Uint32(buf[0:4]))
	buf = buf[4:]
	padded := (n + 3) &^ 3
	if len(buf) < padded {
		return nil, nil, &ber.Error{Kind: ber.ErrShort, Msg: "truncated agentx string body"}
	}
	return append([]byte{}, buf[:n]...), buf[padded:], nil
}
