package agentx_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duniansampa/priot/agentx"
	"github.com/duniansampa/priot/ber"
	"github.com/duniansampa/priot/mib"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := agentx.Header{
		Version: 1, Command: agentx.CmdGet, Flags: agentx.FlagNetworkByteOrder,
		SessionID: 7, TransactionID: 42, PacketID: 99,
	}
	payload := []byte{1, 2, 3, 4}

	frame := agentx.EncodeHeader(h, payload)
	require.Len(t, frame, 20+len(payload))

	got, rest, err := agentx.DecodeHeader(frame)
	require.NoError(t, err)
	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.Command, got.Command)
	require.Equal(t, h.SessionID, got.SessionID)
	require.Equal(t, h.TransactionID, got.TransactionID)
	require.Equal(t, h.PacketID, got.PacketID)
	require.Equal(t, uint32(len(payload)), got.PayloadLength)
	require.Equal(t, payload, rest)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, _, err := agentx.DecodeHeader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeHeaderRejectsTruncatedPayload(t *testing.T) {
	h := agentx.Header{Version: 1, Command: agentx.CmdGet, Flags: agentx.FlagNetworkByteOrder}
	frame := agentx.EncodeHeader(h, []byte{1, 2, 3, 4})
	_, _, err := agentx.DecodeHeader(frame[:20+2])
	require.Error(t, err)
}

func TestEncodeOIDFoldsCommonPrefix(t *testing.T) {
	oid := ber.OID{1, 3, 6, 1, 4, 1, 99, 1}
	enc := agentx.EncodeOID(oid, true, binary.BigEndian)

	// prefix byte (oid[4]=4) folds the {1,3,6,1,4} stem; only 3 subids
	// ({1,99,1}) remain in the body.
	require.Equal(t, byte(3), enc[0])
	require.Equal(t, byte(4), enc[1])
	require.Equal(t, byte(1), enc[2])

	decoded, inclusive, rest, err := agentx.DecodeOID(enc, binary.BigEndian)
	require.NoError(t, err)
	require.True(t, inclusive)
	require.Empty(t, rest)
	require.True(t, oid.Equal(decoded))
}

func TestEncodeOIDWithoutFoldablePrefix(t *testing.T) {
	oid := ber.OID{2, 1, 1, 1}
	enc := agentx.EncodeOID(oid, false, binary.BigEndian)
	require.Equal(t, byte(4), enc[0])
	require.Equal(t, byte(0), enc[1])

	decoded, inclusive, _, err := agentx.DecodeOID(enc, binary.BigEndian)
	require.NoError(t, err)
	require.False(t, inclusive)
	require.True(t, oid.Equal(decoded))
}

func TestStringRoundTripPadsToFourBytes(t *testing.T) {
	enc := agentx.EncodeString([]byte("abc"), binary.BigEndian)
	require.Len(t, enc, 4+4) // length word + 3 bytes padded to 4

	value, rest, err := agentx.DecodeString(enc, binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), value)
	require.Empty(t, rest)
}

type fakeTransport struct {
	sent []sentFrame
}

type sentFrame struct {
	session uint32
	frame   []byte
}

func (f *fakeTransport) Send(sessionID uint32, frame []byte) error {
	f.sent = append(f.sent, sentFrame{sessionID, frame})
	return nil
}

func TestMasterOpenRegisterCloseRevokesRegistration(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)

	s := m.HandleOpen("tcp:1", 0, "1.3.6.1.4.1.99", "test subagent")
	require.NotZero(t, s.ID)

	h := mib.HandlerFunc(func(tree *mib.Subtree, req *mib.Request) (mib.Verdict, error) {
		return mib.VerdictDone, nil
	})
	require.NoError(t, m.HandleRegister(s, ber.OID{1, 3, 6, 1, 4, 1, 99}, 127, 0, 0, h, ""))

	_, err := reg.Lookup("", ber.OID{1, 3, 6, 1, 4, 1, 99, 1})
	require.NoError(t, err)

	removed := m.HandleClose(s.ID, "")
	require.Len(t, removed, 1)

	_, err = reg.Lookup("", ber.OID{1, 3, 6, 1, 4, 1, 99, 1})
	require.Error(t, err)
}

func TestMasterRegisterDuplicateMapsToProtocolError(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)
	s := m.HandleOpen("tcp:1", 0, "", "")

	h := mib.HandlerFunc(func(tree *mib.Subtree, req *mib.Request) (mib.Verdict, error) {
		return mib.VerdictDone, nil
	})
	require.NoError(t, m.HandleRegister(s, ber.OID{1, 3, 6, 1, 4, 1, 1}, 127, 0, 0, h, ""))

	err := m.HandleRegister(s, ber.OID{1, 3, 6, 1, 4, 1, 1}, 127, 0, 0, h, "")
	require.Error(t, err)
	var pe *agentx.ProtocolError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, agentx.DuplicateRegistration, pe.Status)
}

// Scenario 4 (spec §8): AgentX delegated GET round-trip.
func TestForwardAndResponseCorrelation(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)
	s := m.HandleOpen("tcp:1", time.Second, "", "")

	packetID, err := m.Forward(s.ID, 1001, time.Second, agentx.CmdGet, []byte{1, 2})
	require.NoError(t, err)
	require.Len(t, tr.sent, 1)
	require.Equal(t, s.ID, tr.sent[0].session)

	outcome := m.HandleResponse(1001, packetID, agentx.NoError, 0)
	require.True(t, outcome.Found)
	require.Equal(t, agentx.NoError, outcome.Status)

	// A second correlation against the same (transactionID, packetID)
	// finds nothing: the delegation was consumed.
	again := m.HandleResponse(1001, packetID, agentx.NoError, 0)
	require.False(t, again.Found)
}

func TestForwardResponseMapsSubagentErrorToGenErr(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)
	s := m.HandleOpen("tcp:1", time.Second, "", "")

	packetID, err := m.Forward(s.ID, 2, time.Second, agentx.CmdGet, nil)
	require.NoError(t, err)

	outcome := m.HandleResponse(2, packetID, agentx.ProcessingError, 3)
	require.True(t, outcome.Found)
	require.Equal(t, agentx.GenErr, outcome.Status)
	require.Equal(t, 3, outcome.ErrorIndex)
}

func TestExpireTimeoutsDropsStaleDelegations(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)
	s := m.HandleOpen("tcp:1", time.Second, "", "")

	_, err := m.Forward(s.ID, 5, -time.Second, agentx.CmdGet, nil)
	require.NoError(t, err)

	expired := m.ExpireTimeouts(time.Now())
	require.Len(t, expired, 1)

	outcome := m.HandleResponse(5, 1, agentx.NoError, 0)
	require.False(t, outcome.Found, "expired delegation must no longer correlate")
}

func TestHandleNotifyStripsSysUpTimeAndRequiresTrapOID(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)

	sysUpTime := agentx.Varbind{OID: ber.OID{1, 3, 6, 1, 2, 1, 1, 3, 0}}
	trap := agentx.Varbind{OID: ber.OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 1, 0}}
	extra := agentx.Varbind{OID: ber.OID{1, 3, 6, 1, 4, 1, 1, 1}}

	vbs, err := m.HandleNotify([]agentx.Varbind{sysUpTime, trap, extra})
	require.NoError(t, err)
	require.Len(t, vbs, 2)
	require.True(t, vbs[0].OID.Equal(trap.OID))
}

func TestHandleNotifyRejectsMissingTrapOID(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)

	extra := agentx.Varbind{OID: ber.OID{1, 3, 6, 1, 4, 1, 1, 1}}
	_, err := m.HandleNotify([]agentx.Varbind{extra})
	require.Error(t, err)
}

func TestHandleNotifyRejectsEmpty(t *testing.T) {
	reg := mib.NewRegistry()
	tr := &fakeTransport{}
	m := agentx.NewMaster(reg, tr)

	_, err := m.HandleNotify(nil)
	require.Error(t, err)
}
