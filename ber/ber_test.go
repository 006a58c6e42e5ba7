package ber_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duniansampa/priot/ber"
)

func TestBuildIntBoundaryCases(t *testing.T) {
	require.Equal(t, []byte{0x02, 0x01, 0xFF}, ber.BuildInt(-1))
	require.Equal(t, []byte{0x02, 0x01, 0x7F}, ber.BuildInt(127))
	require.Equal(t, []byte{0x02, 0x02, 0x00, 0x80}, ber.BuildInt(128))
}

func TestParseIntRoundTrip(t *testing.T) {
	for _, v := range []int32{-1, 0, 1, 127, 128, -128, -129, 1 << 30, -(1 << 30)} {
		wire := ber.BuildInt(v)
		got, rest, err := ber.ParseInt(wire)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}

func TestParseUintRejectsOverflow(t *testing.T) {
	_, _, err := ber.ParseUint([]byte{0x02, 0x06, 1, 2, 3, 4, 5, 6})
	require.Error(t, err)
	require.True(t, ber.IsKind(err, ber.ErrValueTooLarge))
}

func TestBuildUintTopBitGuard(t *testing.T) {
	wire := ber.BuildUint(0xFFFFFFFF)
	require.Equal(t, []byte{0x02, 0x05, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, wire)
	got, _, err := ber.ParseUint(wire)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), got)
}

func TestLengthForms(t *testing.T) {
	_, rest, err := ber.ParseLength([]byte{0x7F, 0xAA})
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA}, rest)

	l, _, err := ber.ParseLength([]byte{0x81, 0x80})
	require.NoError(t, err)
	require.Equal(t, 128, l)

	l, _, err = ber.ParseLength([]byte{0x82, 0xFF, 0xFF})
	require.NoError(t, err)
	require.Equal(t, 65535, l)
}

func TestParseLengthRejectsIndefinite(t *testing.T) {
	_, _, err := ber.ParseLength([]byte{0x80})
	require.Error(t, err)
}

func TestOIDEmptyDecodesToZeroZero(t *testing.T) {
	oid, rest, err := ber.ParseOID([]byte{0x06, 0x00})
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, ber.OID{0, 0}, oid)
}

func TestOIDCompositeSpecialCase(t *testing.T) {
	oid, _, err := ber.ParseOID([]byte{0x06, 0x01, 0x2B})
	require.NoError(t, err)
	require.Equal(t, ber.OID{1, 3}, oid)
}

func TestOIDRoundTrip(t *testing.T) {
	cases := []ber.OID{
		{1, 3, 6, 1, 2, 1, 1, 5, 0},
		{1, 3, 6, 1, 4, 1, 99, 1, 2},
		{0, 0},
		{2, 100, 3},
	}
	for _, oid := range cases {
		wire := ber.BuildOID(oid)
		got, rest, err := ber.ParseOID(wire)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.True(t, oid.Equal(got), "got %v want %v", got, oid)
	}
}

func TestOIDRejectsTruncatedSubidentifier(t *testing.T) {
	_, _, err := ber.ParseOID([]byte{0x06, 0x01, 0x80})
	require.Error(t, err)
	require.True(t, ber.IsKind(err, ber.ErrBadOID))
}

func TestCounter64MaxValue(t *testing.T) {
	c := ber.Counter64FromUint64(0xFFFFFFFFFFFFFFFF)
	wire := ber.BuildCounter64(c)
	require.Equal(t, byte(0x09), wire[1], "length byte")
	require.Equal(t, byte(0x00), wire[2], "leading sign-guard byte")

	got, rest, err := ber.ParseCounter64(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, c, got)
}

func TestFloatRoundTrip(t *testing.T) {
	for _, f := range []float32{0, 1.5, -3.25, 3.1415927} {
		wire := ber.BuildFloat(f)
		got, rest, err := ber.ParseFloat(wire)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, f, got)
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -3.25, 2.718281828} {
		wire := ber.BuildDouble(f)
		got, rest, err := ber.ParseDouble(wire)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, f, got)
	}
}

func TestParseHeaderDisambiguatesOpaqueSubTags(t *testing.T) {
	floatWire := ber.BuildFloat(2.5)
	tag, _, _, err := ber.ParseHeader(floatWire)
	require.NoError(t, err)
	require.NotEqual(t, byte(ber.TagCounter64), tag)

	c := ber.Counter64FromUint64(42)
	c64Wire := ber.BuildCounter64(c)
	// Re-wrap as an opaque-style header is exercised via AgentX encoding,
	// not via the native Counter64 tag; here we confirm the native path
	// still round-trips through ParseHeader untouched.
	tag, content, rest, err := ber.ParseHeader(c64Wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, byte(ber.TagCounter64), tag)
	got, err := ber.DecodeCounter64Body(content)
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestBuildSequenceRoundTrip(t *testing.T) {
	inner := ber.BuildInt(7)
	outer := ber.BuildSequence(byte(ber.TagSequence), inner)
	content, rest, err := ber.ParseSequence(outer)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, inner, content)
}

func TestGrowingBufferBuildsNestedStructureBackToFront(t *testing.T) {
	buf := ber.NewBuffer(4) // deliberately small to exercise growth

	oidLen, ok := buf.BuildOID(ber.OID{1, 3, 6, 1, 2, 1, 1, 5, 0})
	require.True(t, ok)
	valLen, ok := buf.BuildNull()
	require.True(t, ok)

	vbLen, ok := buf.BuildHeader(byte(ber.TagSequence), oidLen+valLen)
	require.True(t, ok)

	_, ok = buf.BuildHeader(byte(ber.TagSequence), vbLen)
	require.True(t, ok)

	wire := buf.Bytes()

	content, rest, err := ber.ParseSequence(wire)
	require.NoError(t, err)
	require.Empty(t, rest)

	vbContent, vbRest, err := ber.ParseSequence(content)
	require.NoError(t, err)
	require.Empty(t, vbRest)

	oid, afterOID, err := ber.ParseOID(vbContent)
	require.NoError(t, err)
	require.True(t, oid.Equal(ber.OID{1, 3, 6, 1, 2, 1, 1, 5, 0}))

	afterNull, err := ber.ParseNull(afterOID)
	require.NoError(t, err)
	require.Empty(t, afterNull)
}
