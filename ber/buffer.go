package ber

// Buffer is the growing, backwards-writing builder described in spec
// §4.1: primitives write bytes at buf[len(buf)-offset-1] downward, and the
// buffer doubles in size whenever offset would exceed its capacity. This
// allows single-pass emission of nested TLV structures (the outer
// SEQUENCE length is never known until its content has been built) without
// precomputing lengths.
//
// On failure the offset is left unchanged and the build method reports
// false; on success offset advances by the number of bytes written.
type Buffer struct {
	buf    []byte
	offset int
}

// NewBuffer returns a Buffer with the given initial capacity. Capacity
// grows automatically; callers do not need to size it precisely.
func NewBuffer(capacity int) *Buffer {
	if capacity < 16 {
		capacity = 16
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Bytes returns the bytes written so far, in forward (wire) order.
func (b *Buffer) Bytes() []byte {
	return b.buf[len(b.buf)-b.offset:]
}

// Len reports the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.offset
}

func (b *Buffer) grow(need int) {
	newCap := len(b.buf) * 2
	if newCap < len(b.buf)+need {
		newCap = len(b.buf) + need
	}
	grown := make([]byte, newCap)
	copy(grown[newCap-b.offset:], b.buf[len(b.buf)-b.offset:])
	b.buf = grown
}

// writeBytes pushes p onto the front of the buffer (p is already in wire
// order; the last byte of p ends up adjacent to whatever was written
// before it).
func (b *Buffer) writeBytes(p []byte) {
	if b.offset+len(p) > len(b.buf) {
		b.grow(len(p))
	}
	b.offset += len(p)
	copy(b.buf[len(b.buf)-b.offset:], p)
}

// BuildInt writes a minimal-length INTEGER encoding of v.
func (b *Buffer) BuildInt(v int32) (int, bool) {
	return b.writeTLV(byte(TagInteger), minimalSigned(int64(v)))
}

// BuildUint writes a minimal-length unsigned INTEGER-shaped encoding of v
// under the given tag.
func (b *Buffer) BuildUint(tag byte, v uint32) (int, bool) {
	return b.writeTLV(tag, minimalUnsigned(uint64(v)))
}

// BuildCounter64 writes the minimal-length encoding of c.
func (b *Buffer) BuildCounter64(c Counter64) (int, bool) {
	return b.writeTLV(byte(TagCounter64), minimalUnsigned(c.Uint64()))
}

// BuildString writes tag+length+value.
func (b *Buffer) BuildString(tag byte, value []byte) (int, bool) {
	return b.writeTLV(tag, value)
}

// BuildNull writes a NULL value.
func (b *Buffer) BuildNull() (int, bool) {
	return b.writeTLV(byte(TagNull), nil)
}

// BuildOID writes oid's BER encoding.
func (b *Buffer) BuildOID(oid OID) (int, bool) {
	return b.writeTLV(byte(TagOID), encodeOID(oid))
}

// BuildFloat writes f as an opaque-wrapped float value.
func (b *Buffer) BuildFloat(f float32) (int, bool) {
	before := b.offset
	b.writeBytes(BuildFloat(f))
	return b.offset - before, true
}

// BuildDouble writes f as an opaque-wrapped double value.
func (b *Buffer) BuildDouble(f float64) (int, bool) {
	before := b.offset
	b.writeBytes(BuildDouble(f))
	return b.offset - before, true
}

// BuildHeader writes only a tag+length header around contentLen bytes that
// the caller has already written immediately before calling this (i.e.
// the content is already at the front of the buffer); the header is
// pushed in front of it, completing the TLV. This is how nested SEQUENCE
// structures are built without knowing their length in advance: build the
// content first (innermost-last, since the buffer grows backwards), then
// wrap each layer with BuildHeader once its size is known.
func (b *Buffer) BuildHeader(tag byte, contentLen int) (int, bool) {
	before := b.offset
	b.writeBytes(buildLength(contentLen))
	b.writeBytes([]byte{tag})
	return b.offset - before, true
}

// writeTLV writes a complete tag+length+content TLV, content first (since
// the buffer grows backwards) then the header in front of it.
func (b *Buffer) writeTLV(tag byte, content []byte) (int, bool) {
	before := b.offset
	b.writeBytes(content)
	b.writeBytes(buildLength(len(content)))
	b.writeBytes([]byte{tag})
	return b.offset - before, true
}
