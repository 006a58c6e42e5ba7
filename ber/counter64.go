package ber

// ParseCounter64 reads up to 9 bytes (8 value bytes plus an optional
// leading zero sign guard) and decodes them big-endian into a Counter64.
func ParseCounter64(buf []byte) (Counter64, []byte, error) {
	_, content, rest, err := splitTLV(buf)
	if err != nil {
		return Counter64{}, nil, err
	}
	c, err := decodeCounter64(content)
	if err != nil {
		return Counter64{}, nil, err
	}
	return c, rest, nil
}

// DecodeCounter64Body decodes a Counter64 from an already-isolated content
// slice (used when the TLV framing has already been stripped, e.g. by
// ParseHeader on an opaque-wrapped Counter64).
func DecodeCounter64Body(content []byte) (Counter64, error) {
	return decodeCounter64(content)
}

func decodeCounter64(content []byte) (Counter64, error) {
	if len(content) == 0 || len(content) > 9 {
		return Counter64{}, newErr(ErrValueTooLarge, "counter64 content out of range")
	}
	var v uint64
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	return Counter64FromUint64(v), nil
}

// BuildCounter64 emits the minimal-length big-endian encoding of c under
// the Counter64 application tag.
func BuildCounter64(c Counter64) []byte {
	return tlv(byte(TagCounter64), minimalUnsigned(c.Uint64()))
}
