package ber

// ParseString reads a tag+length+bytes value, returning the effective
// tag so callers can distinguish OctetString / IpAddress / Opaque by the
// outer tag byte.
func ParseString(buf []byte) (tag byte, value []byte, rest []byte, err error) {
	tag, content, rest, err := splitTLV(buf)
	if err != nil {
		return 0, nil, nil, err
	}
	return tag, append([]byte{}, content...), rest, nil
}

// BuildString emits a tag+length+bytes encoding for value under tag.
func BuildString(tag byte, value []byte) []byte {
	return tlv(tag, value)
}

// ParseNull reads a NULL value and returns the remaining bytes.
func ParseNull(buf []byte) ([]byte, error) {
	_, _, rest, err := splitTLV(buf)
	if err != nil {
		return nil, err
	}
	return rest, nil
}

// BuildNull emits a NULL value.
func BuildNull() []byte {
	return []byte{byte(TagNull), 0x00}
}

// BuildSequence wraps content in a SEQUENCE TLV (or any other
// constructed/outer tag, such as an SNMP PDU command tag).
func BuildSequence(tag byte, content []byte) []byte {
	return tlv(tag, content)
}

// ParseSequence reads a SEQUENCE-tagged value, returning its content and
// the remaining bytes after it.
func ParseSequence(buf []byte) (content []byte, rest []byte, err error) {
	_, content, rest, err = splitTLV(buf)
	return content, rest, err
}
