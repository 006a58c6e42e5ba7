package ber

// ParseHeader reads a tag+length and, when the tag is Opaque and the
// content's first two bytes are an opaque sub-tag plus a one-byte length
// selecting Counter64/UInt64/Int64/Float/Double, rewrites the effective
// type to that inner tag and advances past the inner tag+length. This
// mirrors the reference decoder's single entry point for "what type is
// this varbind's value".
func ParseHeader(buf []byte) (effectiveTag byte, content []byte, rest []byte, err error) {
	tag, outerContent, rest, err := splitTLV(buf)
	if err != nil {
		return 0, nil, nil, err
	}

	if tag != byte(TagOpaque) || len(outerContent) < 2 {
		return tag, outerContent, rest, nil
	}

	subTag := outerContent[0]
	innerLen := int(outerContent[1])
	if innerLen+2 > len(outerContent) {
		// Not a recognized nested encoding; treat as plain Opaque.
		return tag, outerContent, rest, nil
	}
	body := outerContent[2 : 2+innerLen]

	// 0x78 is shared by Counter64 and Float, 0x79 by UInt64 and Double;
	// disambiguate by the declared content length, as the reference
	// decoder does, before falling back to the integer interpretation.
	switch {
	case subTag == OpaqueSubFloat && innerLen == 4:
		return opaqueFloatTag, body, rest, nil
	case subTag == OpaqueSubDouble && innerLen == 8:
		return opaqueDoubleTag, body, rest, nil
	case subTag == OpaqueSubCounter64 && innerLen <= 9:
		return byte(TagCounter64), body, rest, nil
	case subTag == OpaqueSubUint64 && innerLen <= 9:
		return opaqueUint64Tag, body, rest, nil
	case subTag == OpaqueSubInt64 && innerLen <= 9:
		return opaqueInt64Tag, body, rest, nil
	}

	return tag, outerContent, rest, nil
}

// Synthetic tags used only as ParseHeader's effective-type return value;
// these never appear on the wire (the wire tag is always TagOpaque).
const (
	opaqueFloatTag  = 0xf0
	opaqueDoubleTag = 0xf1
	opaqueUint64Tag = 0xf2
	opaqueInt64Tag  = 0xf3
)
