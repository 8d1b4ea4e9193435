package ccip

// The registry stores table-entry writability as two 128-bit segments with
// a mirrored bit order: position i < 128 lives at bit 127-i of segment 0,
// position i >= 128 at bit 255-i of segment 1. The mapping matches what the
// on-chain registry persists bit for bit, mirror and all.

// EncodeWritableIndexes packs writable table positions into the registry
// segments. Position 0 is the table's self-reference and can never be
// writable; it is dropped rather than rejected. Duplicates are idempotent.
func EncodeWritableIndexes(indexes []uint8) [2]Uint128 {
	var segs [2]Uint128
	for _, i := range indexes {
		if i == 0 {
			continue
		}
		if i < 128 {
			segs[0].setBit(uint(127 - i))
		} else {
			segs[1].setBit(uint(255 - i))
		}
	}
	return segs
}

// DecodeWritableIndexes lists the writable positions in ascending order.
func DecodeWritableIndexes(segs [2]Uint128) []uint8 {
	out := make([]uint8, 0, 8)
	for i := 0; i < 128; i++ {
		if segs[0].bit(uint(127 - i)) {
			out = append(out, uint8(i))
		}
	}
	for i := 128; i < 256; i++ {
		if segs[1].bit(uint(255 - i)) {
			out = append(out, uint8(i))
		}
	}
	return out
}

func IsWritableIndex(segs [2]Uint128, index uint8) bool {
	if index < 128 {
		return segs[0].bit(uint(127 - index))
	}
	return segs[1].bit(uint(255 - index))
}
