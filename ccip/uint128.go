package ccip

import (
	"encoding/binary"
	"errors"
	"math/big"
)

// Uint128 is a little-endian unsigned 128-bit integer, the width the
// registry bitmap segments and juels-denominated fees use on the wire.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

func NewUint128(lo uint64) Uint128 {
	return Uint128{Lo: lo}
}

func Uint128FromBytes(b []byte) (Uint128, error) {
	if len(b) != 16 {
		return Uint128{}, errors.New("uint128 needs exactly 16 bytes")
	}
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

func (u Uint128) Bytes() [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], u.Lo)
	binary.LittleEndian.PutUint64(out[8:16], u.Hi)
	return out
}

func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

func (u Uint128) Big() *big.Int {
	out := new(big.Int).SetUint64(u.Hi)
	out.Lsh(out, 64)
	return out.Or(out, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	return u.Big().String()
}

func (u Uint128) bit(i uint) bool {
	if i < 64 {
		return u.Lo>>i&1 == 1
	}
	return u.Hi>>(i-64)&1 == 1
}

func (u *Uint128) setBit(i uint) {
	if i < 64 {
		u.Lo |= 1 << i
		return
	}
	u.Hi |= 1 << (i - 64)
}
