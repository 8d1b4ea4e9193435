package ccip

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint128Bytes_RoundTrip(t *testing.T) {
	u := Uint128{Lo: 0x0807060504030201, Hi: 0x100f0e0d0c0b0a09}
	b := u.Bytes()
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf, 0x10}, b[:])

	back, err := Uint128FromBytes(b[:])
	require.NoError(t, err)
	require.Equal(t, u, back)
}

func TestUint128FromBytes_WrongLength(t *testing.T) {
	_, err := Uint128FromBytes(make([]byte, 15))
	require.Error(t, err)
	_, err = Uint128FromBytes(make([]byte, 17))
	require.Error(t, err)
}

func TestUint128Big(t *testing.T) {
	u := Uint128{Lo: 5, Hi: 1}
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	want.Add(want, big.NewInt(5))
	require.Equal(t, 0, want.Cmp(u.Big()))
	require.Equal(t, want.String(), u.String())
}

func TestUint128IsZero(t *testing.T) {
	require.True(t, Uint128{}.IsZero())
	require.False(t, NewUint128(1).IsZero())
	require.False(t, Uint128{Hi: 1}.IsZero())
}
