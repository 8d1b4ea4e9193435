package ccip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeWritableIndexes_MirroredBits(t *testing.T) {
	segs := EncodeWritableIndexes([]uint8{3, 4, 7})
	require.Equal(t, uint64(0), segs[0].Lo)
	require.Equal(t, uint64(1<<60|1<<59|1<<56), segs[0].Hi)
	require.True(t, segs[1].IsZero())
}

func TestEncodeWritableIndexes_HighSegment(t *testing.T) {
	segs := EncodeWritableIndexes([]uint8{128, 255})
	require.True(t, segs[0].IsZero())
	require.Equal(t, uint64(1), segs[1].Lo)
	require.Equal(t, uint64(1<<63), segs[1].Hi)
}

func TestEncodeWritableIndexes_DropsIndexZero(t *testing.T) {
	require.Equal(t, EncodeWritableIndexes(nil), EncodeWritableIndexes([]uint8{0}))

	segs := EncodeWritableIndexes([]uint8{0, 5})
	require.Equal(t, []uint8{5}, DecodeWritableIndexes(segs))
}

func TestWritableIndexes_RoundTrip(t *testing.T) {
	in := []uint8{255, 1, 64, 3, 127, 128, 3}
	segs := EncodeWritableIndexes(in)
	require.Equal(t, []uint8{1, 3, 64, 127, 128, 255}, DecodeWritableIndexes(segs))
}

func TestDecodeWritableIndexes_Empty(t *testing.T) {
	require.Empty(t, DecodeWritableIndexes([2]Uint128{}))
}

func TestDecodeWritableIndexes_ForeignZeroBit(t *testing.T) {
	// On-chain data could carry position 0; decode reports it as stored.
	var segs [2]Uint128
	segs[0].setBit(127)
	require.Equal(t, []uint8{0}, DecodeWritableIndexes(segs))
}

func TestIsWritableIndex(t *testing.T) {
	segs := EncodeWritableIndexes([]uint8{2, 200})
	require.True(t, IsWritableIndex(segs, 2))
	require.True(t, IsWritableIndex(segs, 200))
	require.False(t, IsWritableIndex(segs, 0))
	require.False(t, IsWritableIndex(segs, 3))
	require.False(t, IsWritableIndex(segs, 199))
	require.False(t, IsWritableIndex(segs, 255))
}
