package ccip

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/svmlink/ccip-solana/solana"
)

// TokenAmount is one token leg of a message, denominated in the mint's
// native units.
type TokenAmount struct {
	Mint   solana.Pubkey
	Amount uint64
}

// Message is an outbound cross-chain message. Receiver holds the raw
// destination-chain address bytes (20 for EVM, left unpadded). A zero
// FeeToken means fees are paid in native SOL and billed through the wrapped
// mint. A zero ExtraArgs serializes as empty bytes, which tells the router
// to apply the destination chain defaults.
type Message struct {
	Receiver     []byte
	Data         []byte
	TokenAmounts []TokenAmount
	FeeToken     solana.Pubkey
	ExtraArgs    ExtraArgs
}

// ExtraArgs mirrors GenericExtraArgsV2.
type ExtraArgs struct {
	GasLimit                 Uint128
	AllowOutOfOrderExecution bool
}

// genericExtraArgsV2Tag prefixes the serialized args so the destination can
// pick the decoder; same constant every CCIP chain family uses.
var genericExtraArgsV2Tag = [4]byte{0x18, 0x1d, 0xcf, 0x10}

func (a ExtraArgs) isZero() bool {
	return a.GasLimit.IsZero() && !a.AllowOutOfOrderExecution
}

func (a ExtraArgs) encode() []byte {
	if a.isZero() {
		return nil
	}
	out := make([]byte, 0, 4+16+1)
	out = append(out, genericExtraArgsV2Tag[:]...)
	gas := a.GasLimit.Bytes()
	out = append(out, gas[:]...)
	if a.AllowOutOfOrderExecution {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

func (m Message) validate() error {
	if len(m.Receiver) == 0 {
		return errors.New("message receiver required")
	}
	if len(m.Data) == 0 && len(m.TokenAmounts) == 0 {
		return errors.New("message needs data or token amounts")
	}
	for _, ta := range m.TokenAmounts {
		if ta.Mint.IsZero() {
			return errors.New("token amount with zero mint")
		}
		if ta.Amount == 0 {
			return errors.New("token amount of zero")
		}
	}
	return nil
}

// encode is the borsh form the router deserializes as SVM2AnyMessage.
func (m Message) encode() []byte {
	out := make([]byte, 0, 128+len(m.Receiver)+len(m.Data)+40*len(m.TokenAmounts))
	out = appendBytesVec(out, m.Receiver)
	out = appendBytesVec(out, m.Data)
	out = appendU32(out, uint32(len(m.TokenAmounts)))
	for _, ta := range m.TokenAmounts {
		out = append(out, ta.Mint[:]...)
		out = appendU64(out, ta.Amount)
	}
	out = append(out, m.FeeToken[:]...)
	out = appendBytesVec(out, m.ExtraArgs.encode())
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendBytesVec(b []byte, v []byte) []byte {
	b = appendU32(b, uint32(len(v)))
	return append(b, v...)
}

// anchorDiscriminator is the 8-byte method tag anchor programs expect at
// the front of instruction data.
func anchorDiscriminator(method string) [8]byte {
	h := sha256.Sum256([]byte("global:" + method))
	var out [8]byte
	copy(out[:], h[:8])
	return out
}
