package solana

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

var ErrMissingSigner = errors.New("missing signer for required signature")

// Transaction is a compiled message plus its signature slots. Compile*
// returns it unsigned; Sign fills the slots without touching the message
// bytes, so signatures are always over the exact compiled message.
type Transaction struct {
	message    []byte
	signerKeys []Pubkey
	signatures [][64]byte
}

func (tx *Transaction) Message() []byte {
	return tx.message
}

// RequiredSigners returns the signer pubkeys in message order, fee payer
// first.
func (tx *Transaction) RequiredSigners() []Pubkey {
	return tx.signerKeys
}

func (tx *Transaction) Sign(signers ...Signer) error {
	byPubkey := make(map[Pubkey]Signer, len(signers))
	for _, s := range signers {
		byPubkey[s.Pubkey()] = s
	}
	for i, pk := range tx.signerKeys {
		s, ok := byPubkey[pk]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSigner, pk.Base58())
		}
		sig, err := s.Sign(tx.message)
		if err != nil {
			return fmt.Errorf("sign as %s: %w", pk.Base58(), err)
		}
		tx.signatures[i] = sig
	}
	return nil
}

func (tx *Transaction) Signed() bool {
	if len(tx.signatures) == 0 {
		return false
	}
	var zero [64]byte
	for i := range tx.signatures {
		if tx.signatures[i] == zero {
			return false
		}
	}
	return true
}

// Signature returns the first signature slot, which doubles as the
// transaction id once signed.
func (tx *Transaction) Signature() [64]byte {
	if len(tx.signatures) == 0 {
		return [64]byte{}
	}
	return tx.signatures[0]
}

// SignatureBase58 is the base58 form of Signature, the id wallets and
// explorers show.
func (tx *Transaction) SignatureBase58() string {
	sig := tx.Signature()
	return base58.Encode(sig[:])
}

// Bytes serializes the wire transaction. Unsigned slots serialize as zero
// signatures, which is what simulation with sigVerify=false expects.
func (tx *Transaction) Bytes() []byte {
	out := make([]byte, 0, 1+64*len(tx.signatures)+len(tx.message))
	out = append(out, encodeShortVecLen(len(tx.signatures))...)
	for i := range tx.signatures {
		out = append(out, tx.signatures[i][:]...)
	}
	out = append(out, tx.message...)
	return out
}

func CompileLegacyTransaction(
	recentBlockhash [32]byte,
	feePayer Pubkey,
	instructions []Instruction,
) (*Transaction, error) {
	msg, accountKeys, header, err := compileLegacyMessage(recentBlockhash, feePayer, instructions)
	if err != nil {
		return nil, err
	}
	return newTransaction(msg, accountKeys, header), nil
}

func newTransaction(msg []byte, accountKeys []Pubkey, header messageHeader) *Transaction {
	n := int(header.NumRequiredSignatures)
	return &Transaction{
		message:    msg,
		signerKeys: append([]Pubkey{}, accountKeys[:n]...),
		signatures: make([][64]byte, n),
	}
}

type messageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

type accountInfo struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
	FirstSeen  int
}

func compileLegacyMessage(
	recentBlockhash [32]byte,
	feePayer Pubkey,
	instructions []Instruction,
) ([]byte, []Pubkey, messageHeader, error) {
	infos := make(map[Pubkey]*accountInfo, 32)
	seen := 0

	touch := func(pk Pubkey, signer, writable bool) {
		if ai, ok := infos[pk]; ok {
			ai.IsSigner = ai.IsSigner || signer
			ai.IsWritable = ai.IsWritable || writable
			return
		}
		infos[pk] = &accountInfo{
			Pubkey:     pk,
			IsSigner:   signer,
			IsWritable: writable,
			FirstSeen:  seen,
		}
		seen++
	}

	// Fee payer must be a writable signer.
	touch(feePayer, true, true)

	for _, ix := range instructions {
		touch(ix.ProgramID, false, false)
		for _, am := range ix.Accounts {
			touch(am.Pubkey, am.IsSigner, am.IsWritable)
		}
	}

	signersWritable := make([]*accountInfo, 0, 8)
	signersReadonly := make([]*accountInfo, 0, 8)
	nonsignersWritable := make([]*accountInfo, 0, 16)
	nonsignersReadonly := make([]*accountInfo, 0, 16)

	for _, ai := range infos {
		if ai.IsSigner {
			if ai.IsWritable {
				signersWritable = append(signersWritable, ai)
			} else {
				signersReadonly = append(signersReadonly, ai)
			}
			continue
		}
		if ai.IsWritable {
			nonsignersWritable = append(nonsignersWritable, ai)
		} else {
			nonsignersReadonly = append(nonsignersReadonly, ai)
		}
	}

	sortByFirstSeen(signersWritable)
	sortByFirstSeen(signersReadonly)
	sortByFirstSeen(nonsignersWritable)
	sortByFirstSeen(nonsignersReadonly)

	accountKeys := make([]Pubkey, 0, len(infos))
	for _, ai := range signersWritable {
		accountKeys = append(accountKeys, ai.Pubkey)
	}
	for _, ai := range signersReadonly {
		accountKeys = append(accountKeys, ai.Pubkey)
	}
	for _, ai := range nonsignersWritable {
		accountKeys = append(accountKeys, ai.Pubkey)
	}
	for _, ai := range nonsignersReadonly {
		accountKeys = append(accountKeys, ai.Pubkey)
	}

	h := messageHeader{
		NumRequiredSignatures:       uint8(len(signersWritable) + len(signersReadonly)),
		NumReadonlySignedAccounts:   uint8(len(signersReadonly)),
		NumReadonlyUnsignedAccounts: uint8(len(nonsignersReadonly)),
	}

	indexOf := make(map[Pubkey]uint8, len(accountKeys))
	for i, pk := range accountKeys {
		indexOf[pk] = uint8(i)
	}

	out := make([]byte, 0, 512)
	out = append(out, h.NumRequiredSignatures, h.NumReadonlySignedAccounts, h.NumReadonlyUnsignedAccounts)
	out = append(out, encodeShortVecLen(len(accountKeys))...)
	for _, pk := range accountKeys {
		out = append(out, pk[:]...)
	}
	out = append(out, recentBlockhash[:]...)

	out = append(out, encodeShortVecLen(len(instructions))...)
	for _, ix := range instructions {
		pid := indexOf[ix.ProgramID]
		out = append(out, pid)
		out = append(out, encodeShortVecLen(len(ix.Accounts))...)
		for _, am := range ix.Accounts {
			out = append(out, indexOf[am.Pubkey])
		}
		out = append(out, encodeShortVecLen(len(ix.Data))...)
		out = append(out, ix.Data...)
	}

	return out, accountKeys, h, nil
}

func sortByFirstSeen(infos []*accountInfo) {
	for i := 0; i < len(infos); i++ {
		for j := i + 1; j < len(infos); j++ {
			if infos[j].FirstSeen < infos[i].FirstSeen {
				infos[i], infos[j] = infos[j], infos[i]
			}
		}
	}
}
