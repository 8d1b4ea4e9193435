// Package spltoken builds the few SPL token and associated token account
// instructions the client needs. Amount-carrying instructions follow the
// token program's wire form: one opcode byte then little-endian arguments.
package spltoken

import (
	"encoding/binary"

	"github.com/svmlink/ccip-solana/solana"
)

var (
	// TokenProgramID is the classic SPL token program.
	TokenProgramID = solana.MustParsePubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenProgramID owns every associated token account.
	AssociatedTokenProgramID = solana.MustParsePubkey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// WSOLMint is the wrapped SOL mint. Paying fees in native SOL bills
	// through it.
	WSOLMint = solana.MustParsePubkey("So11111111111111111111111111111111111111112")
)

// Token program opcodes used here.
const (
	opApprove = 4
	opMintTo  = 7
)

// ATA program instruction: 1 selects the idempotent create.
const opCreateIdempotent = 1

// AssociatedTokenAddress derives owner's associated token account for a
// classic SPL token mint.
func AssociatedTokenAddress(owner, mint solana.Pubkey) (solana.Pubkey, error) {
	return AssociatedTokenAddressWithProgram(owner, TokenProgramID, mint)
}

// AssociatedTokenAddressWithProgram is AssociatedTokenAddress for mints
// owned by a different token program.
func AssociatedTokenAddressWithProgram(owner, tokenProgram, mint solana.Pubkey) (solana.Pubkey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{owner[:], tokenProgram[:], mint[:]}, AssociatedTokenProgramID)
	return addr, err
}

// CreateAssociatedTokenAccountIdempotentInstruction creates owner's
// associated token account if it does not exist yet and is a no-op when it
// does, so it is safe to prepend unconditionally.
func CreateAssociatedTokenAccountIdempotentInstruction(payer, owner, mint, tokenProgram solana.Pubkey) (solana.Instruction, error) {
	ata, err := AssociatedTokenAddressWithProgram(owner, tokenProgram, mint)
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: ata, IsSigner: false, IsWritable: true},
			{Pubkey: owner, IsSigner: false, IsWritable: false},
			{Pubkey: mint, IsSigner: false, IsWritable: false},
			{Pubkey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
			{Pubkey: tokenProgram, IsSigner: false, IsWritable: false},
		},
		Data: []byte{opCreateIdempotent},
	}, nil
}

// MintToInstruction mints amount base units to a token account. The mint
// authority signs.
func MintToInstruction(mint, dest, authority solana.Pubkey, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = opMintTo
	binary.LittleEndian.PutUint64(data[1:9], amount)
	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: mint, IsSigner: false, IsWritable: true},
			{Pubkey: dest, IsSigner: false, IsWritable: true},
			{Pubkey: authority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}

// ApproveInstruction delegates amount base units from a token account. The
// account owner signs.
func ApproveInstruction(source, delegate, owner solana.Pubkey, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = opApprove
	binary.LittleEndian.PutUint64(data[1:9], amount)
	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: source, IsSigner: false, IsWritable: true},
			{Pubkey: delegate, IsSigner: false, IsWritable: false},
			{Pubkey: owner, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}
