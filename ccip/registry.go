package ccip

import (
	"context"
	"errors"
	"fmt"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/solanarpc"
)

// RegistryEntry is the router's per-token admin record: who administers the
// token, the pool lookup table, and which table entries the pool needs
// writable.
//
// Account layout (after the 8-byte anchor discriminator):
//
//	[32] administrator
//	[32] pending administrator
//	[32] mint
//	[32] lookup table
//	[16] writable indexes, segment 0 (u128 LE)
//	[16] writable indexes, segment 1 (u128 LE)
type RegistryEntry struct {
	Administrator        solana.Pubkey
	PendingAdministrator solana.Pubkey
	Mint                 solana.Pubkey
	LookupTable          solana.Pubkey
	WritableIndexes      [2]Uint128
}

const registryEntrySize = 4*32 + 2*16

// DecodeRegistryEntry decodes the 160-byte record body. Callers strip the
// anchor discriminator first.
func DecodeRegistryEntry(data []byte) (RegistryEntry, error) {
	var out RegistryEntry
	if len(data) < registryEntrySize {
		return out, fmt.Errorf("registry entry too short: got %d bytes, want %d", len(data), registryEntrySize)
	}
	copy(out.Administrator[:], data[0:32])
	copy(out.PendingAdministrator[:], data[32:64])
	copy(out.Mint[:], data[64:96])
	copy(out.LookupTable[:], data[96:128])
	seg0, err := Uint128FromBytes(data[128:144])
	if err != nil {
		return out, err
	}
	seg1, err := Uint128FromBytes(data[144:160])
	if err != nil {
		return out, err
	}
	out.WritableIndexes = [2]Uint128{seg0, seg1}
	return out, nil
}

// FetchRegistryEntry loads and decodes the registry record for a mint.
func FetchRegistryEntry(ctx context.Context, ledger Ledger, router, mint solana.Pubkey) (RegistryEntry, error) {
	pda, _, err := TokenAdminRegistryPDA(router, mint)
	if err != nil {
		return RegistryEntry{}, &ResolutionError{Mint: mint, Err: err}
	}
	raw, err := ledger.AccountDataBase64(ctx, pda)
	if err != nil {
		if errors.Is(err, solanarpc.ErrAccountNotFound) {
			return RegistryEntry{}, &ResolutionError{Mint: mint, Err: ErrRegistryNotFound}
		}
		return RegistryEntry{}, &ResolutionError{Mint: mint, Err: err}
	}
	if len(raw) < 8+registryEntrySize {
		return RegistryEntry{}, &ResolutionError{Mint: mint, Err: fmt.Errorf("registry account too short: %d bytes", len(raw))}
	}
	entry, err := DecodeRegistryEntry(raw[8:])
	if err != nil {
		return RegistryEntry{}, &ResolutionError{Mint: mint, Err: err}
	}
	return entry, nil
}

// registryAdminInstruction is the shared shape of every registry admin
// method: config, registry record, mint, signing authority. Handover is
// two-phase across all of them; propose-style methods record a candidate
// without touching the active administrator, and only the candidate's
// accept promotes it. Methods that create the record (init) additionally
// fund it, so the authority turns writable and the system program rides
// along.
func registryAdminInstruction(router, mint, authority solana.Pubkey, method string, args []byte, init bool) (solana.Instruction, error) {
	configPDA, _, err := ConfigPDA(router)
	if err != nil {
		return solana.Instruction{}, err
	}
	registryPDA, _, err := TokenAdminRegistryPDA(router, mint)
	if err != nil {
		return solana.Instruction{}, err
	}

	discr := anchorDiscriminator(method)
	data := make([]byte, 0, 8+len(args))
	data = append(data, discr[:]...)
	data = append(data, args...)

	accounts := []solana.AccountMeta{
		{Pubkey: configPDA, IsSigner: false, IsWritable: false},
		{Pubkey: registryPDA, IsSigner: false, IsWritable: true},
		{Pubkey: mint, IsSigner: false, IsWritable: false},
		{Pubkey: authority, IsSigner: true, IsWritable: init},
	}
	if init {
		accounts = append(accounts, solana.AccountMeta{Pubkey: solana.SystemProgramID, IsSigner: false, IsWritable: false})
	}
	return solana.Instruction{ProgramID: router, Accounts: accounts, Data: data}, nil
}

// OwnerProposeAdministratorInstruction lets the mint authority seed the
// registry record and nominate its first administrator.
func OwnerProposeAdministratorInstruction(router, mint, authority, proposed solana.Pubkey) (solana.Instruction, error) {
	return registryAdminInstruction(router, mint, authority, "owner_propose_administrator", proposed[:], true)
}

// TransferAdminRoleInstruction lets the current administrator nominate a
// successor. The active administrator stays in place until the successor
// accepts.
func TransferAdminRoleInstruction(router, mint, authority, proposed solana.Pubkey) (solana.Instruction, error) {
	return registryAdminInstruction(router, mint, authority, "transfer_admin_role_token_admin_registry", proposed[:], false)
}

// AcceptAdminRoleInstruction completes the handover; the router requires
// the signer to equal the pending administrator.
func AcceptAdminRoleInstruction(router, mint, authority solana.Pubkey) (solana.Instruction, error) {
	return registryAdminInstruction(router, mint, authority, "accept_admin_role_token_admin_registry", nil, false)
}

// SetPoolInstruction points the registry at a pool lookup table and stores
// which of its entries the pool wants writable. Index 0 never makes it into
// the stored bitmap.
func SetPoolInstruction(router, mint, authority, lookupTable solana.Pubkey, writableIndexes []uint8) (solana.Instruction, error) {
	configPDA, _, err := ConfigPDA(router)
	if err != nil {
		return solana.Instruction{}, err
	}
	registryPDA, _, err := TokenAdminRegistryPDA(router, mint)
	if err != nil {
		return solana.Instruction{}, err
	}

	discr := anchorDiscriminator("set_pool")
	data := make([]byte, 0, 8+4+len(writableIndexes))
	data = append(data, discr[:]...)
	data = appendU32(data, uint32(len(writableIndexes)))
	data = append(data, writableIndexes...)

	return solana.Instruction{
		ProgramID: router,
		Accounts: []solana.AccountMeta{
			{Pubkey: configPDA, IsSigner: false, IsWritable: false},
			{Pubkey: registryPDA, IsSigner: false, IsWritable: true},
			{Pubkey: mint, IsSigner: false, IsWritable: false},
			{Pubkey: lookupTable, IsSigner: false, IsWritable: false},
			{Pubkey: authority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}, nil
}
