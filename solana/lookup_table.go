package solana

import (
	"encoding/binary"
	"errors"
)

var ErrInvalidAddressLookupTable = errors.New("invalid address lookup table")

// AddressLookupTable is the decoded state of an address lookup table
// account. Authority is the zero pubkey for frozen tables.
type AddressLookupTable struct {
	Address   Pubkey
	Authority Pubkey
	Addresses []Pubkey
}

// ParseAddressLookupTable parses an Address Lookup Table account's raw data.
//
// Format:
//
//	u32  discriminator (1)
//	u64  deactivation_slot
//	u64  last_extended_slot
//	u8   last_extended_slot_start_index
//	u8   has_authority (0|1)
//	[32] authority pubkey (present even when has_authority=0; all-zero pubkey means none)
//	[2]  padding (0)
//	[32]* addresses (rest of the account data)
//
// This matches the on-chain layout used by the address lookup table program.
func ParseAddressLookupTable(address Pubkey, data []byte) (AddressLookupTable, error) {
	out := AddressLookupTable{Address: address}
	if len(data) < 56 {
		return out, ErrInvalidAddressLookupTable
	}
	if binary.LittleEndian.Uint32(data[0:4]) != 1 {
		return out, ErrInvalidAddressLookupTable
	}
	if (len(data)-56)%32 != 0 {
		return out, ErrInvalidAddressLookupTable
	}
	if data[21] == 1 {
		copy(out.Authority[:], data[22:54])
	}
	n := (len(data) - 56) / 32
	out.Addresses = make([]Pubkey, 0, n)
	off := 56
	for i := 0; i < n; i++ {
		var pk Pubkey
		copy(pk[:], data[off:off+32])
		out.Addresses = append(out.Addresses, pk)
		off += 32
	}
	return out, nil
}

// LookupTable converts to the shape the v0 message compiler consumes.
func (t AddressLookupTable) LookupTable() LookupTable {
	return LookupTable{AccountKey: t.Address, Addresses: t.Addresses}
}
