package ccip

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/svmlink/ccip-solana/solana"
)

// DefaultReceiverProgramID is the example token receiver deployment this
// client's fixtures target.
var DefaultReceiverProgramID = solana.MustParsePubkey("671b2A65jR5QxwYFSuEMBhQ6bWJKkGMheEp3ReWC9WnB")

// Receiver program seeds, plus the router-side offramp allowlist seed.
const (
	receiverStateSeed        = "state"
	messagesStorageSeed      = "messages_storage"
	tokenVaultSeed           = "token_vault"
	tokenAdminSeed           = "token_admin"
	externalExecutionCfgSeed = "external_execution_config"
	allowedOfframpSeed       = "allowed_offramp"
	approvedSenderSeed       = "approved_ccip_sender"
)

// ReceiverStatePDA is the receiver program's config account.
func ReceiverStatePDA(receiver solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("receiver state", [][]byte{[]byte(receiverStateSeed)}, receiver)
}

// MessagesStoragePDA holds the receiver's latest message.
func MessagesStoragePDA(receiver solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("messages storage", [][]byte{[]byte(messagesStorageSeed)}, receiver)
}

// TokenVaultPDA is the receiver's vault token account for one mint.
func TokenVaultPDA(receiver, mint solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("token vault", [][]byte{[]byte(tokenVaultSeed), mint[:]}, receiver)
}

// TokenVaultAuthorityPDA owns every vault token account.
func TokenVaultAuthorityPDA(receiver solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("token vault authority", [][]byte{[]byte(tokenVaultSeed)}, receiver)
}

// TokenAdminPDA administers the receiver's token accounts.
func TokenAdminPDA(receiver solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("token admin", [][]byte{[]byte(tokenAdminSeed)}, receiver)
}

// ExternalExecutionConfigPDA is the offramp's CPI signer for a receiver.
// It lives under the offramp program with the receiver's id as seed.
func ExternalExecutionConfigPDA(offramp, receiver solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("external execution config", [][]byte{[]byte(externalExecutionCfgSeed), receiver[:]}, offramp)
}

// AllowedOfframpPDA lives under the router; its existence is how a receiver
// verifies the calling offramp is sanctioned for a source chain.
func AllowedOfframpPDA(router solana.Pubkey, sourceSelector uint64, offramp solana.Pubkey) (solana.Pubkey, uint8, error) {
	return derive("allowed offramp", [][]byte{
		[]byte(allowedOfframpSeed),
		selectorSeed(sourceSelector),
		offramp[:],
	}, router)
}

// ApprovedSenderPDA gates which source-chain senders a receiver accepts.
// The sender address is variable length, so its seed is length prefixed:
// a one-byte length seed, then the address bytes.
func ApprovedSenderPDA(receiver solana.Pubkey, sourceSelector uint64, sender []byte) (solana.Pubkey, uint8, error) {
	return derive("approved sender", [][]byte{
		[]byte(approvedSenderSeed),
		selectorSeed(sourceSelector),
		{uint8(len(sender))},
		sender,
	}, receiver)
}

// MessageType classifies a received message by what it carries.
type MessageType uint8

const (
	MessageTypeTokenTransfer MessageType = iota
	MessageTypeArbitraryMessaging
	MessageTypeProgrammaticTokenTransfer
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeTokenTransfer:
		return "token-transfer"
	case MessageTypeArbitraryMessaging:
		return "arbitrary-messaging"
	case MessageTypeProgrammaticTokenTransfer:
		return "programmatic-token-transfer"
	default:
		return fmt.Sprintf("message-type(%d)", uint8(t))
	}
}

// ReceivedMessage is one delivered cross-chain message as the receiver
// program stores it.
type ReceivedMessage struct {
	MessageID           [32]byte
	MessageType         MessageType
	Data                []byte
	TokenAmounts        []TokenAmount
	ReceivedTimestamp   int64
	SourceChainSelector uint64
	Sender              []byte
}

// MessagesStorage is the receiver's storage account: bookkeeping plus the
// most recent message.
type MessagesStorage struct {
	LastUpdated  int64
	MessageCount uint64
	Latest       ReceivedMessage
}

// FetchLatestMessage loads and decodes the receiver's messages storage.
func FetchLatestMessage(ctx context.Context, ledger Ledger, receiver solana.Pubkey) (MessagesStorage, error) {
	pda, _, err := MessagesStoragePDA(receiver)
	if err != nil {
		return MessagesStorage{}, err
	}
	raw, err := ledger.AccountDataBase64(ctx, pda)
	if err != nil {
		return MessagesStorage{}, err
	}
	if len(raw) < 8 {
		return MessagesStorage{}, fmt.Errorf("messages storage account too short: %d bytes", len(raw))
	}
	return DecodeMessagesStorage(raw[8:])
}

// DecodeMessagesStorage decodes the account body. Callers strip the anchor
// discriminator first.
func DecodeMessagesStorage(data []byte) (MessagesStorage, error) {
	r := &byteReader{buf: data}
	var out MessagesStorage
	out.LastUpdated = r.i64()
	out.MessageCount = r.u64()

	m := &out.Latest
	r.fill(m.MessageID[:])
	mt := r.u8()
	m.Data = r.bytesVec()

	n := r.u32()
	if r.err == nil && int(n) > r.remaining()/40 {
		r.err = fmt.Errorf("token amount count %d exceeds account size", n)
	}
	for i := uint32(0); i < n && r.err == nil; i++ {
		var ta TokenAmount
		r.fill(ta.Mint[:])
		ta.Amount = r.u64()
		m.TokenAmounts = append(m.TokenAmounts, ta)
	}

	m.ReceivedTimestamp = r.i64()
	m.SourceChainSelector = r.u64()
	m.Sender = r.bytesVec()

	if r.err != nil {
		return MessagesStorage{}, fmt.Errorf("decode messages storage: %w", r.err)
	}
	if mt > uint8(MessageTypeProgrammaticTokenTransfer) {
		return MessagesStorage{}, fmt.Errorf("decode messages storage: unknown message type %d", mt)
	}
	m.MessageType = MessageType(mt)
	return out, nil
}

// byteReader walks a borsh buffer. The first short read poisons it; callers
// check err once at the end.
type byteReader struct {
	buf []byte
	off int
	err error
}

func (r *byteReader) remaining() int {
	return len(r.buf) - r.off
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.remaining() < n {
		r.err = fmt.Errorf("truncated at byte %d", r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) fill(dst []byte) {
	b := r.take(len(dst))
	if r.err == nil {
		copy(dst, b)
	}
}

func (r *byteReader) u8() uint8 {
	b := r.take(1)
	if r.err != nil {
		return 0
	}
	return b[0]
}

func (r *byteReader) u32() uint32 {
	b := r.take(4)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *byteReader) u64() uint64 {
	b := r.take(8)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *byteReader) i64() int64 {
	return int64(r.u64())
}

func (r *byteReader) bytesVec() []byte {
	n := r.u32()
	if r.err == nil && int(n) > r.remaining() {
		r.err = fmt.Errorf("vector length %d exceeds %d remaining bytes", n, r.remaining())
		return nil
	}
	b := r.take(int(n))
	if r.err != nil || len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
