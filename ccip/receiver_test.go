package ccip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/svmlink/ccip-solana/solana"
)

func encodeMessagesStorage(s MessagesStorage) []byte {
	data := appendU64(nil, uint64(s.LastUpdated))
	data = appendU64(data, s.MessageCount)

	m := s.Latest
	data = append(data, m.MessageID[:]...)
	data = append(data, uint8(m.MessageType))
	data = appendBytesVec(data, m.Data)
	data = appendU32(data, uint32(len(m.TokenAmounts)))
	for _, ta := range m.TokenAmounts {
		data = append(data, ta.Mint[:]...)
		data = appendU64(data, ta.Amount)
	}
	data = appendU64(data, uint64(m.ReceivedTimestamp))
	data = appendU64(data, m.SourceChainSelector)
	return appendBytesVec(data, m.Sender)
}

func sampleStorage() MessagesStorage {
	return MessagesStorage{
		LastUpdated:  1700000000,
		MessageCount: 12,
		Latest: ReceivedMessage{
			MessageID:   [32]byte{0xAA, 0xBB},
			MessageType: MessageTypeProgrammaticTokenTransfer,
			Data:        []byte{1, 2, 3, 4},
			TokenAmounts: []TokenAmount{
				{Mint: solana.Pubkey{7}, Amount: 500},
				{Mint: solana.Pubkey{8}, Amount: 9_999},
			},
			ReceivedTimestamp:   1700000001,
			SourceChainSelector: testSelector,
			Sender:              []byte{0xDE, 0xAD, 0xBE, 0xEF},
		},
	}
}

func TestDecodeMessagesStorage(t *testing.T) {
	want := sampleStorage()
	got, err := DecodeMessagesStorage(encodeMessagesStorage(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecodeMessagesStorage_Empty(t *testing.T) {
	want := MessagesStorage{Latest: ReceivedMessage{MessageType: MessageTypeArbitraryMessaging}}
	got, err := DecodeMessagesStorage(encodeMessagesStorage(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Nil(t, got.Latest.Data)
	require.Nil(t, got.Latest.Sender)
}

func TestDecodeMessagesStorage_Truncated(t *testing.T) {
	full := encodeMessagesStorage(sampleStorage())
	for _, n := range []int{0, 8, 20, 48, len(full) - 1} {
		_, err := DecodeMessagesStorage(full[:n])
		require.Error(t, err, "prefix of %d bytes", n)
	}
}

func TestDecodeMessagesStorage_BadMessageType(t *testing.T) {
	s := sampleStorage()
	s.Latest.MessageType = MessageType(9)
	_, err := DecodeMessagesStorage(encodeMessagesStorage(s))
	require.ErrorContains(t, err, "unknown message type")
}

func TestDecodeMessagesStorage_AbsurdTokenCount(t *testing.T) {
	data := appendU64(nil, 0)
	data = appendU64(data, 0)
	data = append(data, make([]byte, 32)...)
	data = append(data, 0)
	data = appendU32(data, 0)
	data = appendU32(data, 0xFFFFFFFF)
	_, err := DecodeMessagesStorage(data)
	require.ErrorContains(t, err, "exceeds account size")
}

func TestFetchLatestMessage(t *testing.T) {
	receiver := DefaultReceiverProgramID
	want := sampleStorage()

	pda, _, err := MessagesStoragePDA(receiver)
	require.NoError(t, err)

	ledger := newFakeLedger()
	ledger.accounts[pda] = append(make([]byte, 8), encodeMessagesStorage(want)...)

	got, err := FetchLatestMessage(context.Background(), ledger, receiver)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, "programmatic-token-transfer", got.Latest.MessageType.String())
}

func TestFetchLatestMessage_ShortAccount(t *testing.T) {
	receiver := DefaultReceiverProgramID
	pda, _, err := MessagesStoragePDA(receiver)
	require.NoError(t, err)

	ledger := newFakeLedger()
	ledger.accounts[pda] = []byte{1, 2, 3}

	_, err = FetchLatestMessage(context.Background(), ledger, receiver)
	require.ErrorContains(t, err, "too short")
}

func TestReceiverPDAs_Distinct(t *testing.T) {
	receiver := DefaultReceiverProgramID
	mint := solana.Pubkey{5}

	state, _, err := ReceiverStatePDA(receiver)
	require.NoError(t, err)
	storage, _, err := MessagesStoragePDA(receiver)
	require.NoError(t, err)
	vault, _, err := TokenVaultPDA(receiver, mint)
	require.NoError(t, err)
	vaultAuth, _, err := TokenVaultAuthorityPDA(receiver)
	require.NoError(t, err)
	admin, _, err := TokenAdminPDA(receiver)
	require.NoError(t, err)

	seen := map[solana.Pubkey]bool{}
	for _, pk := range []solana.Pubkey{state, storage, vault, vaultAuth, admin} {
		require.False(t, seen[pk], "pda collision on %s", pk.Base58())
		seen[pk] = true
	}
}

func TestExternalExecutionConfigPDA_LivesUnderOfframp(t *testing.T) {
	receiver := DefaultReceiverProgramID
	a, _, err := ExternalExecutionConfigPDA(solana.Pubkey{1}, receiver)
	require.NoError(t, err)
	b, _, err := ExternalExecutionConfigPDA(solana.Pubkey{2}, receiver)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestAllowedOfframpPDA_BindsSelector(t *testing.T) {
	router := solana.Pubkey{1}
	offramp := solana.Pubkey{2}
	a, _, err := AllowedOfframpPDA(router, 10, offramp)
	require.NoError(t, err)
	b, _, err := AllowedOfframpPDA(router, 11, offramp)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
