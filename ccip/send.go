package ccip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/svmlink/ccip-solana/solana"
	"github.com/svmlink/ccip-solana/spltoken"
)

// Client sends cross-chain messages through one router toward one
// destination chain. It resolves token pools from chain state, quotes the
// fee, and dispatches the compiled transaction.
type Client struct {
	ledger       Ledger
	router       solana.Pubkey
	destSelector uint64
	signer       solana.Signer
	log          *zap.Logger
	dispatcher   *Dispatcher
}

func NewClient(ledger Ledger, router solana.Pubkey, destSelector uint64, signer solana.Signer, log *zap.Logger) (*Client, error) {
	if ledger == nil {
		return nil, errors.New("nil ledger")
	}
	if router.IsZero() {
		return nil, errors.New("zero router program")
	}
	if destSelector == 0 {
		return nil, errors.New("zero destination chain selector")
	}
	if signer == nil {
		return nil, errors.New("nil signer")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		ledger:       ledger,
		router:       router,
		destSelector: destSelector,
		signer:       signer,
		log:          log,
		dispatcher:   NewDispatcher(ledger, log),
	}, nil
}

type sendConfig struct {
	feeToken         *solana.Pubkey
	computeUnitLimit uint32
	computeUnitPrice uint64
	dispatch         DispatchOptions
}

// SendOption tunes a single SendMessage call.
type SendOption func(*sendConfig)

// WithFeeToken overrides the message's fee token. The zero pubkey selects
// native SOL.
func WithFeeToken(mint solana.Pubkey) SendOption {
	return func(c *sendConfig) {
		m := mint
		c.feeToken = &m
	}
}

// WithComputeUnitLimit prepends a compute budget instruction raising the
// unit limit.
func WithComputeUnitLimit(units uint32) SendOption {
	return func(c *sendConfig) { c.computeUnitLimit = units }
}

// WithComputeUnitPrice prepends a compute budget instruction bidding a
// priority fee in micro-lamports per unit.
func WithComputeUnitPrice(microLamports uint64) SendOption {
	return func(c *sendConfig) { c.computeUnitPrice = microLamports }
}

func WithSkipPreflight() SendOption {
	return func(c *sendConfig) { c.dispatch.SkipPreflight = true }
}

func WithSkipConfirmation() SendOption {
	return func(c *sendConfig) { c.dispatch.SkipConfirmation = true }
}

// WithMaxRetries bounds the node-side resubmission of the transaction.
func WithMaxRetries(n uint64) SendOption {
	return func(c *sendConfig) { c.dispatch.MaxRetries = n }
}

func WithConfirmTimeout(d time.Duration) SendOption {
	return func(c *sendConfig) { c.dispatch.ConfirmTimeout = d }
}

// SendReceipt reports a dispatched message: the transaction signature, the
// terminal dispatch state, the quoted fee, and the CCIP message id when the
// logs gave one up. MessageID is nil when the best-effort parse found none.
type SendReceipt struct {
	Signature string
	State     DispatchState
	Fee       FeeResult
	MessageID *[32]byte
}

// SendMessage resolves, quotes, and dispatches one cross-chain message.
// Every token leg must resolve through the registry or nothing is sent.
func (c *Client) SendMessage(ctx context.Context, msg Message, opts ...SendOption) (SendReceipt, error) {
	cfg := buildSendConfig(opts)
	tx, fee, err := c.prepare(ctx, msg, cfg)
	if err != nil {
		return SendReceipt{}, err
	}

	sig, state, err := c.dispatcher.Dispatch(ctx, tx, []solana.Signer{c.signer}, cfg.dispatch)
	receipt := SendReceipt{Signature: sig, State: state, Fee: fee}
	if err != nil {
		return receipt, err
	}
	receipt.MessageID = c.messageID(ctx, sig, state)
	return receipt, nil
}

// PrepareMessage resolves and quotes msg and compiles the transaction
// without signing or broadcasting anything.
func (c *Client) PrepareMessage(ctx context.Context, msg Message, opts ...SendOption) (*solana.Transaction, FeeResult, error) {
	return c.prepare(ctx, msg, buildSendConfig(opts))
}

func buildSendConfig(opts []SendOption) sendConfig {
	var cfg sendConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

func (c *Client) prepare(ctx context.Context, msg Message, cfg sendConfig) (*solana.Transaction, FeeResult, error) {
	if cfg.feeToken != nil {
		msg.FeeToken = *cfg.feeToken
	}
	if err := msg.validate(); err != nil {
		return nil, FeeResult{}, err
	}

	authority := c.signer.Pubkey()

	// Native SOL keeps the zero fee token in the serialized message and
	// bills through the wrapped mint in the account list, with a zero
	// read-only placeholder for the user token account.
	billingMint := msg.FeeToken
	feeTokenProgram := spltoken.TokenProgramID
	var feeTokenUserAccount solana.Pubkey
	if billingMint.IsZero() {
		billingMint = spltoken.WSOLMint
	} else {
		owner, err := c.ledger.AccountOwner(ctx, billingMint)
		if err != nil {
			return nil, FeeResult{}, fmt.Errorf("fee token mint: %w", err)
		}
		feeTokenProgram = owner
		ata, err := spltoken.AssociatedTokenAddressWithProgram(authority, feeTokenProgram, billingMint)
		if err != nil {
			return nil, FeeResult{}, err
		}
		feeTokenUserAccount = ata
	}

	fee, err := GetFee(ctx, c.ledger, c.router, c.destSelector, authority, msg, billingMint)
	if err != nil {
		return nil, FeeResult{}, err
	}
	c.log.Info("fee quoted",
		zap.Uint64("destSelector", c.destSelector),
		zap.String("token", fee.Token.Base58()),
		zap.Uint64("amount", fee.Amount),
		zap.String("juels", fee.Juels.String()))

	list, err := BuildTokenAccountLists(ctx, c.ledger, c.router, c.destSelector, authority, msg.TokenAmounts)
	if err != nil {
		return nil, FeeResult{}, err
	}

	ix, err := c.sendInstruction(msg, billingMint, feeTokenProgram, feeTokenUserAccount, authority, list)
	if err != nil {
		return nil, FeeResult{}, err
	}
	instructions := make([]solana.Instruction, 0, 3)
	if cfg.computeUnitLimit > 0 {
		instructions = append(instructions, solana.ComputeBudgetSetComputeUnitLimit(cfg.computeUnitLimit))
	}
	if cfg.computeUnitPrice > 0 {
		instructions = append(instructions, solana.ComputeBudgetSetComputeUnitPrice(cfg.computeUnitPrice))
	}
	instructions = append(instructions, ix)

	blockhash, err := c.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, FeeResult{}, err
	}
	tx, err := solana.CompileV0Transaction(blockhash, authority, instructions, list.Tables)
	if err != nil {
		return nil, FeeResult{}, err
	}
	return tx, fee, nil
}

func (c *Client) sendInstruction(msg Message, billingMint, feeTokenProgram, feeTokenUserAccount, authority solana.Pubkey, list AccountList) (solana.Instruction, error) {
	configPDA, _, err := ConfigPDA(c.router)
	if err != nil {
		return solana.Instruction{}, err
	}
	destChainPDA, _, err := DestChainStatePDA(c.router, c.destSelector)
	if err != nil {
		return solana.Instruction{}, err
	}
	noncePDA, _, err := NoncePDA(c.router, c.destSelector, authority)
	if err != nil {
		return solana.Instruction{}, err
	}
	billingSignerPDA, _, err := FeeBillingSignerPDA(c.router)
	if err != nil {
		return solana.Instruction{}, err
	}
	feeTokenConfigPDA, _, err := FeeBillingTokenConfigPDA(c.router, billingMint)
	if err != nil {
		return solana.Instruction{}, err
	}
	poolsSignerPDA, _, err := ExternalTokenPoolsSignerPDA(c.router)
	if err != nil {
		return solana.Instruction{}, err
	}
	feeTokenReceiver, err := spltoken.AssociatedTokenAddressWithProgram(billingSignerPDA, feeTokenProgram, billingMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	accounts := []solana.AccountMeta{
		{Pubkey: configPDA, IsSigner: false, IsWritable: false},
		{Pubkey: destChainPDA, IsSigner: false, IsWritable: true},
		{Pubkey: noncePDA, IsSigner: false, IsWritable: true},
		{Pubkey: authority, IsSigner: true, IsWritable: true},
		{Pubkey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{Pubkey: feeTokenProgram, IsSigner: false, IsWritable: false},
		{Pubkey: billingMint, IsSigner: false, IsWritable: false},
		{Pubkey: feeTokenUserAccount, IsSigner: false, IsWritable: !feeTokenUserAccount.IsZero()},
		{Pubkey: feeTokenReceiver, IsSigner: false, IsWritable: true},
		{Pubkey: billingSignerPDA, IsSigner: false, IsWritable: false},
		{Pubkey: feeTokenConfigPDA, IsSigner: false, IsWritable: false},
		{Pubkey: poolsSignerPDA, IsSigner: false, IsWritable: false},
	}
	accounts = append(accounts, list.Accounts...)

	discr := anchorDiscriminator("ccip_send")
	body := msg.encode()
	data := make([]byte, 0, 8+8+len(body)+4+len(list.Offsets))
	data = append(data, discr[:]...)
	data = appendU64(data, c.destSelector)
	data = append(data, body...)
	data = appendBytesVec(data, list.Offsets)

	return solana.Instruction{ProgramID: c.router, Accounts: accounts, Data: data}, nil
}

// messageID digs the router's 32-byte message id out of the transaction
// logs. Best effort: a missing id never fails a dispatched send.
func (c *Client) messageID(ctx context.Context, sig string, state DispatchState) *[32]byte {
	if state != StateConfirmedFinalized && state != StateConfirmedProcessedOnly {
		return nil
	}
	logs, err := c.ledger.TransactionLogs(ctx, sig)
	if err != nil {
		c.log.Debug("message id lookup failed", zap.String("signature", sig), zap.Error(err))
		return nil
	}
	raw, err := ParseProgramReturn(logs, c.router)
	if err != nil || len(raw) != 32 {
		c.log.Debug("no message id in transaction logs", zap.String("signature", sig))
		return nil
	}
	id := new([32]byte)
	copy(id[:], raw)
	return id
}
