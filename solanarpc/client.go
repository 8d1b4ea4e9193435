package solanarpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/svmlink/ccip-solana/solana"
)

const DefaultRPCURL = "http://127.0.0.1:8899"

var (
	ErrMissingRPCURL       = errors.New("missing rpc url")
	ErrRPCError            = errors.New("solana rpc error")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrRPCError.Error(), e.Code, e.Message)
}

func (e *RPCError) Unwrap() error { return ErrRPCError }

type Client struct {
	rpcURL string
	http   *http.Client
}

func New(rpcURL string, httpClient *http.Client) *Client {
	rpcURL = strings.TrimSpace(rpcURL)
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		rpcURL: rpcURL,
		http:   httpClient,
	}
}

// ClientFromEnv reads SOLANA_RPC_URL and falls back to the local test
// validator endpoint.
func ClientFromEnv() *Client {
	if raw := strings.TrimSpace(os.Getenv("SOLANA_RPC_URL")); raw != "" {
		return New(raw, nil)
	}
	return New(DefaultRPCURL, nil)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func isRateLimitedRPCError(code int, message string) bool {
	if code == 429 || code == -32429 {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(message))
	return strings.Contains(msg, "rate") && strings.Contains(msg, "limit")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) rpcCall(ctx context.Context, method string, params any, out any) error {
	if c == nil {
		return errors.New("nil rpc client")
	}
	if strings.TrimSpace(c.rpcURL) == "" {
		return ErrMissingRPCURL
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	backoff := 1 * time.Second
	maxBackoff := 10 * time.Second
	maxAttempts := 7

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: http status=%d", ErrRPCError, resp.StatusCode)
			if attempt < maxAttempts {
				if err := sleepWithContext(ctx, backoff); err != nil {
					return err
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			return lastErr
		}

		var rr rpcResponse
		if err := json.Unmarshal(raw, &rr); err != nil {
			lastErr = fmt.Errorf("decode rpc response: %w", err)
			if attempt < maxAttempts {
				if err := sleepWithContext(ctx, backoff); err != nil {
					return err
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			return lastErr
		}
		if rr.Error != nil {
			lastErr = &RPCError{Code: rr.Error.Code, Message: rr.Error.Message}
			if isRateLimitedRPCError(rr.Error.Code, rr.Error.Message) && attempt < maxAttempts {
				if err := sleepWithContext(ctx, backoff); err != nil {
					return err
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			return lastErr
		}
		if out == nil {
			return nil
		}
		if len(rr.Result) == 0 {
			return fmt.Errorf("%w: empty result", ErrRPCError)
		}
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("%w: no response", ErrRPCError)
}

func (c *Client) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	var out [32]byte
	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	// Use finalized to avoid "Blockhash not found" when talking to load-balanced public RPCs.
	if err := c.rpcCall(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": "finalized"}}, &resp); err != nil {
		return out, err
	}

	bh, err := solana.ParsePubkey(resp.Value.Blockhash)
	if err != nil {
		return out, fmt.Errorf("invalid blockhash: %w", err)
	}
	copy(out[:], bh[:])
	return out, nil
}

// SendOptions shape the sendTransaction call. Zero values mean the safe
// defaults: preflight at processed commitment, 5 broadcast retries.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          uint64
}

const defaultMaxRetries = 5

func (o SendOptions) withDefaults() SendOptions {
	if o.PreflightCommitment == "" {
		o.PreflightCommitment = "processed"
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetries
	}
	return o
}

func (c *Client) SendTransaction(ctx context.Context, tx []byte, opts SendOptions) (string, error) {
	if len(tx) == 0 {
		return "", errors.New("empty tx")
	}
	opts = opts.withDefaults()
	b64 := base64.StdEncoding.EncodeToString(tx)
	cfg := map[string]any{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
		"maxRetries":    opts.MaxRetries,
	}
	if !opts.SkipPreflight {
		cfg["preflightCommitment"] = opts.PreflightCommitment
	}
	var resp string
	if err := c.rpcCall(ctx, "sendTransaction", []any{b64, cfg}, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// SimulationResult is the subset of simulateTransaction output the client
// consumes. ReturnProgram/ReturnData are empty when the node reports no
// return data.
type SimulationResult struct {
	Err           any
	Logs          []string
	UnitsConsumed uint64
	ReturnProgram string
	ReturnData    []byte
}

func (c *Client) SimulateTransaction(ctx context.Context, tx []byte) (SimulationResult, error) {
	var out SimulationResult
	if len(tx) == 0 {
		return out, errors.New("empty tx")
	}
	b64 := base64.StdEncoding.EncodeToString(tx)
	var resp struct {
		Value struct {
			Err           any      `json:"err"`
			Logs          []string `json:"logs"`
			UnitsConsumed uint64   `json:"unitsConsumed"`
			ReturnData    *struct {
				ProgramID string `json:"programId"`
				Data      []any  `json:"data"`
			} `json:"returnData"`
		} `json:"value"`
	}
	params := []any{
		b64,
		map[string]any{
			"encoding":               "base64",
			"sigVerify":              false,
			"replaceRecentBlockhash": true,
			"commitment":             "processed",
		},
	}
	if err := c.rpcCall(ctx, "simulateTransaction", params, &resp); err != nil {
		return out, err
	}
	out.Err = resp.Value.Err
	out.Logs = resp.Value.Logs
	out.UnitsConsumed = resp.Value.UnitsConsumed
	if rd := resp.Value.ReturnData; rd != nil && len(rd.Data) >= 1 {
		s, ok := rd.Data[0].(string)
		if !ok {
			return out, errors.New("unexpected return data encoding")
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return out, fmt.Errorf("decode return data: %w", err)
		}
		out.ReturnProgram = rd.ProgramID
		out.ReturnData = raw
	}
	return out, nil
}

func (c *Client) AccountDataBase64(ctx context.Context, pubkey solana.Pubkey) ([]byte, error) {
	var resp struct {
		Value *struct {
			Data []any `json:"data"`
		} `json:"value"`
	}
	params := []any{
		pubkey.Base58(),
		map[string]any{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}
	if err := c.rpcCall(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey.Base58())
	}
	if len(resp.Value.Data) < 1 {
		return nil, fmt.Errorf("%w: %s: missing data", ErrAccountNotFound, pubkey.Base58())
	}
	s, ok := resp.Value.Data[0].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, errors.New("unexpected account data encoding")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AccountOwner returns the program that owns an account. Token clients use
// it to tell classic SPL mints from token-2022 mints.
func (c *Client) AccountOwner(ctx context.Context, pubkey solana.Pubkey) (solana.Pubkey, error) {
	var resp struct {
		Value *struct {
			Owner string `json:"owner"`
		} `json:"value"`
	}
	params := []any{
		pubkey.Base58(),
		map[string]any{
			"encoding":   "base64",
			"commitment": "confirmed",
		},
	}
	if err := c.rpcCall(ctx, "getAccountInfo", params, &resp); err != nil {
		return solana.Pubkey{}, err
	}
	if resp.Value == nil {
		return solana.Pubkey{}, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey.Base58())
	}
	owner, err := solana.ParsePubkey(resp.Value.Owner)
	if err != nil {
		return solana.Pubkey{}, fmt.Errorf("unexpected account owner: %w", err)
	}
	return owner, nil
}

func (c *Client) AddressLookupTable(ctx context.Context, table solana.Pubkey) (solana.AddressLookupTable, error) {
	raw, err := c.AccountDataBase64(ctx, table)
	if err != nil {
		return solana.AddressLookupTable{}, err
	}
	alt, err := solana.ParseAddressLookupTable(table, raw)
	if err != nil {
		return solana.AddressLookupTable{}, fmt.Errorf("parse address lookup table: %w", err)
	}
	return alt, nil
}

// SignatureStatus is one entry of getSignatureStatuses. A nil entry in the
// returned slice means the node does not know the signature.
type SignatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	Err                any    `json:"err"`
	ConfirmationStatus string `json:"confirmationStatus"`
}

func (c *Client) SignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	if len(signatures) == 0 {
		return nil, errors.New("signatures required")
	}
	var resp struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []any{
		signatures,
		map[string]any{"searchTransactionHistory": true},
	}
	if err := c.rpcCall(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Value) != len(signatures) {
		return nil, fmt.Errorf("%w: got %d statuses for %d signatures", ErrRPCError, len(resp.Value), len(signatures))
	}
	return resp.Value, nil
}

func (c *Client) TransactionLogs(ctx context.Context, signature string) ([]string, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, errors.New("signature required")
	}
	var resp *struct {
		Meta *struct {
			LogMessages []string `json:"logMessages"`
		} `json:"meta"`
	}
	params := []any{
		signature,
		map[string]any{
			"encoding":                       "json",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}
	if err := c.rpcCall(ctx, "getTransaction", params, &resp); err != nil {
		return nil, err
	}
	if resp == nil || resp.Meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, signature)
	}
	return resp.Meta.LogMessages, nil
}

type PrioritizationFee struct {
	Slot              uint64 `json:"slot"`
	PrioritizationFee uint64 `json:"prioritizationFee"`
}

func (c *Client) RecentPrioritizationFees(ctx context.Context, accounts []solana.Pubkey) ([]PrioritizationFee, error) {
	addrs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		addrs = append(addrs, a.Base58())
	}
	var resp []PrioritizationFee
	if err := c.rpcCall(ctx, "getRecentPrioritizationFees", []any{addrs}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// MedianPrioritizationFee picks the median of the nonzero recent fees, in
// microlamports per compute unit. Zero when the cluster reports no paid
// slots.
func MedianPrioritizationFee(fees []PrioritizationFee) uint64 {
	nonzero := make([]uint64, 0, len(fees))
	for _, f := range fees {
		if f.PrioritizationFee > 0 {
			nonzero = append(nonzero, f.PrioritizationFee)
		}
	}
	if len(nonzero) == 0 {
		return 0
	}
	for i := 0; i < len(nonzero); i++ {
		for j := i + 1; j < len(nonzero); j++ {
			if nonzero[j] < nonzero[i] {
				nonzero[i], nonzero[j] = nonzero[j], nonzero[i]
			}
		}
	}
	return nonzero[len(nonzero)/2]
}

func (c *Client) Slot(ctx context.Context) (uint64, error) {
	var resp uint64
	if err := c.rpcCall(ctx, "getSlot", []any{map[string]any{"commitment": "processed"}}, &resp); err != nil {
		return 0, err
	}
	return resp, nil
}

func (c *Client) BalanceLamports(ctx context.Context, pubkey solana.Pubkey) (uint64, error) {
	var resp struct {
		Value uint64 `json:"value"`
	}
	if err := c.rpcCall(ctx, "getBalance", []any{pubkey.Base58(), map[string]any{"commitment": "processed"}}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (c *Client) RequestAirdrop(ctx context.Context, pubkey solana.Pubkey, lamports uint64) (string, error) {
	if lamports == 0 {
		return "", errors.New("lamports required")
	}
	var sig string
	if err := c.rpcCall(ctx, "requestAirdrop", []any{pubkey.Base58(), lamports}, &sig); err != nil {
		return "", err
	}
	return sig, nil
}
