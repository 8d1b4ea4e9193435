// Package deployments maps environment names to the on-chain addresses a
// CCIP client needs: the router program, destination chain selectors, and
// known token mints. Environments live in a JSON file so pointing a tool at
// devnet, testnet, or mainnet is a name, not a pile of flags.
package deployments

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNotFound = errors.New("deployment not found")

type Registry struct {
	SchemaVersion int          `json:"schema_version"`
	Deployments   []Deployment `json:"deployments"`
}

type Deployment struct {
	Name    string `json:"name"`
	Cluster string `json:"cluster,omitempty"`
	RPCURL  string `json:"rpc_url,omitempty"`

	RouterProgramID   string `json:"router_program_id"`
	ReceiverProgramID string `json:"receiver_program_id,omitempty"`

	// DefaultFeeToken is a mint address; empty means native SOL.
	DefaultFeeToken string `json:"default_fee_token,omitempty"`

	DestChains []DestChain `json:"dest_chains,omitempty"`
	Tokens     []Token     `json:"tokens,omitempty"`
}

// DestChain names a CCIP chain selector.
type DestChain struct {
	Name     string `json:"name"`
	Selector uint64 `json:"selector"`
}

// Token names a transferable mint.
type Token struct {
	Symbol string `json:"symbol"`
	Mint   string `json:"mint"`
}

func Load(path string) (Registry, error) {
	var out Registry
	path = strings.TrimSpace(path)
	if path == "" {
		return Registry{}, errors.New("path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Registry{}, err
	}
	return out, nil
}

func (r Registry) Find(name string) (Deployment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Deployment{}, errors.New("name required")
	}
	for _, d := range r.Deployments {
		if d.Name == name {
			return d, nil
		}
	}
	return Deployment{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// DestChainSelector resolves a destination chain by name.
func (d Deployment) DestChainSelector(name string) (uint64, error) {
	for _, c := range d.DestChains {
		if c.Name == name {
			return c.Selector, nil
		}
	}
	return 0, fmt.Errorf("%w: dest chain %q in %s", ErrNotFound, name, d.Name)
}

// TokenMint resolves a token symbol to its mint address.
func (d Deployment) TokenMint(symbol string) (string, error) {
	for _, t := range d.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t.Mint, nil
		}
	}
	return "", fmt.Errorf("%w: token %q in %s", ErrNotFound, symbol, d.Name)
}
