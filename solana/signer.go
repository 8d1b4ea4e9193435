package solana

import (
	"crypto/ed25519"
	"errors"
)

// Signer signs compiled message bytes. Implementations own the private key;
// it never crosses this interface.
type Signer interface {
	Pubkey() Pubkey
	Sign(message []byte) ([64]byte, error)
}

type KeypairSigner struct {
	priv ed25519.PrivateKey
	pub  Pubkey
}

func NewKeypairSigner(priv ed25519.PrivateKey) (*KeypairSigner, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.New("bad ed25519 private key size")
	}
	pk, ok := priv.Public().(ed25519.PublicKey)
	if !ok || len(pk) != ed25519.PublicKeySize {
		return nil, errors.New("bad ed25519 public key")
	}
	var pub Pubkey
	copy(pub[:], pk)
	return &KeypairSigner{priv: priv, pub: pub}, nil
}

func LoadKeypairSigner(path string) (*KeypairSigner, error) {
	priv, _, err := LoadKeypair(path)
	if err != nil {
		return nil, err
	}
	return NewKeypairSigner(priv)
}

func (s *KeypairSigner) Pubkey() Pubkey {
	return s.pub
}

func (s *KeypairSigner) Sign(message []byte) ([64]byte, error) {
	var sig [64]byte
	copy(sig[:], ed25519.Sign(s.priv, message))
	return sig, nil
}
