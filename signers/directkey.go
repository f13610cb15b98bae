package signers

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DirectKey is a signing identity backed by a locally held secp256k1
// private key. Digests are signed silently; no structured message is
// displayed to anyone.
type DirectKey struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var (
	_ SigningIdentity = (*DirectKey)(nil)
	_ DigestSigner    = (*DirectKey)(nil)
)

// NewDirectKey creates a direct-key identity from a parsed private key.
func NewDirectKey(key *ecdsa.PrivateKey) *DirectKey {
	return &DirectKey{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewDirectKeyFromHex creates a direct-key identity from a hex-encoded
// private key, with or without a "0x" prefix.
func NewDirectKeyFromHex(privateKeyHex string) (*DirectKey, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewDirectKey(key), nil
}

// Address returns the address derived from the key's public half.
func (k *DirectKey) Address() common.Address {
	return k.address
}

// SignDigest signs the exact 32-byte digest and returns a 65-byte
// signature in r || s || v form with v normalized to 27/28, the form the
// verifying contract expects.
func (k *DirectKey) SignDigest(_ context.Context, digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), k.privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

func (k *DirectKey) isSigningIdentity() {}
