package eip712

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AuthSignature is the verifiable result of signing one authorization
// payload. SignedDigest is the exact 32-byte value the underlying key
// signed; it always equals the digest recomputable from the domain hash,
// the type hash and the value encoding, which is what a verifier checks.
type AuthSignature struct {
	Signature    []byte         `json:"signature"`
	V            uint8          `json:"v"`
	R            common.Hash    `json:"r"`
	S            common.Hash    `json:"s"`
	SignedDigest common.Hash    `json:"signedDigest"`
	Signer       common.Address `json:"signer"`
}

// Marshal returns the signature in the wire format the verifying
// contract expects: R (32 bytes) || S (32 bytes) || V (1 byte).
func (a *AuthSignature) Marshal() ([]byte, error) {
	if len(a.Signature) == 65 {
		return a.Signature, nil
	}
	if a.R == (common.Hash{}) && a.S == (common.Hash{}) {
		return nil, fmt.Errorf("signature is empty")
	}
	sig := make([]byte, 65)
	copy(sig[0:32], a.R[:])
	copy(sig[32:64], a.S[:])
	sig[64] = a.V
	return sig, nil
}
