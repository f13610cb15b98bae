// Package signers provides the signing identities used to authorize
// storage-proof operations: a locally held ECDSA key, an interactive
// signing agent reached through a provider transport, and a transparent
// delegating wrapper. The set of identities is closed; callers dispatch
// over the concrete variants rather than probing capabilities at runtime.
package signers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// SigningIdentity is one of the closed set of identities that can approve
// an authorization operation: *DirectKey, *InteractiveAgent or
// *Delegating. The interface is sealed; implementations outside this
// package are not possible.
type SigningIdentity interface {
	// Address returns the public address the identity signs as.
	Address() common.Address

	isSigningIdentity()
}

// DigestSigner is implemented by identities that can sign a raw 32-byte
// digest directly, without displaying the structured message.
type DigestSigner interface {
	SignDigest(ctx context.Context, digest common.Hash) ([]byte, error)
}

// TypedDataSigner is implemented by identities that require the full
// self-describing typed-data document so the holder can review
// human-readable fields before approving.
type TypedDataSigner interface {
	SignTypedData(ctx context.Context, doc *TypedDataDocument) ([]byte, error)
}

// Unwrap sees through a single layer of delegation and returns the
// identity that actually holds signing capability. Non-delegating
// identities are returned unchanged.
func Unwrap(id SigningIdentity) SigningIdentity {
	if d, ok := id.(*Delegating); ok {
		return d.Inner()
	}
	return id
}
