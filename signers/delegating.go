package signers

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/filozone/synapse-go/autherr"
)

// Delegating wraps an inner signing identity and forwards to it
// transparently while serializing sign requests. Wrap an identity when
// multiple call sites share it and the underlying transport cannot
// tolerate interleaved requests.
type Delegating struct {
	mu    sync.Mutex
	inner SigningIdentity
}

var (
	_ SigningIdentity = (*Delegating)(nil)
	_ DigestSigner    = (*Delegating)(nil)
	_ TypedDataSigner = (*Delegating)(nil)
)

// NewDelegating wraps inner in a sequencing delegator.
func NewDelegating(inner SigningIdentity) *Delegating {
	return &Delegating{inner: inner}
}

// Inner returns the wrapped identity.
func (d *Delegating) Inner() SigningIdentity {
	return d.inner
}

// Address forwards to the wrapped identity.
func (d *Delegating) Address() common.Address {
	return d.inner.Address()
}

// SignDigest forwards to the wrapped identity, one request at a time.
func (d *Delegating) SignDigest(ctx context.Context, digest common.Hash) ([]byte, error) {
	ds, ok := d.inner.(DigestSigner)
	if !ok {
		return nil, autherr.SigningUnavailable(errors.New("wrapped identity cannot sign raw digests"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return ds.SignDigest(ctx, digest)
}

// SignTypedData forwards to the wrapped identity, one request at a time.
func (d *Delegating) SignTypedData(ctx context.Context, doc *TypedDataDocument) ([]byte, error) {
	ts, ok := d.inner.(TypedDataSigner)
	if !ok {
		return nil, autherr.SigningUnavailable(errors.New("wrapped identity cannot sign typed data"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return ts.SignTypedData(ctx, doc)
}

func (d *Delegating) isSigningIdentity() {}
