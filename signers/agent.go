package signers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/filozone/synapse-go/autherr"
)

// signTypedDataMethod is the provider-level structured-signing request
// identifier understood by interactive wallets.
const signTypedDataMethod = "eth_signTypedData_v4"

// agentRejectedCode is the provider error code an interactive agent
// returns when its holder declines a request (EIP-1193 userRejectedRequest).
const agentRejectedCode = 4001

// Provider is the transport through which an interactive agent receives
// requests. *rpc.Client from go-ethereum satisfies it.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// providerError is the error shape rpc transports use to carry an agent's
// numeric rejection code.
type providerError interface {
	error
	ErrorCode() int
}

// InteractiveAgent is a signing identity fronted by an agent (typically a
// wallet) that displays the structured message to a human before signing.
// It never receives a raw digest; every request carries the full
// typed-data document.
type InteractiveAgent struct {
	address  common.Address
	provider Provider
}

var (
	_ SigningIdentity = (*InteractiveAgent)(nil)
	_ TypedDataSigner = (*InteractiveAgent)(nil)
)

// NewInteractiveAgent creates an agent identity for the given signer
// address, reached through the given provider.
func NewInteractiveAgent(address common.Address, provider Provider) *InteractiveAgent {
	return &InteractiveAgent{address: address, provider: provider}
}

// Address returns the address the agent signs as.
func (a *InteractiveAgent) Address() common.Address {
	return a.address
}

// SignTypedData serializes the document, validates it, and submits a
// structured-signing request addressed by the signer's public address.
// The returned signature is 65 bytes, r || s || v.
func (a *InteractiveAgent) SignTypedData(ctx context.Context, doc *TypedDataDocument) ([]byte, error) {
	if a.provider == nil {
		return nil, autherr.SigningUnavailable(errors.New("interactive agent has no provider attached"))
	}

	documentJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding typed-data document: %w", err)
	}
	if err := validateDocument(documentJSON); err != nil {
		return nil, autherr.Wrap(autherr.CodeInvalidArgument, "typed-data document failed validation", err)
	}

	var result hexutil.Bytes
	err = a.provider.CallContext(ctx, &result, signTypedDataMethod, a.address.Hex(), string(documentJSON))
	if err != nil {
		var pe providerError
		if errors.As(err, &pe) && pe.ErrorCode() == agentRejectedCode {
			return nil, autherr.SigningRejected(err)
		}
		return nil, autherr.SigningUnavailable(err)
	}

	if len(result) != 65 {
		return nil, fmt.Errorf("agent returned %d-byte signature, want 65", len(result))
	}
	sig := make([]byte, 65)
	copy(sig, result)
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

func (a *InteractiveAgent) isSigningIdentity() {}
