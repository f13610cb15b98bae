package eip712

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filozone/synapse-go/autherr"
	"github.com/filozone/synapse-go/signers"
)

// Signer produces authorization signatures under a fixed domain for a
// single signing identity. The signing path is chosen by the concrete
// identity variant: local keys sign the raw digest silently, interactive
// agents receive the full typed-data document for human review. Both
// paths sign the identical digest.
type Signer struct {
	domain   Domain
	identity signers.SigningIdentity
	logger   *zap.Logger
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithLogger injects a structured logger. Decision points during path
// selection are logged at debug level with a per-request trace id.
func WithLogger(logger *zap.Logger) SignerOption {
	return func(s *Signer) {
		s.logger = logger
	}
}

// NewSigner creates a signer for the given domain and identity.
func NewSigner(domain Domain, identity signers.SigningIdentity, opts ...SignerOption) *Signer {
	s := &Signer{
		domain:   domain,
		identity: identity,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain returns the domain every signature is bound to.
func (s *Signer) Domain() Domain {
	return s.domain
}

// Address returns the address signatures are produced under.
func (s *Signer) Address() common.Address {
	return s.identity.Address()
}

// SignCreateDataSet signs a CreateDataSet authorization.
func (s *Signer) SignCreateDataSet(ctx context.Context, clientDataSetID *big.Int, payee common.Address, metadata []MetadataEntry) (*AuthSignature, error) {
	payload, err := BuildCreateDataSet(clientDataSetID, payee, metadata)
	if err != nil {
		return nil, err
	}
	return s.Sign(ctx, payload)
}

// SignAddPieces signs an AddPieces authorization.
func (s *Signer) SignAddPieces(ctx context.Context, clientDataSetID, firstAdded *big.Int, pieces []PieceInput, metadata [][]MetadataEntry) (*AuthSignature, error) {
	payload, err := BuildAddPieces(clientDataSetID, firstAdded, pieces, metadata)
	if err != nil {
		return nil, err
	}
	return s.Sign(ctx, payload)
}

// SignSchedulePieceRemovals signs a SchedulePieceRemovals authorization.
func (s *Signer) SignSchedulePieceRemovals(ctx context.Context, clientDataSetID *big.Int, pieceIDs []*big.Int) (*AuthSignature, error) {
	payload, err := BuildSchedulePieceRemovals(clientDataSetID, pieceIDs)
	if err != nil {
		return nil, err
	}
	return s.Sign(ctx, payload)
}

// SignDeleteDataSet signs a DeleteDataSet authorization.
func (s *Signer) SignDeleteDataSet(ctx context.Context, clientDataSetID *big.Int) (*AuthSignature, error) {
	payload, err := BuildDeleteDataSet(clientDataSetID)
	if err != nil {
		return nil, err
	}
	return s.Sign(ctx, payload)
}

// Sign computes the digest for a built payload and obtains a signature
// over it from the active identity.
func (s *Signer) Sign(ctx context.Context, payload *TypedPayload) (*AuthSignature, error) {
	_, digest, err := HashTypedData(s.domain, payload)
	if err != nil {
		return nil, err
	}

	traceID := uuid.NewString()
	logger := s.logger.With(
		zap.String("trace_id", traceID),
		zap.String("primary_type", payload.PrimaryType),
		zap.Stringer("signer", s.identity.Address()),
	)

	var signature []byte
	switch signers.Unwrap(s.identity).(type) {
	case *signers.DirectKey:
		logger.Debug("signing digest with local key")
		ds, ok := s.identity.(signers.DigestSigner)
		if !ok {
			return nil, autherr.SigningUnavailable(fmt.Errorf("identity %T lost digest signing capability", s.identity))
		}
		signature, err = ds.SignDigest(ctx, digest)

	case *signers.InteractiveAgent:
		logger.Debug("submitting structured signing request to agent")
		ts, ok := s.identity.(signers.TypedDataSigner)
		if !ok {
			return nil, autherr.SigningUnavailable(fmt.Errorf("identity %T lost typed-data signing capability", s.identity))
		}
		signature, err = ts.SignTypedData(ctx, s.document(payload))

	default:
		// Only reachable through nested delegation. Fail toward the
		// silent, non-interactive path.
		logger.Debug("identity variant unresolved, defaulting to digest path")
		ds, ok := s.identity.(signers.DigestSigner)
		if !ok {
			return nil, autherr.SigningUnavailable(fmt.Errorf("identity %T cannot sign digests", s.identity))
		}
		signature, err = ds.SignDigest(ctx, digest)
	}
	if err != nil {
		return nil, err
	}
	if len(signature) != 65 {
		return nil, fmt.Errorf("identity returned %d-byte signature, want 65", len(signature))
	}

	return &AuthSignature{
		Signature:    signature,
		V:            signature[64],
		R:            common.BytesToHash(signature[0:32]),
		S:            common.BytesToHash(signature[32:64]),
		SignedDigest: digest,
		Signer:       s.identity.Address(),
	}, nil
}

// document builds the self-describing typed-data document submitted to
// an interactive agent: the dependency-closed type map plus the fixed
// EIP712Domain entry, the domain fields, and the message with binary
// values hex-encoded for display.
func (s *Signer) document(payload *TypedPayload) *signers.TypedDataDocument {
	types := make(map[string][]signers.TypeField, len(payload.Types)+1)
	for name, fields := range payload.Types {
		converted := make([]signers.TypeField, len(fields))
		for i, f := range fields {
			converted[i] = signers.TypeField{Name: f.Name, Type: f.Type}
		}
		types[name] = converted
	}
	domainFields := make([]signers.TypeField, len(eip712DomainFields))
	for i, f := range eip712DomainFields {
		domainFields[i] = signers.TypeField{Name: f.Name, Type: f.Type}
	}
	types["EIP712Domain"] = domainFields

	return &signers.TypedDataDocument{
		Types:       types,
		PrimaryType: payload.PrimaryType,
		Domain:      s.domain.displayMap(),
		Message:     signers.DisplayMessage(payload.Message),
	}
}
