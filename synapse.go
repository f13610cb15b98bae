// Package synapse wires the authorization signing subsystem for the warm
// storage service: an EIP-712 signer bound to one domain and signing
// identity, optional signing lifecycle hooks, and a session-key
// permission tracker.
package synapse

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/filozone/synapse-go/autherr"
	"github.com/filozone/synapse-go/eip712"
	"github.com/filozone/synapse-go/sessionkey"
	"github.com/filozone/synapse-go/signers"
)

// Config assembles a Client. Signer and Domain are required. Payer is
// the identity funding the datasets; it defaults to Signer at
// construction time and is never re-derived afterwards.
type Config struct {
	Signer  signers.SigningIdentity
	Payer   signers.SigningIdentity
	Domain  eip712.Domain
	Logger  *zap.Logger
	Hooks   SigningHooks
	Session *sessionkey.Tracker
}

// Option configures a Client.
type Option func(*Config)

// WithSigner sets the active signing identity.
func WithSigner(identity signers.SigningIdentity) Option {
	return func(c *Config) { c.Signer = identity }
}

// WithPayer sets the paying identity explicitly. Without it the payer is
// the signer.
func WithPayer(identity signers.SigningIdentity) Option {
	return func(c *Config) { c.Payer = identity }
}

// WithDomain sets the signing domain.
func WithDomain(domain eip712.Domain) Option {
	return func(c *Config) { c.Domain = domain }
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithHooks attaches signing lifecycle hooks.
func WithHooks(hooks SigningHooks) Option {
	return func(c *Config) { c.Hooks = hooks }
}

// WithSessionTracker attaches a session-key permission tracker.
func WithSessionTracker(tracker *sessionkey.Tracker) Option {
	return func(c *Config) { c.Session = tracker }
}

// Client exposes the four authorization signing operations with hooks
// applied, plus access to the configured identities and session tracker.
type Client struct {
	cfg    Config
	signer *eip712.Signer
}

// New creates a Client from options.
func New(opts ...Option) (*Client, error) {
	cfg := Config{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewFromConfig(cfg)
}

// NewFromConfig creates a Client from an assembled Config.
func NewFromConfig(cfg Config) (*Client, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		signer: eip712.NewSigner(cfg.Domain, cfg.Signer, eip712.WithLogger(cfg.Logger)),
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Signer == nil {
		return errors.New("signing identity is required")
	}
	if cfg.Domain.ChainID == nil {
		return errors.New("domain chain id is required")
	}
	if cfg.Domain.Name == "" || cfg.Domain.Version == "" {
		return errors.New("domain name and version are required")
	}
	if cfg.Payer == nil {
		cfg.Payer = cfg.Signer
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return nil
}

// SignerIdentity returns the active signing identity.
func (c *Client) SignerIdentity() signers.SigningIdentity {
	return c.cfg.Signer
}

// PayerIdentity returns the paying identity.
func (c *Client) PayerIdentity() signers.SigningIdentity {
	return c.cfg.Payer
}

// Signer returns the underlying authorization signer.
func (c *Client) Signer() *eip712.Signer {
	return c.signer
}

// Session returns the session-key permission tracker, or nil when none
// was configured.
func (c *Client) Session() *sessionkey.Tracker {
	return c.cfg.Session
}

// SignCreateDataSet signs a CreateDataSet authorization with hooks
// applied.
func (c *Client) SignCreateDataSet(ctx context.Context, clientDataSetID *big.Int, payee common.Address, metadata []eip712.MetadataEntry) (*eip712.AuthSignature, error) {
	return c.signWithHooks(ctx, eip712.TypeCreateDataSet, func() (*eip712.AuthSignature, error) {
		return c.signer.SignCreateDataSet(ctx, clientDataSetID, payee, metadata)
	})
}

// SignAddPieces signs an AddPieces authorization with hooks applied.
func (c *Client) SignAddPieces(ctx context.Context, clientDataSetID, firstAdded *big.Int, pieces []eip712.PieceInput, metadata [][]eip712.MetadataEntry) (*eip712.AuthSignature, error) {
	return c.signWithHooks(ctx, eip712.TypeAddPieces, func() (*eip712.AuthSignature, error) {
		return c.signer.SignAddPieces(ctx, clientDataSetID, firstAdded, pieces, metadata)
	})
}

// SignSchedulePieceRemovals signs a SchedulePieceRemovals authorization
// with hooks applied.
func (c *Client) SignSchedulePieceRemovals(ctx context.Context, clientDataSetID *big.Int, pieceIDs []*big.Int) (*eip712.AuthSignature, error) {
	return c.signWithHooks(ctx, eip712.TypeSchedulePieceRemovals, func() (*eip712.AuthSignature, error) {
		return c.signer.SignSchedulePieceRemovals(ctx, clientDataSetID, pieceIDs)
	})
}

// SignDeleteDataSet signs a DeleteDataSet authorization with hooks
// applied.
func (c *Client) SignDeleteDataSet(ctx context.Context, clientDataSetID *big.Int) (*eip712.AuthSignature, error) {
	return c.signWithHooks(ctx, eip712.TypeDeleteDataSet, func() (*eip712.AuthSignature, error) {
		return c.signer.SignDeleteDataSet(ctx, clientDataSetID)
	})
}

func (c *Client) signWithHooks(ctx context.Context, operation string, sign func() (*eip712.AuthSignature, error)) (*eip712.AuthSignature, error) {
	hookCtx := SignContext{
		Ctx:         ctx,
		Operation:   operation,
		PrimaryType: operation,
		Timestamp:   time.Now(),
	}

	for _, hook := range c.cfg.Hooks.BeforeSign {
		result, err := hook(hookCtx)
		if err != nil {
			return nil, fmt.Errorf("before-sign hook: %w", err)
		}
		if result != nil && result.Abort {
			return nil, autherr.InvalidArgument("signing aborted by hook: %s", result.Reason)
		}
	}

	start := time.Now()
	sig, err := sign()
	if err != nil {
		failure := SignFailureContext{
			SignContext: hookCtx,
			Error:       err,
			Duration:    time.Since(start),
		}
		for _, hook := range c.cfg.Hooks.OnSignFailure {
			if hookErr := hook(failure); hookErr != nil {
				c.cfg.Logger.Warn("sign-failure hook returned error",
					zap.String("operation", operation), zap.Error(hookErr))
			}
		}
		return nil, err
	}

	result := SignResultContext{
		SignContext: hookCtx,
		Result:      sig,
		Duration:    time.Since(start),
	}
	for _, hook := range c.cfg.Hooks.AfterSign {
		if hookErr := hook(result); hookErr != nil {
			c.cfg.Logger.Warn("after-sign hook returned error",
				zap.String("operation", operation), zap.Error(hookErr))
		}
	}
	return sig, nil
}
