package sessionkey

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/filozone/synapse-go/autherr"
)

// DefaultMulticallAddress is the canonical Multicall3 deployment shared
// across chains.
var DefaultMulticallAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// registryABI covers the two permission-registry entry points this
// package uses: the per-permission expiry read and the authorizing write.
const registryABI = `[{
	"name": "authorizationExpiry",
	"type": "function",
	"stateMutability": "view",
	"inputs": [
		{"name": "owner", "type": "address"},
		{"name": "signer", "type": "address"},
		{"name": "permission", "type": "bytes32"}
	],
	"outputs": [{"name": "expiry", "type": "uint256"}]
}, {
	"name": "authorize",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "signer", "type": "address"},
		{"name": "expiry", "type": "uint256"},
		{"name": "permissions", "type": "bytes32[]"}
	],
	"outputs": []
}]`

// multicallABI is the Multicall3 aggregate3 entry point used to bundle
// the per-permission reads into one round trip.
const multicallABI = `[{
	"name": "aggregate3",
	"type": "function",
	"stateMutability": "payable",
	"inputs": [{
		"components": [
			{"name": "target", "type": "address"},
			{"name": "allowFailure", "type": "bool"},
			{"name": "callData", "type": "bytes"}
		],
		"name": "calls",
		"type": "tuple[]"
	}],
	"outputs": [{
		"components": [
			{"name": "success", "type": "bool"},
			{"name": "returnData", "type": "bytes"}
		],
		"name": "returnData",
		"type": "tuple[]"
	}]
}]`

var (
	registryContract  = mustParseABI(registryABI)
	multicallContract = mustParseABI(multicallABI)
)

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(fmt.Sprintf("parsing ABI constant: %v", err))
	}
	return parsed
}

// multicall3Call mirrors the aggregate3 input tuple.
type multicall3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// multicall3Result mirrors the aggregate3 output tuple.
type multicall3Result struct {
	Success    bool
	ReturnData []byte
}

// ContractBackend is the read side of the ledger. *ethclient.Client
// satisfies it.
type ContractBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TransactionSender submits a state-changing call and returns its
// transaction hash. Gas, nonce and signing policy belong to the
// implementation, not to this package.
type TransactionSender interface {
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// AddressResolver resolves one party's address. Resolvers for the owner,
// the session signer and the registry are independent and are run
// concurrently during a refresh.
type AddressResolver func(ctx context.Context) (common.Address, error)

// StaticAddress is an AddressResolver for a known address.
func StaticAddress(addr common.Address) AddressResolver {
	return func(context.Context) (common.Address, error) {
		return addr, nil
	}
}

// Config assembles a Tracker's collaborators.
type Config struct {
	Backend   ContractBackend
	Sender    TransactionSender
	Owner     AddressResolver
	Signer    AddressResolver
	Registry  AddressResolver
	Multicall common.Address // zero value selects DefaultMulticallAddress
	Logger    *zap.Logger
}

// Tracker caches per-permission authorization expiries for one
// owner/session-signer pair. Cached values are advisory: they are only
// updated by Refresh and go stale the moment the registry changes
// out-of-band. An entry is unknown until its first successful fetch.
//
// The tracker holds no internal locks. It assumes one logical caller;
// two concurrent Refresh calls may interleave their cache writes.
type Tracker struct {
	backend   ContractBackend
	sender    TransactionSender
	owner     AddressResolver
	signer    AddressResolver
	registry  AddressResolver
	multicall common.Address
	logger    *zap.Logger

	expiries map[Permission]time.Time
}

// New creates a permission tracker. Backend, Owner, Signer and Registry
// are required; Sender may be nil for read-only use.
func New(cfg Config) (*Tracker, error) {
	if cfg.Backend == nil {
		return nil, errors.New("sessionkey: contract backend is required")
	}
	if cfg.Owner == nil || cfg.Signer == nil || cfg.Registry == nil {
		return nil, errors.New("sessionkey: owner, signer and registry resolvers are required")
	}
	multicall := cfg.Multicall
	if multicall == (common.Address{}) {
		multicall = DefaultMulticallAddress
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		backend:   cfg.Backend,
		sender:    cfg.Sender,
		owner:     cfg.Owner,
		signer:    cfg.Signer,
		registry:  cfg.Registry,
		multicall: multicall,
		logger:    logger,
		expiries:  make(map[Permission]time.Time, len(AllPermissions)),
	}, nil
}

// Expiry returns the cached expiry for a permission. The second return
// is false while the permission is unknown, i.e. before its first
// successful refresh.
func (t *Tracker) Expiry(p Permission) (time.Time, bool) {
	expiry, ok := t.expiries[p]
	return expiry, ok
}

// Refresh fetches current expiries for the given permissions (all four
// when none are named) in a single batched read. The owner, signer and
// registry addresses are resolved concurrently first. A sub-call that
// fails inside the batch leaves that one permission untouched; it does
// not fail the refresh.
func (t *Tracker) Refresh(ctx context.Context, perms ...Permission) error {
	if len(perms) == 0 {
		perms = AllPermissions
	}

	owner, signer, registry, err := t.resolveParties(ctx)
	if err != nil {
		return fmt.Errorf("resolving addresses: %w", err)
	}

	calls := make([]multicall3Call, len(perms))
	for i, perm := range perms {
		typeHash, err := perm.TypeHash()
		if err != nil {
			return err
		}
		callData, err := registryContract.Pack("authorizationExpiry", owner, signer, typeHash)
		if err != nil {
			return fmt.Errorf("packing expiry read for %s: %w", perm, err)
		}
		calls[i] = multicall3Call{
			Target:       registry,
			AllowFailure: true,
			CallData:     callData,
		}
	}

	batchData, err := multicallContract.Pack("aggregate3", calls)
	if err != nil {
		return fmt.Errorf("packing batch read: %w", err)
	}

	t.logger.Debug("dispatching batched expiry read",
		zap.Int("permissions", len(perms)),
		zap.Stringer("registry", registry),
		zap.Stringer("multicall", t.multicall),
	)

	returned, err := t.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &t.multicall,
		Data: batchData,
	}, nil)
	if err != nil {
		return fmt.Errorf("batched expiry read: %w", err)
	}

	unpacked, err := multicallContract.Unpack("aggregate3", returned)
	if err != nil {
		return fmt.Errorf("decoding batch result: %w", err)
	}
	results := *abi.ConvertType(unpacked[0], new([]multicall3Result)).(*[]multicall3Result)
	if len(results) != len(perms) {
		return fmt.Errorf("batch returned %d entries, want %d", len(results), len(perms))
	}

	for i, result := range results {
		perm := perms[i]
		if !result.Success || len(result.ReturnData) == 0 {
			t.logger.Debug("expiry read failed for permission", zap.Stringer("permission", perm))
			continue
		}
		values, err := registryContract.Unpack("authorizationExpiry", result.ReturnData)
		if err != nil {
			t.logger.Debug("expiry decode failed for permission",
				zap.Stringer("permission", perm), zap.Error(err))
			continue
		}
		expiry := abi.ConvertType(values[0], new(big.Int)).(*big.Int)
		t.expiries[perm] = time.Unix(expiry.Int64(), 0)
	}
	return nil
}

// Authorize extends the given permissions (all four when none are named)
// for the session signer until expiry, through one registry write. The
// cached expiries are not updated; call Refresh afterwards to observe
// the effect.
func (t *Tracker) Authorize(ctx context.Context, expiry time.Time, perms ...Permission) (common.Hash, error) {
	if t.sender == nil {
		return common.Hash{}, autherr.TransactionFailed(errors.New("no transaction sender configured"))
	}
	if len(perms) == 0 {
		perms = AllPermissions
	}

	signer, err := t.signer(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("resolving signer address: %w", err)
	}
	registry, err := t.registry(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("resolving registry address: %w", err)
	}

	hashes := make([][32]byte, len(perms))
	for i, perm := range perms {
		typeHash, err := perm.TypeHash()
		if err != nil {
			return common.Hash{}, err
		}
		hashes[i] = typeHash
	}

	data, err := registryContract.Pack("authorize", signer, big.NewInt(expiry.Unix()), hashes)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing authorize call: %w", err)
	}

	t.logger.Debug("submitting authorize write",
		zap.Stringer("signer", signer),
		zap.Time("expiry", expiry),
		zap.Int("permissions", len(perms)),
	)

	txHash, err := t.sender.SendTransaction(ctx, registry, data)
	if err != nil {
		return common.Hash{}, autherr.TransactionFailed(err)
	}
	return txHash, nil
}

// resolveParties runs the three independent address lookups in parallel
// and joins them.
func (t *Tracker) resolveParties(ctx context.Context) (owner, signer, registry common.Address, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owner, err = t.owner(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		signer, err = t.signer(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		registry, err = t.registry(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return common.Address{}, common.Address{}, common.Address{}, err
	}
	return owner, signer, registry, nil
}
