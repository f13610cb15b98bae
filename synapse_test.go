package synapse_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	synapse "github.com/filozone/synapse-go"
	"github.com/filozone/synapse-go/autherr"
	"github.com/filozone/synapse-go/eip712"
	"github.com/filozone/synapse-go/signers"
)

func testIdentity(t *testing.T) *signers.DirectKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return signers.NewDirectKey(key)
}

func testDomain() eip712.Domain {
	return eip712.NewDomain(big.NewInt(314159),
		common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
}

func TestNew(t *testing.T) {
	identity := testIdentity(t)

	t.Run("payer defaults to signer", func(t *testing.T) {
		client, err := synapse.New(
			synapse.WithSigner(identity),
			synapse.WithDomain(testDomain()),
		)
		require.NoError(t, err)
		require.Equal(t, identity.Address(), client.PayerIdentity().Address())
	})

	t.Run("explicit payer is kept", func(t *testing.T) {
		payer := testIdentity(t)
		client, err := synapse.New(
			synapse.WithSigner(identity),
			synapse.WithPayer(payer),
			synapse.WithDomain(testDomain()),
		)
		require.NoError(t, err)
		require.Equal(t, payer.Address(), client.PayerIdentity().Address())
		require.Equal(t, identity.Address(), client.SignerIdentity().Address())
	})

	t.Run("requires a signing identity", func(t *testing.T) {
		_, err := synapse.New(synapse.WithDomain(testDomain()))
		require.Error(t, err)
	})

	t.Run("requires a chain id", func(t *testing.T) {
		_, err := synapse.New(
			synapse.WithSigner(identity),
			synapse.WithDomain(eip712.Domain{Name: "x", Version: "1"}),
		)
		require.Error(t, err)
	})

	t.Run("requires domain name and version", func(t *testing.T) {
		_, err := synapse.New(
			synapse.WithSigner(identity),
			synapse.WithDomain(eip712.Domain{ChainID: big.NewInt(1)}),
		)
		require.Error(t, err)
	})

	t.Run("nil session tracker is allowed", func(t *testing.T) {
		client, err := synapse.New(
			synapse.WithSigner(identity),
			synapse.WithDomain(testDomain()),
		)
		require.NoError(t, err)
		require.Nil(t, client.Session())
	})
}

func TestSigningHooks(t *testing.T) {
	newClient := func(t *testing.T, hooks synapse.SigningHooks) *synapse.Client {
		t.Helper()
		client, err := synapse.New(
			synapse.WithSigner(testIdentity(t)),
			synapse.WithDomain(testDomain()),
			synapse.WithHooks(hooks),
		)
		require.NoError(t, err)
		return client
	}

	t.Run("before hook sees the operation", func(t *testing.T) {
		var seen []string
		client := newClient(t, synapse.SigningHooks{
			BeforeSign: []synapse.BeforeSignHook{
				func(hctx synapse.SignContext) (*synapse.BeforeSignHookResult, error) {
					seen = append(seen, hctx.Operation)
					return nil, nil
				},
			},
		})

		_, err := client.SignDeleteDataSet(context.Background(), big.NewInt(7))
		require.NoError(t, err)
		require.Equal(t, []string{eip712.TypeDeleteDataSet}, seen)
	})

	t.Run("abort cancels before signing", func(t *testing.T) {
		var signed bool
		client := newClient(t, synapse.SigningHooks{
			BeforeSign: []synapse.BeforeSignHook{
				func(synapse.SignContext) (*synapse.BeforeSignHookResult, error) {
					return &synapse.BeforeSignHookResult{Abort: true, Reason: "maintenance window"}, nil
				},
			},
			AfterSign: []synapse.AfterSignHook{
				func(synapse.SignResultContext) error {
					signed = true
					return nil
				},
			},
		})

		_, err := client.SignDeleteDataSet(context.Background(), big.NewInt(7))
		require.True(t, autherr.HasCode(err, autherr.CodeInvalidArgument), "got %v", err)
		require.Contains(t, err.Error(), "maintenance window")
		require.False(t, signed)
	})

	t.Run("before hook error aborts", func(t *testing.T) {
		boom := errors.New("policy lookup failed")
		client := newClient(t, synapse.SigningHooks{
			BeforeSign: []synapse.BeforeSignHook{
				func(synapse.SignContext) (*synapse.BeforeSignHookResult, error) {
					return nil, boom
				},
			},
		})

		_, err := client.SignDeleteDataSet(context.Background(), big.NewInt(7))
		require.ErrorIs(t, err, boom)
	})

	t.Run("after hook receives the signature", func(t *testing.T) {
		var got *eip712.AuthSignature
		client := newClient(t, synapse.SigningHooks{
			AfterSign: []synapse.AfterSignHook{
				func(rctx synapse.SignResultContext) error {
					got = rctx.Result
					return nil
				},
			},
		})

		sig, err := client.SignCreateDataSet(context.Background(), big.NewInt(1),
			common.HexToAddress("0x4000000000000000000000000000000000000004"), nil)
		require.NoError(t, err)
		require.Same(t, sig, got)
		require.Len(t, sig.Signature, 65)
	})

	t.Run("after hook error does not fail the operation", func(t *testing.T) {
		client := newClient(t, synapse.SigningHooks{
			AfterSign: []synapse.AfterSignHook{
				func(synapse.SignResultContext) error { return errors.New("audit sink down") },
			},
		})

		sig, err := client.SignDeleteDataSet(context.Background(), big.NewInt(7))
		require.NoError(t, err)
		require.NotNil(t, sig)
	})

	t.Run("failure hook observes signing errors", func(t *testing.T) {
		var observed error
		client := newClient(t, synapse.SigningHooks{
			OnSignFailure: []synapse.OnSignFailureHook{
				func(fctx synapse.SignFailureContext) error {
					observed = fctx.Error
					return nil
				},
			},
		})

		// A nil dataset id fails payload construction before signing.
		_, err := client.SignDeleteDataSet(context.Background(), nil)
		require.Error(t, err)
		require.Equal(t, err, observed)
	})
}

func TestClientSignsLikeBareSigner(t *testing.T) {
	identity := testIdentity(t)
	domain := testDomain()

	client, err := synapse.New(
		synapse.WithSigner(identity),
		synapse.WithDomain(domain),
	)
	require.NoError(t, err)

	direct := eip712.NewSigner(domain, identity)

	fromClient, err := client.SignSchedulePieceRemovals(context.Background(),
		big.NewInt(9), []*big.Int{big.NewInt(1), big.NewInt(2)})
	require.NoError(t, err)

	bare, err := direct.SignSchedulePieceRemovals(context.Background(),
		big.NewInt(9), []*big.Int{big.NewInt(1), big.NewInt(2)})
	require.NoError(t, err)

	require.Equal(t, bare.SignedDigest, fromClient.SignedDigest)
	require.Equal(t, bare.Signature, fromClient.Signature)
}
