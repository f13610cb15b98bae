package signers

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/filozone/synapse-go/autherr"
)

func TestDelegating(t *testing.T) {
	key, err := NewDirectKeyFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("NewDirectKeyFromHex failed: %v", err)
	}

	t.Run("unwrap sees through one layer", func(t *testing.T) {
		wrapped := NewDelegating(key)
		if Unwrap(wrapped) != SigningIdentity(key) {
			t.Error("Unwrap did not return the inner identity")
		}
		if Unwrap(key) != SigningIdentity(key) {
			t.Error("Unwrap changed an unwrapped identity")
		}

		double := NewDelegating(wrapped)
		if Unwrap(double) != SigningIdentity(wrapped) {
			t.Error("Unwrap crossed more than one layer")
		}
	})

	t.Run("forwards address and digest signing", func(t *testing.T) {
		wrapped := NewDelegating(key)
		if wrapped.Address() != key.Address() {
			t.Error("delegation changed the address")
		}

		digest := crypto.Keccak256Hash([]byte("digest"))
		direct, err := key.SignDigest(context.Background(), digest)
		if err != nil {
			t.Fatalf("SignDigest failed: %v", err)
		}
		delegated, err := wrapped.SignDigest(context.Background(), digest)
		if err != nil {
			t.Fatalf("delegated SignDigest failed: %v", err)
		}
		if string(direct) != string(delegated) {
			t.Error("delegation changed the signature")
		}
	})

	t.Run("typed-data over a digest-only inner fails unavailable", func(t *testing.T) {
		wrapped := NewDelegating(key)
		_, err := wrapped.SignTypedData(context.Background(), validTestDocument())
		if !autherr.HasCode(err, autherr.CodeSigningUnavailable) {
			t.Errorf("expected signing_unavailable, got %v", err)
		}
	})

	t.Run("concurrent sign requests complete", func(t *testing.T) {
		wrapped := NewDelegating(key)
		digest := crypto.Keccak256Hash([]byte("contended digest"))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := wrapped.SignDigest(context.Background(), digest); err != nil {
					t.Errorf("SignDigest failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}
