package synapse

import (
	"context"
	"time"

	"github.com/filozone/synapse-go/eip712"
)

// SignContext is the information passed to signing hooks.
type SignContext struct {
	Ctx         context.Context
	Operation   string
	PrimaryType string
	Timestamp   time.Time
}

// SignResultContext carries a completed signing operation's result.
type SignResultContext struct {
	SignContext
	Result   *eip712.AuthSignature
	Duration time.Duration
}

// SignFailureContext carries a failed signing operation's error.
type SignFailureContext struct {
	SignContext
	Error    error
	Duration time.Duration
}

// BeforeSignHookResult is the result of a "before" hook. If Abort is
// true the signing operation is aborted with the given reason.
type BeforeSignHookResult struct {
	Abort  bool
	Reason string
}

// BeforeSignHook runs before a payload is signed. Returning a result
// with Abort=true cancels the operation.
type BeforeSignHook func(SignContext) (*BeforeSignHookResult, error)

// AfterSignHook runs after a successful signing operation. Errors are
// logged and do not affect the result.
type AfterSignHook func(SignResultContext) error

// OnSignFailureHook observes a failed signing operation. The failure is
// always surfaced to the caller; there is no recovery for signatures.
type OnSignFailureHook func(SignFailureContext) error

// SigningHooks groups the lifecycle hooks applied around every signing
// operation.
type SigningHooks struct {
	BeforeSign    []BeforeSignHook
	AfterSign     []AfterSignHook
	OnSignFailure []OnSignFailureHook
}
