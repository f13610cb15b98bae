// Package autherr defines the error taxonomy shared by the authorization
// signing subsystem. Every failure surfaced by this module carries one of
// the stable codes below; nothing is retried internally.
package autherr

import (
	"errors"
	"fmt"
)

// Code identifies a class of authorization failure.
type Code string

// Stable error codes.
const (
	CodeSchemaNotFound         Code = "schema_not_found"
	CodeInvalidArgument        Code = "invalid_argument"
	CodeInvalidPieceIdentifier Code = "invalid_piece_identifier"
	CodeSigningUnavailable     Code = "signing_unavailable"
	CodeSigningRejected        Code = "signing_rejected"
	CodeTransactionFailed      Code = "transaction_failed"
)

// Error is an authorization-specific error with a stable code and
// optional structured details.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new authorization error.
func New(code Code, message string, details map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Wrap creates a new authorization error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// SchemaNotFound reports an unknown structured-data type name. This is a
// programmer error and is never retried.
func SchemaNotFound(typeName string) *Error {
	return New(CodeSchemaNotFound, fmt.Sprintf("unknown type %q", typeName), nil)
}

// InvalidArgument reports a caller-supplied payload that violates a
// structural invariant. The message names the violated invariant.
func InvalidArgument(format string, args ...interface{}) *Error {
	return New(CodeInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// InvalidPieceIdentifier reports a string content identifier that failed
// to parse.
func InvalidPieceIdentifier(identifier string, cause error) *Error {
	return Wrap(CodeInvalidPieceIdentifier, fmt.Sprintf("invalid piece identifier %q", identifier), cause)
}

// SigningUnavailable reports that no signing transport is reachable.
func SigningUnavailable(cause error) *Error {
	return Wrap(CodeSigningUnavailable, "no signing transport reachable", cause)
}

// SigningRejected reports that the signing agent explicitly declined.
func SigningRejected(cause error) *Error {
	return Wrap(CodeSigningRejected, "signing request declined by agent", cause)
}

// TransactionFailed reports a write submission rejected by the registry
// or its transport.
func TransactionFailed(cause error) *Error {
	return Wrap(CodeTransactionFailed, "transaction submission failed", cause)
}

// HasCode reports whether err (or anything it wraps) is an authorization
// error with the given code.
func HasCode(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
