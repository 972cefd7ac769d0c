package hellotoken

import (
	"errors"
	"fmt"
)

// Code names why an instruction was rejected. A Code is itself an error so
// callers can match with errors.Is(err, hellotoken.OwnerOnly).
type Code string

func (c Code) Error() string {
	return string(c)
}

// Authorization
const OwnerOnly Code = "OwnerOnly"

// A capability address no longer matches the one trusted at initialization.
const (
	InvalidTokenBridgeConfig          Code = "InvalidTokenBridgeConfig"
	InvalidTokenBridgeAuthoritySigner Code = "InvalidTokenBridgeAuthoritySigner"
	InvalidTokenBridgeCustodySigner   Code = "InvalidTokenBridgeCustodySigner"
	InvalidTokenBridgeMintAuthority   Code = "InvalidTokenBridgeMintAuthority"
	InvalidTokenBridgeEmitter         Code = "InvalidTokenBridgeEmitter"
	InvalidTokenBridgeSequence        Code = "InvalidTokenBridgeSequence"
	InvalidWormholeBridge             Code = "InvalidWormholeBridge"
	InvalidWormholeFeeCollector       Code = "InvalidWormholeFeeCollector"
	InvalidTokenBridgeForeignEndpoint Code = "InvalidTokenBridgeForeignEndpoint"
)

// The inbound message does not satisfy the acceptance policy.
const (
	InvalidForeignContract    Code = "InvalidForeignContract"
	InvalidTransferToAddress  Code = "InvalidTransferToAddress"
	InvalidTransferToChain    Code = "InvalidTransferToChain"
	InvalidTransferTokenChain Code = "InvalidTransferTokenChain"
	InvalidPayerAta           Code = "InvalidPayerAta"
)

// A system account does not match its expected identity.
const InvalidSysvar Code = "InvalidSysvar"

const (
	AlreadyInitialized    Code = "AlreadyInitialized"
	NotInitialized        Code = "NotInitialized"
	AlreadyRedeemed       Code = "AlreadyRedeemed"
	InvalidDerivedAddress Code = "InvalidDerivedAddress"
	InvalidProgramID      Code = "InvalidProgramID"
	InvalidTokenAccount   Code = "InvalidTokenAccount"
	InvalidMint           Code = "InvalidMint"
	InvalidRecipient      Code = "InvalidRecipient"
	ZeroBridgeAmount      Code = "ZeroBridgeAmount"
	InvalidRelayerFee     Code = "InvalidRelayerFee"
	InvalidMessage        Code = "InvalidMessage"
)

type Error struct {
	Code    Code
	Message string
	// Err is the underlying failure, if any.
	Err error
}

var _ error = &Error{}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return e.Code == t.Code
	}
	return false
}

func Errorf(code Code, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a code to a failure reported by the host or another program.
func Wrap(code Code, err error, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// CodeOf returns the first code in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return ""
}
