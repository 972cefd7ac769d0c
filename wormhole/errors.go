package wormhole

import "errors"

var (
	ErrNotInitialized      = errors.New("wormhole bridge is not initialized")
	ErrInvalidBridge       = errors.New("invalid bridge config account")
	ErrInvalidFeeCollector = errors.New("invalid fee collector account")
	ErrInvalidSequence     = errors.New("invalid emitter sequence account")
	ErrInsufficientFees    = errors.New("insufficient fees paid into the fee collector")
	ErrInvalidAccount      = errors.New("account does not hold the expected wormhole record")
	ErrPayloadTooLarge     = errors.New("message payload is too large")
	ErrVAAExists           = errors.New("vaa already posted")
)
