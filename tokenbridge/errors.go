package tokenbridge

import "errors"

var (
	ErrNotInitialized         = errors.New("token bridge is not initialized")
	ErrInvalidConfig          = errors.New("invalid token bridge config account")
	ErrInvalidAuthoritySigner = errors.New("invalid authority signer")
	ErrInvalidCustodySigner   = errors.New("invalid custody signer")
	ErrInvalidMintAuthority   = errors.New("invalid mint authority")
	ErrInvalidEmitter         = errors.New("invalid emitter")
	ErrInvalidCustody         = errors.New("invalid custody account")
	ErrInvalidSender          = errors.New("sender is not the sender account of the calling program")
	ErrInvalidRedeemer        = errors.New("redeemer is not allowed to redeem this transfer")
	ErrInvalidEndpoint        = errors.New("emitter is not a registered token bridge endpoint")
	ErrEndpointExists         = errors.New("endpoint already registered")
	ErrAlreadyClaimed         = errors.New("transfer already claimed")
	ErrInvalidClaim           = errors.New("invalid claim account")
	ErrInvalidPayload         = errors.New("invalid transfer payload")
	ErrInvalidChain           = errors.New("invalid chain")
	ErrInvalidMint            = errors.New("invalid mint")
	ErrInvalidRecipient       = errors.New("invalid recipient token account")
	ErrWrappedAsNative        = errors.New("wrapped tokens cannot be transferred as native")
	ErrNotWrapped             = errors.New("mint is not a wrapped asset")
	ErrZeroAmount             = errors.New("transfer amount truncates to zero")
	ErrAmountOverflow         = errors.New("transfer amount does not fit in a token account")
	ErrUnsupportedDecimals    = errors.New("mint has too many decimals to bridge")
)
