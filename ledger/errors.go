package ledger

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already in use")
	ErrInsufficientLamports = errors.New("insufficient lamports")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrOwnerMismatch        = errors.New("owner does not match")
	ErrMintMismatch         = errors.New("account not associated with this mint")
	ErrNotTokenAccount      = errors.New("not a token account")
	ErrNotMint              = errors.New("not a mint")
	ErrNonZeroBalance       = errors.New("non-native account can only be closed if its balance is zero")
	ErrOverflow             = errors.New("operation overflowed")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
)
