package tokenbridge

import (
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/wormhole"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// CompleteAccounts are the accounts of an inbound transfer. Custody and
// CustodySigner are only used for native tokens; MintAuthority and WrappedMeta
// only for wrapped ones.
type CompleteAccounts struct {
	Payer         solana.PublicKey
	Config        solana.PublicKey
	VAA           solana.PublicKey
	Claim         solana.PublicKey
	Endpoint      solana.PublicKey
	To            solana.PublicKey
	Redeemer      solana.PublicKey
	Mint          solana.PublicKey
	Custody       solana.PublicKey
	CustodySigner solana.PublicKey
	MintAuthority solana.PublicKey
	WrappedMeta   solana.PublicKey
}

// Completed describes a redeemed transfer.
type Completed struct {
	Message  *wormhole.MessageData
	Transfer *TransferWithPayload
	// Amount is in base units of the local mint.
	Amount uint64
}

// redeem runs the checks shared by native and wrapped completion.
func (b *Bridge) redeem(accounts *CompleteAccounts) (*Completed, error) {
	if !accounts.Config.Equals(b.ConfigAddress()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, accounts.Config)
	}
	if _, err := b.Config(); err != nil {
		return nil, err
	}
	message, err := b.wormhole.VerifiedMessageAt(accounts.VAA)
	if err != nil {
		return nil, err
	}
	transfer, err := ParseTransferWithPayload(message.Payload)
	if err != nil {
		return nil, err
	}
	emitterChain := relay.ChainID(message.EmitterChain)

	if !accounts.Endpoint.Equals(b.EndpointAddress(emitterChain, message.EmitterAddress)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, accounts.Endpoint)
	}
	if _, err := b.Endpoint(emitterChain, message.EmitterAddress); err != nil {
		return nil, err
	}
	if transfer.ToChain != b.ChainID() {
		return nil, fmt.Errorf("%w: transfer is for chain %s", ErrInvalidChain, transfer.ToChain)
	}
	to := transfer.To.PublicKey()
	if !accounts.Redeemer.Equals(to) && !accounts.Redeemer.Equals(RedeemerAddress(to)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRedeemer, accounts.Redeemer)
	}

	if !accounts.Claim.Equals(b.ClaimAddress(message.EmitterAddress, emitterChain, message.Sequence)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidClaim, accounts.Claim)
	}
	if b.ledger.Allocated(accounts.Claim) {
		return nil, fmt.Errorf("%w: sequence %d from %s", ErrAlreadyClaimed, message.Sequence, emitterChain)
	}

	dst, err := b.ledger.TokenAccount(accounts.To)
	if err != nil {
		return nil, err
	}
	if !dst.Mint.Equals(accounts.Mint) {
		return nil, fmt.Errorf("%w: %s holds %s", ErrInvalidRecipient, accounts.To, dst.Mint)
	}
	if !dst.Owner.Equals(accounts.Redeemer) {
		return nil, fmt.Errorf("%w: %s is not owned by the redeemer", ErrInvalidRecipient, accounts.To)
	}
	if !transfer.Amount.IsUint64() {
		return nil, fmt.Errorf("%w: %s", ErrAmountOverflow, transfer.Amount.Dec())
	}
	return &Completed{Message: message, Transfer: transfer}, nil
}

// CompleteNativeWithPayload releases native tokens from custody into accounts.To.
func (b *Bridge) CompleteNativeWithPayload(accounts CompleteAccounts) (*Completed, error) {
	completed, err := b.redeem(&accounts)
	if err != nil {
		return nil, err
	}
	transfer := completed.Transfer
	if transfer.TokenChain != b.ChainID() {
		return nil, fmt.Errorf("%w: token from chain %s is not native", ErrInvalidChain, transfer.TokenChain)
	}
	if !accounts.Mint.Equals(transfer.TokenAddress.PublicKey()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMint, accounts.Mint)
	}
	if !accounts.Custody.Equals(b.CustodyAddress(accounts.Mint)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCustody, accounts.Custody)
	}
	if !accounts.CustodySigner.Equals(b.CustodySignerAddress()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCustodySigner, accounts.CustodySigner)
	}
	mint, err := b.ledger.Mint(accounts.Mint)
	if err != nil {
		return nil, err
	}
	if err := CheckDecimals(mint.Decimals); err != nil {
		return nil, err
	}
	normalized := transfer.Amount.Uint64()
	amount, ok := DenormalizeAmount(normalized, mint.Decimals)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAmountOverflow, normalized)
	}
	if err := b.claim(&accounts); err != nil {
		return nil, err
	}
	if err := b.ledger.Transfer(accounts.Custody, accounts.To, accounts.CustodySigner, amount); err != nil {
		return nil, err
	}
	completed.Amount = amount
	b.logCompleted(completed)
	return completed, nil
}

// CompleteWrappedWithPayload mints wrapped tokens into accounts.To.
func (b *Bridge) CompleteWrappedWithPayload(accounts CompleteAccounts) (*Completed, error) {
	completed, err := b.redeem(&accounts)
	if err != nil {
		return nil, err
	}
	transfer := completed.Transfer
	if transfer.TokenChain == b.ChainID() {
		return nil, fmt.Errorf("%w: token is native", ErrInvalidChain)
	}
	if !accounts.Mint.Equals(b.WrappedMintAddress(transfer.TokenChain, transfer.TokenAddress)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMint, accounts.Mint)
	}
	if !accounts.WrappedMeta.Equals(b.WrappedMetaAddress(accounts.Mint)) {
		return nil, fmt.Errorf("%w: meta %s", ErrNotWrapped, accounts.WrappedMeta)
	}
	if _, err := b.WrappedMeta(accounts.Mint); err != nil {
		return nil, err
	}
	if !accounts.MintAuthority.Equals(b.MintAuthorityAddress()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMintAuthority, accounts.MintAuthority)
	}
	amount := transfer.Amount.Uint64()
	if err := b.claim(&accounts); err != nil {
		return nil, err
	}
	if err := b.ledger.MintTo(accounts.Mint, accounts.To, accounts.MintAuthority, amount); err != nil {
		return nil, err
	}
	completed.Amount = amount
	b.logCompleted(completed)
	return completed, nil
}

// claim marks the transfer redeemed. It runs after every check has passed.
func (b *Bridge) claim(accounts *CompleteAccounts) error {
	return b.create(accounts.Payer, accounts.Claim, &Claim{Claimed: true})
}

func (b *Bridge) logCompleted(completed *Completed) {
	logrus.WithFields(logrus.Fields{
		"emitter_chain": completed.Message.EmitterChain,
		"sequence":      completed.Message.Sequence,
		"token_chain":   completed.Transfer.TokenChain,
		"amount":        completed.Amount,
	}).Debug("completed token bridge transfer")
}
