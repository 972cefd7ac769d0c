package tokenbridge

import (
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/wormhole"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// TransferAccounts are the accounts of an outbound transfer. Custody and
// CustodySigner are only used for native tokens, WrappedMeta only for wrapped ones.
type TransferAccounts struct {
	Payer           solana.PublicKey
	Config          solana.PublicKey
	From            solana.PublicKey
	Mint            solana.PublicKey
	Custody         solana.PublicKey
	CustodySigner   solana.PublicKey
	WrappedMeta     solana.PublicKey
	AuthoritySigner solana.PublicKey
	WormholeBridge  solana.PublicKey
	Message         solana.PublicKey
	Emitter         solana.PublicKey
	Sequence        solana.PublicKey
	FeeCollector    solana.PublicKey
	// Sender must be the sender account of SenderProgram.
	Sender solana.PublicKey
}

type TransferArgs struct {
	Nonce         uint32
	Amount        uint64
	TargetAddress relay.ExternalAddress
	TargetChain   relay.ChainID
	Payload       []byte
	SenderProgram solana.PublicKey
}

func (b *Bridge) checkTransfer(accounts *TransferAccounts, args *TransferArgs) error {
	if !accounts.Config.Equals(b.ConfigAddress()) {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, accounts.Config)
	}
	if _, err := b.Config(); err != nil {
		return err
	}
	if !accounts.AuthoritySigner.Equals(b.AuthoritySignerAddress()) {
		return fmt.Errorf("%w: %s", ErrInvalidAuthoritySigner, accounts.AuthoritySigner)
	}
	if !accounts.Emitter.Equals(b.EmitterAddress()) {
		return fmt.Errorf("%w: %s", ErrInvalidEmitter, accounts.Emitter)
	}
	if !accounts.Sender.Equals(SenderAddress(args.SenderProgram)) {
		return fmt.Errorf("%w: %s", ErrInvalidSender, accounts.Sender)
	}
	if args.TargetChain == b.ChainID() || args.TargetChain == relay.ChainUnset {
		return fmt.Errorf("%w: cannot transfer to chain %s", ErrInvalidChain, args.TargetChain)
	}
	from, err := b.ledger.TokenAccount(accounts.From)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(accounts.Mint) {
		return fmt.Errorf("%w: %s holds %s", ErrInvalidMint, accounts.From, from.Mint)
	}
	return nil
}

func (b *Bridge) postTransfer(accounts *TransferAccounts, args *TransferArgs, transfer *TransferWithPayload) (uint64, error) {
	sequence, err := b.wormhole.PostMessage(wormhole.PostMessageArgs{
		Payer:            accounts.Payer,
		Emitter:          accounts.Emitter,
		Message:          accounts.Message,
		Bridge:           accounts.WormholeBridge,
		FeeCollector:     accounts.FeeCollector,
		Sequence:         accounts.Sequence,
		Nonce:            args.Nonce,
		ConsistencyLevel: ConsistencyFinalized,
		Payload:          transfer.Encode(),
	})
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"token_chain": transfer.TokenChain,
		"token":       transfer.TokenAddress,
		"to_chain":    transfer.ToChain,
		"to":          transfer.To,
		"amount":      transfer.Amount.Dec(),
		"sequence":    sequence,
	}).Debug("token bridge transfer")
	return sequence, nil
}

// TransferNativeWithPayload locks args.Amount (truncated to wire precision) of
// a native token in custody and posts a transfer message. The authority signer
// must be approved as delegate of accounts.From. Returns the message sequence.
func (b *Bridge) TransferNativeWithPayload(accounts TransferAccounts, args TransferArgs) (uint64, error) {
	if err := b.checkTransfer(&accounts, &args); err != nil {
		return 0, err
	}
	if !accounts.CustodySigner.Equals(b.CustodySignerAddress()) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCustodySigner, accounts.CustodySigner)
	}
	if !accounts.Custody.Equals(b.CustodyAddress(accounts.Mint)) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCustody, accounts.Custody)
	}
	if _, err := b.WrappedMeta(accounts.Mint); err == nil {
		return 0, fmt.Errorf("%w: %s", ErrWrappedAsNative, accounts.Mint)
	}
	mint, err := b.ledger.Mint(accounts.Mint)
	if err != nil {
		return 0, err
	}
	if err := CheckDecimals(mint.Decimals); err != nil {
		return 0, err
	}
	amount := TruncateAmount(args.Amount, mint.Decimals)
	if amount == 0 {
		return 0, ErrZeroAmount
	}

	if !b.ledger.Allocated(accounts.Custody) {
		err := b.ledger.InitializeTokenAccount(accounts.Payer, accounts.Custody, accounts.Mint, accounts.CustodySigner)
		if err != nil {
			return 0, err
		}
	}
	if err := b.ledger.Transfer(accounts.From, accounts.Custody, accounts.AuthoritySigner, amount); err != nil {
		return 0, err
	}

	transfer := &TransferWithPayload{
		TokenAddress: relay.ExternalAddressFromPublicKey(accounts.Mint),
		TokenChain:   b.ChainID(),
		To:           args.TargetAddress,
		ToChain:      args.TargetChain,
		FromAddress:  relay.ExternalAddressFromPublicKey(args.SenderProgram),
		Payload:      args.Payload,
	}
	transfer.Amount.SetUint64(NormalizeAmount(amount, mint.Decimals))
	return b.postTransfer(&accounts, &args, transfer)
}

// TransferWrappedWithPayload burns a wrapped token and posts a transfer
// message returning it to its origin chain.
func (b *Bridge) TransferWrappedWithPayload(accounts TransferAccounts, args TransferArgs) (uint64, error) {
	if err := b.checkTransfer(&accounts, &args); err != nil {
		return 0, err
	}
	if !accounts.WrappedMeta.Equals(b.WrappedMetaAddress(accounts.Mint)) {
		return 0, fmt.Errorf("%w: meta %s", ErrNotWrapped, accounts.WrappedMeta)
	}
	meta, err := b.WrappedMeta(accounts.Mint)
	if err != nil {
		return 0, err
	}
	if args.Amount == 0 {
		return 0, ErrZeroAmount
	}
	if err := b.ledger.Burn(accounts.From, accounts.Mint, accounts.AuthoritySigner, args.Amount); err != nil {
		return 0, err
	}

	transfer := &TransferWithPayload{
		Amount:       *uint256.NewInt(args.Amount),
		TokenAddress: meta.TokenAddress,
		TokenChain:   relay.ChainID(meta.Chain),
		To:           args.TargetAddress,
		ToChain:      args.TargetChain,
		FromAddress:  relay.ExternalAddressFromPublicKey(args.SenderProgram),
		Payload:      args.Payload,
	}
	return b.postTransfer(&accounts, &args, transfer)
}
