package hellotoken

import (
	"context"
	"errors"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Redemption describes a completed redemption.
type Redemption struct {
	EmitterChain relay.ChainID    `json:"emitter_chain" yaml:"emitter_chain" toml:"emitter_chain"`
	Sequence     uint64           `json:"sequence" yaml:"sequence" toml:"sequence"`
	Mint         solana.PublicKey `json:"mint" yaml:"mint" toml:"mint"`
	Recipient    solana.PublicKey `json:"recipient" yaml:"recipient" toml:"recipient"`
	// Amount is the total redeemed, including RelayerAmount.
	Amount        uint64 `json:"amount" yaml:"amount" toml:"amount"`
	RelayerAmount uint64 `json:"relayer_amount" yaml:"relayer_amount" toml:"relayer_amount"`
}

// RedeemNativeTransferWithPayload redeems the transfer of a native token in the
// posted VAA with the given hash, paying the recipient named in its payload.
// When the payer is not the recipient, the payer is paid the relayer fee.
func (p *Program) RedeemNativeTransferWithPayload(ctx context.Context, accounts RedeemAccounts, vaaHash [32]byte) (*Redemption, error) {
	return p.redeem(ctx, "redeem_native_transfer_with_payload", accounts, vaaHash, false)
}

// RedeemWrappedTransferWithPayload is RedeemNativeTransferWithPayload for
// tokens originating on another chain, which the token bridge mints.
func (p *Program) RedeemWrappedTransferWithPayload(ctx context.Context, accounts RedeemAccounts, vaaHash [32]byte) (*Redemption, error) {
	return p.redeem(ctx, "redeem_wrapped_transfer_with_payload", accounts, vaaHash, true)
}

func (p *Program) redeem(ctx context.Context, instruction string, accounts RedeemAccounts, vaaHash [32]byte, wrapped bool) (*Redemption, error) {
	var redemption *Redemption
	fields := logrus.Fields{
		"payer":    accounts.Payer,
		"vaa":      accounts.VAA,
		"vaa_hash": solana.HashFromBytes(vaaHash[:]),
	}
	err := p.execute(ctx, instruction, fields, func() error {
		var err error
		redemption, err = p.redeemTransfer(&accounts, vaaHash, wrapped)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.metrics.relayerFee(redemption)
	return redemption, nil
}

func (p *Program) checkRedeemAccounts(accounts *RedeemAccounts, config *RedeemerConfig, wrapped bool) error {
	if err := p.checkProgram(accounts.WormholeProgram, p.wormhole.ProgramID, "wormhole"); err != nil {
		return err
	}
	if err := p.checkProgram(accounts.TokenBridgeProgram, p.tokenBridge.ProgramID, "token bridge"); err != nil {
		return err
	}
	if err := p.checkSystemPrograms(accounts.SystemProgram, accounts.TokenProgram, accounts.AssociatedTokenProgram); err != nil {
		return err
	}
	if err := checkSysvars(nil, &accounts.Rent); err != nil {
		return err
	}
	trusted := config.TokenBridge
	checks := []addressCheck{
		{accounts.TokenBridgeConfig, trusted.Config, InvalidTokenBridgeConfig},
	}
	if wrapped {
		checks = append(checks, addressCheck{accounts.TokenBridgeMintAuthority, trusted.MintAuthority, InvalidTokenBridgeMintAuthority})
	} else {
		checks = append(checks, addressCheck{accounts.TokenBridgeCustodySigner, trusted.CustodySigner, InvalidTokenBridgeCustodySigner})
	}
	return checkAll(checks...)
}

func (p *Program) redeemTransfer(accounts *RedeemAccounts, vaaHash [32]byte, wrapped bool) (*Redemption, error) {
	redeemer := p.RedeemerConfigAddress().Address
	if err := p.checkDerived(accounts.Config, redeemer, "redeemer config"); err != nil {
		return nil, err
	}
	config, err := p.RedeemerConfig()
	if err != nil {
		return nil, err
	}
	if err := p.checkRedeemAccounts(accounts, config, wrapped); err != nil {
		return nil, err
	}

	// The VAA must be the one the messaging layer posted for vaaHash.
	if !accounts.VAA.Equals(p.wormhole.PostedVAAAddress(vaaHash)) {
		return nil, Errorf(InvalidMessage, "%s is not the posted vaa for hash %x", accounts.VAA, vaaHash)
	}
	message, err := p.wormhole.VerifiedMessageAt(accounts.VAA)
	if err != nil {
		return nil, Wrap(InvalidMessage, err, "vaa %s", accounts.VAA)
	}
	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	if err != nil {
		return nil, Wrap(InvalidMessage, err, "vaa %s", accounts.VAA)
	}
	hello, err := ParseHelloTokenMessage(transfer.Payload)
	if err != nil {
		return nil, err
	}
	emitterChain := relay.ChainID(message.EmitterChain)

	if err := p.checkDerived(accounts.ForeignContract, p.ForeignContractAddress(emitterChain).Address, "foreign contract"); err != nil {
		return nil, err
	}
	contract, err := p.foreignContractAt(accounts.ForeignContract)
	if err != nil {
		return nil, err
	}
	if relay.ChainID(contract.Chain) != emitterChain || contract.Address != transfer.FromAddress {
		return nil, Errorf(InvalidForeignContract, "transfer from %s on %s is not from the registered contract", transfer.FromAddress, emitterChain)
	}

	if transfer.ToChain != p.ChainID() {
		return nil, Errorf(InvalidTransferToChain, "transfer is to chain %s", transfer.ToChain)
	}
	if native := transfer.TokenChain == p.ChainID(); native == wrapped {
		return nil, Errorf(InvalidTransferTokenChain, "token originates on chain %s", transfer.TokenChain)
	}
	to := transfer.To.PublicKey()
	if !to.Equals(p.ID) && !to.Equals(redeemer) {
		return nil, Errorf(InvalidTransferToAddress, "transfer is to %s", to)
	}
	if !accounts.TokenBridgeForeignEndpoint.Equals(contract.TokenBridgeForeignEndpoint) {
		return nil, Errorf(InvalidTokenBridgeForeignEndpoint, "%s does not match %s", accounts.TokenBridgeForeignEndpoint, contract.TokenBridgeForeignEndpoint)
	}

	claim := p.tokenBridge.ClaimAddress(message.EmitterAddress, emitterChain, message.Sequence)
	if err := p.checkDerived(accounts.TokenBridgeClaim, claim, "token bridge claim"); err != nil {
		return nil, err
	}
	if p.ledger.Allocated(claim) {
		return nil, Errorf(AlreadyRedeemed, "sequence %d from %s", message.Sequence, emitterChain)
	}

	expectedMint := transfer.TokenAddress.PublicKey()
	if wrapped {
		expectedMint = p.tokenBridge.WrappedMintAddress(transfer.TokenChain, transfer.TokenAddress)
	}
	if !accounts.Mint.Equals(expectedMint) {
		return nil, Errorf(InvalidMint, "%s is not the transferred mint %s", accounts.Mint, expectedMint)
	}
	payerAta, err := ledger.AssociatedTokenAddress(accounts.Payer, accounts.Mint)
	if err != nil {
		return nil, err
	}
	relayed := !accounts.Payer.Equals(accounts.Recipient)
	if relayed && !accounts.PayerTokenAccount.Equals(payerAta) {
		return nil, Errorf(InvalidPayerAta, "%s is not the associated token account of the payer", accounts.PayerTokenAccount)
	}

	recipient := hello.Recipient.PublicKey()
	if !accounts.Recipient.Equals(recipient) {
		return nil, Errorf(InvalidRecipient, "%s is not the recipient %s", accounts.Recipient, recipient)
	}
	recipientAta, err := ledger.AssociatedTokenAddress(recipient, accounts.Mint)
	if err != nil {
		return nil, err
	}
	if !accounts.RecipientTokenAccount.Equals(recipientAta) {
		return nil, Errorf(InvalidRecipient, "%s is not the associated token account of the recipient", accounts.RecipientTokenAccount)
	}
	tmp := p.TmpTokenAddress(accounts.Mint).Address
	if err := p.checkDerived(accounts.TmpTokenAccount, tmp, "tmp token account"); err != nil {
		return nil, err
	}

	if err := p.ledger.InitializeTokenAccount(accounts.Payer, tmp, accounts.Mint, redeemer); err != nil {
		return nil, err
	}
	bridgeAccounts := tokenbridge.CompleteAccounts{
		Payer:         accounts.Payer,
		Config:        accounts.TokenBridgeConfig,
		VAA:           accounts.VAA,
		Claim:         accounts.TokenBridgeClaim,
		Endpoint:      accounts.TokenBridgeForeignEndpoint,
		To:            tmp,
		Redeemer:      redeemer,
		Mint:          accounts.Mint,
		Custody:       accounts.TokenBridgeCustody,
		CustodySigner: accounts.TokenBridgeCustodySigner,
		MintAuthority: accounts.TokenBridgeMintAuthority,
		WrappedMeta:   accounts.TokenBridgeWrappedMeta,
	}
	var completed *tokenbridge.Completed
	if wrapped {
		completed, err = p.tokenBridge.CompleteWrappedWithPayload(bridgeAccounts)
	} else {
		completed, err = p.tokenBridge.CompleteNativeWithPayload(bridgeAccounts)
	}
	if errors.Is(err, tokenbridge.ErrAlreadyClaimed) {
		return nil, Wrap(AlreadyRedeemed, err, "sequence %d from %s", message.Sequence, emitterChain)
	}
	if err != nil {
		return nil, err
	}

	redemption := &Redemption{
		EmitterChain: emitterChain,
		Sequence:     message.Sequence,
		Mint:         accounts.Mint,
		Recipient:    recipient,
		Amount:       completed.Amount,
	}
	if relayed {
		redemption.RelayerAmount = p.feePolicy.RelayerAmount(config, completed.Amount)
		if redemption.RelayerAmount > completed.Amount {
			return nil, Errorf(InvalidRelayerFee, "relayer amount %d exceeds %d", redemption.RelayerAmount, completed.Amount)
		}
		if _, err := p.ledger.CreateAssociatedTokenAccount(accounts.Payer, accounts.Payer, accounts.Mint); err != nil {
			return nil, err
		}
		if redemption.RelayerAmount > 0 {
			if err := p.ledger.Transfer(tmp, payerAta, redeemer, redemption.RelayerAmount); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.ledger.CreateAssociatedTokenAccount(accounts.Payer, recipient, accounts.Mint); err != nil {
		return nil, err
	}
	if err := p.ledger.Transfer(tmp, recipientAta, redeemer, completed.Amount-redemption.RelayerAmount); err != nil {
		return nil, err
	}
	if err := p.ledger.CloseAccount(tmp, accounts.Payer, redeemer); err != nil {
		return nil, err
	}
	return redemption, nil
}
