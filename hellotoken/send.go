package hellotoken

import (
	"context"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/sirupsen/logrus"
)

// SendNativeTokensWithPayload sends args.Amount of a native mint to the
// contract registered for args.RecipientChain, naming args.RecipientAddress
// as the final recipient. The amount is truncated to what the token bridge can
// carry. Returns the sequence of the posted message.
func (p *Program) SendNativeTokensWithPayload(ctx context.Context, accounts SendTokensAccounts, args SendTokensArgs) (uint64, error) {
	return p.send(ctx, "send_native_tokens_with_payload", accounts, args, false)
}

// SendWrappedTokensWithPayload is SendNativeTokensWithPayload for wrapped
// mints; the token bridge burns them instead of taking custody.
func (p *Program) SendWrappedTokensWithPayload(ctx context.Context, accounts SendTokensAccounts, args SendTokensArgs) (uint64, error) {
	return p.send(ctx, "send_wrapped_tokens_with_payload", accounts, args, true)
}

func (p *Program) send(ctx context.Context, instruction string, accounts SendTokensAccounts, args SendTokensArgs, wrapped bool) (uint64, error) {
	var sequence uint64
	fields := logrus.Fields{
		"payer":           accounts.Payer,
		"mint":            accounts.Mint,
		"amount":          args.Amount,
		"recipient_chain": args.RecipientChain,
		"recipient":       args.RecipientAddress,
	}
	err := p.execute(ctx, instruction, fields, func() error {
		var err error
		sequence, err = p.sendTokens(&accounts, &args, wrapped)
		return err
	})
	return sequence, err
}

func (p *Program) checkSendAccounts(accounts *SendTokensAccounts, config *SenderConfig, wrapped bool) error {
	if err := p.checkProgram(accounts.WormholeProgram, p.wormhole.ProgramID, "wormhole"); err != nil {
		return err
	}
	if err := p.checkProgram(accounts.TokenBridgeProgram, p.tokenBridge.ProgramID, "token bridge"); err != nil {
		return err
	}
	if err := p.checkSystemPrograms(accounts.SystemProgram, accounts.TokenProgram, accounts.AssociatedTokenProgram); err != nil {
		return err
	}
	if err := checkSysvars(&accounts.Clock, &accounts.Rent); err != nil {
		return err
	}

	trusted := config.TokenBridge
	checks := []addressCheck{
		{accounts.TokenBridgeConfig, trusted.Config, InvalidTokenBridgeConfig},
		{accounts.TokenBridgeAuthoritySigner, trusted.AuthoritySigner, InvalidTokenBridgeAuthoritySigner},
		{accounts.WormholeBridge, trusted.WormholeBridge, InvalidWormholeBridge},
		{accounts.TokenBridgeEmitter, trusted.Emitter, InvalidTokenBridgeEmitter},
		{accounts.TokenBridgeSequence, trusted.Sequence, InvalidTokenBridgeSequence},
		{accounts.WormholeFeeCollector, trusted.WormholeFeeCollector, InvalidWormholeFeeCollector},
	}
	if !wrapped {
		checks = append(checks, addressCheck{accounts.TokenBridgeCustodySigner, trusted.CustodySigner, InvalidTokenBridgeCustodySigner})
	}
	if err := checkAll(checks...); err != nil {
		return err
	}

	if wrapped {
		return p.checkDerived(accounts.TokenBridgeWrappedMeta, p.tokenBridge.WrappedMetaAddress(accounts.Mint), "token bridge wrapped meta")
	}
	return p.checkDerived(accounts.TokenBridgeCustody, p.tokenBridge.CustodyAddress(accounts.Mint), "token bridge custody")
}

func (p *Program) sendTokens(accounts *SendTokensAccounts, args *SendTokensArgs, wrapped bool) (uint64, error) {
	if args.Amount == 0 {
		return 0, Errorf(ZeroBridgeAmount, "amount is zero")
	}
	sender := p.SenderConfigAddress().Address
	if err := p.checkDerived(accounts.Config, sender, "sender config"); err != nil {
		return 0, err
	}
	config, err := p.SenderConfig()
	if err != nil {
		return 0, err
	}

	if args.RecipientChain == relay.ChainUnset || args.RecipientChain == p.ChainID() {
		return 0, Errorf(InvalidForeignContract, "cannot send to chain %s", args.RecipientChain)
	}
	if err := p.checkDerived(accounts.ForeignContract, p.ForeignContractAddress(args.RecipientChain).Address, "foreign contract"); err != nil {
		return 0, err
	}
	contract, err := p.foreignContractAt(accounts.ForeignContract)
	if err != nil {
		return 0, err
	}
	if args.RecipientAddress.IsZero() {
		return 0, Errorf(InvalidRecipient, "recipient address is zero")
	}

	if err := p.checkSendAccounts(accounts, config, wrapped); err != nil {
		return 0, err
	}

	mint, err := p.ledger.Mint(accounts.Mint)
	if err != nil {
		return 0, Wrap(InvalidMint, err, "mint %s", accounts.Mint)
	}
	_, metaErr := p.tokenBridge.WrappedMeta(accounts.Mint)
	if wrapped && metaErr != nil {
		return 0, Wrap(InvalidMint, metaErr, "mint %s is not wrapped", accounts.Mint)
	}
	if !wrapped && metaErr == nil {
		return 0, Errorf(InvalidMint, "mint %s is wrapped", accounts.Mint)
	}
	from, err := ledger.AssociatedTokenAddress(accounts.Payer, accounts.Mint)
	if err != nil {
		return 0, err
	}
	if !accounts.FromTokenAccount.Equals(from) {
		return 0, Errorf(InvalidTokenAccount, "%s is not the associated token account of the payer", accounts.FromTokenAccount)
	}
	tmp := p.TmpTokenAddress(accounts.Mint).Address
	if err := p.checkDerived(accounts.TmpTokenAccount, tmp, "tmp token account"); err != nil {
		return 0, err
	}
	next, err := p.wormhole.NextSequence(config.TokenBridge.Emitter)
	if err != nil {
		return 0, err
	}
	if err := p.checkDerived(accounts.WormholeMessage, p.MessageAddress(next).Address, "wormhole message"); err != nil {
		return 0, err
	}

	if err := tokenbridge.CheckDecimals(mint.Decimals); err != nil {
		return 0, Wrap(InvalidMint, err, "mint %s", accounts.Mint)
	}
	amount := tokenbridge.TruncateAmount(args.Amount, mint.Decimals)
	if amount == 0 {
		return 0, Errorf(ZeroBridgeAmount, "%d truncates to zero at %d decimals", args.Amount, mint.Decimals)
	}

	fee, err := p.wormhole.Fee()
	if err != nil {
		return 0, err
	}
	if fee > 0 {
		if err := p.ledger.TransferLamports(accounts.Payer, accounts.WormholeFeeCollector, fee); err != nil {
			return 0, err
		}
	}

	if err := p.ledger.InitializeTokenAccount(accounts.Payer, tmp, accounts.Mint, sender); err != nil {
		return 0, err
	}
	if err := p.ledger.Transfer(accounts.FromTokenAccount, tmp, accounts.Payer, amount); err != nil {
		return 0, err
	}
	if err := p.ledger.Approve(tmp, sender, accounts.TokenBridgeAuthoritySigner, amount); err != nil {
		return 0, err
	}

	message := &HelloTokenMessage{Recipient: args.RecipientAddress}
	bridgeAccounts := tokenbridge.TransferAccounts{
		Payer:           accounts.Payer,
		Config:          accounts.TokenBridgeConfig,
		From:            tmp,
		Mint:            accounts.Mint,
		Custody:         accounts.TokenBridgeCustody,
		CustodySigner:   accounts.TokenBridgeCustodySigner,
		WrappedMeta:     accounts.TokenBridgeWrappedMeta,
		AuthoritySigner: accounts.TokenBridgeAuthoritySigner,
		WormholeBridge:  accounts.WormholeBridge,
		Message:         accounts.WormholeMessage,
		Emitter:         accounts.TokenBridgeEmitter,
		Sequence:        accounts.TokenBridgeSequence,
		FeeCollector:    accounts.WormholeFeeCollector,
		Sender:          sender,
	}
	bridgeArgs := tokenbridge.TransferArgs{
		Nonce:         args.BatchID,
		Amount:        amount,
		TargetAddress: contract.Address,
		TargetChain:   args.RecipientChain,
		Payload:       message.Encode(),
		SenderProgram: p.ID,
	}
	var sequence uint64
	if wrapped {
		sequence, err = p.tokenBridge.TransferWrappedWithPayload(bridgeAccounts, bridgeArgs)
	} else {
		sequence, err = p.tokenBridge.TransferNativeWithPayload(bridgeAccounts, bridgeArgs)
	}
	if err != nil {
		return 0, err
	}

	if err := p.ledger.CloseAccount(tmp, accounts.Payer, sender); err != nil {
		return 0, err
	}
	return sequence, nil
}
