package hellotoken

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Initialize creates the sender and redeemer configs, making accounts.Owner
// the program owner. The token bridge capability addresses are checked against
// the live token bridge and trusted from then on.
func (p *Program) Initialize(ctx context.Context, accounts InitializeAccounts, relayerFee, relayerFeePrecision uint32) error {
	fields := logrus.Fields{"owner": accounts.Owner}
	return p.execute(ctx, "initialize", fields, func() error {
		if err := p.checkProgram(accounts.WormholeProgram, p.wormhole.ProgramID, "wormhole"); err != nil {
			return err
		}
		if err := p.checkProgram(accounts.TokenBridgeProgram, p.tokenBridge.ProgramID, "token bridge"); err != nil {
			return err
		}
		if err := p.checkProgram(accounts.SystemProgram, solana.SystemProgramID, "system"); err != nil {
			return err
		}
		if err := checkRelayerFee(relayerFee, relayerFeePrecision); err != nil {
			return err
		}

		sender := p.SenderConfigAddress()
		redeemer := p.RedeemerConfigAddress()
		if err := p.checkDerived(accounts.SenderConfig, sender.Address, "sender config"); err != nil {
			return err
		}
		if err := p.checkDerived(accounts.RedeemerConfig, redeemer.Address, "redeemer config"); err != nil {
			return err
		}
		if p.ledger.Allocated(sender.Address) || p.ledger.Allocated(redeemer.Address) {
			return Errorf(AlreadyInitialized, "program %s", p.ID)
		}

		addresses, err := p.liveCapabilities(&accounts)
		if err != nil {
			return err
		}

		senderConfig := &SenderConfig{
			Owner:       accounts.Owner,
			Bump:        sender.Bump,
			TokenBridge: addresses,
		}
		redeemerConfig := &RedeemerConfig{
			Owner:               accounts.Owner,
			Bump:                redeemer.Bump,
			RelayerFee:          relayerFee,
			RelayerFeePrecision: relayerFeePrecision,
			TokenBridge:         addresses,
		}
		if err := p.createRecord(accounts.Owner, sender.Address, senderConfigDiscriminator, senderConfig); err != nil {
			return err
		}
		return p.createRecord(accounts.Owner, redeemer.Address, redeemerConfigDiscriminator, redeemerConfig)
	})
}

// liveCapabilities compares the supplied capability accounts with the ones the
// token bridge currently advertises.
func (p *Program) liveCapabilities(accounts *InitializeAccounts) (TokenBridgeAddresses, error) {
	if _, err := p.tokenBridge.Config(); err != nil {
		return TokenBridgeAddresses{}, Wrap(InvalidTokenBridgeConfig, err, "token bridge config")
	}
	if _, err := p.wormhole.Data(); err != nil {
		return TokenBridgeAddresses{}, Wrap(InvalidWormholeBridge, err, "wormhole bridge")
	}
	live := addressesFromCapabilities(p.tokenBridge.Capabilities())
	err := checkAll(
		addressCheck{accounts.TokenBridgeConfig, live.Config, InvalidTokenBridgeConfig},
		addressCheck{accounts.TokenBridgeAuthoritySigner, live.AuthoritySigner, InvalidTokenBridgeAuthoritySigner},
		addressCheck{accounts.TokenBridgeCustodySigner, live.CustodySigner, InvalidTokenBridgeCustodySigner},
		addressCheck{accounts.TokenBridgeMintAuthority, live.MintAuthority, InvalidTokenBridgeMintAuthority},
		addressCheck{accounts.WormholeBridge, live.WormholeBridge, InvalidWormholeBridge},
		addressCheck{accounts.TokenBridgeEmitter, live.Emitter, InvalidTokenBridgeEmitter},
		addressCheck{accounts.WormholeFeeCollector, live.WormholeFeeCollector, InvalidWormholeFeeCollector},
		addressCheck{accounts.TokenBridgeSequence, live.Sequence, InvalidTokenBridgeSequence},
	)
	if err != nil {
		return TokenBridgeAddresses{}, err
	}
	return live, nil
}

func (p *Program) createRecord(payer, address solana.PublicKey, disc []byte, v interface{}) error {
	data, err := encodeRecord(disc, v)
	if err != nil {
		return err
	}
	return p.ledger.CreateAccount(payer, address, p.ID, data)
}

func (p *Program) writeRecord(address solana.PublicKey, disc []byte, v interface{}) error {
	data, err := encodeRecord(disc, v)
	if err != nil {
		return err
	}
	return p.ledger.WriteData(address, p.ID, data)
}
