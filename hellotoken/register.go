package hellotoken

import (
	"context"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// RegisterForeignContract trusts address as this program's counterpart on
// chain. Registering a chain again replaces the previous contract.
func (p *Program) RegisterForeignContract(ctx context.Context, accounts RegisterForeignContractAccounts, chain relay.ChainID, address relay.ExternalAddress) error {
	fields := logrus.Fields{"chain": chain, "contract": address}
	return p.execute(ctx, "register_foreign_contract", fields, func() error {
		if err := p.checkProgram(accounts.TokenBridgeProgram, p.tokenBridge.ProgramID, "token bridge"); err != nil {
			return err
		}
		if err := p.checkProgram(accounts.SystemProgram, solana.SystemProgramID, "system"); err != nil {
			return err
		}
		if err := p.checkDerived(accounts.Config, p.SenderConfigAddress().Address, "sender config"); err != nil {
			return err
		}
		config, err := p.SenderConfig()
		if err != nil {
			return err
		}
		if !config.Owner.Equals(accounts.Owner) {
			return Errorf(OwnerOnly, "%s is not the owner", accounts.Owner)
		}

		if chain == relay.ChainUnset || chain == p.ChainID() {
			return Errorf(InvalidForeignContract, "cannot register chain %s", chain)
		}
		if address.IsZero() {
			return Errorf(InvalidForeignContract, "contract address is zero")
		}
		foreign := p.ForeignContractAddress(chain)
		if err := p.checkDerived(accounts.ForeignContract, foreign.Address, "foreign contract"); err != nil {
			return err
		}

		endpoint, err := p.tokenBridge.EndpointAt(accounts.TokenBridgeForeignEndpoint)
		if err != nil {
			return Wrap(InvalidTokenBridgeForeignEndpoint, err, "chain %s", chain)
		}
		canonical := p.tokenBridge.EndpointAddress(chain, endpoint.EmitterAddress)
		if relay.ChainID(endpoint.EmitterChain) != chain || !canonical.Equals(accounts.TokenBridgeForeignEndpoint) {
			return Errorf(InvalidTokenBridgeForeignEndpoint, "%s is not the endpoint of chain %s", accounts.TokenBridgeForeignEndpoint, chain)
		}

		contract := &ForeignContract{
			Chain:                      uint16(chain),
			Address:                    address,
			TokenBridgeForeignEndpoint: accounts.TokenBridgeForeignEndpoint,
		}
		if p.ledger.Allocated(foreign.Address) {
			return p.writeRecord(foreign.Address, foreignContractDiscriminator, contract)
		}
		return p.createRecord(accounts.Owner, foreign.Address, foreignContractDiscriminator, contract)
	})
}

// UpdateRelayerFee changes the share of redeemed amounts paid to relayers.
func (p *Program) UpdateRelayerFee(ctx context.Context, accounts UpdateRelayerFeeAccounts, relayerFee, relayerFeePrecision uint32) error {
	fields := logrus.Fields{"relayer_fee": relayerFee, "relayer_fee_precision": relayerFeePrecision}
	return p.execute(ctx, "update_relayer_fee", fields, func() error {
		address := p.RedeemerConfigAddress().Address
		if err := p.checkDerived(accounts.Config, address, "redeemer config"); err != nil {
			return err
		}
		config, err := p.RedeemerConfig()
		if err != nil {
			return err
		}
		if !config.Owner.Equals(accounts.Owner) {
			return Errorf(OwnerOnly, "%s is not the owner", accounts.Owner)
		}
		if err := checkRelayerFee(relayerFee, relayerFeePrecision); err != nil {
			return err
		}
		config.RelayerFee = relayerFee
		config.RelayerFeePrecision = relayerFeePrecision
		return p.writeRecord(address, redeemerConfigDiscriminator, config)
	})
}
