package localnet

import (
	"context"
	"errors"
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/hellotoken"
	"github.com/cordialsys/tokenrelay/pkg/hex"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Scenario is a round trip: send native tokens to the hello token contract on
// a foreign chain, then redeem a transfer coming back from it.
type Scenario struct {
	ForeignChain relay.ChainID
	// ForeignContract is the hello token contract on ForeignChain.
	ForeignContract relay.ExternalAddress
	// ForeignTokenBridge is the token bridge emitter on ForeignChain.
	ForeignTokenBridge relay.ExternalAddress
	Decimals           uint8
	Amount             uint64
	// Recipient receives the outbound transfer on ForeignChain.
	Recipient relay.ExternalAddress
	// Relayed has a third party redeem the inbound transfer and collect the fee.
	Relayed             bool
	RelayerFee          uint32
	RelayerFeePrecision uint32
}

func DefaultScenario() Scenario {
	return Scenario{
		ForeignChain:        relay.ChainEthereum,
		ForeignContract:     relay.ExternalAddress{12: 0xa0, 31: 0x01},
		ForeignTokenBridge:  relay.ExternalAddress{12: 0x3e, 31: 0xe1},
		Decimals:            6,
		Amount:              1000,
		Recipient:           relay.ExternalAddress{12: 0xbe, 31: 0xef},
		RelayerFee:          1,
		RelayerFeePrecision: 100,
	}
}

type ScenarioResult struct {
	Owner          solana.PublicKey      `json:"owner" yaml:"owner" toml:"owner"`
	Mint           solana.PublicKey      `json:"mint" yaml:"mint" toml:"mint"`
	Sender         solana.PublicKey      `json:"sender" yaml:"sender" toml:"sender"`
	Message        solana.PublicKey      `json:"message" yaml:"message" toml:"message"`
	Sequence       uint64                `json:"sequence" yaml:"sequence" toml:"sequence"`
	SentAmount     uint64                `json:"sent_amount" yaml:"sent_amount" toml:"sent_amount"`
	EscrowBalance  uint64                `json:"escrow_balance" yaml:"escrow_balance" toml:"escrow_balance"`
	Payload        hex.Hex               `json:"payload" yaml:"payload" toml:"payload"`
	VAAHash        hex.Hex               `json:"vaa_hash" yaml:"vaa_hash" toml:"vaa_hash"`
	Redeemer       solana.PublicKey      `json:"redeemer" yaml:"redeemer" toml:"redeemer"`
	Redemption     hellotoken.Redemption `json:"redemption" yaml:"redemption" toml:"redemption"`
	ReplayRejected bool                  `json:"replay_rejected" yaml:"replay_rejected" toml:"replay_rejected"`
}

// Run executes the scenario on n.
func (sc Scenario) Run(ctx context.Context, n *Network) (*ScenarioResult, error) {
	owner := n.NewWallet(10 * LamportsPerSol)
	sender := n.NewWallet(10 * LamportsPerSol)
	local := n.NewWallet(10 * LamportsPerSol)

	if err := n.Initialize(ctx, owner, sc.RelayerFee, sc.RelayerFeePrecision); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if err := n.RegisterTokenBridge(sc.ForeignChain, sc.ForeignTokenBridge); err != nil {
		return nil, fmt.Errorf("register token bridge: %w", err)
	}
	if err := n.RegisterForeignContract(ctx, owner, sc.ForeignChain, sc.ForeignContract, sc.ForeignTokenBridge); err != nil {
		return nil, fmt.Errorf("register foreign contract: %w", err)
	}

	mint, err := n.CreateMint(sc.Decimals)
	if err != nil {
		return nil, err
	}
	if _, err := n.Fund(sender, mint, sc.Amount); err != nil {
		return nil, err
	}
	message, err := n.Send(ctx, SendArgs{
		Payer:     sender,
		Mint:      mint,
		Amount:    sc.Amount,
		Chain:     sc.ForeignChain,
		Recipient: sc.Recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	if err != nil {
		return nil, err
	}
	sent, _ := tokenbridge.DenormalizeAmount(transfer.Amount.Uint64(), sc.Decimals)
	result := &ScenarioResult{
		Owner:         owner,
		Mint:          mint,
		Sender:        sender,
		Message:       n.HelloToken.MessageAddress(message.Sequence).Address,
		Sequence:      message.Sequence,
		SentAmount:    sent,
		EscrowBalance: n.Ledger.TokenBalance(n.HelloToken.TmpTokenAddress(mint).Address),
		Payload:       hex.Hex(message.Payload),
		Redeemer:      n.HelloToken.RedeemerConfigAddress().Address,
	}

	// The foreign contract sends the tokens back to a local wallet.
	hash, err := n.PostInboundTransfer(InboundTransfer{
		EmitterChain:   sc.ForeignChain,
		EmitterAddress: sc.ForeignTokenBridge,
		Sequence:       0,
		Amount:         transfer.Amount.Uint64(),
		TokenAddress:   relay.ExternalAddressFromPublicKey(mint),
		TokenChain:     n.Config.ChainID,
		FromAddress:    sc.ForeignContract,
		Recipient:      relay.ExternalAddressFromPublicKey(local),
	})
	if err != nil {
		return nil, fmt.Errorf("post inbound transfer: %w", err)
	}
	result.VAAHash = hex.Hex(hash[:])

	payer := local
	if sc.Relayed {
		payer = n.NewWallet(10 * LamportsPerSol)
	}
	redemption, err := n.Redeem(ctx, payer, hash)
	if err != nil {
		return nil, fmt.Errorf("redeem: %w", err)
	}
	result.Redemption = *redemption

	_, err = n.Redeem(ctx, payer, hash)
	result.ReplayRejected = errors.Is(err, hellotoken.AlreadyRedeemed)
	if !result.ReplayRejected {
		return nil, fmt.Errorf("replayed redemption was not rejected: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"sequence": result.Sequence,
		"vaa_hash": result.VAAHash,
		"amount":   redemption.Amount,
		"relayer":  redemption.RelayerAmount,
	}).Info("scenario complete")
	return result, nil
}
