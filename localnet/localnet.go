// Package localnet deploys the wormhole, token bridge and hello token programs
// on an in-memory ledger and offers the client-side helpers needed to drive
// them: funding wallets, creating mints, posting inbound VAAs.
package localnet

import (
	"context"
	"fmt"
	"time"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/hellotoken"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/cordialsys/tokenrelay/wormhole"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

const LamportsPerSol = 1_000_000_000

var (
	WormholeProgramID    = solana.MustPublicKeyFromBase58("worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth")
	TokenBridgeProgramID = solana.MustPublicKeyFromBase58("wormDTUJ6AWPNvk59vGQbDvGJmqbDTdgWgAqcLBCgUb")
	HelloTokenProgramID  = solana.MustPublicKeyFromBase58("CgKvYvDgy9qfFeqxz9nC3xjs8wyVcXvbJ86jdWEmCGPf")
)

type Config struct {
	ChainID              relay.ChainID
	WormholeProgramID    solana.PublicKey
	TokenBridgeProgramID solana.PublicKey
	HelloTokenProgramID  solana.PublicKey
	// WormholeFee is charged in lamports for every posted message.
	WormholeFee uint64
	Rent        ledger.Rent
	Clock       func() time.Time
}

func DefaultConfig() Config {
	return Config{
		ChainID:              relay.ChainSolana,
		WormholeProgramID:    WormholeProgramID,
		TokenBridgeProgramID: TokenBridgeProgramID,
		HelloTokenProgramID:  HelloTokenProgramID,
		Rent:                 ledger.DefaultRent,
		Clock:                time.Now,
	}
}

type Network struct {
	Config      Config
	Ledger      *ledger.Ledger
	Wormhole    *wormhole.Bridge
	TokenBridge *tokenbridge.Bridge
	HelloToken  *hellotoken.Program
	// Deployer pays for the program infrastructure and is the authority of
	// mints created with CreateMint.
	Deployer solana.PublicKey
}

// New deploys and initializes the wormhole and token bridge programs. The hello
// token program is deployed but not initialized.
func New(cfg Config, options ...hellotoken.Option) (*Network, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	l := ledger.New(ledger.WithRent(cfg.Rent))
	wh := wormhole.New(l, cfg.WormholeProgramID, cfg.ChainID, wormhole.WithClock(cfg.Clock))
	tb := tokenbridge.New(l, cfg.TokenBridgeProgramID, wh)
	n := &Network{
		Config:      cfg,
		Ledger:      l,
		Wormhole:    wh,
		TokenBridge: tb,
		HelloToken:  hellotoken.New(l, cfg.HelloTokenProgramID, tb, options...),
		Deployer:    solana.NewWallet().PublicKey(),
	}
	l.Airdrop(n.Deployer, 1000*LamportsPerSol)
	err := l.Atomic(func() error {
		if err := wh.Initialize(n.Deployer, cfg.WormholeFee); err != nil {
			return fmt.Errorf("initialize wormhole: %w", err)
		}
		if err := tb.Initialize(n.Deployer); err != nil {
			return fmt.Errorf("initialize token bridge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"chain":        cfg.ChainID,
		"wormhole":     cfg.WormholeProgramID,
		"token_bridge": cfg.TokenBridgeProgramID,
		"hello_token":  cfg.HelloTokenProgramID,
	}).Info("deployed local network")
	return n, nil
}

// NewWallet returns a fresh system account holding lamports.
func (n *Network) NewWallet(lamports uint64) solana.PublicKey {
	wallet := solana.NewWallet().PublicKey()
	if lamports > 0 {
		n.Ledger.Airdrop(wallet, lamports)
	}
	return wallet
}

func (n *Network) CreateMint(decimals uint8) (solana.PublicKey, error) {
	mint := solana.NewWallet().PublicKey()
	err := n.Ledger.Atomic(func() error {
		return n.Ledger.CreateMint(n.Deployer, mint, n.Deployer, decimals)
	})
	return mint, err
}

// Fund mints amount of a mint created with CreateMint into owner's associated
// token account and returns the account.
func (n *Network) Fund(owner, mint solana.PublicKey, amount uint64) (solana.PublicKey, error) {
	var ata solana.PublicKey
	err := n.Ledger.Atomic(func() error {
		var err error
		ata, err = n.Ledger.CreateAssociatedTokenAccount(n.Deployer, owner, mint)
		if err != nil {
			return err
		}
		return n.Ledger.MintTo(mint, ata, n.Deployer, amount)
	})
	return ata, err
}

// Balance returns the balance of owner's associated token account for mint.
func (n *Network) Balance(owner, mint solana.PublicKey) uint64 {
	ata, err := ledger.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0
	}
	return n.Ledger.TokenBalance(ata)
}

// RegisterTokenBridge trusts emitter as the token bridge of a foreign chain,
// the way a governance VAA would.
func (n *Network) RegisterTokenBridge(chain relay.ChainID, emitter relay.ExternalAddress) error {
	return n.Ledger.Atomic(func() error {
		return n.TokenBridge.RegisterChain(n.Deployer, chain, emitter)
	})
}

func (n *Network) CreateWrapped(chain relay.ChainID, token relay.ExternalAddress, decimals uint8) (solana.PublicKey, error) {
	var mint solana.PublicKey
	err := n.Ledger.Atomic(func() error {
		var err error
		mint, err = n.TokenBridge.CreateWrapped(n.Deployer, chain, token, decimals)
		return err
	})
	return mint, err
}

func (n *Network) Initialize(ctx context.Context, owner solana.PublicKey, relayerFee, relayerFeePrecision uint32) error {
	return n.HelloToken.Initialize(ctx, n.HelloToken.InitializeAccounts(owner), relayerFee, relayerFeePrecision)
}

// RegisterForeignContract registers contract on chain with the hello token
// program. The chain's token bridge must already be registered.
func (n *Network) RegisterForeignContract(ctx context.Context, owner solana.PublicKey, chain relay.ChainID, contract, tokenBridgeEmitter relay.ExternalAddress) error {
	accounts := n.HelloToken.RegisterForeignContractAccounts(owner, chain, tokenBridgeEmitter)
	return n.HelloToken.RegisterForeignContract(ctx, accounts, chain, contract)
}

type SendArgs struct {
	Payer     solana.PublicKey
	Mint      solana.PublicKey
	Amount    uint64
	Chain     relay.ChainID
	Recipient relay.ExternalAddress
	BatchID   uint32
	Wrapped   bool
}

// Send sends tokens through the hello token program and returns the posted
// message.
func (n *Network) Send(ctx context.Context, args SendArgs) (*wormhole.MessageData, error) {
	accounts, err := n.HelloToken.SendAccounts(args.Payer, args.Mint, args.Chain)
	if err != nil {
		return nil, err
	}
	sendArgs := hellotoken.SendTokensArgs{
		BatchID:          args.BatchID,
		Amount:           args.Amount,
		RecipientAddress: args.Recipient,
		RecipientChain:   args.Chain,
	}
	if args.Wrapped {
		_, err = n.HelloToken.SendWrappedTokensWithPayload(ctx, accounts, sendArgs)
	} else {
		_, err = n.HelloToken.SendNativeTokensWithPayload(ctx, accounts, sendArgs)
	}
	if err != nil {
		return nil, err
	}
	return n.Wormhole.Message(accounts.WormholeMessage)
}

// InboundTransfer is a transfer from a foreign hello token contract, as its
// token bridge would have emitted it.
type InboundTransfer struct {
	EmitterChain   relay.ChainID
	EmitterAddress relay.ExternalAddress
	Sequence       uint64
	// Amount is in wire (8 decimal) units.
	Amount       uint64
	TokenAddress relay.ExternalAddress
	TokenChain   relay.ChainID
	// To defaults to the hello token redeemer config.
	To relay.ExternalAddress
	// ToChain defaults to the local chain.
	ToChain     relay.ChainID
	FromAddress relay.ExternalAddress
	Recipient   relay.ExternalAddress
}

// PostInboundTransfer posts the transfer as a verified VAA and returns its hash.
func (n *Network) PostInboundTransfer(in InboundTransfer) ([32]byte, error) {
	to := in.To
	if to.IsZero() {
		to = relay.ExternalAddressFromPublicKey(n.HelloToken.RedeemerConfigAddress().Address)
	}
	toChain := in.ToChain
	if toChain == relay.ChainUnset {
		toChain = n.Config.ChainID
	}
	hello := &hellotoken.HelloTokenMessage{Recipient: in.Recipient}
	transfer := &tokenbridge.TransferWithPayload{
		Amount:       *uint256.NewInt(in.Amount),
		TokenAddress: in.TokenAddress,
		TokenChain:   in.TokenChain,
		To:           to,
		ToChain:      toChain,
		FromAddress:  in.FromAddress,
		Payload:      hello.Encode(),
	}
	body := &wormhole.Body{
		Timestamp:        uint32(n.Config.Clock().Unix()),
		EmitterChain:     in.EmitterChain,
		EmitterAddress:   in.EmitterAddress,
		Sequence:         in.Sequence,
		ConsistencyLevel: tokenbridge.ConsistencyFinalized,
		Payload:          transfer.Encode(),
	}
	err := n.Ledger.Atomic(func() error {
		_, err := n.Wormhole.PostVAA(n.Deployer, body)
		return err
	})
	return body.Hash(), err
}

// Redeem redeems the posted VAA with the given hash, picking the native or
// wrapped path from the token's origin chain.
func (n *Network) Redeem(ctx context.Context, payer solana.PublicKey, vaaHash [32]byte) (*hellotoken.Redemption, error) {
	message, err := n.Wormhole.PostedVAA(vaaHash)
	if err != nil {
		return nil, err
	}
	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	if err != nil {
		return nil, err
	}
	if transfer.TokenChain == n.Config.ChainID {
		accounts, err := n.HelloToken.RedeemNativeAccounts(payer, vaaHash)
		if err != nil {
			return nil, err
		}
		return n.HelloToken.RedeemNativeTransferWithPayload(ctx, accounts, vaaHash)
	}
	accounts, err := n.HelloToken.RedeemWrappedAccounts(payer, vaaHash)
	if err != nil {
		return nil, err
	}
	return n.HelloToken.RedeemWrappedTransferWithPayload(ctx, accounts, vaaHash)
}
