package hellotoken

import (
	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/gagliardetto/solana-go"
)

// The account sets below are what a client submits with each instruction. The
// builders derive the canonical set; the instructions re-derive and compare
// every address regardless of who built it.

type InitializeAccounts struct {
	Owner                      solana.PublicKey
	SenderConfig               solana.PublicKey
	RedeemerConfig             solana.PublicKey
	WormholeProgram            solana.PublicKey
	TokenBridgeProgram         solana.PublicKey
	TokenBridgeConfig          solana.PublicKey
	TokenBridgeAuthoritySigner solana.PublicKey
	TokenBridgeCustodySigner   solana.PublicKey
	TokenBridgeMintAuthority   solana.PublicKey
	WormholeBridge             solana.PublicKey
	TokenBridgeEmitter         solana.PublicKey
	WormholeFeeCollector       solana.PublicKey
	TokenBridgeSequence        solana.PublicKey
	SystemProgram              solana.PublicKey
}

type RegisterForeignContractAccounts struct {
	Owner                      solana.PublicKey
	Config                     solana.PublicKey
	ForeignContract            solana.PublicKey
	TokenBridgeForeignEndpoint solana.PublicKey
	TokenBridgeProgram         solana.PublicKey
	SystemProgram              solana.PublicKey
}

type UpdateRelayerFeeAccounts struct {
	Owner  solana.PublicKey
	Config solana.PublicKey
}

// SendTokensAccounts serve both native and wrapped sends. Custody and
// CustodySigner are used by native sends, WrappedMeta by wrapped ones.
type SendTokensAccounts struct {
	Payer                      solana.PublicKey
	Config                     solana.PublicKey
	ForeignContract            solana.PublicKey
	Mint                       solana.PublicKey
	FromTokenAccount           solana.PublicKey
	TmpTokenAccount            solana.PublicKey
	WormholeProgram            solana.PublicKey
	TokenBridgeProgram         solana.PublicKey
	TokenBridgeConfig          solana.PublicKey
	TokenBridgeCustody         solana.PublicKey
	TokenBridgeAuthoritySigner solana.PublicKey
	TokenBridgeCustodySigner   solana.PublicKey
	TokenBridgeWrappedMeta     solana.PublicKey
	WormholeBridge             solana.PublicKey
	WormholeMessage            solana.PublicKey
	TokenBridgeEmitter         solana.PublicKey
	TokenBridgeSequence        solana.PublicKey
	WormholeFeeCollector       solana.PublicKey
	SystemProgram              solana.PublicKey
	TokenProgram               solana.PublicKey
	AssociatedTokenProgram     solana.PublicKey
	Clock                      solana.PublicKey
	Rent                       solana.PublicKey
}

type SendTokensArgs struct {
	BatchID          uint32
	Amount           uint64
	RecipientAddress relay.ExternalAddress
	RecipientChain   relay.ChainID
}

// RedeemAccounts serve both native and wrapped redemptions. Custody and
// CustodySigner are used by native redemptions; WrappedMeta and MintAuthority
// by wrapped ones.
type RedeemAccounts struct {
	Payer                      solana.PublicKey
	PayerTokenAccount          solana.PublicKey
	Config                     solana.PublicKey
	ForeignContract            solana.PublicKey
	Mint                       solana.PublicKey
	RecipientTokenAccount      solana.PublicKey
	Recipient                  solana.PublicKey
	TmpTokenAccount            solana.PublicKey
	WormholeProgram            solana.PublicKey
	TokenBridgeProgram         solana.PublicKey
	TokenBridgeConfig          solana.PublicKey
	VAA                        solana.PublicKey
	TokenBridgeClaim           solana.PublicKey
	TokenBridgeForeignEndpoint solana.PublicKey
	TokenBridgeCustody         solana.PublicKey
	TokenBridgeCustodySigner   solana.PublicKey
	TokenBridgeWrappedMeta     solana.PublicKey
	TokenBridgeMintAuthority   solana.PublicKey
	SystemProgram              solana.PublicKey
	TokenProgram               solana.PublicKey
	AssociatedTokenProgram     solana.PublicKey
	Rent                       solana.PublicKey
}

func (p *Program) InitializeAccounts(owner solana.PublicKey) InitializeAccounts {
	caps := p.tokenBridge.Capabilities()
	return InitializeAccounts{
		Owner:                      owner,
		SenderConfig:               p.SenderConfigAddress().Address,
		RedeemerConfig:             p.RedeemerConfigAddress().Address,
		WormholeProgram:            p.wormhole.ProgramID,
		TokenBridgeProgram:         p.tokenBridge.ProgramID,
		TokenBridgeConfig:          caps.Config,
		TokenBridgeAuthoritySigner: caps.AuthoritySigner,
		TokenBridgeCustodySigner:   caps.CustodySigner,
		TokenBridgeMintAuthority:   caps.MintAuthority,
		WormholeBridge:             caps.WormholeBridge,
		TokenBridgeEmitter:         caps.Emitter,
		WormholeFeeCollector:       caps.WormholeFeeCollector,
		TokenBridgeSequence:        caps.Sequence,
		SystemProgram:              solana.SystemProgramID,
	}
}

// RegisterForeignContractAccounts builds the accounts for registering a
// contract on chain, whose token bridge is tokenBridgeEmitter.
func (p *Program) RegisterForeignContractAccounts(owner solana.PublicKey, chain relay.ChainID, tokenBridgeEmitter relay.ExternalAddress) RegisterForeignContractAccounts {
	return RegisterForeignContractAccounts{
		Owner:                      owner,
		Config:                     p.SenderConfigAddress().Address,
		ForeignContract:            p.ForeignContractAddress(chain).Address,
		TokenBridgeForeignEndpoint: p.tokenBridge.EndpointAddress(chain, tokenBridgeEmitter),
		TokenBridgeProgram:         p.tokenBridge.ProgramID,
		SystemProgram:              solana.SystemProgramID,
	}
}

func (p *Program) UpdateRelayerFeeAccounts(owner solana.PublicKey) UpdateRelayerFeeAccounts {
	return UpdateRelayerFeeAccounts{
		Owner:  owner,
		Config: p.RedeemerConfigAddress().Address,
	}
}

// SendAccounts builds the accounts for sending mint, native or wrapped, from
// payer's associated token account. The message address depends on the token
// bridge sequence, so the accounts are only valid until the next message is
// posted.
func (p *Program) SendAccounts(payer, mint solana.PublicKey, recipientChain relay.ChainID) (SendTokensAccounts, error) {
	caps := p.tokenBridge.Capabilities()
	from, err := ledger.AssociatedTokenAddress(payer, mint)
	if err != nil {
		return SendTokensAccounts{}, err
	}
	sequence, err := p.wormhole.NextSequence(caps.Emitter)
	if err != nil {
		return SendTokensAccounts{}, err
	}
	return SendTokensAccounts{
		Payer:                      payer,
		Config:                     p.SenderConfigAddress().Address,
		ForeignContract:            p.ForeignContractAddress(recipientChain).Address,
		Mint:                       mint,
		FromTokenAccount:           from,
		TmpTokenAccount:            p.TmpTokenAddress(mint).Address,
		WormholeProgram:            p.wormhole.ProgramID,
		TokenBridgeProgram:         p.tokenBridge.ProgramID,
		TokenBridgeConfig:          caps.Config,
		TokenBridgeCustody:         p.tokenBridge.CustodyAddress(mint),
		TokenBridgeAuthoritySigner: caps.AuthoritySigner,
		TokenBridgeCustodySigner:   caps.CustodySigner,
		TokenBridgeWrappedMeta:     p.tokenBridge.WrappedMetaAddress(mint),
		WormholeBridge:             caps.WormholeBridge,
		WormholeMessage:            p.MessageAddress(sequence).Address,
		TokenBridgeEmitter:         caps.Emitter,
		TokenBridgeSequence:        caps.Sequence,
		WormholeFeeCollector:       caps.WormholeFeeCollector,
		SystemProgram:              solana.SystemProgramID,
		TokenProgram:               solana.TokenProgramID,
		AssociatedTokenProgram:     solana.SPLAssociatedTokenAccountProgramID,
		Clock:                      solana.SysVarClockPubkey,
		Rent:                       solana.SysVarRentPubkey,
	}, nil
}

// RedeemNativeAccounts builds the accounts for redeeming the posted VAA with
// the given hash. The recipient and mint are read from the VAA.
func (p *Program) RedeemNativeAccounts(payer solana.PublicKey, vaaHash [32]byte) (RedeemAccounts, error) {
	return p.redeemAccounts(payer, vaaHash, false)
}

func (p *Program) RedeemWrappedAccounts(payer solana.PublicKey, vaaHash [32]byte) (RedeemAccounts, error) {
	return p.redeemAccounts(payer, vaaHash, true)
}

func (p *Program) redeemAccounts(payer solana.PublicKey, vaaHash [32]byte, wrapped bool) (RedeemAccounts, error) {
	vaa := p.wormhole.PostedVAAAddress(vaaHash)
	message, err := p.wormhole.VerifiedMessageAt(vaa)
	if err != nil {
		return RedeemAccounts{}, Wrap(InvalidMessage, err, "no posted vaa for hash %x", vaaHash)
	}
	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	if err != nil {
		return RedeemAccounts{}, Wrap(InvalidMessage, err, "vaa %s", vaa)
	}
	hello, err := ParseHelloTokenMessage(transfer.Payload)
	if err != nil {
		return RedeemAccounts{}, err
	}
	emitterChain := relay.ChainID(message.EmitterChain)

	mint := transfer.TokenAddress.PublicKey()
	if wrapped {
		mint = p.tokenBridge.WrappedMintAddress(transfer.TokenChain, transfer.TokenAddress)
	}
	recipient := hello.Recipient.PublicKey()
	recipientAta, err := ledger.AssociatedTokenAddress(recipient, mint)
	if err != nil {
		return RedeemAccounts{}, err
	}
	payerAta, err := ledger.AssociatedTokenAddress(payer, mint)
	if err != nil {
		return RedeemAccounts{}, err
	}

	endpoint := p.tokenBridge.EndpointAddress(emitterChain, message.EmitterAddress)
	if contract, err := p.ForeignContract(emitterChain); err == nil {
		endpoint = contract.TokenBridgeForeignEndpoint
	}
	return RedeemAccounts{
		Payer:                      payer,
		PayerTokenAccount:          payerAta,
		Config:                     p.RedeemerConfigAddress().Address,
		ForeignContract:            p.ForeignContractAddress(emitterChain).Address,
		Mint:                       mint,
		RecipientTokenAccount:      recipientAta,
		Recipient:                  recipient,
		TmpTokenAccount:            p.TmpTokenAddress(mint).Address,
		WormholeProgram:            p.wormhole.ProgramID,
		TokenBridgeProgram:         p.tokenBridge.ProgramID,
		TokenBridgeConfig:          p.tokenBridge.ConfigAddress(),
		VAA:                        vaa,
		TokenBridgeClaim:           p.tokenBridge.ClaimAddress(message.EmitterAddress, emitterChain, message.Sequence),
		TokenBridgeForeignEndpoint: endpoint,
		TokenBridgeCustody:         p.tokenBridge.CustodyAddress(mint),
		TokenBridgeCustodySigner:   p.tokenBridge.CustodySignerAddress(),
		TokenBridgeWrappedMeta:     p.tokenBridge.WrappedMetaAddress(mint),
		TokenBridgeMintAuthority:   p.tokenBridge.MintAuthorityAddress(),
		SystemProgram:              solana.SystemProgramID,
		TokenProgram:               solana.TokenProgramID,
		AssociatedTokenProgram:     solana.SPLAssociatedTokenAccountProgramID,
		Rent:                       solana.SysVarRentPubkey,
	}, nil
}
