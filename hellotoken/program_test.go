package hellotoken_test

import (
	"context"
	"testing"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/hellotoken"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/localnet"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

const wormholeFee = 100

type ProgramTestSuite struct {
	suite.Suite
	ctx context.Context
	n   *localnet.Network
	hp  *hellotoken.Program

	owner  solana.PublicKey
	sender solana.PublicKey
	local  solana.PublicKey
	mint   solana.PublicKey

	foreignChain       relay.ChainID
	foreignContract    relay.ExternalAddress
	foreignTokenBridge relay.ExternalAddress
	recipient          relay.ExternalAddress
	inboundSequence    uint64
}

func TestProgram(t *testing.T) {
	suite.Run(t, new(ProgramTestSuite))
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func (s *ProgramTestSuite) deploy(options ...hellotoken.Option) {
	require := s.Require()
	cfg := localnet.DefaultConfig()
	cfg.WormholeFee = wormholeFee
	n, err := localnet.New(cfg, options...)
	require.NoError(err)
	s.n = n
	s.hp = n.HelloToken

	s.owner = n.NewWallet(10 * localnet.LamportsPerSol)
	s.sender = n.NewWallet(10 * localnet.LamportsPerSol)
	s.local = n.NewWallet(10 * localnet.LamportsPerSol)

	require.NoError(n.Initialize(s.ctx, s.owner, 1, 100))
	require.NoError(n.RegisterTokenBridge(s.foreignChain, s.foreignTokenBridge))
	require.NoError(n.RegisterForeignContract(s.ctx, s.owner, s.foreignChain, s.foreignContract, s.foreignTokenBridge))

	s.mint, err = n.CreateMint(6)
	require.NoError(err)
	_, err = n.Fund(s.sender, s.mint, 1_000_000)
	require.NoError(err)
}

func (s *ProgramTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.foreignChain = relay.ChainEthereum
	s.foreignContract = relay.ExternalAddress{12: 0xa0, 31: 0x01}
	s.foreignTokenBridge = relay.ExternalAddress{12: 0x3e, 31: 0xe1}
	s.recipient = relay.ExternalAddress{12: 0xbe, 31: 0xef}
	s.inboundSequence = 0
	s.deploy()
}

// send sends native tokens from the sender to the foreign chain.
func (s *ProgramTestSuite) send(amount uint64) uint64 {
	accounts, err := s.hp.SendAccounts(s.sender, s.mint, s.foreignChain)
	s.Require().NoError(err)
	sequence, err := s.hp.SendNativeTokensWithPayload(s.ctx, accounts, hellotoken.SendTokensArgs{
		Amount:           amount,
		RecipientAddress: s.recipient,
		RecipientChain:   s.foreignChain,
	})
	s.Require().NoError(err)
	return sequence
}

// inbound posts a transfer of the native mint from the foreign contract to recipient.
func (s *ProgramTestSuite) inbound(amount uint64, recipient solana.PublicKey, edit ...func(*localnet.InboundTransfer)) [32]byte {
	in := localnet.InboundTransfer{
		EmitterChain:   s.foreignChain,
		EmitterAddress: s.foreignTokenBridge,
		Sequence:       s.inboundSequence,
		Amount:         amount,
		TokenAddress:   relay.ExternalAddressFromPublicKey(s.mint),
		TokenChain:     relay.ChainSolana,
		FromAddress:    s.foreignContract,
		Recipient:      relay.ExternalAddressFromPublicKey(recipient),
	}
	for _, fn := range edit {
		fn(&in)
	}
	s.inboundSequence++
	hash, err := s.n.PostInboundTransfer(in)
	s.Require().NoError(err)
	return hash
}

type balances struct {
	accounts int
	sender   uint64
	local    uint64
	custody  uint64
	lamports uint64
}

func (s *ProgramTestSuite) balances() balances {
	return balances{
		accounts: s.n.Ledger.Len(),
		sender:   s.n.Balance(s.sender, s.mint),
		local:    s.n.Balance(s.local, s.mint),
		custody:  s.n.Ledger.TokenBalance(s.n.TokenBridge.CustodyAddress(s.mint)),
		lamports: s.n.Ledger.Lamports(s.sender),
	}
}

func (s *ProgramTestSuite) TestInitialize() {
	require := s.Require()
	sender, err := s.hp.SenderConfig()
	require.NoError(err)
	require.Equal(s.owner, sender.Owner)
	require.Equal(s.hp.SenderConfigAddress().Bump, sender.Bump)

	redeemer, err := s.hp.RedeemerConfig()
	require.NoError(err)
	require.Equal(s.owner, redeemer.Owner)
	require.EqualValues(1, redeemer.RelayerFee)
	require.EqualValues(100, redeemer.RelayerFeePrecision)

	caps := s.n.TokenBridge.Capabilities()
	for _, trusted := range []hellotoken.TokenBridgeAddresses{sender.TokenBridge, redeemer.TokenBridge} {
		require.Equal(caps.Config, trusted.Config)
		require.Equal(caps.AuthoritySigner, trusted.AuthoritySigner)
		require.Equal(caps.CustodySigner, trusted.CustodySigner)
		require.Equal(caps.MintAuthority, trusted.MintAuthority)
		require.Equal(caps.Emitter, trusted.Emitter)
		require.Equal(caps.Sequence, trusted.Sequence)
		require.Equal(caps.WormholeBridge, trusted.WormholeBridge)
		require.Equal(caps.WormholeFeeCollector, trusted.WormholeFeeCollector)
	}

	err = s.n.Initialize(s.ctx, s.sender, 1, 100)
	require.ErrorIs(err, hellotoken.AlreadyInitialized)
	sender, err = s.hp.SenderConfig()
	require.NoError(err)
	require.Equal(s.owner, sender.Owner)
}

func (s *ProgramTestSuite) TestInitializeRejects() {
	require := s.Require()
	n, err := localnet.New(localnet.DefaultConfig())
	require.NoError(err)
	owner := n.NewWallet(localnet.LamportsPerSol)

	vectors := []struct {
		name   string
		mutate func(*hellotoken.InitializeAccounts)
		fee    uint32
		prec   uint32
		code   hellotoken.Code
	}{
		{"zero precision", nil, 0, 0, hellotoken.InvalidRelayerFee},
		{"fee at precision", nil, 10, 10, hellotoken.InvalidRelayerFee},
		{"wormhole program", func(a *hellotoken.InitializeAccounts) { a.WormholeProgram = newKey() }, 1, 100, hellotoken.InvalidProgramID},
		{"system program", func(a *hellotoken.InitializeAccounts) { a.SystemProgram = newKey() }, 1, 100, hellotoken.InvalidProgramID},
		{"sender config", func(a *hellotoken.InitializeAccounts) { a.SenderConfig = newKey() }, 1, 100, hellotoken.InvalidDerivedAddress},
		{"config", func(a *hellotoken.InitializeAccounts) { a.TokenBridgeConfig = newKey() }, 1, 100, hellotoken.InvalidTokenBridgeConfig},
		{"authority signer", func(a *hellotoken.InitializeAccounts) { a.TokenBridgeAuthoritySigner = newKey() }, 1, 100, hellotoken.InvalidTokenBridgeAuthoritySigner},
		{"custody signer", func(a *hellotoken.InitializeAccounts) { a.TokenBridgeCustodySigner = newKey() }, 1, 100, hellotoken.InvalidTokenBridgeCustodySigner},
		{"mint authority", func(a *hellotoken.InitializeAccounts) { a.TokenBridgeMintAuthority = newKey() }, 1, 100, hellotoken.InvalidTokenBridgeMintAuthority},
		{"wormhole bridge", func(a *hellotoken.InitializeAccounts) { a.WormholeBridge = newKey() }, 1, 100, hellotoken.InvalidWormholeBridge},
		{"emitter", func(a *hellotoken.InitializeAccounts) { a.TokenBridgeEmitter = newKey() }, 1, 100, hellotoken.InvalidTokenBridgeEmitter},
		{"fee collector", func(a *hellotoken.InitializeAccounts) { a.WormholeFeeCollector = newKey() }, 1, 100, hellotoken.InvalidWormholeFeeCollector},
		{"sequence", func(a *hellotoken.InitializeAccounts) { a.TokenBridgeSequence = newKey() }, 1, 100, hellotoken.InvalidTokenBridgeSequence},
	}
	for _, v := range vectors {
		accounts := n.HelloToken.InitializeAccounts(owner)
		if v.mutate != nil {
			v.mutate(&accounts)
		}
		err := n.HelloToken.Initialize(s.ctx, accounts, v.fee, v.prec)
		require.ErrorIs(err, v.code, v.name)
		_, err = n.HelloToken.SenderConfig()
		require.ErrorIs(err, hellotoken.NotInitialized, v.name)
	}
	require.NoError(n.Initialize(s.ctx, owner, 0, 1))
}

func (s *ProgramTestSuite) TestRegisterForeignContractUpserts() {
	require := s.Require()
	contract, err := s.hp.ForeignContract(s.foreignChain)
	require.NoError(err)
	require.EqualValues(s.foreignChain, contract.Chain)
	require.Equal(s.foreignContract, contract.Address)
	require.Equal(s.n.TokenBridge.EndpointAddress(s.foreignChain, s.foreignTokenBridge), contract.TokenBridgeForeignEndpoint)

	// same arguments twice leave one record
	require.NoError(s.n.RegisterForeignContract(s.ctx, s.owner, s.foreignChain, s.foreignContract, s.foreignTokenBridge))
	require.Len(s.hp.ForeignContracts(), 1)

	replacement := relay.ExternalAddress{12: 0xa0, 31: 0x02}
	require.NoError(s.n.RegisterForeignContract(s.ctx, s.owner, s.foreignChain, replacement, s.foreignTokenBridge))
	contract, err = s.hp.ForeignContract(s.foreignChain)
	require.NoError(err)
	require.Equal(replacement, contract.Address)
	require.Len(s.hp.ForeignContracts(), 1)

	// a second chain gets its own record
	require.NoError(s.n.RegisterTokenBridge(relay.ChainPolygon, relay.ExternalAddress{31: 5}))
	require.NoError(s.n.RegisterForeignContract(s.ctx, s.owner, relay.ChainPolygon, relay.ExternalAddress{31: 6}, relay.ExternalAddress{31: 5}))
	require.Len(s.hp.ForeignContracts(), 2)
}

func (s *ProgramTestSuite) TestRegisterForeignContractOwnerOnly() {
	require := s.Require()
	before := s.hp.ForeignContracts()
	err := s.n.RegisterForeignContract(s.ctx, s.sender, s.foreignChain, relay.ExternalAddress{31: 9}, s.foreignTokenBridge)
	require.ErrorIs(err, hellotoken.OwnerOnly)
	require.Equal(before, s.hp.ForeignContracts())
}

func (s *ProgramTestSuite) TestRegisterForeignContractRejects() {
	require := s.Require()
	before := s.hp.ForeignContracts()

	err := s.n.RegisterForeignContract(s.ctx, s.owner, relay.ChainSolana, s.foreignContract, s.foreignTokenBridge)
	require.ErrorIs(err, hellotoken.InvalidForeignContract)
	err = s.n.RegisterForeignContract(s.ctx, s.owner, relay.ChainUnset, s.foreignContract, s.foreignTokenBridge)
	require.ErrorIs(err, hellotoken.InvalidForeignContract)
	err = s.n.RegisterForeignContract(s.ctx, s.owner, s.foreignChain, relay.ExternalAddress{}, s.foreignTokenBridge)
	require.ErrorIs(err, hellotoken.InvalidForeignContract)

	// the token bridge has no endpoint for polygon
	err = s.n.RegisterForeignContract(s.ctx, s.owner, relay.ChainPolygon, s.foreignContract, s.foreignTokenBridge)
	require.ErrorIs(err, hellotoken.InvalidTokenBridgeForeignEndpoint)

	// an endpoint registered for another chain
	require.NoError(s.n.RegisterTokenBridge(relay.ChainPolygon, relay.ExternalAddress{31: 5}))
	accounts := s.hp.RegisterForeignContractAccounts(s.owner, relay.ChainPolygon, relay.ExternalAddress{31: 5})
	accounts.TokenBridgeForeignEndpoint = s.n.TokenBridge.EndpointAddress(s.foreignChain, s.foreignTokenBridge)
	err = s.hp.RegisterForeignContract(s.ctx, accounts, relay.ChainPolygon, s.foreignContract)
	require.ErrorIs(err, hellotoken.InvalidTokenBridgeForeignEndpoint)

	accounts = s.hp.RegisterForeignContractAccounts(s.owner, relay.ChainPolygon, relay.ExternalAddress{31: 5})
	accounts.ForeignContract = s.hp.ForeignContractAddress(s.foreignChain).Address
	err = s.hp.RegisterForeignContract(s.ctx, accounts, relay.ChainPolygon, s.foreignContract)
	require.ErrorIs(err, hellotoken.InvalidDerivedAddress)

	accounts = s.hp.RegisterForeignContractAccounts(s.owner, relay.ChainPolygon, relay.ExternalAddress{31: 5})
	accounts.TokenBridgeProgram = newKey()
	err = s.hp.RegisterForeignContract(s.ctx, accounts, relay.ChainPolygon, s.foreignContract)
	require.ErrorIs(err, hellotoken.InvalidProgramID)

	require.Equal(before, s.hp.ForeignContracts())
}

func (s *ProgramTestSuite) TestUpdateRelayerFee() {
	require := s.Require()
	require.NoError(s.hp.UpdateRelayerFee(s.ctx, s.hp.UpdateRelayerFeeAccounts(s.owner), 5, 1000))
	config, err := s.hp.RedeemerConfig()
	require.NoError(err)
	require.EqualValues(5, config.RelayerFee)
	require.EqualValues(1000, config.RelayerFeePrecision)

	err = s.hp.UpdateRelayerFee(s.ctx, s.hp.UpdateRelayerFeeAccounts(s.sender), 0, 1)
	require.ErrorIs(err, hellotoken.OwnerOnly)
	err = s.hp.UpdateRelayerFee(s.ctx, s.hp.UpdateRelayerFeeAccounts(s.owner), 10, 10)
	require.ErrorIs(err, hellotoken.InvalidRelayerFee)
	accounts := s.hp.UpdateRelayerFeeAccounts(s.owner)
	accounts.Config = s.hp.SenderConfigAddress().Address
	err = s.hp.UpdateRelayerFee(s.ctx, accounts, 0, 1)
	require.ErrorIs(err, hellotoken.InvalidDerivedAddress)

	config, err = s.hp.RedeemerConfig()
	require.NoError(err)
	require.EqualValues(5, config.RelayerFee)
	require.EqualValues(1000, config.RelayerFeePrecision)
}

func (s *ProgramTestSuite) TestSendNative() {
	require := s.Require()
	before := s.balances()
	collector := s.n.Wormhole.FeeCollectorAddress()
	collected := s.n.Ledger.Lamports(collector)

	first := s.send(1000)
	second := s.send(500)
	require.Equal(first+1, second)

	require.Equal(before.sender-1500, s.n.Balance(s.sender, s.mint))
	require.Equal(before.custody+1500, s.n.Ledger.TokenBalance(s.n.TokenBridge.CustodyAddress(s.mint)))
	require.Equal(collected+2*wormholeFee, s.n.Ledger.Lamports(collector))
	// nothing is left in escrow
	require.False(s.n.Ledger.Exists(s.hp.TmpTokenAddress(s.mint).Address))

	message, err := s.n.Wormhole.Message(s.hp.MessageAddress(first).Address)
	require.NoError(err)
	require.Equal(first, message.Sequence)
	require.EqualValues(tokenbridge.ConsistencyFinalized, message.ConsistencyLevel)

	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	require.NoError(err)
	require.EqualValues(1000, transfer.Amount.Uint64())
	require.Equal(relay.ExternalAddressFromPublicKey(s.mint), transfer.TokenAddress)
	require.Equal(relay.ChainSolana, transfer.TokenChain)
	require.Equal(s.foreignContract, transfer.To)
	require.Equal(s.foreignChain, transfer.ToChain)
	require.Equal(relay.ExternalAddressFromPublicKey(s.hp.ID), transfer.FromAddress)

	hello, err := hellotoken.ParseHelloTokenMessage(transfer.Payload)
	require.NoError(err)
	require.Equal(s.recipient, hello.Recipient)
}

func (s *ProgramTestSuite) TestSendDecimalBounds() {
	require := s.Require()
	const amount uint64 = 10_000_000_000_000_000_000
	for _, decimals := range []uint8{tokenbridge.MaxMintDecimals + 1, 72, 255} {
		mint, err := s.n.CreateMint(decimals)
		require.NoError(err)
		_, err = s.n.Fund(s.sender, mint, amount)
		require.NoError(err)
		before := s.balances()
		require.NotPanics(func() {
			_, err = s.n.Send(s.ctx, localnet.SendArgs{
				Payer:     s.sender,
				Mint:      mint,
				Amount:    amount,
				Chain:     s.foreignChain,
				Recipient: s.recipient,
			})
		})
		require.ErrorIs(err, hellotoken.InvalidMint, decimals)
		require.ErrorIs(err, tokenbridge.ErrUnsupportedDecimals, decimals)
		require.EqualValues(amount, s.n.Balance(s.sender, mint))
		require.Equal(before, s.balances())
	}

	mint, err := s.n.CreateMint(tokenbridge.MaxMintDecimals)
	require.NoError(err)
	_, err = s.n.Fund(s.sender, mint, amount)
	require.NoError(err)
	message, err := s.n.Send(s.ctx, localnet.SendArgs{
		Payer:     s.sender,
		Mint:      mint,
		Amount:    amount,
		Chain:     s.foreignChain,
		Recipient: s.recipient,
	})
	require.NoError(err)
	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	require.NoError(err)
	require.EqualValues(1, transfer.Amount.Uint64())
	require.Zero(s.n.Balance(s.sender, mint))
}

func (s *ProgramTestSuite) TestSendTruncates() {
	require := s.Require()
	mint, err := s.n.CreateMint(9)
	require.NoError(err)
	_, err = s.n.Fund(s.sender, mint, 1_000_000_019)
	require.NoError(err)

	message, err := s.n.Send(s.ctx, localnet.SendArgs{
		Payer:     s.sender,
		Mint:      mint,
		Amount:    1_000_000_019,
		Chain:     s.foreignChain,
		Recipient: s.recipient,
	})
	require.NoError(err)
	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	require.NoError(err)
	require.EqualValues(100_000_001, transfer.Amount.Uint64())
	// the dust never leaves the sender
	require.EqualValues(9, s.n.Balance(s.sender, mint))

	_, err = s.n.Send(s.ctx, localnet.SendArgs{
		Payer:     s.sender,
		Mint:      mint,
		Amount:    9,
		Chain:     s.foreignChain,
		Recipient: s.recipient,
	})
	require.ErrorIs(err, hellotoken.ZeroBridgeAmount)
	require.EqualValues(9, s.n.Balance(s.sender, mint))
}

func (s *ProgramTestSuite) TestSendRejects() {
	require := s.Require()
	otherMint, err := s.n.CreateMint(6)
	require.NoError(err)

	type mutation func(*hellotoken.SendTokensAccounts, *hellotoken.SendTokensArgs)
	vectors := []struct {
		name   string
		mutate mutation
		code   hellotoken.Code
	}{
		{"zero amount", func(_ *hellotoken.SendTokensAccounts, a *hellotoken.SendTokensArgs) { a.Amount = 0 }, hellotoken.ZeroBridgeAmount},
		{"local chain", func(acc *hellotoken.SendTokensAccounts, a *hellotoken.SendTokensArgs) {
			a.RecipientChain = relay.ChainSolana
			acc.ForeignContract = s.hp.ForeignContractAddress(relay.ChainSolana).Address
		}, hellotoken.InvalidForeignContract},
		{"unregistered chain", func(acc *hellotoken.SendTokensAccounts, a *hellotoken.SendTokensArgs) {
			a.RecipientChain = relay.ChainPolygon
			acc.ForeignContract = s.hp.ForeignContractAddress(relay.ChainPolygon).Address
		}, hellotoken.InvalidForeignContract},
		{"foreign contract of another chain", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.ForeignContract = s.hp.ForeignContractAddress(relay.ChainPolygon).Address
		}, hellotoken.InvalidDerivedAddress},
		{"zero recipient", func(_ *hellotoken.SendTokensAccounts, a *hellotoken.SendTokensArgs) {
			a.RecipientAddress = relay.ExternalAddress{}
		}, hellotoken.InvalidRecipient},
		{"sender config", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.Config = s.hp.RedeemerConfigAddress().Address
		}, hellotoken.InvalidDerivedAddress},
		{"token program", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.TokenProgram = newKey() }, hellotoken.InvalidProgramID},
		{"token bridge program", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.TokenBridgeProgram = newKey() }, hellotoken.InvalidProgramID},
		{"clock", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.Clock = solana.SysVarRentPubkey }, hellotoken.InvalidSysvar},
		{"rent", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.Rent = solana.SysVarClockPubkey }, hellotoken.InvalidSysvar},
		{"config", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.TokenBridgeConfig = newKey() }, hellotoken.InvalidTokenBridgeConfig},
		{"authority signer", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.TokenBridgeAuthoritySigner = newKey()
		}, hellotoken.InvalidTokenBridgeAuthoritySigner},
		{"custody signer", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.TokenBridgeCustodySigner = newKey()
		}, hellotoken.InvalidTokenBridgeCustodySigner},
		{"wormhole bridge", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.WormholeBridge = newKey() }, hellotoken.InvalidWormholeBridge},
		{"emitter", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.TokenBridgeEmitter = newKey() }, hellotoken.InvalidTokenBridgeEmitter},
		{"sequence", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.TokenBridgeSequence = newKey() }, hellotoken.InvalidTokenBridgeSequence},
		{"fee collector", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.WormholeFeeCollector = newKey()
		}, hellotoken.InvalidWormholeFeeCollector},
		{"custody", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.TokenBridgeCustody = s.n.TokenBridge.CustodyAddress(otherMint)
		}, hellotoken.InvalidDerivedAddress},
		{"from account", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) { acc.FromTokenAccount = newKey() }, hellotoken.InvalidTokenAccount},
		{"tmp account", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.TmpTokenAccount = s.hp.TmpTokenAddress(otherMint).Address
		}, hellotoken.InvalidDerivedAddress},
		{"message", func(acc *hellotoken.SendTokensAccounts, _ *hellotoken.SendTokensArgs) {
			acc.WormholeMessage = s.hp.MessageAddress(42).Address
		}, hellotoken.InvalidDerivedAddress},
	}
	before := s.balances()
	for _, v := range vectors {
		accounts, err := s.hp.SendAccounts(s.sender, s.mint, s.foreignChain)
		require.NoError(err)
		args := hellotoken.SendTokensArgs{
			Amount:           1000,
			RecipientAddress: s.recipient,
			RecipientChain:   s.foreignChain,
		}
		v.mutate(&accounts, &args)
		_, err = s.hp.SendNativeTokensWithPayload(s.ctx, accounts, args)
		require.ErrorIs(err, v.code, v.name)
		require.Equal(before, s.balances(), v.name)
	}

	// a native mint cannot go through the wrapped path
	accounts, err := s.hp.SendAccounts(s.sender, s.mint, s.foreignChain)
	require.NoError(err)
	_, err = s.hp.SendWrappedTokensWithPayload(s.ctx, accounts, hellotoken.SendTokensArgs{
		Amount:           1000,
		RecipientAddress: s.recipient,
		RecipientChain:   s.foreignChain,
	})
	require.ErrorIs(err, hellotoken.InvalidMint)
	require.Equal(before, s.balances())
}

func (s *ProgramTestSuite) TestSendNotInitialized() {
	require := s.Require()
	n, err := localnet.New(localnet.DefaultConfig())
	require.NoError(err)
	payer := n.NewWallet(localnet.LamportsPerSol)
	mint, err := n.CreateMint(6)
	require.NoError(err)
	accounts, err := n.HelloToken.SendAccounts(payer, mint, s.foreignChain)
	require.NoError(err)
	_, err = n.HelloToken.SendNativeTokensWithPayload(s.ctx, accounts, hellotoken.SendTokensArgs{
		Amount:           1,
		RecipientAddress: s.recipient,
		RecipientChain:   s.foreignChain,
	})
	require.ErrorIs(err, hellotoken.NotInitialized)
}

func (s *ProgramTestSuite) TestCanceledContext() {
	require := s.Require()
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	accounts, err := s.hp.SendAccounts(s.sender, s.mint, s.foreignChain)
	require.NoError(err)
	_, err = s.hp.SendNativeTokensWithPayload(ctx, accounts, hellotoken.SendTokensArgs{
		Amount:           1000,
		RecipientAddress: s.recipient,
		RecipientChain:   s.foreignChain,
	})
	require.ErrorIs(err, context.Canceled)
}

func (s *ProgramTestSuite) TestRedeemSelf() {
	require := s.Require()
	s.send(1000)
	hash := s.inbound(1000, s.local)

	redemption, err := s.n.Redeem(s.ctx, s.local, hash)
	require.NoError(err)
	require.Equal(s.foreignChain, redemption.EmitterChain)
	require.Equal(s.mint, redemption.Mint)
	require.Equal(s.local, redemption.Recipient)
	require.EqualValues(1000, redemption.Amount)
	// no fee when the recipient redeems
	require.EqualValues(0, redemption.RelayerAmount)
	require.EqualValues(1000, s.n.Balance(s.local, s.mint))
	require.EqualValues(0, s.n.Ledger.TokenBalance(s.n.TokenBridge.CustodyAddress(s.mint)))
	require.False(s.n.Ledger.Exists(s.hp.TmpTokenAddress(s.mint).Address))

	before := s.balances()
	_, err = s.n.Redeem(s.ctx, s.local, hash)
	require.ErrorIs(err, hellotoken.AlreadyRedeemed)
	require.Equal(before, s.balances())
}

func (s *ProgramTestSuite) TestFundedAddressesAreTakenOver() {
	require := s.Require()
	tmp := s.hp.TmpTokenAddress(s.mint).Address
	s.n.Ledger.Airdrop(tmp, 1)

	s.send(1000)
	require.False(s.n.Ledger.Exists(tmp))

	recipient := newKey()
	ata, err := ledger.AssociatedTokenAddress(recipient, s.mint)
	require.NoError(err)
	s.n.Ledger.Airdrop(ata, 1)
	s.n.Ledger.Airdrop(tmp, 1)
	hash := s.inbound(1000, recipient)
	redemption, err := s.n.Redeem(s.ctx, s.local, hash)
	require.NoError(err)
	require.EqualValues(10, redemption.RelayerAmount)
	require.EqualValues(990, s.n.Balance(recipient, s.mint))
	require.False(s.n.Ledger.Exists(tmp))

	// configs of a program nobody initialized yet
	n, err := localnet.New(localnet.DefaultConfig())
	require.NoError(err)
	n.Ledger.Airdrop(n.HelloToken.SenderConfigAddress().Address, 1)
	n.Ledger.Airdrop(n.HelloToken.RedeemerConfigAddress().Address, 1)
	_, err = n.HelloToken.SenderConfig()
	require.ErrorIs(err, hellotoken.NotInitialized)
	owner := n.NewWallet(localnet.LamportsPerSol)
	require.NoError(n.Initialize(s.ctx, owner, 1, 100))
	config, err := n.HelloToken.SenderConfig()
	require.NoError(err)
	require.Equal(owner, config.Owner)
}

func (s *ProgramTestSuite) TestRedeemRelayed() {
	require := s.Require()
	s.send(1000)
	relayer := s.n.NewWallet(localnet.LamportsPerSol)
	hash := s.inbound(1000, s.local)

	redemption, err := s.n.Redeem(s.ctx, relayer, hash)
	require.NoError(err)
	require.EqualValues(1000, redemption.Amount)
	require.EqualValues(10, redemption.RelayerAmount)
	require.EqualValues(10, s.n.Balance(relayer, s.mint))
	require.EqualValues(990, s.n.Balance(s.local, s.mint))

	_, err = s.n.Redeem(s.ctx, relayer, hash)
	require.ErrorIs(err, hellotoken.AlreadyRedeemed)
	require.EqualValues(10, s.n.Balance(relayer, s.mint))
	require.EqualValues(990, s.n.Balance(s.local, s.mint))
}

func (s *ProgramTestSuite) TestRedeemRejects() {
	require := s.Require()
	s.send(10_000)
	relayer := s.n.NewWallet(localnet.LamportsPerSol)
	otherMint, err := s.n.CreateMint(6)
	require.NoError(err)

	type mutation func(*hellotoken.RedeemAccounts)
	vectors := []struct {
		name   string
		edit   func(*localnet.InboundTransfer)
		mutate mutation
		code   hellotoken.Code
	}{
		{name: "from another contract", edit: func(in *localnet.InboundTransfer) {
			in.FromAddress = relay.ExternalAddress{31: 0x77}
		}, code: hellotoken.InvalidForeignContract},
		{name: "from an unregistered chain", edit: func(in *localnet.InboundTransfer) {
			in.EmitterChain = relay.ChainPolygon
		}, code: hellotoken.InvalidForeignContract},
		{name: "to another chain", edit: func(in *localnet.InboundTransfer) {
			in.ToChain = relay.ChainEthereum
		}, code: hellotoken.InvalidTransferToChain},
		{name: "to another program", edit: func(in *localnet.InboundTransfer) {
			in.To = relay.ExternalAddress{31: 0x42}
		}, code: hellotoken.InvalidTransferToAddress},
		{name: "foreign token", edit: func(in *localnet.InboundTransfer) {
			in.TokenChain = relay.ChainEthereum
			in.TokenAddress = relay.ExternalAddress{12: 0xc0, 31: 0x2a}
		}, code: hellotoken.InvalidTransferTokenChain},
		{name: "config", mutate: func(a *hellotoken.RedeemAccounts) {
			a.Config = s.hp.SenderConfigAddress().Address
		}, code: hellotoken.InvalidDerivedAddress},
		{name: "wormhole program", mutate: func(a *hellotoken.RedeemAccounts) { a.WormholeProgram = newKey() }, code: hellotoken.InvalidProgramID},
		{name: "associated token program", mutate: func(a *hellotoken.RedeemAccounts) {
			a.AssociatedTokenProgram = newKey()
		}, code: hellotoken.InvalidProgramID},
		{name: "rent", mutate: func(a *hellotoken.RedeemAccounts) { a.Rent = solana.SysVarClockPubkey }, code: hellotoken.InvalidSysvar},
		{name: "token bridge config", mutate: func(a *hellotoken.RedeemAccounts) { a.TokenBridgeConfig = newKey() }, code: hellotoken.InvalidTokenBridgeConfig},
		{name: "custody signer", mutate: func(a *hellotoken.RedeemAccounts) {
			a.TokenBridgeCustodySigner = newKey()
		}, code: hellotoken.InvalidTokenBridgeCustodySigner},
		{name: "vaa", mutate: func(a *hellotoken.RedeemAccounts) { a.VAA = newKey() }, code: hellotoken.InvalidMessage},
		{name: "foreign contract", mutate: func(a *hellotoken.RedeemAccounts) {
			a.ForeignContract = s.hp.ForeignContractAddress(relay.ChainPolygon).Address
		}, code: hellotoken.InvalidDerivedAddress},
		{name: "endpoint", mutate: func(a *hellotoken.RedeemAccounts) {
			a.TokenBridgeForeignEndpoint = newKey()
		}, code: hellotoken.InvalidTokenBridgeForeignEndpoint},
		{name: "claim", mutate: func(a *hellotoken.RedeemAccounts) { a.TokenBridgeClaim = newKey() }, code: hellotoken.InvalidDerivedAddress},
		{name: "mint", mutate: func(a *hellotoken.RedeemAccounts) { a.Mint = otherMint }, code: hellotoken.InvalidMint},
		{name: "payer ata", mutate: func(a *hellotoken.RedeemAccounts) { a.PayerTokenAccount = newKey() }, code: hellotoken.InvalidPayerAta},
		{name: "recipient", mutate: func(a *hellotoken.RedeemAccounts) { a.Recipient = newKey() }, code: hellotoken.InvalidRecipient},
		{name: "recipient ata", mutate: func(a *hellotoken.RedeemAccounts) {
			a.RecipientTokenAccount = newKey()
		}, code: hellotoken.InvalidRecipient},
		{name: "tmp account", mutate: func(a *hellotoken.RedeemAccounts) {
			a.TmpTokenAccount = s.hp.TmpTokenAddress(otherMint).Address
		}, code: hellotoken.InvalidDerivedAddress},
	}
	before := s.balances()
	for _, v := range vectors {
		var edits []func(*localnet.InboundTransfer)
		if v.edit != nil {
			edits = append(edits, v.edit)
		}
		hash := s.inbound(1000, s.local, edits...)
		accounts, err := s.hp.RedeemNativeAccounts(relayer, hash)
		require.NoError(err, v.name)
		if v.mutate != nil {
			v.mutate(&accounts)
		}
		_, err = s.hp.RedeemNativeTransferWithPayload(s.ctx, accounts, hash)
		require.ErrorIs(err, v.code, v.name)
		// posting the vaa adds accounts, nothing else moves
		after := s.balances()
		after.accounts = before.accounts
		require.Equal(before, after, v.name)
		require.EqualValues(0, s.n.Balance(relayer, s.mint), v.name)
	}
}

func (s *ProgramTestSuite) TestRedeemNativeThroughWrappedPath() {
	require := s.Require()
	s.send(1000)
	hash := s.inbound(1000, s.local)
	accounts, err := s.hp.RedeemWrappedAccounts(s.local, hash)
	require.NoError(err)
	_, err = s.hp.RedeemWrappedTransferWithPayload(s.ctx, accounts, hash)
	require.ErrorIs(err, hellotoken.InvalidTransferTokenChain)

	// the transfer can still be redeemed the right way
	_, err = s.n.Redeem(s.ctx, s.local, hash)
	require.NoError(err)
}

func (s *ProgramTestSuite) TestWrappedRoundTrip() {
	require := s.Require()
	token := relay.ExternalAddress{12: 0xc0, 31: 0x2a}
	mint, err := s.n.CreateWrapped(s.foreignChain, token, 18)
	require.NoError(err)
	relayer := s.n.NewWallet(localnet.LamportsPerSol)

	hash := s.inbound(500, s.local, func(in *localnet.InboundTransfer) {
		in.TokenAddress = token
		in.TokenChain = s.foreignChain
	})
	redemption, err := s.n.Redeem(s.ctx, relayer, hash)
	require.NoError(err)
	require.Equal(mint, redemption.Mint)
	require.EqualValues(500, redemption.Amount)
	require.EqualValues(5, redemption.RelayerAmount)
	require.EqualValues(495, s.n.Balance(s.local, mint))
	require.EqualValues(5, s.n.Balance(relayer, mint))

	message, err := s.n.Send(s.ctx, localnet.SendArgs{
		Payer:     s.local,
		Mint:      mint,
		Amount:    200,
		Chain:     s.foreignChain,
		Recipient: s.recipient,
		Wrapped:   true,
	})
	require.NoError(err)
	require.EqualValues(295, s.n.Balance(s.local, mint))
	supply, err := s.n.Ledger.Mint(mint)
	require.NoError(err)
	require.EqualValues(300, supply.Supply)

	transfer, err := tokenbridge.ParseTransferWithPayload(message.Payload)
	require.NoError(err)
	require.Equal(token, transfer.TokenAddress)
	require.Equal(s.foreignChain, transfer.TokenChain)
	require.EqualValues(200, transfer.Amount.Uint64())

	// and not through the native path
	accounts, err := s.hp.SendAccounts(s.local, mint, s.foreignChain)
	require.NoError(err)
	_, err = s.hp.SendNativeTokensWithPayload(s.ctx, accounts, hellotoken.SendTokensArgs{
		Amount:           1,
		RecipientAddress: s.recipient,
		RecipientChain:   s.foreignChain,
	})
	require.ErrorIs(err, hellotoken.InvalidMint)
	require.EqualValues(295, s.n.Balance(s.local, mint))
}

func (s *ProgramTestSuite) TestFeePolicy() {
	require := s.Require()
	s.deploy(hellotoken.WithFeePolicy(hellotoken.FeePolicyFunc(func(_ *hellotoken.RedeemerConfig, amount uint64) uint64 {
		return amount / 4
	})))
	s.send(1000)
	relayer := s.n.NewWallet(localnet.LamportsPerSol)
	redemption, err := s.n.Redeem(s.ctx, relayer, s.inbound(1000, s.local))
	require.NoError(err)
	require.EqualValues(250, redemption.RelayerAmount)
	require.EqualValues(750, s.n.Balance(s.local, s.mint))
}

func (s *ProgramTestSuite) TestFeePolicyExceedingAmount() {
	require := s.Require()
	s.deploy(hellotoken.WithFeePolicy(hellotoken.FeePolicyFunc(func(_ *hellotoken.RedeemerConfig, amount uint64) uint64 {
		return amount + 1
	})))
	s.send(1000)
	relayer := s.n.NewWallet(localnet.LamportsPerSol)
	hash := s.inbound(1000, s.local)
	accounts, err := s.hp.RedeemNativeAccounts(relayer, hash)
	require.NoError(err)

	_, err = s.hp.RedeemNativeTransferWithPayload(s.ctx, accounts, hash)
	require.ErrorIs(err, hellotoken.InvalidRelayerFee)
	// the claim is rolled back with everything else
	require.False(s.n.Ledger.Exists(accounts.TokenBridgeClaim))
	require.EqualValues(1000, s.n.Ledger.TokenBalance(s.n.TokenBridge.CustodyAddress(s.mint)))
}

func (s *ProgramTestSuite) TestStoredBumpIsChecked() {
	require := s.Require()
	configs := []struct {
		address solana.PublicKey
		load    func() error
	}{
		{s.hp.SenderConfigAddress().Address, func() error { _, err := s.hp.SenderConfig(); return err }},
		{s.hp.RedeemerConfigAddress().Address, func() error { _, err := s.hp.RedeemerConfig(); return err }},
	}
	for _, config := range configs {
		data, err := s.n.Ledger.Data(config.address, s.hp.ID)
		require.NoError(err)
		corrupted := append([]byte{}, data...)
		// discriminator, then the owner, then the bump
		corrupted[8+32]--
		require.NoError(s.n.Ledger.WriteData(config.address, s.hp.ID, corrupted))
		require.ErrorIs(config.load(), hellotoken.InvalidDerivedAddress)

		require.NoError(s.n.Ledger.WriteData(config.address, s.hp.ID, data))
		require.NoError(config.load())
	}

	sender := s.hp.SenderConfigAddress()
	data, err := s.n.Ledger.Data(sender.Address, s.hp.ID)
	require.NoError(err)
	corrupted := append([]byte{}, data...)
	corrupted[8+32] = sender.Bump - 1
	require.NoError(s.n.Ledger.WriteData(sender.Address, s.hp.ID, corrupted))
	before := s.balances()
	accounts, err := s.hp.SendAccounts(s.sender, s.mint, s.foreignChain)
	require.NoError(err)
	_, err = s.hp.SendNativeTokensWithPayload(s.ctx, accounts, hellotoken.SendTokensArgs{
		Amount:           1000,
		RecipientAddress: s.recipient,
		RecipientChain:   s.foreignChain,
	})
	require.ErrorIs(err, hellotoken.InvalidDerivedAddress)
	require.Equal(before, s.balances())
}

func (s *ProgramTestSuite) TestAddressesAreDeterministic() {
	require := s.Require()
	other := hellotoken.New(ledger.New(), s.hp.ID, s.n.TokenBridge)
	require.Equal(s.hp.SenderConfigAddress(), other.SenderConfigAddress())
	require.Equal(s.hp.RedeemerConfigAddress(), other.RedeemerConfigAddress())
	require.Equal(s.hp.ForeignContractAddress(s.foreignChain), other.ForeignContractAddress(s.foreignChain))
	require.NotEqual(s.hp.ForeignContractAddress(s.foreignChain), s.hp.ForeignContractAddress(relay.ChainPolygon))
	require.Equal(s.hp.TmpTokenAddress(s.mint), other.TmpTokenAddress(s.mint))
	require.NotEqual(s.hp.MessageAddress(0), s.hp.MessageAddress(1))

	// the configs double as the token bridge sender and redeemer accounts
	require.Equal(tokenbridge.SenderAddress(s.hp.ID), s.hp.SenderConfigAddress().Address)
	require.Equal(tokenbridge.RedeemerAddress(s.hp.ID), s.hp.RedeemerConfigAddress().Address)
}

func (s *ProgramTestSuite) TestMetrics() {
	require := s.Require()
	registry := prometheus.NewRegistry()
	s.deploy(hellotoken.WithMetrics(hellotoken.NewMetrics(registry)))

	s.send(1000)
	relayer := s.n.NewWallet(localnet.LamportsPerSol)
	hash := s.inbound(1000, s.local)
	_, err := s.n.Redeem(s.ctx, relayer, hash)
	require.NoError(err)
	_, err = s.n.Redeem(s.ctx, relayer, hash)
	require.ErrorIs(err, hellotoken.AlreadyRedeemed)
	err = s.n.RegisterForeignContract(s.ctx, s.sender, s.foreignChain, s.foreignContract, s.foreignTokenBridge)
	require.ErrorIs(err, hellotoken.OwnerOnly)

	families, err := registry.Gather()
	require.NoError(err)
	count := func(name string, labels map[string]string) float64 {
		for _, family := range families {
			if family.GetName() != name {
				continue
			}
		metrics:
			for _, metric := range family.GetMetric() {
				got := metric.GetLabel()
				if len(got) != len(labels) {
					continue
				}
				for _, label := range got {
					if labels[label.GetName()] != label.GetValue() {
						continue metrics
					}
				}
				return metric.GetCounter().GetValue()
			}
		}
		return 0
	}
	succeeded := func(instruction string) float64 {
		return count("hello_token_successful_instruction_count", map[string]string{"instruction": instruction})
	}
	failed := func(instruction string, code hellotoken.Code) float64 {
		return count("hello_token_failed_instruction_count", map[string]string{"instruction": instruction, "code": string(code)})
	}
	require.Equal(1.0, succeeded("initialize"))
	require.Equal(1.0, succeeded("register_foreign_contract"))
	require.Equal(1.0, succeeded("send_native_tokens_with_payload"))
	require.Equal(1.0, succeeded("redeem_native_transfer_with_payload"))
	require.Equal(1.0, failed("redeem_native_transfer_with_payload", hellotoken.AlreadyRedeemed))
	require.Equal(1.0, failed("register_foreign_contract", hellotoken.OwnerOnly))
	require.Zero(failed("register_foreign_contract", hellotoken.AlreadyRedeemed))
	require.Equal(10.0, count("hello_token_relayer_fee_amount", map[string]string{"mint": s.mint.String()}))
}
