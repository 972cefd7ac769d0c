// Package hellotoken is the relay program. It sends tokens to registered
// contracts on other chains through the token bridge and redeems transfers
// addressed to it, paying an optional fee to whoever relays the redemption.
//
// Every instruction runs as one atomic ledger call: when it returns an error
// no account it touched is changed.
package hellotoken

import (
	"context"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	"github.com/cordialsys/tokenrelay/wormhole"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

type Program struct {
	ID solana.PublicKey

	ledger      *ledger.Ledger
	wormhole    *wormhole.Bridge
	tokenBridge *tokenbridge.Bridge
	feePolicy   FeePolicy
	metrics     *Metrics
}

type Option func(*Program)

func WithFeePolicy(policy FeePolicy) Option {
	return func(p *Program) {
		p.feePolicy = policy
	}
}

// WithMetrics counts instruction outcomes and relayer fees.
func WithMetrics(metrics *Metrics) Option {
	return func(p *Program) {
		p.metrics = metrics
	}
}

func New(l *ledger.Ledger, programID solana.PublicKey, tokenBridge *tokenbridge.Bridge, options ...Option) *Program {
	p := &Program{
		ID:          programID,
		ledger:      l,
		wormhole:    tokenBridge.Wormhole(),
		tokenBridge: tokenBridge,
		feePolicy:   ConfiguredFee{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// ChainID is the chain the program is deployed on.
func (p *Program) ChainID() relay.ChainID {
	return p.tokenBridge.ChainID()
}

func (p *Program) TokenBridge() *tokenbridge.Bridge {
	return p.tokenBridge
}

func (p *Program) execute(ctx context.Context, instruction string, fields logrus.Fields, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logrus.WithFields(fields).WithFields(logrus.Fields{
		"program":     p.ID,
		"instruction": instruction,
	})
	err := p.ledger.Atomic(fn)
	p.metrics.observe(instruction, err)
	if err != nil {
		log.WithError(err).Debug("instruction failed")
		return err
	}
	log.Info("instruction succeeded")
	return nil
}

func (p *Program) checkProgram(got, expected solana.PublicKey, name string) error {
	if !got.Equals(expected) {
		return Errorf(InvalidProgramID, "%s program is %s, expected %s", name, got, expected)
	}
	return nil
}

func (p *Program) checkDerived(got, expected solana.PublicKey, name string) error {
	if !got.Equals(expected) {
		return Errorf(InvalidDerivedAddress, "%s is %s, expected %s", name, got, expected)
	}
	return nil
}

type addressCheck struct {
	got, expected solana.PublicKey
	code          Code
}

// checkAll fails with the code of the first supplied address that differs
// from the expected one.
func checkAll(checks ...addressCheck) error {
	for _, c := range checks {
		if !c.got.Equals(c.expected) {
			return Errorf(c.code, "%s does not match %s", c.got, c.expected)
		}
	}
	return nil
}

// checkSysvars verifies the clock and rent sysvar accounts; nil skips one.
func checkSysvars(clock, rent *solana.PublicKey) error {
	if clock != nil && !clock.Equals(solana.SysVarClockPubkey) {
		return Errorf(InvalidSysvar, "clock sysvar is %s", clock)
	}
	if rent != nil && !rent.Equals(solana.SysVarRentPubkey) {
		return Errorf(InvalidSysvar, "rent sysvar is %s", rent)
	}
	return nil
}

func (p *Program) checkSystemPrograms(system, token, associated solana.PublicKey) error {
	if err := p.checkProgram(system, solana.SystemProgramID, "system"); err != nil {
		return err
	}
	if err := p.checkProgram(token, solana.TokenProgramID, "token"); err != nil {
		return err
	}
	return p.checkProgram(associated, solana.SPLAssociatedTokenAccountProgramID, "associated token")
}
