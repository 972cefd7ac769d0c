package ledger

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
)

type TokenAccount struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        solana.PublicKey
	DelegatedAmount uint64
}

type Mint struct {
	Authority solana.PublicKey
	Supply    uint64
	Decimals  uint8
}

// AssociatedTokenAddress returns the associated token account (ATA) for a wallet and mint.
func AssociatedTokenAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	return address, err
}

func (l *Ledger) CreateMint(payer, mint, authority solana.PublicKey, decimals uint8) error {
	return l.allocate(payer, Account{
		Address: mint,
		Owner:   solana.TokenProgramID,
		Kind:    KindMint,
		Mint: Mint{
			Authority: authority,
			Decimals:  decimals,
		},
	}, MintSize)
}

func (l *Ledger) Mint(address solana.PublicKey) (Mint, error) {
	acct, ok := l.Get(address)
	if !ok {
		return Mint{}, fmt.Errorf("%w: mint %s", ErrAccountNotFound, address)
	}
	if acct.Kind != KindMint {
		return Mint{}, fmt.Errorf("%w: %s", ErrNotMint, address)
	}
	return acct.Mint, nil
}

// InitializeTokenAccount allocates a token account for mint at an arbitrary
// address, e.g. a program-derived one.
func (l *Ledger) InitializeTokenAccount(payer, address, mint, owner solana.PublicKey) error {
	if _, err := l.Mint(mint); err != nil {
		return err
	}
	return l.allocate(payer, Account{
		Address: address,
		Owner:   solana.TokenProgramID,
		Kind:    KindToken,
		Token: TokenAccount{
			Mint:  mint,
			Owner: owner,
		},
	}, TokenAccountSize)
}

// CreateAssociatedTokenAccount creates the ATA for (wallet, mint) if it does not
// exist yet and returns its address.
func (l *Ledger) CreateAssociatedTokenAccount(payer, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, err := AssociatedTokenAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if acct, ok := l.Get(ata); ok && acct.Kind == KindToken {
		if !acct.Token.Mint.Equals(mint) || !acct.Token.Owner.Equals(wallet) {
			return solana.PublicKey{}, fmt.Errorf("%w: associated account %s", ErrOwnerMismatch, ata)
		}
		return ata, nil
	}
	return ata, l.InitializeTokenAccount(payer, ata, mint, wallet)
}

func (l *Ledger) TokenAccount(address solana.PublicKey) (TokenAccount, error) {
	acct, ok := l.Get(address)
	if !ok {
		return TokenAccount{}, fmt.Errorf("%w: token account %s", ErrAccountNotFound, address)
	}
	if acct.Kind != KindToken {
		return TokenAccount{}, fmt.Errorf("%w: %s", ErrNotTokenAccount, address)
	}
	return acct.Token, nil
}

// TokenBalance returns zero for accounts that do not exist.
func (l *Ledger) TokenBalance(address solana.PublicKey) uint64 {
	token, err := l.TokenAccount(address)
	if err != nil {
		return 0
	}
	return token.Amount
}

func (l *Ledger) tokenAccount(address solana.PublicKey) (Account, error) {
	acct, ok := l.Get(address)
	if !ok {
		return Account{}, fmt.Errorf("%w: token account %s", ErrAccountNotFound, address)
	}
	if acct.Kind != KindToken {
		return Account{}, fmt.Errorf("%w: %s", ErrNotTokenAccount, address)
	}
	return acct, nil
}

// spend debits amount from a token account on behalf of authority, which must be
// either the owner or a delegate approved for at least amount.
func spend(acct *Account, authority solana.PublicKey, amount uint64) error {
	token := &acct.Token
	switch {
	case token.Owner.Equals(authority):
	case !token.Delegate.IsZero() && token.Delegate.Equals(authority):
		if token.DelegatedAmount < amount {
			return fmt.Errorf("%w: delegate %s approved for %d, needs %d", ErrInsufficientFunds, authority, token.DelegatedAmount, amount)
		}
		token.DelegatedAmount -= amount
		if token.DelegatedAmount == 0 {
			token.Delegate = solana.PublicKey{}
		}
	default:
		return fmt.Errorf("%w: %s is not the owner or delegate of %s", ErrOwnerMismatch, authority, acct.Address)
	}
	if token.Amount < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, acct.Address, token.Amount, amount)
	}
	token.Amount -= amount
	return nil
}

func (l *Ledger) Transfer(from, to, authority solana.PublicKey, amount uint64) error {
	src, err := l.tokenAccount(from)
	if err != nil {
		return err
	}
	dst, err := l.tokenAccount(to)
	if err != nil {
		return err
	}
	if !src.Token.Mint.Equals(dst.Token.Mint) {
		return fmt.Errorf("%w: %s and %s", ErrMintMismatch, from, to)
	}
	if from.Equals(to) {
		return nil
	}
	if err := spend(&src, authority, amount); err != nil {
		return err
	}
	if dst.Token.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	dst.Token.Amount += amount
	l.put(src)
	l.put(dst)
	return nil
}

// Approve lets delegate move up to amount out of account. Only the owner may approve.
func (l *Ledger) Approve(account, owner, delegate solana.PublicKey, amount uint64) error {
	acct, err := l.tokenAccount(account)
	if err != nil {
		return err
	}
	if !acct.Token.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s does not own %s", ErrOwnerMismatch, owner, account)
	}
	acct.Token.Delegate = delegate
	acct.Token.DelegatedAmount = amount
	l.put(acct)
	return nil
}

func (l *Ledger) MintTo(mint, destination, authority solana.PublicKey, amount uint64) error {
	mintAcct, ok := l.Get(mint)
	if !ok || mintAcct.Kind != KindMint {
		return fmt.Errorf("%w: %s", ErrNotMint, mint)
	}
	if !mintAcct.Mint.Authority.Equals(authority) {
		return fmt.Errorf("%w: %s is not the mint authority of %s", ErrOwnerMismatch, authority, mint)
	}
	dst, err := l.tokenAccount(destination)
	if err != nil {
		return err
	}
	if !dst.Token.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, destination)
	}
	if mintAcct.Mint.Supply > math.MaxUint64-amount {
		return ErrOverflow
	}
	mintAcct.Mint.Supply += amount
	dst.Token.Amount += amount
	l.put(mintAcct)
	l.put(dst)
	return nil
}

func (l *Ledger) Burn(account, mint, authority solana.PublicKey, amount uint64) error {
	acct, err := l.tokenAccount(account)
	if err != nil {
		return err
	}
	if !acct.Token.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, account)
	}
	mintAcct, ok := l.Get(mint)
	if !ok || mintAcct.Kind != KindMint {
		return fmt.Errorf("%w: %s", ErrNotMint, mint)
	}
	if err := spend(&acct, authority, amount); err != nil {
		return err
	}
	mintAcct.Mint.Supply -= amount
	l.put(acct)
	l.put(mintAcct)
	return nil
}

// CloseAccount reclaims an empty token account's rent into destination.
func (l *Ledger) CloseAccount(account, destination, authority solana.PublicKey) error {
	acct, err := l.tokenAccount(account)
	if err != nil {
		return err
	}
	if !acct.Token.Owner.Equals(authority) {
		return fmt.Errorf("%w: %s cannot close %s", ErrOwnerMismatch, authority, account)
	}
	if acct.Token.Amount != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrNonZeroBalance, account, acct.Token.Amount)
	}
	return l.Close(account, destination)
}
