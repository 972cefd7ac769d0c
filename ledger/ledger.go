// Package ledger is the in-memory host the relay programs execute against.
//
// It holds every account in a single ordered map keyed by address, charges rent
// when accounts are allocated and provides an all-or-nothing call wrapper: the
// map is snapshotted when a call starts and restored if the call fails.
package ledger

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/btree"
)

type Kind uint8

const (
	KindSystem Kind = iota
	KindData
	KindToken
	KindMint
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindData:
		return "data"
	case KindToken:
		return "token"
	case KindMint:
		return "mint"
	default:
		return "unknown"
	}
}

// Account is stored by value; the ledger never hands out references into its state.
type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Kind     Kind
	Data     []byte
	Token    TokenAccount
	Mint     Mint
}

func (a Account) clone() Account {
	if a.Data != nil {
		a.Data = bytes.Clone(a.Data)
	}
	return a
}

func byAddress(a, b Account) bool {
	return bytes.Compare(a.Address[:], b.Address[:]) < 0
}

type Ledger struct {
	mu       sync.Mutex
	accounts *btree.BTreeG[Account]
	rent     Rent
}

type Option func(*Ledger)

func WithRent(rent Rent) Option {
	return func(l *Ledger) {
		l.rent = rent
	}
}

func New(options ...Option) *Ledger {
	l := &Ledger{
		accounts: btree.NewBTreeG(byAddress),
		rent:     DefaultRent,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *Ledger) Rent() Rent {
	return l.rent
}

// Atomic runs fn as a single call. Calls are serialized, and if fn returns an
// error or panics every account change made during the call is discarded.
func (l *Ledger) Atomic(fn func() error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.accounts.Copy()
	defer func() {
		if r := recover(); r != nil {
			l.accounts = snapshot
			panic(r)
		}
		if err != nil {
			l.accounts = snapshot
		}
	}()
	return fn()
}

func (l *Ledger) Get(address solana.PublicKey) (Account, bool) {
	acct, ok := l.accounts.Get(Account{Address: address})
	if !ok {
		return Account{}, false
	}
	return acct.clone(), true
}

func (l *Ledger) Exists(address solana.PublicKey) bool {
	_, ok := l.accounts.Get(Account{Address: address})
	return ok
}

// Allocated reports whether address holds an account created by a program,
// as opposed to nothing or a system account that only holds lamports.
func (l *Ledger) Allocated(address solana.PublicKey) bool {
	acct, ok := l.accounts.Get(Account{Address: address})
	return ok && acct.Kind != KindSystem
}

func (l *Ledger) put(acct Account) {
	l.accounts.Set(acct.clone())
}

func (l *Ledger) Len() int {
	return l.accounts.Len()
}

// Accounts returns every account owned by owner, in address order.
func (l *Ledger) Accounts(owner solana.PublicKey) []Account {
	var out []Account
	l.accounts.Scan(func(acct Account) bool {
		if acct.Owner.Equals(owner) {
			out = append(out, acct.clone())
		}
		return true
	})
	return out
}

func (l *Ledger) Lamports(address solana.PublicKey) uint64 {
	acct, ok := l.Get(address)
	if !ok {
		return 0
	}
	return acct.Lamports
}

// Airdrop credits lamports, creating a system account when needed.
func (l *Ledger) Airdrop(address solana.PublicKey, lamports uint64) {
	acct, ok := l.Get(address)
	if !ok {
		acct = Account{Address: address, Owner: solana.SystemProgramID, Kind: KindSystem}
	}
	acct.Lamports += lamports
	l.put(acct)
}

func (l *Ledger) TransferLamports(from, to solana.PublicKey, lamports uint64) error {
	if from.Equals(to) {
		return nil
	}
	src, ok := l.Get(from)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	if src.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientLamports, from, src.Lamports, lamports)
	}
	dst, ok := l.Get(to)
	if !ok {
		dst = Account{Address: to, Owner: solana.SystemProgramID, Kind: KindSystem}
	}
	src.Lamports -= lamports
	dst.Lamports += lamports
	l.put(src)
	l.put(dst)
	return nil
}

// allocate creates an account funded to rent exemption by payer. A system
// account already holding lamports at the address is taken over and the payer
// only covers the shortfall.
func (l *Ledger) allocate(payer solana.PublicKey, acct Account, space int) error {
	var funded uint64
	if existing, ok := l.Get(acct.Address); ok {
		if existing.Kind != KindSystem {
			return fmt.Errorf("%w: %s", ErrAccountExists, acct.Address)
		}
		funded = existing.Lamports
	}
	lamports := l.rent.MinimumBalance(space)
	var shortfall uint64
	if funded < lamports {
		shortfall = lamports - funded
	}
	if shortfall > 0 {
		payerAcct, ok := l.Get(payer)
		if !ok || payerAcct.Lamports < shortfall {
			return fmt.Errorf("%w: payer %s cannot fund %d lamports of rent", ErrInsufficientLamports, payer, shortfall)
		}
		payerAcct.Lamports -= shortfall
		l.put(payerAcct)
	}

	acct.Lamports = funded + shortfall
	l.put(acct)
	logrus.WithFields(logrus.Fields{
		"address":  acct.Address,
		"owner":    acct.Owner,
		"kind":     acct.Kind,
		"lamports": acct.Lamports,
		"paid":     shortfall,
	}).Trace("allocated account")
	return nil
}

// CreateAccount allocates a data account owned by owner.
func (l *Ledger) CreateAccount(payer, address, owner solana.PublicKey, data []byte) error {
	return l.allocate(payer, Account{
		Address: address,
		Owner:   owner,
		Kind:    KindData,
		Data:    data,
	}, len(data))
}

// WriteData replaces the data of an existing account; only its owner may write.
func (l *Ledger) WriteData(address, owner solana.PublicKey, data []byte) error {
	acct, ok := l.Get(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if !acct.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s is owned by %s", ErrOwnerMismatch, address, acct.Owner)
	}
	if acct.Kind != KindData {
		return fmt.Errorf("cannot write data to %s account %s", acct.Kind, address)
	}
	acct.Data = data
	l.put(acct)
	return nil
}

// Data returns the data of an account, checking that owner owns it.
func (l *Ledger) Data(address, owner solana.PublicKey) ([]byte, error) {
	acct, ok := l.Get(address)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if !acct.Owner.Equals(owner) {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrOwnerMismatch, address, acct.Owner)
	}
	return acct.Data, nil
}

// Close removes an account and moves its lamports to destination.
func (l *Ledger) Close(address, destination solana.PublicKey) error {
	acct, ok := l.Get(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	l.accounts.Delete(acct)
	dst, ok := l.Get(destination)
	if !ok {
		dst = Account{Address: destination, Owner: solana.SystemProgramID, Kind: KindSystem}
	}
	dst.Lamports += acct.Lamports
	l.put(dst)
	return nil
}
