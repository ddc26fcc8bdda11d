// Package evmcore backs the holder rewards engine with an EVM state database.
//
// StateLedger keeps account balances in a go-ethereum StateDB and serves as
// the engine's balance service, account registry and budget allocator at the
// same time. Reward pools are ordinary state accounts at addresses derived
// from their purpose tag.
package evmcore

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/opera-holder-rewards/inter"
)

var (
	// ErrInsufficientBalance is returned by Transfer when the sender can't
	// cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")

	errNegativeAmount = errors.New("negative amount")
)

var headKey = []byte("opera-holders-ledger-head")

// Head describes the ledger state committed after a block: the state root
// and the accounts the registry knew at that point.
type Head struct {
	Block    idx.Block
	Root     common.Hash
	Accounts []common.Address
	Pools    []common.Address
}

// PoolAddress returns the state account holding the pool tagged purpose.
func PoolAddress(purpose inter.Purpose) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("opera/holders/pool"), []byte{byte(purpose)}))
}

// StateLedger adapts a StateDB to the engine's ledger, registry and pool
// interfaces. It is safe for concurrent use.
type StateLedger struct {
	mu       sync.Mutex
	statedb  *state.StateDB
	accounts map[common.Address]struct{}
	pools    map[common.Address]struct{}
}

// NewStateLedger wraps statedb. Accounts already present in the state are
// not discovered; they become known when first credited or listed through
// Track. Use OpenStateLedger to resume from a committed Head.
func NewStateLedger(statedb *state.StateDB) *StateLedger {
	return &StateLedger{
		statedb:  statedb,
		accounts: make(map[common.Address]struct{}),
		pools: map[common.Address]struct{}{
			PoolAddress(inter.HolderRewardsPurpose): {},
		},
	}
}

// NewMemoryStateLedger returns a StateLedger over an empty in-memory state.
func NewMemoryStateLedger() (*StateLedger, error) {
	return NewStateLedgerOn(rawdb.NewMemoryDatabase())
}

// NewStateLedgerOn opens an empty state on db.
func NewStateLedgerOn(db ethdb.Database) (*StateLedger, error) {
	statedb, err := state.New(common.Hash{}, state.NewDatabase(db), nil)
	if err != nil {
		return nil, err
	}
	return NewStateLedger(statedb), nil
}

// OpenStateLedger reopens the state committed with head on db, with the
// registry restored from the head's account list.
func OpenStateLedger(db ethdb.Database, head *Head) (*StateLedger, error) {
	statedb, err := state.New(head.Root, state.NewDatabase(db), nil)
	if err != nil {
		return nil, fmt.Errorf("open state %s of block %d: %w", head.Root.Hex(), head.Block, err)
	}
	l := NewStateLedger(statedb)
	for _, addr := range head.Pools {
		l.pools[addr] = struct{}{}
	}
	for _, addr := range head.Accounts {
		l.track(addr)
	}
	return l, nil
}

// ReadHead returns the head stored in db, or nil if no block was committed.
func ReadHead(db ethdb.KeyValueReader) (*Head, error) {
	ok, err := db.Has(headKey)
	if err != nil || !ok {
		return nil, err
	}
	raw, err := db.Get(headKey)
	if err != nil {
		return nil, err
	}
	head := new(Head)
	if err := rlp.DecodeBytes(raw, head); err != nil {
		return nil, fmt.Errorf("decode ledger head: %w", err)
	}
	return head, nil
}

// Track makes addr known to the registry without changing its balance.
func (l *StateLedger) Track(addr common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.track(addr)
}

func (l *StateLedger) track(addr common.Address) {
	if _, ok := l.pools[addr]; ok {
		return
	}
	l.accounts[addr] = struct{}{}
}

// FreeBalance returns a copy of the balance of addr.
func (l *StateLedger) FreeBalance(addr common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	// StateDB hands out its internal pointer
	return inter.CopyBalance(l.statedb.GetBalance(addr))
}

// DepositCreating credits amount to addr, creating the account if needed.
func (l *StateLedger) DepositCreating(addr common.Address, amount *big.Int) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.track(addr)
	deposit := inter.CopyBalance(amount)
	l.statedb.AddBalance(addr, deposit)
	return deposit
}

// SetBalance overwrites the balance of addr.
func (l *StateLedger) SetBalance(addr common.Address, balance *big.Int) error {
	if balance != nil && balance.Sign() < 0 {
		return errNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.track(addr)
	l.statedb.SetBalance(addr, inter.CopyBalance(balance))
	return nil
}

// Transfer moves amount from one account to another.
func (l *StateLedger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.statedb.GetBalance(from).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.track(to)
	l.statedb.SubBalance(from, new(big.Int).Set(amount))
	l.statedb.AddBalance(to, new(big.Int).Set(amount))
	return nil
}

// AllAccounts returns every known account except the pools, sorted by address.
func (l *StateLedger) AllAccounts() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedAddresses(l.accounts)
}

func sortedAddresses(set map[common.Address]struct{}) []common.Address {
	addrs := make([]common.Address, 0, len(set))
	for addr := range set {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i].Bytes(), addrs[j].Bytes()) < 0
	})
	return addrs
}

// TakeFrom empties the pool tagged purpose and returns what it held.
func (l *StateLedger) TakeFrom(purpose inter.Purpose) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	pool := PoolAddress(purpose)
	taken := inter.CopyBalance(l.statedb.GetBalance(pool))
	l.statedb.SetBalance(pool, new(big.Int))
	return taken
}

// Fund credits amount to the pool tagged purpose.
func (l *StateLedger) Fund(purpose inter.Purpose, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pool := PoolAddress(purpose)
	l.pools[pool] = struct{}{}
	l.statedb.AddBalance(pool, inter.CopyBalance(amount))
}

// PoolBalance returns the current balance of the pool tagged purpose.
func (l *StateLedger) PoolBalance(purpose inter.Purpose) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return inter.CopyBalance(l.statedb.GetBalance(PoolAddress(purpose)))
}

// TotalSupply sums the balances of all known accounts and pools.
func (l *StateLedger) TotalSupply() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := new(big.Int)
	for addr := range l.accounts {
		sum.Add(sum, l.statedb.GetBalance(addr))
	}
	for addr := range l.pools {
		sum.Add(sum, l.statedb.GetBalance(addr))
	}
	return sum
}

// Commit writes the pending state to the trie database and returns the new
// state root.
func (l *StateLedger) Commit() (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return flush(l.statedb, false)
}

// CommitBlock commits the pending state like Commit and records it as the
// head of block, so that OpenStateLedger can resume from it.
func (l *StateLedger) CommitBlock(block idx.Block) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	root, err := flush(l.statedb, false)
	if err != nil {
		return root, err
	}
	raw, err := rlp.EncodeToBytes(&Head{
		Block:    block,
		Root:     root,
		Accounts: sortedAddresses(l.accounts),
		Pools:    sortedAddresses(l.pools),
	})
	if err != nil {
		return root, err
	}
	if err := l.statedb.Database().TrieDB().DiskDB().Put(headKey, raw); err != nil {
		return root, fmt.Errorf("write ledger head of block %d: %w", block, err)
	}
	return root, nil
}
