// Package hstore keeps the holder rewards engine state in a key-value
// database: the weight schedule, the balance history and the engine progress.
package hstore

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/flushable"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/table"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/inter/iblockproc"
)

var (
	scheduleKey = []byte("s")
	stateKey    = []byte("s")

	errCorruptKey = errors.New("corrupt history key")
)

const historyKeySize = 8 + common.AddressLength

// Store is a kvdb-backed holder rewards store. Writes go to an in-memory
// overlay until Commit flushes them to the underlying database.
type Store struct {
	mainDB kvdb.Store
	dirty  *flushable.Flushable

	table struct {
		// Schedule: "s" -> []inter.ScheduleEntry
		Schedule kvdb.Store `table:"S"`
		// History: block + address -> balance
		History kvdb.Store `table:"H"`
		// State: "s" -> iblockproc.RewardsState
		State kvdb.Store `table:"B"`
	}
}

// New wraps db. Nothing is written to db before the first Commit.
func New(db kvdb.Store) *Store {
	s := &Store{
		mainDB: db,
		dirty:  flushable.Wrap(db),
	}
	s.table.Schedule = table.New(s.dirty, []byte("S"))
	s.table.History = table.New(s.dirty, []byte("H"))
	s.table.State = table.New(s.dirty, []byte("B"))
	return s
}

// NewMemStore returns a Store over a fresh in-memory database.
func NewMemStore() *Store {
	return New(memorydb.New())
}

// Commit flushes all staged writes to the underlying database.
func (s *Store) Commit() error {
	return s.dirty.Flush()
}

// Rollback discards all writes staged since the last Commit.
func (s *Store) Rollback() {
	s.dirty.DropNotFlushed()
}

// Close discards staged writes and closes the underlying database.
func (s *Store) Close() error {
	s.dirty.DropNotFlushed()
	return s.mainDB.Close()
}

// Schedule returns the stored weight schedule. A fresh store has an empty
// schedule.
func (s *Store) Schedule() (inter.Schedule, error) {
	var entries []inter.ScheduleEntry
	ok, err := s.get(s.table.Schedule, scheduleKey, &entries)
	if err != nil || !ok {
		return inter.Schedule{}, err
	}
	return inter.ScheduleFromEntries(entries), nil
}

// SetSchedule replaces the whole weight schedule.
func (s *Store) SetSchedule(schedule inter.Schedule) error {
	return s.set(s.table.Schedule, scheduleKey, schedule.Entries())
}

// Balance returns the balance recorded for addr at block, or zero.
func (s *Store) Balance(block idx.Block, addr common.Address) (*big.Int, error) {
	balance := new(big.Int)
	if _, err := s.get(s.table.History, historyKey(block, addr), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// PutBalance records the balance of addr at block.
func (s *Store) PutBalance(block idx.Block, addr common.Address, balance *big.Int) error {
	return s.set(s.table.History, historyKey(block, addr), inter.CopyBalance(balance))
}

// ForEachBalance calls fn for every account recorded at block, in address
// order, until fn returns false.
func (s *Store) ForEachBalance(block idx.Block, fn func(addr common.Address, balance *big.Int) bool) error {
	it := s.table.History.NewIterator(bigendian.Uint64ToBytes(uint64(block)), nil)
	defer it.Release()
	for it.Next() {
		_, addr, err := parseHistoryKey(it.Key())
		if err != nil {
			return err
		}
		balance := new(big.Int)
		if err := rlp.DecodeBytes(it.Value(), balance); err != nil {
			return fmt.Errorf("decode balance of %s at block %d: %w", addr.Hex(), block, err)
		}
		if !fn(addr, balance) {
			break
		}
	}
	return it.Error()
}

// PruneBefore deletes every history row recorded below cutoff.
func (s *Store) PruneBefore(cutoff idx.Block) (int, error) {
	var keys [][]byte
	it := s.table.History.NewIterator(nil, nil)
	for it.Next() {
		block, _, err := parseHistoryKey(it.Key())
		if err != nil {
			it.Release()
			return 0, err
		}
		if block >= cutoff {
			break
		}
		keys = append(keys, common.CopyBytes(it.Key()))
	}
	err := it.Error()
	it.Release()
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		if err := s.table.History.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// State returns the engine progress, zero for a fresh store.
func (s *Store) State() (iblockproc.RewardsState, error) {
	var state iblockproc.RewardsState
	_, err := s.get(s.table.State, stateKey, &state)
	return state, err
}

// SetState stores the engine progress.
func (s *Store) SetState(state iblockproc.RewardsState) error {
	return s.set(s.table.State, stateKey, &state)
}

func (s *Store) get(t kvdb.Store, key []byte, to interface{}) (bool, error) {
	buf, err := t.Get(key)
	if err != nil {
		return false, err
	}
	if buf == nil {
		return false, nil
	}
	if err := rlp.DecodeBytes(buf, to); err != nil {
		return false, fmt.Errorf("decode %x: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(t kvdb.Store, key []byte, val interface{}) error {
	buf, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return t.Put(key, buf)
}

func historyKey(block idx.Block, addr common.Address) []byte {
	key := make([]byte, 0, historyKeySize)
	key = append(key, bigendian.Uint64ToBytes(uint64(block))...)
	return append(key, addr.Bytes()...)
}

func parseHistoryKey(key []byte) (idx.Block, common.Address, error) {
	if len(key) != historyKeySize {
		return 0, common.Address{}, fmt.Errorf("%w: %x", errCorruptKey, key)
	}
	block := idx.Block(bigendian.BytesToUint64(key[:8]))
	return block, common.BytesToAddress(key[8:]), nil
}
