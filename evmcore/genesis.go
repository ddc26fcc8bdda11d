// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package evmcore

import (
	"crypto/ecdsa"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/opera-holder-rewards/inter"
)

// ApplyGenesis credits the initial balances and the initial holder rewards
// pool, then commits the state.
//
// Process:
//  1. Sets initial balances for all specified accounts
//  2. Funds the holder rewards pool
//  3. Commits the state to the database and returns the state root
//
// Example:
//
//	balances := map[common.Address]*big.Int{
//	    common.HexToAddress("0x123..."): big.NewInt(1000000000000000000), // 1 FTM
//	}
//	root, err := ledger.ApplyGenesis(balances, big.NewInt(0))
func (l *StateLedger) ApplyGenesis(balances map[common.Address]*big.Int, pool *big.Int) (common.Hash, error) {
	for acc, balance := range balances {
		if err := l.SetBalance(acc, balance); err != nil {
			return common.Hash{}, err
		}
	}
	if pool != nil && pool.Sign() > 0 {
		l.Fund(inter.HolderRewardsPurpose, pool)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// a clean commit: accounts with a zero balance don't make it into the trie
	return flush(l.statedb, true)
}

// MustApplyGenesis is a convenience wrapper around ApplyGenesis that panics on error.
func (l *StateLedger) MustApplyGenesis(balances map[common.Address]*big.Int, pool *big.Int) common.Hash {
	root, err := l.ApplyGenesis(balances, pool)
	if err != nil {
		logrus.WithError(err).Panic("ApplyGenesis")
	}
	return root
}

// flush commits state changes to the database and returns the state root hash.
//
// This function performs a two-phase commit:
//  1. Commits pending state changes to the state trie
//  2. Commits the trie to the underlying database
//
// With clean=false the trie cache is capped afterwards to bound memory use.
func flush(statedb *state.StateDB, clean bool) (root common.Hash, err error) {
	root, err = statedb.Commit(clean)
	if err != nil {
		return
	}

	err = statedb.Database().TrieDB().Commit(root, false, nil)
	if err != nil {
		return
	}

	if !clean {
		err = statedb.Database().TrieDB().Cap(0)
	}

	return
}

// FakeKey generates a deterministic fake private key for testing purposes.
//
// Given the same input n it always generates the same key, which gives
// simulations and tests reproducible holder accounts.
//
// Example:
//
//	key0 := FakeKey(0)  // First fake key
//	key1 := FakeKey(1)  // Second fake key (different from key0)
//	key0Again := FakeKey(0)  // Same as key0 (deterministic)
func FakeKey(n int) *ecdsa.PrivateKey {
	reader := rand.New(rand.NewSource(int64(n)))

	// ecdsa.GenerateKey may consume extra entropy, so derive the scalar directly
	seed := make([]byte, 32)
	reader.Read(seed)
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		panic(err)
	}

	return key
}

// FakeAccount returns the address of FakeKey(n).
func FakeAccount(n int) common.Address {
	return crypto.PubkeyToAddress(FakeKey(n).PublicKey)
}

// FakeGenesis returns n fake accounts, each holding balance.
func FakeGenesis(n int, balance *big.Int) map[common.Address]*big.Int {
	balances := make(map[common.Address]*big.Int, n)
	for i := 0; i < n; i++ {
		balances[FakeAccount(i)] = new(big.Int).Set(balance)
	}
	return balances
}
