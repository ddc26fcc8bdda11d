package holders

import (
	"io"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/opera-holder-rewards/holders/hstore"
	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/opera"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
	carol = common.HexToAddress("0xc0")
)

// testLedger is a map-backed Ledger and Registry that keeps accounts in
// creation order.
type testLedger struct {
	balances map[common.Address]*big.Int
	order    []common.Address
}

func newTestLedger() *testLedger {
	return &testLedger{balances: make(map[common.Address]*big.Int)}
}

func (l *testLedger) FreeBalance(addr common.Address) *big.Int {
	return inter.CopyBalance(l.balances[addr])
}

func (l *testLedger) DepositCreating(addr common.Address, amount *big.Int) *big.Int {
	if _, ok := l.balances[addr]; !ok {
		l.balances[addr] = new(big.Int)
		l.order = append(l.order, addr)
	}
	l.balances[addr].Add(l.balances[addr], amount)
	return new(big.Int).Set(amount)
}

func (l *testLedger) set(addr common.Address, balance int64) {
	l.DepositCreating(addr, new(big.Int))
	l.balances[addr].SetInt64(balance)
}

func (l *testLedger) balance(addr common.Address) int64 {
	return l.FreeBalance(addr).Int64()
}

func (l *testLedger) AllAccounts() []common.Address {
	return append([]common.Address(nil), l.order...)
}

type testPool struct {
	balance *big.Int
	takes   int
}

func newTestPool(balance int64) *testPool {
	return &testPool{balance: big.NewInt(balance)}
}

func (p *testPool) TakeFrom(purpose inter.Purpose) *big.Int {
	if purpose != inter.HolderRewardsPurpose {
		return new(big.Int)
	}
	p.takes++
	taken := p.balance
	p.balance = new(big.Int)
	return taken
}

func (p *testPool) fund(amount int64) {
	p.balance.Add(p.balance, big.NewInt(amount))
}

func blockOf(n uint64) idx.Block { return idx.Block(n) }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type testEnv struct {
	engine *Engine
	store  *hstore.Store
	ledger *testLedger
	pool   *testPool
}

func newTestEnv(t *testing.T, rules opera.RewardsRules, schedule inter.Schedule) *testEnv {
	env := &testEnv{
		store:  hstore.NewMemStore(),
		ledger: newTestLedger(),
		pool:   newTestPool(0),
	}
	engine, err := New(rules, Backend{
		Store:    env.store,
		Ledger:   env.ledger,
		Registry: env.ledger,
		Pool:     env.pool,
		Auth:     RootAuthorizer{},
	}, testLogger())
	require.NoError(t, err)
	env.engine = engine
	if schedule != nil {
		require.NoError(t, engine.SetSchedule(RootOrigin(), schedule))
	}
	return env
}

// run finalizes blocks from..to inclusive and returns the reports of the
// minting blocks.
func (env *testEnv) run(t *testing.T, from, to uint64) []*CycleReport {
	var reports []*CycleReport
	for b := from; b <= to; b++ {
		report, err := env.engine.OnBlockFinalize(blockOf(b))
		require.NoError(t, err, "block %d", b)
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports
}
