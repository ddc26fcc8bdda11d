package integration

import (
	"io"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/opera-holder-rewards/evmcore"
	"github.com/rony4d/opera-holder-rewards/holders"
	"github.com/rony4d/opera-holder-rewards/holders/hstore"
	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/opera"
	"github.com/rony4d/opera-holder-rewards/opera/genesis"
)

var (
	alice = evmcore.FakeAccount(1)
	bob   = evmcore.FakeAccount(2)
	carol = evmcore.FakeAccount(3)
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fakeGenesis(schedule map[string]uint32, perCycle int64, balances map[common.Address]int64) *genesis.Genesis {
	g := &genesis.Genesis{
		Network:  "fake",
		Schedule: schedule,
		Pool:     genesis.Pool{PerCycle: genesis.NewAmount(big.NewInt(perCycle))},
	}
	for addr, balance := range balances {
		g.Accounts = append(g.Accounts, genesis.Account{Address: addr, Balance: genesis.NewAmount(big.NewInt(balance))})
	}
	return g
}

func newTestSimulator(t *testing.T, g *genesis.Genesis) *Simulator {
	require.NoError(t, g.Validate())
	sim, err := NewSimulator(g, opera.FakeNetRules(), LitePreset(), NewMemStorage(), quietLogger())
	require.NoError(t, err)
	return sim
}

func balanceOf(sim *Simulator, addr common.Address) int64 {
	return sim.Ledger.FreeBalance(addr).Int64()
}

// fundAt credits amount to the pool right before block.
func fundAt(at idx.Block, amount int64) func(idx.Block, *evmcore.StateLedger) {
	return func(block idx.Block, ledger *evmcore.StateLedger) {
		if block == at {
			ledger.Fund(inter.HolderRewardsPurpose, big.NewInt(amount))
		}
	}
}

func TestSimulatorSingleHolder(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1}, 100000, map[common.Address]int64{alice: 1000}))

	reports, err := sim.Run(20)
	require.NoError(err)
	require.Len(reports, 2)
	require.Equal(int64(1000+2*100000), balanceOf(sim, alice))
	require.Equal(idx.Block(21), sim.Next())
	require.NotEqual(common.Hash{}, sim.Root())
}

func TestSimulatorManyHolders(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1}, 100000, map[common.Address]int64{
		alice: 1000,
		bob:   1000,
		carol: 1000,
	}))

	report, err := sim.RunToNextMinting()
	require.NoError(err)
	require.Equal(idx.Block(10), report.Block)
	require.Equal(int64(1), report.Remainder.Int64())
	for _, addr := range []common.Address{alice, bob, carol} {
		require.Equal(int64(1000+33333), balanceOf(sim, addr))
	}
}

func TestSimulatorProportional(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1}, 100000, map[common.Address]int64{
		alice: 2000,
		bob:   1000,
		carol: 1000,
	}))

	_, err := sim.RunToNextMinting()
	require.NoError(err)
	require.Equal(int64(2000+50000), balanceOf(sim, alice))
	require.Equal(int64(1000+25000), balanceOf(sim, bob))
	require.Equal(int64(1000+25000), balanceOf(sim, carol))
}

func TestSimulatorOlderCoins(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1, "10": 1}, 0, map[common.Address]int64{
		alice: 1000,
		carol: 1000,
	}))
	sim.BeforeBlock = func(block idx.Block, ledger *evmcore.StateLedger) {
		if block == 15 {
			require.NoError(ledger.Transfer(carol, bob, big.NewInt(1000)))
		}
		fundAt(20, 90000)(block, ledger)
	}

	reports, err := sim.Run(20)
	require.NoError(err)
	require.Len(reports, 2)
	// alice held since block 10, bob only since block 15
	require.Equal(int64(3000), reports[1].TotalScore.Int64())
	require.Equal(int64(1000+60000), balanceOf(sim, alice))
	require.Equal(int64(1000+30000), balanceOf(sim, bob))
	require.Zero(balanceOf(sim, carol))
}

func TestSimulatorTransfer(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1, "10": 1}, 0, map[common.Address]int64{
		alice: 1000,
		bob:   1000,
	}))
	sim.BeforeBlock = func(block idx.Block, ledger *evmcore.StateLedger) {
		if block == 15 {
			require.NoError(ledger.Transfer(alice, carol, big.NewInt(500)))
		}
		fundAt(20, 70000)(block, ledger)
	}

	_, err := sim.Run(20)
	require.NoError(err)
	require.Equal(int64(500+20000), balanceOf(sim, alice))
	require.Equal(int64(1000+40000), balanceOf(sim, bob))
	require.Equal(int64(500+10000), balanceOf(sim, carol))
}

func TestSimulatorIntermittentDrop(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1, "10": 1, "20": 1}, 0, map[common.Address]int64{
		alice: 1000,
		bob:   1000,
	}))
	sim.BeforeBlock = func(block idx.Block, ledger *evmcore.StateLedger) {
		switch block {
		case 20:
			require.NoError(ledger.Transfer(bob, carol, big.NewInt(1000)))
		case 21:
			require.NoError(ledger.Transfer(carol, bob, big.NewInt(1000)))
		}
		fundAt(30, 40000)(block, ledger)
	}

	reports, err := sim.Run(30)
	require.NoError(err)
	require.Len(reports, 3)
	require.Equal(int64(4000), reports[2].TotalScore.Int64())
	require.Equal(int64(1000+30000), balanceOf(sim, alice))
	require.Equal(int64(1000+10000), balanceOf(sim, bob))
	require.Zero(balanceOf(sim, carol))
}

func TestSimulatorZeroScoreKeepsPool(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1}, 500, nil))

	report, err := sim.RunToNextMinting()
	require.NoError(err)
	require.Equal(holders.SkipZeroScore, report.Skipped)
	require.Equal(int64(500), sim.Ledger.PoolBalance(inter.HolderRewardsPurpose).Int64())

	// the budget keeps accumulating until somebody holds coins
	report, err = sim.RunToNextMinting()
	require.NoError(err)
	require.Equal(holders.SkipZeroScore, report.Skipped)
	require.Equal(int64(1000), sim.Ledger.PoolBalance(inter.HolderRewardsPurpose).Int64())
}

func TestSimulatorConservesSupply(t *testing.T) {
	require := require.New(t)
	sim := newTestSimulator(t, fakeGenesis(map[string]uint32{"0": 1, "10": 2}, 1000, map[common.Address]int64{
		alice: 7,
		bob:   11,
		carol: 13,
	}))

	reports, err := sim.Run(50)
	require.NoError(err)
	require.Len(reports, 5)

	var remainder int64
	for _, r := range reports {
		require.Equal(r.Pool.Int64(), r.Distributed().Int64()+r.Remainder.Int64())
		remainder += r.Remainder.Int64()
	}
	// floor-division dust leaves the pool and is not credited to anybody
	require.Equal(int64(7+11+13+5*1000)-remainder, sim.Ledger.TotalSupply().Int64())
}

func TestSimulatorResumes(t *testing.T) {
	require := require.New(t)
	storage := NewMemStorage()
	g := fakeGenesis(map[string]uint32{"0": 1}, 1000, map[common.Address]int64{alice: 1000})

	sim, err := NewSimulator(g, opera.FakeNetRules(), LitePreset(), storage, quietLogger())
	require.NoError(err)
	sim.BeforeBlock = func(block idx.Block, ledger *evmcore.StateLedger) {
		if block == 12 {
			require.NoError(ledger.Transfer(alice, bob, big.NewInt(500)))
		}
	}
	_, err = sim.Run(15)
	require.NoError(err)
	require.Equal(int64(1500), balanceOf(sim, alice))
	root := sim.Root()

	// a changed genesis doesn't override the stored schedule or ledger
	g.Schedule = map[string]uint32{"5": 9}
	g.Pool.Initial = genesis.NewAmount(big.NewInt(1e6))
	sim, err = NewSimulator(g, opera.FakeNetRules(), LitePreset(), storage, quietLogger())
	require.NoError(err)
	require.Equal(idx.Block(16), sim.Next())
	require.Equal(root, sim.Root())
	schedule, err := sim.Engine.Schedule()
	require.NoError(err)
	require.Equal(inter.Schedule{0: 1}, schedule)

	require.Equal(int64(1500), balanceOf(sim, alice))
	require.Equal(int64(500), balanceOf(sim, bob))
	require.Equal(0, sim.Ledger.PoolBalance(inter.HolderRewardsPurpose).Sign())
	require.ElementsMatch([]common.Address{alice, bob}, sim.Ledger.AllAccounts())

	// the next cycle scores the balances left by the first run
	report, err := sim.RunToNextMinting()
	require.NoError(err)
	require.Equal(idx.Block(20), report.Block)
	require.Equal(int64(1500+750), balanceOf(sim, alice))
	require.Equal(int64(500+250), balanceOf(sim, bob))
}

func TestSimulatorRefusesMismatchedStorage(t *testing.T) {
	require := require.New(t)
	g := fakeGenesis(map[string]uint32{"0": 1}, 1000, map[common.Address]int64{alice: 1000})

	storage := NewMemStorage()
	sim, err := NewSimulator(g, opera.FakeNetRules(), LitePreset(), storage, quietLogger())
	require.NoError(err)
	_, err = sim.Run(3)
	require.NoError(err)

	// rewards progress without its ledger
	lost := &Storage{Rewards: storage.Rewards, Ledger: NewMemStorage().Ledger}
	_, err = NewSimulator(g, opera.FakeNetRules(), LitePreset(), lost, quietLogger())
	require.ErrorIs(err, ErrStorageMismatch)

	// a ledger without rewards progress
	orphan := &Storage{Rewards: hstore.NewMemStore(), Ledger: storage.Ledger}
	_, err = NewSimulator(g, opera.FakeNetRules(), LitePreset(), orphan, quietLogger())
	require.ErrorIs(err, ErrStorageMismatch)

	// the rewards store ran ahead of the ledger
	ahead := NewMemStorage()
	sim, err = NewSimulator(g, opera.FakeNetRules(), LitePreset(), ahead, quietLogger())
	require.NoError(err)
	_, err = sim.Run(2)
	require.NoError(err)
	_, err = sim.Engine.OnBlockFinalize(3)
	require.NoError(err)
	_, err = NewSimulator(g, opera.FakeNetRules(), LitePreset(), ahead, quietLogger())
	require.ErrorIs(err, ErrStorageMismatch)
}
