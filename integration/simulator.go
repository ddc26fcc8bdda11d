package integration

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/opera-holder-rewards/evmcore"
	"github.com/rony4d/opera-holder-rewards/holders"
	"github.com/rony4d/opera-holder-rewards/holders/hstore"
	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/opera"
	"github.com/rony4d/opera-holder-rewards/opera/genesis"
)

var (
	// ErrStorageMismatch is returned when the rewards store and the ledger
	// database were not left at the same block.
	ErrStorageMismatch = errors.New("rewards store and ledger are out of sync")

	errNoMintingBlock = errors.New("no minting block within the step limit")
)

// Simulator produces empty blocks over an in-memory EVM state and finalizes
// each of them through the holder rewards engine. It stands in for the
// chain's block production and budget allocator.
type Simulator struct {
	Engine *holders.Engine
	Ledger *evmcore.StateLedger
	Store  *hstore.Store

	// BeforeBlock, if set, runs before each block is finalized. Tests use it
	// to move balances around.
	BeforeBlock func(block idx.Block, ledger *evmcore.StateLedger)

	rules    opera.Rules
	perCycle *big.Int
	next     idx.Block
	root     common.Hash
	log      logrus.FieldLogger
}

// NewSimulator sets up an engine and a ledger over storage. Fresh storage
// receives the genesis balances and schedule. Used storage keeps its
// schedule and ledger, and the simulation resumes after its last processed
// block.
func NewSimulator(g *genesis.Genesis, rules opera.Rules, preset PresetConfig, storage *Storage, log logrus.FieldLogger) (*Simulator, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if g.Network != rules.Name {
		return nil, fmt.Errorf("genesis of network %q used with %q rules", g.Network, rules.Name)
	}
	state, err := storage.Rewards.State()
	if err != nil {
		return nil, err
	}
	head, err := evmcore.ReadHead(storage.Ledger)
	if err != nil {
		return nil, err
	}

	var (
		ledger *evmcore.StateLedger
		root   common.Hash
		next   = idx.Block(1)
	)
	switch {
	case state.Initialized && head != nil && head.Block == state.LastBlock:
		if ledger, err = evmcore.OpenStateLedger(storage.Ledger, head); err != nil {
			return nil, err
		}
		root = head.Root
		next = state.LastBlock + 1
	case state.Initialized && head != nil:
		return nil, fmt.Errorf("%w: ledger at block %d, rewards at block %d", ErrStorageMismatch, head.Block, state.LastBlock)
	case state.Initialized:
		return nil, fmt.Errorf("%w: no ledger for rewards at block %d", ErrStorageMismatch, state.LastBlock)
	case head != nil:
		return nil, fmt.Errorf("%w: ledger at block %d, rewards store is empty", ErrStorageMismatch, head.Block)
	default:
		if ledger, err = evmcore.NewStateLedgerOn(storage.Ledger); err != nil {
			return nil, err
		}
		if root, err = ledger.ApplyGenesis(g.Balances(), g.Pool.Initial.Big()); err != nil {
			return nil, fmt.Errorf("apply genesis: %w", err)
		}
	}

	engine, err := MakeEngine(rules, preset, holders.Backend{
		Store:    storage.Rewards,
		Ledger:   ledger,
		Registry: ledger,
		Pool:     ledger,
		Auth:     holders.NewAdminSet(g.Admins...),
	}, log)
	if err != nil {
		return nil, err
	}

	if !state.Initialized {
		schedule, err := g.HoldShares()
		if err != nil {
			return nil, err
		}
		if err := engine.SetSchedule(holders.RootOrigin(), schedule); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"network":  rules.Name,
		"accounts": len(g.Accounts),
		"root":     root.Hex(),
		"next":     next,
	}).Info("Simulator initialized")

	return &Simulator{
		Engine:   engine,
		Ledger:   ledger,
		Store:    storage.Rewards,
		rules:    rules,
		perCycle: g.Pool.PerCycle.Big(),
		next:     next,
		root:     root,
		log:      log,
	}, nil
}

// Next returns the number of the block the next Step finalizes.
func (s *Simulator) Next() idx.Block {
	return s.next
}

// Root returns the state root after the last block.
func (s *Simulator) Root() common.Hash {
	return s.root
}

// Step finalizes one block. Minting blocks get the per-cycle budget credited
// to the holder rewards pool first.
func (s *Simulator) Step() (*holders.CycleReport, error) {
	block := s.next
	if s.BeforeBlock != nil {
		s.BeforeBlock(block, s.Ledger)
	}
	if s.rules.Rewards.IsMintingBlock(block) && s.perCycle.Sign() > 0 {
		s.Ledger.Fund(inter.HolderRewardsPurpose, s.perCycle)
	}

	report, err := s.Engine.OnBlockFinalize(block)
	if err != nil {
		return nil, err
	}
	root, err := s.Ledger.CommitBlock(block)
	if err != nil {
		return nil, fmt.Errorf("commit state of block %d: %w", block, err)
	}
	s.root = root
	s.next++

	if report != nil {
		s.log.WithFields(logrus.Fields{
			"block": block,
			"root":  root.Hex(),
		}).Debug("Minting block sealed")
	}
	return report, nil
}

// Run finalizes n blocks and returns the reports of the minting blocks.
func (s *Simulator) Run(n uint64) ([]*holders.CycleReport, error) {
	var reports []*holders.CycleReport
	for i := uint64(0); i < n; i++ {
		report, err := s.Step()
		if err != nil {
			return reports, err
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, nil
}

// RunToNextMinting steps until a minting block has been finalized and
// returns its report.
func (s *Simulator) RunToNextMinting() (*holders.CycleReport, error) {
	for i := idx.Block(0); i <= s.rules.Rewards.MintInterval; i++ {
		report, err := s.Step()
		if err != nil {
			return nil, err
		}
		if report != nil {
			return report, nil
		}
	}
	return nil, errNoMintingBlock
}
