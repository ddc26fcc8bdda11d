// Package holders implements the coin-age weighted holder rewards engine.
//
// Every block the engine first records the balances that a future minting
// block will look back at, then, on minting blocks, scores every account
// from that history and splits the holder rewards pool proportionally.
//
// The engine is driven by a single caller, once per block, in increasing
// block order. It holds no locks.
package holders

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/inter/iblockproc"
	"github.com/rony4d/opera-holder-rewards/metrics"
	"github.com/rony4d/opera-holder-rewards/opera"
)

// Backend bundles the engine's collaborators.
type Backend struct {
	Store    Store
	Ledger   Ledger
	Registry Registry
	Pool     TokenDistribution
	Auth     Authorizer
}

func (b Backend) validate() error {
	switch {
	case b.Store == nil:
		return fmt.Errorf("%w: store", ErrMissingBackend)
	case b.Ledger == nil:
		return fmt.Errorf("%w: ledger", ErrMissingBackend)
	case b.Registry == nil:
		return fmt.Errorf("%w: registry", ErrMissingBackend)
	case b.Pool == nil:
		return fmt.Errorf("%w: pool", ErrMissingBackend)
	case b.Auth == nil:
		return fmt.Errorf("%w: authorizer", ErrMissingBackend)
	}
	return nil
}

// Engine wires the Admin, the Recorder and the Distributor to one store.
type Engine struct {
	*Admin

	store       Store
	recorder    *Recorder
	distributor *Distributor
	rules       opera.RewardsRules
	log         logrus.FieldLogger

	cycleFeed event.Feed
}

// New builds an Engine. The rules are validated and copied.
func New(rules opera.RewardsRules, backend Backend, log logrus.FieldLogger) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rewards rules: %w", err)
	}
	if err := backend.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	rules = rules.Copy()

	return &Engine{
		Admin:       NewAdmin(backend.Store, backend.Auth, log),
		store:       backend.Store,
		recorder:    NewRecorder(rules, backend.Store, backend.Ledger, backend.Registry),
		distributor: NewDistributor(rules, backend.Store, backend.Ledger, backend.Registry, backend.Pool, log),
		rules:       rules,
		log:         log,
	}, nil
}

// Rules returns a copy of the engine's rewards rules.
func (e *Engine) Rules() opera.RewardsRules {
	return e.rules.Copy()
}

// State returns the engine's progress after the last processed block.
func (e *Engine) State() (iblockproc.RewardsState, error) {
	return e.store.State()
}

// SubscribeCycles delivers a report for every minting block to ch.
func (e *Engine) SubscribeCycles(ch chan<- *CycleReport) event.Subscription {
	return e.cycleFeed.Subscribe(ch)
}

// OnBlockFinalize is the per-block hook. It must be called exactly once per
// block, after transaction processing and before the block is sealed, with
// strictly increasing block numbers.
//
// It returns a report on minting blocks and nil otherwise. Store writes are
// staged and committed together; on any error nothing is committed and
// neither the pool nor the ledger has been touched. Overflowing or all-zero
// scores are not errors: the cycle is reported as skipped.
func (e *Engine) OnBlockFinalize(block idx.Block) (*CycleReport, error) {
	start := time.Now()
	report, err := e.onBlockFinalize(block)
	metrics.BlockDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.store.Rollback()
		metrics.BlocksProcessed.WithLabelValues("error").Inc()
		e.log.WithError(err).WithField("block", block).Error("Holder rewards block failed")
		return nil, err
	}
	metrics.BlocksProcessed.WithLabelValues("ok").Inc()
	metrics.LastBlock.Set(float64(block))
	return report, nil
}

func (e *Engine) onBlockFinalize(block idx.Block) (*CycleReport, error) {
	state, err := e.store.State()
	if err != nil {
		return nil, fmt.Errorf("read rewards state: %w", err)
	}
	if !state.Accepts(block) {
		return nil, fmt.Errorf("%w: got %d after %d", ErrBlockOutOfOrder, block, state.LastBlock)
	}
	schedule, err := e.store.Schedule()
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	rows, err := e.recorder.Record(block, schedule)
	if err != nil {
		return nil, err
	}

	plan, err := e.distributor.Plan(block, schedule)
	if err != nil {
		return nil, err
	}

	state.Initialized = true
	state.LastBlock = block
	var pruned int
	if plan != nil {
		state.LastMint = block
		if plan.Skipped == NotSkipped {
			state.Cycles++
		} else {
			state.Skipped++
		}
		pruned, err = e.prune(block, schedule)
		if err != nil {
			return nil, err
		}
		state.Pruned += uint64(pruned)
	}
	if err := e.store.SetState(state); err != nil {
		return nil, fmt.Errorf("write rewards state: %w", err)
	}
	if err := e.store.Commit(); err != nil {
		return nil, fmt.Errorf("commit block %d: %w", block, err)
	}
	metrics.SnapshotRows.Add(float64(rows))
	metrics.PrunedRows.Add(float64(pruned))

	if plan == nil {
		return nil, nil
	}

	// Everything fallible is committed; only infallible ledger calls remain.
	report := e.distributor.Apply(plan)
	e.logCycle(report, rows, pruned)
	e.cycleFeed.Send(report)
	return report, nil
}

// prune drops history no future minting block can read. The next minting
// block reads at most MaxOffset blocks back; RetentionSlack keeps extra rows
// in case the schedule is extended.
func (e *Engine) prune(block idx.Block, schedule inter.Schedule) (int, error) {
	if e.rules.Retention == opera.RetainAll {
		return 0, nil
	}
	keepFrom := e.rules.NextMintingBlock(block)
	window := schedule.MaxOffset() + e.rules.RetentionSlack
	if window < schedule.MaxOffset() || window >= keepFrom {
		return 0, nil
	}
	pruned, err := e.store.PruneBefore(keepFrom - window)
	if err != nil {
		return 0, fmt.Errorf("prune history before %d: %w", keepFrom-window, err)
	}
	return pruned, nil
}

func (e *Engine) logCycle(report *CycleReport, rows, pruned int) {
	metrics.CyclesTotal.WithLabelValues(report.Skipped.String()).Inc()
	distributed := report.Distributed()
	if report.Skipped == NotSkipped {
		f, _ := new(big.Float).SetInt(distributed).Float64()
		metrics.MintedTotal.Add(f)
	}

	e.log.WithFields(logrus.Fields{
		"block":       report.Block,
		"outcome":     report.Skipped.String(),
		"pool":        report.Pool.String(),
		"total_score": report.TotalScore.String(),
		"payouts":     len(report.Payouts),
		"distributed": distributed.String(),
		"remainder":   report.Remainder.String(),
		"snapshot":    rows,
		"pruned":      pruned,
	}).Info("Holder rewards cycle")
}
