package holders

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/opera"
)

// SkipReason explains why a minting cycle paid nothing out.
type SkipReason uint8

const (
	// NotSkipped means the pool was withdrawn and distributed.
	NotSkipped SkipReason = iota
	// SkipZeroScore means no account had an eligible balance.
	SkipZeroScore
	// SkipOverflow means a score exceeded the balance bound.
	SkipOverflow
)

func (r SkipReason) String() string {
	switch r {
	case NotSkipped:
		return "distributed"
	case SkipZeroScore:
		return "zero_score"
	case SkipOverflow:
		return "overflow"
	default:
		return fmt.Sprintf("SkipReason(%d)", uint8(r))
	}
}

// AccountScore is the weighted score of one account in one cycle.
type AccountScore struct {
	Account common.Address
	Score   *big.Int
}

// Plan is a computed but not yet applied distribution. Building a plan only
// reads the store; applying it is the only step touching the ledger.
type Plan struct {
	Block      idx.Block
	Scores     []AccountScore // registry order, zero scores included
	TotalScore *big.Int
	Skipped    SkipReason
}

// Payout is the reward credited to one account.
type Payout struct {
	Account common.Address
	Score   *big.Int
	Reward  *big.Int
}

// CycleReport describes the outcome of a minting block.
type CycleReport struct {
	Block      idx.Block
	Pool       *big.Int // amount withdrawn from the pool, zero when skipped
	TotalScore *big.Int
	Payouts    []Payout
	Remainder  *big.Int // pool left undistributed by floor division
	Skipped    SkipReason
}

// Distributed returns the sum of all payouts.
func (r *CycleReport) Distributed() *big.Int {
	sum := new(big.Int)
	for _, p := range r.Payouts {
		sum.Add(sum, p.Reward)
	}
	return sum
}

// Distributor converts balance history and the weight schedule into rewards.
type Distributor struct {
	store    Store
	ledger   Ledger
	registry Registry
	pool     TokenDistribution
	rules    opera.RewardsRules
	log      logrus.FieldLogger
}

// NewDistributor returns a Distributor.
func NewDistributor(rules opera.RewardsRules, store Store, ledger Ledger, registry Registry, pool TokenDistribution, log logrus.FieldLogger) *Distributor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Distributor{store: store, ledger: ledger, registry: registry, pool: pool, rules: rules, log: log}
}

// Score computes the score of addr at block.
//
// Offsets are walked from the most recent to the oldest. Each offset
// contributes shares times the lowest balance seen at this or any more
// recent checkpoint, so balance only counts for an offset if it was held
// continuously since then. Offsets reaching before block 0 contribute nothing.
func (d *Distributor) Score(block idx.Block, addr common.Address, schedule inter.Schedule) (*big.Int, error) {
	max := d.rules.MaxBalance
	runningMin := new(big.Int).Set(max)
	score := new(big.Int)
	contribution := new(big.Int)

	for _, offset := range schedule.Offsets() {
		if offset > block {
			continue
		}
		balance, err := d.store.Balance(block-offset, addr)
		if err != nil {
			return nil, fmt.Errorf("read balance of %s at block %d: %w", addr.Hex(), block-offset, err)
		}
		runningMin = inter.MinBalance(runningMin, balance)

		contribution.Mul(runningMin, new(big.Int).SetUint64(uint64(schedule[offset])))
		score.Add(score, contribution)
		if score.Cmp(max) > 0 {
			return nil, fmt.Errorf("score of %s at block %d: %w", addr.Hex(), block, ErrArithmeticOverflow)
		}
	}
	return score, nil
}

// Plan scores every registry account for block. It returns nil for
// non-minting blocks. Overflows and zero totals don't fail: they come back
// as a plan with Skipped set.
func (d *Distributor) Plan(block idx.Block, schedule inter.Schedule) (*Plan, error) {
	if !d.rules.IsMintingBlock(block) {
		return nil, nil
	}

	plan := &Plan{Block: block, TotalScore: new(big.Int)}
	for _, addr := range d.registry.AllAccounts() {
		score, err := d.Score(block, addr, schedule)
		if errors.Is(err, ErrArithmeticOverflow) {
			d.log.WithError(err).WithField("block", block).Warn("Skipping holder rewards cycle")
			return &Plan{Block: block, TotalScore: new(big.Int), Skipped: SkipOverflow}, nil
		}
		if err != nil {
			return nil, err
		}
		plan.Scores = append(plan.Scores, AccountScore{Account: addr, Score: score})

		plan.TotalScore.Add(plan.TotalScore, score)
		if plan.TotalScore.Cmp(d.rules.MaxBalance) > 0 {
			d.log.WithField("block", block).Warn("Skipping holder rewards cycle: total score overflow")
			return &Plan{Block: block, TotalScore: new(big.Int), Skipped: SkipOverflow}, nil
		}
	}

	if plan.TotalScore.Sign() == 0 {
		plan.Skipped = SkipZeroScore
	}
	return plan, nil
}

// Apply executes a plan: it drains the holder rewards pool and deposits
// floor(pool * score / total) into every account with a positive score.
// Skipped plans leave the pool untouched. Apply can't fail; all fallible
// work happened in Plan.
func (d *Distributor) Apply(plan *Plan) *CycleReport {
	report := &CycleReport{
		Block:      plan.Block,
		Pool:       new(big.Int),
		TotalScore: new(big.Int).Set(plan.TotalScore),
		Remainder:  new(big.Int),
		Skipped:    plan.Skipped,
	}
	if plan.Skipped != NotSkipped {
		return report
	}

	report.Pool = inter.CopyBalance(d.pool.TakeFrom(inter.HolderRewardsPurpose))

	for _, s := range plan.Scores {
		if s.Score.Sign() == 0 {
			continue
		}
		// reward <= pool since score <= total
		reward := new(big.Int).Mul(report.Pool, s.Score)
		reward.Quo(reward, plan.TotalScore)
		if reward.Sign() > 0 {
			d.ledger.DepositCreating(s.Account, reward)
		}
		report.Payouts = append(report.Payouts, Payout{Account: s.Account, Score: s.Score, Reward: reward})
	}
	report.Remainder.Sub(report.Pool, report.Distributed())
	return report
}
