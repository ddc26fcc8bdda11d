package holders

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/opera"
)

// Recorder snapshots balances that a future (or the current) minting block
// will read back through one of the configured offsets.
type Recorder struct {
	store    Store
	ledger   Ledger
	registry Registry
	rules    opera.RewardsRules
}

// NewRecorder returns a Recorder.
func NewRecorder(rules opera.RewardsRules, store Store, ledger Ledger, registry Registry) *Recorder {
	return &Recorder{store: store, ledger: ledger, registry: registry, rules: rules}
}

// NeedsSnapshot reports whether block+offset is a minting block for at
// least one configured offset.
func (r *Recorder) NeedsSnapshot(block idx.Block, schedule inter.Schedule) bool {
	for offset := range schedule {
		target := block + offset
		if target < block {
			// the target is past the last representable block
			continue
		}
		if r.rules.IsMintingBlock(target) {
			return true
		}
	}
	return false
}

// Record stores the current balance of every registry account under block
// when NeedsSnapshot holds. Several qualifying offsets produce a single
// snapshot since they would write identical rows. It returns the number of
// rows written.
func (r *Recorder) Record(block idx.Block, schedule inter.Schedule) (int, error) {
	if !r.NeedsSnapshot(block, schedule) {
		return 0, nil
	}

	accounts := r.registry.AllAccounts()
	for _, addr := range accounts {
		balance := inter.CopyBalance(r.ledger.FreeBalance(addr))
		if err := r.store.PutBalance(block, addr, balance); err != nil {
			return 0, fmt.Errorf("record balance of %s at block %d: %w", addr.Hex(), block, err)
		}
	}
	return len(accounts), nil
}
