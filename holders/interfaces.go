package holders

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/inter/iblockproc"
)

// Ledger is the balance service that owns account balances.
type Ledger interface {
	// FreeBalance returns the current balance of addr. It never fails.
	FreeBalance(addr common.Address) *big.Int
	// DepositCreating mints amount into addr, creating the account if needed,
	// and returns the amount actually deposited.
	DepositCreating(addr common.Address, amount *big.Int) *big.Int
}

// Registry enumerates every known account. The order must be stable within
// a single call.
type Registry interface {
	AllAccounts() []common.Address
}

// TokenDistribution is the budget allocator funding reward pools.
type TokenDistribution interface {
	// TakeFrom withdraws and returns the whole balance of the pool tagged
	// purpose, leaving it empty.
	TakeFrom(purpose inter.Purpose) *big.Int
}

// Authorizer gates administrative calls.
type Authorizer interface {
	IsPrivileged(origin Origin) bool
}

// Store is the engine's persistent state: the weight schedule, the balance
// history and the per-block progress. Mutations are staged until Commit and
// discarded by Rollback.
type Store interface {
	Schedule() (inter.Schedule, error)
	SetSchedule(schedule inter.Schedule) error

	// Balance returns the balance recorded for addr at block, or zero when
	// nothing was recorded.
	Balance(block idx.Block, addr common.Address) (*big.Int, error)
	PutBalance(block idx.Block, addr common.Address, balance *big.Int) error
	// PruneBefore deletes all history recorded at blocks lower than cutoff
	// and returns the number of deleted rows.
	PruneBefore(cutoff idx.Block) (int, error)

	State() (iblockproc.RewardsState, error)
	SetState(state iblockproc.RewardsState) error

	Commit() error
	Rollback()
}
