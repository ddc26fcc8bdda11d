// Package opera defines the network rules for the holder rewards engine on
// the Opera asset chain.
//
// This package provides:
//   - Network identification constants (MainNet, TestNet, FakeNet)
//   - Rewards rules: mint interval, balance bound and history retention
//
// The Rules type is the consensus-critical configuration every node of a
// network must agree on; changing it requires a coordinated upgrade.
package opera

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/opera-holder-rewards/inter"
)

// Network identification constants
const (
	// MainNetworkID is the chain ID for the Opera mainnet (0xfa = 250 in decimal)
	MainNetworkID uint64 = 0xfa

	// TestNetworkID is the chain ID for the Opera testnet (0xfa2 = 4002 in decimal)
	TestNetworkID uint64 = 0xfa2

	// FakeNetworkID is the chain ID for local/fake networks used in testing (0xfa3 = 4003 in decimal)
	FakeNetworkID uint64 = 0xfa3
)

// RetentionMode selects how long balance history is kept.
type RetentionMode uint8

const (
	// RetainWindow prunes history older than the largest configured offset
	// after every minting block.
	RetainWindow RetentionMode = iota
	// RetainAll never prunes. History grows by one row per account for every
	// snapshot block.
	RetainAll
)

// String implements fmt.Stringer.
func (m RetentionMode) String() string {
	switch m {
	case RetainWindow:
		return "window"
	case RetainAll:
		return "all"
	default:
		return fmt.Sprintf("RetentionMode(%d)", uint8(m))
	}
}

// MarshalText lets the mode appear by name in JSON and TOML dumps.
func (m RetentionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses "window" or "all".
func (m *RetentionMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "window":
		*m = RetainWindow
	case "all":
		*m = RetainAll
	default:
		return fmt.Errorf("unknown retention mode %q (valid: window, all)", text)
	}
	return nil
}

var errZeroMintInterval = errors.New("mint interval must be positive")

// Rules describes the complete configuration for a holder rewards network.
//
// Note: When implementing Copy(), ensure all non-copiable variables (like *big.Int)
// are properly deep-copied to avoid shared state issues.
type Rules struct {
	Name      string // Network name identifier (e.g., "main", "test", "fake")
	NetworkID uint64 // Chain ID

	// Rewards options - when and how the holder rewards pool is distributed
	Rewards RewardsRules
}

// RewardsRules contains the parameters of the holder rewards engine.
type RewardsRules struct {
	// MintInterval makes every block divisible by it a minting block.
	MintInterval idx.Block

	// MaxBalance is the largest value a balance or an account score may take.
	// Scores exceeding it abort the cycle instead of wrapping.
	MaxBalance *big.Int

	// Retention selects the history pruning policy.
	Retention RetentionMode

	// RetentionSlack keeps this many extra blocks of history below the
	// retention window, so an admin can extend the schedule without losing
	// the snapshots the new offsets will read.
	RetentionSlack idx.Block
}

// IsMintingBlock reports whether n is a minting block.
func (r RewardsRules) IsMintingBlock(n idx.Block) bool {
	return r.MintInterval != 0 && n%r.MintInterval == 0
}

// NextMintingBlock returns the first minting block strictly after n.
func (r RewardsRules) NextMintingBlock(n idx.Block) idx.Block {
	return (n/r.MintInterval + 1) * r.MintInterval
}

// Validate checks the rewards rules for values the engine can't work with.
func (r RewardsRules) Validate() error {
	if r.MintInterval == 0 {
		return errZeroMintInterval
	}
	if r.MaxBalance == nil || r.MaxBalance.Sign() <= 0 {
		return errors.New("max balance must be positive")
	}
	if r.Retention != RetainWindow && r.Retention != RetainAll {
		return fmt.Errorf("invalid retention mode %d", r.Retention)
	}
	return nil
}

// Copy creates a deep copy of RewardsRules.
func (r RewardsRules) Copy() RewardsRules {
	cp := r
	if r.MaxBalance != nil {
		cp.MaxBalance = new(big.Int).Set(r.MaxBalance)
	}
	return cp
}

// MainNetRules returns the configuration rules for Opera mainnet.
// Rewards are minted once a day at one-second blocks.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Rewards:   DefaultRewardsRules(),
	}
}

// TestNetRules returns the configuration rules for Opera testnet.
// Testnet uses the same parameters as mainnet for realistic testing.
func TestNetRules() Rules {
	return Rules{
		Name:      "test",
		NetworkID: TestNetworkID,
		Rewards:   DefaultRewardsRules(),
	}
}

// FakeNetRules returns the configuration rules for fake/local networks.
// Minting happens every 10 blocks so whole cycles fit into a unit test.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Rewards:   FakeNetRewardsRules(),
	}
}

// DefaultRewardsRules returns the mainnet rewards configuration.
func DefaultRewardsRules() RewardsRules {
	return RewardsRules{
		MintInterval:   86400, // one day of 1s blocks
		MaxBalance:     new(big.Int).Set(inter.MaxUint128),
		Retention:      RetainWindow,
		RetentionSlack: 86400, // one extra interval of history
	}
}

// FakeNetRewardsRules returns accelerated rewards rules for fake networks.
func FakeNetRewardsRules() RewardsRules {
	cfg := DefaultRewardsRules()
	cfg.MintInterval = 10
	cfg.RetentionSlack = 0
	return cfg
}

// RulesByName returns the preset rules for a network name.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main", "mainnet":
		return MainNetRules(), nil
	case "test", "testnet":
		return TestNetRules(), nil
	case "fake", "fakenet":
		return FakeNetRules(), nil
	default:
		return Rules{}, fmt.Errorf("unknown network: %q (valid: main, test, fake)", name)
	}
}

// Copy creates a deep copy of Rules.
// This is necessary because Rules contains pointer types (*big.Int) that
// would be shared in a shallow copy, leading to unintended mutations.
func (r Rules) Copy() Rules {
	cp := r
	cp.Rewards = r.Rewards.Copy()
	return cp
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
