// Package genesis defines the initial state of a holder rewards network:
// the funded accounts, the initial weight schedule, the admin accounts and
// the budget fed into the holder rewards pool.
//
// Genesis files are TOML:
//
//	Network = "fake"
//	Admins = ["0x..."]
//
//	[Schedule]
//	"0" = 1
//	"86400" = 2
//
//	[Pool]
//	Initial = "1000000"
//	PerCycle = "1000000"
//
//	[[Account]]
//	Address = "0x..."
//	Balance = "5000000"
package genesis

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/opera-holder-rewards/inter"
	"github.com/rony4d/opera-holder-rewards/opera"
)

// Account is a funded genesis account.
type Account struct {
	Address common.Address
	Balance *Amount
}

// Pool describes how the holder rewards pool is funded.
type Pool struct {
	// Initial is credited to the pool at genesis.
	Initial *Amount
	// PerCycle is credited by the simulator before every minting block,
	// standing in for the chain's budget allocator.
	PerCycle *Amount
}

// Genesis is the complete initial configuration of a network.
type Genesis struct {
	Network  string
	Admins   []common.Address
	Schedule map[string]uint32
	Pool     Pool
	Accounts []Account `toml:"Account"`
}

// Amount is a non-negative token amount written as a decimal or 0x-prefixed
// hex string.
type Amount big.Int

// NewAmount wraps v.
func NewAmount(v *big.Int) *Amount {
	return (*Amount)(new(big.Int).Set(v))
}

// Big returns a copy of the amount, nil becoming zero.
func (a *Amount) Big() *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(a))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	v, ok := new(big.Int).SetString(strings.ReplaceAll(string(text), "_", ""), 0)
	if !ok {
		return fmt.Errorf("invalid amount %q", text)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative amount %q", text)
	}
	(*big.Int)(a).Set(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a *Amount) MarshalText() ([]byte, error) {
	return []byte(a.Big().String()), nil
}

// Load reads and validates a genesis file. Unknown keys are rejected.
func Load(path string) (*Genesis, error) {
	var g Genesis
	md, err := toml.DecodeFile(path, &g)
	if err != nil {
		return nil, fmt.Errorf("genesis %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("genesis %s: unknown keys %v", path, undecoded)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("genesis %s: %w", path, err)
	}
	return &g, nil
}

// Validate checks the genesis against the preset rules of its network.
func (g *Genesis) Validate() error {
	rules, err := opera.RulesByName(g.Network)
	if err != nil {
		return err
	}
	if _, err := g.HoldShares(); err != nil {
		return err
	}

	seen := make(map[common.Address]bool, len(g.Accounts))
	for _, acc := range g.Accounts {
		if acc.Address == (common.Address{}) {
			return errors.New("account with empty address")
		}
		if seen[acc.Address] {
			return fmt.Errorf("duplicate account %s", acc.Address.Hex())
		}
		seen[acc.Address] = true
		if acc.Balance.Big().Cmp(rules.Rewards.MaxBalance) > 0 {
			return fmt.Errorf("balance of %s exceeds the maximum balance", acc.Address.Hex())
		}
	}
	return nil
}

// HoldShares parses the weight schedule.
func (g *Genesis) HoldShares() (inter.Schedule, error) {
	schedule := make(inter.Schedule, len(g.Schedule))
	for key, shares := range g.Schedule {
		offset, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule offset %q: %w", key, err)
		}
		schedule[idx.Block(offset)] = inter.Shares(shares)
	}
	return schedule, nil
}

// Balances returns the initial balance of every genesis account.
func (g *Genesis) Balances() map[common.Address]*big.Int {
	balances := make(map[common.Address]*big.Int, len(g.Accounts))
	for _, acc := range g.Accounts {
		balances[acc.Address] = acc.Balance.Big()
	}
	return balances
}

// Rules returns the preset rules of the genesis network.
func (g *Genesis) Rules() (opera.Rules, error) {
	return opera.RulesByName(g.Network)
}

// Encode writes g as TOML.
func (g *Genesis) Encode() ([]byte, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(g); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
