// Package iblockproc defines the state the holder rewards engine carries from
// one processed block to the next. The state is persisted next to the
// balance history so a restarted node resumes with the same block ordering
// guarantees and cycle counters.
package iblockproc

import (
	"crypto/sha256"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/rlp"
)

// RewardsState represents the engine's progress after the last finalized block.
type RewardsState struct {
	// Initialized is false until the first block has been processed. It lets
	// block 0 be a valid first block.
	Initialized bool
	// LastBlock is the last block passed to the per-block hook.
	LastBlock idx.Block
	// LastMint is the last minting block, whether its cycle paid out or was skipped.
	LastMint idx.Block

	// Cycles counts minting blocks that paid out the pool.
	Cycles uint64
	// Skipped counts minting blocks whose distribution was skipped
	// (zero total score or arithmetic overflow).
	Skipped uint64

	// Pruned counts balance history rows removed by the retention policy.
	Pruned uint64
}

// Accepts reports whether block may be processed after the current state.
// Blocks must be strictly increasing.
func (s RewardsState) Accepts(block idx.Block) bool {
	return !s.Initialized || block > s.LastBlock
}

// Copy returns a copy of the state. RewardsState has no reference fields,
// so a value copy is already deep.
func (s RewardsState) Copy() RewardsState {
	return s
}

// Hash calculates the SHA256 hash of the RLP-encoded state.
func (s RewardsState) Hash() hash.Hash {
	hasher := sha256.New()
	err := rlp.Encode(hasher, &s)
	if err != nil {
		panic("can't hash: " + err.Error())
	}
	return hash.BytesToHash(hasher.Sum(nil))
}
