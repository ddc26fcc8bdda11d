// Package inter defines the shared data structures of the holder rewards
// engine: the admin-configured weight schedule, pool purpose tags and the
// balance helpers used by the recorder and the distributor.
//
// Key concepts:
//   - Offset: number of blocks to look back for a balance snapshot (idx.Block)
//   - Shares: weight assigned to an offset
//   - Schedule: the full Offset -> Shares mapping, replaced as a whole by admins
//
// Usage:
//
//	s := inter.Schedule{0: 1, 100: 2}
//	for _, offset := range s.Offsets() { // ascending order
//	    shares := s[offset]
//	}
package inter

import (
	"crypto/sha256"
	"sort"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/rlp"
)

// Shares is the weight of a single look-back offset. Zero is accepted and
// simply contributes nothing to an account's score.
type Shares uint32

// Schedule maps a look-back offset (in blocks) to its share weight.
// Offsets are unique by construction; shares carry no ordering constraint.
type Schedule map[idx.Block]Shares

// ScheduleEntry is a single (offset, shares) pair. It is the RLP-friendly
// form of a Schedule, since maps are not RLP-encodable.
type ScheduleEntry struct {
	Offset idx.Block
	Shares Shares
}

// Offsets returns the configured offsets in strictly ascending order.
// The running-minimum scoring depends on this order, so callers must never
// range over the map directly when scoring.
func (s Schedule) Offsets() []idx.Block {
	offsets := make([]idx.Block, 0, len(s))
	for offset := range s {
		offsets = append(offsets, offset)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// Entries returns the schedule as a slice sorted by ascending offset.
func (s Schedule) Entries() []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(s))
	for _, offset := range s.Offsets() {
		entries = append(entries, ScheduleEntry{Offset: offset, Shares: s[offset]})
	}
	return entries
}

// MaxOffset returns the largest configured offset, or 0 for an empty schedule.
func (s Schedule) MaxOffset() idx.Block {
	var max idx.Block
	for offset := range s {
		if offset > max {
			max = offset
		}
	}
	return max
}

// Copy returns an independent copy of the schedule.
func (s Schedule) Copy() Schedule {
	cp := make(Schedule, len(s))
	for offset, shares := range s {
		cp[offset] = shares
	}
	return cp
}

// Equal reports whether both schedules hold exactly the same entries.
func (s Schedule) Equal(other Schedule) bool {
	if len(s) != len(other) {
		return false
	}
	for offset, shares := range s {
		if got, ok := other[offset]; !ok || got != shares {
			return false
		}
	}
	return true
}

// Hash fingerprints the schedule as SHA256 over the RLP encoding of its
// sorted entries. Equal schedules always hash equally.
func (s Schedule) Hash() hash.Hash {
	hasher := sha256.New()
	err := rlp.Encode(hasher, s.Entries())
	if err != nil {
		panic("can't hash: " + err.Error())
	}
	return hash.BytesToHash(hasher.Sum(nil))
}

// ScheduleFromEntries builds a Schedule from a list of entries. Later entries
// win when an offset repeats.
func ScheduleFromEntries(entries []ScheduleEntry) Schedule {
	s := make(Schedule, len(entries))
	for _, e := range entries {
		s[e.Offset] = e.Shares
	}
	return s
}
