package iblockproc

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

func TestRewardsState_Accepts(t *testing.T) {
	require := require.New(t)

	var s RewardsState
	require.True(s.Accepts(0), "fresh state accepts block 0")
	require.True(s.Accepts(42))

	s = RewardsState{Initialized: true, LastBlock: 10}
	require.False(s.Accepts(9))
	require.False(s.Accepts(10))
	require.True(s.Accepts(11))
}

func TestRewardsState_HashChangesWithContent(t *testing.T) {
	a := RewardsState{Initialized: true, LastBlock: 10, LastMint: 10, Cycles: 1}
	b := a.Copy()
	require.Equal(t, a.Hash(), b.Hash())

	b.Skipped++
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestRewardsState_RLPRoundTrip(t *testing.T) {
	s := RewardsState{Initialized: true, LastBlock: 99, LastMint: 90, Cycles: 9, Skipped: 2, Pruned: 1234}

	raw, err := rlp.EncodeToBytes(&s)
	require.NoError(t, err)

	var decoded RewardsState
	require.NoError(t, rlp.DecodeBytes(raw, &decoded))
	require.Equal(t, s, decoded)
}
