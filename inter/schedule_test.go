package inter

import (
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_OffsetsAscending(t *testing.T) {
	s := Schedule{300: 1, 0: 5, 20: 2, 7: 0}

	require.Equal(t, []idx.Block{0, 7, 20, 300}, s.Offsets())
	require.Equal(t, idx.Block(300), s.MaxOffset())

	entries := s.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, ScheduleEntry{Offset: 0, Shares: 5}, entries[0])
	assert.Equal(t, ScheduleEntry{Offset: 300, Shares: 1}, entries[3])
}

func TestSchedule_Empty(t *testing.T) {
	var s Schedule

	assert.Empty(t, s.Offsets())
	assert.Equal(t, idx.Block(0), s.MaxOffset())
	assert.True(t, s.Equal(Schedule{}))
	assert.Equal(t, Schedule{}.Hash(), s.Hash())
}

func TestSchedule_CopyIsIndependent(t *testing.T) {
	s := Schedule{0: 1, 10: 1}
	cp := s.Copy()
	cp[10] = 3
	cp[20] = 1

	assert.Equal(t, Shares(1), s[10])
	assert.Len(t, s, 2)
	assert.False(t, s.Equal(cp))
}

func TestSchedule_HashIgnoresInsertionOrder(t *testing.T) {
	a := Schedule{}
	a[10] = 2
	a[0] = 1
	b := ScheduleFromEntries([]ScheduleEntry{{Offset: 0, Shares: 1}, {Offset: 10, Shares: 2}})

	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())

	b[10] = 3
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestBalanceHelpers(t *testing.T) {
	assert.Equal(t, 128, MaxUint128.BitLen())
	assert.Equal(t, 0, CopyBalance(nil).Sign())

	one := big.NewInt(1)
	cp := CopyBalance(one)
	cp.SetInt64(5)
	assert.Equal(t, int64(1), one.Int64())

	assert.Equal(t, int64(3), MinBalance(big.NewInt(3), big.NewInt(4)).Int64())
	assert.Equal(t, int64(3), MinBalance(big.NewInt(4), big.NewInt(3)).Int64())
}
