package regcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-emu/halcyon/jit/arm"
	"github.com/halcyon-emu/halcyon/mips"
)

func newTestCache(t *testing.T, wideSIMD bool) (*FPURegCache, *arm.OpRecorder) {
	t.Helper()
	rec := arm.NewOpRecorder()
	return NewFPURegCache(rec, wideSIMD), rec
}

func mustValidate(t *testing.T, c *FPURegCache) {
	t.Helper()
	require.NoError(t, c.Validate())
}

func TestGetRegOffset(t *testing.T) {
	c, _ := newTestCache(t, false)
	assert.Equal(t, 148, c.GetRegOffset(mips.F(5)))
	assert.Equal(t, 256, c.GetRegOffset(mips.V(0)))
	// Last valid register succeeds, one past it fails.
	assert.Equal(t, (mips.NumTotalRegs-1+32)*4, c.GetRegOffset(mips.Reg(mips.NumTotalRegs-1)))
	assert.Equal(t, 0, c.GetRegOffset(mips.Reg(mips.NumTotalRegs)))
	assert.Equal(t, 0, c.GetRegOffset(mips.InvalidReg))
}

func TestMapRegLoadsOnce(t *testing.T) {
	c, rec := newTestCache(t, false)

	r := c.MapReg(mips.F(5), 0)
	require.True(t, r.IsSingle())
	assert.Equal(t, 1, rec.LoadCount())
	assert.Equal(t, arm.Op{Kind: arm.OpVLDR, Reg: r, Offset: 148}, rec.Ops()[0])
	mustValidate(t, c)

	// Remapping is free.
	assert.Equal(t, r, c.MapReg(mips.F(5), 0))
	assert.Equal(t, 1, rec.LoadCount())
	assert.Equal(t, r, c.R(mips.F(5)))
	mustValidate(t, c)
}

func TestDirtyPropagation(t *testing.T) {
	c, rec := newTestCache(t, false)

	r := c.MapReg(mips.F(5), 0)
	rec.Reset()

	// Dirtying an already-mapped register emits nothing.
	assert.Equal(t, r, c.MapReg(mips.F(5), MapDirty))
	assert.Empty(t, rec.Ops())
	mustValidate(t, c)

	c.FlushR(mips.F(5))
	require.Equal(t, 1, rec.StoreCount())
	assert.Equal(t, arm.Op{Kind: arm.OpVSTR, Reg: r, Offset: 148}, rec.Ops()[0])
	mustValidate(t, c)
}

func TestNoInitSuppressesLoad(t *testing.T) {
	c, rec := newTestCache(t, false)

	c.MapReg(mips.F(3), MapNoInit)
	assert.Zero(t, rec.LoadCount())
	c.FlushR(mips.F(3))
	c.MapReg(mips.F(3), MapDirty|MapNoInit)
	assert.Zero(t, rec.LoadCount())
	mustValidate(t, c)
}

func TestNoSpuriousWrites(t *testing.T) {
	c, rec := newTestCache(t, false)

	// Clean flush emits no store.
	c.MapReg(mips.F(1), 0)
	rec.Reset()
	c.FlushR(mips.F(1))
	assert.Zero(t, rec.StoreCount())
	mustValidate(t, c)

	// Discarding a dirty register emits no store either.
	c.MapReg(mips.F(2), MapDirty|MapNoInit)
	rec.Reset()
	c.DiscardR(mips.F(2))
	assert.Zero(t, rec.StoreCount())
	mustValidate(t, c)
}

func TestScenarioRoundTrip(t *testing.T) {
	c, rec := newTestCache(t, false)

	// Map for writing without loading, then materialize.
	c.MapReg(mips.F(5), MapDirty|MapNoInit)
	assert.Zero(t, rec.LoadCount())

	c.FlushR(mips.F(5))
	require.Len(t, rec.Ops(), 1)
	assert.Equal(t, arm.OpVSTR, rec.Ops()[0].Kind)
	assert.Equal(t, 148, rec.Ops()[0].Offset)
	assert.Equal(t, arm.InvalidReg, c.R(mips.F(5)))

	// The cache remembers locations, not values: a fresh map reloads.
	rec.Reset()
	c.MapReg(mips.F(5), 0)
	require.Len(t, rec.Ops(), 1)
	assert.Equal(t, arm.OpVLDR, rec.Ops()[0].Kind)
	assert.Equal(t, 148, rec.Ops()[0].Offset)
	mustValidate(t, c)
}

func TestEvictionPicksUnlockedSlot(t *testing.T) {
	c, rec := newTestCache(t, false)
	order := c.allocationOrder()

	// Occupy every eligible slot, dirty, and lock all but the one holding f7.
	for i := range order {
		c.MapReg(mips.F(i), MapDirty|MapNoInit)
		if i != 7 {
			c.SpillLock(mips.F(i))
		}
	}
	mustValidate(t, c)
	victim := c.R(mips.F(7))
	rec.Reset()

	r := c.MapReg(mips.F(20), MapNoInit)
	assert.Equal(t, victim, r)
	// The evicted register was dirty, so exactly one store.
	require.Equal(t, 1, rec.StoreCount())
	assert.Equal(t, c.GetRegOffset(mips.F(7)), rec.Ops()[0].Offset)
	assert.NoError(t, c.Err())
	mustValidate(t, c)
}

func TestAllSlotsLockedFails(t *testing.T) {
	c, _ := newTestCache(t, false)
	order := c.allocationOrder()

	for i := range order {
		c.MapReg(mips.F(i), MapNoInit)
		c.SpillLock(mips.F(i))
	}

	r := c.MapReg(mips.F(30), 0)
	assert.Equal(t, arm.InvalidReg, r)
	assert.ErrorIs(t, c.Err(), ErrOutOfRegisters)
	// Nothing was evicted.
	for i := range order {
		assert.NotEqual(t, arm.InvalidReg, c.R(mips.F(i)))
	}
	mustValidate(t, c)
}

func TestWideSIMDShrinksScalarOrder(t *testing.T) {
	base, _ := newTestCache(t, false)
	wide, _ := newTestCache(t, true)
	assert.Equal(t, 14, len(base.allocationOrder()))
	assert.Equal(t, 12, len(wide.allocationOrder()))
	// The wide order keeps clear of the emitter's S0-S3 scratch.
	assert.Equal(t, arm.S4, wide.allocationOrder()[0])
	assert.Equal(t, arm.S2, base.allocationOrder()[0])
}

func TestMapDirtyInOverlap(t *testing.T) {
	c, rec := newTestCache(t, false)

	// Distinct dest: dest skips its load.
	c.MapDirtyIn(mips.F(1), mips.F(2), true)
	assert.Equal(t, 1, rec.LoadCount())
	assert.Equal(t, c.GetRegOffset(mips.F(2)), rec.Ops()[0].Offset)
	mustValidate(t, c)

	// Overlapping dest is also a source, so it must load.
	rec.Reset()
	c.MapDirtyIn(mips.F(9), mips.F(9), true)
	assert.Equal(t, 1, rec.LoadCount())
	assert.Equal(t, c.GetRegOffset(mips.F(9)), rec.Ops()[0].Offset)
	mustValidate(t, c)
}

func TestCompositeLocksPreventCrossEviction(t *testing.T) {
	c, _ := newTestCache(t, false)
	order := c.allocationOrder()

	// Leave exactly two free slots, lock the rest.
	for i := 0; i < len(order)-2; i++ {
		c.MapReg(mips.F(i), MapNoInit)
		c.SpillLock(mips.F(i))
	}

	c.MapDirtyInIn(mips.F(20), mips.F(21), mips.F(22), true)
	// Three registers, two slots: the third mapping must fail rather than
	// evict an operand of the same instruction.
	assert.ErrorIs(t, c.Err(), ErrOutOfRegisters)
	assert.NotEqual(t, arm.InvalidReg, c.R(mips.F(20)))
	mustValidate(t, c)
}

func TestTempPool(t *testing.T) {
	c, rec := newTestCache(t, false)

	t0 := c.GetTempR()
	t1 := c.GetTempR()
	assert.Equal(t, mips.T(0), t0)
	assert.Equal(t, mips.T(1), t1)

	// Temps never load from guest state.
	c.MapReg(t0, MapDirty)
	assert.Zero(t, rec.LoadCount())
	mustValidate(t, c)

	// End of instruction: pool back to a clean slate, no stores.
	c.ReleaseSpillLocksAndDiscardTemps()
	assert.Zero(t, rec.StoreCount())
	assert.Equal(t, mips.T(0), c.GetTempR())
	mustValidate(t, c)
}

func TestTempPoolExhaustion(t *testing.T) {
	c, _ := newTestCache(t, false)
	for i := 0; i < mips.NumTemps; i++ {
		require.Equal(t, mips.T(i), c.GetTempR())
	}
	assert.Equal(t, mips.InvalidReg, c.GetTempR())
	assert.ErrorIs(t, c.Err(), ErrTempPoolExhausted)
}

func TestFlushAllTotality(t *testing.T) {
	c, rec := newTestCache(t, true)

	c.MapReg(mips.F(1), MapDirty|MapNoInit)
	c.MapReg(mips.F(2), 0)
	c.QMapReg(8, mips.Quad, MapDirty)
	c.MapReg(c.GetTempR(), MapDirty)
	mustValidate(t, c)

	rec.Reset()
	c.FlushAll()
	mustValidate(t, c)

	// Dirty scalar f1: one store. Dirty quad v8..v11: one wide store.
	// Clean f2 and the temp: nothing.
	assert.Equal(t, 2, rec.StoreCount())

	for s := range c.ar {
		assert.Equal(t, mips.InvalidReg, c.ar[s].vreg)
		assert.False(t, c.ar[s].dirty)
	}
	for q := range c.qr {
		assert.Zero(t, c.qr[q].width)
		for _, v := range c.qr[q].vregs {
			assert.Equal(t, mips.InvalidReg, v)
		}
	}
	for i := range c.mr {
		assert.Equal(t, locMemory, c.mr[i].loc)
	}
}

func TestStartResets(t *testing.T) {
	c, rec := newTestCache(t, true)

	c.MapReg(mips.F(0), MapDirty|MapNoInit)
	c.SpillLock(mips.F(0))
	c.GetTempR()
	c.QMapReg(0, mips.Pair, MapDirty)

	c.Start()
	mustValidate(t, c)
	assert.NoError(t, c.Err())
	assert.Equal(t, Stats{}, c.Stats())

	// Nothing survives: mapping f0 loads again.
	rec.Reset()
	c.MapReg(mips.F(0), 0)
	assert.Equal(t, 1, rec.LoadCount())
}

func TestStatsCounters(t *testing.T) {
	c, _ := newTestCache(t, false)

	c.MapReg(mips.F(0), 0)
	c.MapReg(mips.F(0), 0)
	c.MapReg(mips.F(1), 0)
	st := c.Stats()
	assert.Equal(t, 1, st.ScalarHits)
	assert.Equal(t, 2, st.ScalarMisses)
	assert.Zero(t, st.ScalarEvictions)
}
