// Package regcache is the FPU/VFPU register cache of the JIT. During
// translation of one block it decides which guest floating-point register
// lives in which physical VFP/NEON register, when to load it from the guest
// state block, when to write it back, and when to evict it to make room.
//
// The cache is single-threaded and non-reentrant: it is driven by exactly
// one code-generation pass at a time. Spill locks and temp locks are a
// same-pass protocol against eviction, not concurrency primitives.
package regcache

import (
	"github.com/halcyon-emu/halcyon/jit/arm"
	"github.com/halcyon-emu/halcyon/log"
	"github.com/halcyon-emu/halcyon/mips"
)

// MapFlags adjust how MapReg and QMapReg treat the mapped register.
type MapFlags int

const (
	// MapDirty marks the mapping dirty: the generated code will write the
	// register, so it must be stored back before the slot is reused.
	MapDirty MapFlags = 1 << iota
	// MapNoInit skips the initial load from guest state. Callers use it when
	// the old value is about to be fully overwritten.
	MapNoInit
)

// regLocation tells where a virtual register's value currently lives.
type regLocation uint8

const (
	locMemory regLocation = iota
	locScalar
	locQuadLane
	// locImmediate is never produced by this cache; immediates are not a
	// legal state for floating-point registers. The case exists so misuse
	// fails loudly instead of silently.
	locImmediate
)

// vregState is the per-virtual-register view. It is derived from the slot
// tables and validated against them at mapping time.
type vregState struct {
	loc       regLocation
	sreg      int // scalar slot, valid when loc == locScalar
	quad      int // quad index, valid when loc == locQuadLane
	lane      int // lane within quad, valid when loc == locQuadLane
	spillLock bool
	tempLock  bool
}

// scalarSlot is one physical scalar register. The slot tables are the
// authoritative record of occupancy.
type scalarSlot struct {
	vreg  mips.Reg // mips.InvalidReg when free
	dirty bool     // dirty implies occupied
}

// quadSlot is one physical 4-lane vector register. Lanes at and beyond
// width may hold stale data and are never treated as live.
type quadSlot struct {
	vregs    [4]mips.Reg
	width    int
	dirty    bool
	lastUsed uint64
}

// FPURegCache tracks guest FPU/VFPU registers across scalar slots and
// vector quads during codegen of one translation unit.
type FPURegCache struct {
	emit     arm.Emitter
	wideSIMD bool

	mr [mips.NumTotalRegs]vregState
	ar [numScalarSlots]scalarSlot
	qr [numQuads]quadSlot

	useTick uint64
	err     error
	stats   Stats
}

// NewFPURegCache returns a started cache. wideSIMD selects the allocation
// order and the vector-eligible quad partition; it is fixed for the
// instance's lifetime.
func NewFPURegCache(emit arm.Emitter, wideSIMD bool) *FPURegCache {
	c := &FPURegCache{emit: emit, wideSIMD: wideSIMD}
	c.Start()
	return c
}

// Start resets every table to the all-in-memory, all-slots-free state. A new
// translation pass must call it before reusing the cache; there is no
// partial rollback.
func (c *FPURegCache) Start() {
	for i := range c.ar {
		c.ar[i] = scalarSlot{vreg: mips.InvalidReg}
	}
	for i := range c.qr {
		c.qr[i] = quadSlot{}
		for lane := range c.qr[i].vregs {
			c.qr[i].vregs[lane] = mips.InvalidReg
		}
	}
	for i := range c.mr {
		c.mr[i] = vregState{loc: locMemory, sreg: -1, quad: -1, lane: -1}
	}
	c.useTick = 0
	c.err = nil
	c.stats = Stats{}
}

// Err reports the first fatal allocation failure since Start. The codegen
// driver checks it to abort the translation unit.
func (c *FPURegCache) Err() error {
	return c.err
}

func (c *FPURegCache) fail(err error, msg string, ctx ...interface{}) {
	log.Error(log.JitRegAlloc, msg, ctx...)
	if c.err == nil {
		c.err = err
	}
}

const guestRegElemSize = 4

// GetRegOffset returns the byte offset of a virtual register inside the
// guest state block. The GPRs come first, then the FPRs, the VFPU file and
// the temps.
func (c *FPURegCache) GetRegOffset(r mips.Reg) int {
	if !r.Valid() {
		log.Error(log.JitRegAlloc, "bad register, out of range", "reg", int(r))
		return 0
	}
	return (int(r) + 32) * guestRegElemSize
}

// assignScalar points slot s and vreg at each other. Every occupancy update
// goes through this and releaseScalar so the two tables cannot drift.
func (c *FPURegCache) assignScalar(s int, vreg mips.Reg, dirty bool) {
	c.ar[s].vreg = vreg
	c.ar[s].dirty = dirty
	st := &c.mr[vreg]
	st.loc = locScalar
	st.sreg = s
	st.quad, st.lane = -1, -1
}

// releaseScalar frees slot s and sends its occupant back to memory.
func (c *FPURegCache) releaseScalar(s int) {
	vreg := c.ar[s].vreg
	c.ar[s] = scalarSlot{vreg: mips.InvalidReg}
	if vreg != mips.InvalidReg {
		st := &c.mr[vreg]
		st.loc = locMemory
		st.sreg = -1
	}
}

// MapReg maps vreg into a scalar slot and returns it. Already-mapped
// registers are validated and returned without memory traffic. Otherwise the
// first free slot in allocation order is taken, loading the value from guest
// state unless MapNoInit is set or vreg is a temp. With no free slot, the
// first unlocked occupant is evicted and allocation retried once. If every
// eligible slot is locked the failure is fatal for this translation unit and
// arm.InvalidReg is returned; it must not be used to emit code.
func (c *FPURegCache) MapReg(vreg mips.Reg, flags MapFlags) arm.Reg {
	if !vreg.Valid() {
		log.Error(log.JitRegAlloc, "map of invalid register", "reg", int(vreg))
		return arm.InvalidReg
	}
	st := &c.mr[vreg]
	if st.loc == locScalar {
		if c.ar[st.sreg].vreg != vreg {
			log.Error(log.JitRegAlloc, "reg mapping out of sync", "vreg", vreg, "slot", arm.S0+arm.Reg(st.sreg))
		}
		if flags&MapDirty != 0 {
			c.ar[st.sreg].dirty = true
		}
		c.stats.ScalarHits++
		return arm.S0 + arm.Reg(st.sreg)
	}
	if st.loc == locQuadLane {
		// Consolidate through memory before giving it a scalar home.
		c.flushQuadLane(vreg)
	}

	order := c.allocationOrder()
	for tries := 0; tries < 2; tries++ {
		for _, pr := range order {
			s := int(pr - arm.S0)
			if c.ar[s].vreg != mips.InvalidReg {
				continue
			}
			c.assignScalar(s, vreg, flags&MapDirty != 0)
			if flags&MapNoInit == 0 && !vreg.IsTemp() {
				c.emit.VLDR(pr, c.GetRegOffset(vreg))
			}
			c.stats.ScalarMisses++
			return pr
		}
		victim, ok := c.findEvictionCandidate(order)
		if !ok {
			break
		}
		c.stats.ScalarEvictions++
		log.Trace(log.JitRegAlloc, "evicting scalar slot", "slot", victim, "for", vreg)
		c.FlushArmReg(victim)
	}

	c.fail(ErrOutOfRegisters, "out of spillable scalar slots", "vreg", vreg)
	return arm.InvalidReg
}

// findEvictionCandidate returns the first eligible slot whose occupant is
// neither spill-locked nor temp-locked. Absence of a candidate is a
// first-class outcome, not a loop to be trusted.
func (c *FPURegCache) findEvictionCandidate(order []arm.Reg) (arm.Reg, bool) {
	for _, pr := range order {
		s := int(pr - arm.S0)
		occ := c.ar[s].vreg
		if occ == mips.InvalidReg {
			continue
		}
		if c.mr[occ].spillLock || c.mr[occ].tempLock {
			continue
		}
		return pr, true
	}
	return arm.InvalidReg, false
}

// FlushArmReg writes back and releases whatever occupies physical register
// r. This is the eviction primitive; a free slot is a no-op.
func (c *FPURegCache) FlushArmReg(r arm.Reg) {
	switch {
	case r.IsSingle():
		s := int(r - arm.S0)
		vreg := c.ar[s].vreg
		if vreg == mips.InvalidReg {
			// Nothing to do, slot not mapped.
			return
		}
		if c.mr[vreg].loc != locScalar || c.mr[vreg].sreg != s {
			log.Error(log.JitRegAlloc, "slot occupant does not point back", "slot", r, "vreg", vreg)
			c.ar[s] = scalarSlot{vreg: mips.InvalidReg}
			return
		}
		if c.ar[s].dirty {
			c.emit.VSTR(r, c.GetRegOffset(vreg))
		}
		c.releaseScalar(s)
	case r.IsQuad():
		c.QFlush(r.QuadIndex())
	case r.IsDouble():
		c.QFlush(int(r-arm.D0) / 2)
	default:
		log.Error(log.JitRegAlloc, "flush of invalid physical register", "reg", int(r))
	}
}

// FlushR writes vreg back to guest state if it is dirty anywhere and marks
// it in-memory.
func (c *FPURegCache) FlushR(r mips.Reg) {
	if !r.Valid() {
		log.Error(log.JitRegAlloc, "flush of invalid register", "reg", int(r))
		return
	}
	st := &c.mr[r]
	switch st.loc {
	case locImmediate:
		// Immediates are not a legal state for FP registers.
		log.Error(log.JitRegAlloc, "imm in fp register", "reg", r)

	case locScalar:
		if st.sreg < 0 || c.ar[st.sreg].vreg != r {
			log.Error(log.JitRegAlloc, "flush: register had bad scalar slot", "reg", r, "slot", st.sreg)
			break
		}
		if c.ar[st.sreg].dirty {
			c.emit.VSTR(arm.S0+arm.Reg(st.sreg), c.GetRegOffset(r))
		}
		c.releaseScalar(st.sreg)

	case locQuadLane:
		c.flushQuadLane(r)

	case locMemory:
		// Already there, nothing to do.
	}
	st.loc = locMemory
	st.sreg, st.quad, st.lane = -1, -1, -1
}

// DiscardR abandons vreg's cached value: no store is ever emitted, the slot
// is freed and both lock flags are cleared. That's the whole point of
// Discard.
func (c *FPURegCache) DiscardR(r mips.Reg) {
	if !r.Valid() {
		log.Error(log.JitRegAlloc, "discard of invalid register", "reg", int(r))
		return
	}
	st := &c.mr[r]
	switch st.loc {
	case locImmediate:
		log.Error(log.JitRegAlloc, "imm in fp register", "reg", r)

	case locScalar:
		if st.sreg < 0 || c.ar[st.sreg].vreg != r {
			log.Error(log.JitRegAlloc, "discard: register had bad scalar slot", "reg", r, "slot", st.sreg)
			break
		}
		c.ar[st.sreg].dirty = false
		c.releaseScalar(st.sreg)

	case locQuadLane:
		c.discardQuadLane(r)

	case locMemory:
	}
	st.loc = locMemory
	st.sreg, st.quad, st.lane = -1, -1, -1
	st.spillLock = false
	st.tempLock = false
}

// R returns the scalar slot currently holding vreg. Query-only: the caller
// must have mapped the register already.
func (c *FPURegCache) R(vreg mips.Reg) arm.Reg {
	if vreg.Valid() && c.mr[vreg].loc == locScalar {
		return arm.S0 + arm.Reg(c.mr[vreg].sreg)
	}
	log.Error(log.JitRegAlloc, "register not in a scalar slot", "vreg", vreg)
	return arm.InvalidReg
}

// SpillLock protects up to the four operands of one instruction from being
// chosen as eviction victims until released.
func (c *FPURegCache) SpillLock(regs ...mips.Reg) {
	for _, r := range regs {
		if r.Valid() {
			c.mr[r].spillLock = true
		}
	}
}

// ReleaseSpillLock clears the spill lock of one register.
func (c *FPURegCache) ReleaseSpillLock(r mips.Reg) {
	if r.Valid() {
		c.mr[r].spillLock = false
	}
}

// ReleaseSpillLocksAndDiscardTemps clears every spill lock and discards the
// whole temp pool. Called once per guest instruction after its code has been
// emitted.
func (c *FPURegCache) ReleaseSpillLocksAndDiscardTemps() {
	for i := range c.mr {
		c.mr[i].spillLock = false
	}
	for i := 0; i < mips.NumTemps; i++ {
		c.DiscardR(mips.T(i))
	}
}

// GetTempR claims the first temp register currently in memory and not temp
// locked. Pool exhaustion means codegen produced more live scratch values
// than the pool holds, a compiler defect; it is fatal for this translation
// unit.
func (c *FPURegCache) GetTempR() mips.Reg {
	for i := 0; i < mips.NumTemps; i++ {
		r := mips.T(i)
		if c.mr[r].loc == locMemory && !c.mr[r].tempLock {
			c.mr[r].tempLock = true
			return r
		}
	}
	c.fail(ErrTempPoolExhausted, "out of temp regs, might need to DiscardR some")
	return mips.InvalidReg
}

// MapInIn maps two source registers, spill-locking them first so mapping one
// cannot evict the other.
func (c *FPURegCache) MapInIn(rd, rs mips.Reg) {
	c.SpillLock(rd, rs)
	c.MapReg(rd, 0)
	c.MapReg(rs, 0)
	c.ReleaseSpillLock(rd)
	c.ReleaseSpillLock(rs)
}

// MapDirtyIn maps a destination and a source. With avoidLoad the
// destination skips its initial load unless it overlaps the source, in which
// case the old value is still an input.
func (c *FPURegCache) MapDirtyIn(rd, rs mips.Reg, avoidLoad bool) {
	c.SpillLock(rd, rs)
	load := !avoidLoad || rd == rs
	flags := MapDirty
	if !load {
		flags |= MapNoInit
	}
	c.MapReg(rd, flags)
	c.MapReg(rs, 0)
	c.ReleaseSpillLock(rd)
	c.ReleaseSpillLock(rs)
}

// MapDirtyInIn maps a destination and two sources.
func (c *FPURegCache) MapDirtyInIn(rd, rs, rt mips.Reg, avoidLoad bool) {
	c.SpillLock(rd, rs, rt)
	load := !avoidLoad || rd == rs || rd == rt
	flags := MapDirty
	if !load {
		flags |= MapNoInit
	}
	c.MapReg(rd, flags)
	c.MapReg(rt, 0)
	c.MapReg(rs, 0)
	c.ReleaseSpillLock(rd)
	c.ReleaseSpillLock(rs)
	c.ReleaseSpillLock(rt)
}

// FlushAll materializes the entire guest floating-point state in memory:
// temps are discarded, quads and scalars written back. Used at translation
// block boundaries and before any control transfer out of JIT code.
func (c *FPURegCache) FlushAll() {
	// Discard temps!
	for i := 0; i < mips.NumTemps; i++ {
		c.DiscardR(mips.T(i))
	}
	for q := 0; q < numQuads; q++ {
		c.QFlush(q)
	}
	for i := 0; i < mips.Temp0; i++ {
		c.FlushR(mips.Reg(i))
	}
	// Sanity check
	for s := range c.ar {
		if c.ar[s].vreg != mips.InvalidReg {
			log.Error(log.JitRegAlloc, "flush fail: scalar slot still occupied", "slot", arm.S0+arm.Reg(s), "vreg", c.ar[s].vreg)
		}
	}
	for q := range c.qr {
		if c.qr[q].width != 0 {
			log.Error(log.JitRegAlloc, "flush fail: quad still occupied", "quad", arm.QuadAsQ(q), "width", c.qr[q].width)
		}
	}
}
