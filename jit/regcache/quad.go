package regcache

import (
	"math"

	"github.com/halcyon-emu/halcyon/jit/arm"
	"github.com/halcyon-emu/halcyon/log"
	"github.com/halcyon-emu/halcyon/mips"
)

func (c *FPURegCache) tick() uint64 {
	c.useTick++
	return c.useTick
}

// assignLane points quad q's lane and vreg at each other. Lane occupancy
// updates go through this and releaseLane only.
func (c *FPURegCache) assignLane(q, lane int, vreg mips.Reg) {
	c.qr[q].vregs[lane] = vreg
	st := &c.mr[vreg]
	st.loc = locQuadLane
	st.quad = q
	st.lane = lane
	st.sreg = -1
}

// releaseLane frees one lane and sends its occupant back to memory.
func (c *FPURegCache) releaseLane(q, lane int) {
	vreg := c.qr[q].vregs[lane]
	c.qr[q].vregs[lane] = mips.InvalidReg
	if vreg != mips.InvalidReg {
		st := &c.mr[vreg]
		st.loc = locMemory
		st.quad, st.lane = -1, -1
	}
}

// shrinkQuad drops freed trailing lanes so width only covers live ones.
func (c *FPURegCache) shrinkQuad(q int) {
	qs := &c.qr[q]
	for qs.width > 0 && qs.vregs[qs.width-1] == mips.InvalidReg {
		qs.width--
	}
	if qs.width == 0 {
		qs.dirty = false
	}
}

// flushLaneAt writes back one live lane if the quad is dirty, then frees it.
func (c *FPURegCache) flushLaneAt(q, lane int) {
	qs := &c.qr[q]
	r := qs.vregs[lane]
	if r == mips.InvalidReg {
		return
	}
	if qs.dirty && lane < qs.width {
		c.emit.VST1Lane(arm.QuadAsQ(q), lane, c.GetRegOffset(r))
	}
	c.releaseLane(q, lane)
	c.shrinkQuad(q)
}

// flushQuadLane moves a lane-resident register back to memory, writing it
// back first if its quad is dirty.
func (c *FPURegCache) flushQuadLane(r mips.Reg) {
	st := &c.mr[r]
	if st.quad < 0 || st.quad >= numQuads || c.qr[st.quad].vregs[st.lane] != r {
		log.Error(log.JitRegAlloc, "quad lane out of sync", "vreg", r, "quad", st.quad, "lane", st.lane)
		st.loc = locMemory
		st.quad, st.lane = -1, -1
		return
	}
	c.flushLaneAt(st.quad, st.lane)
}

// discardQuadLane frees a lane-resident register without writing it back.
func (c *FPURegCache) discardQuadLane(r mips.Reg) {
	st := &c.mr[r]
	if st.quad < 0 || st.quad >= numQuads || c.qr[st.quad].vregs[st.lane] != r {
		log.Error(log.JitRegAlloc, "quad lane out of sync", "vreg", r, "quad", st.quad, "lane", st.lane)
		st.loc = locMemory
		st.quad, st.lane = -1, -1
		return
	}
	q, lane := st.quad, st.lane
	c.releaseLane(q, lane)
	c.shrinkQuad(q)
}

// contiguous reports whether the sub-registers form one consecutive
// ascending run in guest-register order. Checked per call; it only changes
// how many memory ops are emitted, never the data.
func contiguous(regs []mips.Reg) bool {
	if len(regs) < 2 {
		return false
	}
	for i, r := range regs {
		if r == mips.InvalidReg {
			return false
		}
		if i > 0 && r != regs[i-1]+1 {
			return false
		}
	}
	return true
}

// loadLanes fills lanes [0,len(regs)) of quad q from guest state, using one
// or two wide loads when the run is contiguous, else one load per lane.
func (c *FPURegCache) loadLanes(q int, regs []mips.Reg) {
	qreg := arm.QuadAsQ(q)
	if contiguous(regs) {
		off := c.GetRegOffset(regs[0])
		switch len(regs) {
		case 4:
			c.emit.VLD1(qreg, 4, off)
			return
		case 3:
			c.emit.VLD1(qreg, 2, off)
			c.emit.VLD1Lane(qreg, 2, c.GetRegOffset(regs[2]))
			return
		case 2:
			c.emit.VLD1(qreg, 2, off)
			return
		}
	}
	for lane, r := range regs {
		if r == mips.InvalidReg {
			continue
		}
		c.emit.VLD1Lane(qreg, lane, c.GetRegOffset(r))
	}
}

// storeLanes writes lanes [0,len(regs)) of quad q back to guest state with
// the same contiguous-run optimization as loadLanes.
func (c *FPURegCache) storeLanes(q int, regs []mips.Reg) {
	qreg := arm.QuadAsQ(q)
	if contiguous(regs) {
		off := c.GetRegOffset(regs[0])
		switch len(regs) {
		case 4:
			c.emit.VST1(qreg, 4, off)
			return
		case 3:
			c.emit.VST1(qreg, 2, off)
			c.emit.VST1Lane(qreg, 2, c.GetRegOffset(regs[2]))
			return
		case 2:
			c.emit.VST1(qreg, 2, off)
			return
		}
	}
	for lane, r := range regs {
		if r == mips.InvalidReg {
			continue
		}
		c.emit.VST1Lane(qreg, lane, c.GetRegOffset(r))
	}
}

// matchLen counts how many leading requested sub-registers already sit in
// the quad's lanes, in order.
func (c *FPURegCache) matchLen(q int, regs []mips.Reg) int {
	qs := &c.qr[q]
	k := 0
	for ; k < len(regs) && k < 4; k++ {
		if qs.vregs[k] != regs[k] {
			break
		}
	}
	return k
}

// findFreeQuad returns the first eligible quad with no live lanes.
func (c *FPURegCache) findFreeQuad() (int, bool) {
	for q := firstVectorQuad; q <= lastVectorQuad; q++ {
		if !c.mappableQuad(q) {
			continue
		}
		if c.qr[q].width == 0 {
			return q, true
		}
	}
	return 0, false
}

// quadLocked reports whether any live occupant of quad q is protected from
// eviction.
func (c *FPURegCache) quadLocked(q int) bool {
	qs := &c.qr[q]
	for lane := 0; lane < qs.width; lane++ {
		r := qs.vregs[lane]
		if r == mips.InvalidReg {
			continue
		}
		if c.mr[r].spillLock || c.mr[r].tempLock {
			return true
		}
	}
	return false
}

// findQuadEvictionCandidate picks the least recently used unlocked quad.
// The search is bounded by the quad count; no candidate is a first-class
// outcome.
func (c *FPURegCache) findQuadEvictionCandidate() (int, bool) {
	best := -1
	bestTick := uint64(math.MaxUint64)
	for q := firstVectorQuad; q <= lastVectorQuad; q++ {
		if !c.mappableQuad(q) {
			continue
		}
		qs := &c.qr[q]
		if qs.width == 0 || c.quadLocked(q) {
			continue
		}
		if qs.lastUsed < bestTick {
			best, bestTick = q, qs.lastUsed
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// quadView returns the conventional view of a mapped operand: pairs and
// singles as the quad's first D register, wider operands as the Q register.
func quadView(n, q int) arm.Reg {
	if n <= 2 {
		return arm.QuadAsD(q)
	}
	return arm.QuadAsQ(q)
}

// qMap maps the given sub-registers into one quad's lanes, in order.
func (c *FPURegCache) qMap(regs []mips.Reg, flags MapFlags) (int, bool) {
	n := len(regs)

	// Already mapped somewhere? Check for a quad whose lanes line up.
	for q := firstVectorQuad; q <= lastVectorQuad; q++ {
		if !c.mappableQuad(q) || c.qr[q].width == 0 {
			continue
		}
		if c.matchLen(q, regs) < n {
			continue
		}
		// Full hit. If the stored vector is longer than requested it is
		// logically shrinking; wipe the stray extra lanes.
		qs := &c.qr[q]
		for lane := qs.width - 1; lane >= n; lane-- {
			c.flushLaneAt(q, lane)
		}
		qs.width = n
		if flags&MapDirty != 0 {
			qs.dirty = true
		}
		qs.lastUsed = c.tick()
		c.stats.QuadHits++
		return q, true
	}

	// Prefix extension: a quad already holding the first k lanes grows to
	// the requested width, loading only the missing lanes.
	for q := firstVectorQuad; q <= lastVectorQuad; q++ {
		if !c.mappableQuad(q) || c.qr[q].width == 0 {
			continue
		}
		k := c.matchLen(q, regs)
		if k == 0 {
			continue
		}
		qs := &c.qr[q]
		// Mismatched or excess lanes beyond the matching prefix go first.
		for lane := qs.width - 1; lane >= k; lane-- {
			c.flushLaneAt(q, lane)
		}
		for lane := k; lane < n; lane++ {
			r := regs[lane]
			c.FlushR(r)
			if flags&MapNoInit == 0 {
				c.emit.VLD1Lane(arm.QuadAsQ(q), lane, c.GetRegOffset(r))
			}
			c.assignLane(q, lane, r)
		}
		qs.width = n
		if flags&MapDirty != 0 {
			qs.dirty = true
		}
		qs.lastUsed = c.tick()
		c.stats.QuadExtends++
		return q, true
	}

	// No match, not mapped yet. Take a free quad, else evict the least
	// recently used unlocked one.
	q, ok := c.findFreeQuad()
	if !ok {
		q, ok = c.findQuadEvictionCandidate()
		if ok {
			c.stats.QuadEvictions++
			log.Trace(log.JitRegAlloc, "evicting quad", "quad", arm.QuadAsQ(q), "used", c.qr[q].lastUsed)
			c.QFlush(q)
		}
	}
	if !ok {
		c.fail(ErrNoEvictableQuad, "no free or evictable quad", "lanes", n)
		return 0, false
	}

	// If parts of our operand live elsewhere they must be consolidated
	// through memory before the bulk load.
	for _, r := range regs {
		c.FlushR(r)
	}

	if flags&MapNoInit == 0 {
		c.loadLanes(q, regs)
	}
	for lane, r := range regs {
		c.assignLane(q, lane, r)
	}
	qs := &c.qr[q]
	qs.width = n
	qs.dirty = flags&MapDirty != 0
	qs.lastUsed = c.tick()
	c.stats.QuadMisses++
	return q, true
}

// QMapReg maps the vector operand of sz sub-registers starting at VFPU
// sub-register v into a quad and returns its physical view. Requires the
// wide-SIMD capability.
func (c *FPURegCache) QMapReg(v int, sz mips.VectorSize, flags MapFlags) arm.Reg {
	if !sz.Valid() || v < 0 || v+sz.Elements() > mips.NumVFPURegs {
		log.Error(log.JitRegAlloc, "bad vector operand", "base", v, "size", sz)
		return arm.InvalidReg
	}
	return c.QMapRegs(mips.GetVectorRegs(v, sz), flags)
}

// QMapRegs is QMapReg for an explicit, possibly non-consecutive lane list.
func (c *FPURegCache) QMapRegs(vs []int, flags MapFlags) arm.Reg {
	if !c.wideSIMD {
		log.Error(log.JitRegAlloc, "quad mapping without wide simd capability")
		return arm.InvalidReg
	}
	if len(vs) == 0 || len(vs) > 4 {
		log.Error(log.JitRegAlloc, "bad vector lane count", "lanes", len(vs))
		return arm.InvalidReg
	}
	regs := make([]mips.Reg, len(vs))
	for i, v := range vs {
		if v < 0 || v >= mips.NumVFPURegs {
			log.Error(log.JitRegAlloc, "vector sub-register out of range", "v", v)
			return arm.InvalidReg
		}
		regs[i] = mips.V(v)
	}
	q, ok := c.qMap(regs, flags)
	if !ok {
		return arm.InvalidReg
	}
	return quadView(len(regs), q)
}

// QFlush writes back a dirty quad's live lanes and releases it. Clean quads
// release with zero stores.
func (c *FPURegCache) QFlush(q int) {
	if q < 0 || q >= numQuads {
		log.Error(log.JitRegAlloc, "flush of invalid quad", "quad", q)
		return
	}
	qs := &c.qr[q]
	if qs.width == 0 {
		return
	}
	if qs.dirty {
		c.storeLanes(q, qs.vregs[:qs.width])
		qs.dirty = false
	}
	for lane := 0; lane < qs.width; lane++ {
		c.releaseLane(q, lane)
	}
	qs.width = 0
}

// SpillLockV spill-locks the sz sub-registers starting at v.
func (c *FPURegCache) SpillLockV(v int, sz mips.VectorSize) {
	for _, vi := range mips.GetVectorRegs(v, sz) {
		c.SpillLock(mips.V(vi))
	}
}

// SpillLockVRegs spill-locks an explicit lane list.
func (c *FPURegCache) SpillLockVRegs(vs []int) {
	for _, vi := range vs {
		c.SpillLock(mips.V(vi))
	}
}

// ReleaseSpillLockV clears the spill locks of the sz sub-registers starting
// at v.
func (c *FPURegCache) ReleaseSpillLockV(v int, sz mips.VectorSize) {
	for _, vi := range mips.GetVectorRegs(v, sz) {
		c.ReleaseSpillLock(mips.V(vi))
	}
}

// MapRegV maps one VFPU sub-register into a scalar slot.
func (c *FPURegCache) MapRegV(v int, flags MapFlags) arm.Reg {
	return c.MapReg(mips.V(v), flags)
}

// MapRegsAndSpillLockV maps each sub-register of the operand into scalar
// slots, spill-locking the whole operand first. This is the vector path when
// wide SIMD is unavailable.
func (c *FPURegCache) MapRegsAndSpillLockV(v int, sz mips.VectorSize, flags MapFlags) {
	c.SpillLockV(v, sz)
	for _, vi := range mips.GetVectorRegs(v, sz) {
		c.MapRegV(vi, flags)
	}
}

// MapRegsAndSpillLockVRegs is MapRegsAndSpillLockV for an explicit lane
// list.
func (c *FPURegCache) MapRegsAndSpillLockVRegs(vs []int, flags MapFlags) {
	c.SpillLockVRegs(vs)
	for _, vi := range vs {
		c.MapRegV(vi, flags)
	}
}

// MapInInV maps two source sub-registers into scalar slots.
func (c *FPURegCache) MapInInV(vs, vt int) {
	c.SpillLock(mips.V(vs), mips.V(vt))
	c.MapRegV(vs, 0)
	c.MapRegV(vt, 0)
	c.ReleaseSpillLock(mips.V(vs))
	c.ReleaseSpillLock(mips.V(vt))
}

// MapDirtyInV maps a destination and a source sub-register into scalar
// slots.
func (c *FPURegCache) MapDirtyInV(vd, vs int, avoidLoad bool) {
	c.SpillLock(mips.V(vd), mips.V(vs))
	load := !avoidLoad || vd == vs
	flags := MapDirty
	if !load {
		flags |= MapNoInit
	}
	c.MapRegV(vd, flags)
	c.MapRegV(vs, 0)
	c.ReleaseSpillLock(mips.V(vd))
	c.ReleaseSpillLock(mips.V(vs))
}

// MapDirtyInInV maps a destination and two source sub-registers into scalar
// slots.
func (c *FPURegCache) MapDirtyInInV(vd, vs, vt int, avoidLoad bool) {
	c.SpillLock(mips.V(vd), mips.V(vs), mips.V(vt))
	load := !avoidLoad || vd == vs || vd == vt
	flags := MapDirty
	if !load {
		flags |= MapNoInit
	}
	c.MapRegV(vd, flags)
	c.MapRegV(vs, 0)
	c.MapRegV(vt, 0)
	c.ReleaseSpillLock(mips.V(vd))
	c.ReleaseSpillLock(mips.V(vs))
	c.ReleaseSpillLock(mips.V(vt))
}
