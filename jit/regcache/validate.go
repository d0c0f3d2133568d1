package regcache

import (
	"fmt"

	"github.com/halcyon-emu/halcyon/mips"
)

// Validate cross-checks the authoritative slot tables against the derived
// per-register view: whenever both sides are populated they must be mutual
// inverses, and no physical location may be claimed by two registers. Tests
// run it after every mutation.
func (c *FPURegCache) Validate() error {
	for s := range c.ar {
		slot := c.ar[s]
		if slot.vreg == mips.InvalidReg {
			if slot.dirty {
				return fmt.Errorf("scalar slot s%d dirty but unoccupied", s)
			}
			continue
		}
		if !slot.vreg.Valid() {
			return fmt.Errorf("scalar slot s%d holds invalid register %d", s, int(slot.vreg))
		}
		st := c.mr[slot.vreg]
		if st.loc != locScalar || st.sreg != s {
			return fmt.Errorf("scalar slot s%d holds %s but %s does not point back", s, slot.vreg, slot.vreg)
		}
	}

	for q := range c.qr {
		qs := c.qr[q]
		if qs.width < 0 || qs.width > 4 {
			return fmt.Errorf("quad q%d has width %d", q, qs.width)
		}
		if qs.dirty && qs.width == 0 {
			return fmt.Errorf("quad q%d dirty but empty", q)
		}
		for lane := 0; lane < 4; lane++ {
			v := qs.vregs[lane]
			if lane >= qs.width {
				if v != mips.InvalidReg {
					return fmt.Errorf("quad q%d lane %d beyond width %d is occupied by %s", q, lane, qs.width, v)
				}
				continue
			}
			if v == mips.InvalidReg {
				// Hole left by a single-lane flush; legal.
				continue
			}
			st := c.mr[v]
			if st.loc != locQuadLane || st.quad != q || st.lane != lane {
				return fmt.Errorf("quad q%d lane %d holds %s but %s does not point back", q, lane, v, v)
			}
		}
	}

	for i := range c.mr {
		v := mips.Reg(i)
		st := c.mr[i]
		switch st.loc {
		case locScalar:
			if st.sreg < 0 || st.sreg >= numScalarSlots {
				return fmt.Errorf("%s claims scalar slot %d", v, st.sreg)
			}
			if c.ar[st.sreg].vreg != v {
				return fmt.Errorf("%s claims slot s%d occupied by %s", v, st.sreg, c.ar[st.sreg].vreg)
			}
		case locQuadLane:
			if st.quad < 0 || st.quad >= numQuads || st.lane < 0 || st.lane > 3 {
				return fmt.Errorf("%s claims quad %d lane %d", v, st.quad, st.lane)
			}
			if c.qr[st.quad].vregs[st.lane] != v {
				return fmt.Errorf("%s claims quad q%d lane %d occupied by %s", v, st.quad, st.lane, c.qr[st.quad].vregs[st.lane])
			}
			if st.lane >= c.qr[st.quad].width {
				return fmt.Errorf("%s lives beyond quad q%d width %d", v, st.quad, c.qr[st.quad].width)
			}
		case locMemory:
		default:
			return fmt.Errorf("%s has illegal location %d", v, st.loc)
		}
	}
	return nil
}
