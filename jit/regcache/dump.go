package regcache

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/halcyon-emu/halcyon/jit/arm"
	"github.com/halcyon-emu/halcyon/mips"
)

// DumpState renders the cache tables as a tree for debugging.
func (c *FPURegCache) DumpState() string {
	tree := treeprint.New()
	mode := "vfp"
	if c.wideSIMD {
		mode = "wide-simd"
	}
	tree.SetValue(fmt.Sprintf("fpu regcache (%s)", mode))

	scalars := tree.AddBranch(fmt.Sprintf("scalar slots (%d eligible)", len(c.allocationOrder())))
	for _, pr := range c.allocationOrder() {
		s := int(pr - arm.S0)
		slot := c.ar[s]
		if slot.vreg == mips.InvalidReg {
			continue
		}
		mark := ""
		if slot.dirty {
			mark = " dirty"
		}
		scalars.AddNode(fmt.Sprintf("%s: %s%s", pr, slot.vreg, mark))
	}

	quads := tree.AddBranch("quads")
	for q := range c.qr {
		qs := c.qr[q]
		if qs.width == 0 {
			continue
		}
		mark := ""
		if qs.dirty {
			mark = " dirty"
		}
		b := quads.AddBranch(fmt.Sprintf("%s: width %d%s used %d", arm.QuadAsQ(q), qs.width, mark, qs.lastUsed))
		for lane := 0; lane < qs.width; lane++ {
			b.AddNode(fmt.Sprintf("lane %d: %s", lane, qs.vregs[lane]))
		}
	}

	locks := tree.AddBranch("locks")
	for i := range c.mr {
		st := c.mr[i]
		if !st.spillLock && !st.tempLock {
			continue
		}
		kind := "spill"
		switch {
		case st.spillLock && st.tempLock:
			kind = "spill+temp"
		case st.tempLock:
			kind = "temp"
		}
		locks.AddNode(fmt.Sprintf("%s: %s", mips.Reg(i), kind))
	}

	return tree.String()
}
