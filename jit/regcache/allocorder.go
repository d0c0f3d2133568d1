package regcache

import "github.com/halcyon-emu/halcyon/jit/arm"

const (
	numScalarSlots = 32
	numQuads       = 16

	// Vector-eligible quads in wide-SIMD mode. Q0..Q3 stay on the scalar
	// side (Q0 holds the emitter's S0/S1 scratch), Q15 is the emitter's
	// quad scratch.
	firstVectorQuad = 4
	lastVectorQuad  = 14
)

// We reserve S0-S1 as emitter scratch.
var scalarAllocationOrder = []arm.Reg{
	arm.S2, arm.S3,
	arm.S4, arm.S5, arm.S6, arm.S7,
	arm.S8, arm.S9, arm.S10, arm.S11,
	arm.S12, arm.S13, arm.S14, arm.S15,
}

// With wide SIMD most of the register file is handed over to vector quads,
// so plain scalars shrink to Q1-Q3.
var scalarAllocationOrderWide = []arm.Reg{
	arm.S4, arm.S5, arm.S6, arm.S7,
	arm.S8, arm.S9, arm.S10, arm.S11,
	arm.S12, arm.S13, arm.S14, arm.S15,
}

// allocationOrder returns the eligible scalar slots in allocation order.
// Fixed for the lifetime of the cache instance.
func (c *FPURegCache) allocationOrder() []arm.Reg {
	if c.wideSIMD {
		return scalarAllocationOrderWide
	}
	return scalarAllocationOrder
}

// mappableQuad reports whether quad q may hold a vector operand.
func (c *FPURegCache) mappableQuad(q int) bool {
	return c.wideSIMD && q >= firstVectorQuad && q <= lastVectorQuad
}
