package arm

// Emitter is the slice of the instruction emitter the register cache needs.
// Offsets are byte offsets into the guest state block, addressed off the
// reserved context register. The cache only ever requests these logical
// operations; encoding them is the emitter's business.
type Emitter interface {
	// VLDR loads one scalar into slot dst from the guest state offset.
	VLDR(dst Reg, offset int)
	// VSTR stores the scalar in slot src to the guest state offset.
	VSTR(src Reg, offset int)
	// VMOV copies one scalar slot to another.
	VMOV(dst, src Reg)

	// VLD1Lane loads a single lane of quad dst from the guest state offset.
	VLD1Lane(dst Reg, lane int, offset int)
	// VST1Lane stores a single lane of quad src to the guest state offset.
	VST1Lane(src Reg, lane int, offset int)

	// VLD1 loads lanes [0,lanes) of quad dst from a contiguous run starting
	// at the guest state offset. lanes is 2 or 4.
	VLD1(dst Reg, lanes int, offset int)
	// VST1 stores lanes [0,lanes) of quad src to a contiguous run starting
	// at the guest state offset. lanes is 2 or 4.
	VST1(src Reg, lanes int, offset int)
}
