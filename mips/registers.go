// Package mips models the guest FPU/VFPU register identifier space tracked
// by the JIT register cache. Identifiers are positions in the guest state
// block, independent of where a value currently lives.
package mips

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	NumFPURegs  = 32  // f0..f31
	NumVFPURegs = 128 // v0..v127, 32 groups of 4 lanes
	NumTemps    = 16  // t0..t15, scratch with no guest-visible meaning

	// Temp0 is the first scratch temp in the unified index space.
	Temp0 = NumFPURegs + NumVFPURegs

	// NumTotalRegs spans FPU + VFPU + temps.
	NumTotalRegs = Temp0 + NumTemps
)

// Reg identifies one virtual register in the unified index space:
// [0,32) FPU, [32,160) VFPU sub-registers, [160,176) temps. It is a distinct
// type so scalar, vector and physical index spaces cannot be mixed up.
type Reg int16

// InvalidReg is the sentinel for "no register". It must never be used to
// index a cache table.
const InvalidReg Reg = -1

// F returns the identifier of FPU register fi.
func F(fi int) Reg { return Reg(fi) }

// V returns the identifier of VFPU sub-register vi.
func V(vi int) Reg { return Reg(NumFPURegs + vi) }

// T returns the identifier of scratch temp ti.
func T(ti int) Reg { return Reg(Temp0 + ti) }

func (r Reg) Valid() bool { return r >= 0 && r < NumTotalRegs }
func (r Reg) IsFPR() bool { return r >= 0 && r < NumFPURegs }
func (r Reg) IsVPR() bool { return r >= NumFPURegs && r < Temp0 }
func (r Reg) IsTemp() bool {
	return r >= Temp0 && r < NumTotalRegs
}

// VIndex returns the VFPU sub-register index of r. Only meaningful when
// IsVPR holds.
func (r Reg) VIndex() int { return int(r) - NumFPURegs }

func (r Reg) String() string {
	switch {
	case r.IsFPR():
		return fmt.Sprintf("f%d", int(r))
	case r.IsVPR():
		return fmt.Sprintf("v%d", r.VIndex())
	case r.IsTemp():
		return fmt.Sprintf("t%d", int(r)-Temp0)
	case r == InvalidReg:
		return "none"
	default:
		return fmt.Sprintf("reg(%d)", int(r))
	}
}

// ParseReg parses the textual forms produced by String ("f5", "v12", "t3").
func ParseReg(s string) (Reg, error) {
	if len(s) < 2 {
		return InvalidReg, fmt.Errorf("bad register %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[1:]))
	if err != nil {
		return InvalidReg, fmt.Errorf("bad register %q: %v", s, err)
	}
	switch s[0] {
	case 'f':
		if n < 0 || n >= NumFPURegs {
			return InvalidReg, fmt.Errorf("fpu register out of range: %q", s)
		}
		return F(n), nil
	case 'v':
		if n < 0 || n >= NumVFPURegs {
			return InvalidReg, fmt.Errorf("vfpu register out of range: %q", s)
		}
		return V(n), nil
	case 't':
		if n < 0 || n >= NumTemps {
			return InvalidReg, fmt.Errorf("temp register out of range: %q", s)
		}
		return T(n), nil
	}
	return InvalidReg, fmt.Errorf("bad register %q", s)
}
