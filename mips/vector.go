package mips

// VectorSize is the width of a VFPU operand in sub-registers.
type VectorSize int

const (
	Single VectorSize = 1
	Pair   VectorSize = 2
	Triple VectorSize = 3
	Quad   VectorSize = 4
)

// Elements returns the number of sub-registers in an operand of this size.
func (sz VectorSize) Elements() int { return int(sz) }

func (sz VectorSize) Valid() bool { return sz >= Single && sz <= Quad }

func (sz VectorSize) String() string {
	switch sz {
	case Single:
		return "single"
	case Pair:
		return "pair"
	case Triple:
		return "triple"
	case Quad:
		return "quad"
	}
	return "invalid"
}

// GetVectorRegs expands a base VFPU sub-register index plus a size into the
// consecutive sub-register indices of the operand. The caller is responsible
// for range-checking base+sz against NumVFPURegs.
func GetVectorRegs(base int, sz VectorSize) []int {
	vs := make([]int, 0, 4)
	for i := 0; i < sz.Elements(); i++ {
		vs = append(vs, base+i)
	}
	return vs
}
