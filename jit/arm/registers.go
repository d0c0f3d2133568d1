// Package arm holds the physical VFP/NEON register identifiers and the
// logical emitter interface the register cache drives. Instruction encoding
// lives behind the Emitter interface; this package never produces machine
// bytes.
package arm

import "fmt"

// Reg identifies a physical floating-point register: S0..S31 scalar slots,
// D0..D31 double views, Q0..Q15 quad views. S(4q..4q+3), D(2q), D(2q+1) and
// Qq alias the same storage.
type Reg int

const (
	S0 Reg = iota
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	S12
	S13
	S14
	S15
	S16
	S17
	S18
	S19
	S20
	S21
	S22
	S23
	S24
	S25
	S26
	S27
	S28
	S29
	S30
	S31

	D0
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	D8
	D9
	D10
	D11
	D12
	D13
	D14
	D15
	D16
	D17
	D18
	D19
	D20
	D21
	D22
	D23
	D24
	D25
	D26
	D27
	D28
	D29
	D30
	D31

	Q0
	Q1
	Q2
	Q3
	Q4
	Q5
	Q6
	Q7
	Q8
	Q9
	Q10
	Q11
	Q12
	Q13
	Q14
	Q15
)

// InvalidReg is the "no register" sentinel. Callers receiving it must not
// emit code with it.
const InvalidReg Reg = -1

func (r Reg) IsSingle() bool { return r >= S0 && r <= S31 }
func (r Reg) IsDouble() bool { return r >= D0 && r <= D31 }
func (r Reg) IsQuad() bool   { return r >= Q0 && r <= Q15 }

// QuadAsQ returns the Q view of quad index q.
func QuadAsQ(q int) Reg { return Q0 + Reg(q) }

// QuadAsD returns the first D view of quad index q.
func QuadAsD(q int) Reg { return D0 + Reg(q*2) }

// QuadIndex returns the quad index of a Q register.
func (r Reg) QuadIndex() int { return int(r - Q0) }

func (r Reg) String() string {
	switch {
	case r.IsSingle():
		return fmt.Sprintf("s%d", int(r-S0))
	case r.IsDouble():
		return fmt.Sprintf("d%d", int(r-D0))
	case r.IsQuad():
		return fmt.Sprintf("q%d", int(r-Q0))
	case r == InvalidReg:
		return "none"
	default:
		return fmt.Sprintf("reg(%d)", int(r))
	}
}
