package arm

import "fmt"

// OpKind discriminates recorded emitter operations.
type OpKind string

const (
	OpVLDR     OpKind = "vldr"
	OpVSTR     OpKind = "vstr"
	OpVMOV     OpKind = "vmov"
	OpVLD1Lane OpKind = "vld1.lane"
	OpVST1Lane OpKind = "vst1.lane"
	OpVLD1     OpKind = "vld1"
	OpVST1     OpKind = "vst1"
)

// Op is one recorded emitter call.
type Op struct {
	Kind   OpKind `json:"kind"`
	Reg    Reg    `json:"reg"`
	Src    Reg    `json:"src,omitempty"`
	Lane   int    `json:"lane,omitempty"`
	Lanes  int    `json:"lanes,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

func (o Op) IsLoad() bool {
	return o.Kind == OpVLDR || o.Kind == OpVLD1Lane || o.Kind == OpVLD1
}

func (o Op) IsStore() bool {
	return o.Kind == OpVSTR || o.Kind == OpVST1Lane || o.Kind == OpVST1
}

func (o Op) String() string {
	switch o.Kind {
	case OpVLDR, OpVSTR:
		return fmt.Sprintf("%s %s, [ctx+%d]", o.Kind, o.Reg, o.Offset)
	case OpVMOV:
		return fmt.Sprintf("vmov %s, %s", o.Reg, o.Src)
	case OpVLD1Lane, OpVST1Lane:
		return fmt.Sprintf("%s %s[%d], [ctx+%d]", o.Kind, o.Reg, o.Lane, o.Offset)
	case OpVLD1, OpVST1:
		return fmt.Sprintf("%s.%d %s, [ctx+%d]", o.Kind, o.Lanes, o.Reg, o.Offset)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Reg)
}

// OpRecorder is an Emitter that records every requested operation instead of
// encoding it. The cache tests and the regtrace tool assert on the recorded
// stream.
type OpRecorder struct {
	ops []Op
}

func NewOpRecorder() *OpRecorder {
	return &OpRecorder{}
}

func (e *OpRecorder) VLDR(dst Reg, offset int) {
	e.ops = append(e.ops, Op{Kind: OpVLDR, Reg: dst, Offset: offset})
}

func (e *OpRecorder) VSTR(src Reg, offset int) {
	e.ops = append(e.ops, Op{Kind: OpVSTR, Reg: src, Offset: offset})
}

func (e *OpRecorder) VMOV(dst, src Reg) {
	e.ops = append(e.ops, Op{Kind: OpVMOV, Reg: dst, Src: src})
}

func (e *OpRecorder) VLD1Lane(dst Reg, lane int, offset int) {
	e.ops = append(e.ops, Op{Kind: OpVLD1Lane, Reg: dst, Lane: lane, Offset: offset})
}

func (e *OpRecorder) VST1Lane(src Reg, lane int, offset int) {
	e.ops = append(e.ops, Op{Kind: OpVST1Lane, Reg: src, Lane: lane, Offset: offset})
}

func (e *OpRecorder) VLD1(dst Reg, lanes int, offset int) {
	e.ops = append(e.ops, Op{Kind: OpVLD1, Reg: dst, Lanes: lanes, Offset: offset})
}

func (e *OpRecorder) VST1(src Reg, lanes int, offset int) {
	e.ops = append(e.ops, Op{Kind: OpVST1, Reg: src, Lanes: lanes, Offset: offset})
}

// Ops returns the recorded operations in emission order.
func (e *OpRecorder) Ops() []Op {
	return e.ops
}

// Reset discards all recorded operations.
func (e *OpRecorder) Reset() {
	e.ops = e.ops[:0]
}

// LoadCount returns the number of recorded load operations of any width.
func (e *OpRecorder) LoadCount() int {
	n := 0
	for _, op := range e.ops {
		if op.IsLoad() {
			n++
		}
	}
	return n
}

// StoreCount returns the number of recorded store operations of any width.
func (e *OpRecorder) StoreCount() int {
	n := 0
	for _, op := range e.ops {
		if op.IsStore() {
			n++
		}
	}
	return n
}

var _ Emitter = (*OpRecorder)(nil)
