package insts

import (
	"fmt"
	"strings"
)

// Op represents an instruction operation class.
type Op uint8

// Supported operations.
const (
	OpUnknown Op = iota
	OpAdd
	OpSub
	OpMul
	OpLoad
	OpStore
)

var opNames = map[Op]string{
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpLoad:  "Load",
	OpStore: "Store",
}

// String returns the textual form of the operation as written in listings.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}

	return "?"
}

// IsMemory returns true for Load and Store.
func (o Op) IsMemory() bool {
	return o == OpLoad || o == OpStore
}

// DefaultLatency returns the number of cycles an operation occupies once
// issued: 1 for + and -, 2 for *, 3 for Load and Store.
func (o Op) DefaultLatency() uint64 {
	switch o {
	case OpAdd, OpSub:
		return 1
	case OpMul:
		return 2
	case OpLoad, OpStore:
		return 3
	default:
		return 1
	}
}

// ParseOp converts an operation field into an Op. Load and Store are matched
// without regard to case.
func ParseOp(field string) (Op, bool) {
	switch field {
	case "+":
		return OpAdd, true
	case "-":
		return OpSub, true
	case "*":
		return OpMul, true
	}

	switch {
	case strings.EqualFold(field, "Load"):
		return OpLoad, true
	case strings.EqualFold(field, "Store"):
		return OpStore, true
	}

	return OpUnknown, false
}

// Register is an architectural register number.
type Register uint8

// String returns the register in listing form, e.g. r3.
func (r Register) String() string {
	return fmt.Sprintf("r%d", r)
}

// Instruction represents a decoded instruction in the stream.
//
// For Load, Src1 and Src2 form the address and Dest receives the loaded
// value. For Store, Dest names the memory target and Src1 holds the value
// being stored.
type Instruction struct {
	Index   int      // 1-based position in program order
	Line    int      // Source line the instruction was read from
	Dest    Register // Destination register
	Src1    Register // First source register
	Src2    Register // Second source register
	Op      Op       // Operation class
	Latency uint64   // Cycles required once issued
}

// Registers returns the destination and both source registers.
func (i *Instruction) Registers() (dest, src1, src2 Register) {
	return i.Dest, i.Src1, i.Src2
}

// String returns the instruction in listing form, e.g. "r3,r0,r1,*".
func (i *Instruction) String() string {
	return fmt.Sprintf("%v,%v,%v,%v", i.Dest, i.Src1, i.Src2, i.Op)
}
