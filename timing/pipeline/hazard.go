package pipeline

import (
	"strings"

	"github.com/sarchlab/isrsim/insts"
)

// HazardKind is a set of data hazard classes.
type HazardKind uint8

const (
	// HazardNone means the instruction may issue.
	HazardNone HazardKind = 0
	// HazardRAW means a source register has a pending write.
	HazardRAW HazardKind = 1 << iota
	// HazardWAW means the destination register has a pending write.
	HazardWAW
	// HazardWAR means the destination register has a pending read.
	HazardWAR
	// HazardOrdering means an earlier, not yet issued instruction touches a
	// register this instruction also touches.
	HazardOrdering
)

var hazardNames = []struct {
	kind HazardKind
	name string
}{
	{HazardRAW, "RAW"},
	{HazardWAW, "WAW"},
	{HazardWAR, "WAR"},
	{HazardOrdering, "Ordering"},
}

// Has returns true if k contains every kind in other.
func (k HazardKind) Has(other HazardKind) bool {
	return k&other == other
}

// String returns the hazard kinds joined with "|".
func (k HazardKind) String() string {
	if k == HazardNone {
		return "None"
	}

	var names []string
	for _, h := range hazardNames {
		if k.Has(h.kind) {
			names = append(names, h.name)
		}
	}

	return strings.Join(names, "|")
}

// HazardUnit detects data hazards against the scoreboard and between pairs
// of instructions. It never modifies the scoreboard.
type HazardUnit struct {
	scoreboard *Scoreboard
}

// NewHazardUnit creates a new hazard detection unit over a scoreboard.
func NewHazardUnit(scoreboard *Scoreboard) *HazardUnit {
	return &HazardUnit{scoreboard: scoreboard}
}

// Classify returns the hazards that currently prevent inst from issuing,
// checked against all issued but not yet retired instructions.
func (h *HazardUnit) Classify(inst *insts.Instruction) HazardKind {
	sb := h.scoreboard
	kinds := HazardNone

	if sb.PendingWrites(inst.Src1) > 0 || sb.PendingWrites(inst.Src2) > 0 {
		kinds |= HazardRAW
	}

	if sb.PendingWrites(inst.Dest) > 0 {
		kinds |= HazardWAW
	}

	if sb.PendingReads(inst.Dest) > 0 {
		kinds |= HazardWAR
	}

	return kinds
}

// SingleHazard returns true if inst cannot issue yet because of a RAW, WAW
// or WAR hazard with an in-flight instruction.
func (h *HazardUnit) SingleHazard(inst *insts.Instruction) bool {
	return h.Classify(inst) != HazardNone
}

// PairwiseHazard returns true if b must not overtake a. a is earlier in
// program order and not yet issued. They conflict when a writes a register
// b reads or writes, or b writes a register a reads.
func (h *HazardUnit) PairwiseHazard(a, b *insts.Instruction) bool {
	return a.Dest == b.Src1 ||
		a.Dest == b.Src2 ||
		a.Dest == b.Dest ||
		b.Dest == a.Src1 ||
		b.Dest == a.Src2
}
