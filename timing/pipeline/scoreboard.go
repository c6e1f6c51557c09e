package pipeline

import (
	"log"

	"github.com/sarchlab/isrsim/insts"
)

// RegisterStatus holds the outstanding reads and writes of one register.
type RegisterStatus struct {
	// PendingReads counts issued, not yet retired instructions reading the
	// register.
	PendingReads uint32
	// PendingWrites counts issued, not yet retired instructions writing the
	// register.
	PendingWrites uint32
}

// InUse returns true if the register has any outstanding read or write.
func (s RegisterStatus) InUse() bool {
	return s.PendingReads > 0 || s.PendingWrites > 0
}

// Scoreboard tracks outstanding register reads and writes of in-flight
// instructions. It is created once per simulation run.
type Scoreboard struct {
	regs []RegisterStatus
}

// NewScoreboard creates a scoreboard for numRegs architectural registers.
func NewScoreboard(numRegs int) *Scoreboard {
	return &Scoreboard{
		regs: make([]RegisterStatus, numRegs),
	}
}

// NumRegisters returns the number of tracked registers.
func (s *Scoreboard) NumRegisters() int {
	return len(s.regs)
}

// Status returns the status of a register.
func (s *Scoreboard) Status(reg insts.Register) RegisterStatus {
	return s.regs[reg]
}

// PendingReads returns the number of outstanding reads of reg.
func (s *Scoreboard) PendingReads(reg insts.Register) uint32 {
	return s.regs[reg].PendingReads
}

// PendingWrites returns the number of outstanding writes of reg.
func (s *Scoreboard) PendingWrites(reg insts.Register) uint32 {
	return s.regs[reg].PendingWrites
}

// Acquire records the reads and the write of an instruction being issued.
func (s *Scoreboard) Acquire(inst *insts.Instruction) {
	s.regs[inst.Src1].PendingReads++
	s.regs[inst.Src2].PendingReads++
	s.regs[inst.Dest].PendingWrites++
}

// Release undoes Acquire when the instruction retires. Releasing a register
// that has no outstanding access is a bookkeeping bug and panics.
func (s *Scoreboard) Release(inst *insts.Instruction) {
	s.decReads(inst.Src1, inst)
	s.decReads(inst.Src2, inst)

	if s.regs[inst.Dest].PendingWrites == 0 {
		log.Panicf("scoreboard: releasing write of %v by instruction %d "+
			"with no pending write", inst.Dest, inst.Index)
	}
	s.regs[inst.Dest].PendingWrites--
}

func (s *Scoreboard) decReads(reg insts.Register, inst *insts.Instruction) {
	if s.regs[reg].PendingReads == 0 {
		log.Panicf("scoreboard: releasing read of %v by instruction %d "+
			"with no pending read", reg, inst.Index)
	}
	s.regs[reg].PendingReads--
}

// InUseCount returns the number of registers with an outstanding read or
// write.
func (s *Scoreboard) InUseCount() int {
	count := 0

	for _, r := range s.regs {
		if r.InUse() {
			count++
		}
	}

	return count
}

// Snapshot returns a copy of all register statuses.
func (s *Scoreboard) Snapshot() []RegisterStatus {
	return append([]RegisterStatus(nil), s.regs...)
}

// Reset clears all counters.
func (s *Scoreboard) Reset() {
	for i := range s.regs {
		s.regs[i] = RegisterStatus{}
	}
}
