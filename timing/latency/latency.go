// Package latency provides instruction timing models for cycle-stepped
// scheduling simulation.
//
// The default latencies are 1 cycle for + and -, 2 cycles for *, and
// 3 cycles for Load and Store. They can be overridden via TimingConfig.
package latency

import (
	"github.com/sarchlab/isrsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	return t.GetOpLatency(inst.Op)
}

// GetOpLatency returns the execution latency in cycles for an operation class.
func (t *Table) GetOpLatency(op insts.Op) uint64 {
	switch op {
	case insts.OpAdd:
		return t.config.AddLatency
	case insts.OpSub:
		return t.config.SubLatency
	case insts.OpMul:
		return t.config.MultiplyLatency
	case insts.OpLoad:
		return t.config.LoadLatency
	case insts.OpStore:
		return t.config.StoreLatency
	default:
		return 1
	}
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op.IsMemory()
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
