// Package pipeline provides the cycle-stepped issue and retirement engine
// for timing simulation of a multi-issue processor.
package pipeline

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/isrsim/insts"
)

// ErrInvalidStream is returned when the instruction stream cannot be
// scheduled, e.g. indices out of order or registers beyond the scoreboard.
var ErrInvalidStream = errors.New("invalid instruction stream")

// Hook positions fired by the Pipeline. For HookPosIssue and HookPosRetire
// the hook item is the *insts.Instruction; for HookPosCycleEnd it is the
// CycleRecord.
var (
	HookPosIssue    = &sim.HookPos{Name: "Issue"}
	HookPosRetire   = &sim.HookPos{Name: "Retire"}
	HookPosCycleEnd = &sim.HookPos{Name: "CycleEnd"}
)

// State is the lifecycle state of one instruction.
type State uint8

// Instruction states. Retired is terminal.
const (
	StatePending State = iota
	StateIssued
	StateCompleted
	StateRetired
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateIssued:
		return "Issued"
	case StateCompleted:
		return "Completed"
	case StateRetired:
		return "Retired"
	default:
		return "Unknown"
	}
}

// execState is the mutable execution state of one instruction.
type execState struct {
	inst        *insts.Instruction
	pos         int // position in the stream
	state       State
	remaining   uint64
	issueCycle  uint64
	retireCycle uint64
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Issued is the number of instructions issued.
	Issued uint64
	// IssueSlots is the number of issue slots offered (width per cycle).
	IssueSlots uint64
	// StallCycles counts cycles in which nothing issued although
	// instructions were still pending.
	StallCycles uint64
	// RAWHazards counts issue attempts blocked by a read-after-write hazard.
	RAWHazards uint64
	// WAWHazards counts issue attempts blocked by a write-after-write hazard.
	WAWHazards uint64
	// WARHazards counts issue attempts blocked by a write-after-read hazard.
	WARHazards uint64
	// OrderingHazards counts issue attempts blocked by a conflict with an
	// earlier instruction that has not issued yet.
	OrderingHazards uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// IPC returns the instructions retired per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// IssueUtilization returns the fraction of issue slots that were used.
func (s Statistics) IssueUtilization() float64 {
	if s.IssueSlots == 0 {
		return 0
	}
	return float64(s.Issued) / float64(s.IssueSlots)
}

func (s *Statistics) recordHazard(kinds HazardKind) {
	if kinds.Has(HazardRAW) {
		s.RAWHazards++
	}
	if kinds.Has(HazardWAW) {
		s.WAWHazards++
	}
	if kinds.Has(HazardWAR) {
		s.WARHazards++
	}
	if kinds.Has(HazardOrdering) {
		s.OrderingHazards++
	}
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithRegisterCount sets the number of scoreboard entries. It must cover
// every register referenced by the stream.
func WithRegisterCount(count int) PipelineOption {
	return func(p *Pipeline) {
		p.registerCount = count
	}
}

// WithInvariantChecks makes the pipeline cross-check the scoreboard against
// the in-flight instructions after every phase. A mismatch panics.
func WithInvariantChecks() PipelineOption {
	return func(p *Pipeline) {
		p.checkInvariants = true
	}
}

// Pipeline is the cycle-stepped scheduler. Each Tick runs the issue,
// retire and countdown phases of one cycle and appends a CycleRecord to
// the trace.
type Pipeline struct {
	*sim.HookableBase

	stream []*insts.Instruction
	states map[int]*execState

	// Per-state queues, each ordered by program index.
	pending  []*execState
	inFlight []*execState
	retired  int

	scoreboard *Scoreboard
	hazardUnit *HazardUnit

	superscalarConfig SuperscalarConfig
	registerCount     int
	checkInvariants   bool

	cycle uint64
	trace Trace
	stats Statistics
}

// NewPipeline creates a pipeline for an instruction stream. The stream must
// be in strictly increasing program-index order.
func NewPipeline(
	stream []*insts.Instruction,
	opts ...PipelineOption,
) (*Pipeline, error) {
	p := &Pipeline{
		HookableBase:      sim.NewHookableBase(),
		stream:            stream,
		superscalarConfig: DefaultSuperscalarConfig(),
		registerCount:     insts.DefaultRegisterCount,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.superscalarConfig.Validate(); err != nil {
		return nil, err
	}

	if err := insts.ValidateRegisterCount(p.registerCount); err != nil {
		return nil, err
	}

	if err := p.validateStream(); err != nil {
		return nil, err
	}

	p.scoreboard = NewScoreboard(p.registerCount)
	p.hazardUnit = NewHazardUnit(p.scoreboard)
	p.Reset()

	return p, nil
}

func (p *Pipeline) validateStream() error {
	lastIndex := 0

	for pos, inst := range p.stream {
		if inst == nil {
			return fmt.Errorf("%w: nil instruction at position %d",
				ErrInvalidStream, pos)
		}

		if inst.Index <= lastIndex {
			return fmt.Errorf("%w: instruction index %d follows %d",
				ErrInvalidStream, inst.Index, lastIndex)
		}
		lastIndex = inst.Index

		if inst.Latency == 0 {
			return fmt.Errorf("%w: instruction %d has zero latency",
				ErrInvalidStream, inst.Index)
		}

		for _, reg := range []insts.Register{inst.Dest, inst.Src1, inst.Src2} {
			if int(reg) >= p.registerCount {
				return fmt.Errorf("%w: instruction %d references %v, "+
					"beyond %d registers",
					ErrInvalidStream, inst.Index, reg, p.registerCount)
			}
		}
	}

	return nil
}

// Config returns the superscalar configuration.
func (p *Pipeline) Config() SuperscalarConfig {
	return p.superscalarConfig
}

// Scoreboard returns the register scoreboard.
func (p *Pipeline) Scoreboard() *Scoreboard {
	return p.scoreboard
}

// HazardUnit returns the hazard detection unit.
func (p *Pipeline) HazardUnit() *HazardUnit {
	return p.hazardUnit
}

// Instructions returns the instruction stream.
func (p *Pipeline) Instructions() []*insts.Instruction {
	return p.stream
}

// Cycle returns the number of cycles simulated so far.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Trace returns the cycle records produced so far.
func (p *Pipeline) Trace() Trace {
	return p.trace
}

// Stats returns performance statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// StateOf returns the lifecycle state of the instruction with the given
// program index.
func (p *Pipeline) StateOf(index int) (State, bool) {
	s, ok := p.states[index]
	if !ok {
		return StatePending, false
	}
	return s.state, true
}

// Done returns true once every instruction has retired and no register is
// in use.
func (p *Pipeline) Done() bool {
	return p.retired == len(p.stream) && p.scoreboard.InUseCount() == 0
}

// Run executes cycles until all instructions have retired and returns the
// trace. An empty stream yields an empty trace.
func (p *Pipeline) Run() Trace {
	for !p.Done() {
		p.Tick()
	}

	return p.trace
}

// RunCycles executes up to the specified number of cycles.
// Returns true if instructions remain, false if the pipeline is done.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles; i++ {
		if p.Done() {
			return false
		}
		p.Tick()
	}

	return !p.Done()
}

// Tick executes one cycle: issue, then retire, then latency countdown.
// Ticking a finished pipeline does nothing.
func (p *Pipeline) Tick() {
	if p.Done() {
		return
	}

	p.cycle++
	hadPending := len(p.pending) > 0

	rec := CycleRecord{Cycle: p.cycle}

	rec.Issued = p.issueStage()
	p.verify("issue")

	rec.Retired = p.retireStage()
	p.verify("retire")

	p.countdownStage()

	p.stats.Cycles++
	p.stats.IssueSlots += uint64(p.superscalarConfig.IssueWidth)
	if hadPending && len(rec.Issued) == 0 {
		p.stats.StallCycles++
	}

	p.trace = append(p.trace, rec)

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosCycleEnd,
		Item:   rec,
	})
}

// issueStage selects up to IssueWidth instructions and issues them.
func (p *Pipeline) issueStage() []int {
	if p.superscalarConfig.Policy.OutOfOrderIssue() {
		return p.issueOutOfOrder()
	}

	return p.issueInOrder()
}

// issueInOrder only ever considers the oldest pending instruction. A
// blocked head ends the issue phase.
func (p *Pipeline) issueInOrder() []int {
	issued := []int{}
	width := p.superscalarConfig.IssueWidth

	for len(issued) < width && len(p.pending) > 0 {
		head := p.pending[0]

		kinds := p.hazardUnit.Classify(head.inst)
		if kinds != HazardNone {
			p.stats.recordHazard(kinds)
			break
		}

		p.issue(head)
		issued = append(issued, head.inst.Index)
	}

	return issued
}

// issueOutOfOrder scans pending instructions oldest first and issues the
// first IssueWidth that are free of scoreboard hazards and do not conflict
// with any older instruction that is still pending.
func (p *Pipeline) issueOutOfOrder() []int {
	issued := []int{}
	width := p.superscalarConfig.IssueWidth
	candidates := append([]*execState(nil), p.pending...)

	for i, cand := range candidates {
		if len(issued) >= width {
			break
		}

		kinds := p.hazardUnit.Classify(cand.inst)
		if p.blockedByOlder(cand, candidates[:i]) {
			kinds |= HazardOrdering
		}

		if kinds != HazardNone {
			p.stats.recordHazard(kinds)
			continue
		}

		p.issue(cand)
		issued = append(issued, cand.inst.Index)
	}

	return issued
}

// blockedByOlder returns true if an older, still pending instruction
// conflicts with s.
func (p *Pipeline) blockedByOlder(s *execState, older []*execState) bool {
	for _, o := range older {
		if o.state != StatePending {
			continue
		}

		if p.hazardUnit.PairwiseHazard(o.inst, s.inst) {
			return true
		}
	}

	return false
}

func (p *Pipeline) issue(s *execState) {
	if s.state != StatePending {
		log.Panicf("instruction %d issued twice", s.inst.Index)
	}

	p.scoreboard.Acquire(s.inst)

	s.state = StateIssued
	s.remaining = s.inst.Latency
	s.issueCycle = p.cycle

	p.pending = removeState(p.pending, s)
	p.inFlight = insertState(p.inFlight, s)
	p.stats.Issued++

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosIssue,
		Item:   s.inst,
	})
}

// retireStage retires completed instructions that the policy allows.
func (p *Pipeline) retireStage() []int {
	retired := []int{}
	inOrder := p.superscalarConfig.Policy.InOrderRetire()
	snapshot := append([]*execState(nil), p.inFlight...)

	for _, s := range snapshot {
		if s.state != StateCompleted {
			continue
		}

		if inOrder && !p.predecessorRetired(s) {
			continue
		}

		p.retire(s)
		retired = append(retired, s.inst.Index)
	}

	return retired
}

// predecessorRetired reports whether the instruction immediately before s
// in program order has retired. It is true for the first instruction.
func (p *Pipeline) predecessorRetired(s *execState) bool {
	if s.pos == 0 {
		return true
	}

	prev := p.states[p.stream[s.pos-1].Index]

	return prev.state == StateRetired
}

func (p *Pipeline) retire(s *execState) {
	if s.state == StateRetired {
		log.Panicf("instruction %d retired twice", s.inst.Index)
	}

	p.scoreboard.Release(s.inst)

	s.state = StateRetired
	s.retireCycle = p.cycle

	p.inFlight = removeState(p.inFlight, s)
	p.retired++
	p.stats.Instructions++

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosRetire,
		Item:   s.inst,
	})
}

// countdownStage advances every issued instruction by one cycle.
func (p *Pipeline) countdownStage() {
	for _, s := range p.inFlight {
		if s.state != StateIssued {
			continue
		}

		if s.remaining > 0 {
			s.remaining--
		}

		if s.remaining == 0 {
			s.state = StateCompleted
		}
	}
}

// verify recomputes the scoreboard from the in-flight instructions and
// panics on any difference.
func (p *Pipeline) verify(phase string) {
	if !p.checkInvariants {
		return
	}

	expected := NewScoreboard(p.registerCount)
	for _, s := range p.inFlight {
		expected.Acquire(s.inst)
	}

	actual := p.scoreboard.Snapshot()
	for reg, want := range expected.Snapshot() {
		if actual[reg] != want {
			log.Panicf("scoreboard mismatch after %s phase of cycle %d: "+
				"r%d is %+v, expected %+v",
				phase, p.cycle, reg, actual[reg], want)
		}
	}
}

// Reset returns every instruction to Pending and clears the scoreboard,
// the trace and the statistics.
func (p *Pipeline) Reset() {
	p.states = make(map[int]*execState, len(p.stream))
	p.pending = make([]*execState, 0, len(p.stream))
	p.inFlight = nil
	p.retired = 0

	for pos, inst := range p.stream {
		s := &execState{inst: inst, pos: pos, state: StatePending}
		p.states[inst.Index] = s
		p.pending = append(p.pending, s)
	}

	p.scoreboard.Reset()
	p.cycle = 0
	p.trace = Trace{}
	p.stats = Statistics{}
}

func removeState(list []*execState, s *execState) []*execState {
	for i, e := range list {
		if e == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// insertState inserts s keeping list ordered by program index.
func insertState(list []*execState, s *execState) []*execState {
	i := len(list)
	for i > 0 && list[i-1].inst.Index > s.inst.Index {
		i--
	}

	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = s

	return list
}
