// Package core provides the event-driven processor core model.
// It wraps the pipeline in an akita ticking component so that a run is
// driven by the simulation engine and instruction lifetimes can be traced.
package core

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

// DefaultName is the component name used by Simulate.
const DefaultName = "Core"

// Tracing task kinds. A run is one simulation task and every in-flight
// instruction is a child task of it.
const (
	TaskKind           = "instruction"
	SimulationTaskKind = "simulation"
)

// Stats holds performance statistics for the core.
type Stats struct {
	pipeline.Statistics

	// AverageLatency is the mean number of cycles between issue and
	// retirement.
	AverageLatency float64
	// Traced is the number of instruction lifetimes measured.
	Traced uint64
}

// Result is the outcome of a complete run.
type Result struct {
	Trace pipeline.Trace
	Stats Stats
}

// Core represents a processor core ticked by an akita engine.
type Core struct {
	*sim.TickingComponent

	// Pipeline is the underlying scheduler.
	Pipeline *pipeline.Pipeline

	engine        sim.Engine
	freq          sim.Freq
	runID         string
	latencyTracer *tracing.AverageTimeTracer
}

// NewCore creates a core that schedules the given stream.
func NewCore(
	name string,
	engine sim.Engine,
	stream []*insts.Instruction,
	opts ...pipeline.PipelineOption,
) (*Core, error) {
	p, err := pipeline.NewPipeline(stream, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	c := &Core{
		Pipeline: p,
		engine:   engine,
		freq:     1 * sim.GHz,
		runID:    xid.New().String(),
	}
	c.TickingComponent = sim.NewTickingComponent(name, engine, c.freq, c)

	c.latencyTracer = tracing.NewAverageTimeTracer(engine,
		func(task tracing.Task) bool { return task.Kind == TaskKind })
	tracing.CollectTrace(c, c.latencyTracer)

	p.AcceptHook(&lifetimeHook{core: c})

	return c, nil
}

// Tick executes one pipeline cycle. It returns false once the pipeline
// is done so that the engine stops scheduling ticks.
func (c *Core) Tick() bool {
	if c.Pipeline.Done() {
		return false
	}

	c.Pipeline.Tick()

	return !c.Pipeline.Done()
}

// Done returns true if every instruction has retired.
func (c *Core) Done() bool {
	return c.Pipeline.Done()
}

// Run schedules the first tick and runs the engine until the core is done.
func (c *Core) Run() (Result, error) {
	if !c.Pipeline.Done() {
		tracing.StartTask(c.runID, "", c, SimulationTaskKind,
			c.Pipeline.Config().Policy.String(), c.Pipeline.Config())
		c.TickLater()

		if err := c.engine.Run(); err != nil {
			return Result{}, fmt.Errorf("failed to run engine: %w", err)
		}

		tracing.EndTask(c.runID, c)
	}

	return Result{
		Trace: c.Pipeline.Trace(),
		Stats: c.Stats(),
	}, nil
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return Stats{
		Statistics:     c.Pipeline.Stats(),
		AverageLatency: float64(c.latencyTracer.AverageTime()) * float64(c.freq),
		Traced:         c.latencyTracer.TotalCount(),
	}
}

// RunID returns the ID of the simulation task that parents every
// instruction task.
func (c *Core) RunID() string {
	return c.runID
}

// TaskID returns the tracing task ID of an instruction.
func (c *Core) TaskID(inst *insts.Instruction) string {
	return fmt.Sprintf("%s.Inst[%d]", c.Name(), inst.Index)
}

// lifetimeHook turns pipeline issue and retirement into tracing tasks on
// the core.
type lifetimeHook struct {
	core *Core
}

func (h *lifetimeHook) Func(ctx sim.HookCtx) {
	inst, ok := ctx.Item.(*insts.Instruction)
	if !ok {
		return
	}

	switch ctx.Pos {
	case pipeline.HookPosIssue:
		tracing.StartTask(h.core.TaskID(inst), h.core.runID, h.core,
			TaskKind, inst.Op.String(), inst)
	case pipeline.HookPosRetire:
		tracing.EndTask(h.core.TaskID(inst), h.core)
	}
}

// Simulate runs the stream to completion on a fresh serial engine.
func Simulate(
	stream []*insts.Instruction,
	opts ...pipeline.PipelineOption,
) (Result, error) {
	engine := sim.NewSerialEngine()

	c, err := NewCore(DefaultName, engine, stream, opts...)
	if err != nil {
		return Result{}, err
	}

	return c.Run()
}
