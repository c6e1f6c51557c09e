package pipeline

import (
	"github.com/sarchlab/isrsim/insts"
)

// RunSimulation schedules the instruction stream under the given policy and
// issue width and returns the cycle trace. The single-issue in-order
// processor is RunSimulation(stream, InOrder, 1).
func RunSimulation(
	stream []*insts.Instruction,
	policy Policy,
	width int,
	opts ...PipelineOption,
) (Trace, error) {
	opts = append([]PipelineOption{
		WithPolicy(policy),
		WithIssueWidth(width),
	}, opts...)

	p, err := NewPipeline(stream, opts...)
	if err != nil {
		return nil, err
	}

	return p.Run(), nil
}
