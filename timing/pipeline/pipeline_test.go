package pipeline_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

// parseStream builds an instruction stream from listing lines.
func parseStream(lines ...string) []*insts.Instruction {
	stream, dropped := insts.NewParser().Parse(
		strings.NewReader(strings.Join(lines, "\n")))
	Expect(dropped).To(BeEmpty())
	return stream
}

// rec builds an expected cycle record.
func rec(cycle uint64, issued, retired []int) pipeline.CycleRecord {
	if issued == nil {
		issued = []int{}
	}
	if retired == nil {
		retired = []int{}
	}
	return pipeline.CycleRecord{Cycle: cycle, Issued: issued, Retired: retired}
}

func ids(i ...int) []int {
	return i
}

var _ = Describe("Pipeline", func() {
	run := func(
		stream []*insts.Instruction,
		policy pipeline.Policy,
		width int,
	) pipeline.Trace {
		trace, err := pipeline.RunSimulation(stream, policy, width,
			pipeline.WithInvariantChecks())
		Expect(err).NotTo(HaveOccurred())
		return trace
	}

	Describe("Construction", func() {
		It("should reject a zero issue width", func() {
			_, err := pipeline.NewPipeline(parseStream("r3,r0,r1,+"),
				pipeline.WithIssueWidth(0))
			Expect(err).To(MatchError(pipeline.ErrInvalidIssueWidth))
		})

		It("should reject a register count a Register cannot address", func() {
			for _, count := range []int{-1, 0, insts.MaxRegisterCount + 1} {
				_, err := pipeline.NewPipeline(parseStream("r3,r0,r1,+"),
					pipeline.WithRegisterCount(count))
				Expect(err).To(MatchError(pipeline.ErrInvalidRegisterCount))
			}

			_, err := pipeline.NewPipeline(parseStream("r3,r0,r1,+"),
				pipeline.WithRegisterCount(insts.MaxRegisterCount))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject an unknown policy", func() {
			_, err := pipeline.RunSimulation(parseStream("r3,r0,r1,+"),
				pipeline.Policy(42), 2)
			Expect(err).To(MatchError(pipeline.ErrUnknownPolicy))
		})

		It("should reject out-of-order program indices", func() {
			stream := parseStream("r3,r0,r1,+", "r4,r0,r1,+")
			stream[0], stream[1] = stream[1], stream[0]

			_, err := pipeline.NewPipeline(stream)
			Expect(err).To(MatchError(pipeline.ErrInvalidStream))
		})

		It("should reject registers beyond the scoreboard", func() {
			stream := []*insts.Instruction{
				{Index: 1, Dest: 20, Src1: 0, Src2: 1, Op: insts.OpAdd, Latency: 1},
			}

			_, err := pipeline.NewPipeline(stream)
			Expect(err).To(MatchError(pipeline.ErrInvalidStream))

			_, err = pipeline.NewPipeline(stream, pipeline.WithRegisterCount(32))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject zero-latency instructions", func() {
			stream := []*insts.Instruction{
				{Index: 1, Dest: 3, Src1: 0, Src2: 1, Op: insts.OpAdd},
			}

			_, err := pipeline.NewPipeline(stream)
			Expect(err).To(MatchError(pipeline.ErrInvalidStream))
		})

		It("should start with every instruction pending", func() {
			p, err := pipeline.NewPipeline(parseStream("r3,r0,r1,+", "r4,r0,r1,+"))
			Expect(err).NotTo(HaveOccurred())

			for _, index := range []int{1, 2} {
				state, ok := p.StateOf(index)
				Expect(ok).To(BeTrue())
				Expect(state).To(Equal(pipeline.StatePending))
			}
			Expect(p.Done()).To(BeFalse())
			Expect(p.Cycle()).To(BeZero())
		})
	})

	Describe("Empty stream", func() {
		It("should produce a trace with zero cycles", func() {
			for _, policy := range pipeline.Policies() {
				trace := run(nil, policy, 2)
				Expect(trace).To(BeEmpty())
			}
		})
	})

	Describe("Single-issue in-order", func() {
		It("should retire a multiply at issue cycle plus latency", func() {
			trace := run(parseStream("r3,r0,r1,*"), pipeline.InOrder, 1)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1), nil),
				rec(2, nil, nil),
				rec(3, nil, ids(1)),
			}))
		})

		It("should hold a RAW-dependent instruction until its producer retires", func() {
			trace := run(parseStream("r3,r0,r1,+", "r4,r3,r2,+"),
				pipeline.InOrder, 1)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1), nil),
				rec(2, nil, ids(1)),
				rec(3, ids(2), nil),
				rec(4, nil, ids(2)),
			}))
		})

		It("should issue at most one instruction per cycle", func() {
			trace := run(parseStream("r3,r0,r1,+", "r5,r0,r2,+"),
				pipeline.InOrder, 1)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1), nil),
				rec(2, ids(2), ids(1)),
				rec(3, nil, ids(2)),
			}))
		})
	})

	Describe("Superscalar in-order", func() {
		It("should issue independent instructions together and retire them in order", func() {
			trace := run(parseStream("r3,r0,r1,+", "r5,r0,r2,+"),
				pipeline.InOrder, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1, 2), nil),
				rec(2, nil, ids(1, 2)),
			}))
		})

		It("should not skip past a blocked head instruction", func() {
			trace := run(parseStream(
				"r3,r0,r1,*",
				"r4,r3,r2,+",
				"r5,r0,r1,+",
			), pipeline.InOrder, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1), nil),
				rec(2, nil, nil),
				rec(3, nil, ids(1)),
				rec(4, ids(2, 3), nil),
				rec(5, nil, ids(2, 3)),
			}))
		})

		It("should hold a younger, faster instruction until older ones retire", func() {
			trace := run(parseStream("r3,r0,r1,Load", "r5,r0,r2,+"),
				pipeline.InOrder, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1, 2), nil),
				rec(2, nil, nil),
				rec(3, nil, nil),
				rec(4, nil, ids(1, 2)),
			}))
		})
	})

	Describe("Out-of-order issue, in-order retirement", func() {
		It("should issue a younger independent instruction past a blocked one", func() {
			trace := run(parseStream(
				"r3,r0,r1,*",
				"r4,r3,r2,+",
				"r5,r0,r1,+",
			), pipeline.OOOIssueInOrderRetire, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1, 3), nil),
				rec(2, nil, nil),
				rec(3, nil, ids(1)),
				rec(4, ids(2), nil),
				rec(5, nil, ids(2, 3)),
			}))
		})

		It("should block WAR against an in-flight reader", func() {
			trace := run(parseStream("r3,r0,r1,*", "r0,r4,r5,+"),
				pipeline.OOOIssueInOrderRetire, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1), nil),
				rec(2, nil, nil),
				rec(3, nil, ids(1)),
				rec(4, ids(2), nil),
				rec(5, nil, ids(2)),
			}))
		})

		It("should not let a younger writer overtake a pending reader", func() {
			p, err := pipeline.NewPipeline(parseStream(
				"r3,r0,r1,*",
				"r4,r3,r2,+",
				"r2,r5,r6,+",
			),
				pipeline.WithPolicy(pipeline.OOOIssueInOrderRetire),
				pipeline.WithIssueWidth(2),
				pipeline.WithInvariantChecks(),
			)
			Expect(err).NotTo(HaveOccurred())

			trace := p.Run()

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1), nil),
				rec(2, nil, nil),
				rec(3, nil, ids(1)),
				rec(4, ids(2), nil),
				rec(5, nil, ids(2)),
				rec(6, ids(3), nil),
				rec(7, nil, ids(3)),
			}))
			Expect(p.Stats().OrderingHazards).To(Equal(uint64(3)))
		})

		It("should respect the issue width", func() {
			trace := run(parseStream(
				"r3,r0,r1,+",
				"r4,r0,r1,+",
				"r5,r0,r1,+",
			), pipeline.OOOIssueInOrderRetire, 2)

			Expect(trace[0].Issued).To(Equal(ids(1, 2)))
			Expect(trace[1].Issued).To(Equal(ids(3)))
		})
	})

	Describe("Out-of-order issue and retirement", func() {
		It("should issue and retire independent instructions together", func() {
			trace := run(parseStream("r3,r0,r1,+", "r5,r0,r2,+"),
				pipeline.OOOIssueAndRetire, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1, 2), nil),
				rec(2, nil, ids(1, 2)),
			}))
		})

		It("should retire a younger instruction before an older one", func() {
			trace := run(parseStream(
				"r3,r0,r1,*",
				"r4,r3,r2,+",
				"r5,r0,r1,+",
			), pipeline.OOOIssueAndRetire, 2)

			Expect(trace).To(Equal(pipeline.Trace{
				rec(1, ids(1, 3), nil),
				rec(2, nil, ids(3)),
				rec(3, nil, ids(1)),
				rec(4, ids(2), nil),
				rec(5, nil, ids(2)),
			}))
		})
	})

	Describe("Stepping", func() {
		var p *pipeline.Pipeline

		BeforeEach(func() {
			var err error
			p, err = pipeline.NewPipeline(parseStream("r3,r0,r1,+", "r4,r3,r2,+"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should advance one cycle per tick", func() {
			p.Tick()

			Expect(p.Cycle()).To(Equal(uint64(1)))
			Expect(p.Trace()).To(HaveLen(1))
			state, _ := p.StateOf(1)
			Expect(state).To(Equal(pipeline.StateCompleted))
			Expect(p.Scoreboard().InUseCount()).To(Equal(3))
		})

		It("should run for specified cycles and return running status", func() {
			running := p.RunCycles(2)

			Expect(running).To(BeTrue())
			Expect(p.Cycle()).To(Equal(uint64(2)))
		})

		It("should stop running cycles when done", func() {
			running := p.RunCycles(100)

			Expect(running).To(BeFalse())
			Expect(p.Done()).To(BeTrue())
			Expect(p.Cycle()).To(Equal(uint64(4)))
		})

		It("should ignore ticks after completion", func() {
			p.Run()
			p.Tick()

			Expect(p.Cycle()).To(Equal(uint64(4)))
		})

		It("should reset state", func() {
			first := p.Run()

			p.Reset()

			Expect(p.Cycle()).To(BeZero())
			Expect(p.Trace()).To(BeEmpty())
			Expect(p.Stats()).To(Equal(pipeline.Statistics{}))
			Expect(p.Scoreboard().InUseCount()).To(BeZero())
			Expect(p.Run()).To(Equal(first))
		})
	})

	Describe("Statistics", func() {
		It("should count cycles, instructions and stalls", func() {
			p, err := pipeline.NewPipeline(parseStream("r3,r0,r1,+", "r4,r3,r2,+"))
			Expect(err).NotTo(HaveOccurred())

			p.Run()
			stats := p.Stats()

			Expect(stats.Cycles).To(Equal(uint64(4)))
			Expect(stats.Instructions).To(Equal(uint64(2)))
			Expect(stats.Issued).To(Equal(uint64(2)))
			Expect(stats.IssueSlots).To(Equal(uint64(4)))
			Expect(stats.StallCycles).To(Equal(uint64(1)))
			Expect(stats.RAWHazards).To(Equal(uint64(1)))
			Expect(stats.CPI()).To(BeNumerically("~", 2.0))
			Expect(stats.IPC()).To(BeNumerically("~", 0.5))
			Expect(stats.IssueUtilization()).To(BeNumerically("~", 0.5))
		})

		It("should report zero ratios before running", func() {
			var stats pipeline.Statistics

			Expect(stats.CPI()).To(BeZero())
			Expect(stats.IPC()).To(BeZero())
			Expect(stats.IssueUtilization()).To(BeZero())
		})
	})

	Describe("Trace queries", func() {
		It("should look up issue and retire cycles", func() {
			trace := run(parseStream("r3,r0,r1,*"), pipeline.InOrder, 1)

			issue, ok := trace.IssueCycle(1)
			Expect(ok).To(BeTrue())
			Expect(issue).To(Equal(uint64(1)))

			retire, ok := trace.RetireCycle(1)
			Expect(ok).To(BeTrue())
			Expect(retire).To(Equal(uint64(3)))

			_, ok = trace.RetireCycle(9)
			Expect(ok).To(BeFalse())

			Expect(trace.Cycles()).To(Equal(uint64(3)))
			Expect(trace.IssuedCount()).To(Equal(1))
			Expect(trace.RetiredCount()).To(Equal(1))
		})
	})
})
