// Package main provides a profiling wrapper for isrsim to identify
// scheduler performance bottlenecks on long instruction streams.
package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/loader"
	"github.com/sarchlab/isrsim/timing/core"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

type profileOptions struct {
	policy     string
	width      int
	repeat     int
	engine     bool
	cpuProfile string
	memProfile string
	duration   time.Duration
}

func main() {
	if err := newProfileCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newProfileCmd() *cobra.Command {
	opts := &profileOptions{}

	cmd := &cobra.Command{
		Use:          "profile [options] <instruction-file>",
		Short:        "Profile the scheduler on a repeated instruction listing.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.policy, "policy", pipeline.OOOIssueAndRetire.String(),
		"Scheduling policy")
	flags.IntVar(&opts.width, "width", 4, "Issue width")
	flags.IntVar(&opts.repeat, "repeat", 1000,
		"Number of times the listing is repeated")
	flags.BoolVar(&opts.engine, "engine", false,
		"Drive the pipeline through the akita engine")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "write cpu profile to file")
	flags.StringVar(&opts.memProfile, "memprofile", "", "write memory profile to file")
	flags.DurationVar(&opts.duration, "duration", 30*time.Second,
		"max duration to run (for profiling)")

	return cmd
}

func runProfile(cmd *cobra.Command, path string, opts *profileOptions) error {
	policy, err := pipeline.ParsePolicy(opts.policy)
	if err != nil {
		return err
	}

	prog, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("error loading program: %w", err)
	}

	stream := repeatStream(prog.Instructions, opts.repeat)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded: %s\n", path)
	fmt.Fprintf(out, "Instructions: %d x %d = %d\n",
		prog.Len(), opts.repeat, len(stream))

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			return fmt.Errorf("error creating CPU profile: %w", err)
		}

		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("error starting CPU profile: %w", err)
		}

		atexit.Register(func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}

	go func() {
		time.Sleep(opts.duration)
		fmt.Fprintf(os.Stderr, "\nTimeout reached after %v - stopping execution\n",
			opts.duration)
		atexit.Exit(2)
	}()

	simOpts := []pipeline.PipelineOption{
		pipeline.WithPolicy(policy),
		pipeline.WithIssueWidth(opts.width),
		pipeline.WithRegisterCount(prog.RegisterCount),
	}

	start := time.Now()

	var stats pipeline.Statistics
	if opts.engine {
		result, err := core.Simulate(stream, simOpts...)
		if err != nil {
			return err
		}
		stats = result.Stats.Statistics
	} else {
		p, err := pipeline.NewPipeline(stream, simOpts...)
		if err != nil {
			return err
		}
		p.Run()
		stats = p.Stats()
	}

	elapsed := time.Since(start)

	if opts.memProfile != "" {
		if err := writeMemProfile(opts.memProfile); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nProfiling Results:\n")
	fmt.Fprintf(out, "Cycles simulated: %d\n", stats.Cycles)
	fmt.Fprintf(out, "Instructions retired: %d\n", stats.Instructions)
	fmt.Fprintf(out, "Elapsed time: %v\n", elapsed)
	if stats.Instructions > 0 {
		fmt.Fprintf(out, "Instructions/second: %.0f\n",
			float64(stats.Instructions)/elapsed.Seconds())
	}

	return nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating memory profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("error writing memory profile: %w", err)
	}

	return nil
}

// repeatStream concatenates n copies of stream with fresh program indices.
func repeatStream(stream []*insts.Instruction, n int) []*insts.Instruction {
	out := make([]*insts.Instruction, 0, len(stream)*n)
	for k := 0; k < n; k++ {
		for _, inst := range stream {
			c := *inst
			c.Index = len(out) + 1
			out = append(out, &c)
		}
	}

	return out
}
