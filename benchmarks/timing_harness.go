// Package benchmarks provides the harness that runs instruction programs
// under several processor configurations and compares their timing.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/timing/core"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

// BenchmarkResult holds the timing results for one benchmark under one
// processor configuration.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Policy is the scheduling policy name
	Policy string `json:"policy"`

	// IssueWidth is the number of issue slots per cycle
	IssueWidth int `json:"issue_width"`

	// SimulatedCycles is the total cycle count
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// IPC is instructions per cycle
	IPC float64 `json:"ipc"`

	// StallCycles is the number of cycles with nothing issued
	StallCycles uint64 `json:"stall_cycles"`

	// Blocked issue attempts by hazard kind
	RAWHazards      uint64 `json:"raw_hazards"`
	WAWHazards      uint64 `json:"waw_hazards"`
	WARHazards      uint64 `json:"war_hazards"`
	OrderingHazards uint64 `json:"ordering_hazards"`

	// AverageLatency is the mean issue-to-retire time in cycles
	AverageLatency float64 `json:"average_latency"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the instruction stream to schedule
	Program []*insts.Instruction
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Configs lists the processor configurations every benchmark runs on
	Configs []pipeline.SuperscalarConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// SettingConfigs returns the four processor settings at the given issue
// width. Setting 1 is always single-issue.
func SettingConfigs(width int) []pipeline.SuperscalarConfig {
	configs := make([]pipeline.SuperscalarConfig, 0, 4)
	for setting := 1; setting <= 4; setting++ {
		config, err := pipeline.SettingConfig(setting, width)
		if err != nil {
			continue
		}
		configs = append(configs, config)
	}

	return configs
}

// DefaultConfig returns a default harness configuration: the four
// processor settings at width 2.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Configs: SettingConfigs(2),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark under every configuration and returns the
// results, benchmark-major.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0,
		len(h.benchmarks)*len(h.config.Configs))

	for _, bench := range h.benchmarks {
		for _, config := range h.config.Configs {
			result, err := h.runBenchmark(bench, config)
			if err != nil {
				return nil, fmt.Errorf("failed to run benchmark %s: %w",
					bench.Name, err)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

// runBenchmark executes a single benchmark under one configuration.
func (h *Harness) runBenchmark(
	bench Benchmark,
	config pipeline.SuperscalarConfig,
) (BenchmarkResult, error) {
	start := time.Now()
	run, err := core.Simulate(bench.Program,
		pipeline.WithSuperscalar(config))
	wallTime := time.Since(start)

	if err != nil {
		return BenchmarkResult{}, err
	}

	stats := run.Stats
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		Policy:              config.Policy.String(),
		IssueWidth:          config.IssueWidth,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		IPC:                 stats.IPC(),
		StallCycles:         stats.StallCycles,
		RAWHazards:          stats.RAWHazards,
		WAWHazards:          stats.WAWHazards,
		WARHazards:          stats.WARHazards,
		OrderingHazards:     stats.OrderingHazards,
		AverageLatency:      stats.AverageLatency,
		WallTime:            wallTime,
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "ran %s on %s/%d: %d cycles\n",
			bench.Name, result.Policy, result.IssueWidth, result.SimulatedCycles)
	}

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Scheduling Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	lastName := ""
	for _, r := range results {
		if r.Name != lastName {
			_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
			lastName = r.Name
		}

		_, _ = fmt.Fprintf(h.config.Output, "  --- %s, width %d ---\n",
			r.Policy, r.IssueWidth)
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Average Latency:      %.2f\n", r.AverageLatency)
		_, _ = fmt.Fprintf(h.config.Output, "  Blocked (RAW/WAW/WAR/Ordering): %d/%d/%d/%d\n",
			r.RAWHazards, r.WAWHazards, r.WARHazards, r.OrderingHazards)
	}
	_, _ = fmt.Fprintln(h.config.Output, "")
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,policy,width,cycles,instructions,cpi,ipc,stalls,raw,waw,war,ordering,avg_latency")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%.3f,%.3f,%d,%d,%d,%d,%d,%.3f\n",
			r.Name,
			r.Policy,
			r.IssueWidth,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.IPC,
			r.StallCycles,
			r.RAWHazards,
			r.WAWHazards,
			r.WARHazards,
			r.OrderingHazards,
			r.AverageLatency,
		)
	}
}

// PrintJSON outputs benchmark results as a JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")

	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	return nil
}

// BuildProgram parses listing lines into an instruction stream. It panics
// on a malformed line, as the built-in programs are fixed.
func BuildProgram(lines ...string) []*insts.Instruction {
	stream, dropped := insts.NewParser().Parse(
		strings.NewReader(strings.Join(lines, "\n")))
	if len(dropped) > 0 {
		panic(dropped[0].String())
	}

	return stream
}
