package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/loader"
	"github.com/sarchlab/isrsim/report"
	"github.com/sarchlab/isrsim/timing/core"
	"github.com/sarchlab/isrsim/timing/latency"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	policy        string
	width         int
	setting       int
	latencyConfig string
	registers     int
	format        string
	stats         bool
	list          bool
	verbose       bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <instruction-file>",
		Short: "Schedule an instruction file and print the cycle table.",
		Long: `Schedule an instruction file and print the cycle table. ` +
			`Each line of the file is dest,src1,src2,op with op one of ` +
			`+, -, *, Load and Store. Invalid lines are reported and skipped; ` +
			`a missing file is reported and simulated as an empty program.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulateFile(args[0], opts,
				cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.policy, "policy", pipeline.InOrder.String(),
		"Scheduling policy (see 'isrsim policies')")
	flags.IntVar(&opts.width, "width", 1, "Issue width")
	flags.IntVar(&opts.setting, "setting", 0,
		"Processor setting 1-4; overrides --policy")
	flags.StringVar(&opts.latencyConfig, "latency-config", "",
		"Path to timing configuration JSON file")
	flags.IntVar(&opts.registers, "registers", insts.DefaultRegisterCount,
		"Number of architectural registers (1-256)")
	flags.StringVar(&opts.format, "format", string(report.FormatTable),
		"Output format: table, json or csv")
	flags.BoolVar(&opts.stats, "stats", false, "Print statistics after the trace")
	flags.BoolVar(&opts.list, "list", false,
		"Print the instruction listing before the trace")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

// superscalarConfig resolves the policy and width flags.
func (o *runOptions) superscalarConfig() (pipeline.SuperscalarConfig, error) {
	if o.setting != 0 {
		return pipeline.SettingConfig(o.setting, o.width)
	}

	policy, err := pipeline.ParsePolicy(o.policy)
	if err != nil {
		return pipeline.SuperscalarConfig{}, err
	}

	config := pipeline.SuperscalarConfig{IssueWidth: o.width, Policy: policy}

	return config, config.Validate()
}

func (o *runOptions) latencyTable() (*latency.Table, error) {
	if o.latencyConfig == "" {
		return latency.NewTable(), nil
	}

	config, err := latency.LoadConfig(o.latencyConfig)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	return latency.NewTableWithConfig(config), nil
}

// simulateFile loads, schedules and reports one instruction file.
func simulateFile(
	path string,
	opts *runOptions,
	stdout, stderr io.Writer,
) error {
	config, err := opts.superscalarConfig()
	if err != nil {
		return err
	}

	if err := insts.ValidateRegisterCount(opts.registers); err != nil {
		return err
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	table, err := opts.latencyTable()
	if err != nil {
		return err
	}

	prog, err := loader.Load(path,
		insts.WithRegisterCount(opts.registers),
		insts.WithLatencySource(table))
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "File '%s' not found.\n", path)
		prog = loader.Empty()
		prog.Path = path
		prog.RegisterCount = opts.registers
	} else if err != nil {
		return err
	}

	for _, d := range prog.Dropped {
		fmt.Fprintf(stderr, "%v\n", d)
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "Loaded: %s\n", prog.Path)
		fmt.Fprintf(stderr, "Instructions: %d\n", prog.Len())
		fmt.Fprintf(stderr, "Dropped lines: %d\n", len(prog.Dropped))
		fmt.Fprintf(stderr, "Setting: %v, width %d\n",
			config.Policy, config.IssueWidth)
	}

	printer := report.NewPrinter(stdout, prog.Instructions)

	if opts.list {
		if err := printer.PrintInstructions(); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	result, err := core.Simulate(prog.Instructions,
		pipeline.WithSuperscalar(config),
		pipeline.WithRegisterCount(prog.RegisterCount))
	if err != nil {
		return fmt.Errorf("failed to simulate %s: %w", path, err)
	}

	if err := printer.Print(format, result.Trace); err != nil {
		return err
	}

	if opts.stats {
		fmt.Fprintln(stdout)
		printer.PrintStats(result.Stats)
	}

	return nil
}
