package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/isrsim/benchmarks"
	"github.com/sarchlab/isrsim/loader"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

func newBenchCmd() *cobra.Command {
	var (
		width   int
		format  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "bench [instruction-file...]",
		Short: "Compare the four processor settings on a set of programs.",
		Long: `Compare the four processor settings on a set of programs. ` +
			`Without arguments the built-in microbenchmarks are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width < 1 {
				return fmt.Errorf("%w: got %d", pipeline.ErrInvalidIssueWidth, width)
			}

			harness := benchmarks.NewHarness(benchmarks.HarnessConfig{
				Configs: benchmarks.SettingConfigs(width),
				Output:  cmd.OutOrStdout(),
				Verbose: verbose,
			})

			if len(args) == 0 {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			for _, path := range args {
				prog, err := loader.Load(path)
				if err != nil {
					return err
				}

				for _, d := range prog.Dropped {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, d)
				}

				harness.AddBenchmark(benchmarks.Benchmark{
					Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
					Description: path,
					Program:     prog.Instructions,
				})
			}

			results, err := harness.RunAll()
			if err != nil {
				return err
			}

			switch format {
			case "text":
				harness.PrintResults(results)
			case "csv":
				harness.PrintCSV(results)
			case "json":
				return harness.PrintJSON(results)
			default:
				return fmt.Errorf("unknown bench format %q", format)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 2, "Issue width for settings 2-4")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, csv or json")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}
