package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var cpuProfile string

	rootCmd := &cobra.Command{
		Use: "isrsim",
		Short: "isrsim simulates instruction issue and retirement on " +
			"in-order and out-of-order multi-issue processors.",
		Long: `isrsim reads a listing of dest,src1,src2,op instructions and ` +
			`schedules it under one of four processor settings, reporting ` +
			`which instructions issue and retire in every cycle.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cpuProfile == "" {
				return nil
			}
			return startCPUProfile(cpuProfile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "",
		"Write a CPU profile to the given file")

	rootCmd.AddCommand(
		newRunCmd(),
		newPoliciesCmd(),
		newConfigCmd(),
		newBenchCmd(),
	)

	return rootCmd
}

// startCPUProfile starts profiling and registers the flush with atexit so
// the profile is complete however the command exits.
func startCPUProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}

	atexit.Register(func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	})

	return nil
}

// Execute runs the root command and exits with its status.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
