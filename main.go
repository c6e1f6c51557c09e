// Package main provides the entry point for isrsim.
// isrsim is an instruction scheduling simulator for multi-issue processors
// built on Akita.
//
// For the full CLI, use: go run ./cmd/isrsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("isrsim - Multi-Issue Instruction Scheduling Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: isrsim run [options] <instruction-file>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run        Schedule an instruction file and print the cycle table")
	fmt.Println("  policies   List the processor settings")
	fmt.Println("  config     Print the default timing configuration")
	fmt.Println("  bench      Compare processor settings on a set of programs")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/isrsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/isrsim' instead.")
	}
}
