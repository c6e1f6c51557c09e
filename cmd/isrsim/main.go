// Package main provides the isrsim command-line interface.
// isrsim schedules an instruction listing on a multi-issue processor model
// and prints the cycle-by-cycle issue and retirement table.
package main

func main() {
	Execute()
}
