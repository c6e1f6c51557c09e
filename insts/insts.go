// Package insts provides register-operand instruction definitions and parsing.
//
// This package turns a line-oriented instruction listing into an ordered,
// immutable instruction stream. Each line has four comma-separated fields:
//
//	<dest>,<src1>,<src2>,<op>
//
// where the registers are written as r0, r1, ... and op is one of
// +, -, *, Load or Store.
//
// Usage:
//
//	parser := insts.NewParser()
//	stream, dropped := parser.Parse(strings.NewReader("r3,r0,r1,*\n"))
//	fmt.Printf("Op: %v, Dest: %v, Latency: %d\n",
//		stream[0].Op, stream[0].Dest, stream[0].Latency)
package insts
