// Package loader provides instruction listing loading for the scheduler.
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/isrsim/insts"
)

// Program represents a loaded instruction stream ready for scheduling.
type Program struct {
	// Path is the file the program was read from, empty for readers.
	Path string
	// Instructions holds the valid instructions in program order.
	Instructions []*insts.Instruction
	// Dropped lists the lines that were rejected while parsing.
	Dropped []insts.Diagnostic
	// RegisterCount is the number of architectural registers the
	// instructions were validated against.
	RegisterCount int
}

// Len returns the number of valid instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Load reads an instruction listing from path. A file that cannot be opened
// is reported as an error; malformed lines are not errors and end up in
// Program.Dropped.
func Load(path string, opts ...insts.ParserOption) (*Program, error) {
	if err := insts.NewParser(opts...).Validate(); err != nil {
		return nil, fmt.Errorf("failed to configure parser: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instruction file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog := LoadReader(f, opts...)
	prog.Path = path

	return prog, nil
}

// LoadReader parses an instruction listing from r.
func LoadReader(r io.Reader, opts ...insts.ParserOption) *Program {
	parser := insts.NewParser(opts...)
	stream, dropped := parser.Parse(r)

	return &Program{
		Instructions:  stream,
		Dropped:       dropped,
		RegisterCount: parser.RegisterCount(),
	}
}

// Empty returns a program with no instructions, used when the instruction
// source is missing.
func Empty() *Program {
	return &Program{
		RegisterCount: insts.DefaultRegisterCount,
	}
}
