package insts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultRegisterCount is the number of architectural registers (r0-r13).
const DefaultRegisterCount = 14

// MaxRegisterCount is the largest register file a Register can address.
const MaxRegisterCount = 256

// ErrInvalidRegisterCount is returned for a register count outside
// 1-MaxRegisterCount.
var ErrInvalidRegisterCount = errors.New("register count must be between 1 and 256")

// ValidateRegisterCount checks that count registers can all be addressed by
// a Register.
func ValidateRegisterCount(count int) error {
	if count < 1 || count > MaxRegisterCount {
		return fmt.Errorf("%w: got %d", ErrInvalidRegisterCount, count)
	}

	return nil
}

// fieldCount is the number of comma-separated fields on an instruction line.
const fieldCount = 4

// LatencySource assigns execution latencies to parsed instructions.
type LatencySource interface {
	GetLatency(inst *Instruction) uint64
}

// Diagnostic describes an input line that was dropped.
type Diagnostic struct {
	// Line is the 1-based line number in the source.
	Line int
	// Text is the raw line content.
	Text string
	// Reason explains why the line was dropped.
	Reason string
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: ignoring invalid instruction %q: %s",
		d.Line, d.Text, d.Reason)
}

// ParserOption is a functional option for configuring the Parser.
type ParserOption func(*Parser)

// WithRegisterCount sets the number of valid registers. Register references
// at or above count are rejected.
func WithRegisterCount(count int) ParserOption {
	return func(p *Parser) {
		p.registerCount = count
	}
}

// WithLatencySource sets the latency source used to stamp instructions.
// When unset, Op.DefaultLatency is used.
func WithLatencySource(src LatencySource) ParserOption {
	return func(p *Parser) {
		p.latency = src
	}
}

// Parser converts instruction listings into an instruction stream.
type Parser struct {
	registerCount int
	latency       LatencySource
}

// NewParser creates a new instruction parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		registerCount: DefaultRegisterCount,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RegisterCount returns the number of valid registers.
func (p *Parser) RegisterCount() int {
	return p.registerCount
}

// Validate checks the parser configuration.
func (p *Parser) Validate() error {
	return ValidateRegisterCount(p.registerCount)
}

// Parse reads every line from r. Valid instructions are returned in program
// order with 1-based indices; malformed lines are reported as diagnostics and
// never enter the stream. Blank lines are dropped too; lines starting with
// '#' are comments and skipped silently.
func (p *Parser) Parse(r io.Reader) ([]*Instruction, []Diagnostic) {
	var (
		stream  []*Instruction
		dropped []Diagnostic
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(text, "#") {
			continue
		}

		inst, err := p.ParseLine(text)
		if err != nil {
			dropped = append(dropped, Diagnostic{
				Line:   lineNum,
				Text:   text,
				Reason: err.Error(),
			})
			continue
		}

		inst.Index = len(stream) + 1
		inst.Line = lineNum
		stream = append(stream, inst)
	}

	if err := scanner.Err(); err != nil {
		dropped = append(dropped, Diagnostic{
			Line:   lineNum + 1,
			Reason: fmt.Sprintf("failed to read input: %v", err),
		})
	}

	return stream, dropped
}

// ParseLine parses a single "dest,src1,src2,op" line. The returned
// instruction has no program index assigned.
func (p *Parser) ParseLine(line string) (*Instruction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(line) == "" {
		return nil, errors.New("empty line")
	}

	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != fieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d",
			fieldCount, len(parts))
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	op, ok := ParseOp(parts[3])
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", parts[3])
	}

	var regs [3]Register
	for i := 0; i < 3; i++ {
		reg, err := p.parseRegister(parts[i])
		if err != nil {
			return nil, err
		}
		regs[i] = reg
	}

	inst := &Instruction{
		Dest: regs[0],
		Src1: regs[1],
		Src2: regs[2],
		Op:   op,
	}
	inst.Latency = p.latencyOf(inst)

	return inst, nil
}

func (p *Parser) latencyOf(inst *Instruction) uint64 {
	if p.latency == nil {
		return inst.Op.DefaultLatency()
	}

	return p.latency.GetLatency(inst)
}

// parseRegister parses a register reference such as r3 or R3.
func (p *Parser) parseRegister(field string) (Register, error) {
	if len(field) < 2 || (field[0] != 'r' && field[0] != 'R') {
		return 0, fmt.Errorf("invalid register reference %q", field)
	}

	digits := field[1:]
	if strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("invalid register reference %q", field)
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n >= p.registerCount {
		return 0, fmt.Errorf("register %q out of range r0-r%d",
			field, p.registerCount-1)
	}

	return Register(n), nil
}
