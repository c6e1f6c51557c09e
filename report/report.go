// Package report renders simulation results for people and for tools:
// the cycle table, JSON and CSV traces, the instruction listing and the
// statistics summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/isrsim/insts"
	"github.com/sarchlab/isrsim/timing/core"
	"github.com/sarchlab/isrsim/timing/pipeline"
)

// ErrUnknownFormat is returned for an output format name that is not
// supported.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how a trace is rendered.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV}
}

// ParseFormat converts a format name into a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// IssuedText returns the issue-column form of an instruction:
// "1. r3 = r0 * r1" for arithmetic, "2. r4 = Load r0, r1" for loads and
// "3. Store r5 = r2" for stores.
func IssuedText(inst *insts.Instruction) string {
	switch inst.Op {
	case insts.OpLoad:
		return fmt.Sprintf("%d. %v = Load %v, %v",
			inst.Index, inst.Dest, inst.Src1, inst.Src2)
	case insts.OpStore:
		return fmt.Sprintf("%d. Store %v = %v",
			inst.Index, inst.Dest, inst.Src1)
	default:
		return fmt.Sprintf("%d. %v = %v %v %v",
			inst.Index, inst.Dest, inst.Src1, inst.Op, inst.Src2)
	}
}

// RetiredText returns the retire-column form of an instruction, "1. ".
func RetiredText(index int) string {
	return fmt.Sprintf("%d. ", index)
}

// Printer writes reports about one instruction stream.
type Printer struct {
	out     io.Writer
	stream  []*insts.Instruction
	byIndex map[int]*insts.Instruction
}

// NewPrinter creates a printer for the given stream.
func NewPrinter(out io.Writer, stream []*insts.Instruction) *Printer {
	p := &Printer{
		out:     out,
		stream:  stream,
		byIndex: make(map[int]*insts.Instruction, len(stream)),
	}

	for _, inst := range stream {
		p.byIndex[inst.Index] = inst
	}

	return p
}

// Print renders the trace in the given format.
func (p *Printer) Print(format Format, trace pipeline.Trace) error {
	switch format {
	case FormatTable:
		return p.PrintTable(trace)
	case FormatJSON:
		return p.PrintJSON(trace)
	case FormatCSV:
		return p.PrintCSV(trace)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

func (p *Printer) issuedCell(indices []int) string {
	texts := make([]string, 0, len(indices))
	for _, index := range indices {
		inst, ok := p.byIndex[index]
		if !ok {
			texts = append(texts, strings.TrimSpace(RetiredText(index)))
			continue
		}
		texts = append(texts, IssuedText(inst))
	}

	return strings.Join(texts, " ")
}

func (p *Printer) retiredCell(indices []int) string {
	var b strings.Builder
	for _, index := range indices {
		b.WriteString(RetiredText(index))
	}

	return strings.TrimSpace(b.String())
}

// PrintTable writes the trace as an aligned table with the columns Cycle,
// Instructions Issued and Retired.
func (p *Printer) PrintTable(trace pipeline.Trace) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "Cycle\tInstructions Issued\tRetired")
	for _, rec := range trace {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n",
			rec.Cycle, p.issuedCell(rec.Issued), p.retiredCell(rec.Retired))
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	return nil
}

// cycleDocument is the JSON form of one cycle record.
type cycleDocument struct {
	Cycle      uint64   `json:"cycle"`
	Issued     []int    `json:"issued"`
	Retired    []int    `json:"retired"`
	IssuedText []string `json:"issued_text"`
}

// PrintJSON writes the trace as a JSON array of cycle records.
func (p *Printer) PrintJSON(trace pipeline.Trace) error {
	docs := make([]cycleDocument, 0, len(trace))
	for _, rec := range trace {
		doc := cycleDocument{
			Cycle:      rec.Cycle,
			Issued:     rec.Issued,
			Retired:    rec.Retired,
			IssuedText: []string{},
		}
		for _, index := range rec.Issued {
			if inst, ok := p.byIndex[index]; ok {
				doc.IssuedText = append(doc.IssuedText, IssuedText(inst))
			}
		}
		docs = append(docs, doc)
	}

	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}

	return nil
}

// PrintCSV writes the trace as CSV with one row per cycle. Program indices
// within a cell are separated by spaces.
func (p *Printer) PrintCSV(trace pipeline.Trace) error {
	w := csv.NewWriter(p.out)

	rows := [][]string{{"cycle", "issued", "retired", "issued_text"}}
	for _, rec := range trace {
		rows = append(rows, []string{
			strconv.FormatUint(rec.Cycle, 10),
			joinIndices(rec.Issued),
			joinIndices(rec.Retired),
			p.issuedCell(rec.Issued),
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	return nil
}

func joinIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, index := range indices {
		parts[i] = strconv.Itoa(index)
	}
	return strings.Join(parts, " ")
}

// PrintInstructions writes the instruction listing with each instruction's
// operands, operation and latency.
func (p *Printer) PrintInstructions() error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "\tDestination\tSource 1\tSource 2\tOperation\tCycles")
	for _, inst := range p.stream {
		_, _ = fmt.Fprintf(w, "%d\t%v\t%v\t%v\t%v\t%d\n",
			inst.Index, inst.Dest, inst.Src1, inst.Src2, inst.Op, inst.Latency)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write instruction listing: %w", err)
	}

	return nil
}

// PrintStats writes the statistics summary of a run.
func (p *Printer) PrintStats(stats core.Stats) {
	_, _ = fmt.Fprintln(p.out, "--- Statistics ---")
	_, _ = fmt.Fprintf(p.out, "  Cycles:               %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(p.out, "  Instructions Retired: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(p.out, "  CPI:                  %.3f\n", stats.CPI())
	_, _ = fmt.Fprintf(p.out, "  IPC:                  %.3f\n", stats.IPC())
	_, _ = fmt.Fprintf(p.out, "  Issue Utilization:    %.1f%%\n",
		100.0*stats.IssueUtilization())
	_, _ = fmt.Fprintf(p.out, "  Stall Cycles:         %d\n", stats.StallCycles)
	_, _ = fmt.Fprintf(p.out, "  Average Latency:      %.2f cycles\n",
		stats.AverageLatency)

	_, _ = fmt.Fprintln(p.out, "  --- Blocked Issues ---")
	_, _ = fmt.Fprintf(p.out, "  RAW:      %d\n", stats.RAWHazards)
	_, _ = fmt.Fprintf(p.out, "  WAW:      %d\n", stats.WAWHazards)
	_, _ = fmt.Fprintf(p.out, "  WAR:      %d\n", stats.WARHazards)
	_, _ = fmt.Fprintf(p.out, "  Ordering: %d\n", stats.OrderingHazards)
}
