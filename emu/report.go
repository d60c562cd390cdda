package emu

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sarchlab/eve/units"
)

// SummaryRow is the one-line summary of a policy result. The numeric fields
// are zero when the policy failed.
type SummaryRow struct {
	Policy           string
	Kind             string
	Success          bool
	EnergyMJ         float64
	TimeMS           float64
	AvgEnergyPerOpMJ float64
	AvgTimePerOpMS   float64
	AvgPowerMW       float64
	Message          string
}

// ResultsBasic summarizes every stored result.
func (e *Emulator) ResultsBasic() []SummaryRow {
	rows := make([]SummaryRow, 0, len(e.order))

	for _, r := range e.Results() {
		row := SummaryRow{
			Policy:  r.Policy,
			Kind:    r.Kind.String(),
			Success: r.Success,
			Message: r.Message,
		}

		if r.Totals != nil {
			row.EnergyMJ = r.Totals.EnergyMJ
			row.TimeMS = r.Totals.TimeMS
			row.AvgEnergyPerOpMJ = r.Totals.AvgEnergyPerOpMJ
			row.AvgTimePerOpMS = r.Totals.AvgTimePerOpMS
			row.AvgPowerMW = r.Totals.AvgPowerMW
		}

		rows = append(rows, row)
	}

	return rows
}

// newTable returns a table writer that prints headers and footers as given,
// so unit suffixes such as mJ and mW keep their case.
func newTable() table.Writer {
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	return t
}

// WriteSummary writes the summary table.
func (e *Emulator) WriteSummary(w io.Writer) {
	t := newTable()
	t.SetTitle(fmt.Sprintf("%d operations, budget %.4f ms", len(e.wl), units.NsToMs(units.SToNs(e.budgetS))))
	t.AppendHeader(table.Row{
		"Policy",
		"Total Energy (mJ)",
		"Total Time (ms)",
		"Average Energy per Op (mJ)",
		"Average Time per Op (ms)",
		"Average Power (mW)",
		"Success",
	})

	for _, row := range e.ResultsBasic() {
		if !row.Success {
			t.AppendRow(table.Row{row.Policy, "-", "-", "-", "-", "-", "no: " + row.Message})
			continue
		}

		t.AppendRow(table.Row{
			row.Policy,
			fmt.Sprintf("%.6f", row.EnergyMJ),
			fmt.Sprintf("%.4f", row.TimeMS),
			fmt.Sprintf("%.6f", row.AvgEnergyPerOpMJ),
			fmt.Sprintf("%.4f", row.AvgTimePerOpMS),
			fmt.Sprintf("%.3f", row.AvgPowerMW),
			"yes",
		})
	}

	fmt.Fprintln(w, t.Render())
}

// WriteDetails writes the per-operation plan of one policy.
func (e *Emulator) WriteDetails(w io.Writer, name string) error {
	r, ok := e.Result(name)
	if !ok {
		return fmt.Errorf("no result for policy %q", name)
	}

	if !r.Success {
		fmt.Fprintf(w, "%s failed: %s\n", r.Policy, r.Message)
		return nil
	}

	t := newTable()
	t.SetTitle(fmt.Sprintf("%s (run %s)", r.Policy, r.RunID))
	t.AppendHeader(table.Row{
		"#", "Shape", "PEs", "Voltage (V)", "Freq (MHz)",
		"Time (ms)", "Energy (mJ)", "Power (mW)", "Tiles",
	})

	for _, d := range r.Details {
		pes := make([]string, len(d.PEs))
		for i, pe := range d.PEs {
			pes[i] = string(pe)
		}

		t.AppendRow(table.Row{
			d.Index,
			d.Op.String(),
			strings.Join(pes, "+"),
			fmt.Sprintf("%.2f", float64(d.Voltage)),
			fmt.Sprintf("%.0f", units.MHz(d.Freq)),
			fmt.Sprintf("%.4f", units.NsToMs(d.ExecutionTimeNs)),
			fmt.Sprintf("%.6f", units.NJToMJ(d.EnergyNJ)),
			fmt.Sprintf("%.3f", d.AvgPowerMW),
			len(d.Tiles),
		})
	}

	t.AppendFooter(table.Row{
		"", "", "", "", "Total",
		fmt.Sprintf("%.4f", r.Totals.TimeMS),
		fmt.Sprintf("%.6f", r.Totals.EnergyMJ),
		fmt.Sprintf("%.3f", r.Totals.AvgPowerMW),
		"",
	})

	fmt.Fprintln(w, t.Render())

	return nil
}

// SaveSummaryToFile writes the summary table to a file.
func (e *Emulator) SaveSummaryToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	e.WriteSummary(file)

	return nil
}
