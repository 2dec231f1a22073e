package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Console renders results as tables for a person watching the terminal.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Write(_ context.Context, r Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(c.w)
	title := r.Command
	if r.Cycle > 0 {
		title = fmt.Sprintf("%s #%d", r.Command, r.Cycle)
	}
	t.SetTitle(title)
	t.AppendRow(table.Row{"Status", r.Status})
	t.AppendRow(table.Row{"Message", r.Message})
	if r.Balance != "" {
		t.AppendRow(table.Row{"Balance", r.Balance})
	}
	if r.Command == "units" {
		t.AppendRow(table.Row{"Units", unitCount(r)})
		t.AppendRow(table.Row{"Can register", strconv.FormatBool(r.CanRegister())})
	}
	if r.Error != "" {
		t.AppendRow(table.Row{"Error", r.Error})
	}
	if r.Snapshot != "" {
		t.AppendRow(table.Row{"Snapshot", r.Snapshot})
	}
	t.AppendRow(table.Row{"Took", r.Duration().Round(time.Millisecond)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(r.Units) == 0 {
		return nil
	}
	units := table.NewWriter()
	units.SetOutputMirror(c.w)
	units.AppendHeader(table.Row{"#", "Unit"})
	for i, u := range r.Units {
		units.AppendRow(table.Row{i + 1, u})
	}
	units.SetStyle(table.StyleRounded)
	units.Render()
	return nil
}

func unitCount(r Result) string {
	if r.UnitTotal > len(r.Units) {
		return fmt.Sprintf("%d (showing %d)", r.UnitTotal, len(r.Units))
	}
	return strconv.Itoa(len(r.Units))
}
