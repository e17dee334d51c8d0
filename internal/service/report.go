package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MimeLyc/sakura-subtrans/internal/translator"
)

const maxListedLines = 20

// RenderReport writes how every line of res ended up: a summary line, a
// table of outcome counts and the numbers of the degraded lines.
func RenderReport(w io.Writer, res *Result) error {
	if _, err := fmt.Fprintf(w, "%s (%s, %s mode, %s)\n", res.Output, res.Format, res.Mode, res.Elapsed.Round(time.Millisecond)); err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Lines"})

	report := res.Report
	for _, kind := range translator.Fallbacks {
		tw.AppendRow(table.Row{kind.String(), report.Count(kind)})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"source fallback", report.SourceFallbacks()})
	tw.AppendFooter(table.Row{"total", report.Total()})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return err
	}

	degraded := report.Degraded()
	if len(degraded) == 0 {
		return nil
	}
	numbers := make([]string, 0, min(len(degraded), maxListedLines))
	for _, o := range degraded[:min(len(degraded), maxListedLines)] {
		numbers = append(numbers, "#"+strconv.Itoa(o.Number))
	}
	if len(degraded) > maxListedLines {
		numbers = append(numbers, fmt.Sprintf("... (+%d)", len(degraded)-maxListedLines))
	}
	_, err := fmt.Fprintf(w, "Degraded lines: %s\n", strings.Join(numbers, " "))
	return err
}
