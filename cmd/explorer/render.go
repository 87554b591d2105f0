package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jengzang/trajectory-explorer/internal/colorscale"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/spatial"
	"github.com/jengzang/trajectory-explorer/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	markStyle   = lipgloss.NewStyle().Bold(true)
)

// legendSwatches is how many colour blocks the legend shows.
const legendSwatches = 20

func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(x, 'g', 6, 64)
	default:
		return fmt.Sprint(x)
	}
}

// columnsOf returns id first, then the remaining keys sorted.
func columnsOf(records []models.Record) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}
	delete(seen, "id")
	cols := make([]string, 0, len(seen)+1)
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return append([]string{"id"}, cols...)
}

// renderTable prints records, colouring each row by colorField and marking
// rows inside the selector's range.
func renderTable(w io.Writer, records []models.Record, colorField string, selector *colorscale.Selector) {
	if len(records) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no records"))
		return
	}
	cols := columnsOf(records)
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
		for _, r := range records {
			if n := len(formatValue(r[c])); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var header strings.Builder
	header.WriteString("    ")
	for i, c := range cols {
		header.WriteString(cellStyle.Width(widths[i] + 2).Render(headerStyle.Render(c)))
	}
	fmt.Fprintln(w, header.String())

	scale := selector.Scale()
	for _, r := range records {
		var line strings.Builder
		v, hasColor := r.Number(colorField)
		switch {
		case colorField != "" && hasColor:
			line.WriteString(swatch(scale.Color(v)))
		default:
			line.WriteString("  ")
		}
		mark := "  "
		if _, _, ranged := selector.Selection(); ranged && hasColor && selector.Contains(v) {
			mark = markStyle.Render("* ")
		}
		line.WriteString(mark)
		for i, c := range cols {
			line.WriteString(cellStyle.Width(widths[i] + 2).Render(formatValue(r[c])))
		}
		fmt.Fprintln(w, line.String())
	}
}

// renderLegend prints the colour ramp of the scale with its bounds, the
// selected range markers and the mean of field.
func renderLegend(w io.Writer, field string, records []models.Record, selector *colorscale.Selector) {
	scale := selector.Scale()
	var ramp strings.Builder
	for i := 0; i <= legendSwatches; i++ {
		v := scale.Min + float64(i)/legendSwatches*(scale.Max-scale.Min)
		ramp.WriteString(swatch(scale.Color(v)))
	}
	fmt.Fprintf(w, "%s  %s %s %s\n",
		headerStyle.Render(field),
		formatValue(scale.Min), ramp.String(), formatValue(scale.Max))

	if lower, upper, ok := selector.Markers(); ok {
		fmt.Fprintf(w, "  range %s .. %s\n", formatValue(lower), formatValue(upper))
	}
	for _, g := range selector.ActiveGroups() {
		fmt.Fprintf(w, "  active %s: %s\n", formatValue(g.Bucket), selector.Tooltip(g.Bucket, nil))
	}

	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Number(field); ok {
			values = append(values, v)
		}
	}
	if len(values) > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  mean %s over %d records", formatValue(stats.Mean(values)), len(values))))
	}
}

// arcSummary reports how many arcs were loaded and their mean angular span.
func arcSummary(arcs []models.Arc) string {
	if len(arcs) == 0 {
		return "0 arcs"
	}
	spans := make([]float64, len(arcs))
	for i, a := range arcs {
		spans[i] = spatial.PathAngle(a.Points)
	}
	return fmt.Sprintf("%d arcs, mean span %.1f°", len(arcs), stats.Mean(spans))
}
