// Package report turns analysis results and statistics into Markdown and terminal output.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
	"github.com/KaramelBytes/dashbrief-cli/internal/insight"
)

// Markdown renders a summarize result. An empty title falls back to "Data Analysis".
func Markdown(title string, res *insight.Result) string {
	var b strings.Builder
	if title == "" {
		title = "Data Analysis"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	meta := []string{}
	if res.Model != "" {
		meta = append(meta, "model "+res.Model)
	}
	if !res.GeneratedAt.IsZero() {
		meta = append(meta, "generated "+res.GeneratedAt.Format(time.RFC1123))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "_%s_\n\n", strings.Join(meta, ", "))
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "> **Error:** %s\n\n", oneLine(res.Error))
	}
	b.WriteString("## Executive Summary\n\n")
	b.WriteString(strings.TrimSpace(res.Summary))
	b.WriteString("\n\n")
	writeList(&b, "Key Insights", res.KeyInsights)
	writeList(&b, "Trends", res.Trends)
	if res.Recommendations != nil {
		writeList(&b, "Recommendations", res.Recommendations)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// BulletsMarkdown renders a titled bullet list (quick insights).
func BulletsMarkdown(title string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(&b, "- %s\n", oneLine(it))
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if len(items) == 0 {
		b.WriteString("_None identified._\n\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", oneLine(it))
	}
	b.WriteString("\n")
}

// StatsMarkdown renders per-column statistics as Markdown tables.
func StatsMarkdown(name string, st *analysis.Statistics) string {
	var b strings.Builder
	if name == "" {
		name = "Dataset"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	fmt.Fprintf(&b, "Rows: %s\n\n", humanize.Comma(int64(st.TotalRows)))

	if cols := st.NumericColumns(); len(cols) > 0 {
		b.WriteString("## Numeric columns\n\n")
		b.WriteString("| Column | Type | Count | Total | Average | Min | Max |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
		for _, c := range cols {
			s := c.Stats
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s | %s |\n", cell(s.Header), s.Type, s.Count,
				analysis.FormatValue(s.Type, s.Sum), analysis.FormatValue(s.Type, s.Average),
				analysis.FormatValue(s.Type, s.Min), analysis.FormatValue(s.Type, s.Max))
		}
		b.WriteString("\n")
	}
	if cols := st.TextColumns(); len(cols) > 0 {
		b.WriteString("## Categorical columns\n\n")
		b.WriteString("| Column | Distinct | Most common | Examples |\n")
		b.WriteString("|---|---:|---|---|\n")
		for _, c := range cols {
			s := c.Stats
			fmt.Fprintf(&b, "| %s | %d | %s (%d) | %s |\n", cell(s.Header), s.UniqueCount,
				cell(s.MostCommon.Value), s.MostCommon.Count, cell(strings.Join(s.Examples, ", ")))
		}
		b.WriteString("\n")
	}
	if cols := st.DateColumns(); len(cols) > 0 {
		b.WriteString("## Date columns\n\n")
		b.WriteString("| Column | Count | Earliest | Latest | Span |\n")
		b.WriteString("|---|---:|---|---|---|\n")
		for _, c := range cols {
			s := c.Stats
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", cell(s.Header), s.Count,
				s.Earliest.Format("2006-01-02"), s.Latest.Format("2006-01-02"), s.Range)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// MonthsMarkdown renders a month breakdown table.
func MonthsMarkdown(buckets []analysis.MonthBucket) string {
	if len(buckets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Records per month\n\n| Month | Records | Change |\n|---|---:|---:|\n")
	for _, m := range buckets {
		change := "n/a"
		if m.Change != nil {
			change = fmt.Sprintf("%+.1f%%", *m.Change)
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", m.Display, m.Count, change)
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", "/")
}
