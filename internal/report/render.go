package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/guptarohit/asciigraph"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
)

// Render styles Markdown for the terminal. Style is a glamour standard style
// ("dark", "light", "notty", ...) or "auto"; "plain" returns md unchanged.
func Render(md, style string, width int) (string, error) {
	if style == "plain" || strings.TrimSpace(md) == "" {
		return md, nil
	}
	const gutter = 2
	w := width - gutter
	if w < 20 {
		w = 20
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(w)}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	case "light":
		opts = append(opts, glamour.WithStandardStyle("base16"))
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(strings.TrimSpace(md))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// MonthlyChart plots record counts per month as an ASCII line chart.
func MonthlyChart(buckets []analysis.MonthBucket, width, height int) string {
	if len(buckets) == 0 {
		return "No dated records to chart"
	}
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	data := make([]float64, len(buckets))
	for i, b := range buckets {
		data[i] = float64(b.Count)
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	caption := fmt.Sprintf("Records per month, %s to %s", buckets[0].Display, buckets[len(buckets)-1].Display)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
	)
}
