// Package prompt renders table statistics and sample rows into instruction
// text for a text-generation model.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
	"github.com/KaramelBytes/dashbrief-cli/internal/dateutil"
)

// SummaryType selects the analysis framing.
type SummaryType string

const (
	Comprehensive SummaryType = "comprehensive"
	Insights      SummaryType = "insights"
	Trends        SummaryType = "trends"
	Performance   SummaryType = "performance"
	Brief         SummaryType = "brief"
)

// SummaryTypes lists the accepted framings.
var SummaryTypes = []SummaryType{Comprehensive, Insights, Trends, Performance, Brief}

// ParseSummaryType validates s; an empty string means Comprehensive.
func ParseSummaryType(s string) (SummaryType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Comprehensive, nil
	}
	for _, t := range SummaryTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown summary type %q (want one of %s)", s, SummaryTypeNames(", "))
}

// SummaryTypeNames joins the accepted framings with sep.
func SummaryTypeNames(sep string) string {
	names := make([]string, len(SummaryTypes))
	for i, t := range SummaryTypes {
		names[i] = string(t)
	}
	return strings.Join(names, sep)
}

// SampleLimit caps the literal sample table regardless of MaxRows.
const SampleLimit = 10

// ConnectionProbe is the fixed prompt used to check that a model answers.
const ConnectionProbe = "Hello, please respond with 'Connection successful'"

// Options controls prompt content.
type Options struct {
	Title                  string      `json:"title,omitempty"`
	Context                string      `json:"context,omitempty"`
	SummaryType            SummaryType `json:"summaryType,omitempty"`
	IncludeRecommendations bool        `json:"includeRecommendations,omitempty"`
	// MaxRows limits rows offered as samples; 0 means all rows.
	MaxRows int `json:"maxRows,omitempty"`
}

// SampleSize is the number of rows rendered in the sample table.
func SampleSize(total, maxRows int) int {
	n := total
	if maxRows > 0 && maxRows < n {
		n = maxRows
	}
	return min(n, SampleLimit)
}

// Build renders the full analysis prompt. It performs no I/O.
func Build(rows []analysis.Row, columns []analysis.Column, opt Options) string {
	st := analysis.Extract(rows, columns)
	kind := opt.SummaryType
	if kind == "" {
		kind = Comprehensive
	}

	var sb strings.Builder
	sb.WriteString("You are a senior business intelligence analyst for the Indian fitness and wellness market. ")
	sb.WriteString("Produce a data-driven analysis that executives can act on.\n\n")

	sb.WriteString("[DATA CONTEXT]\n")
	fmt.Fprintf(&sb, "Business entity: %s\n", orDefault(opt.Title, "Business Performance Analytics"))
	fmt.Fprintf(&sb, "Context: %s\n", orDefault(opt.Context, "Business performance tracking and optimization"))
	fmt.Fprintf(&sb, "Dataset size: %d total records\n", st.TotalRows)
	fmt.Fprintf(&sb, "Analysis framework: %s\n", kind)
	sb.WriteString("Currency: Indian Rupees (₹); amounts of ₹1,00,000 and above are given in lakhs\n\n")

	sb.WriteString("[SCHEMA]\n")
	for i, c := range columns {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, c.Header, c.Key)
		fmt.Fprintf(&sb, "   - Data type: %s\n", c.Type.DisplayName())
		fmt.Fprintf(&sb, "   - Purpose: %s\n", analysis.ColumnPurpose(c))
	}
	sb.WriteString("\n")

	writeStatistics(&sb, st)

	if dc, ok := analysis.FirstDateColumn(columns); ok {
		if buckets := analysis.MonthlyBreakdown(rows, dc); len(buckets) > 0 {
			sb.WriteString("[PERIOD-OVER-PERIOD BREAKDOWN]\n")
			for _, b := range buckets {
				fmt.Fprintf(&sb, "%s: %d records", b.Display, b.Count)
				if b.Change != nil {
					sign := ""
					if *b.Change > 0 {
						sign = "+"
					}
					fmt.Fprintf(&sb, " (%s%.1f%% vs previous month)", sign, *b.Change)
				}
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}

	writeSample(&sb, rows, columns, SampleSize(len(rows), opt.MaxRows))

	_, hasDate := analysis.FirstDateColumn(columns)
	writeOutline(&sb, kind, hasDate, opt.IncludeRecommendations)
	return sb.String()
}

func writeStatistics(sb *strings.Builder, st *analysis.Statistics) {
	if nums := st.NumericColumns(); len(nums) > 0 {
		sb.WriteString("[QUANTITATIVE METRICS]\n")
		for _, k := range nums {
			s := k.Stats
			f := func(v float64) string { return analysis.FormatValue(s.Type, v) }
			spread := s.Max - s.Min
			variance := spread / s.Average * 100
			fmt.Fprintf(sb, "%s\n", s.Header)
			fmt.Fprintf(sb, "   - Total: %s\n", f(s.Sum))
			fmt.Fprintf(sb, "   - Average: %s\n", f(s.Average))
			fmt.Fprintf(sb, "   - Range: %s to %s\n", f(s.Min), f(s.Max))
			fmt.Fprintf(sb, "   - Spread: %s (%s variance)\n", f(spread), analysis.FormatPercent(variance))
			fmt.Fprintf(sb, "   - Data points: %d\n", s.Count)
		}
		sb.WriteString("\n")
	}
	if texts := st.TextColumns(); len(texts) > 0 {
		sb.WriteString("[CATEGORICAL DISTRIBUTION]\n")
		for _, k := range texts {
			s := k.Stats
			share := float64(s.MostCommon.Count) / float64(st.TotalRows) * 100
			fmt.Fprintf(sb, "%s\n", s.Header)
			fmt.Fprintf(sb, "   - Unique categories: %d\n", s.UniqueCount)
			fmt.Fprintf(sb, "   - Leader: %q (%d occurrences, %s share)\n", s.MostCommon.Value, s.MostCommon.Count, analysis.FormatPercent(share))
			fmt.Fprintf(sb, "   - Examples: %s\n", strings.Join(s.Examples, ", "))
		}
		sb.WriteString("\n")
	}
	if dates := st.DateColumns(); len(dates) > 0 {
		sb.WriteString("[TEMPORAL SCOPE]\n")
		for _, k := range dates {
			s := k.Stats
			fmt.Fprintf(sb, "%s\n", s.Header)
			fmt.Fprintf(sb, "   - Period: %s to %s\n", s.Earliest.Format(longDate), s.Latest.Format(longDate))
			fmt.Fprintf(sb, "   - Duration: %s\n", s.Range)
			fmt.Fprintf(sb, "   - Data points: %d\n", s.Count)
		}
		sb.WriteString("\n")
	}
}

const (
	longDate  = "2 January 2006"
	shortDate = "2/1/2006"
)

func writeSample(sb *strings.Builder, rows []analysis.Row, columns []analysis.Column, n int) {
	if n <= 0 {
		return
	}
	fmt.Fprintf(sb, "[SAMPLE ROWS] (first %d records)\n", n)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	line := strings.Join(headers, " | ")
	sb.WriteString(line + "\n")
	sb.WriteString(strings.Repeat("─", len([]rune(line))) + "\n")
	for i, r := range rows[:n] {
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j] = sampleCell(r[c.Key], c.Type)
		}
		fmt.Fprintf(sb, "%d. %s\n", i+1, strings.Join(cells, " | "))
	}
	sb.WriteString("\n")
}

func sampleCell(v any, t analysis.ColumnType) string {
	if v == nil {
		return "N/A"
	}
	switch t {
	case analysis.TypeCurrency, analysis.TypeNumber:
		if x, ok := analysis.CoerceNumber(v); ok && isNumber(v) {
			return analysis.FormatValue(t, x)
		}
	case analysis.TypeDate:
		if d, ok := analysis.CoerceDate(v); ok {
			return d.Format(shortDate)
		}
	}
	return strings.ReplaceAll(analysis.Stringify(v), "\n", " ")
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

var focus = map[SummaryType]string{
	Comprehensive: "Cover every section below in depth.",
	Insights:      "Weight the Key Insights section most heavily; keep other sections concise.",
	Trends:        "Weight the trend and month-over-month sections most heavily.",
	Performance:   "Weight performance assessment, segmentation and benchmarking most heavily.",
	Brief:         "Keep every section short; favour the three to five most important findings.",
}

func writeOutline(sb *strings.Builder, kind SummaryType, hasDate, recommendations bool) {
	sb.WriteString("[ANALYSIS REQUIREMENTS]\n")
	if f, ok := focus[kind]; ok {
		sb.WriteString(f + "\n")
	}
	sb.WriteString("Structure the response with these numbered sections:\n\n")

	sb.WriteString("1. Executive Summary\n")
	sb.WriteString("   Six to eight sentences: what the data represents, the three or four findings leadership must know, overall health, and the key KPIs.\n\n")

	sb.WriteString("2. Month-over-Month Comparative Analysis\n")
	if hasDate {
		sb.WriteString("   For each month give revenue (± % vs previous month), volume, average values, a one-line highlight and its rank.\n")
		sb.WriteString("   Then name the best and worst months, seasonal patterns, quarter comparisons and the momentum direction.\n\n")
	} else {
		sb.WriteString("   No date column is declared; compare early and late records and note any progression or cycles.\n\n")
	}

	sb.WriteString("3. Key Insights\n")
	sb.WriteString("   Eight to ten insights, each with the finding, why it matters, the quantified impact and the supporting numbers.\n\n")

	sb.WriteString("4. Trends & Patterns\n")
	sb.WriteString("   Growth rates, seasonality, anomalies and correlations between metrics.\n\n")

	sb.WriteString("5. Segmentation & Performance Breakdown\n")
	sb.WriteString("   Top and bottom performers, their share of the total, and a Pareto check.\n\n")

	sb.WriteString("6. Financial Analysis\n")
	sb.WriteString("   Revenue totals and growth, unit economics, revenue quality and concentration risk.\n\n")

	sb.WriteString("7. Benchmarking\n")
	sb.WriteString("   Compare against the dataset's own best periods and typical industry levels.\n\n")

	next := 8
	if recommendations {
		sb.WriteString("8. Strategic Recommendations\n")
		sb.WriteString("   Seven to ten recommendations with objective, rationale, action steps, expected impact, timeline and priority.\n\n")
		next++
	}
	fmt.Fprintf(sb, "%d. Risk Assessment\n", next)
	sb.WriteString("   Concentration, volatility and sustainability risks visible in the data.\n\n")
	fmt.Fprintf(sb, "%d. Outlook\n", next+1)
	sb.WriteString("   A three-month projection with optimistic and conservative scenarios.\n\n")

	sb.WriteString("[FORMATTING RULES]\n")
	sb.WriteString("- Support every claim with numbers from the data.\n")
	sb.WriteString("- Show rupee amounts of ₹1,00,000 and above in lakhs.\n")
	sb.WriteString("- Pair percentages with absolute values and use ±X% for period changes.\n")
	sb.WriteString("- Use bullet points for insights, trends and recommendations, one finding per bullet.\n")
	sb.WriteString("- Avoid generic statements that could describe any business.\n")
}

// BuildQuickInsights renders a short prompt asking for five bullets about the
// month before now.
func BuildQuickInsights(rows []analysis.Row, columns []analysis.Column, title string, now time.Time) string {
	st := analysis.Extract(rows, columns)
	month := dateutil.New(func() time.Time { return now }).PreviousMonthName()

	metrics := make([]string, 0, len(st.Numeric))
	for _, k := range st.NumericColumns() {
		metrics = append(metrics, fmt.Sprintf("%s: %s", k.Stats.Header, analysis.FormatCurrency(k.Stats.Sum)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this %s data with primary focus on %s performance and give 5 key insights.\n\n",
		orDefault(title, "business"), month)
	fmt.Fprintf(&sb, "Data: %d rows\n", len(rows))
	fmt.Fprintf(&sb, "Key metrics: %s\n\n", strings.Join(metrics, ", "))
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "1. Start each insight with \"%s:\" when it refers to that month\n", month)
	fmt.Fprintf(&sb, "2. Include month-over-month comparisons involving %s\n", month)
	fmt.Fprintf(&sb, "3. Show how %s ranks against other months in the dataset\n", month)
	fmt.Fprintf(&sb, "4. Compare %s to historical averages\n\n", month)
	sb.WriteString("All currency figures are Indian Rupees (₹); present large amounts in lakhs.\n")
	fmt.Fprintf(&sb, "Reply with exactly 5 bullet points about %s with specific numbers and percentages.\n", month)
	return sb.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
