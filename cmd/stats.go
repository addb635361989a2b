package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
	"github.com/KaramelBytes/dashbrief-cli/internal/report"
	"github.com/KaramelBytes/dashbrief-cli/internal/utils"
)

var (
	statsJSON   bool
	statsChart  bool
	statsRender string
	statsOutput string
	statsWidth  int
	statsHeight int
	statsTable  tableOptions
)

// statsReport is the --json shape of the stats command.
type statsReport struct {
	Name       string                 `json:"name"`
	Columns    []analysis.Column      `json:"columns"`
	Statistics *analysis.Statistics   `json:"statistics"`
	Months     []analysis.MonthBucket `json:"months,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats <file|dsn>",
	Short: "Per-column statistics and month-over-month record counts (no model call)",
	Example: `  dashbrief stats sales.csv
  dashbrief stats members.xlsx --sheet Payments --chart
  dashbrief stats sales.csv --json -o stats.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadTable(cmd.Context(), args[0], statsTable)
		if err != nil {
			return err
		}
		st := analysis.Extract(t.Rows, t.Columns)
		var months []analysis.MonthBucket
		if dc, ok := analysis.FirstDateColumn(t.Columns); ok {
			months = analysis.MonthlyBreakdown(t.Rows, dc)
		}
		out := cmd.OutOrStdout()

		if statsJSON {
			b, err := utils.PrettyJSON(statsReport{Name: t.Name, Columns: t.Columns, Statistics: st, Months: months})
			if err != nil {
				return err
			}
			return writeOutput(out, string(b), statsOutput)
		}

		var b strings.Builder
		b.WriteString(report.StatsMarkdown(t.Name, st))
		if len(months) > 0 {
			b.WriteString("\n")
			b.WriteString(report.MonthsMarkdown(months))
		}
		md := b.String()
		if err := writeOutput(out, renderMarkdown(md, statsRender, statsWidth), ""); err != nil {
			return err
		}
		if statsChart {
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.MonthlyChart(months, statsWidth-10, statsHeight))
		}
		if statsOutput != "" {
			if err := utils.SafeWriteFile(statsOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "💾 Saved output to %s\n", statsOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	f := statsCmd.Flags()
	f.BoolVar(&statsJSON, "json", false, "print statistics as JSON")
	f.BoolVar(&statsChart, "chart", false, "plot records per month as an ASCII chart")
	f.StringVar(&statsRender, "render", "plain", "terminal rendering: plain|auto|dark|light|notty")
	f.StringVarP(&statsOutput, "output", "o", "", "also write the report to this file")
	f.IntVar(&statsWidth, "width", 100, "wrap width for --render and --chart")
	f.IntVar(&statsHeight, "height", 10, "chart height in lines")
	addTableFlags(f, &statsTable)
}
