package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dashbrief-cli/internal/dateutil"
	"github.com/KaramelBytes/dashbrief-cli/internal/insight"
	"github.com/KaramelBytes/dashbrief-cli/internal/report"
	"github.com/KaramelBytes/dashbrief-cli/internal/utils"
)

var (
	insTitle      string
	insProvider   string
	insModel      string
	insTimeoutSec int
	insJSON       bool
	insRender     string
	insTable      tableOptions
)

var insightsCmd = &cobra.Command{
	Use:   "insights <file|dsn>",
	Short: "Five quick bullet insights focused on last month",
	Example: `  dashbrief insights sales.csv --title "Gym Revenue"
  dashbrief insights ./shop.db --driver sqlite --sql "select * from orders" --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, schema, err := loadTable(cmd.Context(), args[0], insTable)
		if err != nil {
			return err
		}
		title := insTitle
		if title == "" && schema != nil {
			title = schema.Title
		}
		gen, providerName, err := newGenerator(cfg, runtimeOptions{Provider: insProvider, Model: insModel})
		if err != nil {
			return err
		}
		rec := &recordingGenerator{next: gen}
		ctx, cancel := withTimeout(cmd.Context(), insTimeoutSec)
		defer cancel()

		bullets := insight.New(rec).QuickInsights(ctx, t.Rows, t.Columns, title)
		if hint := explainError(rec.err, providerName, gen.Model()); hint != "" {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", hint)
		}
		out := cmd.OutOrStdout()
		if insJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"period":   dateutil.PreviousMonthPeriod(),
				"insights": bullets,
			})
			if err != nil {
				return err
			}
			return writeOutput(out, string(b), "")
		}
		heading := fmt.Sprintf("Quick insights: %s", dateutil.PreviousMonthDisplay())
		return writeOutput(out, renderMarkdown(report.BulletsMarkdown(heading, bullets), insRender, 100), "")
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	f := insightsCmd.Flags()
	f.StringVar(&insTitle, "title", "", "business entity name used in the prompt")
	addRuntimeFlags(f, &insProvider, &insModel, &insTimeoutSec)
	f.BoolVar(&insJSON, "json", false, "print the insights as JSON")
	f.StringVar(&insRender, "render", "plain", "terminal rendering: plain|auto|dark|light|notty")
	addTableFlags(f, &insTable)
}
