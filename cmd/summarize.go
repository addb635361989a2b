package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/dashbrief-cli/internal/ai"
	"github.com/KaramelBytes/dashbrief-cli/internal/insight"
	"github.com/KaramelBytes/dashbrief-cli/internal/logger"
	"github.com/KaramelBytes/dashbrief-cli/internal/prompt"
	"github.com/KaramelBytes/dashbrief-cli/internal/report"
	"github.com/KaramelBytes/dashbrief-cli/internal/utils"
)

var (
	sumTitle           string
	sumContext         string
	sumType            string
	sumRecommendations bool
	sumMaxRows         int
	sumProvider        string
	sumModel           string
	sumDryRun          bool
	sumJSON            bool
	sumOutput          string
	sumRender          string
	sumTimeoutSec      int
	sumWidth           int
	sumTable           tableOptions
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file|dsn>",
	Short: "Generate an executive summary, insights, trends and recommendations",
	Example: `  dashbrief summarize sales.csv --title "Gym Revenue" --recommendations
  dashbrief summarize members.xlsx --sheet Payments --schema gym.yaml --render auto
  dashbrief summarize ./shop.db --driver sqlite --sql "select * from orders" --json
  dashbrief summarize sales.csv --summary-type brief --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := prompt.ParseSummaryType(sumType)
		if err != nil {
			return err
		}
		t, schema, err := loadTable(cmd.Context(), args[0], sumTable)
		if err != nil {
			return err
		}

		opt := prompt.Options{
			Title:                  sumTitle,
			Context:                sumContext,
			SummaryType:            kind,
			IncludeRecommendations: sumRecommendations,
			MaxRows:                sumMaxRows,
		}
		if schema != nil {
			if opt.Title == "" {
				opt.Title = schema.Title
			}
			if opt.Context == "" {
				opt.Context = schema.Context
			}
		}
		if !cmd.Flags().Changed("max-rows") && cfg != nil && cfg.MaxRows > 0 {
			opt.MaxRows = cfg.MaxRows
		}
		title := opt.Title
		if title == "" {
			title = t.Name
		}
		out := cmd.OutOrStdout()

		if sumDryRun {
			p := prompt.Build(t.Rows, t.Columns, opt)
			model := selectModel(cfg, sumModel)
			tokens := utils.CountTokens(p)
			fmt.Fprintf(out, "--dry-run: no request will be sent. model=%s rows=%d columns=%d\n", model, len(t.Rows), len(t.Columns))
			fmt.Fprintf(out, "Prompt tokens≈%d\n", tokens)
			for _, s := range utils.TokenBreakdown(p) {
				fmt.Fprintf(out, "  %-34s ≈%d\n", s.Name, s.Tokens)
			}
			if mi, ok := ai.LookupModel(model); ok && mi.ContextTokens > 0 {
				if tokens > mi.ContextTokens {
					fmt.Fprintf(out, "⚠ Prompt exceeds %s context window (%d > %d). Use --limit or --max-rows.\n", mi.Name, tokens, mi.ContextTokens)
				}
				if cost, ok := ai.EstimateCostUSD(model, tokens, ai.DefaultParams.MaxTokens); ok && cost > 0 {
					fmt.Fprintf(out, "Estimated max cost: ~$%.4f\n", cost)
				}
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, p)
			return nil
		}

		gen, providerName, err := newGenerator(cfg, runtimeOptions{Provider: sumProvider, Model: sumModel})
		if err != nil {
			return err
		}
		rec := &recordingGenerator{next: gen}
		ctx, cancel := withTimeout(cmd.Context(), sumTimeoutSec)
		defer cancel()

		res := insight.New(rec).Summarize(ctx, t.Rows, t.Columns, opt)
		if hint := explainError(rec.err, providerName, gen.Model()); hint != "" {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", hint)
		}
		if rec.err == nil && res.Error == "" {
			logger.Log.WithFields(logrus.Fields{
				"request_id":        res.ID,
				"prompt_tokens":     gen.LastUsage.PromptTokens,
				"completion_tokens": gen.LastUsage.CompletionTokens,
			}).Info("summary generated")
		}

		if sumJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			return writeOutput(out, string(b), sumOutput)
		}
		md := report.Markdown(title, res)
		if err := writeOutput(out, renderMarkdown(md, sumRender, sumWidth), ""); err != nil {
			return err
		}
		if sumOutput != "" {
			if err := utils.SafeWriteFile(sumOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(os.Stderr, "💾 Saved output to %s\n", sumOutput)
		}
		return nil
	},
}

// renderMarkdown styles md for the terminal; rendering problems fall back to plain Markdown.
func renderMarkdown(md, style string, width int) string {
	if style == "" || style == "plain" {
		return md
	}
	s, err := report.Render(md, style, width)
	if err != nil {
		logger.Log.WithError(err).Warn("markdown rendering failed; printing plain text")
		return md
	}
	return s
}

func addTableFlags(f *pflag.FlagSet, o *tableOptions) {
	f.StringVar(&o.Schema, "schema", "", "YAML column schema (key, header, type, source)")
	f.StringVar(&o.Sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	f.IntVar(&o.SheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based")
	f.StringVar(&o.Delimiter, "delimiter", "", "CSV delimiter, e.g. ';' or 'tab'")
	f.StringVar(&o.SQL, "sql", "", "query to run; the argument is then the database DSN")
	f.StringVar(&o.Driver, "driver", "", "SQL driver for --sql: sqlite|postgres|mysql")
	f.IntVar(&o.Limit, "limit", 0, "only load the first N rows (0 = all)")
}

func addRuntimeFlags(f *pflag.FlagSet, provider, model *string, timeoutSec *int) {
	f.StringVar(provider, "provider", "", "provider: "+strings.Join(ai.Providers(), "|")+" (default from config)")
	f.StringVar(model, "model", "", "model name (default from config)")
	f.IntVar(timeoutSec, "timeout-sec", 0, "overall timeout for the request in seconds (0 = HTTP timeout only)")
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	f := summarizeCmd.Flags()
	f.StringVar(&sumTitle, "title", "", "business entity name used in the prompt")
	f.StringVar(&sumContext, "context", "", "free-form business context for the analysis")
	f.StringVar(&sumType, "summary-type", string(prompt.Comprehensive), "analysis framing: "+prompt.SummaryTypeNames("|"))
	f.BoolVar(&sumRecommendations, "recommendations", false, "ask for strategic recommendations")
	f.IntVar(&sumMaxRows, "max-rows", 0, "max sample rows offered in the prompt (0 = config max_rows or all)")
	addRuntimeFlags(f, &sumProvider, &sumModel, &sumTimeoutSec)
	f.BoolVar(&sumDryRun, "dry-run", false, "print the prompt and token estimate without sending it")
	f.BoolVar(&sumJSON, "json", false, "print the result as JSON")
	f.StringVarP(&sumOutput, "output", "o", "", "also write the result (Markdown or JSON) to this file")
	f.StringVar(&sumRender, "render", "plain", "terminal rendering: plain|auto|dark|light|notty")
	f.IntVar(&sumWidth, "width", 100, "wrap width for --render")
	addTableFlags(f, &sumTable)
}
