package cmd

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dashbrief-cli/internal/ai"
)

var (
	modelsCatalog  string
	modelsProvider string
	modelsJSON     bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model catalog used for context-window warnings and cost estimates",
	Example: `  dashbrief models
  dashbrief models --provider ollama
  dashbrief models --catalog ./models.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if modelsCatalog != "" {
			m, err := ai.LoadCatalogFromJSON(modelsCatalog)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			ai.MergeCatalog(m)
		}
		list := ai.Models()
		if modelsProvider != "" {
			p := resolveProvider(nil, modelsProvider)
			kept := list[:0]
			for _, mi := range list {
				if mi.Provider == p {
					kept = append(kept, mi)
				}
			}
			list = kept
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Provider != list[j].Provider {
				return list[i].Provider < list[j].Provider
			}
			return list[i].Name < list[j].Name
		})
		out := cmd.OutOrStdout()
		if modelsJSON {
			return printJSON(out, list)
		}
		for _, mi := range list {
			price := "local"
			if mi.InputPerK > 0 || mi.OutputPerK > 0 {
				price = fmt.Sprintf("$%.5f/$%.5f per 1K", mi.InputPerK, mi.OutputPerK)
			}
			fmt.Fprintf(out, "%-8s %-24s %10s tokens  %s\n", mi.Provider, mi.Name, humanize.Comma(int64(mi.ContextTokens)), price)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	f := modelsCmd.Flags()
	f.StringVar(&modelsCatalog, "catalog", "", "merge model entries from a JSON file first")
	f.StringVar(&modelsProvider, "provider", "", "only list models of this provider")
	f.BoolVar(&modelsJSON, "json", false, "print as JSON")
}
