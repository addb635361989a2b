package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dashbrief-cli/internal/dateutil"
	"github.com/KaramelBytes/dashbrief-cli/internal/utils"
)

var (
	monthsBack     int
	monthsStandard bool
	monthsDynamic  int
	monthsParse    string
	monthsJSON     bool
)

// clock is swapped in tests.
var clock dateutil.Clock

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "Show reporting month ranges relative to today",
	Example: `  dashbrief months
  dashbrief months --back 6
  dashbrief months --standard --json
  dashbrief months --dynamic 12
  dashbrief months --parse "15/03/2025"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := dateutil.New(clock)
		out := cmd.OutOrStdout()

		if cmd.Flags().Changed("parse") {
			t, ok := h.ParseFlexibleDate(monthsParse)
			if !ok {
				return fmt.Errorf("could not parse %q as a date", monthsParse)
			}
			if monthsJSON {
				return printJSON(out, map[string]string{"input": monthsParse, "date": t.Format(dateutil.DateLayout), "month": dateutil.MonthKey(t)})
			}
			fmt.Fprintf(out, "%s -> %s (month %s)\n", monthsParse, t.Format(dateutil.DateLayout), dateutil.MonthKey(t))
			return nil
		}

		var list []dateutil.MonthDescriptor
		switch {
		case monthsStandard:
			list = h.StandardMonthRange()
		case cmd.Flags().Changed("dynamic"):
			list = h.DynamicMonths(monthsDynamic)
		}
		if list != nil {
			if monthsJSON {
				return printJSON(out, list)
			}
			for _, m := range list {
				fmt.Fprintf(out, "%s  %-15s Q%d\n", m.Key, m.Display, m.Quarter)
			}
			return nil
		}

		if cmd.Flags().Changed("back") {
			r := h.MonthsBackRange(monthsBack)
			if monthsJSON {
				return printJSON(out, r)
			}
			fmt.Fprintf(out, "Last %d months: %s to %s\n", monthsBack, r.Start, r.End)
			return nil
		}

		prev, cur := h.PreviousMonthRange(), h.CurrentMonthRange()
		if monthsJSON {
			return printJSON(out, map[string]any{
				"previous":        prev,
				"current":         cur,
				"previousPeriod":  h.PreviousMonthPeriod(),
				"previousDisplay": h.PreviousMonthDisplay(),
			})
		}
		fmt.Fprintf(out, "Previous month (%s): %s to %s\n", h.PreviousMonthDisplay(), prev.Start, prev.End)
		fmt.Fprintf(out, "Current month: %s to %s\n", cur.Start, cur.End)
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func init() {
	rootCmd.AddCommand(monthsCmd)
	f := monthsCmd.Flags()
	f.IntVar(&monthsBack, "back", 0, "range from N months back to the end of this month")
	f.BoolVar(&monthsStandard, "standard", false, "list the standard 22-month reporting window")
	f.IntVar(&monthsDynamic, "dynamic", dateutil.DefaultDynamicMonths, "list the last N months")
	f.StringVar(&monthsParse, "parse", "", "parse a loosely formatted date")
	f.BoolVar(&monthsJSON, "json", false, "print as JSON")
}
