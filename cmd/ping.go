package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dashbrief-cli/internal/insight"
)

var (
	pingProvider   string
	pingModel      string
	pingTimeoutSec int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured model answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, providerName, err := newGenerator(cfg, runtimeOptions{Provider: pingProvider, Model: pingModel})
		if err != nil {
			return err
		}
		rec := &recordingGenerator{next: gen}
		ctx, cancel := withTimeout(cmd.Context(), pingTimeoutSec)
		defer cancel()

		st := insight.New(rec).TestConnection(ctx)
		out := cmd.OutOrStdout()
		if !st.Success {
			if hint := explainError(rec.err, providerName, gen.Model()); hint != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", hint)
			}
			return errors.New(st.Error)
		}
		fmt.Fprintf(out, "✓ %s answered (provider %s)\n", st.Model, providerName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
	addRuntimeFlags(pingCmd.Flags(), &pingProvider, &pingModel, &pingTimeoutSec)
}
