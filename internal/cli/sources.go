package cli

import (
	"github.com/david/tax-radar/internal/app"
	"github.com/david/tax-radar/internal/ingest"
	"github.com/spf13/cobra"
)

var sourcesStored bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show configured news sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if sourcesStored {
			return runStoredSources(cmd)
		}
		reg, err := ingest.LoadRegistry(cfg.SourcesFile)
		if err != nil {
			return err
		}
		renderSources(cmd.OutOrStdout(), reg.Sources)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().BoolVar(&sourcesStored, "stored", false, "show article counts per stored source instead")
}

func runStoredSources(cmd *cobra.Command) error {
	ctx := cmd.Context()
	pool, store, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	infos, err := store.Sources(ctx)
	if err != nil {
		return err
	}
	renderSourceCounts(cmd.OutOrStdout(), infos)
	return nil
}
