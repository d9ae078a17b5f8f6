package cli

import (
	"encoding/json"

	"github.com/david/tax-radar/internal/app"
	"github.com/david/tax-radar/internal/db"
	"github.com/david/tax-radar/internal/models"
	"github.com/spf13/cobra"
)

var (
	listSource   string
	listType     string
	listMinScore float64
	listLimit    int
	listAll      bool
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored opportunities",
	Long: `List prints the stored opportunity view (score > 0, highest first).
With --all it prints every stored article, newest first.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listSource, "source", "", "only this source")
	listCmd.Flags().StringVar(&listType, "type", "", "only this opportunity type")
	listCmd.Flags().Float64Var(&listMinScore, "min-score", 0, "minimum score")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows")
	listCmd.Flags().BoolVar(&listAll, "all", false, "list every stored article, not only opportunities")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pool, store, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	var opps []models.Opportunity
	if listAll {
		opps, err = store.ListAll(ctx)
	} else {
		var res *db.ListResult
		res, err = store.ListOpportunities(ctx, db.ListParams{
			Source:   listSource,
			Type:     listType,
			MinScore: listMinScore,
			Limit:    listLimit,
		})
		if res != nil {
			opps = res.Opportunities
		}
	}
	if err != nil {
		return err
	}

	if listJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(opps)
	}
	renderOpportunities(cmd.OutOrStdout(), opps)
	return nil
}
