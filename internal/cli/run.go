package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/david/tax-radar/internal/app"
	"github.com/david/tax-radar/internal/ingest"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape every active source once and score the results",
	Long: `Run collects articles from the active sources, normalizes their dates,
annotates and scores them, stores every record and prints the opportunities.

Example:
  taxradar run
  taxradar run --config taxradar.yaml --log-level debug
  taxradar run --source aade --source capital`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

var processCmd = &cobra.Command{
	Use:   "process <items.json>",
	Short: "Score already-scraped items from a JSON file",
	Long: `Process skips collection and runs the remaining stages on a JSON array of
{"title", "url", "date_raw", "source", "summary"} objects.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var runSources []string

func init() {
	rootCmd.AddCommand(runCmd, processCmd)
	runCmd.Flags().StringSliceVar(&runSources, "source", nil, "only these source IDs, active or not (repeatable)")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pool, store, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	pipeline, err := app.NewPipeline(ctx, cfg, store, log, runSources...)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx)
	if res != nil {
		renderStats(cmd.OutOrStdout(), res.RunID, res.Stats)
	}
	if err != nil {
		return err
	}
	renderOpportunities(cmd.OutOrStdout(), res.Opportunities)
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	raws, err := loadRawItems(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	pool, store, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	pipeline, err := app.NewPipeline(ctx, cfg, store, log)
	if err != nil {
		return err
	}

	res, err := pipeline.Process(ctx, raws)
	if err != nil {
		return err
	}
	renderStats(cmd.OutOrStdout(), res.RunID, res.Stats)
	renderOpportunities(cmd.OutOrStdout(), res.Opportunities)
	return nil
}

func loadRawItems(path string) ([]ingest.RawNewsItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raws []ingest.RawNewsItem
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return raws, nil
}
