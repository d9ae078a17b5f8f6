package cli

import (
	"fmt"

	"github.com/david/tax-radar/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := db.ApplyMigrations(ctx, pool, log)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
		}
		return nil
	},
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent pipeline runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		runs, err := db.NewStore(pool, log).RecentRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		renderRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to show")
}
