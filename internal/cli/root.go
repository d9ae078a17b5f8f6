package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/david/tax-radar/internal/config"
	"github.com/david/tax-radar/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	logLevel    string
	databaseURL string

	v   *viper.Viper
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "taxradar",
	Short: "Greek tax-news opportunity radar",
	Long: `taxradar scrapes Greek financial news, annotates each article,
scores it for tax-advisory relevance and stores the results.

Configuration is read from flags, then TAXRADAR_* environment variables,
then the --config file, then built-in defaults.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	v, err = config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	_ = v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	_ = v.BindPFlag("database_url", cmd.Flags().Lookup("database-url"))

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	log = logger.NewWithWriter(os.Stderr, "taxradar", cfg.LogLevel)
	return nil
}
