package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appcfg "github.com/stockpulse/stockpulse/internal/config"
	applog "github.com/stockpulse/stockpulse/internal/log"
)

const (
	appName = "stockpulse"
	version = "v1.0.0"
)

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Watchlist signal and alert engine for daily stock bars",
		Version: version,
		Long: `stockpulse maintains a watchlist of stock tickers, keeps a local cache
of their daily bars, evaluates technical entry/exit signals over the
cached history, and maintains a deduplicated alert set per ticker.

Run 'stockpulse serve' for the HTTP surface, or 'stockpulse refresh'
for a one-shot batch refresh from cron.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug|info|warn|error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Serves alerts, watchlist management, batch refresh triggering, and Prometheus metrics over HTTP",
		RunE:  runServe,
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh every active ticker once and exit",
		Long:  "Fetches missing bars, evaluates signals, and rewrites the alert set for each active ticker sequentially",
		RunE:  runRefresh,
	}

	tickersCmd := &cobra.Command{
		Use:   "tickers",
		Short: "Watchlist management commands",
	}

	addCmd := &cobra.Command{
		Use:   "add SYMBOL...",
		Short: "Add symbols to the watchlist and refresh them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTickersAdd,
	}

	removeCmd := &cobra.Command{
		Use:   "remove SYMBOL...",
		Short: "Remove symbols and their cached bars and alerts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTickersRemove,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List watchlist symbols",
		RunE:  runTickersList,
	}

	tickersCmd.AddCommand(addCmd, removeCmd, listCmd)
	rootCmd.AddCommand(serveCmd, refreshCmd, tickersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and initializes logging for a command.
func loadConfig() (*appcfg.Config, error) {
	cfg, err := appcfg.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	applog.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
