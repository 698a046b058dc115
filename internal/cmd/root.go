package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/matthieukhl/receipter/internal/catalog"
	"github.com/matthieukhl/receipter/internal/config"
	"github.com/matthieukhl/receipter/internal/database"
	"github.com/matthieukhl/receipter/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "receipter",
	Short: "Receipter - delivery receipts for Pizzakaravan",
	Long: `Receipter prices delivery orders from the product list and prints
the receipt on the counter's USB receipt printer.

Receipts can be previewed and printed from the command line, or the
tool can run as a small HTTP server that the order form talks to.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search ./deploy, ., $HOME/.receipter, /etc/receipter)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, logger, nil
}

// loadCatalog reads the product list from the configured source. For the
// mysql source the open connection is returned too; it is nil otherwise.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, *database.DB, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceMySQL:
		db, err := database.NewConnection(&cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cat, err := catalog.LoadDB(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return cat, db, nil
	default:
		cat, err := catalog.LoadFile(cfg.Catalog.Path)
		return cat, nil, err
	}
}

// closeDB closes a connection returned by loadCatalog.
func closeDB(db *database.DB) {
	if db != nil {
		db.Close()
	}
}
