package cmd

import (
	"fmt"

	"github.com/matthieukhl/receipter/internal/catalog"
	"github.com/matthieukhl/receipter/internal/database"
	"github.com/spf13/cobra"
)

var (
	dropFirst  bool
	schemaOnly bool
	importPath string
)

var setupCmd = &cobra.Command{
	Use:   "setup-catalog",
	Short: "Create the products table and import the product list",
	Long: `Creates the products table in the configured MySQL database and
imports a name,price product file into it, so the server can run with
catalog.source set to mysql.

Products already in the table keep their position; their price is
updated from the file.`,
	RunE: setupCatalog,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop the existing products table before creating")
	setupCmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "Create schema only, skip the import")
	setupCmd.Flags().StringVar(&importPath, "from", "", "Product file to import (default: catalog.path)")
}

func setupCatalog(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 Setting up catalog database...")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	// Drop tables if requested
	if dropFirst {
		fmt.Println("🗑️  Dropping existing products table...")
		if err := db.DropSchema(ctx); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	fmt.Println("📋 Creating schema...")
	if err := db.SetupSchema(ctx); err != nil {
		return fmt.Errorf("failed to setup schema: %w", err)
	}

	if schemaOnly {
		fmt.Println("✅ Catalog schema ready!")
		return nil
	}

	path := importPath
	if path == "" {
		path = cfg.Catalog.Path
	}

	fmt.Printf("📦 Importing products from %s...\n", path)
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	if err := db.UpsertProducts(ctx, cat.Products()); err != nil {
		return fmt.Errorf("failed to import products: %w", err)
	}

	fmt.Printf("✅ %d product%s imported!\n", cat.Len(), plural(cat.Len()))
	return nil
}
