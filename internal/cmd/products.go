package cmd

import (
	"fmt"
	"strings"

	"github.com/matthieukhl/receipter/internal/pricing"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the products and discounts offered on the order form",
	RunE:  listProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
}

func listProducts(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cat, db, err := loadCatalog(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	closeDB(db)

	if cat.Len() == 0 {
		fmt.Println("📭 The product list is empty")
		return nil
	}

	fmt.Printf("\n📋 %d product%s (source: %s):\n", cat.Len(), plural(cat.Len()), cfg.Catalog.Source)
	fmt.Println(strings.Repeat("─", 40))
	for _, p := range cat.Products() {
		fmt.Printf("   %-28s %6d Ft\n", p.Name, p.Price)
	}
	fmt.Println(strings.Repeat("─", 40))

	labels := make([]string, 0, len(cfg.Shop.Discounts))
	for _, d := range cfg.Shop.Discounts {
		labels = append(labels, pricing.FormatDiscount(d))
	}
	fmt.Printf("🏷️  Discounts: %s\n", strings.Join(labels, ", "))

	return nil
}

func plural(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
