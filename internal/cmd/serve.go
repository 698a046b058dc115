package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthieukhl/receipter/internal/checkout"
	"github.com/matthieukhl/receipter/internal/order"
	"github.com/matthieukhl/receipter/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveNumber int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the receipt HTTP server",
	Long: `Start the Receipter HTTP server which provides:
- the product list and discount choices for the order form
- receipt preview for the current order
- receipt printing on the USB receipt printer

The printer is opened on the first print and kept open until shutdown.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().IntVar(&serveNumber, "number", 1, "Sequence number of the first receipt")
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Receipter Starting...")

	fmt.Println("📝 Loading configuration...")
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Println("📋 Loading products...")
	cat, db, err := loadCatalog(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	defer closeDB(db)
	fmt.Printf("✅ %d products loaded\n", cat.Len())

	printer, closePrinter := newPrinter(cfg, logger)
	defer closePrinter()

	fmt.Println("⚙️  Setting up server...")
	svc := checkout.NewService(cat, printer, order.NewCounter(serveNumber), logger)
	var opts []server.Option
	if db != nil {
		opts = append(opts, server.WithDatabase(db))
	}
	srv := server.NewServer(svc, cfg.Shop.Discounts, logger, opts...)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// Interrupts stop the server so the deferred printer release runs.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🌐 Starting server on %s...\n", addr)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	fmt.Println("👋 Server stopped")
	return nil
}
