package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matthieukhl/receipter/internal/checkout"
	"github.com/matthieukhl/receipter/internal/config"
	"github.com/matthieukhl/receipter/internal/escpos"
	"github.com/matthieukhl/receipter/internal/models"
	"github.com/matthieukhl/receipter/internal/order"
	"github.com/matthieukhl/receipter/internal/pricing"
	"github.com/matthieukhl/receipter/internal/usb"
	"github.com/matthieukhl/receipter/internal/usb/libusb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const orderedAtLayout = "2006-01-02 15:04"

// receiptFlags are the order form fields shared by preview and print.
type receiptFlags struct {
	items     []string
	discount  string
	name      string
	address   string
	phone     string
	orderedAt string
	number    int
}

var (
	previewFlags receiptFlags
	printFlags   receiptFlags
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the receipt for an order without printing it",
	Long: `Price the selected products and print the receipt text to the
terminal. The printer is never touched.

Example:
  receipter preview --item "Pizza Margherita" --item Cola --discount 10% --name "Kovács Anna"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReceipt(cmd.Context(), &previewFlags, false)
	},
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the receipt for an order on the USB receipt printer",
	Long: `Price the selected products, render the receipt and send it to the
receipt printer configured under printer.* (vendor/product ID, endpoint,
write timeout).

A receipt is only reported as printed when both the receipt text and the
paper feed reached the printer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReceipt(cmd.Context(), &printFlags, true)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(printCmd)

	for _, c := range []struct {
		cmd   *cobra.Command
		flags *receiptFlags
	}{{previewCmd, &previewFlags}, {printCmd, &printFlags}} {
		f := c.cmd.Flags()
		f.StringArrayVar(&c.flags.items, "item", nil, "Product to add; repeat for more lines or for the same product again")
		f.StringVar(&c.flags.discount, "discount", "0%", "Discount percentage, e.g. 10%")
		f.StringVar(&c.flags.name, "name", "", "Customer name")
		f.StringVar(&c.flags.address, "address", "", "Delivery address")
		f.StringVar(&c.flags.phone, "phone", "", "Customer phone number")
		f.StringVar(&c.flags.orderedAt, "ordered-at", "", "Order date and time ("+orderedAtLayout+"), defaults to now")
		f.IntVar(&c.flags.number, "number", 1, "Receipt sequence number")
	}
}

func (f *receiptFlags) request() (checkout.Request, error) {
	discount, err := pricing.ParseDiscount(f.discount)
	if err != nil {
		return checkout.Request{}, err
	}

	req := checkout.Request{
		Customer: models.Customer{
			Name:    f.name,
			Address: f.address,
			Phone:   f.phone,
		},
		Items:    f.items,
		Discount: discount,
	}

	if f.orderedAt != "" {
		t, err := time.ParseInLocation(orderedAtLayout, f.orderedAt, time.Local)
		if err != nil {
			return checkout.Request{}, fmt.Errorf("invalid --ordered-at %q: %w", f.orderedAt, err)
		}
		req.OrderedAt = t
	}

	return req, nil
}

func runReceipt(ctx context.Context, f *receiptFlags, send bool) error {
	req, err := f.request()
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Println("📋 Loading products...")
	cat, db, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	closeDB(db)

	var printer checkout.ReceiptPrinter
	if send {
		p, closePrinter := newPrinter(cfg, logger)
		defer closePrinter()
		printer = p
	}

	svc := checkout.NewService(cat, printer, order.NewCounter(f.number), logger)

	if !send {
		res, err := svc.Preview(req)
		if err != nil {
			return err
		}
		fmt.Printf("🛒 Selected: %s\n", orEmpty(res.Summary))
		fmt.Println(strings.Repeat("─", 40))
		fmt.Print(res.Text)
		return nil
	}

	fmt.Printf("🖨️  Printing receipt #%d...\n", f.number)
	res, err := svc.Print(req)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Receipt #%d printed (%d Ft, %s)\n",
		res.Data.Number, res.Data.Totals.GrandTotal, orEmpty(res.Summary))
	return nil
}

// newPrinter wires the libusb driver, the printer session and the ESC/POS
// printer. The returned func releases the device and the USB context.
func newPrinter(cfg *config.Config, logger *zap.Logger) (*escpos.Printer, func()) {
	driver := libusb.NewDriver(cfg.Printer.Endpoint, logger)
	session := usb.NewSession(driver, cfg.Printer.VendorID, cfg.Printer.ProductID, logger)
	printer := escpos.NewPrinter(session, cfg.Printer.Timeout, cfg.Printer.FeedLines, logger)

	return printer, func() {
		if err := printer.Close(); err != nil {
			logger.Warn("failed to release printer", zap.Error(err))
		}
		if err := driver.Close(); err != nil {
			logger.Warn("failed to close usb context", zap.Error(err))
		}
	}
}

func orEmpty(s string) string {
	if s == "" {
		return "(no products)"
	}
	return s
}
