package cmd

import (
	"fmt"

	"github.com/matthieukhl/receipter/internal/usb/libusb"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached USB devices and mark the configured printer",
	Long: `Enumerate USB devices through libusb. Use this to find the vendor and
product ID of a new receipt printer before setting printer.vendor_id and
printer.product_id.`,
	RunE: listDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func listDevices(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	driver := libusb.NewDriver(cfg.Printer.Endpoint, logger)
	defer driver.Close()

	devices, err := driver.ListDevices()
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("📭 No USB devices found")
		return nil
	}

	found := false
	fmt.Printf("\n🔌 %d USB device%s:\n", len(devices), plural(len(devices)))
	for _, d := range devices {
		marker := "  "
		if d.VendorID == cfg.Printer.VendorID && d.ProductID == cfg.Printer.ProductID {
			marker = "🖨️"
			found = true
		}
		fmt.Printf("%s %04x:%04x  %s %s\n", marker, d.VendorID, d.ProductID, d.Manufacturer, d.Product)
	}

	if !found {
		fmt.Printf("\n⚠️  Configured printer %04x:%04x is not attached\n", cfg.Printer.VendorID, cfg.Printer.ProductID)
	}
	return nil
}
