// Package libusb implements usb.Opener on top of gousb.
package libusb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	"github.com/matthieukhl/receipter/internal/usb"
	"go.uber.org/zap"
)

// Driver opens printers through libusb.
type Driver struct {
	ctx      *gousb.Context
	endpoint uint8
	logger   *zap.Logger
}

// NewDriver creates a libusb context. endpoint is the bulk OUT endpoint
// address; the direction bit is ignored.
func NewDriver(endpoint uint8, logger *zap.Logger) *Driver {
	return &Driver{
		ctx:      gousb.NewContext(),
		endpoint: endpoint,
		logger:   logger,
	}
}

// Close releases the libusb context. Open handles must be closed first.
func (d *Driver) Close() error {
	return d.ctx.Close()
}

// Open finds the first device matching vendorID:productID, selects its
// active configuration and claims interface 0.
func (d *Driver) Open(vendorID, productID uint16) (usb.Handle, error) {
	dev, err := d.ctx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID))
	if err != nil {
		return nil, fmt.Errorf("%w: open %04x:%04x: %v", usb.ErrTransportError, vendorID, productID, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: %04x:%04x", usb.ErrDeviceNotFound, vendorID, productID)
	}

	h, err := d.claim(dev)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: claim %04x:%04x: %v", usb.ErrTransportError, vendorID, productID, err)
	}

	d.logger.Info("printer opened",
		zap.String("device", fmt.Sprintf("%04x:%04x", vendorID, productID)),
		zap.Uint8("endpoint", d.endpoint))

	return h, nil
}

func (d *Driver) claim(dev *gousb.Device) (*deviceHandle, error) {
	// Receipt printers are often bound to usblp by the kernel
	if err := dev.SetAutoDetach(true); err != nil {
		return nil, err
	}

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil || cfgNum == 0 {
		cfgNum = 1
	}

	cfg, err := dev.Config(cfgNum)
	if err != nil {
		return nil, err
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, err
	}

	ep, err := intf.OutEndpoint(int(d.endpoint & 0x0f))
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, err
	}

	return &deviceHandle{dev: dev, cfg: cfg, intf: intf, ep: ep}, nil
}

// ListDevices reports every attached device; devices that cannot be opened
// are skipped.
func (d *Driver) ListDevices() ([]usb.DeviceInfo, error) {
	devices, err := d.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var infos []usb.DeviceInfo
	for _, dev := range devices {
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()

		infos = append(infos, usb.DeviceInfo{
			VendorID:     uint16(dev.Desc.Vendor),
			ProductID:    uint16(dev.Desc.Product),
			Manufacturer: manufacturer,
			Product:      product,
		})
		dev.Close()
	}

	return infos, nil
}

type deviceHandle struct {
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	ep   *gousb.OutEndpoint
}

func (h *deviceHandle) WriteBulk(data []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := h.ep.WriteContext(ctx, data)
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w after %s (%d of %d bytes sent)", usb.ErrTransportTimeout, timeout, n, len(data))
		}
		return fmt.Errorf("%w: %v", usb.ErrTransportError, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: short write, %d of %d bytes sent", usb.ErrTransportError, n, len(data))
	}

	return nil
}

func (h *deviceHandle) Close() error {
	h.intf.Close()
	if err := h.cfg.Close(); err != nil {
		h.dev.Close()
		return err
	}
	return h.dev.Close()
}

func isTimeout(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, gousb.TransferTimedOut),
		errors.Is(err, gousb.ErrorTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, gousb.TransferCancelled):
		return errors.Is(ctx.Err(), context.DeadlineExceeded)
	}
	return false
}

var _ usb.Opener = (*Driver)(nil)
