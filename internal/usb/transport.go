// Package usb is the device I/O boundary for the receipt printer: finding it
// by vendor/product ID, claiming its interface and bulk-writing bytes to the
// OUT endpoint. Nothing here retries; callers decide what to do on failure.
package usb

import (
	"errors"
	"time"
)

var (
	ErrDeviceNotFound   = errors.New("usb device not found")
	ErrTransportTimeout = errors.New("usb write timed out")
	ErrTransportError   = errors.New("usb transport error")
)

// Handle is an opened, claimed device session.
type Handle interface {
	// WriteBulk sends data to the bulk OUT endpoint. A timeout leaves the
	// handle usable for another attempt.
	WriteBulk(data []byte, timeout time.Duration) error
	Close() error
}

// Opener finds and claims a device.
type Opener interface {
	Open(vendorID, productID uint16) (Handle, error)
}

// DeviceInfo describes an attached USB device.
type DeviceInfo struct {
	VendorID     uint16 `json:"vendor_id"`
	ProductID    uint16 `json:"product_id"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
}
