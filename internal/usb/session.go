package usb

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Session owns the single printer handle of the process. The device is
// opened on first use and kept open; every use goes through Do, so at most
// one writer touches the handle at a time.
type Session struct {
	mu        sync.Mutex
	opener    Opener
	vendorID  uint16
	productID uint16
	handle    Handle
	logger    *zap.Logger
}

func NewSession(opener Opener, vendorID, productID uint16, logger *zap.Logger) *Session {
	return &Session{
		opener:    opener,
		vendorID:  vendorID,
		productID: productID,
		logger:    logger,
	}
}

// IsOpen reports whether the device has been opened.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Do runs fn with exclusive use of the handle, opening the device first if
// it is not open yet. The handle stays open after fn returns, whatever the
// outcome.
func (s *Session) Do(fn func(h Handle) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		h, err := s.opener.Open(s.vendorID, s.productID)
		if err != nil {
			return err
		}
		s.handle = h
		s.logger.Debug("printer session opened", zap.String("device", s.device()))
	}

	return fn(s.handle)
}

// Close releases the device. A later Do opens it again.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}

	err := s.handle.Close()
	s.handle = nil
	if err != nil {
		return fmt.Errorf("failed to close printer %s: %w", s.device(), err)
	}

	s.logger.Debug("printer session closed", zap.String("device", s.device()))
	return nil
}

func (s *Session) device() string {
	return fmt.Sprintf("%04x:%04x", s.vendorID, s.productID)
}
