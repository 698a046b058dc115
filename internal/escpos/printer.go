// Package escpos prints receipt text on the delivery receipt printer: it
// encodes the text into the printer code page, wraps it in bold framing and
// pushes it through the USB session followed by a paper feed.
package escpos

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matthieukhl/receipter/internal/usb"
	"go.uber.org/zap"
)

var ErrPrintFailed = errors.New("receipt printing failed")

// PrintError reports a receipt that must be treated as not printed.
type PrintError struct {
	Stage State
	Cause error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPrintFailed, e.Stage, e.Cause)
}

func (e *PrintError) Unwrap() []error {
	return []error{ErrPrintFailed, e.Cause}
}

// State is the progress of one print call.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateSendingHeader
	StateSendingFeed
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateSendingHeader:
		return "sending receipt"
	case StateSendingFeed:
		return "sending feed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	DefaultTimeout   = time.Second
	DefaultFeedLines = 5
)

type Printer struct {
	session   *usb.Session
	timeout   time.Duration
	feedLines int
	logger    *zap.Logger

	mu   sync.Mutex
	last State
}

// NewPrinter prints through session. Non-positive timeout or negative
// feedLines fall back to the defaults.
func NewPrinter(session *usb.Session, timeout time.Duration, feedLines int, logger *zap.Logger) *Printer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if feedLines < 0 {
		feedLines = DefaultFeedLines
	}
	return &Printer{
		session:   session,
		timeout:   timeout,
		feedLines: feedLines,
		logger:    logger,
	}
}

// PrintReceipt sends text as one framed bulk write, then a separate feed
// write. Any failure, including a failed feed after the text went out,
// returns a *PrintError.
func (p *Printer) PrintReceipt(text string) error {
	frame := Frame(Encode(text))
	feed := Feed(p.feedLines)

	state := StateOpening
	err := p.session.Do(func(h usb.Handle) error {
		state = StateSendingHeader
		if err := h.WriteBulk(frame, p.timeout); err != nil {
			return err
		}

		state = StateSendingFeed
		if len(feed) == 0 {
			return nil
		}
		return h.WriteBulk(feed, p.timeout)
	})
	if err != nil {
		p.logger.Warn("receipt not printed",
			zap.Stringer("state", StateFailed),
			zap.Stringer("stage", state),
			zap.Int("bytes", len(frame)),
			zap.Error(err))
		p.setLast(StateFailed)
		return &PrintError{Stage: state, Cause: err}
	}

	p.setLast(StateDone)
	p.logger.Info("receipt printed",
		zap.Stringer("state", StateDone),
		zap.Int("bytes", len(frame)+len(feed)))
	return nil
}

// State is the outcome of the last print: Idle before the first one, then
// Done or Failed.
func (p *Printer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Printer) setLast(s State) {
	p.mu.Lock()
	p.last = s
	p.mu.Unlock()
}

// Close releases the printer device.
func (p *Printer) Close() error {
	return p.session.Close()
}

// Ready reports whether the printer device has been opened.
func (p *Printer) Ready() bool {
	return p.session.IsOpen()
}
