package checkout

import (
	"testing"
	"time"

	"github.com/matthieukhl/receipter/internal/catalog"
	"github.com/matthieukhl/receipter/internal/escpos"
	"github.com/matthieukhl/receipter/internal/models"
	"github.com/matthieukhl/receipter/internal/order"
	"github.com/matthieukhl/receipter/internal/pricing"
	"github.com/matthieukhl/receipter/internal/usb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandle struct {
	writes [][]byte
	err    error
}

func (h *recordingHandle) WriteBulk(data []byte, timeout time.Duration) error {
	if h.err != nil {
		return h.err
	}
	h.writes = append(h.writes, data)
	return nil
}

func (h *recordingHandle) Close() error { return nil }

type staticOpener struct {
	handle *recordingHandle
	err    error
}

func (o *staticOpener) Open(vendorID, productID uint16) (usb.Handle, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.handle, nil
}

var fixedNow = time.Date(2024, 3, 9, 18, 47, 12, 0, time.UTC)

func newService(t *testing.T, opener usb.Opener) *Service {
	t.Helper()
	c, err := catalog.New([]models.Product{
		{Name: "Pizza Margherita", Price: 1500},
		{Name: "Cola", Price: 400},
	})
	require.NoError(t, err)

	session := usb.NewSession(opener, 0x1504, 0x0025, zap.NewNop())
	printer := escpos.NewPrinter(session, time.Second, 5, zap.NewNop())

	return NewService(c, printer, order.NewCounter(1), zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }))
}

func TestPreview_ComputesTotals(t *testing.T) {
	s := newService(t, &staticOpener{handle: &recordingHandle{}})

	res, err := s.Preview(Request{
		Customer: models.Customer{Name: "Kovács Anna"},
		Items:    []string{"Pizza Margherita", "Cola"},
		Discount: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, models.Totals{Subtotal: 1900, DiscountAmount: 190, GrandTotal: 1710}, res.Data.Totals)
	assert.Equal(t, 1, res.Data.Number)
	assert.Equal(t, fixedNow, res.Data.OrderedAt)
	assert.Equal(t, "10%", res.Data.DiscountLabel)
	assert.Equal(t, "Pizza Margherita (x1), Cola (x1)", res.Summary)
	assert.Contains(t, res.Text, "Pizza Margherita - 1500 Ft\nCola - 400 Ft\n")
	assert.Contains(t, res.Text, "   |Vegosszeg: 1710 Ft|")
	assert.Contains(t, res.Text, "Nyugta: 2024-03-09 18:47:12")
	assert.False(t, res.Printed)
	assert.False(t, s.PrinterReady())
}

func TestPreview_EmptyOrder(t *testing.T) {
	s := newService(t, &staticOpener{handle: &recordingHandle{}})

	res, err := s.Preview(Request{})
	require.NoError(t, err)
	assert.Equal(t, models.Totals{}, res.Data.Totals)
}

func TestPreview_Errors(t *testing.T) {
	s := newService(t, &staticOpener{handle: &recordingHandle{}})

	_, err := s.Preview(Request{Items: []string{"Sprite"}})
	assert.ErrorIs(t, err, order.ErrUnknownProduct)

	_, err = s.Preview(Request{Items: []string{"Cola"}, Discount: 120})
	assert.ErrorIs(t, err, pricing.ErrInvalidDiscount)
}

func TestPrint_AdvancesNumberOnSuccess(t *testing.T) {
	handle := &recordingHandle{}
	s := newService(t, &staticOpener{handle: handle})

	ordered := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	res, err := s.Print(Request{Items: []string{"Cola", "Cola"}, OrderedAt: ordered})
	require.NoError(t, err)

	assert.True(t, res.Printed)
	assert.Equal(t, 1, res.Data.Number)
	assert.Equal(t, ordered, res.Data.OrderedAt)
	assert.Equal(t, 2, s.NextNumber())
	assert.True(t, s.PrinterReady())
	assert.Equal(t, escpos.StateDone, s.PrinterState())
	require.Len(t, handle.writes, 2)
	assert.Equal(t, escpos.Frame(escpos.Encode(res.Text)), handle.writes[0])

	res, err = s.Print(Request{Items: []string{"Cola"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Data.Number)
	assert.Equal(t, 3, s.NextNumber())
}

func TestPrint_DeviceNotFound(t *testing.T) {
	s := newService(t, &staticOpener{err: usb.ErrDeviceNotFound})

	res, err := s.Print(Request{Items: []string{"Pizza Margherita"}})
	assert.ErrorIs(t, err, escpos.ErrPrintFailed)
	assert.ErrorIs(t, err, usb.ErrDeviceNotFound)
	require.NotNil(t, res)
	assert.False(t, res.Printed)
	assert.Equal(t, 1, s.NextNumber())
	assert.Equal(t, escpos.StateFailed, s.PrinterState())
}

func TestPrint_TransportTimeout(t *testing.T) {
	s := newService(t, &staticOpener{handle: &recordingHandle{err: usb.ErrTransportTimeout}})

	_, err := s.Print(Request{Items: []string{"Cola"}})
	assert.ErrorIs(t, err, escpos.ErrPrintFailed)
	assert.ErrorIs(t, err, usb.ErrTransportTimeout)
	assert.Equal(t, 1, s.NextNumber())
}

func TestPrint_InvalidRequestNeverTouchesPrinter(t *testing.T) {
	handle := &recordingHandle{}
	s := newService(t, &staticOpener{handle: handle})

	_, err := s.Print(Request{Items: []string{"Cola"}, Discount: -1})
	assert.ErrorIs(t, err, pricing.ErrInvalidDiscount)
	assert.Empty(t, handle.writes)
	assert.False(t, s.PrinterReady())
}
