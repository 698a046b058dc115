package usb

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubHandle struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
	err    error
}

func (h *stubHandle) WriteBulk(data []byte, timeout time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.writes = append(h.writes, append([]byte(nil), data...))
	return nil
}

func (h *stubHandle) Close() error {
	h.closed = true
	return nil
}

type stubOpener struct {
	handle *stubHandle
	err    error
	opens  int
	vid    uint16
	pid    uint16
}

func (o *stubOpener) Open(vendorID, productID uint16) (Handle, error) {
	o.opens++
	o.vid, o.pid = vendorID, productID
	if o.err != nil {
		return nil, o.err
	}
	return o.handle, nil
}

func TestSession_OpensLazilyOnce(t *testing.T) {
	opener := &stubOpener{handle: &stubHandle{}}
	s := NewSession(opener, 0x1504, 0x0025, zap.NewNop())

	assert.False(t, s.IsOpen())
	assert.Equal(t, 0, opener.opens)

	for i := 0; i < 3; i++ {
		err := s.Do(func(h Handle) error {
			return h.WriteBulk([]byte{byte(i)}, time.Second)
		})
		require.NoError(t, err)
	}

	assert.True(t, s.IsOpen())
	assert.Equal(t, 1, opener.opens)
	assert.Equal(t, uint16(0x1504), opener.vid)
	assert.Equal(t, uint16(0x0025), opener.pid)
	assert.Len(t, opener.handle.writes, 3)
}

func TestSession_OpenFailure(t *testing.T) {
	opener := &stubOpener{err: ErrDeviceNotFound}
	s := NewSession(opener, 0x1504, 0x0025, zap.NewNop())

	called := false
	err := s.Do(func(h Handle) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.False(t, called)
	assert.False(t, s.IsOpen())

	// the next attempt tries again
	opener.err = nil
	opener.handle = &stubHandle{}
	require.NoError(t, s.Do(func(h Handle) error { return nil }))
	assert.Equal(t, 2, opener.opens)
}

func TestSession_TimeoutKeepsHandle(t *testing.T) {
	handle := &stubHandle{err: ErrTransportTimeout}
	opener := &stubOpener{handle: handle}
	s := NewSession(opener, 1, 2, zap.NewNop())

	err := s.Do(func(h Handle) error { return h.WriteBulk([]byte("x"), time.Millisecond) })
	assert.ErrorIs(t, err, ErrTransportTimeout)
	assert.True(t, s.IsOpen())

	handle.err = nil
	require.NoError(t, s.Do(func(h Handle) error { return h.WriteBulk([]byte("x"), time.Millisecond) }))
	assert.Equal(t, 1, opener.opens)
}

func TestSession_Close(t *testing.T) {
	handle := &stubHandle{}
	opener := &stubOpener{handle: handle}
	s := NewSession(opener, 1, 2, zap.NewNop())

	require.NoError(t, s.Close())

	require.NoError(t, s.Do(func(h Handle) error { return nil }))
	require.NoError(t, s.Close())
	assert.True(t, handle.closed)
	assert.False(t, s.IsOpen())
}

func TestSession_SerializesCallers(t *testing.T) {
	opener := &stubOpener{handle: &stubHandle{}}
	s := NewSession(opener, 1, 2, zap.NewNop())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		active int
		peak   int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(h Handle) error {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
	assert.Equal(t, 1, opener.opens)
}

func TestSession_PassesThroughErrors(t *testing.T) {
	s := NewSession(&stubOpener{handle: &stubHandle{}}, 1, 2, zap.NewNop())
	boom := errors.New("boom")
	assert.ErrorIs(t, s.Do(func(h Handle) error { return boom }), boom)
}
