package loopback

import (
	"errors"
	"sync"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	"github.com/dcooperdalrymple/go-xmodem/internal/ring"
)

// In-memory transport pair primarily used for testing.
// Two endpoints are cross connected so that bytes written on one end
// become readable on the other, strictly in write order.

const DefaultCapacity = 4096

var ErrClosed = errors.New("loopback endpoint is closed")
var ErrOverrun = errors.New("loopback buffer is full")

// half is one direction of the link
type half struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    *ring.Ring
	closed bool
}

func newHalf(capacity int) *half {
	h := &half{buf: ring.New(capacity)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

func (h *half) writeByte(value byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if !h.buf.WriteByte(value) {
		return ErrOverrun
	}
	h.cond.Broadcast()
	return nil
}

func (h *half) readByte(timeout time.Duration) (byte, error) {
	deadline := time.Now().Add(timeout)
	// Wake any waiter when the deadline passes. The lock is taken so the
	// broadcast cannot slip between the deadline check and the wait below.
	timer := time.AfterFunc(timeout, func() {
		h.mu.Lock()
		h.cond.Broadcast()
		h.mu.Unlock()
	})
	defer timer.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		if value, ok := h.buf.ReadByte(); ok {
			return value, nil
		}
		if h.closed {
			return 0, ErrClosed
		}
		if !time.Now().Before(deadline) {
			return 0, xmodem.ErrReadTimeout
		}
		h.cond.Wait()
	}
}

func (h *half) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.cond.Broadcast()
}

// Endpoint is one side of a loopback link, implements [xmodem.Transport]
type Endpoint struct {
	rx *half // bytes the peer wrote to us
	tx *half // bytes we write to the peer
}

// Pipe creates a cross connected endpoint pair with the default capacity
func Pipe() (*Endpoint, *Endpoint) {
	return PipeSize(DefaultCapacity)
}

// PipeSize creates a cross connected endpoint pair with per direction capacity
func PipeSize(capacity int) (*Endpoint, *Endpoint) {
	aToB := newHalf(capacity)
	bToA := newHalf(capacity)
	a := &Endpoint{rx: bToA, tx: aToB}
	b := &Endpoint{rx: aToB, tx: bToA}
	return a, b
}

// "ReadByte" implementation of Transport interface
func (e *Endpoint) ReadByte(timeout time.Duration) (byte, error) {
	return e.rx.readByte(timeout)
}

// "WriteByte" implementation of Transport interface
func (e *Endpoint) WriteByte(value byte) error {
	return e.tx.writeByte(value)
}

// Close releases both directions, any blocked reader on either end wakes up
func (e *Endpoint) Close() error {
	e.rx.close()
	e.tx.close()
	return nil
}
