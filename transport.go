package xmodem

import (
	"fmt"
	"time"
)

// A byte oriented transport link interface
// The engine reads and writes single bytes and leaves buffering,
// back pressure and link configuration to the driver.
// Drivers must pass 8 bit data through unmodified, in particular
// without CRLF translation.
type Transport interface {
	ReadByte(timeout time.Duration) (byte, error) // Next byte from the link, ErrReadTimeout if none arrives in time
	WriteByte(b byte) error                       // Queue a single byte for transmission, in call order
}

// Register a new transport interface type
// This should be called inside an init() function of the driver plugin
func RegisterTransport(transportType string, newTransport NewTransportFunc) {
	transportRegistry[transportType] = newTransport
}

type NewTransportFunc func(channel string) (Transport, error)

var transportRegistry = make(map[string]NewTransportFunc)

// Create a new transport of the given registered type
// Currently supported : serial
func NewTransport(transportType string, channel string) (Transport, error) {
	createTransport, ok := transportRegistry[transportType]
	if !ok {
		return nil, fmt.Errorf("unsupported transport : %v", transportType)
	}
	return createTransport(channel)
}
