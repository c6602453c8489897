package serial

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Transport driver for local serial ports (UART or USB-CDC) using go.bug.st/serial.
// The port is opened raw, 8 data bits, no parity, one stop bit, so 8 bit
// protocol data passes through without translation.

const DefaultBaudRate = 115200

func init() {
	xmodem.RegisterTransport("serial", NewSerialTransport)
}

type Transport struct {
	port        serial.Port
	readTimeout time.Duration
}

// NewSerialTransport opens a serial port transport
// Channel syntax is device or device@baud, e.g. /dev/ttyACM0@115200
func NewSerialTransport(channel string) (xmodem.Transport, error) {
	device, baudRate, err := parseChannel(channel)
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %v : %w", device, err)
	}
	log.Debugf("[SERIAL] opened %v at %v baud", device, baudRate)
	return &Transport{port: port, readTimeout: -1}, nil
}

func parseChannel(channel string) (string, int, error) {
	device, baud, found := strings.Cut(channel, "@")
	if device == "" {
		return "", 0, xmodem.ErrIllegalArgument
	}
	if !found {
		return device, DefaultBaudRate, nil
	}
	baudRate, err := strconv.Atoi(baud)
	if err != nil || baudRate <= 0 {
		return "", 0, fmt.Errorf("invalid baud rate : %v", baud)
	}
	return device, baudRate, nil
}

// "ReadByte" implementation of Transport interface
func (t *Transport) ReadByte(timeout time.Duration) (byte, error) {
	if timeout != t.readTimeout {
		if err := t.port.SetReadTimeout(timeout); err != nil {
			return 0, err
		}
		t.readTimeout = timeout
	}
	var buffer [1]byte
	n, err := t.port.Read(buffer[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, xmodem.ErrReadTimeout
	}
	return buffer[0], nil
}

// "WriteByte" implementation of Transport interface
func (t *Transport) WriteByte(value byte) error {
	buffer := [1]byte{value}
	_, err := t.port.Write(buffer[:])
	return err
}

// Close releases the port
func (t *Transport) Close() error {
	return t.port.Close()
}
