package session

import (
	"errors"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
)

// runReceiver drives the receiver state machine into buf and returns the
// number of bytes accepted, a multiple of the block size.
// On buffer overflow the bytes accepted so far are returned together with
// the error, every other failure returns zero.
func (s *Session) runReceiver(buf []byte, waitTimeout time.Duration, readTimeout time.Duration) (int, error) {
	state := rxInit
	blocks := 0
	retries := 0
	var result error

	for {
		switch state {
		case rxInit:
			// Indicate ready to receive and select the checksum mode
			if result = s.emitInitiation(); result != nil {
				state = rxCancelled
				break
			}
			state = rxAwaitBlock

		case rxAwaitBlock:
			c, err := s.transport.ReadByte(waitTimeout)
			if err != nil {
				if !errors.Is(err, xmodem.ErrReadTimeout) {
					result = err
					state = rxCancelled
					break
				}
				retries++
				if retries > xmodem.DefaultAwaitAttempts {
					s.logf(xmodem.LevelError, "Gave up waiting for sender")
					s.abort(readTimeout)
					result = xmodem.ErrRetryExhausted
					state = rxCancelled
					break
				}
				// Keep soliciting the first block, NAK afterwards
				if blocks == 0 {
					result = s.emitInitiation()
				} else {
					result = s.transport.WriteByte(xmodem.NAK)
				}
				if result != nil {
					state = rxCancelled
				}
				break
			}
			switch c {
			case xmodem.SOH:
				s.logf(xmodem.LevelDebug, "Got SOH for block %d", blocks+1)
				state = rxReceivingBlock
			case xmodem.EOT:
				s.logf(xmodem.LevelInfo, "EOT => ACK")
				s.transport.WriteByte(xmodem.ACK)
				state = rxCompleted
			case xmodem.CAN:
				s.logf(xmodem.LevelInfo, "CAN => ACK")
				s.transport.WriteByte(xmodem.ACK)
				result = xmodem.ErrPeerCancelled
				state = rxCancelled
			default:
				s.logf(xmodem.LevelInfo, "Unexpected character %02X received, expected SOH or EOT", c)
			}

		case rxReceivingBlock:
			offset := blocks * xmodem.BlockSize
			var payload [xmodem.BlockSize]byte
			outcome, err := s.readBlock(byte(blocks+1), &payload, readTimeout)
			if err != nil {
				result = err
				state = rxCancelled
				break
			}
			// Only a new block needs room, a duplicate of the last accepted
			// block is still re-ACKed when the buffer is full
			if outcome == decodeOk && offset+xmodem.BlockSize > len(buf) {
				s.logf(xmodem.LevelDebug, "Transmission exceeds buffer capacity")
				s.abort(readTimeout)
				result = xmodem.ErrBufferOverflow
				state = rxCancelled
				break
			}
			switch outcome {
			case decodeOk:
				copy(buf[offset:], payload[:])
				s.logf(xmodem.LevelInfo, "ACK")
				s.transport.WriteByte(xmodem.ACK)
				blocks++
				retries = 0
			case decodeDuplicate:
				// Our previous ACK was lost, acknowledge again without
				// storing
				s.logf(xmodem.LevelInfo, "Duplicate block %d => ACK", blocks)
				s.transport.WriteByte(xmodem.ACK)
			default:
				s.logf(xmodem.LevelInfo, "NAK")
				s.transport.WriteByte(xmodem.NAK)
			}
			state = rxAwaitBlock

		case rxCompleted:
			return blocks * xmodem.BlockSize, nil

		case rxCancelled:
			if blocks == 0 || result != nil {
				s.logf(xmodem.LevelWarning, "Failed to receive data")
			}
			if errors.Is(result, xmodem.ErrBufferOverflow) {
				return blocks * xmodem.BlockSize, result
			}
			return 0, result
		}
	}
}

// emitInitiation transmits the mode selection byte, 'C' for CRC-16 and
// NAK for the additive checksum
func (s *Session) emitInitiation() error {
	if s.config.UseCRC {
		return s.transport.WriteByte(xmodem.CRC)
	}
	return s.transport.WriteByte(xmodem.NAK)
}
