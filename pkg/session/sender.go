package session

import (
	"errors"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
)

// runSender drives the sender state machine over buf.
// Only complete blocks are covered, floor(len/128) of them.
func (s *Session) runSender(buf []byte, waitTimeout time.Duration, readTimeout time.Duration) error {
	state := txAwaitInitiation
	useCRC := false
	block := 0
	blocks := len(buf) / xmodem.BlockSize
	var result error

	for {
		switch state {
		case txAwaitInitiation:
			useCRC, result = s.awaitInitiation(waitTimeout, readTimeout)
			if result != nil {
				state = txFailed
				break
			}
			if blocks == 0 {
				state = txSendingEOT
			} else {
				state = txSendingBlock
			}

		case txSendingBlock:
			if result = s.sendBlock(buf, block, useCRC, readTimeout); result != nil {
				s.logf(xmodem.LevelWarning, "Block transmission failed")
				state = txFailed
				break
			}
			block++
			if block >= blocks {
				state = txSendingEOT
			}

		case txSendingEOT:
			if result = s.sendEOT(readTimeout); result != nil {
				state = txFailed
			} else {
				state = txCompleted
			}

		case txCompleted:
			return nil

		case txFailed:
			s.abort(readTimeout)
			return result
		}
	}
}

// awaitInitiation polls for the receiver's mode selection byte within the
// wall clock budget and returns the negotiated CRC mode
func (s *Session) awaitInitiation(waitTimeout time.Duration, readTimeout time.Duration) (bool, error) {
	deadline := time.Now().Add(waitTimeout)
	for {
		if !time.Now().Before(deadline) {
			s.logf(xmodem.LevelWarning, "Timeout")
			return false, xmodem.ErrTimeout
		}
		c, err := s.transport.ReadByte(readTimeout)
		if err != nil {
			if errors.Is(err, xmodem.ErrReadTimeout) {
				continue
			}
			return false, err
		}
		switch c {
		case xmodem.CRC:
			s.logf(xmodem.LevelInfo, "CRC enabled")
			return true, nil
		case xmodem.NAK:
			if s.config.UseCRC && s.config.RequireCRC {
				s.logf(xmodem.LevelFatal, "Receiver must be configured for CRC-16")
				return false, xmodem.ErrModeMismatch
			}
			s.logf(xmodem.LevelInfo, "CRC disabled")
			return false, nil
		case xmodem.BS:
			// Some receivers prefix their CRC initiation with BS
		default:
			s.logf(xmodem.LevelInfo, "Unexpected character %02X received - expected %02X or %02X", c, xmodem.CRC, xmodem.NAK)
		}
	}
}

// sendBlock transmits one block and waits for its acknowledgement,
// retrying up to the per block attempt budget
func (s *Session) sendBlock(buf []byte, block int, useCRC bool, timeout time.Duration) error {
	start := block * xmodem.BlockSize
	seq := byte(block + 1)
	var frame [maxFrameSize]byte
	frameLen := encodeBlock(&frame, buf[start:start+xmodem.BlockSize], seq, useCRC)

	s.logf(xmodem.LevelDebug, "Sending block %d: %04X-%04X", block+1, start, start+xmodem.BlockSize)

	for attempt := 0; attempt < xmodem.DefaultBlockAttempts; attempt++ {
		for _, c := range frame[:frameLen] {
			if err := s.transport.WriteByte(c); err != nil {
				return err
			}
		}

		// Handle response
		c, err := s.transport.ReadByte(timeout)
		if err != nil {
			if !errors.Is(err, xmodem.ErrReadTimeout) {
				return err
			}
			s.logf(xmodem.LevelDebug, "No response, retrying block %d", block+1)
			continue
		}
		switch c {
		case xmodem.ACK:
			return nil
		case xmodem.CAN:
			c2, err2 := s.transport.ReadByte(timeout)
			if err2 == nil && c2 == xmodem.CAN {
				s.logf(xmodem.LevelFatal, "Transmission cancelled by receiver")
				return xmodem.ErrPeerCancelled
			}
		case xmodem.NAK:
		default:
			s.logf(xmodem.LevelDebug, "Unknown response %02X, retrying block %d", c, block+1)
		}
		s.logf(xmodem.LevelDebug, "Retrying block %d", block+1)
	}

	s.logf(xmodem.LevelInfo, "Failed to deliver block %d", block+1)
	return xmodem.ErrRetryExhausted
}

// sendEOT terminates the transfer, re-emitting EOT on NAK up to the
// attempt budget
func (s *Session) sendEOT(timeout time.Duration) error {
	for attempt := 0; attempt < xmodem.DefaultEOTAttempts; attempt++ {
		if err := s.transport.WriteByte(xmodem.EOT); err != nil {
			return err
		}
		c, err := s.transport.ReadByte(timeout)
		if err != nil {
			if !errors.Is(err, xmodem.ErrReadTimeout) {
				return err
			}
			continue
		}
		switch c {
		case xmodem.ACK:
			return nil
		case xmodem.CAN:
			c2, err2 := s.transport.ReadByte(timeout)
			if err2 == nil && c2 == xmodem.CAN {
				s.logf(xmodem.LevelFatal, "Transmission cancelled by receiver")
				return xmodem.ErrPeerCancelled
			}
		case xmodem.NAK:
		default:
			s.logf(xmodem.LevelDebug, "Unknown response %02X to EOT", c)
		}
	}
	s.logf(xmodem.LevelError, "EOT Timeout")
	return xmodem.ErrRetryExhausted
}
