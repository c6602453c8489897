package session

import (
	"errors"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	"github.com/dcooperdalrymple/go-xmodem/internal/crc"
)

// maxFrameSize is SOH, sequence pair, payload and a two byte CRC trailer
const maxFrameSize = 3 + xmodem.BlockSize + 2

// encodeBlock frames one 128 byte payload into dst and returns the frame
// length. No escaping is applied on send in this protocol profile.
func encodeBlock(dst *[maxFrameSize]byte, payload []byte, seq byte, useCRC bool) int {
	dst[0] = xmodem.SOH
	dst[1] = seq
	dst[2] = 255 - seq
	copy(dst[3:], payload[:xmodem.BlockSize])
	if useCRC {
		sum := crc.Sum(payload[:xmodem.BlockSize])
		dst[3+xmodem.BlockSize] = byte(sum >> 8)
		dst[4+xmodem.BlockSize] = byte(sum)
		return maxFrameSize
	}
	dst[3+xmodem.BlockSize] = byte(crc.SumAdditive(payload[:xmodem.BlockSize]))
	return maxFrameSize - 1
}

// readBlock consumes the remainder of a block after the state machine has
// seen its SOH : the sequence pair, 128 payload bytes and the checksum
// trailer. seq is the expected sequence byte of the next new block.
// The payload scratch is only valid on decodeOk.
func (s *Session) readBlock(seq byte, payload *[xmodem.BlockSize]byte, readTimeout time.Duration) (decodeResult, error) {

	// Block header, sequence byte and its ones complement
	var header [2]byte
	for i := range header {
		c, err := s.transport.ReadByte(readTimeout)
		if err != nil {
			if errors.Is(err, xmodem.ErrReadTimeout) {
				return decodeTimeout, nil
			}
			return decodeTimeout, err
		}
		header[i] = c
	}

	// Payload, unescaped before it counts toward the block
	var sum crc.CRC16
	var add crc.Additive
	escape := false
	for i := 0; i < xmodem.BlockSize; {
		c, err := s.transport.ReadByte(readTimeout)
		if err != nil {
			if errors.Is(err, xmodem.ErrReadTimeout) {
				return decodeTimeout, nil
			}
			return decodeTimeout, err
		}
		if s.config.UseEscape && c == xmodem.DLE {
			escape = true
			continue
		}
		if escape {
			c = c ^ 0x40
			escape = false
		}
		payload[i] = c
		i++
		if s.config.UseCRC {
			sum.Single(c)
		} else {
			add.Single(c)
		}
	}

	// Checksum trailer
	footerSize := 1
	if s.config.UseCRC {
		footerSize = 2
	}
	var footer [2]byte
	for i := 0; i < footerSize; i++ {
		c, err := s.transport.ReadByte(readTimeout)
		if err != nil {
			if errors.Is(err, xmodem.ErrReadTimeout) {
				return decodeTimeout, nil
			}
			return decodeTimeout, err
		}
		footer[i] = c
	}

	if header[1] != 255-header[0] || (header[0] != seq && header[0] != seq-1) {
		return decodeBadHeader, nil
	}
	if s.config.UseCRC {
		if footer[0] != byte(sum>>8) || footer[1] != byte(sum) {
			return decodeBadChecksum, nil
		}
	} else if footer[0] != byte(add) {
		return decodeBadChecksum, nil
	}
	if header[0] != seq {
		// Retransmission of the block we already accepted, the peer
		// missed our previous ACK
		return decodeDuplicate, nil
	}
	return decodeOk, nil
}
