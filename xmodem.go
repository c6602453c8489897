// This package is a pure golang implementation of the XMODEM file
// transfer protocol, supporting both the original 8 bit additive
// checksum variant and XMODEM-CRC (CRC-16/XMODEM)
package xmodem

import "time"

// Protocol control bytes
const (
	SOH byte = 0x01 // Start of header for a 128 byte block
	EOT byte = 0x04 // End of transmission
	ACK byte = 0x06 // Positive acknowledgement of a block or EOT
	BS  byte = 0x08 // Historical CRC initiation prefix, ignored on receive
	DLE byte = 0x10 // Data link escape, the following byte is literal ^ 0x40
	NAK byte = 0x15 // Negative acknowledgement, also initiates additive mode
	CAN byte = 0x18 // Cancel, two in succession abort the session
	SUB byte = 0x1A // Padding byte for short final blocks
	CRC byte = 'C'  // Initiation byte for CRC-16 mode
)

// BlockSize is the payload size of every block on the wire
const BlockSize = 128

// Default timing and retry policy
const (
	DefaultSendWaitTimeout    = 30 * time.Second      // Budget for the sender to see the receiver initiation
	DefaultSendReadTimeout    = 10 * time.Millisecond // Sender per byte response polling
	DefaultReceiveWaitTimeout = 3 * time.Second       // Receiver budget between blocks
	DefaultReceiveReadTimeout = 10 * time.Millisecond // Receiver per intra block byte
	DefaultBlockAttempts      = 10                    // Transmissions of a single block before giving up
	DefaultEOTAttempts        = 10                    // EOT emissions before giving up
	DefaultAwaitAttempts      = 10                    // Silent receiver wait windows tolerated, the next one gives up
	AbortCanCount             = 8                     // CAN bytes emitted by the abort sequence
)
