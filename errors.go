package xmodem

import "errors"

var (
	ErrReadTimeout     = errors.New("no byte arrived within the timeout window")
	ErrTimeout         = errors.New("transfer timed out")
	ErrBadFrame        = errors.New("header sequence or checksum mismatch")
	ErrPeerCancelled   = errors.New("transfer cancelled by peer")
	ErrBufferOverflow  = errors.New("incoming data exceeds buffer capacity")
	ErrModeMismatch    = errors.New("peer does not support the required CRC mode")
	ErrRetryExhausted  = errors.New("retry budget exhausted")
	ErrSessionBusy     = errors.New("session already has a transfer in progress")
	ErrIllegalArgument = errors.New("error in function arguments")
)
