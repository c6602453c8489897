package session

import (
	"sync"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	log "github.com/sirupsen/logrus"
)

// A Session drives one XMODEM transfer at a time over a transport.
// The transport and the caller supplied buffer belong to the session for
// the duration of a transfer, no state other than the configuration
// persists between transfers.
type Session struct {
	transport xmodem.Transport
	config    xmodem.Config
	diag      *diagLog

	mu     sync.Mutex
	active bool
}

// NewSession creates a session over the given transport.
// A nil config selects the original mode with everything off.
func NewSession(transport xmodem.Transport, config *xmodem.Config) *Session {
	var c xmodem.Config
	if config != nil {
		c = *config
	}
	return &Session{
		transport: transport,
		config:    c,
		diag:      newDiagLog(defaultDiagCapacity),
	}
}

// SetMode applies one of the predefined option sets
func (s *Session) SetMode(mode xmodem.Mode) {
	s.config.SetMode(mode)
}

// SetLogLevel adjusts the diagnostic sink threshold
func (s *Session) SetLogLevel(level xmodem.LogLevel) {
	s.config.LogLevel = level
}

// SetEscaping toggles receive side DLE escape decoding
func (s *Session) SetEscaping(useEscape bool) {
	s.config.UseEscape = useEscape
}

// Config returns a copy of the active configuration
func (s *Session) Config() xmodem.Config {
	return s.config
}

// PrintConfig dumps the active configuration through the logger
func (s *Session) PrintConfig() {
	log.Infof("serial protocol: XMODEM+CRC")
	log.Infof("\tblock size: %d bytes", xmodem.BlockSize)
	log.Infof("\tCRC: %v", s.config.UseCRC)
	if s.config.UseCRC {
		log.Infof("\tCRC required: %v", s.config.RequireCRC)
	}
	log.Infof("\tescaping: %v", s.config.UseEscape)
	log.Infof("\tlog level: %v", s.config.LogLevel)
}

// Send transmits buf with the default timing policy.
// Only complete 128 byte blocks are sent, the caller pads the final
// partial block with SUB beforehand if it wants it delivered.
func (s *Session) Send(buf []byte) error {
	return s.SendWithTimeout(buf, xmodem.DefaultSendWaitTimeout, xmodem.DefaultSendReadTimeout)
}

// SendWithTimeout transmits buf. waitTimeout is the wall clock budget for
// the receiver initiation, readTimeout the per byte response window.
func (s *Session) SendWithTimeout(buf []byte, waitTimeout time.Duration, readTimeout time.Duration) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()
	defer s.diag.flush()
	return s.runSender(buf, waitTimeout, readTimeout)
}

// Receive fills buf with the default timing policy and returns the number
// of bytes written, always a multiple of the block size. SUB padding of
// the final block is preserved, trimming is up to the caller.
func (s *Session) Receive(buf []byte) (int, error) {
	return s.ReceiveWithTimeout(buf, xmodem.DefaultReceiveWaitTimeout, xmodem.DefaultReceiveReadTimeout)
}

// ReceiveWithTimeout fills buf. waitTimeout bounds the gap between blocks,
// readTimeout the gap between bytes inside a block.
func (s *Session) ReceiveWithTimeout(buf []byte, waitTimeout time.Duration, readTimeout time.Duration) (int, error) {
	if err := s.acquire(); err != nil {
		return 0, err
	}
	defer s.release()
	defer s.diag.flush()
	return s.runReceiver(buf, waitTimeout, readTimeout)
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return xmodem.ErrSessionBusy
	}
	s.active = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// abort cancels the peer with a train of CAN bytes, then drains the link
// until a read window passes without receipt
func (s *Session) abort(readTimeout time.Duration) {
	for i := 0; i < xmodem.AbortCanCount; i++ {
		if err := s.transport.WriteByte(xmodem.CAN); err != nil {
			return
		}
	}
	for {
		if _, err := s.transport.ReadByte(readTimeout); err != nil {
			return
		}
	}
}
