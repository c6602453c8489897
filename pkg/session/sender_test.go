package session

import (
	"bytes"
	"testing"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	"github.com/stretchr/testify/assert"
)

// scriptedPeer feeds canned response bytes to the engine and records
// everything the engine writes. Once the script runs out every read
// times out.
type scriptedPeer struct {
	responses []byte
	writes    []byte
}

func (p *scriptedPeer) ReadByte(timeout time.Duration) (byte, error) {
	if len(p.responses) == 0 {
		return 0, xmodem.ErrReadTimeout
	}
	c := p.responses[0]
	p.responses = p.responses[1:]
	return c, nil
}

func (p *scriptedPeer) WriteByte(value byte) error {
	p.writes = append(p.writes, value)
	return nil
}

func TestSenderRetryBudget(t *testing.T) {
	// Initiation in additive mode, then a NAK for every attempt
	peer := &scriptedPeer{responses: bytes.Repeat([]byte{xmodem.NAK}, 1+xmodem.DefaultBlockAttempts)}
	s := NewSession(peer, nil)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize), time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, xmodem.ErrRetryExhausted)
	// Exactly ten transmissions of the 132 byte frame, then the abort train
	assert.Equal(t, xmodem.DefaultBlockAttempts*132+xmodem.AbortCanCount, len(peer.writes))
	assert.Equal(t, bytes.Repeat([]byte{xmodem.CAN}, xmodem.AbortCanCount), peer.writes[len(peer.writes)-xmodem.AbortCanCount:])
}

func TestSenderPeerCancel(t *testing.T) {
	peer := &scriptedPeer{responses: []byte{xmodem.CRC, xmodem.CAN, xmodem.CAN}}
	config := xmodem.NewConfig(xmodem.ModeCRC)
	s := NewSession(peer, &config)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize), time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, xmodem.ErrPeerCancelled)
	// One CRC frame then the abort train
	assert.Equal(t, 133+xmodem.AbortCanCount, len(peer.writes))
}

func TestSenderModeMismatch(t *testing.T) {
	peer := &scriptedPeer{responses: []byte{xmodem.NAK}}
	config := xmodem.Config{UseCRC: true, RequireCRC: true}
	s := NewSession(peer, &config)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize), time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, err, xmodem.ErrModeMismatch)
	// Nothing but the abort train went out
	assert.Equal(t, bytes.Repeat([]byte{xmodem.CAN}, xmodem.AbortCanCount), peer.writes)
}

func TestSenderInitiationTimeout(t *testing.T) {
	peer := &scriptedPeer{}
	s := NewSession(peer, nil)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize), 50*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, xmodem.ErrTimeout)
}

func TestSenderEOTRetry(t *testing.T) {
	// Block acknowledged, first EOT NAKed, second EOT acknowledged
	peer := &scriptedPeer{responses: []byte{xmodem.CRC, xmodem.ACK, xmodem.NAK, xmodem.ACK}}
	config := xmodem.NewConfig(xmodem.ModeCRC)
	s := NewSession(peer, &config)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize), time.Second, 10*time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, 2, bytes.Count(peer.writes, []byte{xmodem.EOT}))
}

func TestSenderIgnoresHistoricInitiationPrefix(t *testing.T) {
	// BS before 'C' is tolerated for compatibility with old receivers
	peer := &scriptedPeer{responses: []byte{xmodem.BS, xmodem.CRC, xmodem.ACK, xmodem.ACK}}
	config := xmodem.NewConfig(xmodem.ModeCRC)
	s := NewSession(peer, &config)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize), time.Second, 10*time.Millisecond)
	assert.Nil(t, err)
}

func TestSenderEmptyBuffer(t *testing.T) {
	// Nothing to send, the dialogue collapses to EOT
	peer := &scriptedPeer{responses: []byte{xmodem.NAK, xmodem.ACK}}
	s := NewSession(peer, nil)
	err := s.SendWithTimeout(nil, time.Second, 10*time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, []byte{xmodem.EOT}, peer.writes)
}

func TestSenderSkipsTrailingPartialBlock(t *testing.T) {
	// 130 bytes, only the first complete block is covered
	peer := &scriptedPeer{responses: []byte{xmodem.NAK, xmodem.ACK, xmodem.ACK}}
	s := NewSession(peer, nil)
	err := s.SendWithTimeout(make([]byte, xmodem.BlockSize+2), time.Second, 10*time.Millisecond)
	assert.Nil(t, err)
	// One 132 byte frame plus the EOT
	assert.Equal(t, 132+1, len(peer.writes))
}
