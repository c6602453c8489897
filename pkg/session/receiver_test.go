package session

import (
	"bytes"
	"testing"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	"github.com/stretchr/testify/assert"
)

func TestReceiverRetryBudget(t *testing.T) {
	peer := &scriptedPeer{}
	config := xmodem.Config{UseCRC: true}
	s := NewSession(peer, &config)
	buf := make([]byte, xmodem.BlockSize)
	n, err := s.ReceiveWithTimeout(buf, 10*time.Millisecond, 5*time.Millisecond)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, xmodem.ErrRetryExhausted)
	// Initiation, one re-emission per wait window, then the abort train
	expected := bytes.Repeat([]byte{xmodem.CRC}, 1+xmodem.DefaultAwaitAttempts)
	expected = append(expected, bytes.Repeat([]byte{xmodem.CAN}, xmodem.AbortCanCount)...)
	assert.Equal(t, expected, peer.writes)
}

func TestReceiverAdditiveInitiation(t *testing.T) {
	peer := &scriptedPeer{responses: []byte{xmodem.EOT}}
	s := NewSession(peer, nil)
	n, err := s.ReceiveWithTimeout(make([]byte, xmodem.BlockSize), 50*time.Millisecond, 10*time.Millisecond)
	assert.Zero(t, n)
	assert.Nil(t, err)
	assert.Equal(t, []byte{xmodem.NAK, xmodem.ACK}, peer.writes)
}

func TestReceiverPeerCancel(t *testing.T) {
	peer := &scriptedPeer{responses: []byte{xmodem.CAN}}
	config := xmodem.Config{UseCRC: true}
	s := NewSession(peer, &config)
	n, err := s.ReceiveWithTimeout(make([]byte, xmodem.BlockSize), 50*time.Millisecond, 10*time.Millisecond)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, xmodem.ErrPeerCancelled)
	assert.Equal(t, []byte{xmodem.CRC, xmodem.ACK}, peer.writes)
}

func TestReceiverIgnoresGarbage(t *testing.T) {
	peer := &scriptedPeer{responses: []byte{0x7F, 0x00, xmodem.EOT}}
	config := xmodem.Config{UseCRC: true}
	s := NewSession(peer, &config)
	n, err := s.ReceiveWithTimeout(make([]byte, xmodem.BlockSize), 50*time.Millisecond, 10*time.Millisecond)
	assert.Zero(t, n)
	assert.Nil(t, err)
}

func TestReceiverAcceptsBlock(t *testing.T) {
	payload := bytes.Repeat([]byte{0x37}, xmodem.BlockSize)
	var frame [maxFrameSize]byte
	frameLen := encodeBlock(&frame, payload, 1, true)
	responses := append(frame[:frameLen:frameLen], xmodem.EOT)

	peer := &scriptedPeer{responses: responses}
	config := xmodem.Config{UseCRC: true}
	s := NewSession(peer, &config)
	buf := make([]byte, xmodem.BlockSize)
	n, err := s.ReceiveWithTimeout(buf, 50*time.Millisecond, 10*time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, xmodem.BlockSize, n)
	assert.Equal(t, payload, buf)
	assert.Equal(t, []byte{xmodem.CRC, xmodem.ACK, xmodem.ACK}, peer.writes)
}

func TestReceiverNAKsBadBlock(t *testing.T) {
	payload := bytes.Repeat([]byte{0x37}, xmodem.BlockSize)
	var frame [maxFrameSize]byte
	frameLen := encodeBlock(&frame, payload, 1, true)
	bad := append([]byte{}, frame[:frameLen]...)
	bad[frameLen-1] ^= 0xFF
	responses := append(bad, frame[:frameLen]...)
	responses = append(responses, xmodem.EOT)

	peer := &scriptedPeer{responses: responses}
	config := xmodem.Config{UseCRC: true}
	s := NewSession(peer, &config)
	buf := make([]byte, xmodem.BlockSize)
	n, err := s.ReceiveWithTimeout(buf, 50*time.Millisecond, 10*time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, xmodem.BlockSize, n)
	assert.Equal(t, payload, buf)
	assert.Equal(t, []byte{xmodem.CRC, xmodem.NAK, xmodem.ACK, xmodem.ACK}, peer.writes)
}
