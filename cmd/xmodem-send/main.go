package main

// Sender front-end, transmits a file over a serial link

import (
	"bytes"
	"flag"
	"os"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	"github.com/dcooperdalrymple/go-xmodem/pkg/config"
	"github.com/dcooperdalrymple/go-xmodem/pkg/session"
	_ "github.com/dcooperdalrymple/go-xmodem/pkg/transport/serial"
	log "github.com/sirupsen/logrus"
)

func main() {
	profilePath := flag.String("c", "", "profile ini path")
	transportKind := flag.String("t", "serial", "transport kind")
	channel := flag.String("p", "/dev/ttyACM0@115200", "transport channel, device@baud for serial")
	useCRC := flag.Bool("crc", true, "use the CRC-16 trailer")
	requireCRC := flag.Bool("require-crc", false, "refuse the additive checksum fallback")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() != 1 {
		log.Fatal("expecting exactly one input file")
	}

	engineConfig := xmodem.Config{
		UseCRC:     *useCRC,
		RequireCRC: *requireCRC,
		LogLevel:   xmodem.LevelInfo,
	}
	waitTimeout := xmodem.DefaultSendWaitTimeout
	readTimeout := xmodem.DefaultSendReadTimeout
	if *profilePath != "" {
		profile, err := config.LoadProfile(*profilePath)
		if err != nil {
			log.Fatalf("failed to load profile : %v", err)
		}
		engineConfig = profile.Engine
		if profile.Transport != "" {
			*transportKind = profile.Transport
		}
		if profile.Channel != "" {
			*channel = profile.Channel
		}
		if profile.WaitTimeout > 0 {
			waitTimeout = profile.WaitTimeout
		}
		if profile.ReadTimeout > 0 {
			readTimeout = profile.ReadTimeout
		}
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to read input : %v", err)
	}
	// The engine sends whole blocks only, pad the tail with SUB
	if partial := len(data) % xmodem.BlockSize; partial != 0 {
		data = append(data, bytes.Repeat([]byte{xmodem.SUB}, xmodem.BlockSize-partial)...)
	}

	transport, err := xmodem.NewTransport(*transportKind, *channel)
	if err != nil {
		log.Fatalf("failed to open transport : %v", err)
	}

	s := session.NewSession(transport, &engineConfig)
	log.Infof("sending %v bytes in %v blocks", len(data), len(data)/xmodem.BlockSize)
	start := time.Now()
	if err := s.SendWithTimeout(data, waitTimeout, readTimeout); err != nil {
		log.Fatalf("transfer failed : %v", err)
	}
	log.Infof("transfer complete in %v", time.Since(start).Round(time.Millisecond))
}
