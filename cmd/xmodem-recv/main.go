package main

// Receiver front-end, writes an incoming transfer to a file.
// Trailing SUB padding of the final block is preserved, strip it
// afterwards if the application calls for it.

import (
	"flag"
	"os"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	"github.com/dcooperdalrymple/go-xmodem/pkg/config"
	"github.com/dcooperdalrymple/go-xmodem/pkg/session"
	_ "github.com/dcooperdalrymple/go-xmodem/pkg/transport/serial"
	log "github.com/sirupsen/logrus"
)

const defaultCapacity = 1 << 20

func main() {
	profilePath := flag.String("c", "", "profile ini path")
	transportKind := flag.String("t", "serial", "transport kind")
	channel := flag.String("p", "/dev/ttyACM0@115200", "transport channel, device@baud for serial")
	useCRC := flag.Bool("crc", true, "initiate in CRC-16 mode")
	useEscape := flag.Bool("escape", false, "decode DLE escape pairs")
	capacity := flag.Int("n", defaultCapacity, "receive buffer capacity in bytes")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() != 1 {
		log.Fatal("expecting exactly one output file")
	}

	engineConfig := xmodem.Config{
		UseCRC:    *useCRC,
		UseEscape: *useEscape,
		LogLevel:  xmodem.LevelInfo,
	}
	waitTimeout := xmodem.DefaultReceiveWaitTimeout
	readTimeout := xmodem.DefaultReceiveReadTimeout
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

	transport, err := xmodem.NewTransport(*transportKind, *channel)
	if err != nil {
		log.Fatalf("failed to open transport : %v", err)
	}

	s := session.NewSession(transport, &engineConfig)
	buf := make([]byte, *capacity)
	start := time.Now()
	n, err := s.ReceiveWithTimeout(buf, waitTimeout, readTimeout)
	if err != nil {
		log.Fatalf("transfer failed after %v bytes : %v", n, err)
	}
	if err := os.WriteFile(flag.Arg(0), buf[:n], 0644); err != nil {
		log.Fatalf("failed to write output : %v", err)
	}
	log.Infof("received %v bytes in %v", n, time.Since(start).Round(time.Millisecond))
}
