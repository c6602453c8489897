package config

import (
	"fmt"
	"strings"
	"time"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// A Profile groups the engine configuration with the transport selection
// and timing overrides of one endpoint, loaded from an INI file.
//
//	[protocol]
//	use_crc     = true
//	require_crc = false
//	use_escape  = false
//	log_level   = info
//
//	[timing]
//	wait_timeout_ms = 30000
//	read_timeout_us = 10000
//
//	[serial]
//	port = /dev/ttyACM0
//	baud = 115200
type Profile struct {
	Engine      xmodem.Config
	Transport   string
	Channel     string
	WaitTimeout time.Duration // Zero means the role default
	ReadTimeout time.Duration // Zero means the role default
}

var logLevelValues = map[string]xmodem.LogLevel{
	"fatal":   xmodem.LevelFatal,
	"error":   xmodem.LevelError,
	"warning": xmodem.LevelWarning,
	"info":    xmodem.LevelInfo,
	"debug":   xmodem.LevelDebug,
}

// LoadProfile parses a profile from a file path or raw INI data
func LoadProfile(filePathOrData any) (*Profile, error) {
	f, err := ini.Load(filePathOrData)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile : %w", err)
	}
	profile := &Profile{Transport: "serial"}

	protocol := f.Section("protocol")
	profile.Engine.UseCRC = protocol.Key("use_crc").MustBool(true)
	profile.Engine.RequireCRC = protocol.Key("require_crc").MustBool(false)
	profile.Engine.UseEscape = protocol.Key("use_escape").MustBool(false)
	levelName := strings.ToLower(protocol.Key("log_level").MustString("error"))
	level, ok := logLevelValues[levelName]
	if !ok {
		log.Warnf("unknown log level %v, keeping error", levelName)
		level = xmodem.LevelError
	}
	profile.Engine.LogLevel = level

	timing := f.Section("timing")
	profile.WaitTimeout = time.Duration(timing.Key("wait_timeout_ms").MustInt(0)) * time.Millisecond
	profile.ReadTimeout = time.Duration(timing.Key("read_timeout_us").MustInt(0)) * time.Microsecond

	serial := f.Section("serial")
	if serial.HasKey("port") {
		profile.Channel = serial.Key("port").String()
		if serial.HasKey("baud") {
			profile.Channel = fmt.Sprintf("%s@%d", profile.Channel, serial.Key("baud").MustInt(115200))
		}
	}
	if f.Section("transport").HasKey("kind") {
		profile.Transport = f.Section("transport").Key("kind").String()
	}
	return profile, nil
}
