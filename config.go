package xmodem

// Transfer mode shortcut used with [Config.SetMode]
type Mode uint8

const (
	ModeOriginal Mode = iota // 8 bit additive checksum, no escaping
	ModeCRC                  // CRC-16/XMODEM trailer, required
)

// Log levels of the session diagnostic sink
type LogLevel uint8

const (
	LevelFatal LogLevel = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

var logLevelNames = map[LogLevel]string{
	LevelFatal:   "Fatal",
	LevelError:   "Error",
	LevelWarning: "Warning",
	LevelInfo:    "Info",
	LevelDebug:   "Debug",
}

func (level LogLevel) String() string {
	name, ok := logLevelNames[level]
	if ok {
		return name
	}
	return "Unknown"
}

// Config holds the per session protocol options
type Config struct {
	LogLevel   LogLevel // Diagnostic sink threshold, entries above it are discarded
	UseCRC     bool     // Trailer is CRC-16/XMODEM instead of the additive sum
	RequireCRC bool     // Sender refuses to fall back to additive checksum
	UseEscape  bool     // Receiver decodes DLE escape pairs in the payload
}

// SetMode applies one of the predefined option sets
func (config *Config) SetMode(mode Mode) {
	switch mode {
	case ModeCRC:
		config.UseCRC = true
		config.RequireCRC = true
		config.UseEscape = false
	default:
		config.UseCRC = false
		config.RequireCRC = false
		config.UseEscape = false
	}
}

// NewConfig returns the configuration for a predefined mode
func NewConfig(mode Mode) Config {
	config := Config{}
	config.SetMode(mode)
	return config
}
