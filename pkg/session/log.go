package session

import (
	"fmt"

	xmodem "github.com/dcooperdalrymple/go-xmodem"
	log "github.com/sirupsen/logrus"
)

const defaultDiagCapacity = 256

type diagEntry struct {
	level   xmodem.LogLevel
	message string
}

// diagLog is the bounded diagnostic sink of a session. Entries are
// collected while a transfer runs so that logging never interleaves with
// the timing sensitive protocol dialogue, then replayed through logrus
// when the session ends. When full, the ring overwrites the oldest
// entries.
type diagLog struct {
	entries []diagEntry
	next    int
	count   int
}

func newDiagLog(capacity int) *diagLog {
	return &diagLog{entries: make([]diagEntry, capacity)}
}

func (d *diagLog) append(level xmodem.LogLevel, message string) {
	d.entries[d.next] = diagEntry{level: level, message: message}
	d.next++
	if d.next == len(d.entries) {
		d.next = 0
	}
	if d.count < len(d.entries) {
		d.count++
	}
}

// flush replays the collected entries in order and resets the ring
func (d *diagLog) flush() {
	start := d.next - d.count
	if start < 0 {
		start += len(d.entries)
	}
	for i := 0; i < d.count; i++ {
		entry := d.entries[(start+i)%len(d.entries)]
		switch entry.level {
		case xmodem.LevelFatal, xmodem.LevelError:
			log.Error(entry.message)
		case xmodem.LevelWarning:
			log.Warn(entry.message)
		case xmodem.LevelInfo:
			log.Info(entry.message)
		default:
			log.Debug(entry.message)
		}
	}
	d.next = 0
	d.count = 0
}

// logf appends a formatted entry if it passes the session level
func (s *Session) logf(level xmodem.LogLevel, format string, args ...any) {
	if level > s.config.LogLevel {
		return
	}
	s.diag.append(level, fmt.Sprintf(format, args...))
}
