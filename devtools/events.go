package devtools

import (
	"sync"
	"time"

	"github.com/lumison/lumison/host"
)

// EventRecord is a runtime event as reported by /events.
type EventRecord struct {
	Seq  uint64    `json:"seq"`
	Name string    `json:"name"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// eventLog is a fixed-size ring of the most recent runtime events.
type eventLog struct {
	mu   sync.RWMutex
	buf  []EventRecord
	next int
	full bool
	seq  uint64
}

func newEventLog(size int) *eventLog {
	if size < 1 {
		size = DefaultEventBuffer
	}
	return &eventLog{buf: make([]EventRecord, size)}
}

func (l *eventLog) record(e host.Event) EventRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	rec := EventRecord{Seq: l.seq, Name: e.Name, Data: e.Data, At: at}
	l.buf[l.next] = rec
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	return rec
}

// snapshot returns up to limit events, oldest first. limit <= 0 means all.
func (l *eventLog) snapshot(limit int) []EventRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []EventRecord
	if l.full {
		out = append(out, l.buf[l.next:]...)
	}
	out = append(out, l.buf[:l.next]...)

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
