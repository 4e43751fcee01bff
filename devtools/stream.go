package devtools

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumison/lumison/logger"
)

const (
	streamBuffer    = 64
	streamKeepAlive = 30 * time.Second
)

// subscriber is one /events/stream client.
type subscriber struct {
	id     string
	events chan EventRecord
}

// broadcaster fans recorded events out to stream clients. A client whose
// buffer is full loses the event; the event loop never blocks on it.
type broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*subscriber
	closed  bool
	log     *logger.Logger
}

func newBroadcaster(log *logger.Logger) *broadcaster {
	return &broadcaster{clients: make(map[string]*subscriber), log: log}
}

// subscribe returns nil once the broadcaster is closed.
func (b *broadcaster) subscribe(id string) *subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	s := &subscriber{id: id, events: make(chan EventRecord, streamBuffer)}
	b.clients[id] = s
	return s
}

func (b *broadcaster) unsubscribe(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[s.id]; ok {
		delete(b.clients, s.id)
		close(s.events)
	}
}

func (b *broadcaster) publish(rec EventRecord) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.clients {
		select {
		case s.events <- rec:
		default:
			b.log.Warn("Stream client too slow, dropping event", logger.Fields(
				"client_id", s.id,
				"event", rec.Name,
			))
		}
	}
}

// close disconnects every client and rejects new ones.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, s := range b.clients {
		delete(b.clients, id)
		close(s.events)
	}
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// streamEvents serves runtime events as Server-Sent Events until the
// client goes away or the server stops.
func (s *Server) streamEvents(c *gin.Context) {
	w := c.Writer
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.log.Debug("Could not disable write deadline for stream", logger.Fields(logger.FieldError, err.Error()))
	}

	id := uuid.NewString()
	sub := s.stream.subscribe(id)
	if sub == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	defer s.stream.unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(map[string]string{
		"client_id":  id,
		"session_id": s.opts.Runtime.SessionID(),
	})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", hello)
	w.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-sub.events:
			if !ok {
				return
			}
			data, err := json.Marshal(rec)
			if err != nil {
				s.log.Warn("Unencodable runtime event", logger.Fields("event", rec.Name, logger.FieldError, err.Error()))
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: runtime\ndata: %s\n\n", rec.Seq, data)
			w.Flush()
		case <-keepAlive.C:
			fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			w.Flush()
		}
	}
}
