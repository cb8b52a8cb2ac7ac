package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aescanero/pluginbus/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const defaultBufferSize = 64

// Hub fans trigger records out to connected WebSocket clients
type Hub struct {
	logger     *zap.Logger
	bufferSize int

	mu      sync.RWMutex
	clients map[*client]struct{}

	degraded atomic.Uint64
}

type client struct {
	send   chan frame
	events map[string]bool
}

// frame is one encoded record queued for a client
type frame struct {
	event string
	seq   uint64
	data  []byte
}

func (c *client) wants(event string) bool {
	return len(c.events) == 0 || c.events[event]
}

// NewHub creates a new trace hub. Each client buffers up to bufferSize
// records; records for a client with a full buffer are dropped.
func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		logger:     logger,
		bufferSize: bufferSize,
		clients:    make(map[*client]struct{}),
	}
}

// Append implements ports.RecordSink. It never blocks on slow clients.
// Arguments without a JSON encoding are sent as their %v rendering.
func (h *Hub) Append(ctx context.Context, rec ports.Record) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return nil
	}

	data, degraded, err := ports.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if degraded {
		h.degraded.Add(1)
		h.logger.Warn("record arguments not JSON encodable, sending printable form",
			zap.String("event", rec.Event),
			zap.Uint64("seq", rec.Seq))
	}
	f := frame{event: rec.Event, seq: rec.Seq, data: data}

	for c := range h.clients {
		if !c.wants(rec.Event) {
			continue
		}
		select {
		case c.send <- f:
		default:
			h.logger.Warn("trace client buffer full, dropping record",
				zap.String("event", rec.Event),
				zap.Uint64("seq", rec.Seq))
		}
	}
	return nil
}

// Degraded returns how many records were sent with printable arguments
func (h *Hub) Degraded() uint64 {
	return h.degraded.Load()
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// HandleStream upgrades the request and streams records until the client
// goes away
func (h *Hub) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	cl := &client{
		send:   make(chan frame, h.bufferSize),
		events: parseEvents(c.Query("events")),
	}
	h.register(cl)
	defer h.unregister(cl)

	h.logger.Info("trace client connected",
		zap.String("client", c.ClientIP()),
		zap.Int("filters", len(cl.events)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reads only detect the close; clients are not expected to send.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("trace client disconnected", zap.String("client", c.ClientIP()))
			return
		case f := <-cl.send:
			if err := conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
				h.logger.Error("failed to write record",
					zap.String("event", f.event),
					zap.Uint64("seq", f.seq),
					zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
}

// parseEvents turns "a, b" into a lookup set
func parseEvents(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	events := make(map[string]bool)
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			events[e] = true
		}
	}
	return events
}
