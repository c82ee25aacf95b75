// Package progress streams export progress to websocket clients.
package progress

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voxelexport.ai/internal/export"
)

// Event is one message on the feed.
type Event struct {
	Type    string `json:"type"` // CHUNK or DONE
	CX      int    `json:"cx"`
	CZ      int    `json:"cz"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Blocks  int    `json:"blocks"`
	Matched int    `json:"matched"`
	Error   string `json:"error,omitempty"`
}

func ChunkEvent(p export.ChunkProgress) Event {
	return Event{
		Type:    "CHUNK",
		CX:      p.Key.CX,
		CZ:      p.Key.CZ,
		Done:    p.Done,
		Total:   p.Total,
		Blocks:  p.Blocks,
		Matched: p.Matched,
	}
}

// Hub fans events out to every connected client. Slow clients lose events
// rather than stalling the export.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]chan []byte
	nextID uint64
	closed bool
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see Handler
		},
		subs: map[uint64]chan []byte{},
	}
}

func (h *Hub) Publish(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- b:
		default:
			h.log.Debug().Uint64("sub", id).Str("type", ev.Type).Msg("progress event dropped")
		}
	}
}

// OnChunk adapts the hub to export.Options.OnChunk.
func (h *Hub) OnChunk(p export.ChunkProgress) {
	h.Publish(ChunkEvent(p))
}

// Finish publishes the DONE event for a run that processed total chunks,
// including runs with no chunks and runs that stopped early with runErr.
func (h *Hub) Finish(sum export.Summary, total int, runErr error) {
	ev := Event{
		Type:    "DONE",
		Done:    sum.Chunks,
		Total:   total,
		Blocks:  sum.Blocks,
		Matched: sum.Matched,
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	h.Publish(ev)
}

// Close ends every subscription; clients receive a normal close frame.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (uint64, chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	h.nextID++
	ch := make(chan []byte, 256)
	h.subs[h.nextID] = ch
	return h.nextID, ch, true
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out, ok := h.subscribe()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "export finished"), time.Now().Add(time.Second))
			return
		}
		defer h.unsubscribe(id)

		// Reader: the feed is one-way, reads only detect the client leaving.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case b, ok := <-out:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
