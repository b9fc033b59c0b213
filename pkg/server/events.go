package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/flowboard/pkg/board"
)

const (
	// sendBuffer is the number of events queued per client. A client that
	// falls further behind misses events.
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Event is one websocket message.
type Event struct {
	Type string `json:"type"`
}

// categories are the single-bit changes, in the order they are announced.
var categories = []board.Change{
	board.ChangeInstances,
	board.ChangeLinks,
	board.ChangeView,
	board.ChangeTemplates,
	board.ChangeStreams,
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.send) })
}

type hub struct {
	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	logger  *log.Logger
}

func newHub(logger *log.Logger) *hub {
	return &hub{clients: make(map[string]*client), logger: logger}
}

// broadcast queues one event per category in c for every client.
func (h *hub) broadcast(c board.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cat := range categories {
		if !c.Has(cat) {
			continue
		}
		ev := Event{Type: cat.String()}
		for _, cl := range h.clients {
			select {
			case cl.send <- ev:
			default:
				h.logger.Debug("dropping event for slow client", "client", cl.id, "type", ev.Type)
			}
		}
	}
}

func (h *hub) add(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl.id] = cl
	return true
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	cl, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		cl.stop()
	}
}

// close disconnects every client and refuses new ones.
func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()
	for _, cl := range clients {
		cl.stop()
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// serve upgrades the request and streams events until the client goes away.
func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan Event, sendBuffer)}
	if !h.add(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.logger.Debug("event client connected", "client", cl.id)

	go h.writePump(cl)
	h.readPump(cl)
}

// readPump discards client messages; it returns when the connection closes.
func (h *hub) readPump(cl *client) {
	defer h.remove(cl.id)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("event client error", "client", cl.id, "err", err)
			}
			return
		}
	}
}

func (h *hub) writePump(cl *client) {
	defer cl.conn.Close()
	for ev := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(ev); err != nil {
			h.logger.Debug("event write failed", "client", cl.id, "err", err)
			h.remove(cl.id)
			return
		}
	}
	_ = cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	h.logger.Debug("event client disconnected", "client", cl.id)
}
