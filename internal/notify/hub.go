// Package notify fans out turn results to live WebSocket subscribers. The
// registry is mutated from handler goroutines, so every access is guarded by
// the hub mutex; subscribers are dropped on the first failed write so
// abnormal client drops cannot leak entries.
package notify

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is the JSON frame sent to subscribers
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// subscriber pairs a connection with its write mutex; the websocket package
// allows only one concurrent writer per connection.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub maps session IDs to their live subscribers
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe upgrades the request and registers the connection under the
// session. The call blocks until the client disconnects; inbound frames are
// read and discarded to service control messages.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("notify: failed to upgrade connection", "session", sessionID, "error", err)
		return
	}

	sub := &subscriber{conn: conn}
	h.add(sessionID, sub)
	log.Debug("notify: subscriber connected", "session", sessionID)

	defer func() {
		h.remove(sessionID, sub)
		conn.Close()
		log.Debug("notify: subscriber disconnected", "session", sessionID)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Echo upgrades the request and echoes frames back. Used by the vnc-ws
// endpoint, which carries no data beyond what the client sends.
func (h *Hub) Echo(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("notify: failed to upgrade echo connection", "session", sessionID, "error", err)
		return
	}
	defer conn.Close()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(messageType, message); err != nil {
			return
		}
	}
}

// Broadcast sends the envelope to every subscriber of the session. Writes to
// one connection are serialized through its mutex; failed writes drop the
// subscriber.
func (h *Hub) Broadcast(sessionID string, env Envelope) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers[sessionID]))
	for sub := range h.subscribers[sessionID] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.writeJSON(env); err != nil {
			log.Debug("notify: dropping subscriber after failed write", "session", sessionID, "error", err)
			h.remove(sessionID, sub)
			sub.conn.Close()
		}
	}
}

// SubscriberCount returns the number of live subscribers for a session
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[sessionID])
}

func (h *Hub) add(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*subscriber]struct{})
	}
	h.subscribers[sessionID][sub] = struct{}{}
}

func (h *Hub) remove(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[sessionID], sub)
	if len(h.subscribers[sessionID]) == 0 {
		delete(h.subscribers, sessionID)
	}
}
