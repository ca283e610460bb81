package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/tutor"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	// sendBuffer frames may queue per client before new ones are dropped.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// feedbackMessage is what clients receive for every evaluated frame.
type feedbackMessage struct {
	Type string `json:"type"`
	tutor.Result
	Band string `json:"band"`
}

type feedbackClient struct {
	conn *websocket.Conn
	send chan []byte
}

// FeedbackHub pushes tutor results to WebSocket clients. Slow clients lose
// frames rather than holding up the pipeline.
type FeedbackHub struct {
	clients map[*feedbackClient]bool
	mu      sync.RWMutex
}

// NewFeedbackHub creates an empty hub.
func NewFeedbackHub() *FeedbackHub {
	return &FeedbackHub{
		clients: make(map[*feedbackClient]bool),
	}
}

// Clients returns the number of connected clients.
func (h *FeedbackHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues res for every connected client. It never blocks.
func (h *FeedbackHub) Publish(res tutor.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(feedbackMessage{Type: "result", Result: res, Band: res.Band()})
	if err != nil {
		log.WithError(err).Error("failed to encode feedback")
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.WithField("frame", res.FrameID).Debug("feedback client too slow, dropping frame")
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests on /api/feedback.
func (h *FeedbackHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &feedbackClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	log.WithField("remote", r.RemoteAddr).Debug("feedback client connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop keeps the connection alive and detects when the client leaves.
func (h *FeedbackHub) readLoop(c *feedbackClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on c.conn.
func (h *FeedbackHub) writeLoop(c *feedbackClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *FeedbackHub) remove(c *feedbackClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *FeedbackHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
