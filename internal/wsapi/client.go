package wsapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"arbitrage/pkg/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
	sendBufferSize = 256
)

// originChecker allows the dashboard origins configured for the scanner
// plus a small built-in localhost set, mirroring internal/httpapi's CORS
// allow-list so both surfaces agree on who the dashboard is.
type originChecker struct {
	allowed map[string]bool
}

func newOriginChecker(extra []string) *originChecker {
	oc := &originChecker{allowed: map[string]bool{
		"http://localhost:3000": true,
		"http://127.0.0.1:3000": true,
		"http://localhost:5173": true,
		"http://127.0.0.1:5173": true,
	}}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			oc.allowed[origin] = true
		}
	}
	return oc
}

func (oc *originChecker) check(origin string) bool {
	if origin == "" {
		return true // non-browser clients
	}
	return oc.allowed[origin]
}

// Client is one dashboard operator's WebSocket connection.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *utils.Logger
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// The dashboard never sends data over this connection; read only
		// to drive the pong deadline and detect disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// ServeWS upgrades an HTTP request to a WebSocket connection, registers it
// with hub, and starts its read/write pumps. Mount with:
//
//	router.HandleFunc("/ws/stream", func(w, r) { wsapi.ServeWS(hub, allowedOrigins, logger, w, r) })
func ServeWS(hub *Hub, allowedOrigins []string, logger *utils.Logger, w http.ResponseWriter, r *http.Request) {
	checker := newOriginChecker(allowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			return checker.check(r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if logger != nil {
			logger.Warn("wsapi: upgrade failed", utils.Err(err))
		}
		return
	}

	client := &Client{conn: conn, hub: hub, send: make(chan []byte, sendBufferSize), logger: logger}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
