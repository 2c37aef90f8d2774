package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
	readLimit      = 4096
)

// Commands a client may send.
const (
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
)

// command is an inbound client frame, e.g. {"type":"subscribe","listId":"..."}.
type command struct {
	Type   string `json:"type"`
	ListID string `json:"listId"`
}

// Client is one WebSocket connection. A client scoped to a list only
// receives that list's changes plus messages that concern no list.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	mu     sync.RWMutex
	listID string
}

// NewClient creates a Client tied to hub and conn, scoped to listID when
// it is not empty.
func NewClient(hub *Hub, conn *ws.Conn, listID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		listID: listID,
	}
}

// ListID returns the list the client follows, or "" for all lists.
func (c *Client) ListID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listID
}

func (c *Client) follow(listID string) {
	c.mu.Lock()
	c.listID = listID
	c.mu.Unlock()
}

// wants reports whether msg should be delivered to the client.
func (c *Client) wants(msg Message) bool {
	scope := c.ListID()
	return scope == "" || msg.ListID == "" || msg.ListID == scope
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.conn.SetReadLimit(readLimit)
	go c.writePump(ctx)
	c.readPump(ctx)
	c.conn.Close(ws.StatusNormalClosure, "")
}

// readPump applies subscribe commands until the connection fails.
// Anything that is not a known command is ignored.
func (c *Client) readPump(ctx context.Context) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageText {
			continue
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return
	}
	switch cmd.Type {
	case CommandSubscribe:
		c.follow(cmd.ListID)
	case CommandUnsubscribe:
		c.follow("")
	}
}

// writePump drains the send channel and pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// unregistered
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
