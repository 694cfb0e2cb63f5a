// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMsgSize bounds a single client message; file selections carry
	// the documents inline.
	maxMsgSize = 64 << 20
)

// Client is the WebSocket connection of one editing session.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	session *Session
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan []byte, 64)}
}

// ReadPump decodes messages from the WebSocket and hands them to the
// session. When the connection ends the session is stopped.
func (c *Client) ReadPump() {
	defer func() {
		c.session.Stop()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("session %s read error: %v", c.session.ID, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.deliver(ServerMessage{Type: MsgError, Kind: KindInvalid, Message: "invalid message format"})
			continue
		}
		if !c.session.Deliver(msg) {
			return
		}
	}
}

// WritePump writes queued messages to the WebSocket and keeps it alive
// until the session stops.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.session.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMsg queues a message the next event supersedes, such as a state or
// preview. It is dropped when the client is too slow.
func (c *Client) sendMsg(msg ServerMessage) {
	select {
	case c.send <- msg.Encode():
	default:
	}
}

// deliver queues a message that nothing later replaces, such as a result
// or an error. It waits for room until the session stops.
func (c *Client) deliver(msg ServerMessage) {
	select {
	case c.send <- msg.Encode():
	case <-c.session.Done():
	}
}
