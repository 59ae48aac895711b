package main

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 64
	// a ClientMessage carries at most a deck and a handful of names
	readLimit = 1 << 16
)

// Client is one websocket connection: the master screen or a seat. Only
// the room loop touches name; the pumps talk to the room through enqueue.
type Client struct {
	master bool
	room   *Room
	conn   *websocket.Conn
	send   chan ServerEvent
	done   chan struct{}
	closed atomic.Bool

	// set by the room loop once a seat is claimed
	name string
}

func NewClient(room *Room, conn *websocket.Conn, master bool) *Client {
	return &Client{
		master: master,
		room:   room,
		conn:   conn,
		send:   make(chan ServerEvent, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// readLoop decodes ClientMessages and hands them to the room loop. A frame
// that is not JSON is answered with a log event and otherwise ignored.
func (c *Client) readLoop() {
	defer c.close()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("room", c.room.code).Msg("read message")
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.pushSystem("Malformed message.")
			continue
		}
		c.room.enqueue(func(r *Room) {
			r.handleMessage(c, msg)
		})
	}
}

// writeLoop forwards ServerEvents until the client is closed, then sends
// a close frame so the browser can rejoin with its session id.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Str("room", c.room.code).Msg("write json")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// push queues ev for the socket. It runs on the room loop and never blocks
// it: a full queue loses its oldest event, and a pending prompt survives
// that through sync on reconnect.
func (c *Client) push(ev ServerEvent) {
	if c.closed.Load() {
		return
	}
	select {
	case c.send <- ev:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- ev:
		default:
		}
	}
}

func (c *Client) pushSystem(body string) {
	c.push(ServerEvent{Type: EventTypeLog, Body: body, Room: c.room.code})
}

// close is idempotent. send stays open so a late push from the room loop
// cannot panic; the seat is released through detach.
func (c *Client) close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.done)
	c.room.enqueue(func(r *Room) {
		r.detach(c)
	})
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
