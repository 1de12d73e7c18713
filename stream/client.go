// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/SoftbearStudios/swell/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 5 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 8) / 10

	// Frames queued beyond this close the socket.
	socketBufferSize = 8

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: time.Second,
	ReadBufferSize:   maxMessageSize,
	WriteBufferSize:  1 << 16,
}

// client is a middleman between the websocket connection and the server.
type client struct {
	server *Server
	conn   *websocket.Conn
	send   chan *Frame
	once   sync.Once
}

func newClient(server *Server, conn *websocket.Conn) *client {
	return &client{
		server: server,
		conn:   conn,
		send:   make(chan *Frame, socketBufferSize),
	}
}

func (c *client) init() {
	go c.writePump()
	go c.readPump()
}

func (c *client) destroy() {
	c.once.Do(func() {
		_ = c.conn.Close()
	})
}

// readPump answers requests in order. It owns the send channel.
func (c *client) readPump() {
	defer func() {
		close(c.send)
		c.destroy()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Info("Socket closed", zap.Error(err))
			}
			return
		}

		var req Request
		if err := json.NewDecoder(r).Decode(&req); err != nil {
			logger.Log.Debug("Socket request invalid", zap.Error(err))
			return
		}

		frame := c.server.handle(req)
		select {
		case c.send <- frame:
		default:
			// Not responsive
			frame.Pool()
			logger.Log.Debug("Socket congested", zap.String("remote", c.conn.RemoteAddr().String()))
			return
		}
	}
}

func (c *client) writePump() {
	pingTicker := time.NewTicker(pingPeriod)

	defer func() {
		pingTicker.Stop()
		c.destroy()
		// Release whatever is still queued.
		for frame := range c.send {
			frame.Pool()
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			err := c.write(frame)
			frame.Pool()
			if err != nil {
				logger.Log.Debug("Socket write failed", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(frame *Frame) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
