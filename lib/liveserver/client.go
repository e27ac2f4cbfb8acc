// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package liveserver

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxRequestBytes = 1 << 16
	pongWait        = 45 * time.Second
	pingPeriod      = 15 * time.Second
	writeWait       = 10 * time.Second
)

type outbound struct {
	messageType int
	data        []byte
}

// client is one connected viewer.
type client struct {
	server *Server
	conn   *websocket.Conn
	remote string
	send   chan outbound
	done   chan struct{}

	closeOnce sync.Once

	mu            sync.Mutex
	subscriptions map[uint32]uint32 // subscription id -> channel id
	byChannel     map[uint32]uint32 // channel id -> subscription id
}

func newClient(server *Server, conn *websocket.Conn, buffer int) *client {
	return &client{
		server:        server,
		conn:          conn,
		remote:        conn.RemoteAddr().String(),
		send:          make(chan outbound, buffer),
		done:          make(chan struct{}),
		subscriptions: make(map[uint32]uint32),
		byChannel:     make(map[uint32]uint32),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue queues a frame without blocking. Returns false when the
// client is gone or its buffer is full.
func (c *client) enqueue(messageType int, data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- outbound{messageType: messageType, data: data}:
		return true
	default:
		return false
	}
}

func (c *client) enqueueJSON(value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.server.logger.Error("encoding live message", "error", err)
		return false
	}
	return c.enqueue(websocket.TextMessage, data)
}

func (c *client) sendStatus(level int, message string) {
	c.enqueueJSON(status{Op: "status", Level: level, Message: message})
}

func (c *client) subscriptionFor(channelID uint32) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byChannel[channelID]
	return id, ok
}

func (c *client) dropChannels(ids []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, channelID := range ids {
		if subscriptionID, ok := c.byChannel[channelID]; ok {
			delete(c.byChannel, channelID)
			delete(c.subscriptions, subscriptionID)
		}
	}
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(maxRequestBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			c.sendStatus(StatusError, "binary client operations are not supported")
			continue
		}

		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			c.sendStatus(StatusError, fmt.Sprintf("invalid request: %v", err))
			continue
		}
		switch req.Op {
		case "subscribe":
			c.subscribe(req.Subscriptions)
		case "unsubscribe":
			c.unsubscribe(req.IDs)
		default:
			c.sendStatus(StatusError, fmt.Sprintf("unsupported operation %q", req.Op))
		}
	}
}

func (c *client) subscribe(requested []subscription) {
	for _, sub := range requested {
		if !c.server.hasChannel(sub.ChannelID) {
			c.sendStatus(StatusWarning, fmt.Sprintf("channel %d is not advertised", sub.ChannelID))
			continue
		}

		c.mu.Lock()
		if _, taken := c.subscriptions[sub.ID]; taken {
			c.mu.Unlock()
			c.sendStatus(StatusError, fmt.Sprintf("subscription id %d already in use", sub.ID))
			continue
		}
		if previous, ok := c.byChannel[sub.ChannelID]; ok {
			delete(c.subscriptions, previous)
		}
		c.subscriptions[sub.ID] = sub.ChannelID
		c.byChannel[sub.ChannelID] = sub.ID
		c.mu.Unlock()

		c.server.logger.Debug("viewer subscribed",
			"server", c.server.name, "remote", c.remote, "channel", sub.ChannelID)
	}
}

func (c *client) unsubscribe(ids []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if channelID, ok := c.subscriptions[id]; ok {
			delete(c.subscriptions, id)
			delete(c.byChannel, channelID)
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.messageType, message.data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
