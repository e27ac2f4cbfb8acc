// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package liveserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/telecap/lib/metrics"
)

// DefaultSendBuffer is the per-client frame queue length.
const DefaultSendBuffer = 256

// Options configures a Server.
type Options struct {
	// Name is the server label shown by viewers.
	Name string

	// SupportedEncodings lists the message encodings the server may
	// advertise. Defaults to json and cbor.
	SupportedEncodings []string

	// SendBuffer is the per-client queue length. Zero means
	// DefaultSendBuffer.
	SendBuffer int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Server is a foxglove websocket server.
type Server struct {
	name       string
	sessionID  string
	encodings  []string
	sendBuffer int
	logger     *slog.Logger
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader

	mu            sync.RWMutex
	channels      map[uint32]Channel
	nextChannelID uint32
	clients       map[*client]struct{}
	httpServer    *http.Server
	listener      net.Listener
	stopped       bool
	connections   sync.WaitGroup
}

// New returns a server that is not yet listening. Use Start, or mount
// Handler on an existing HTTP server.
func New(options Options) *Server {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	encodings := options.SupportedEncodings
	if len(encodings) == 0 {
		encodings = []string{"json", "cbor"}
	}
	sendBuffer := options.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Server{
		name:       options.Name,
		sessionID:  uuid.NewString(),
		encodings:  encodings,
		sendBuffer: sendBuffer,
		logger:     logger,
		metrics:    options.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			Subprotocols:    []string{Subprotocol},
			// Viewers are served from arbitrary origins (the hosted
			// Foxglove app, a local build, Lichtblick).
			CheckOrigin: func(*http.Request) bool { return true },
		},
		channels:      make(map[uint32]Channel),
		nextChannelID: 1,
		clients:       make(map[*client]struct{}),
	}
}

// Name returns the server label.
func (s *Server) Name() string { return s.name }

// SessionID identifies this server instance to viewers.
func (s *Server) SessionID() string { return s.sessionID }

// Start listens on host:port and serves in the background. Port 0
// picks a free port; see Addr.
func (s *Server) Start(host string, port int) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("listening on %s:%d: %w", host, port, err)
	}

	s.mu.Lock()
	if s.httpServer != nil || s.stopped {
		s.mu.Unlock()
		listener.Close()
		return errors.New("live server already started")
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	httpServer := s.httpServer
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("live server stopped", "server", s.name, "error", err)
		}
	}()
	s.logger.Info("live server listening", "server", s.name, "address", listener.Addr().String())
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every client connection, then waits for
// the connection goroutines to exit or ctx to end.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	httpServer := s.httpServer
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var shutdownErr error
	if httpServer != nil {
		shutdownErr = httpServer.Shutdown(ctx)
	}
	for _, c := range clients {
		c.close()
	}

	waited := make(chan struct{})
	go func() {
		s.connections.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		return ctx.Err()
	}
	return shutdownErr
}

// Handler returns the websocket endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWebsocket)
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", "server", s.name, "error", err)
		return
	}
	if conn.Subprotocol() != Subprotocol {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "expected subprotocol "+Subprotocol),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	c := newClient(s, conn, s.sendBuffer)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.connections.Add(2)
	c.enqueueJSON(serverInfo{
		Op:                 "serverInfo",
		Name:               s.name,
		Capabilities:       []string{},
		SupportedEncodings: s.encodings,
		Metadata:           map[string]string{},
		SessionID:          s.sessionID,
	})
	if len(s.channels) > 0 {
		c.enqueueJSON(advertise{Op: "advertise", Channels: s.advertisedLocked(nil)})
	}
	s.mu.Unlock()

	s.metrics.ClientConnected(s.name)
	s.logger.Info("viewer connected", "server", s.name, "remote", c.remote)

	go func() {
		defer s.connections.Done()
		c.writeLoop()
	}()
	go func() {
		defer s.connections.Done()
		c.readLoop()
		s.removeClient(c)
	}()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	_, present := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()

	c.close()
	if present {
		s.metrics.ClientDisconnected(s.name)
		s.logger.Info("viewer disconnected", "server", s.name, "remote", c.remote)
	}
}

// advertisedLocked returns the wire form of ids, or of every channel
// when ids is nil, sorted by id. Caller holds s.mu.
func (s *Server) advertisedLocked(ids []uint32) []advertisedChannel {
	var result []advertisedChannel
	if ids == nil {
		for _, channel := range s.channels {
			result = append(result, channel.advertised())
		}
	} else {
		for _, id := range ids {
			if channel, ok := s.channels[id]; ok {
				result = append(result, channel.advertised())
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// AddChannels advertises new channels to every client and returns
// their ids in order.
func (s *Server) AddChannels(infos []ChannelInfo) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint32, 0, len(infos))
	for _, info := range infos {
		id := s.nextChannelID
		s.nextChannelID++
		s.channels[id] = Channel{ID: id, ChannelInfo: info}
		ids = append(ids, id)
	}
	message := advertise{Op: "advertise", Channels: s.advertisedLocked(ids)}
	for c := range s.clients {
		c.enqueueJSON(message)
	}
	return ids
}

// RemoveChannels withdraws channels and drops their subscriptions.
// Unknown ids are ignored.
func (s *Server) RemoveChannels(ids []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.channels[id]; ok {
			delete(s.channels, id)
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return
	}
	message := unadvertise{Op: "unadvertise", ChannelIDs: removed}
	for c := range s.clients {
		c.dropChannels(removed)
		c.enqueueJSON(message)
	}
}

// Channels returns the advertised channels sorted by id.
func (s *Server) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channels := make([]Channel, 0, len(s.channels))
	for _, channel := range s.channels {
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
	return channels
}

func (s *Server) hasChannel(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.channels[id]
	return ok
}

// ClientCount returns the number of connected viewers.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends payload on channelID to every subscribed client and
// returns how many clients it was queued for. An unknown channel is an
// error; having no subscribers is not.
func (s *Server) Broadcast(channelID uint32, timestamp uint64, payload []byte) (int, error) {
	s.mu.RLock()
	if _, ok := s.channels[channelID]; !ok {
		s.mu.RUnlock()
		return 0, fmt.Errorf("channel %d is not advertised", channelID)
	}
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		subscriptionID, ok := c.subscriptionFor(channelID)
		if !ok {
			continue
		}
		if c.enqueue(websocket.BinaryMessage, messageFrame(subscriptionID, timestamp, payload)) {
			delivered++
			s.metrics.FrameSent(s.name)
		} else {
			s.metrics.FrameDropped(s.name)
		}
	}
	return delivered, nil
}

// Status sends a status message to every client.
func (s *Server) Status(level int, message string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.sendStatus(level, message)
	}
}
