// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/liveserver"
)

// stopTimeout bounds how long Close waits for viewers to disconnect.
const stopTimeout = 5 * time.Second

// NetworkOptions configures OpenNetwork.
type NetworkOptions struct {
	Options

	// Host and Port to listen on. Port 0 picks a free port.
	Host string
	Port int

	// ServerLabel is the name viewers display. Defaults to Name.
	ServerLabel string

	// SendBuffer is the per-viewer frame queue length.
	SendBuffer int
}

// NetworkSink streams telemetry to Foxglove viewers.
type NetworkSink struct {
	*pipeline

	server *liveserver.Server
}

var _ Sink = (*NetworkSink)(nil)

// OpenNetwork starts a live server and the sink's worker. Name is
// required.
func OpenNetwork(options NetworkOptions) (*NetworkSink, error) {
	if options.Name == "" {
		return nil, errors.New("network sink requires a name")
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	options.Options = options.withDefaults()
	label := options.ServerLabel
	if label == "" {
		label = options.Name
	}

	server := liveserver.New(liveserver.Options{
		Name:               label,
		SupportedEncodings: []string{options.Encoding},
		SendBuffer:         options.SendBuffer,
		Logger:             options.Logger.With("server", label),
		Metrics:            options.Metrics,
	})
	if err := server.Start(options.Host, options.Port); err != nil {
		return nil, fmt.Errorf("opening network sink %q: %w", options.Name, err)
	}

	s := &NetworkSink{server: server}
	s.pipeline = newPipeline(options.Options, s)
	s.start()
	s.logger.Info("network sink listening", "address", server.Addr().String())
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *NetworkSink) Addr() net.Addr { return s.server.Addr() }

// Server exposes the live server, for status messages and tests.
func (s *NetworkSink) Server() *liveserver.Server { return s.server }

func (s *NetworkSink) kind() Kind { return KindNetwork }

func (s *NetworkSink) register(channel string, definition catalog.Definition, encoding string) (uint64, error) {
	ids := s.server.AddChannels([]liveserver.ChannelInfo{{
		Topic:          channel,
		Encoding:       encoding,
		SchemaName:     definition.Name,
		Schema:         string(definition.Data),
		SchemaEncoding: definition.Encoding,
	}})
	return uint64(ids[0]), nil
}

func (s *NetworkSink) write(channelID, timestamp uint64, data []byte) error {
	if channelID > math.MaxUint32 {
		return fmt.Errorf("channel id %d out of range", channelID)
	}
	_, err := s.server.Broadcast(uint32(channelID), timestamp, data)
	return err
}

func (s *NetworkSink) release() error {
	ids := make([]uint32, 0)
	for _, id := range s.catalog.ChannelIDs() {
		ids = append(ids, uint32(id))
	}
	s.server.RemoveChannels(ids)

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return s.server.Stop(ctx)
}
