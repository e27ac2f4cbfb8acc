// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package liveserver

import "encoding/binary"

// Subprotocol is the websocket subprotocol negotiated with viewers.
const Subprotocol = "foxglove.websocket.v1"

// Binary opcodes sent by the server.
const opMessageData byte = 0x01

// Status levels.
const (
	StatusInfo    = 0
	StatusWarning = 1
	StatusError   = 2
)

// ChannelInfo describes a channel to advertise.
type ChannelInfo struct {
	Topic          string
	Encoding       string
	SchemaName     string
	Schema         string
	SchemaEncoding string
}

// Channel is an advertised channel.
type Channel struct {
	ID uint32
	ChannelInfo
}

type advertisedChannel struct {
	ID             uint32 `json:"id"`
	Topic          string `json:"topic"`
	Encoding       string `json:"encoding"`
	SchemaName     string `json:"schemaName"`
	Schema         string `json:"schema"`
	SchemaEncoding string `json:"schemaEncoding,omitempty"`
}

type serverInfo struct {
	Op                 string            `json:"op"`
	Name               string            `json:"name"`
	Capabilities       []string          `json:"capabilities"`
	SupportedEncodings []string          `json:"supportedEncodings"`
	Metadata           map[string]string `json:"metadata"`
	SessionID          string            `json:"sessionId"`
}

type advertise struct {
	Op       string              `json:"op"`
	Channels []advertisedChannel `json:"channels"`
}

type unadvertise struct {
	Op         string   `json:"op"`
	ChannelIDs []uint32 `json:"channelIds"`
}

type status struct {
	Op      string `json:"op"`
	Level   int    `json:"level"`
	Message string `json:"message"`
}

// request is the union of client operations the server understands.
type request struct {
	Op            string         `json:"op"`
	Subscriptions []subscription `json:"subscriptions"`
	IDs           []uint32       `json:"subscriptionIds"`
}

type subscription struct {
	ID        uint32 `json:"id"`
	ChannelID uint32 `json:"channelId"`
}

func (c Channel) advertised() advertisedChannel {
	return advertisedChannel{
		ID:             c.ID,
		Topic:          c.Topic,
		Encoding:       c.Encoding,
		SchemaName:     c.SchemaName,
		Schema:         c.Schema,
		SchemaEncoding: c.SchemaEncoding,
	}
}

// messageFrame encodes a message-data frame: opcode, subscription id
// (uint32 LE), timestamp in ns (uint64 LE), payload.
func messageFrame(subscriptionID uint32, timestamp uint64, payload []byte) []byte {
	frame := make([]byte, 1+4+8+len(payload))
	frame[0] = opMessageData
	binary.LittleEndian.PutUint32(frame[1:5], subscriptionID)
	binary.LittleEndian.PutUint64(frame[5:13], timestamp)
	copy(frame[13:], payload)
	return frame
}

// ParseMessageFrame decodes a message-data frame. Viewers and tests
// use it to unwrap what Broadcast sent.
func ParseMessageFrame(frame []byte) (subscriptionID uint32, timestamp uint64, payload []byte, ok bool) {
	if len(frame) < 13 || frame[0] != opMessageData {
		return 0, 0, nil, false
	}
	return binary.LittleEndian.Uint32(frame[1:5]), binary.LittleEndian.Uint64(frame[5:13]), frame[13:], true
}
