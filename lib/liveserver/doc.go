// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package liveserver streams messages to Foxglove viewers over the
// foxglove.websocket.v1 protocol.
//
// A [Server] owns a set of advertised channels. Each connecting client
// receives a serverInfo message and the current advertisement, then
// subscribes to the channels it wants to see. [Server.Broadcast] sends
// a binary message-data frame to every client subscribed to the
// channel; it never blocks on a slow client. Each client has a bounded
// send queue and frames that do not fit are dropped and counted.
//
// Only the server side of the subset telecap needs is implemented:
// advertise, unadvertise, subscribe, unsubscribe, status and message
// data. Client publishing, services and parameters are rejected with
// a status message.
package liveserver
