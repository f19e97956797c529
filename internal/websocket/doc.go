// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package websocket streams discovery session snapshots to UI clients over
gorilla/websocket.

Each connection is bound to one session. On connect the client receives the
current snapshot, then one snapshot per applied state change, in order. The
client may drive the session over the same connection:

	→ {"type": "load_more"}
	← {"type": "snapshot", "data": {"status": "loading_more", ...}}
	← {"type": "snapshot", "data": {"status": "idle", "items": [...], ...}}

Client messages: ping, refresh, load_more, retry. Server messages: snapshot,
pong, error. A slow client misses intermediate snapshots rather than
blocking the session; the next snapshot it receives is always complete.

Each client runs two goroutines:
  - readPump: reads commands, answers pings, enforces the read deadline
  - writePump: the only data-frame writer; snapshots, replies, keepalive pings

The Hub tracks connections. It runs as a suture service and closes every
client with 1001 (going away) on shutdown; CloseSession disconnects the
clients of a discarded session with 1000.
*/
package websocket
