// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

/*
Package supervisor runs the server's long-lived goroutines under a suture
supervisor tree.

	venuescout (root)
	├── maintenance-layer   cache janitor, session janitor
	├── messaging-layer     WebSocket hub
	└── api-layer           HTTP server

Each layer is its own supervisor, so a service that keeps failing backs off
without restarting its siblings. Supervisor events are logged through
sutureslog on top of the zerolog logger (see logging.NewSlogLogger).

Shutdown cancels the root context. The HTTP server drains within
ShutdownTimeout; the hub closes every connection with 1001 Going Away.
*/
package supervisor
