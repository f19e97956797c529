// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package services adapts the server's components to suture.Service.
//
//   - HTTPServerService: ListenAndServe/Shutdown to Serve(ctx)
//   - JanitorService: a periodic sweep (cache expiry, idle sessions)
//
// The WebSocket hub implements suture.Service itself and needs no wrapper.
package services
