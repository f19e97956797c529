// Venuescout - Preference-Driven Venue Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venuescout

// Package logging provides the zerolog setup shared by every Venuescout
// component.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logger := logging.WithComponent("feed")
//	logger.Info().Str("session_id", id).Msg("session opened")
//
//	// request-scoped fields travel in the context
//	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
//	logging.Ctx(ctx).Warn().Err(err).Msg("venue source unavailable")
//
// Components receive a zerolog.Logger by value and derive their own child
// logger with a "component" field. Libraries that want a *slog.Logger (the
// suture supervisor through sutureslog) get one from NewSlogLogger, which
// writes through the same zerolog output.
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
