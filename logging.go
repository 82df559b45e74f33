// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package-level logging configuration.
//
// Design decision: a package-level, swappable logger (rather than a field
// threaded through every constructor) keeps the public API free of a
// cross-cutting concern every caller would otherwise have to plumb through.
// The default is a no-op logger so the library is silent until a caller
// opts in.
package gobench

import (
	"log/slog"
	"sync"

	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"
)

var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[*logifaceslog.Event]
}

// SetLogger installs the package-wide logger used for diagnostic events
// (timer selection, cycle growth, discarded samples, abort/error surfacing). Passing
// nil restores the no-op default.
func SetLogger(logger *logiface.Logger[*logifaceslog.Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

// NewSlogLogger builds a [logiface.Logger] backed by a [log/slog.Handler],
// suitable for passing to [SetLogger].
func NewSlogLogger(handler slog.Handler) *logiface.Logger[*logifaceslog.Event] {
	return logiface.New[*logifaceslog.Event](logifaceslog.NewLogger(handler))
}

// log returns the installed logger, or a disabled no-op [logiface.Logger] if
// none was set.
func log() *logiface.Logger[*logifaceslog.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return logiface.New[*logifaceslog.Event]()
}
