package stitcher

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler discarding every record.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the stitching pipeline.
// By default nothing is logged. Pass nil to silence the logging again.
//
// Log levels used:
//   - [slog.LevelDebug]: keypoint counts, timings, the estimated homography
//   - [slog.LevelInfo]: stage transitions and the panorama size
//   - [slog.LevelWarn]: failed runs
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently in use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
