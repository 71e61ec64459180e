//go:build !cgo

package tray

import "log/slog"

var defaultAdapter SystrayAdapter = newHeadlessAdapter(slog.Default())
