package logging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var installed atomic.Bool

// InstallDefault routes the slog default logger through lg, so library code
// that logs with slog lands in the session log.
func InstallDefault(lg *log.Logger) {
	slog.SetDefault(slog.New(lg))
	installed.Store(true)
}

// Installed reports whether InstallDefault has run.
func Installed() bool {
	return installed.Load()
}

// RecoverPanic logs a panic in the named goroutine and runs cleanup. Use it
// deferred.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Installed() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
