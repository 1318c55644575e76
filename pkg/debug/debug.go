// Package debug provides conditional debug logging for treeview.
//
// Logging is switched on by TREEVIEW_DEBUG (any non-empty value) or the
// --debug flag of tv:
//
//	TREEVIEW_DEBUG=1 tv --data tree.json
//
// Messages go to stderr until SetFile redirects them; the TUI does that
// because stderr belongs to the terminal while it runs. Every function is
// a no-op while logging is off.
//
//	debug.Log("search %q matched %d nodes", query, n)
//	defer debug.LogEnterExit("SetData")()
package debug

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const prefix = "[TREEVIEW_DEBUG] "

var (
	enabled atomic.Bool

	mu     sync.Mutex
	logger *log.Logger
)

func init() {
	if os.Getenv("TREEVIEW_DEBUG") != "" {
		SetEnabled(true)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns debug logging on or off. Turning it on without an
// output configured logs to stderr.
func SetEnabled(e bool) {
	mu.Lock()
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
	mu.Unlock()
	enabled.Store(e)
}

// SetOutput replaces the debug logger. A nil logger restores stderr.
func SetOutput(l *log.Logger) {
	if l == nil {
		l = newLogger(os.Stderr)
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetFile appends debug output to path, creating its directory. The
// returned func closes the file and restores stderr.
func SetFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	SetOutput(newLogger(f))
	return func() {
		SetOutput(nil)
		f.Close()
	}, nil
}

func printf(format string, args ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Log writes a message when debug logging is on.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	printf(format, args...)
}

// LogIf writes a message only when cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond || !Enabled() {
		return
	}
	printf(format, args...)
}

// LogTiming writes "name took d".
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	printf("%s took %v", name, d)
}

// LogEnterExit logs entry now and exit, with the elapsed time, when the
// returned func runs.
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	printf("-> %s", name)
	start := time.Now()
	return func() {
		printf("<- %s (%v)", name, time.Since(start))
	}
}
