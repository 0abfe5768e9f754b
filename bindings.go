package sqlite

import (
	"fmt"
	"strings"
	"sync"
)

// LogLevel classifies a library-resolution event.
type LogLevel int32

const (
	LogLevelError LogLevel = 1
	LogLevelWarn  LogLevel = 2
	LogLevelInfo  LogLevel = 3
	LogLevelDebug LogLevel = 4
)

// Logger is an optional callback to receive log events from the wrapper.
// All strings are safe to retain beyond the callback return.
type Logger func(level LogLevel, message string)

// LibraryConfig controls how the shared sqlite3 library is located.
type LibraryConfig struct {
	// Path names the exact shared library to load. When empty, the
	// GOSQLITE_LIBRARY environment variable and then the platform's usual
	// sonames are tried in order.
	Path string
	// Logger receives resolution events (candidates tried, resolved path,
	// engine version). Nil means silent.
	Logger Logger
}

var (
	libOnce   sync.Once
	libHandle uintptr
	libErr    error
)

// InitLibrary loads the sqlite3 shared library and registers its symbols.
// It runs at most once per process; the first call decides the configuration
// and every later call (including the implicit one inside Open) returns the
// recorded outcome.
func InitLibrary(config LibraryConfig) error {
	libOnce.Do(func() {
		libHandle, libErr = loadLibrary(config)
	})
	return libErr
}

// ensureLibrary is the lazy entry used by Open and the database/sql driver.
func ensureLibrary() error {
	return InitLibrary(LibraryConfig{})
}

func loadLibrary(config LibraryConfig) (uintptr, error) {
	logf := config.Logger
	if logf == nil {
		logf = func(LogLevel, string) {}
	}

	candidates := libraryCandidates(config.Path)
	var lastErr error
	for _, name := range candidates {
		logf(LogLevelDebug, fmt.Sprintf("sqlite: trying library %q", name))
		handle, err := dlopenLibrary(name)
		if err != nil {
			lastErr = err
			logf(LogLevelWarn, fmt.Sprintf("sqlite: cannot load %q: %v", name, err))
			continue
		}
		if err := register_sqlite3(handle); err != nil {
			return 0, err
		}
		if rc := c_sqlite3_initialize(); rc != SQLITE_OK {
			return 0, &Error{Code: rc, Message: c_sqlite3_errstr(int32(rc))}
		}
		logf(LogLevelInfo, fmt.Sprintf("sqlite: loaded %q (sqlite %s)", name, c_sqlite3_libversion()))
		return handle, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate library names for this platform")
	}
	return 0, fmt.Errorf("sqlite: unable to load sqlite3 library (tried %s): %w",
		strings.Join(candidates, ", "), lastErr)
}

// Version reports the run-time engine version string, e.g. "3.45.1".
func Version() (string, error) {
	if err := ensureLibrary(); err != nil {
		return "", err
	}
	return c_sqlite3_libversion(), nil
}

// VersionNumber reports the run-time engine version as a number, e.g. 3045001.
func VersionNumber() (int, error) {
	if err := ensureLibrary(); err != nil {
		return 0, err
	}
	return int(c_sqlite3_libversion_number()), nil
}
