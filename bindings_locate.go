// Locating the sqlite3 shared library.
//
// Unlike engines distributed as prebuilt artifacts, sqlite3 ships with every
// mainstream operating system, so the loader searches the system's usual
// sonames instead of extracting an embedded copy. An explicit path (config or
// GOSQLITE_LIBRARY) always wins, for custom builds and test matrices.
package sqlite

import (
	"os"
	"runtime"
)

func libraryCandidates(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	if env := os.Getenv("GOSQLITE_LIBRARY"); env != "" {
		return []string{env}
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"libsqlite3.dylib",
			"/usr/lib/libsqlite3.dylib",
			"/opt/homebrew/opt/sqlite/lib/libsqlite3.dylib",
		}
	case "linux":
		return []string{
			"libsqlite3.so.0",
			"libsqlite3.so",
		}
	case "freebsd":
		return []string{
			"libsqlite3.so",
			"/usr/local/lib/libsqlite3.so",
		}
	case "windows":
		return []string{
			"sqlite3.dll",
			"winsqlite3.dll",
		}
	default:
		return []string{"libsqlite3.so"}
	}
}
