// Package sqlite wraps a system SQLite library without cgo, loading it at
// runtime through purego. It exposes the prepared-statement machinery
// directly (Conn, Stmt, Rows, Value) and registers a database/sql driver
// named "gosqlite" on top of it.
//
// Direct use:
//
//	conn, err := sqlite.Open("file:app.db")
//	if err != nil { ... }
//	defer conn.Close()
//
//	stmt, err := conn.Prepare("INSERT INTO users (name) VALUES (?)")
//	if err != nil { ... }
//	defer stmt.Finalize()
//	changes, err := stmt.Exec("alice")
//
// Through database/sql:
//
//	db, err := sql.Open("gosqlite", "file:app.db?_busy_timeout=5000")
//
// The shared library is located automatically (see InitLibrary to override
// the search or install a logger). A Conn and the statements prepared from
// it are not safe for concurrent use; the database/sql driver serializes
// access per connection, direct users synchronize themselves.
//
// One engine behavior worth calling out: resetting a statement does not
// clear its bound parameter values. A parameter never rebound keeps the
// value from the previous Exec or Query, which matters when binding named
// subsets; see Stmt.ExecNamed.
package sqlite
