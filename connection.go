package sqlite

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"
	"unsafe"
)

// Conn is an open database connection. It prepares statements, decodes
// engine result codes, and tracks change counts for them. A Conn is not
// internally synchronized; share it across goroutines only behind your own
// mutex (the database/sql driver in this package does exactly that).
type Conn struct {
	db dbHandle
}

// Open opens the database at path, creating it if needed. Without explicit
// flags the database opens read-write/create with URI filenames enabled.
// The sqlite3 shared library is loaded on first use.
func Open(path string, flags ...OpenFlags) (*Conn, error) {
	if err := ensureLibrary(); err != nil {
		return nil, err
	}
	if strings.IndexByte(path, 0) >= 0 {
		return nil, fmt.Errorf("%w: path %q", ErrNulByte, path)
	}
	var mode OpenFlags
	for _, f := range flags {
		mode |= f
	}
	if mode == 0 {
		mode = SQLITE_OPEN_READWRITE | SQLITE_OPEN_CREATE | SQLITE_OPEN_URI
	}
	var db dbHandle
	rc := c_sqlite3_open_v2(path, unsafe.Pointer(&db), int32(mode), 0)
	if rc != SQLITE_OK {
		// Even on failure the engine may hand back a handle carrying the
		// error message; it must still be closed.
		if db != nil {
			err := &Error{Code: rc, Extended: c_sqlite3_extended_errcode(db), Message: c_sqlite3_errmsg(db)}
			c_sqlite3_close_v2(db)
			return nil, err
		}
		return nil, errFromCode(rc)
	}
	return &Conn{db: db}, nil
}

// OpenInMemory opens a fresh private in-memory database.
func OpenInMemory() (*Conn, error) {
	return Open(":memory:")
}

// Prepare compiles the first statement in sql. Anything after the first
// complete statement is ignored; use ExecBatch to run several statements in
// one call. Preparing an empty or comment-only string fails with
// ErrEmptyStatement.
func (c *Conn) Prepare(sql string) (*Stmt, error) {
	stmt, _, err := c.prepareFirst(sql)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, fmt.Errorf("%w: %q", ErrEmptyStatement, sql)
	}
	return stmt, nil
}

// prepareFirst compiles the first statement in sql and reports how many
// bytes of sql it consumed, so callers can walk multi-statement strings.
// A whitespace- or comment-only head yields a nil *Stmt with a nil error.
func (c *Conn) prepareFirst(sql string) (*Stmt, int, error) {
	if c.db == nil {
		return nil, 0, ErrClosed
	}
	if strings.IndexByte(sql, 0) >= 0 {
		return nil, 0, fmt.Errorf("%w: statement text", ErrNulByte)
	}
	// The tail pointer lands inside this buffer, so it has to be one this
	// package owns rather than purego's per-call copy.
	buf := cStringBytes(sql)
	base := uintptr(unsafe.Pointer(&buf[0]))
	var stmt stmtHandle
	var tail uintptr
	rc := c_sqlite3_prepare_v2(c.db, unsafe.Pointer(&buf[0]), int32(len(buf)), unsafe.Pointer(&stmt), unsafe.Pointer(&tail))
	consumed := 0
	if tail != 0 {
		consumed = int(tail - base)
	}
	runtime.KeepAlive(buf)
	if rc != SQLITE_OK {
		return nil, 0, c.decodeResult(rc)
	}
	if stmt == nil {
		return nil, consumed, nil
	}
	return &Stmt{conn: c, raw: rawStatement{ptr: stmt}}, consumed, nil
}

// Exec prepares sql, binds args, runs it once, and finalizes. It returns the
// number of rows changed. Use a prepared Stmt directly when running the same
// statement repeatedly.
func (c *Conn) Exec(sql string, args ...any) (int, error) {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer stmt.Finalize()
	return stmt.Exec(args...)
}

// ExecNamed is Exec with named parameters.
func (c *Conn) ExecNamed(sql string, args NamedArgs) (int, error) {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer stmt.Finalize()
	return stmt.ExecNamed(args)
}

// ExecBatch runs every statement in sql, stopping at the first failure.
// Statement results are discarded.
func (c *Conn) ExecBatch(sql string) error {
	if c.db == nil {
		return ErrClosed
	}
	if strings.IndexByte(sql, 0) >= 0 {
		return fmt.Errorf("%w: statement text", ErrNulByte)
	}
	buf := cStringBytes(sql)
	rc := c_sqlite3_exec(c.db, unsafe.Pointer(&buf[0]), 0, 0, 0)
	runtime.KeepAlive(buf)
	return c.decodeResult(rc)
}

// QueryRow prepares sql, runs it, and hands the first row to f. It fails
// with ErrNoRows when the query produces nothing.
func (c *Conn) QueryRow(sql string, f func(*Row) error, args ...any) error {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return err
	}
	defer stmt.Finalize()
	rows, err := stmt.Query(args...)
	if err != nil {
		return err
	}
	return firstRow(rows, f)
}

// QueryRowNamed is QueryRow with named parameters.
func (c *Conn) QueryRowNamed(sql string, f func(*Row) error, args NamedArgs) error {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return err
	}
	defer stmt.Finalize()
	rows, err := stmt.QueryNamed(args)
	if err != nil {
		return err
	}
	return firstRow(rows, f)
}

func firstRow(rows *Rows, f func(*Row) error) error {
	row, err := rows.Next()
	if err == io.EOF {
		return ErrNoRows
	}
	if err != nil {
		return err
	}
	err = f(row)
	rows.Close()
	return err
}

// Changes reports the number of rows changed by the most recently completed
// INSERT, UPDATE or DELETE on this connection.
func (c *Conn) Changes() int {
	if c.db == nil {
		return 0
	}
	return int(c_sqlite3_changes(c.db))
}

// TotalChanges reports the number of rows changed since the connection
// opened.
func (c *Conn) TotalChanges() int {
	if c.db == nil {
		return 0
	}
	return int(c_sqlite3_total_changes(c.db))
}

// LastInsertRowID reports the rowid of the most recent successful INSERT on
// this connection.
func (c *Conn) LastInsertRowID() int64 {
	if c.db == nil {
		return 0
	}
	return c_sqlite3_last_insert_rowid(c.db)
}

// AutoCommit reports whether the connection is outside an explicit
// transaction.
func (c *Conn) AutoCommit() bool {
	if c.db == nil {
		return true
	}
	return c_sqlite3_get_autocommit(c.db) != 0
}

// BusyTimeout makes the engine retry for up to d when a table is locked by
// another connection, instead of failing immediately with SQLITE_BUSY.
func (c *Conn) BusyTimeout(d time.Duration) error {
	if c.db == nil {
		return ErrClosed
	}
	return c.decodeResult(c_sqlite3_busy_timeout(c.db, int32(d/time.Millisecond)))
}

// Interrupt asks the engine to abort any in-progress operation on this
// connection as soon as practical. Safe to call from another goroutine; this
// is the one cross-thread call the engine sanctions.
func (c *Conn) Interrupt() {
	if c.db == nil {
		return
	}
	c_sqlite3_interrupt(c.db)
}

// Close releases the connection. Statements still open when Close is called
// keep working and the underlying database closes when the last of them is
// finalized. Closing twice is a no-op.
func (c *Conn) Close() error {
	db := c.db
	c.db = nil
	if db == nil {
		return nil
	}
	rc := c_sqlite3_close_v2(db)
	if rc != SQLITE_OK {
		return &Error{Code: rc, Extended: int32(rc), Message: c_sqlite3_errstr(int32(rc))}
	}
	return nil
}

// decodeResult maps a native result code to nil (for the success statuses)
// or to an *Error carrying the connection's current message.
func (c *Conn) decodeResult(rc StatusCode) error {
	switch rc {
	case SQLITE_OK, SQLITE_ROW, SQLITE_DONE:
		return nil
	}
	if c.db == nil {
		return errFromCode(rc)
	}
	msg := c_sqlite3_errmsg(c.db)
	if msg == "" {
		msg = c_sqlite3_errstr(int32(rc))
	}
	return &Error{Code: rc, Extended: c_sqlite3_extended_errcode(c.db), Message: msg}
}
