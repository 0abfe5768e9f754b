package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"
)

// define all driver level errors here
var (
	ErrStmtClosed = errors.New("sqlite: statement closed")
	ErrConnClosed = errors.New("sqlite: connection closed")
	ErrTxDone     = errors.New("sqlite: transaction done")
)

// DefaultBusyTimeout is the busy timeout, in milliseconds, applied to new
// driver connections unless the DSN or connector says otherwise.
const DefaultBusyTimeout = 5000

// define all package level structs here

type sqliteDriver struct{}

type sqliteConnection struct {
	conn *Conn

	mu          sync.Mutex
	closed      bool
	busyTimeout int // current busy timeout in milliseconds
}

type sqliteStatement struct {
	conn   *sqliteConnection
	stmt   *Stmt
	closed bool
}

type sqliteRows struct {
	stmt      *Stmt
	rows      *Rows
	ownsStmt  bool
	columns   []string
	decltypes []string

	closed bool
}

type sqliteResult struct {
	lastInsertId int64
	rowsAffected int64
}

type sqliteTx struct {
	conn *sqliteConnection
	done bool
}

// register driver
func init() {
	sql.Register("gosqlite", &sqliteDriver{})
}

// Implement sql.Driver methods
func (d *sqliteDriver) Open(dsn string) (driver.Conn, error) {
	cfg, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return openDriverConn(cfg)
}

func openDriverConn(cfg connConfig) (driver.Conn, error) {
	conn, err := Open(cfg.path, cfg.flags)
	if err != nil {
		return nil, err
	}
	// A timeout of 0 in the config means unset (apply the default); a
	// negative value means explicitly disabled.
	timeout := cfg.busyTimeout
	if timeout == 0 {
		timeout = DefaultBusyTimeout
	} else if timeout < 0 {
		timeout = 0
	}
	if timeout > 0 {
		if err := conn.BusyTimeout(time.Duration(timeout) * time.Millisecond); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return &sqliteConnection{
		conn:        conn,
		busyTimeout: timeout,
	}, nil
}

// --- driver.Conn and friends ---

// Ensure sqliteConnection implements required interfaces.
var (
	_ driver.Conn               = (*sqliteConnection)(nil)
	_ driver.ConnPrepareContext = (*sqliteConnection)(nil)
	_ driver.ExecerContext      = (*sqliteConnection)(nil)
	_ driver.QueryerContext     = (*sqliteConnection)(nil)
	_ driver.Pinger             = (*sqliteConnection)(nil)
	_ driver.ConnBeginTx        = (*sqliteConnection)(nil)
)

func (c *sqliteConnection) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *sqliteConnection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &sqliteStatement{conn: c, stmt: stmt}, nil
}

func (c *sqliteConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *sqliteConnection) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *sqliteConnection) BeginTx(ctx context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if _, err := c.ExecContext(ctx, "BEGIN", nil); err != nil {
		return nil, err
	}
	return &sqliteTx{conn: c}, nil
}

func (c *sqliteConnection) Ping(ctx context.Context) error {
	rows, err := c.QueryContext(ctx, "SELECT 1", nil)
	if err != nil {
		return err
	}
	return rows.Close()
}

func (c *sqliteConnection) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return nil, err
	}

	// Multi-statement support for the Exec family: walk the string one
	// prepared statement at a time. Arguments bind to the first statement
	// only.
	var totalAffected int64
	var lastInsert int64
	offset := 0
	first := true
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rest := query[offset:]
		if strings.TrimSpace(rest) == "" {
			break
		}
		stmt, tail, err := c.conn.prepareFirst(rest)
		if err != nil {
			return nil, err
		}
		if tail == 0 {
			tail = len(rest)
		}
		offset += tail
		if stmt == nil {
			// comment or whitespace segment
			continue
		}
		if first && len(args) > 0 {
			if err := bindDriverArgs(stmt, args); err != nil {
				stmt.Finalize()
				return nil, err
			}
		}
		affected, err := driverExecStatement(stmt)
		ferr := stmt.Finalize()
		if err != nil {
			return nil, err
		}
		if ferr != nil {
			return nil, ferr
		}
		totalAffected += int64(affected)
		lastInsert = c.conn.LastInsertRowID()
		first = false
	}
	return &sqliteResult{
		lastInsertId: lastInsert,
		rowsAffected: totalAffected,
	}, nil
}

func (c *sqliteConnection) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := driverQueryStatement(stmt, args)
	if err != nil {
		stmt.Finalize()
		return nil, err
	}
	rows.ownsStmt = true
	return rows, nil
}

func (c *sqliteConnection) checkOpenLocked() error {
	if c.closed || c.conn == nil {
		return ErrConnClosed
	}
	return nil
}

// SetBusyTimeout sets the busy timeout for this connection in milliseconds.
// Pass 0 to disable the busy handler (immediate SQLITE_BUSY on contention).
func (c *sqliteConnection) SetBusyTimeout(timeoutMs int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if timeoutMs < 0 {
		timeoutMs = 0
	}
	if err := c.conn.BusyTimeout(time.Duration(timeoutMs) * time.Millisecond); err != nil {
		return err
	}
	c.busyTimeout = timeoutMs
	return nil
}

// GetBusyTimeout returns the current busy timeout in milliseconds.
func (c *sqliteConnection) GetBusyTimeout() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyTimeout
}

// --- Connector Pattern ---

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithBusyTimeout sets the busy timeout in milliseconds.
// Use 0 to disable the busy handler, -1 to use the default (5000ms).
func WithBusyTimeout(ms int) ConnectorOption {
	return func(c *Connector) {
		c.busyTimeout = ms
	}
}

// Connector implements driver.Connector for programmatic configuration,
// bypassing the global driver registry:
//
//	connector, _ := sqlite.NewConnector("file:app.db", sqlite.WithBusyTimeout(100))
//	db := sql.OpenDB(connector)
type Connector struct {
	dsn         string
	busyTimeout int // -1 = use default, 0 = disabled, >0 = custom
}

// NewConnector creates a Connector for the given DSN and options.
func NewConnector(dsn string, opts ...ConnectorOption) (*Connector, error) {
	c := &Connector{
		dsn:         dsn,
		busyTimeout: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect implements driver.Connector.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	cfg, err := parseDSN(c.dsn)
	if err != nil {
		return nil, err
	}
	switch {
	case c.busyTimeout == 0:
		cfg.busyTimeout = -1 // explicit disable
	case c.busyTimeout > 0:
		cfg.busyTimeout = c.busyTimeout
	}
	return openDriverConn(cfg)
}

// Driver implements driver.Connector.
func (c *Connector) Driver() driver.Driver {
	return &sqliteDriver{}
}

// Ensure Connector implements driver.Connector
var _ driver.Connector = (*Connector)(nil)

// --- driver.Stmt and friends ---

// Ensure sqliteStatement implements required interfaces.
var (
	_ driver.Stmt             = (*sqliteStatement)(nil)
	_ driver.StmtExecContext  = (*sqliteStatement)(nil)
	_ driver.StmtQueryContext = (*sqliteStatement)(nil)
)

func (s *sqliteStatement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.stmt.Finalize()
}

func (s *sqliteStatement) NumInput() int {
	return s.stmt.ParameterCount()
}

func (s *sqliteStatement) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), ordinalValues(args))
}

func (s *sqliteStatement) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if s.closed {
		return nil, ErrStmtClosed
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := bindDriverArgs(s.stmt, args); err != nil {
		return nil, err
	}
	affected, err := driverExecStatement(s.stmt)
	if err != nil {
		return nil, err
	}
	return &sqliteResult{
		lastInsertId: s.conn.conn.LastInsertRowID(),
		rowsAffected: int64(affected),
	}, nil
}

func (s *sqliteStatement) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), ordinalValues(args))
}

func (s *sqliteStatement) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if s.closed {
		return nil, ErrStmtClosed
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return driverQueryStatement(s.stmt, args)
}

func ordinalValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

// --- driver.Rows ---

// Ensure sqliteRows implements the required interfaces.
var (
	_ driver.Rows                           = (*sqliteRows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*sqliteRows)(nil)
)

func (r *sqliteRows) Columns() []string {
	if r.columns != nil {
		return r.columns
	}
	n := r.stmt.ColumnCount()
	names := make([]string, n)
	decltypes := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = r.stmt.ColumnName(i)
		decltypes[i] = r.stmt.ColumnDeclType(i)
	}
	r.columns = names
	r.decltypes = decltypes
	return r.columns
}

// ColumnTypeDatabaseTypeName reports the declared type of column index, for
// example "VARCHAR(255)" or "TIMESTAMP". Empty for expression columns.
func (r *sqliteRows) ColumnTypeDatabaseTypeName(index int) string {
	r.Columns()
	if index < 0 || index >= len(r.decltypes) {
		return ""
	}
	return strings.ToUpper(r.decltypes[index])
}

func (r *sqliteRows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.rows.Close()
	if r.ownsStmt {
		if ferr := r.stmt.Finalize(); err == nil {
			err = ferr
		}
	}
	return err
}

func (r *sqliteRows) Next(dest []driver.Value) error {
	if r.closed {
		return io.EOF
	}
	// Ensure decltypes are populated before the first step.
	r.Columns()
	row, err := r.rows.Next()
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return err
	}
	n := row.ColumnCount()
	if len(dest) != n {
		return fmt.Errorf("sqlite: expected %d dests, got %d", n, len(dest))
	}
	for i := 0; i < n; i++ {
		v := row.Value(i)
		switch v.Kind() {
		case SQLITE_NULL:
			dest[i] = nil
		case SQLITE_INTEGER:
			dest[i] = v.Int64()
		case SQLITE_FLOAT:
			dest[i] = v.Float()
		case SQLITE_TEXT:
			text := v.Text()
			if i < len(r.decltypes) && isTimeColumn(r.decltypes[i]) {
				if t, err := parseTimeString(text); err == nil {
					dest[i] = t
					continue
				}
			}
			dest[i] = text
		case SQLITE_BLOB:
			dest[i] = v.Blob()
		}
	}
	return nil
}

// --- driver.Result ---

var _ driver.Result = (*sqliteResult)(nil)

func (r *sqliteResult) LastInsertId() (int64, error) {
	return r.lastInsertId, nil
}

func (r *sqliteResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// --- driver.Tx ---

var _ driver.Tx = (*sqliteTx)(nil)

func (tx *sqliteTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	_, err := tx.conn.ExecContext(context.Background(), "COMMIT", nil)
	return err
}

func (tx *sqliteTx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	_, err := tx.conn.ExecContext(context.Background(), "ROLLBACK", nil)
	return err
}

// Helpers

type connConfig struct {
	path        string
	flags       OpenFlags
	busyTimeout int
}

// parseDSN supports format:
// <path>[?_busy_timeout=<ms>&mode=ro|rw|rwc|memory&cache=shared|private]
func parseDSN(dsn string) (connConfig, error) {
	cfg := connConfig{
		path:  dsn,
		flags: SQLITE_OPEN_READWRITE | SQLITE_OPEN_CREATE | SQLITE_OPEN_URI,
	}
	qMark := strings.IndexByte(dsn, '?')
	if qMark < 0 {
		return cfg, nil
	}
	cfg.path = dsn[:qMark]
	vals, err := url.ParseQuery(dsn[qMark+1:])
	if err != nil {
		return connConfig{}, err
	}
	if v := vals.Get("_busy_timeout"); v != "" {
		var timeout int
		if _, err := fmt.Sscanf(v, "%d", &timeout); err == nil {
			cfg.busyTimeout = timeout
		}
	}
	switch vals.Get("mode") {
	case "":
	case "ro":
		cfg.flags = SQLITE_OPEN_READONLY | SQLITE_OPEN_URI
	case "rw":
		cfg.flags = SQLITE_OPEN_READWRITE | SQLITE_OPEN_URI
	case "rwc":
		cfg.flags = SQLITE_OPEN_READWRITE | SQLITE_OPEN_CREATE | SQLITE_OPEN_URI
	case "memory":
		cfg.flags = SQLITE_OPEN_READWRITE | SQLITE_OPEN_CREATE | SQLITE_OPEN_MEMORY
	default:
		return connConfig{}, fmt.Errorf("sqlite: invalid mode %q in dsn", vals.Get("mode"))
	}
	switch vals.Get("cache") {
	case "":
	case "shared":
		cfg.flags |= SQLITE_OPEN_SHAREDCACHE
	case "private":
		cfg.flags |= SQLITE_OPEN_PRIVATECACHE
	default:
		return connConfig{}, fmt.Errorf("sqlite: invalid cache %q in dsn", vals.Get("cache"))
	}
	return cfg, nil
}

// driverExecStatement runs an already-bound statement to completion. A
// statement that produces rows is drained; its rows are discarded, matching
// what Exec means for a SELECT.
func driverExecStatement(stmt *Stmt) (int, error) {
	if stmt.ColumnCount() == 0 {
		return stmt.stepAndReset()
	}
	rows := stmt.newRows()
	for {
		_, err := rows.Next()
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			rows.Close()
			return 0, err
		}
	}
}

// driverQueryStatement returns a lazy rows wrapper over an already-prepared
// statement; the first step happens on the first Next call.
func driverQueryStatement(stmt *Stmt, args []driver.NamedValue) (*sqliteRows, error) {
	if err := bindDriverArgs(stmt, args); err != nil {
		return nil, err
	}
	return &sqliteRows{stmt: stmt, rows: stmt.newRows()}, nil
}

// bindDriverArgs binds ordered and named values to a statement. Named values
// arrive from database/sql without their prefix, so resolution tries each of
// the engine's prefixes in turn.
func bindDriverArgs(stmt *Stmt, args []driver.NamedValue) error {
	stmt.invalidateCursor()
	for idx, nv := range args {
		pos := idx + 1
		if nv.Name != "" {
			resolved := 0
			for _, prefix := range []string{":", "@", "$", ""} {
				if i, ok, err := stmt.ParameterIndex(prefix + nv.Name); err != nil {
					return err
				} else if ok {
					resolved = i
					break
				}
			}
			if resolved == 0 {
				return fmt.Errorf("%w: %q", ErrInvalidParameterName, nv.Name)
			}
			pos = resolved
		} else if nv.Ordinal > 0 {
			pos = nv.Ordinal
		}
		v, err := bindValueOf(nv.Value)
		if err != nil {
			return err
		}
		if err := stmt.bindParameter(v, pos); err != nil {
			return err
		}
	}
	return nil
}

// isTimeColumn checks if the column declared type indicates a time/date
// column, matching the conventions other Go sqlite drivers use.
func isTimeColumn(decltype string) bool {
	if decltype == "" {
		return false
	}
	upper := strings.ToUpper(decltype)
	return upper == "TIMESTAMP" || upper == "DATETIME" || upper == "DATE"
}

// SQLiteTimestampFormats are the timestamp layouts accepted when scanning a
// TEXT column declared as a time type, most specific first.
var SQLiteTimestampFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimeString attempts to parse a string as a time.Time value.
func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSuffix(s, "Z")
	for _, format := range SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
