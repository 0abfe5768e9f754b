package sqlite

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"unsafe"
)

// rawStatement wraps the native prepared-statement handle. Its methods are
// direct passthroughs with no safety logic; ownership and contract checks
// live in Stmt. The zero rawStatement is the released state.
type rawStatement struct {
	ptr stmtHandle
}

func (r *rawStatement) isNull() bool { return r.ptr == nil }

func (r *rawStatement) step() StatusCode  { return c_sqlite3_step(r.ptr) }
func (r *rawStatement) reset() StatusCode { return c_sqlite3_reset(r.ptr) }

// finalize releases the handle exactly once. The handle is swapped for the
// null state before the native call, so a later finalize observes null and
// no-ops.
func (r *rawStatement) finalize() StatusCode {
	ptr := r.ptr
	r.ptr = nil
	if ptr == nil {
		return SQLITE_OK
	}
	return c_sqlite3_finalize(ptr)
}

func (r *rawStatement) sql() string {
	return copyCString(c_sqlite3_sql(r.ptr))
}

func (r *rawStatement) columnCount() int {
	return int(c_sqlite3_column_count(r.ptr))
}

func (r *rawStatement) columnName(i int) string {
	return copyCString(c_sqlite3_column_name(r.ptr, int32(i)))
}

func (r *rawStatement) columnDeclType(i int) string {
	return copyCString(c_sqlite3_column_decltype(r.ptr, int32(i)))
}

func (r *rawStatement) columnType(i int) ColumnType {
	return c_sqlite3_column_type(r.ptr, int32(i))
}

func (r *rawStatement) columnInt64(i int) int64 {
	return c_sqlite3_column_int64(r.ptr, int32(i))
}

func (r *rawStatement) columnDouble(i int) float64 {
	return c_sqlite3_column_double(r.ptr, int32(i))
}

// columnText returns the engine-owned text pointer and its byte length. The
// pointer must be consumed (copied) before the next step or reset.
func (r *rawStatement) columnText(i int) (uintptr, int) {
	ptr := c_sqlite3_column_text(r.ptr, int32(i))
	n := int(c_sqlite3_column_bytes(r.ptr, int32(i)))
	return ptr, n
}

func (r *rawStatement) columnBlob(i int) (uintptr, int) {
	ptr := c_sqlite3_column_blob(r.ptr, int32(i))
	n := int(c_sqlite3_column_bytes(r.ptr, int32(i)))
	return ptr, n
}

func (r *rawStatement) bindParameterCount() int {
	return int(c_sqlite3_bind_parameter_count(r.ptr))
}

func (r *rawStatement) bindParameterIndex(name string) int {
	return int(c_sqlite3_bind_parameter_index(r.ptr, name))
}

func (r *rawStatement) bindParameterName(i int) string {
	return copyCString(c_sqlite3_bind_parameter_name(r.ptr, int32(i)))
}

func (r *rawStatement) bindNull(i int) StatusCode {
	return c_sqlite3_bind_null(r.ptr, int32(i))
}

func (r *rawStatement) bindInt64(i int, v int64) StatusCode {
	return c_sqlite3_bind_int64(r.ptr, int32(i), v)
}

func (r *rawStatement) bindDouble(i int, v float64) StatusCode {
	return c_sqlite3_bind_double(r.ptr, int32(i), v)
}

// bindText binds with the transient destructor so the engine copies the
// bytes during the call. The empty string is bound from a permanent static
// buffer; a NULL pointer would bind SQL NULL instead of "".
func (r *rawStatement) bindText(i int, s string) StatusCode {
	if len(s) == 0 {
		return c_sqlite3_bind_text(r.ptr, int32(i), unsafe.Pointer(&emptyCString[0]), 0, bindStatic)
	}
	rc := c_sqlite3_bind_text(r.ptr, int32(i), unsafe.Pointer(unsafe.StringData(s)), int32(len(s)), bindTransient)
	runtime.KeepAlive(s)
	return rc
}

// bindBlob requires len(b) > 0; zero-length blobs go through bindZeroBlob so
// they read back as empty blobs rather than NULL.
func (r *rawStatement) bindBlob(i int, b []byte) StatusCode {
	rc := c_sqlite3_bind_blob(r.ptr, int32(i), unsafe.Pointer(&b[0]), int32(len(b)), bindTransient)
	runtime.KeepAlive(b)
	return rc
}

func (r *rawStatement) bindZeroBlob(i int, n int) StatusCode {
	return c_sqlite3_bind_zeroblob(r.ptr, int32(i), int32(n))
}

// Stmt is a prepared statement. It owns exactly one native handle, released
// by the first Finalize (or Close), and borrows its Conn for error decoding
// and change counts. A Stmt and any cursor derived from it must not be used
// from more than one goroutine at a time.
type Stmt struct {
	conn   *Conn
	raw    rawStatement
	cursor *Rows
}

// ColumnCount reports the number of result columns the statement declares.
// Zero for statements that return no rows.
func (s *Stmt) ColumnCount() int {
	if s.raw.isNull() {
		return 0
	}
	return s.raw.columnCount()
}

// ColumnName reports the label of result column i. Panics when i is out of
// range.
func (s *Stmt) ColumnName(i int) string {
	n := s.ColumnCount()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("sqlite: column index %d out of range [0, %d)", i, n))
	}
	return s.raw.columnName(i)
}

// ColumnNames reports all result column labels in order. Labels of unnamed
// or expression columns are engine-defined and may change between engine
// versions.
func (s *Stmt) ColumnNames() []string {
	n := s.ColumnCount()
	names := make([]string, n)
	for i := range names {
		names[i] = s.raw.columnName(i)
	}
	return names
}

// ColumnDeclType reports the declared type of result column i as written in
// the CREATE TABLE statement, or "" for expression columns. Panics when i is
// out of range.
func (s *Stmt) ColumnDeclType(i int) string {
	n := s.ColumnCount()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("sqlite: column index %d out of range [0, %d)", i, n))
	}
	return s.raw.columnDeclType(i)
}

// ColumnIndex resolves a column label to its index using byte-exact
// comparison. Unknown labels fail with ErrInvalidColumnName.
func (s *Stmt) ColumnIndex(name string) (int, error) {
	n := s.ColumnCount()
	for i := 0; i < n; i++ {
		if s.raw.columnName(i) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColumnName, name)
}

// ParameterCount reports the number of parameters the statement declares.
func (s *Stmt) ParameterCount() int {
	if s.raw.isNull() {
		return 0
	}
	return s.raw.bindParameterCount()
}

// ParameterIndex resolves a parameter name, prefix included, to its 1-based
// index. A syntactically valid name that simply does not occur in this
// statement yields ok == false with a nil error; a name the engine's text
// encoding cannot represent yields ErrNulByte.
func (s *Stmt) ParameterIndex(name string) (index int, ok bool, err error) {
	if strings.IndexByte(name, 0) >= 0 {
		return 0, false, fmt.Errorf("%w: parameter %q", ErrNulByte, name)
	}
	if s.raw.isNull() {
		return 0, false, ErrClosed
	}
	i := s.raw.bindParameterIndex(name)
	if i == 0 {
		return 0, false, nil
	}
	return i, true, nil
}

// bindAll binds positional parameters 1..len(args). The count must match the
// statement's declared parameter count exactly; a mismatch is a bug in the
// caller's SQL/argument pairing and panics rather than returning an error.
func (s *Stmt) bindAll(args []any) error {
	s.invalidateCursor()
	n := s.raw.bindParameterCount()
	if len(args) != n {
		panic(fmt.Sprintf("sqlite: statement expects %d parameters, got %d", n, len(args)))
	}
	for i, arg := range args {
		v, err := bindValueOf(arg)
		if err != nil {
			return err
		}
		if err := s.bindParameter(v, i+1); err != nil {
			return err
		}
	}
	return nil
}

// bindNamed binds the given name/value pairs. Any name that does not resolve
// fails with ErrInvalidParameterName. Parameters omitted from args keep the
// value bound by a previous call, or stay NULL if never bound; the engine
// does not clear parameter values between executions.
func (s *Stmt) bindNamed(args NamedArgs) error {
	s.invalidateCursor()
	for name, arg := range args {
		idx, ok, err := s.ParameterIndex(name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidParameterName, name)
		}
		v, err := bindValueOf(arg)
		if err != nil {
			return err
		}
		if err := s.bindParameter(v, idx); err != nil {
			return err
		}
	}
	return nil
}

// bindParameter issues the native bind call for v at 1-based position pos.
// Text and blob payloads above the engine's signed 32-bit length domain fail
// with the engine's oversize code instead of being truncated.
func (s *Stmt) bindParameter(v Value, pos int) error {
	switch v.kind {
	case 0, SQLITE_NULL:
		return s.conn.decodeResult(s.raw.bindNull(pos))
	case SQLITE_INTEGER:
		return s.conn.decodeResult(s.raw.bindInt64(pos, v.n))
	case SQLITE_FLOAT:
		return s.conn.decodeResult(s.raw.bindDouble(pos, v.f))
	case SQLITE_TEXT:
		if len(v.s) > math.MaxInt32 {
			return errFromCode(SQLITE_TOOBIG)
		}
		return s.conn.decodeResult(s.raw.bindText(pos, v.s))
	case SQLITE_BLOB:
		if len(v.b) > math.MaxInt32 {
			return errFromCode(SQLITE_TOOBIG)
		}
		if len(v.b) == 0 {
			// The native blob pointer for a zero-length payload is NULL,
			// which the engine would store as SQL NULL. Zero-blob keeps it a
			// blob.
			return s.conn.decodeResult(s.raw.bindZeroBlob(pos, 0))
		}
		return s.conn.decodeResult(s.raw.bindBlob(pos, v.b))
	case typeZeroBlob:
		if v.n > math.MaxInt32 {
			return errFromCode(SQLITE_TOOBIG)
		}
		return s.conn.decodeResult(s.raw.bindZeroBlob(pos, int(v.n)))
	default:
		panic(fmt.Sprintf("sqlite: cannot bind value of kind %d", v.kind))
	}
}

// Exec binds args and runs the statement through a single step-and-reset
// cycle. For statements that declare no result columns it returns the
// connection's change count. Running Exec on a row-producing statement fails
// with ErrExecuteReturnedRows, whether or not a row was actually produced.
// The statement is reset before Exec returns and may be rebound and reused;
// bound parameter values persist until rebound.
func (s *Stmt) Exec(args ...any) (int, error) {
	if s.raw.isNull() {
		return 0, ErrClosed
	}
	if err := s.bindAll(args); err != nil {
		return 0, err
	}
	return s.stepAndReset()
}

// ExecNamed is Exec with named parameters. Names absent from args keep their
// previously bound values (see bindNamed).
func (s *Stmt) ExecNamed(args NamedArgs) (int, error) {
	if s.raw.isNull() {
		return 0, ErrClosed
	}
	if err := s.bindNamed(args); err != nil {
		return 0, err
	}
	return s.stepAndReset()
}

func (s *Stmt) stepAndReset() (int, error) {
	rc := s.raw.step()
	s.raw.reset()
	switch rc {
	case SQLITE_DONE:
		if s.raw.columnCount() == 0 {
			return s.conn.Changes(), nil
		}
		return 0, ErrExecuteReturnedRows
	case SQLITE_ROW:
		return 0, ErrExecuteReturnedRows
	default:
		return 0, s.conn.decodeResult(rc)
	}
}

// Query binds args and returns a row cursor. No step happens until the first
// Next call, so preparing and binding a query has no side effects on the
// database. Starting a new Query or Exec invalidates any cursor still open
// on this statement.
func (s *Stmt) Query(args ...any) (*Rows, error) {
	if s.raw.isNull() {
		return nil, ErrClosed
	}
	if err := s.bindAll(args); err != nil {
		return nil, err
	}
	return s.newRows(), nil
}

// QueryNamed is Query with named parameters. Names absent from args keep
// their previously bound values (see bindNamed).
func (s *Stmt) QueryNamed(args NamedArgs) (*Rows, error) {
	if s.raw.isNull() {
		return nil, ErrClosed
	}
	if err := s.bindNamed(args); err != nil {
		return nil, err
	}
	return s.newRows(), nil
}

func (s *Stmt) newRows() *Rows {
	rows := &Rows{stmt: s}
	s.cursor = rows
	return rows
}

func (s *Stmt) invalidateCursor() {
	if s.cursor != nil {
		s.cursor.Close()
	}
}

// Finalize releases the native statement and surfaces the engine's verdict,
// unlike teardown paths that have no way to report one. Finalize is safe to
// call more than once; only the first call does anything.
func (s *Stmt) Finalize() error {
	if s.raw.isNull() {
		return nil
	}
	s.invalidateCursor()
	return s.conn.decodeResult(s.raw.finalize())
}

// Close is Finalize under the name io.Closer and database code expect.
func (s *Stmt) Close() error { return s.Finalize() }

// String returns the SQL text the statement was prepared from.
func (s *Stmt) String() string {
	if s.raw.isNull() {
		return ""
	}
	return s.raw.sql()
}
