package sqlite

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

// define all necessary constants first

// StatusCode is a native result code as returned by the engine's C API.
type StatusCode int32

// Primary result codes. SQLITE_ROW and SQLITE_DONE are statuses, not errors.
const (
	SQLITE_OK         StatusCode = 0
	SQLITE_ERROR      StatusCode = 1
	SQLITE_INTERNAL   StatusCode = 2
	SQLITE_PERM       StatusCode = 3
	SQLITE_ABORT      StatusCode = 4
	SQLITE_BUSY       StatusCode = 5
	SQLITE_LOCKED     StatusCode = 6
	SQLITE_NOMEM      StatusCode = 7
	SQLITE_READONLY   StatusCode = 8
	SQLITE_INTERRUPT  StatusCode = 9
	SQLITE_IOERR      StatusCode = 10
	SQLITE_CORRUPT    StatusCode = 11
	SQLITE_NOTFOUND   StatusCode = 12
	SQLITE_FULL       StatusCode = 13
	SQLITE_CANTOPEN   StatusCode = 14
	SQLITE_PROTOCOL   StatusCode = 15
	SQLITE_EMPTY      StatusCode = 16
	SQLITE_SCHEMA     StatusCode = 17
	SQLITE_TOOBIG     StatusCode = 18
	SQLITE_CONSTRAINT StatusCode = 19
	SQLITE_MISMATCH   StatusCode = 20
	SQLITE_MISUSE     StatusCode = 21
	SQLITE_NOLFS      StatusCode = 22
	SQLITE_AUTH       StatusCode = 23
	SQLITE_FORMAT     StatusCode = 24
	SQLITE_RANGE      StatusCode = 25
	SQLITE_NOTADB     StatusCode = 26
	SQLITE_NOTICE     StatusCode = 27
	SQLITE_WARNING    StatusCode = 28
	SQLITE_ROW        StatusCode = 100
	SQLITE_DONE       StatusCode = 101
)

// ColumnType is a fundamental datatype code of a result column or value.
type ColumnType int32

const (
	SQLITE_INTEGER ColumnType = 1
	SQLITE_FLOAT   ColumnType = 2
	SQLITE_TEXT    ColumnType = 3
	SQLITE_BLOB    ColumnType = 4
	SQLITE_NULL    ColumnType = 5
)

func (t ColumnType) String() string {
	switch t {
	case SQLITE_INTEGER:
		return "INTEGER"
	case SQLITE_FLOAT:
		return "FLOAT"
	case SQLITE_TEXT:
		return "TEXT"
	case SQLITE_BLOB:
		return "BLOB"
	case SQLITE_NULL:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// OpenFlags control how a database file is opened.
type OpenFlags int32

const (
	SQLITE_OPEN_READONLY     OpenFlags = 0x00000001
	SQLITE_OPEN_READWRITE    OpenFlags = 0x00000002
	SQLITE_OPEN_CREATE       OpenFlags = 0x00000004
	SQLITE_OPEN_URI          OpenFlags = 0x00000040
	SQLITE_OPEN_MEMORY       OpenFlags = 0x00000080
	SQLITE_OPEN_NOMUTEX      OpenFlags = 0x00008000
	SQLITE_OPEN_FULLMUTEX    OpenFlags = 0x00010000
	SQLITE_OPEN_SHAREDCACHE  OpenFlags = 0x00020000
	SQLITE_OPEN_PRIVATECACHE OpenFlags = 0x00040000
)

// Special destructor values for bind_text/bind_blob. Transient tells the
// engine to copy the buffer during the call; static promises the buffer
// outlives the statement (used only for the permanent empty string).
const (
	bindStatic    = uintptr(0)
	bindTransient = ^uintptr(0)
)

// define opaque pointers as-is and accept them as exact arguments
type sqlite3_db_t struct{}
type sqlite3_stmt_t struct{}

type dbHandle *sqlite3_db_t
type stmtHandle *sqlite3_stmt_t

// then, define C extern methods
var (
	c_sqlite3_libversion func() string

	c_sqlite3_libversion_number func() int32

	c_sqlite3_initialize func() StatusCode

	c_sqlite3_open_v2 func(
		filename string, // const char*
		db unsafe.Pointer, // sqlite3**
		flags int32,
		vfs uintptr, // const char* | NULL
	) StatusCode

	c_sqlite3_close_v2 func(
		db dbHandle,
	) StatusCode

	c_sqlite3_errmsg func(
		db dbHandle,
	) string

	c_sqlite3_errstr func(
		code int32,
	) string

	c_sqlite3_extended_errcode func(
		db dbHandle,
	) int32

	c_sqlite3_exec func(
		db dbHandle,
		sql unsafe.Pointer, // const char*
		callback uintptr, // int (*)(void*,int,char**,char**) | NULL
		arg uintptr, // void* | NULL
		errmsg uintptr, // char** | NULL
	) StatusCode

	c_sqlite3_prepare_v2 func(
		db dbHandle,
		sql unsafe.Pointer, // const char*
		nByte int32,
		stmt unsafe.Pointer, // sqlite3_stmt**
		tail unsafe.Pointer, // const char** | NULL
	) StatusCode

	c_sqlite3_step func(
		stmt stmtHandle,
	) StatusCode

	c_sqlite3_reset func(
		stmt stmtHandle,
	) StatusCode

	c_sqlite3_finalize func(
		stmt stmtHandle,
	) StatusCode

	c_sqlite3_sql func(
		stmt stmtHandle,
	) uintptr // const char*

	c_sqlite3_column_count func(
		stmt stmtHandle,
	) int32

	c_sqlite3_column_name func(
		stmt stmtHandle,
		index int32,
	) uintptr // const char*

	c_sqlite3_column_decltype func(
		stmt stmtHandle,
		index int32,
	) uintptr // const char*

	c_sqlite3_column_type func(
		stmt stmtHandle,
		index int32,
	) ColumnType

	c_sqlite3_column_int64 func(
		stmt stmtHandle,
		index int32,
	) int64

	c_sqlite3_column_double func(
		stmt stmtHandle,
		index int32,
	) float64

	c_sqlite3_column_text func(
		stmt stmtHandle,
		index int32,
	) uintptr // const unsigned char*

	c_sqlite3_column_blob func(
		stmt stmtHandle,
		index int32,
	) uintptr // const void*

	c_sqlite3_column_bytes func(
		stmt stmtHandle,
		index int32,
	) int32

	c_sqlite3_bind_parameter_count func(
		stmt stmtHandle,
	) int32

	c_sqlite3_bind_parameter_index func(
		stmt stmtHandle,
		name string, // const char*
	) int32

	c_sqlite3_bind_parameter_name func(
		stmt stmtHandle,
		index int32,
	) uintptr // const char*

	c_sqlite3_bind_null func(
		stmt stmtHandle,
		index int32,
	) StatusCode

	c_sqlite3_bind_int64 func(
		stmt stmtHandle,
		index int32,
		value int64,
	) StatusCode

	c_sqlite3_bind_double func(
		stmt stmtHandle,
		index int32,
		value float64,
	) StatusCode

	c_sqlite3_bind_text func(
		stmt stmtHandle,
		index int32,
		value unsafe.Pointer, // const char*
		n int32,
		destructor uintptr, // void (*)(void*) | SQLITE_STATIC | SQLITE_TRANSIENT
	) StatusCode

	c_sqlite3_bind_blob func(
		stmt stmtHandle,
		index int32,
		value unsafe.Pointer, // const void*
		n int32,
		destructor uintptr,
	) StatusCode

	c_sqlite3_bind_zeroblob func(
		stmt stmtHandle,
		index int32,
		n int32,
	) StatusCode

	c_sqlite3_changes func(
		db dbHandle,
	) int32

	c_sqlite3_total_changes func(
		db dbHandle,
	) int32

	c_sqlite3_last_insert_rowid func(
		db dbHandle,
	) int64

	c_sqlite3_get_autocommit func(
		db dbHandle,
	) int32

	c_sqlite3_busy_timeout func(
		db dbHandle,
		ms int32,
	) StatusCode

	c_sqlite3_interrupt func(
		db dbHandle,
	)
)

// implement a function to register extern methods from loaded lib
// DO NOT load lib - as it will be done externally
func register_sqlite3(handle uintptr) error {
	purego.RegisterLibFunc(&c_sqlite3_libversion, handle, "sqlite3_libversion")
	purego.RegisterLibFunc(&c_sqlite3_libversion_number, handle, "sqlite3_libversion_number")
	purego.RegisterLibFunc(&c_sqlite3_initialize, handle, "sqlite3_initialize")
	purego.RegisterLibFunc(&c_sqlite3_open_v2, handle, "sqlite3_open_v2")
	purego.RegisterLibFunc(&c_sqlite3_close_v2, handle, "sqlite3_close_v2")
	purego.RegisterLibFunc(&c_sqlite3_errmsg, handle, "sqlite3_errmsg")
	purego.RegisterLibFunc(&c_sqlite3_errstr, handle, "sqlite3_errstr")
	purego.RegisterLibFunc(&c_sqlite3_extended_errcode, handle, "sqlite3_extended_errcode")
	purego.RegisterLibFunc(&c_sqlite3_exec, handle, "sqlite3_exec")
	purego.RegisterLibFunc(&c_sqlite3_prepare_v2, handle, "sqlite3_prepare_v2")
	purego.RegisterLibFunc(&c_sqlite3_step, handle, "sqlite3_step")
	purego.RegisterLibFunc(&c_sqlite3_reset, handle, "sqlite3_reset")
	purego.RegisterLibFunc(&c_sqlite3_finalize, handle, "sqlite3_finalize")
	purego.RegisterLibFunc(&c_sqlite3_sql, handle, "sqlite3_sql")
	purego.RegisterLibFunc(&c_sqlite3_column_count, handle, "sqlite3_column_count")
	purego.RegisterLibFunc(&c_sqlite3_column_name, handle, "sqlite3_column_name")
	purego.RegisterLibFunc(&c_sqlite3_column_decltype, handle, "sqlite3_column_decltype")
	purego.RegisterLibFunc(&c_sqlite3_column_type, handle, "sqlite3_column_type")
	purego.RegisterLibFunc(&c_sqlite3_column_int64, handle, "sqlite3_column_int64")
	purego.RegisterLibFunc(&c_sqlite3_column_double, handle, "sqlite3_column_double")
	purego.RegisterLibFunc(&c_sqlite3_column_text, handle, "sqlite3_column_text")
	purego.RegisterLibFunc(&c_sqlite3_column_blob, handle, "sqlite3_column_blob")
	purego.RegisterLibFunc(&c_sqlite3_column_bytes, handle, "sqlite3_column_bytes")
	purego.RegisterLibFunc(&c_sqlite3_bind_parameter_count, handle, "sqlite3_bind_parameter_count")
	purego.RegisterLibFunc(&c_sqlite3_bind_parameter_index, handle, "sqlite3_bind_parameter_index")
	purego.RegisterLibFunc(&c_sqlite3_bind_parameter_name, handle, "sqlite3_bind_parameter_name")
	purego.RegisterLibFunc(&c_sqlite3_bind_null, handle, "sqlite3_bind_null")
	purego.RegisterLibFunc(&c_sqlite3_bind_int64, handle, "sqlite3_bind_int64")
	purego.RegisterLibFunc(&c_sqlite3_bind_double, handle, "sqlite3_bind_double")
	purego.RegisterLibFunc(&c_sqlite3_bind_text, handle, "sqlite3_bind_text")
	purego.RegisterLibFunc(&c_sqlite3_bind_blob, handle, "sqlite3_bind_blob")
	purego.RegisterLibFunc(&c_sqlite3_bind_zeroblob, handle, "sqlite3_bind_zeroblob")
	purego.RegisterLibFunc(&c_sqlite3_changes, handle, "sqlite3_changes")
	purego.RegisterLibFunc(&c_sqlite3_total_changes, handle, "sqlite3_total_changes")
	purego.RegisterLibFunc(&c_sqlite3_last_insert_rowid, handle, "sqlite3_last_insert_rowid")
	purego.RegisterLibFunc(&c_sqlite3_get_autocommit, handle, "sqlite3_get_autocommit")
	purego.RegisterLibFunc(&c_sqlite3_busy_timeout, handle, "sqlite3_busy_timeout")
	purego.RegisterLibFunc(&c_sqlite3_interrupt, handle, "sqlite3_interrupt")
	return nil
}

// Helpers

// emptyCString backs zero-length text binds. Package globals are never
// collected, so handing its address to the engine with a static destructor
// is sound.
var emptyCString = [1]byte{0}

func copyCString(p uintptr) string {
	if p == 0 {
		return ""
	}
	// Walk from a single converted base with unsafe.Add; the checkptr
	// instrumentation enabled by -race rejects addresses rebuilt from raw
	// uintptr arithmetic when they land in Go-allocated memory.
	base := unsafe.Pointer(p)
	n := 0
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	copy(buf, unsafe.Slice((*byte)(base), n))
	return string(buf)
}

// goBytes copies n bytes of engine-owned memory into a fresh Go slice. The
// engine pointer is only valid until the next step or reset, so the copy is
// what makes returned values safe to retain.
func goBytes(p uintptr, n int) []byte {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
	return buf
}

// cStringBytes returns s as a NUL-terminated byte slice for calls where the
// wrapper manages the buffer itself (prepare needs the tail pointer to stay
// inside a buffer we own).
func cStringBytes(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
