package sqlite

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

// helper to require a loaded library for integration tests
func requireLibrary(t *testing.T) {
	t.Helper()
	if err := ensureLibrary(); err != nil {
		t.Skipf("sqlite3 shared library is not available; set GOSQLITE_LIBRARY to run integration tests: %v", err)
	}
}

// helper to require a minimum engine version, for features like RETURNING
func requireVersion(t *testing.T, minimum int) {
	t.Helper()
	requireLibrary(t)
	n, err := VersionNumber()
	if err != nil {
		t.Fatalf("version number failed: %v", err)
	}
	if n < minimum {
		t.Skipf("engine version %d is older than required %d", n, minimum)
	}
}

// helper to open an in-memory connection with cleanup
func openTestConn(t *testing.T) *Conn {
	t.Helper()
	requireLibrary(t)
	conn, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory connection failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustPrepare(t *testing.T, conn *Conn, sql string) *Stmt {
	t.Helper()
	stmt, err := conn.Prepare(sql)
	if err != nil {
		t.Fatalf("prepare %q failed: %v", sql, err)
	}
	t.Cleanup(func() { _ = stmt.Finalize() })
	return stmt
}

func TestExecReturnsChangeCount(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE foo (x INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	insert := mustPrepare(t, conn, "INSERT INTO foo (x) VALUES (?)")
	for _, x := range []int{1, 2} {
		changes, err := insert.Exec(x)
		if err != nil {
			t.Fatalf("insert x=%d failed: %v", x, err)
		}
		if changes != 1 {
			t.Fatalf("insert x=%d expected 1 change, got %d", x, changes)
		}
	}

	var sum int64
	err := conn.QueryRow("SELECT SUM(x) FROM foo WHERE x > 0", func(r *Row) error {
		sum = r.Value(0).Int64()
		return nil
	})
	if err != nil {
		t.Fatalf("query sum failed: %v", err)
	}
	if sum != 3 {
		t.Fatalf("expected sum 3, got %d", sum)
	}
}

func TestExecOnRowProducingStatementFails(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	// Whether a row is actually produced must not matter: the empty table
	// completes without a row but still declares result columns.
	stmt := mustPrepare(t, conn, "SELECT x FROM t")
	if _, err := stmt.Exec(); !errors.Is(err, ErrExecuteReturnedRows) {
		t.Fatalf("exec on empty select expected ErrExecuteReturnedRows, got %v", err)
	}

	if _, err := conn.Exec("INSERT INTO t (x) VALUES (7)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := stmt.Exec(); !errors.Is(err, ErrExecuteReturnedRows) {
		t.Fatalf("exec on non-empty select expected ErrExecuteReturnedRows, got %v", err)
	}

	// The failed exec reset the statement; it stays usable as a query.
	rows, err := stmt.Query()
	if err != nil {
		t.Fatalf("query after failed exec failed: %v", err)
	}
	row, err := rows.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got := row.Value(0).Int64(); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNamedBindingRetainsPriorValues(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE test (x TEXT, y TEXT)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	stmt := mustPrepare(t, conn, "INSERT INTO test (x, y) VALUES (:x, :y)")

	// Bind only :x; :y was never bound and goes in as NULL.
	if _, err := stmt.ExecNamed(NamedArgs{":x": "one"}); err != nil {
		t.Fatalf("first exec failed: %v", err)
	}
	err := conn.QueryRow("SELECT x, y FROM test", func(r *Row) error {
		if got := r.Value(0).Text(); got != "one" {
			t.Fatalf("expected x='one', got %q", got)
		}
		if !r.Value(1).IsNull() {
			t.Fatalf("expected y to be NULL, got %v", r.Value(1))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("query first row failed: %v", err)
	}

	if _, err := conn.Exec("DELETE FROM test"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Now bind only :y; :x keeps "one" from the previous call because the
	// engine does not clear bound parameter values on reset.
	if _, err := stmt.ExecNamed(NamedArgs{":y": "two"}); err != nil {
		t.Fatalf("second exec failed: %v", err)
	}
	err = conn.QueryRow("SELECT x, y FROM test", func(r *Row) error {
		if got := r.Value(0).Text(); got != "one" {
			t.Fatalf("expected retained x='one', got %q", got)
		}
		if got := r.Value(1).Text(); got != "two" {
			t.Fatalf("expected y='two', got %q", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("query second row failed: %v", err)
	}
}

func TestNamedBindingUnknownName(t *testing.T) {
	conn := openTestConn(t)

	stmt := mustPrepare(t, conn, "SELECT :x")
	_, err := stmt.ExecNamed(NamedArgs{":nope": 1})
	if !errors.Is(err, ErrInvalidParameterName) {
		t.Fatalf("expected ErrInvalidParameterName, got %v", err)
	}
}

func TestPositionalArityMismatchPanics(t *testing.T) {
	conn := openTestConn(t)

	stmt := mustPrepare(t, conn, "SELECT ? + ?")
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic on arity mismatch")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "expects 2 parameters, got 1") {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	stmt.Exec(1)
}

func TestValueRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE rt (v)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	insert := mustPrepare(t, conn, "INSERT INTO rt (v) VALUES (?)")
	query := mustPrepare(t, conn, "SELECT v FROM rt")

	cases := []struct {
		name string
		arg  any
		want Value
	}{
		{"integer", int64(-9007199254740993), IntegerValue(-9007199254740993)},
		{"float", 3.5, FloatValue(3.5)},
		{"text", "Hello, 世界", TextValue("Hello, 世界")},
		{"blob", []byte{0, 1, 2, 0xff}, BlobValue([]byte{0, 1, 2, 0xff})},
		{"null", nil, NullValue()},
		{"bool", true, IntegerValue(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := conn.Exec("DELETE FROM rt"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if _, err := insert.Exec(tc.arg); err != nil {
				t.Fatalf("insert failed: %v", err)
			}
			rows, err := query.Query()
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			row, err := rows.Next()
			if err != nil {
				t.Fatalf("next failed: %v", err)
			}
			got := row.Value(0)
			if got.Kind() != tc.want.Kind() {
				t.Fatalf("kind mismatch: expected %v, got %v", tc.want.Kind(), got.Kind())
			}
			switch tc.want.Kind() {
			case SQLITE_INTEGER:
				if got.Int64() != tc.want.Int64() {
					t.Fatalf("expected %d, got %d", tc.want.Int64(), got.Int64())
				}
			case SQLITE_FLOAT:
				if got.Float() != tc.want.Float() {
					t.Fatalf("expected %v, got %v", tc.want.Float(), got.Float())
				}
			case SQLITE_TEXT:
				if got.Text() != tc.want.Text() {
					t.Fatalf("expected %q, got %q", tc.want.Text(), got.Text())
				}
			case SQLITE_BLOB:
				if !bytes.Equal(got.Blob(), tc.want.Blob()) {
					t.Fatalf("expected %v, got %v", tc.want.Blob(), got.Blob())
				}
			case SQLITE_NULL:
				if !got.IsNull() {
					t.Fatalf("expected NULL, got %v", got)
				}
			}
			if err := rows.Close(); err != nil {
				t.Fatalf("close failed: %v", err)
			}
		})
	}
}

func TestEmptyTextAndZeroLengthBlob(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE e (a, b, c)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO e (a, b, c) VALUES (?, ?, ?)", "", []byte{}, ZeroBlob(12)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err := conn.QueryRow("SELECT a, b, c FROM e", func(r *Row) error {
		a := r.Value(0)
		if a.Kind() != SQLITE_TEXT || a.Text() != "" {
			t.Fatalf("expected empty TEXT, got %v", a)
		}
		b := r.Value(1)
		if b.Kind() != SQLITE_BLOB || len(b.Blob()) != 0 {
			t.Fatalf("expected zero-length BLOB, got %v", b)
		}
		c := r.Value(2)
		if c.Kind() != SQLITE_BLOB || len(c.Blob()) != 12 {
			t.Fatalf("expected 12-byte zero blob, got %v", c)
		}
		for _, by := range c.Blob() {
			if by != 0 {
				t.Fatalf("expected all-zero blob, got %v", c.Blob())
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
}

func TestInvalidUTF8TextPanics(t *testing.T) {
	conn := openTestConn(t)

	// CAST retags the x'ff' byte as TEXT without validating the encoding.
	stmt := mustPrepare(t, conn, "SELECT CAST(x'ff' AS TEXT)")
	rows, err := stmt.Query()
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	row, err := rows.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic extracting invalid UTF-8 text")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "not valid UTF-8") {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	row.Value(0)
}

func TestCursorExhaustedStaysExhausted(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE n (i INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO n (i) VALUES (1), (2)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	stmt := mustPrepare(t, conn, "SELECT i FROM n ORDER BY i")
	rows, err := stmt.Query()
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	for want := int64(1); want <= 2; want++ {
		row, err := rows.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got := row.Value(0).Int64(); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := rows.Next(); err != io.EOF {
			t.Fatalf("advance %d after exhaustion expected io.EOF, got %v", i, err)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("expected nil Err after clean exhaustion, got %v", err)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestQueryDoesNotStepUntilNext(t *testing.T) {
	requireVersion(t, 3035000) // RETURNING
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE lazy (x INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	// An INSERT ... RETURNING runs on the first step. Opening and closing
	// the cursor without advancing must leave the table untouched.
	stmt := mustPrepare(t, conn, "INSERT INTO lazy (x) VALUES (1) RETURNING rowid")
	rows, err := stmt.Query()
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	var count int64
	err = conn.QueryRow("SELECT COUNT(*) FROM lazy", func(r *Row) error {
		count = r.Value(0).Int64()
		return nil
	})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows inserted by unconsumed query, got %d", count)
	}
}

func TestRowInvalidatedByNextStep(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE r (i INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO r (i) VALUES (1), (2)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	stmt := mustPrepare(t, conn, "SELECT i FROM r ORDER BY i")
	rows, err := stmt.Query()
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	first, err := rows.Next()
	if err != nil {
		t.Fatalf("first next failed: %v", err)
	}
	if _, err := rows.Next(); err != nil {
		t.Fatalf("second next failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic reading a row after the cursor advanced")
		}
	}()
	first.Value(0)
}

func TestNewQueryInvalidatesOpenCursor(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE q (i INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO q (i) VALUES (1), (2)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	stmt := mustPrepare(t, conn, "SELECT i FROM q")
	old, err := stmt.Query()
	if err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	if _, err := old.Next(); err != nil {
		t.Fatalf("next on first cursor failed: %v", err)
	}

	fresh, err := stmt.Query()
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if _, err := old.Next(); !errors.Is(err, ErrClosed) {
		t.Fatalf("stale cursor expected ErrClosed, got %v", err)
	}

	// The fresh cursor starts from the first row again.
	row, err := fresh.Next()
	if err != nil {
		t.Fatalf("next on fresh cursor failed: %v", err)
	}
	if got := row.Value(0).Int64(); got != 1 {
		t.Fatalf("expected fresh cursor to restart at 1, got %d", got)
	}
	if err := fresh.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestParameterIndex(t *testing.T) {
	conn := openTestConn(t)

	stmt := mustPrepare(t, conn, "SELECT :x + @y")
	idx, ok, err := stmt.ParameterIndex(":x")
	if err != nil || !ok || idx != 1 {
		t.Fatalf("expected (1, true, nil) for :x, got (%d, %v, %v)", idx, ok, err)
	}
	idx, ok, err = stmt.ParameterIndex("@y")
	if err != nil || !ok || idx != 2 {
		t.Fatalf("expected (2, true, nil) for @y, got (%d, %v, %v)", idx, ok, err)
	}
	idx, ok, err = stmt.ParameterIndex(":absent")
	if err != nil || ok || idx != 0 {
		t.Fatalf("expected (0, false, nil) for :absent, got (%d, %v, %v)", idx, ok, err)
	}
	if _, _, err := stmt.ParameterIndex(":bad\x00name"); !errors.Is(err, ErrNulByte) {
		t.Fatalf("expected ErrNulByte for embedded NUL, got %v", err)
	}
	if got := stmt.ParameterCount(); got != 2 {
		t.Fatalf("expected 2 parameters, got %d", got)
	}
}

func TestColumnIntrospection(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE c (id INTEGER, name TEXT, created_at TIMESTAMP)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	stmt := mustPrepare(t, conn, "SELECT id, name, created_at FROM c")

	if got := stmt.ColumnCount(); got != 3 {
		t.Fatalf("expected 3 columns, got %d", got)
	}
	wantNames := []string{"id", "name", "created_at"}
	for i, want := range wantNames {
		if got := stmt.ColumnName(i); got != want {
			t.Fatalf("column %d expected %q, got %q", i, want, got)
		}
	}
	names := stmt.ColumnNames()
	if len(names) != 3 || names[1] != "name" {
		t.Fatalf("unexpected column names: %v", names)
	}

	idx, err := stmt.ColumnIndex("name")
	if err != nil || idx != 1 {
		t.Fatalf("expected (1, nil) for name, got (%d, %v)", idx, err)
	}
	if _, err := stmt.ColumnIndex("missing"); !errors.Is(err, ErrInvalidColumnName) {
		t.Fatalf("expected ErrInvalidColumnName, got %v", err)
	}
	// Column labels are matched byte for byte.
	if _, err := stmt.ColumnIndex("NAME"); !errors.Is(err, ErrInvalidColumnName) {
		t.Fatalf("expected byte-exact mismatch for NAME, got %v", err)
	}

	if got := stmt.ColumnDeclType(2); !strings.EqualFold(got, "TIMESTAMP") {
		t.Fatalf("expected TIMESTAMP decltype, got %q", got)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	conn := openTestConn(t)

	stmt, err := conn.Prepare("SELECT 1")
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if err := stmt.Finalize(); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}
	if err := stmt.Finalize(); err != nil {
		t.Fatalf("second finalize expected nil, got %v", err)
	}

	if _, err := stmt.Exec(); !errors.Is(err, ErrClosed) {
		t.Fatalf("exec after finalize expected ErrClosed, got %v", err)
	}
	if _, err := stmt.Query(); !errors.Is(err, ErrClosed) {
		t.Fatalf("query after finalize expected ErrClosed, got %v", err)
	}
	if got := stmt.ColumnCount(); got != 0 {
		t.Fatalf("expected 0 columns on finalized statement, got %d", got)
	}
}

func TestStatementSQLText(t *testing.T) {
	conn := openTestConn(t)

	const sql = "SELECT 1 + 2"
	stmt := mustPrepare(t, conn, sql)
	if got := stmt.String(); got != sql {
		t.Fatalf("expected %q, got %q", sql, got)
	}
}

func TestBindTypeError(t *testing.T) {
	conn := openTestConn(t)

	stmt := mustPrepare(t, conn, "SELECT ?")
	if _, err := stmt.Exec(struct{ X int }{1}); !errors.Is(err, ErrBindType) {
		t.Fatalf("expected ErrBindType for struct argument, got %v", err)
	}
	if _, err := stmt.Exec(uint64(math.MaxUint64)); !errors.Is(err, ErrIntOverflow) {
		t.Fatalf("expected ErrIntOverflow for max uint64, got %v", err)
	}
}

func TestOversizeZeroBlobRejected(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE big (payload BLOB)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	stmt := mustPrepare(t, conn, "INSERT INTO big (payload) VALUES (?)")

	// MaxInt32 stays inside the length domain the bind call accepts but is
	// far past the engine's default length limit, so the engine itself
	// rejects the bind without allocating anything.
	_, err := stmt.Exec(ZeroBlob(math.MaxInt32))
	if err == nil {
		t.Fatalf("expected oversize zero-blob bind to fail")
	}
	var engineErr *Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if engineErr.Code != SQLITE_TOOBIG {
		t.Fatalf("expected SQLITE_TOOBIG, got %v", engineErr.Code)
	}
}

func TestQueryMapCollect(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE people (id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO people VALUES (1, 'alice'), (2, 'bob')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	type person struct {
		id   int64
		name string
	}
	stmt := mustPrepare(t, conn, "SELECT id, name FROM people ORDER BY id")
	mapped, err := QueryMap(stmt, func(r *Row) (person, error) {
		return person{id: r.Value(0).Int64(), name: r.Value(1).Text()}, nil
	})
	if err != nil {
		t.Fatalf("query map failed: %v", err)
	}
	people, err := mapped.Collect()
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	want := []person{{1, "alice"}, {2, "bob"}}
	if len(people) != len(want) {
		t.Fatalf("expected %d people, got %d", len(want), len(people))
	}
	for i := range want {
		if people[i] != want[i] {
			t.Fatalf("person %d: expected %+v, got %+v", i, want[i], people[i])
		}
	}
}

func TestQueryAndThenPropagatesElementError(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE vals (i INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO vals VALUES (1), (2), (3)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	bad := errors.New("two is not allowed")
	stmt := mustPrepare(t, conn, "SELECT i FROM vals ORDER BY i")
	seq, err := QueryAndThen(stmt, func(r *Row) (int64, error) {
		v := r.Value(0).Int64()
		if v == 2 {
			return 0, bad
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	// A transform failure is delivered for its element only; iteration can
	// continue past it.
	if v, err := seq.Next(); err != nil || v != 1 {
		t.Fatalf("element 1: expected (1, nil), got (%d, %v)", v, err)
	}
	if _, err := seq.Next(); !errors.Is(err, bad) {
		t.Fatalf("element 2: expected transform error, got %v", err)
	}
	if v, err := seq.Next(); err != nil || v != 3 {
		t.Fatalf("element 3: expected (3, nil), got (%d, %v)", v, err)
	}
	if _, err := seq.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last element, got %v", err)
	}
	if err := seq.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestQueryAndThenCollectStopsAtError(t *testing.T) {
	conn := openTestConn(t)

	if _, err := conn.Exec("CREATE TABLE w (i INTEGER)"); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO w VALUES (1), (2)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	bad := errors.New("reject")
	stmt := mustPrepare(t, conn, "SELECT i FROM w ORDER BY i")
	seq, err := QueryAndThen(stmt, func(r *Row) (int64, error) {
		if v := r.Value(0).Int64(); v != 1 {
			return 0, bad
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if _, err := seq.Collect(); !errors.Is(err, bad) {
		t.Fatalf("collect expected transform error, got %v", err)
	}
}
