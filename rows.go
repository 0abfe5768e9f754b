package sqlite

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Rows is a lazy, single-pass, forward-only cursor over a query's result.
// Each Next call performs one step of the statement; the returned Row is a
// view over that step only and is invalidated by the following Next, Close,
// or any new bind/exec/query on the statement.
//
// When the engine reports completion the statement is reset (bindings kept)
// and the cursor is exhausted for good: further Next calls return io.EOF
// without touching the engine. A step error is sticky and does not reset the
// statement; Close does, making the statement safe to rebind.
type Rows struct {
	stmt   *Stmt
	gen    uint64
	done   bool
	closed bool
	err    error
}

// Next advances the cursor one step. It returns the next Row, io.EOF after
// the last row, or the decoded engine error that stopped the query.
func (r *Rows) Next() (*Row, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.done {
		return nil, io.EOF
	}
	if r.err != nil {
		return nil, r.err
	}
	rc := r.stmt.raw.step()
	r.gen++
	switch rc {
	case SQLITE_ROW:
		return &Row{rows: r, gen: r.gen}, nil
	case SQLITE_DONE:
		r.done = true
		r.stmt.raw.reset()
		if r.stmt.cursor == r {
			r.stmt.cursor = nil
		}
		return nil, io.EOF
	default:
		r.err = r.stmt.conn.decodeResult(rc)
		return nil, r.err
	}
}

// Err returns the terminal step error, if any. Exhaustion is not an error.
func (r *Rows) Err() error { return r.err }

// Close abandons the cursor and resets the statement so it can be rebound.
// Closing an already closed or exhausted cursor is a no-op.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.gen++
	if r.stmt.cursor == r {
		r.stmt.cursor = nil
	}
	if r.done {
		return nil
	}
	rc := r.stmt.raw.reset()
	if r.err != nil {
		// The failure was already delivered by Next; reset reporting it
		// again is noise.
		return nil
	}
	return r.stmt.conn.decodeResult(rc)
}

// Row is a read-only view over the columns of the cursor's current step.
// Using a Row after the cursor has moved on is a bug, and panics.
type Row struct {
	rows *Rows
	gen  uint64
}

func (r *Row) assertLive() {
	if r.rows == nil || r.gen != r.rows.gen {
		panic("sqlite: Row used after the cursor advanced")
	}
}

// ColumnCount reports the number of columns in the row.
func (r *Row) ColumnCount() int {
	r.assertLive()
	return r.rows.stmt.raw.columnCount()
}

// ColumnName reports the label of column i. Panics when i is out of range.
func (r *Row) ColumnName(i int) string {
	r.assertLive()
	n := r.rows.stmt.raw.columnCount()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("sqlite: column index %d out of range [0, %d)", i, n))
	}
	return r.rows.stmt.raw.columnName(i)
}

// ColumnIndex resolves a column label to its index, byte-exact. Unknown
// labels fail with ErrInvalidColumnName.
func (r *Row) ColumnIndex(name string) (int, error) {
	r.assertLive()
	return r.rows.stmt.ColumnIndex(name)
}

// Value extracts column i of the current row. Text and blob payloads are
// copied out of engine memory, so the returned Value stays valid after the
// cursor advances. Panics when i is out of range.
//
// The engine guarantees UTF-8 text and non-null data pointers for non-empty
// payloads; a violation of either means memory corruption somewhere below
// us, and panics.
func (r *Row) Value(i int) Value {
	r.assertLive()
	raw := &r.rows.stmt.raw
	n := raw.columnCount()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("sqlite: column index %d out of range [0, %d)", i, n))
	}
	switch t := raw.columnType(i); t {
	case SQLITE_NULL:
		return NullValue()
	case SQLITE_INTEGER:
		return IntegerValue(raw.columnInt64(i))
	case SQLITE_FLOAT:
		return FloatValue(raw.columnDouble(i))
	case SQLITE_TEXT:
		ptr, size := raw.columnText(i)
		if size == 0 {
			return TextValue("")
		}
		if ptr == 0 {
			panic("sqlite: non-empty TEXT column with NULL data pointer")
		}
		b := goBytes(ptr, size)
		if !utf8.Valid(b) {
			panic("sqlite: TEXT column is not valid UTF-8")
		}
		return TextValue(string(b))
	case SQLITE_BLOB:
		ptr, size := raw.columnBlob(i)
		if size == 0 {
			return BlobValue([]byte{})
		}
		if ptr == 0 {
			panic("sqlite: non-empty BLOB column with NULL data pointer")
		}
		return BlobValue(goBytes(ptr, size))
	default:
		panic(fmt.Sprintf("sqlite: unknown column type %d", int32(t)))
	}
}

// MappedRows applies a transform to each row of a cursor, one element per
// Next. Step failures and transform failures both surface as that element's
// error; io.EOF marks clean exhaustion.
type MappedRows[T any] struct {
	rows *Rows
	f    func(*Row) (T, error)
}

func (m *MappedRows[T]) Next() (T, error) {
	var zero T
	row, err := m.rows.Next()
	if err != nil {
		return zero, err
	}
	return m.f(row)
}

// Collect drains the cursor into a slice, stopping at the first error.
func (m *MappedRows[T]) Collect() ([]T, error) {
	var out []T
	for {
		v, err := m.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (m *MappedRows[T]) Close() error { return m.rows.Close() }

// AndThenRows is MappedRows for transforms whose failures are domain errors
// of the caller rather than query errors: an element-level failure is
// reported for that element only, and the caller chooses whether to continue
// consuming or stop.
type AndThenRows[T any] struct {
	rows *Rows
	f    func(*Row) (T, error)
}

func (m *AndThenRows[T]) Next() (T, error) {
	var zero T
	row, err := m.rows.Next()
	if err != nil {
		return zero, err
	}
	return m.f(row)
}

// Collect drains the cursor into a slice, stopping at the first error.
func (m *AndThenRows[T]) Collect() ([]T, error) {
	var out []T
	for {
		v, err := m.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (m *AndThenRows[T]) Close() error { return m.rows.Close() }

// QueryMap runs stmt.Query(args...) and maps every row through f. Methods
// cannot be generic, hence the package-level shape.
func QueryMap[T any](stmt *Stmt, f func(*Row) (T, error), args ...any) (*MappedRows[T], error) {
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	return &MappedRows[T]{rows: rows, f: f}, nil
}

// QueryMapNamed is QueryMap with named parameters.
func QueryMapNamed[T any](stmt *Stmt, f func(*Row) (T, error), args NamedArgs) (*MappedRows[T], error) {
	rows, err := stmt.QueryNamed(args)
	if err != nil {
		return nil, err
	}
	return &MappedRows[T]{rows: rows, f: f}, nil
}

// QueryAndThen runs stmt.Query(args...) and feeds every row to f, keeping
// f's errors per element.
func QueryAndThen[T any](stmt *Stmt, f func(*Row) (T, error), args ...any) (*AndThenRows[T], error) {
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	return &AndThenRows[T]{rows: rows, f: f}, nil
}

// QueryAndThenNamed is QueryAndThen with named parameters.
func QueryAndThenNamed[T any](stmt *Stmt, f func(*Row) (T, error), args NamedArgs) (*AndThenRows[T], error) {
	rows, err := stmt.QueryNamed(args)
	if err != nil {
		return nil, err
	}
	return &AndThenRows[T]{rows: rows, f: f}, nil
}
