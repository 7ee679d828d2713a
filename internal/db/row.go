package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Row is the current result row handed to a Mapper. Getters look columns up
// by name. Conversion failures are sticky: the first one is reported by the
// query after the mapper returns.
type Row struct {
	index  map[string]int
	values []any
	err    error
}

// Mapper converts one row into a value.
type Mapper[T any] func(r *Row) (T, error)

func newRow(rows *sql.Rows) (*Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	r := &Row{index: make(map[string]int, len(cols)), values: make([]any, len(cols))}
	for i, c := range cols {
		r.index[c] = i
	}
	return r, nil
}

func (r *Row) scan(rows *sql.Rows) error {
	dest := make([]any, len(r.values))
	for i := range r.values {
		r.values[i] = nil
		dest[i] = &r.values[i]
	}
	r.err = nil
	return rows.Scan(dest...)
}

// Err returns the first conversion error of the current row.
func (r *Row) Err() error { return r.err }

func (r *Row) fail(column string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("column %s: %w", column, err)
	}
}

// Value returns the raw driver value of column.
func (r *Row) Value(column string) any {
	i, ok := r.index[column]
	if !ok {
		r.fail(column, fmt.Errorf("no such column"))
		return nil
	}
	return r.values[i]
}

// IsNull reports whether column holds SQL null.
func (r *Row) IsNull(column string) bool {
	return r.Value(column) == nil
}

// String returns column as text; null is "".
func (r *Row) String(column string) string {
	switch v := r.Value(column).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// StringOrNil returns nil for SQL null.
func (r *Row) StringOrNil(column string) *string {
	if r.IsNull(column) {
		return nil
	}
	s := r.String(column)
	return &s
}

// ID parses column as a UUID; the default column is "id".
func (r *Row) ID(column ...string) uuid.UUID {
	name := "id"
	if len(column) > 0 {
		name = column[0]
	}
	id, err := uuid.Parse(r.String(name))
	if err != nil {
		r.fail(name, err)
		return uuid.Nil
	}
	return id
}

// IDOrNil parses column as a UUID, returning nil for SQL null.
func (r *Row) IDOrNil(column string) *uuid.UUID {
	if r.IsNull(column) {
		return nil
	}
	id := r.ID(column)
	return &id
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Time returns column as an instant in UTC.
func (r *Row) Time(column string) time.Time {
	switch v := r.Value(column).(type) {
	case time.Time:
		return v.UTC()
	case nil:
		r.fail(column, fmt.Errorf("unexpected null"))
		return time.Time{}
	case int64:
		return time.Unix(v, 0).UTC()
	default:
		s := r.String(column)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		r.fail(column, fmt.Errorf("cannot parse %q as time", s))
		return time.Time{}
	}
}

// Date returns the calendar date of column at midnight UTC.
func (r *Row) Date(column string) time.Time {
	t := r.Time(column)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Duration parses column as a Go duration string.
func (r *Row) Duration(column string) time.Duration {
	s := r.String(column)
	d, err := time.ParseDuration(s)
	if err != nil {
		r.fail(column, err)
	}
	return d
}

// Int64 returns column as an integer.
func (r *Row) Int64(column string) int64 {
	switch v := r.Value(column).(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case nil:
		r.fail(column, fmt.Errorf("unexpected null"))
		return 0
	default:
		n, err := strconv.ParseInt(r.String(column), 10, 64)
		if err != nil {
			r.fail(column, err)
		}
		return n
	}
}

// Int returns column as an int.
func (r *Row) Int(column string) int { return int(r.Int64(column)) }

// IntOrNil returns nil for SQL null.
func (r *Row) IntOrNil(column string) *int {
	if r.IsNull(column) {
		return nil
	}
	n := r.Int(column)
	return &n
}

// Bool returns column as a boolean.
func (r *Row) Bool(column string) bool {
	switch v := r.Value(column).(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case nil:
		return false
	default:
		b, err := strconv.ParseBool(r.String(column))
		if err != nil {
			r.fail(column, err)
		}
		return b
	}
}

// Enum converts a text column into a string-based enum. When valid values
// are given the column must hold one of them.
func Enum[E ~string](r *Row, column string, valid ...E) E {
	e := E(r.String(column))
	if len(valid) == 0 {
		return e
	}
	for _, v := range valid {
		if v == e {
			return e
		}
	}
	r.fail(column, fmt.Errorf("unknown value %q", string(e)))
	return e
}
