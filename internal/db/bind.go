package db

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/lib/pq"
)

// bindArgs converts statement arguments into values every supported driver
// accepts.
func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = BindValue(a)
	}
	return out
}

// BindValue coerces a Go value before it is handed to the driver:
//
//   - enums bind as their name: fmt.Stringer values via String, string-based
//     ones as is
//   - time.Time binds in UTC
//   - time.Duration and URLs bind as their string form
//   - driver.Valuer implementations (uuid.UUID, pq arrays) bind as is
//   - other slices bind as a text array of their elements' string forms
func BindValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case driver.Valuer:
		return t
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case time.Duration:
		return t.String()
	case *url.URL:
		if t == nil {
			return nil
		}
		return t.String()
	case url.URL:
		return t.String()
	case fmt.Stringer:
		if rv := reflect.ValueOf(t); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return t.String()
	case string, []byte, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return pq.Array(items)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return BindValue(rv.Elem().Interface())
	}
	return v
}
