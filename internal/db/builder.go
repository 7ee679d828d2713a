package db

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
)

// Column pairs a column name with a value or an Expr.
type Column struct {
	Name  string
	Value any
}

// C is shorthand for Column{Name: name, Value: value}.
func C(name string, value any) Column {
	return Column{Name: name, Value: value}
}

// Where is an ordered list of conditions joined with "and". Values are
// interpreted as follows:
//
//   - nil: column is null
//   - Expr: rendered by the expression
//   - slice or array (except []byte): column in (...)
//   - anything else: column = ?
//
// List order is both clause order and bind order.
type Where []Column

// Values is an ordered list of column assignments for insert and update.
// Raw and Computed values replace the placeholder; everything else binds.
type Values []Column

// Statement is rendered SQL with ? placeholders and its flattened arguments.
type Statement struct {
	SQL  string
	Args []any
}

func (s Statement) String() string {
	return fmt.Sprintf("%s %v", s.SQL, s.Args)
}

// Names returns the column names in order.
func (v Values) Names() []string {
	names := make([]string, len(v))
	for i, c := range v {
		names[i] = c.Name
	}
	return names
}

// Insert renders insert into table (c1, c2) values (?, ?).
func Insert(table string, values Values) Statement {
	frags := make([]string, len(values))
	var args []any
	for i, c := range values {
		frag, a := valueFragment(c)
		frags[i] = frag
		args = append(args, a...)
	}
	return Statement{
		SQL:  fmt.Sprintf("insert into %s (%s) values (%s)", table, strings.Join(values.Names(), ", "), strings.Join(frags, ", ")),
		Args: args,
	}
}

// Upsert renders an insert that updates every given column when a row with
// the same uniqueFields already exists. uniqueFields defaults to "id".
// The arguments are the insert values followed by the same values again.
func Upsert(table string, values Values, uniqueFields ...string) Statement {
	if len(uniqueFields) == 0 {
		uniqueFields = []string{"id"}
	}
	ins := Insert(table, values)
	set, setArgs := setClause(values)
	return Statement{
		SQL:  ins.SQL + " on conflict (" + strings.Join(uniqueFields, ", ") + ") do update set " + set,
		Args: append(ins.Args, setArgs...),
	}
}

// Update renders update table set c = ? ... where ...; set arguments come
// before where arguments.
func Update(table string, values Values, where Where) Statement {
	set, args := setClause(values)
	w, wargs := where.render()
	return Statement{
		SQL:  "update " + table + " set " + set + w,
		Args: append(args, wargs...),
	}
}

// Delete renders delete from table where ....
func Delete(table string, where Where) Statement {
	w, args := where.render()
	return Statement{SQL: "delete from " + table + w, Args: args}
}

// Select appends the where clause and an optional suffix (order by, limit)
// to an arbitrary select head such as "select count(*) from users".
func Select(head string, where Where, suffix string) Statement {
	w, args := where.render()
	sql := head + w
	if suffix != "" {
		sql += " " + suffix
	}
	return Statement{SQL: sql, Args: args}
}

// SelectAll is Select("select * from " + table, where, suffix).
func SelectAll(table string, where Where, suffix string) Statement {
	return Select("select * from "+table, where, suffix)
}

func (w Where) render() (string, []any) {
	if len(w) == 0 {
		return "", nil
	}
	frags := make([]string, len(w))
	var args []any
	for i, c := range w {
		frag, a := condition(c.Value).Render(c.Name)
		frags[i] = frag
		args = append(args, a...)
	}
	return " where " + strings.Join(frags, " and "), args
}

// condition classifies a raw where value into an expression.
func condition(value any) Expr {
	switch v := value.(type) {
	case nil:
		return IsNull()
	case Expr:
		return v
	case []byte, driver.Valuer:
		// uuid.UUID is an array but binds as a single value
		return Eq(v)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return In(items...)
	case reflect.Pointer:
		if rv.IsNil() {
			return IsNull()
		}
	}
	return Eq(value)
}

func setClause(values Values) (string, []any) {
	frags := make([]string, len(values))
	var args []any
	for i, c := range values {
		frag, a := valueFragment(c)
		frags[i] = c.Name + " = " + frag
		args = append(args, a...)
	}
	return strings.Join(frags, ", "), args
}

func valueFragment(c Column) (string, []any) {
	switch v := c.Value.(type) {
	case assignable:
		return v.valueFragment()
	case Expr:
		panic(fmt.Sprintf("db: %T cannot be assigned to column %s", v, c.Name))
	}
	return "?", []any{c.Value}
}
