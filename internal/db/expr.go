package db

import (
	"fmt"
	"strings"
)

// Expr is a where-clause condition rendered against a column. The fragment
// holds one ? placeholder for every returned value, in order.
//
// The set of expressions is closed: use the constructors in this file.
type Expr interface {
	Render(column string) (fragment string, values []any)
	sealed()
}

// Assignable expressions can stand in for a plain value in insert and update
// column lists. Only Raw and Computed qualify.
type assignable interface {
	Expr
	valueFragment() (fragment string, values []any)
}

type eqExpr struct{ value any }

// Eq matches column = value. Plain values in a Where list become Eq.
func Eq(value any) Expr { return eqExpr{value: value} }

func (e eqExpr) Render(column string) (string, []any) {
	return column + " = ?", []any{e.value}
}
func (eqExpr) sealed() {}

type isNullExpr struct{}

// IsNull matches column is null. A nil value in a Where list becomes IsNull.
func IsNull() Expr { return isNullExpr{} }

func (isNullExpr) Render(column string) (string, []any) { return column + " is null", nil }
func (isNullExpr) sealed() {}

type inExpr struct {
	values []any
	negate bool
}

// In matches column in (?, ?, ...). Slices in a Where list become In.
func In(values ...any) Expr { return inExpr{values: values} }

// NotIn matches column not in (?, ?, ...).
func NotIn(values ...any) Expr { return inExpr{values: values, negate: true} }

func (e inExpr) Render(column string) (string, []any) {
	if len(e.values) == 0 {
		// an empty list matches nothing, its negation everything
		if e.negate {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}
	op := " in ("
	if e.negate {
		op = " not in ("
	}
	return column + op + placeholders(len(e.values)) + ")", append([]any(nil), e.values...)
}
func (inExpr) sealed() {}

type betweenExpr struct{ from, to any }

// Between matches column between from and to, both ends inclusive.
func Between(from, to any) Expr { return betweenExpr{from: from, to: to} }

func (e betweenExpr) Render(column string) (string, []any) {
	return column + " between ? and ?", []any{e.from, e.to}
}
func (betweenExpr) sealed() {}

type opExpr struct {
	op       string
	value    any
	nullable bool
}

// Op matches column <op> value, e.g. Op(">=", 10) or Op("like", "a%").
func Op(op string, value any) Expr { return opExpr{op: op, value: value} }

// NullOrOp matches rows where column is null or column <op> value.
func NullOrOp(op string, value any) Expr { return opExpr{op: op, value: value, nullable: true} }

func (e opExpr) Render(column string) (string, []any) {
	if e.nullable {
		return fmt.Sprintf("(%s is null or %s %s ?)", column, column, e.op), []any{e.value}
	}
	return fmt.Sprintf("%s %s ?", column, e.op), []any{e.value}
}
func (opExpr) sealed() {}

type computedExpr struct{ sql string }

// Computed is a server-side expression without bind values, like now() or
// "version + 1". As a condition it renders column = sql; in insert and update
// lists it replaces the placeholder.
func Computed(sql string) Expr { return computedExpr{sql: sql} }

func (e computedExpr) Render(column string) (string, []any) { return column + " = " + e.sql, nil }
func (e computedExpr) valueFragment() (string, []any) { return e.sql, nil }
func (computedExpr) sealed() {}

type rawExpr struct {
	sql    string
	values []any
}

// Raw is a verbatim fragment with its own bind values. The column name is not
// used, so the fragment must reference it itself.
//
// Raw panics when the number of ? placeholders differs from len(values).
func Raw(sql string, values ...any) Expr {
	if n := strings.Count(sql, "?"); n != len(values) {
		panic(fmt.Sprintf("db: raw expression %q has %d placeholders but %d values", sql, n, len(values)))
	}
	return rawExpr{sql: sql, values: values}
}

func (e rawExpr) Render(string) (string, []any) { return e.sql, e.values }
func (e rawExpr) valueFragment() (string, []any) { return e.sql, e.values }
func (rawExpr) sealed() {}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
