package db

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert(t *testing.T) {
	stmt := Insert("portfolios", Values{C("id", "p1"), C("user_id", "u1"), C("name", "Main")})

	assert.Equal(t, "insert into portfolios (id, user_id, name) values (?, ?, ?)", stmt.SQL)
	assert.Equal(t, []any{"p1", "u1", "Main"}, stmt.Args)
}

func TestInsertWithExpressions(t *testing.T) {
	stmt := Insert("events", Values{
		C("id", 1),
		C("created_at", Computed("now()")),
		C("due", Raw("? + interval '1 day'", "2024-01-01")),
	})

	assert.Equal(t, "insert into events (id, created_at, due) values (?, now(), ? + interval '1 day')", stmt.SQL)
	assert.Equal(t, []any{1, "2024-01-01"}, stmt.Args)
}

func TestUpsert(t *testing.T) {
	t.Run("default unique field", func(t *testing.T) {
		stmt := Upsert("portfolios", Values{C("id", "p1"), C("name", "Main")})

		assert.Equal(t,
			"insert into portfolios (id, name) values (?, ?) on conflict (id) do update set id = ?, name = ?",
			stmt.SQL)
		assert.Equal(t, []any{"p1", "Main", "p1", "Main"}, stmt.Args)
	})

	t.Run("custom unique fields", func(t *testing.T) {
		stmt := Upsert("rates", Values{C("day", "2024-01-01"), C("currency", "EUR"), C("rate", 1.1)}, "day", "currency")

		assert.True(t, strings.HasSuffix(stmt.SQL,
			"on conflict (day, currency) do update set day = ?, currency = ?, rate = ?"), stmt.SQL)
		assert.Len(t, stmt.Args, 6)
	})
}

func TestUpdate(t *testing.T) {
	stmt := Update("portfolios",
		Values{C("name", "Renamed")},
		Where{C("id", "p1"), C("user_id", "u1")})

	assert.Equal(t, "update portfolios set name = ? where id = ? and user_id = ?", stmt.SQL)
	assert.Equal(t, []any{"Renamed", "p1", "u1"}, stmt.Args, "set values come before where values")
}

func TestDelete(t *testing.T) {
	assert.Equal(t, Statement{SQL: "delete from portfolios where id = ?", Args: []any{"p1"}},
		Delete("portfolios", Where{C("id", "p1")}))
	assert.Equal(t, "delete from portfolios", Delete("portfolios", nil).SQL)
}

func TestSelectWhere(t *testing.T) {
	id := uuid.MustParse("7f3c1a52-4b2e-4d4c-9a51-0e6a1a7c2f10")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		where    Where
		wantSQL  string
		wantArgs []any
	}{
		{"empty", nil, "select * from t", nil},
		{"literal", Where{C("a", 1)}, "select * from t where a = ?", []any{1}},
		{"nil is null", Where{C("a", nil)}, "select * from t where a is null", nil},
		{"slice is in", Where{C("a", []string{"x", "y"})}, "select * from t where a in (?, ?)", []any{"x", "y"}},
		{"array is in", Where{C("a", [2]int{1, 2})}, "select * from t where a in (?, ?)", []any{1, 2}},
		{"uuid binds once", Where{C("id", id)}, "select * from t where id = ?", []any{id}},
		{"bytes bind once", Where{C("h", []byte("ab"))}, "select * from t where h = ?", []any{[]byte("ab")}},
		{"not in", Where{C("a", NotIn("x", "y"))}, "select * from t where a not in (?, ?)", []any{"x", "y"}},
		{"empty in", Where{C("a", In())}, "select * from t where 1 = 0", nil},
		{"empty not in", Where{C("a", NotIn())}, "select * from t where 1 = 1", nil},
		{"between", Where{C("d", Between(from, to))}, "select * from t where d between ? and ?", []any{from, to}},
		{"op", Where{C("n", Op(">=", 10))}, "select * from t where n >= ?", []any{10}},
		{"null or op", Where{C("n", NullOrOp("<", 5))}, "select * from t where (n is null or n < ?)", []any{5}},
		{"computed", Where{C("n", Computed("m + 1"))}, "select * from t where n = m + 1", nil},
		{"raw", Where{C("ignored", Raw("lower(name) like ?", "a%"))}, "select * from t where lower(name) like ?", []any{"a%"}},
		{
			"mixed order",
			Where{C("user_id", "u1"), C("deleted_at", nil), C("kind", []string{"a"}), C("n", Between(1, 9))},
			"select * from t where user_id = ? and deleted_at is null and kind in (?) and n between ? and ?",
			[]any{"u1", "a", 1, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := SelectAll("t", tt.where, "")
			assert.Equal(t, tt.wantSQL, stmt.SQL)
			assert.Equal(t, tt.wantArgs, stmt.Args)
		})
	}
}

func TestSelectSuffixAndHead(t *testing.T) {
	stmt := Select("select count(*) from portfolios", Where{C("user_id", "u1")}, "group by user_id")

	assert.Equal(t, "select count(*) from portfolios where user_id = ? group by user_id", stmt.SQL)
	assert.Equal(t, "select * from p order by name", SelectAll("p", nil, "order by name").SQL)
}

func TestPlaceholderCountMatchesArgs(t *testing.T) {
	where := Where{
		C("a", 1),
		C("b", nil),
		C("c", []int{1, 2, 3}),
		C("d", NotIn("x")),
		C("e", Between(1, 2)),
		C("f", NullOrOp("=", 1)),
		C("g", Computed("now()")),
		C("h", Raw("h > ? and h < ?", 1, 5)),
	}
	values := Values{C("x", 1), C("y", Computed("now()")), C("z", Raw("coalesce(?, 0)", nil))}

	for _, stmt := range []Statement{
		SelectAll("t", where, "limit 10"),
		Update("t", values, where),
		Delete("t", where),
		Insert("t", values),
		Upsert("t", values, "x"),
	} {
		require.Equal(t, strings.Count(stmt.SQL, "?"), len(stmt.Args), stmt.SQL)
	}
}

func TestRawPanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() { Raw("a = ? and b = ?", 1) })
	assert.NotPanics(t, func() { Raw("a is not null") })
}

func TestConditionCannotBeAssigned(t *testing.T) {
	assert.Panics(t, func() { Insert("t", Values{C("a", Between(1, 2))}) })
	assert.Panics(t, func() { Update("t", Values{C("a", NotIn(1))}, nil) })
}
