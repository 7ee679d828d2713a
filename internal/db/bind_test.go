package db

import (
	"database/sql/driver"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type currency string

type side int

const (
	buy side = iota
	sell
)

func (s side) String() string {
	if s == sell {
		return "SELL"
	}
	return "BUY"
}

type ticker struct{ symbol string }

func (t *ticker) String() string { return t.symbol }

func TestBindValue(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	local := time.Date(2024, 3, 1, 15, 0, 0, 0, moscow)

	t.Run("enum binds as name", func(t *testing.T) {
		assert.Equal(t, "EUR", BindValue(currency("EUR")))
		assert.Equal(t, "SELL", BindValue(sell))
		assert.Equal(t, "BUY", BindValue(buy))
		assert.Equal(t, "ACME", BindValue(&ticker{symbol: "ACME"}))

		var missing *ticker
		assert.Nil(t, BindValue(missing))
	})

	t.Run("time binds in utc", func(t *testing.T) {
		got, ok := BindValue(local).(time.Time)
		require.True(t, ok)
		assert.Equal(t, time.UTC, got.Location())
		assert.True(t, got.Equal(local))
	})

	t.Run("duration and url bind as text", func(t *testing.T) {
		assert.Equal(t, "1h30m0s", BindValue(90*time.Minute))
		u, _ := url.Parse("https://example.com/a?b=c")
		assert.Equal(t, "https://example.com/a?b=c", BindValue(u))
		assert.Equal(t, "https://example.com/a?b=c", BindValue(*u))
	})

	t.Run("valuers are kept", func(t *testing.T) {
		id := uuid.New()
		assert.Equal(t, id, BindValue(id))
	})

	t.Run("collections bind as text arrays", func(t *testing.T) {
		v, ok := BindValue([]currency{"EUR", "USD"}).(driver.Valuer)
		require.True(t, ok)
		dv, err := v.Value()
		require.NoError(t, err)
		assert.Equal(t, `{"EUR","USD"}`, dv)

		v, ok = BindValue([]int{1, 2}).(driver.Valuer)
		require.True(t, ok)
		dv, err = v.Value()
		require.NoError(t, err)
		assert.Equal(t, `{"1","2"}`, dv)

		v, ok = BindValue([]side{buy, sell}).(driver.Valuer)
		require.True(t, ok)
		dv, err = v.Value()
		require.NoError(t, err)
		assert.Equal(t, `{"BUY","SELL"}`, dv)
	})

	t.Run("scalars and nil pass through", func(t *testing.T) {
		var nilTime *time.Time
		var nilURL *url.URL
		assert.Nil(t, BindValue(nil))
		assert.Nil(t, BindValue(nilTime))
		assert.Nil(t, BindValue(nilURL))
		assert.Equal(t, 42, BindValue(42))
		assert.Equal(t, []byte("x"), BindValue([]byte("x")))
		s := "ptr"
		assert.Equal(t, "ptr", BindValue(&s))
	})
}
