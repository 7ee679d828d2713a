package db

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTx returns a copy of ctx carrying tx, a DB bound to a transaction by
// InTx. Repositories pick it up through From.
func WithTx(ctx context.Context, tx *DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// From returns the transaction carried by ctx when it was opened on the same
// pool as d, and d otherwise.
func From(ctx context.Context, d *DB) *DB {
	if tx, ok := ctx.Value(txKey{}).(*DB); ok && tx != nil && d != nil && tx.pool == d.pool {
		return tx
	}
	return d
}

// InTransaction reports whether d runs inside a transaction.
func (d *DB) InTransaction() bool {
	_, ok := d.conn.(*sql.Tx)
	return ok
}
