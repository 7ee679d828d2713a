package db

import "context"

// BaseRepository is embedded by table-backed repositories.
type BaseRepository struct {
	DB    *DB
	Table string
}

// NewBaseRepository binds a repository to a table.
func NewBaseRepository(db *DB, table string) BaseRepository {
	return BaseRepository{DB: db, Table: table}
}

// Conn returns the request transaction carried by ctx, or the repository's DB.
func (r BaseRepository) Conn(ctx context.Context) *DB {
	return From(ctx, r.DB)
}

// Count returns the number of rows in the table.
func (r BaseRepository) Count(ctx context.Context) (int64, error) {
	return r.Conn(ctx).Count(ctx, r.Table, nil)
}
