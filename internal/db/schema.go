package db

import (
	"context"
	_ "embed"
	"greentrack/internal/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Migrate creates the schema and tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return utils.WrapError(err, "apply schema")
}
