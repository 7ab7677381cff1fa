package sqlite

import (
	"context"
	"database/sql"
	_ "embed"

	"scheduled-tasks/internal/store/schema"
)

//go:embed schema.sql
var ddl string

// Migrate creates the tasks table and its index if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	return schema.Apply(ctx, db, ddl)
}
