// Package schema applies the embedded DDL of a store.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Apply runs each ";"-separated statement of ddl in order. The DDL must be
// idempotent (CREATE ... IF NOT EXISTS), as it runs on every start.
func Apply(ctx context.Context, db *sql.DB, ddl string) error {
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
