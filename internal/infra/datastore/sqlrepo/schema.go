package sqlrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the tables for d if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB, d Dialect) error {
	for _, stmt := range d.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema (%s): %w", d.Name(), err)
		}
	}
	return nil
}
