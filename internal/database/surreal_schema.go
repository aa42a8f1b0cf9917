package database

import (
	"context"
	"fmt"
)

// surrealSchema defines the account and post tables. The unique index makes
// concurrent registrations with the same email fail at the store, and the
// event removes an account's posts when the account goes away.
var surrealSchema = []string{
	`DEFINE TABLE IF NOT EXISTS account SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS account_email ON TABLE account FIELDS email UNIQUE`,
	`DEFINE TABLE IF NOT EXISTS post SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS post_author ON TABLE post FIELDS author`,
	`DEFINE INDEX IF NOT EXISTS post_created ON TABLE post FIELDS created_on`,
	`DEFINE EVENT IF NOT EXISTS account_posts_cascade ON TABLE account WHEN $event = "DELETE" THEN (DELETE post WHERE author = $before.id)`,
}

// ApplySurrealSchema runs the schema definitions. Every statement is
// idempotent so it is safe on each boot.
func ApplySurrealSchema(ctx context.Context, db Database) error {
	for _, stmt := range surrealSchema {
		if err := db.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("apply schema %q: %w", stmt, err)
		}
	}
	return nil
}
