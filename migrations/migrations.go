// Package migrations embeds the key-value state schema.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

const dialect = "sqlite3"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// Setup points goose at the embedded files.
func Setup() error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

// Run brings db up to the latest schema version without goose's own output.
func Run(db *sql.DB) error {
	if err := Setup(); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version.
func Version(db *sql.DB) (int64, error) {
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}
