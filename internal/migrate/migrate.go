// Package migrate applies the embedded profile-store migrations.
package migrate

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/labrat/migrations"
)

// Up runs all pending migrations against dsn.
func Up(ctx context.Context, dsn string) error {
	return run(ctx, dsn, func(db *sql.DB) error { return goose.UpContext(ctx, db, ".") })
}

// Status logs the applied state of every migration through goose's logger.
func Status(ctx context.Context, dsn string) error {
	return run(ctx, dsn, func(db *sql.DB) error { return goose.StatusContext(ctx, db, ".") })
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, dsn string) error {
	return run(ctx, dsn, func(db *sql.DB) error { return goose.DownContext(ctx, db, ".") })
}

func run(ctx context.Context, dsn string, fn func(*sql.DB) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(db)
}
