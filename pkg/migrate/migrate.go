package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source selects where goose reads migrations from. An empty Dir uses the
// files compiled into the binary.
type Source struct {
	Dialect string
	Dir     string
}

func (s Source) prepare() (fs.FS, string, error) {
	dialect := s.Dialect
	if dialect == "" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, "", fmt.Errorf("set goose dialect: %w", err)
	}
	if s.Dir == "" {
		return embedded, "migrations", nil
	}
	return nil, s.Dir, nil
}

// Run executes a goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	fsys, dir, err := src.prepare()
	if err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up or down until the database sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, src Source, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	fsys, dir, err := src.prepare()
	if err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

// EmbeddedFiles lists the migration files compiled into the binary.
func EmbeddedFiles() ([]string, error) {
	return fs.Glob(embedded, "migrations/*.sql")
}
