package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/logger"
	"github.com/roperito/roperito-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", "", "goose migrations directory (empty uses the embedded files)")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	ctx := logg.WithField(context.Background(), "cmd", *cmd)

	// create and validate work on files only
	switch *cmd {
	case "create":
		if *name == "" {
			fail(ctx, logg, "missing -name for create", nil)
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name, time.Now())
		if err != nil {
			fail(ctx, logg, "failed to create migration", err)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		if err := migrate.ValidateDir(target); err != nil {
			fail(ctx, logg, "migration validation failed", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	requireResource(ctx, logg, "sql database", err)

	src := migrate.Source{Dialect: "postgres", Dir: *dir}
	if cfg.DB.IsSQLite() {
		src.Dialect = "sqlite3"
	}

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, src, *cmd); err != nil {
			fail(ctx, logg, "goose "+*cmd+" failed", err)
		}
	case "version":
		if *version == "" {
			fail(ctx, logg, "missing -version for version command", nil)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, src, *version); err != nil {
			fail(ctx, logg, "goose version migrate failed", err)
		}
	default:
		fail(ctx, logg, "unknown -cmd value: "+*cmd, nil)
	}
	logg.Info(ctx, "migrate finished")
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	fail(ctx, logg, fmt.Sprintf("resource not working: %s", resource), err)
}
