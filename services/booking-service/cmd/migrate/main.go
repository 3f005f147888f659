// Command migrate applies the booking-service schema.
//
//	migrate up
//	migrate down
//	migrate force <version>
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/migrations"
)

func main() {
	logger := runtime.NewLogger("booking-migrate", config.String("LOG_LEVEL", "info"))
	if err := config.Load(); err != nil {
		logger.Error("load env file", "err", err)
		os.Exit(1)
	}
	if err := run(os.Args[1:], logger); err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		args = []string{"up"}
	}
	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	dbDriver, err := pgxmigrate.WithInstance(conn, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("db driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], convErr)
		}
		err = m.Force(version)
	default:
		return fmt.Errorf("unknown command %q (want up, down or force <version>)", args[0])
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("read version: %w", verr)
	}
	logger.Info("migrations complete", "command", args[0], "version", version, "dirty", dirty)
	return nil
}
