package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
)

func main() {
	storagePath, migrationsPath := getFlagsValues()
	if err := validateFlags(storagePath, migrationsPath); err != nil {
		slog.Error("too few args", "err", err)
		fallDown()
	}
	if err := makeMigrations(storagePath, migrationsPath); err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() (storage, migrations string) {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres DSN")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "", "migrations directory")
	pflag.Parse()
	return *storagePath, *migrationsPath
}

func validateFlags(storagePath, migrationsPath string) error {
	var errs []error

	if storagePath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", storagePathFlag))
	}

	if migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	return errors.Join(errs...)
}

// databaseURL accepts the DSN with or without the postgres scheme.
func databaseURL(storagePath string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(storagePath, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return "pgx5://" + storagePath
}

func sourceURL(migrationsPath string) string {
	return "file://" + migrationsPath
}

func makeMigrations(storagePath, migrationsPath string) error {
	m, err := migrate.New(sourceURL(migrationsPath), databaseURL(storagePath))
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			slog.Warn("failed to close migrator", "err", err)
		}
	}()

	m.Log = NewMigrationLogger()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return nil
		}
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.Log.Printf("migration applied, version %d, dirty %t", version, dirty)
	return nil
}

func fallDown() {
	os.Exit(2)
}
